package typebridge

import (
	"fmt"
	"sort"
	"strings"

	"go.miragespace.co/typebridge/compiler"
)

// Diagnostic codes that isolated single-file transpilation produces as a
// matter of course: unresolvable modules and names, unassignable types,
// missing properties, and namespaces under isolated modules. These are
// noise without whole-program knowledge and are never surfaced.
var ignoredDiagnostics = map[int]struct{}{
	2307: {}, // cannot find module
	2304: {}, // cannot find name
	2322: {}, // type is not assignable
	2339: {}, // property does not exist on type
	1208: {}, // file is not a module under isolated modules
}

// diagnosticFilter is fixed at construction from the ignoreErrors option:
// literal true suppresses every diagnostic, a list suppresses the named
// codes, anything else leaves only the built-in set in effect.
type diagnosticFilter struct {
	all   bool
	codes map[int]struct{}
}

func newDiagnosticFilter(ignoreErrors any) diagnosticFilter {
	switch v := ignoreErrors.(type) {
	case bool:
		return diagnosticFilter{all: v}
	case []any:
		codes := make(map[int]struct{}, len(v))
		for _, item := range v {
			if code, ok := asDiagnosticCode(item); ok {
				codes[code] = struct{}{}
			}
		}
		return diagnosticFilter{codes: codes}
	case []int:
		codes := make(map[int]struct{}, len(v))
		for _, code := range v {
			codes[code] = struct{}{}
		}
		return diagnosticFilter{codes: codes}
	}
	return diagnosticFilter{}
}

func asDiagnosticCode(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func (f diagnosticFilter) keep(d compiler.Diagnostic) bool {
	if _, ok := ignoredDiagnostics[d.Code]; ok {
		return false
	}
	if f.all {
		return false
	}
	if _, ok := f.codes[d.Code]; ok {
		return false
	}
	return true
}

// DiagnosticError aggregates every diagnostic left after filtering into a
// single failure for the compile call.
type DiagnosticError struct {
	Diagnostics []compiler.Diagnostic
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = formatDiagnostic(d)
	}
	return strings.Join(msgs, "\n")
}

func formatDiagnostic(d compiler.Diagnostic) string {
	return fmt.Sprintf("Error %d: %s (%s)", d.Code, d.Message, formatPosition(d))
}

// formatPosition renders the 1-based line and column of a diagnostic by
// finding the largest line start at or before its character offset.
func formatPosition(d compiler.Diagnostic) string {
	if len(d.Lines) == 0 || d.Start < 0 {
		return "No line map"
	}
	idx := sort.Search(len(d.Lines), func(i int) bool {
		return d.Lines[i] > d.Start
	}) - 1
	if idx < 0 {
		idx = 0
	}
	return fmt.Sprintf("Line: %d, Col: %d", idx+1, d.Start-d.Lines[idx]+1)
}
