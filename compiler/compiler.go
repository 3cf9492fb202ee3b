// Package compiler defines the boundary to the external single-file
// TypeScript transpiler. The adapter in the root package only ever sees
// Inputs, Results and Diagnostics; everything compiler specific lives in
// the backend subpackages.
package compiler

import "context"

// Input is one transpilation request: the full source text, the logical
// file name used for diagnostics and source map attribution, and the
// normalized compiler options.
type Input struct {
	Source   string
	FileName string
	Options  map[string]any
}

// Result carries the emitted code, the JSON source map when one was
// requested, and every diagnostic the compiler reported. Code carries no
// trailing newline; the adapter owns output framing.
type Result struct {
	Code        string
	SourceMap   string
	Diagnostics []Diagnostic
}

// Diagnostic is a single compiler message. Start is a character offset
// into the source (-1 when unknown) and Lines is the source's line start
// offset table (nil when the compiler attached no source file).
type Diagnostic struct {
	Code    int
	Message string
	Start   int
	Lines   []int
}

// Transpiler is the single-file transpilation contract. Implementations
// must be safe for concurrent use.
type Transpiler interface {
	Transpile(ctx context.Context, in Input) (Result, error)
}

// LineStarts computes the line start offset table for src, one entry per
// line, the way compilers index their diagnostics.
func LineStarts(src string) []int {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}
