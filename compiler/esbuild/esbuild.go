// Package esbuild adapts the single-file Transform API of
// github.com/evanw/esbuild to the compiler.Transpiler contract. It is the
// default backend: fast, in-process, and dependency free at runtime.
package esbuild

import (
	"context"
	"path"
	"regexp"
	"strconv"

	"go.miragespace.co/typebridge/compiler"

	"github.com/evanw/esbuild/pkg/api"
	"go.uber.org/zap"
)

// scriptTargets maps the numeric target codes the adapter resolves onto
// esbuild's target constants. esbuild has no ES3 output, so code 0 shares
// the ES5 floor.
var scriptTargets = map[int]api.Target{
	0:  api.ES5,
	1:  api.ES5,
	2:  api.ES2015,
	3:  api.ES2016,
	4:  api.ES2017,
	5:  api.ES2018,
	6:  api.ES2019,
	7:  api.ES2020,
	8:  api.ES2021,
	9:  api.ES2022,
	99: api.ESNext,
}

// esbuild carries no numeric diagnostic codes of its own; TypeScript style
// TS<nnnn> prefixes in the message text are recovered when present.
var tsCodePattern = regexp.MustCompile(`^TS(\d+):\s*`)

type Transpiler struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Transpiler {
	return &Transpiler{logger: logger}
}

// Transpile runs one source through api.Transform. The call is synchronous
// and never fails outright: problems come back as Diagnostics.
func (t *Transpiler) Transpile(_ context.Context, in compiler.Input) (compiler.Result, error) {
	opts := api.TransformOptions{
		Loader:        loaderFor(in.FileName),
		Sourcefile:    in.FileName,
		Platform:      api.PlatformNeutral,
		LogLevel:      api.LogLevelSilent,
		Charset:       api.CharsetUTF8,
		LegalComments: api.LegalCommentsNone,
	}

	if target, ok := scriptTargets[intOption(in.Options, "target")]; ok {
		opts.Target = target
	}

	if intOption(in.Options, "jsx") == 1 {
		opts.JSX = api.JSXPreserve
	} else {
		opts.JSX = api.JSXTransform
	}

	switch intOption(in.Options, "module") {
	case 1:
		opts.Format = api.FormatCommonJS
	case 5, 6, 7, 99:
		opts.Format = api.FormatESModule
	}

	if boolOption(in.Options, "sourceMap") {
		opts.Sourcemap = api.SourceMapExternal
		opts.SourcesContent = api.SourcesContentInclude
	}

	result := api.Transform(in.Source, opts)

	for _, w := range result.Warnings {
		t.logger.Debug("esbuild warning",
			zap.String("file", in.FileName),
			zap.String("text", w.Text),
		)
	}

	lines := compiler.LineStarts(in.Source)
	diags := make([]compiler.Diagnostic, 0, len(result.Errors))
	for _, msg := range result.Errors {
		diags = append(diags, toDiagnostic(msg, lines))
	}

	return compiler.Result{
		Code:        trimTrailingNewline(string(result.Code)),
		SourceMap:   string(result.Map),
		Diagnostics: diags,
	}, nil
}

func toDiagnostic(msg api.Message, lines []int) compiler.Diagnostic {
	d := compiler.Diagnostic{
		Message: msg.Text,
		Start:   -1,
	}
	if m := tsCodePattern.FindStringSubmatch(msg.Text); m != nil {
		d.Code, _ = strconv.Atoi(m[1])
		d.Message = msg.Text[len(m[0]):]
	}
	if loc := msg.Location; loc != nil && loc.Line >= 1 && loc.Line <= len(lines) {
		d.Start = lines[loc.Line-1] + loc.Column
		d.Lines = lines
	}
	return d
}

func loaderFor(name string) api.Loader {
	switch path.Ext(name) {
	case ".tsx":
		return api.LoaderTSX
	case ".jsx":
		return api.LoaderJSX
	case ".js", ".mjs", ".cjs":
		return api.LoaderJS
	default:
		return api.LoaderTS
	}
}

func trimTrailingNewline(s string) string {
	if n := len(s); n > 0 && s[n-1] == '\n' {
		return s[:n-1]
	}
	return s
}

func intOption(opts map[string]any, key string) int {
	switch v := opts[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func boolOption(opts map[string]any, key string) bool {
	b, _ := opts[key].(bool)
	return b
}
