package typebridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"

	"go.miragespace.co/typebridge/compiler"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubTranspiler struct {
	calls  atomic.Int32
	result compiler.Result
	err    error
}

func (s *stubTranspiler) Transpile(ctx context.Context, in compiler.Input) (compiler.Result, error) {
	s.calls.Add(1)
	if s.err != nil {
		return compiler.Result{}, s.err
	}
	return s.result, nil
}

func newTestAdapter(t *testing.T, cfg Config, stub *stubTranspiler) *Adapter {
	t.Helper()

	if cfg.Root == "" {
		cfg.Root = t.TempDir()
	}
	if cfg.Logger == nil {
		cfg.Logger = zaptest.NewLogger(t)
	}
	if cfg.Transpiler == nil && stub != nil {
		cfg.Transpiler = stub
	}

	a, err := New(cfg)
	require.NoError(t, err)
	return a
}

func TestNewRequiresLogger(t *testing.T) {
	as := require.New(t)

	_, err := New(Config{Root: t.TempDir()})
	as.Error(err)
}

func TestNewRequiresRoot(t *testing.T) {
	as := require.New(t)

	_, err := New(Config{Logger: zaptest.NewLogger(t)})
	as.Error(err)
}

func TestCompileIgnoredPassthrough(t *testing.T) {
	as := require.New(t)

	stub := &stubTranspiler{}
	a := newTestAdapter(t, Config{
		Options: map[string]any{"ignore": "vendor/**"},
	}, stub)

	in := File{Path: "vendor/lib.ts", Data: "const x: number = 1;"}
	out, err := a.Compile(context.Background(), in)
	as.NoError(err)
	as.Equal(in, out)
	as.EqualValues(0, stub.calls.Load())
}

func TestCompileVendorConvention(t *testing.T) {
	as := require.New(t)

	stub := &stubTranspiler{result: compiler.Result{Code: "ok"}}
	a := newTestAdapter(t, Config{
		VendorGlob: "**/vendor/**",
	}, stub)

	out, err := a.Compile(context.Background(), File{Path: "js/vendor/jquery.ts", Data: "x"})
	as.NoError(err)
	as.Equal("x", out.Data)
	as.EqualValues(0, stub.calls.Load())

	_, err = a.Compile(context.Background(), File{Path: "js/app.ts", Data: "x"})
	as.NoError(err)
	as.EqualValues(1, stub.calls.Load())
}

func TestCompileAppendsTrailingNewline(t *testing.T) {
	as := require.New(t)

	stub := &stubTranspiler{result: compiler.Result{Code: "var x = 1;"}}
	a := newTestAdapter(t, Config{}, stub)

	out, err := a.Compile(context.Background(), File{Path: "a.ts", Data: "const x = 1;"})
	as.NoError(err)
	as.Equal("var x = 1;\n", out.Data)
	as.Empty(out.Map)
}

func TestCompileRewritesSourceMap(t *testing.T) {
	as := require.New(t)

	stub := &stubTranspiler{result: compiler.Result{
		Code:      "var x = 1;",
		SourceMap: `{"version":3,"sources":["module.ts"],"mappings":"AAAA","names":[]}`,
	}}
	a := newTestAdapter(t, Config{SourceMaps: true}, stub)

	out, err := a.Compile(context.Background(), File{Path: "src/app.ts", Data: "const x = 1;"})
	as.NoError(err)
	as.NotEmpty(out.Map)

	var m struct {
		Version  int      `json:"version"`
		Sources  []string `json:"sources"`
		Mappings string   `json:"mappings"`
	}
	as.NoError(json.Unmarshal([]byte(out.Map), &m))
	as.Equal(3, m.Version)
	as.Equal([]string{"src/app.ts"}, m.Sources)
	as.Equal("AAAA", m.Mappings)
}

func TestCompileDiagnosticsFail(t *testing.T) {
	as := require.New(t)

	stub := &stubTranspiler{result: compiler.Result{
		Diagnostics: []compiler.Diagnostic{
			{Code: 7006, Message: "parameter implicitly has an any type", Start: 4, Lines: []int{0}},
			{Code: 1005, Message: "';' expected", Start: -1},
		},
	}}
	a := newTestAdapter(t, Config{}, stub)

	_, err := a.Compile(context.Background(), File{Path: "a.ts", Data: "bad"})
	as.Error(err)

	var diagErr *DiagnosticError
	as.ErrorAs(err, &diagErr)
	as.Len(diagErr.Diagnostics, 2)
	as.Equal(
		"Error 7006: parameter implicitly has an any type (Line: 1, Col: 5)\n"+
			"Error 1005: ';' expected (No line map)",
		err.Error(),
	)
}

func TestCompileFixedIgnoreSet(t *testing.T) {
	as := require.New(t)

	stub := &stubTranspiler{result: compiler.Result{
		Code: "ok",
		Diagnostics: []compiler.Diagnostic{
			{Code: 2307, Message: "cannot find module './x'"},
			{Code: 2304, Message: "cannot find name 'require'"},
			{Code: 2322, Message: "type 'string' is not assignable to type 'number'"},
			{Code: 2339, Message: "property 'y' does not exist"},
			{Code: 1208, Message: "cannot compile namespaces"},
		},
	}}
	a := newTestAdapter(t, Config{}, stub)

	out, err := a.Compile(context.Background(), File{Path: "a.ts", Data: "x"})
	as.NoError(err)
	as.Equal("ok\n", out.Data)
}

func TestCompileIgnoreErrorsTrue(t *testing.T) {
	as := require.New(t)

	stub := &stubTranspiler{result: compiler.Result{
		Code: "ok",
		Diagnostics: []compiler.Diagnostic{
			{Code: 7006, Message: "implicit any"},
			{Code: 1005, Message: "';' expected"},
		},
	}}
	a := newTestAdapter(t, Config{
		Options: map[string]any{"ignoreErrors": true},
	}, stub)

	_, err := a.Compile(context.Background(), File{Path: "a.ts", Data: "x"})
	as.NoError(err)
}

func TestCompileIgnoreErrorsList(t *testing.T) {
	as := require.New(t)

	stub := &stubTranspiler{result: compiler.Result{
		Diagnostics: []compiler.Diagnostic{
			{Code: 7006, Message: "implicit any"},
			{Code: 1005, Message: "';' expected"},
		},
	}}
	a := newTestAdapter(t, Config{
		Options: map[string]any{"ignoreErrors": []any{7006}},
	}, stub)

	_, err := a.Compile(context.Background(), File{Path: "a.ts", Data: "x"})
	as.Error(err)

	var diagErr *DiagnosticError
	as.ErrorAs(err, &diagErr)
	as.Len(diagErr.Diagnostics, 1)
	as.Equal(1005, diagErr.Diagnostics[0].Code)
}

func TestCompileTranspilerErrorPropagates(t *testing.T) {
	as := require.New(t)

	sentinel := fmt.Errorf("compiler exploded")
	stub := &stubTranspiler{err: sentinel}
	a := newTestAdapter(t, Config{}, stub)

	_, err := a.Compile(context.Background(), File{Path: "a.ts", Data: "x"})
	as.ErrorIs(err, sentinel)
}

func TestMatchDefaultPattern(t *testing.T) {
	as := require.New(t)

	a := newTestAdapter(t, Config{VendorGlob: "**/vendor/**"}, &stubTranspiler{})

	as.True(a.Match("app.ts"))
	as.True(a.Match("sub/dir/view.tsx"))
	as.False(a.Match("app.js"))
	as.False(a.Match("styles/site.css"))
	as.False(a.Match("js/vendor/lib.ts"))
}

func TestPatternOptionOverride(t *testing.T) {
	as := require.New(t)

	a := newTestAdapter(t, Config{
		Options: map[string]any{"pattern": "**/*.mts"},
	}, &stubTranspiler{})

	as.Equal("**/*.mts", a.Pattern())
	as.True(a.Match("mod.mts"))
	as.False(a.Match("mod.ts"))

	_, ok := a.options["pattern"]
	as.False(ok)
}
