// Package typebridge compiles TypeScript and TSX sources to JavaScript for
// asset pipelines. The heavy lifting is delegated to an external
// single-file transpiler; this package merges compiler options from
// tsconfig.json and the plugin configuration, decides which files to skip,
// and filters the diagnostics the compiler reports.
package typebridge

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"go.miragespace.co/typebridge/compiler"
	"go.miragespace.co/typebridge/compiler/esbuild"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

// Config carries everything the host build tool hands the plugin at
// startup.
type Config struct {
	// Options holds the plugin-specific compiler options. They are merged
	// on top of the tsconfig.json compilerOptions, except for sourceMap
	// and ignore which are handled separately.
	Options map[string]any

	// Root is the directory searched for tsconfig.json. Required.
	Root string

	// SourceMaps is the tool-wide source map switch. It overrides any
	// per-plugin sourceMap setting.
	SourceMaps bool

	// VendorGlob is the tool's vendor convention, used as the ignore
	// predicate when the options carry no ignore globs of their own.
	VendorGlob string

	Logger *zap.Logger

	// Transpiler overrides the compiler backend. Defaults to esbuild.
	Transpiler compiler.Transpiler
}

// Adapter normalizes compiler options exactly once at construction and
// exposes a per-file Compile. Instances are immutable afterwards and safe
// for concurrent use.
type Adapter struct {
	logger     *zap.Logger
	transpiler compiler.Transpiler
	options    map[string]any
	pattern    string
	ignore     ignorePredicate
	filter     diagnosticFilter
}

// New builds an adapter from the tool configuration. The only fatal inputs
// are a nil logger and an empty config root; a missing or broken
// tsconfig.json is treated as an empty option source.
func New(cfg Config) (*Adapter, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.Root == "" {
		return nil, fmt.Errorf("config root cannot be empty")
	}

	a := &Adapter{
		logger:     cfg.Logger,
		transpiler: cfg.Transpiler,
		pattern:    DefaultPattern,
	}
	if a.transpiler == nil {
		a.transpiler = esbuild.New(cfg.Logger)
	}

	options := loadTsconfigOptions(cfg.Logger, cfg.Root)
	for k, v := range cfg.Options {
		if k == "sourceMap" || k == "ignore" {
			continue
		}
		options[k] = v
	}

	options["module"] = resolveEnum(options["module"], moduleKinds)
	options["target"] = resolveEnum(options["target"], scriptTargets)
	options["jsx"] = resolveEnum(options["jsx"], jsxEmits)

	// Decorator support is on unless the configuration disables it.
	for _, k := range []string{"emitDecoratorMetadata", "experimentalDecorators"} {
		if _, ok := options[k]; !ok {
			options[k] = true
		}
	}

	// Diagnostics are inspected after the fact, never via emit suppression.
	options["noEmitOnError"] = false

	// Module resolution has no meaning when files are transpiled in
	// isolation.
	delete(options, "moduleResolution")

	options["sourceMap"] = cfg.SourceMaps

	a.ignore = newIgnorePredicate(cfg.Options["ignore"], cfg.VendorGlob)

	if p, ok := options["pattern"]; ok {
		if s, ok := p.(string); ok && s != "" {
			a.pattern = s
		}
		delete(options, "pattern")
	}

	a.filter = newDiagnosticFilter(options["ignoreErrors"])
	delete(options, "ignoreErrors")

	a.options = options

	cfg.Logger.Info("typescript adapter configured",
		zap.String("pattern", a.pattern),
		zap.Bool("sourceMaps", cfg.SourceMaps),
		zap.Int("target", options["target"].(int)),
		zap.Int("module", options["module"].(int)),
		zap.Int("jsx", options["jsx"].(int)),
	)

	return a, nil
}

// Pattern returns the glob the host tool should route through the adapter.
func (a *Adapter) Pattern() string {
	return a.pattern
}

// Match reports whether path is a file this adapter compiles: it matches
// the adapter pattern and is not excluded by the ignore predicate.
func (a *Adapter) Match(path string) bool {
	ok, err := doublestar.Match(a.pattern, filepath.ToSlash(path))
	return err == nil && ok && !a.ignore.match(path)
}

// Compile transpiles a single file. Files matched by the ignore predicate
// pass through untouched without invoking the compiler. Diagnostics that
// survive filtering fail the call as one aggregated *DiagnosticError;
// anything else the backend reports is returned as-is.
func (a *Adapter) Compile(ctx context.Context, file File) (File, error) {
	if a.ignore.match(file.Path) {
		a.logger.Debug("skipping ignored file", zap.String("path", file.Path))
		return file, nil
	}

	result, err := a.transpiler.Transpile(ctx, compiler.Input{
		Source:   file.Data,
		FileName: file.Path,
		Options:  a.options,
	})
	if err != nil {
		return File{}, err
	}

	var remaining []compiler.Diagnostic
	for _, d := range result.Diagnostics {
		if a.filter.keep(d) {
			remaining = append(remaining, d)
		}
	}
	if len(remaining) > 0 {
		return File{}, &DiagnosticError{Diagnostics: remaining}
	}

	out := File{
		Path: file.Path,
		Data: result.Code + "\n",
	}
	if result.SourceMap != "" {
		m, err := rewriteSourceMap(result.SourceMap, file.Path)
		if err != nil {
			return File{}, err
		}
		out.Map = m
	}
	return out, nil
}

// rewriteSourceMap points the map's single source entry back at the
// original input path so downstream source map merging can find the file.
func rewriteSourceMap(raw, path string) (string, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return "", fmt.Errorf("error parsing source map: %w", err)
	}
	m["sources"] = []string{path}

	out, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("error serializing source map: %w", err)
	}
	return string(out), nil
}
