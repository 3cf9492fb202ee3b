package tsc

import (
	"fmt"
	"strings"

	"go.miragespace.co/typebridge/compiler"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/require"
	"go.uber.org/zap"
)

// driverScript bridges ts.transpileModule to a stable exchange shape. It
// runs after the compiler bundle and leans only on the public TypeScript
// API: transpileModule, flattenDiagnosticMessageText and getLineStarts.
const driverScript = `
"use strict"

function __transpile(source, fileName, options) {
	var result = ts.transpileModule(source, {
		fileName: fileName,
		compilerOptions: options,
		reportDiagnostics: true
	})

	var diagnostics = []
	var list = result.diagnostics || []
	for (var i = 0; i < list.length; i++) {
		var d = list[i]
		diagnostics.push({
			code: d.code | 0,
			message: ts.flattenDiagnosticMessageText(d.messageText, "\n"),
			start: typeof d.start === "number" ? d.start : -1,
			lines: d.file ? ts.getLineStarts(d.file) : null
		})
	}

	return {
		outputText: result.outputText || "",
		sourceMapText: result.sourceMapText || "",
		diagnostics: diagnostics
	}
}
`

type driverResult struct {
	OutputText    string             `json:"outputText"`
	SourceMapText string             `json:"sourceMapText"`
	Diagnostics   []driverDiagnostic `json:"diagnostics"`
}

type driverDiagnostic struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Start   int    `json:"start"`
	Lines   []int  `json:"lines"`
}

// vmInstance is one goja runtime with the compiler bundle and driver
// loaded. Instances are single-use at a time and recycled through the
// pool.
type vmInstance struct {
	vm        *goja.Runtime
	transpile goja.Callable
	version   string
}

func newVMInstance(logger *zap.Logger, bundle, driver *goja.Program) (*vmInstance, error) {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

	registry := require.NewRegistry()
	registry.RegisterNativeModule(consoleModuleName, requireWithLogger(logger))
	registry.Enable(vm)
	vm.Set("console", require.Require(vm, consoleModuleName))

	if _, err := vm.RunProgram(bundle); err != nil {
		return nil, fmt.Errorf("error loading compiler bundle: %w", err)
	}
	if _, err := vm.RunProgram(driver); err != nil {
		return nil, fmt.Errorf("error loading compiler driver: %w", err)
	}

	fn, ok := goja.AssertFunction(vm.Get("__transpile"))
	if !ok {
		return nil, fmt.Errorf("compiler bundle did not yield a callable transpile driver")
	}

	inst := &vmInstance{
		vm:        vm,
		transpile: fn,
	}
	if tsObj, ok := vm.Get("ts").(*goja.Object); ok {
		if v := tsObj.Get("version"); v != nil {
			inst.version = v.String()
		}
	}

	return inst, nil
}

func (inst *vmInstance) run(in compiler.Input) (compiler.Result, error) {
	value, err := inst.transpile(goja.Undefined(),
		inst.vm.ToValue(in.Source),
		inst.vm.ToValue(in.FileName),
		inst.vm.ToValue(in.Options),
	)
	if err != nil {
		return compiler.Result{}, err
	}

	var out driverResult
	if err := inst.vm.ExportTo(value, &out); err != nil {
		return compiler.Result{}, fmt.Errorf("error exporting compiler result: %w", err)
	}

	result := compiler.Result{
		Code:      strings.TrimSuffix(out.OutputText, "\n"),
		SourceMap: out.SourceMapText,
	}
	for _, d := range out.Diagnostics {
		result.Diagnostics = append(result.Diagnostics, compiler.Diagnostic{
			Code:    d.Code,
			Message: d.Message,
			Start:   d.Start,
			Lines:   d.Lines,
		})
	}
	return result, nil
}
