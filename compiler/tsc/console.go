package tsc

import (
	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/require"
	"github.com/dop251/goja_nodejs/util"
	"go.uber.org/zap"
)

const consoleModuleName = "node:console"

// compilerConsole routes console output from the hosted compiler bundle to
// the zap logger, so bundle-side tracing lands in the tool's own logs.
type compilerConsole struct {
	runtime *goja.Runtime
	util    *goja.Object
}

func (c *compilerConsole) log(log func(msg string, fields ...zap.Field)) func(goja.FunctionCall, *goja.Runtime) goja.Value {
	return func(call goja.FunctionCall, vm *goja.Runtime) goja.Value {
		if format, ok := goja.AssertFunction(c.util.Get("format")); ok {
			ret, err := format(c.util, call.Arguments...)
			if err != nil {
				panic(err)
			}
			log(ret.String())
		} else {
			panic(c.runtime.NewTypeError("util.format is not a function"))
		}
		return nil
	}
}

func requireWithLogger(logger *zap.Logger) require.ModuleLoader {
	return func(runtime *goja.Runtime, module *goja.Object) {
		c := &compilerConsole{
			runtime: runtime,
		}

		c.util = require.Require(runtime, util.ModuleName).(*goja.Object)

		o := module.Get("exports").(*goja.Object)
		o.Set("log", c.log(logger.Info))
		o.Set("error", c.log(logger.Error))
		o.Set("warn", c.log(logger.Warn))
		o.Set("debug", c.log(logger.Debug))
	}
}
