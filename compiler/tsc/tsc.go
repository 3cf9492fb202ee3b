// Package tsc hosts a real TypeScript compiler bundle inside goja and
// exposes its transpileModule API as a compiler.Transpiler. It is the
// backend of choice when emit must match tsc or when diagnostics need true
// TypeScript error codes; the esbuild backend is faster but approximates
// both.
package tsc

import (
	"context"
	"fmt"
	"io"

	"go.miragespace.co/typebridge/compiler"

	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// DefaultPoolSize bounds how many warm compiler VMs are kept when the
// configuration does not say otherwise.
const DefaultPoolSize = 4

type Config struct {
	Logger *zap.Logger

	// Source is the TypeScript compiler bundle (typescript.js). It is
	// compiled once and shared by every VM instance.
	Source io.Reader

	// PoolSize bounds the warm VM pool. Zero means DefaultPoolSize.
	PoolSize int
}

// Compiler runs transpileModule calls against a pool of goja runtimes,
// each holding a loaded copy of the compiler bundle.
type Compiler struct {
	logger *zap.Logger
	pool   *instancePool
}

func New(cfg Config) (*Compiler, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.Source == nil {
		return nil, fmt.Errorf("compiler bundle source cannot be nil")
	}

	raw, err := io.ReadAll(cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("error reading compiler bundle: %w", err)
	}

	bundle, err := goja.Compile("typescript.js", string(raw), true)
	if err != nil {
		return nil, fmt.Errorf("error compiling compiler bundle: %w", err)
	}
	driver, err := goja.Compile("driver.js", driverScript, true)
	if err != nil {
		return nil, fmt.Errorf("error compiling transpile driver: %w", err)
	}

	size := cfg.PoolSize
	if size < 1 {
		size = DefaultPoolSize
	}

	c := &Compiler{
		logger: cfg.Logger,
		pool: newInstancePool(size, func() (*vmInstance, error) {
			return newVMInstance(cfg.Logger, bundle, driver)
		}),
	}

	// Build the first instance eagerly so a broken bundle fails here
	// instead of on the first compile.
	inst, err := c.pool.get()
	if err != nil {
		return nil, err
	}
	c.pool.put(inst)

	cfg.Logger.Info("typescript compiler bundle loaded",
		zap.String("version", inst.version),
		zap.Int("poolSize", size),
	)

	return c, nil
}

// Transpile runs the hosted compiler on one file. Cancelling ctx
// interrupts the VM; the interrupt flag is cleared before the instance is
// pooled again.
func (c *Compiler) Transpile(ctx context.Context, in compiler.Input) (compiler.Result, error) {
	inst, err := c.pool.get()
	if err != nil {
		return compiler.Result{}, err
	}

	stop := context.AfterFunc(ctx, func() {
		inst.vm.Interrupt(ctx.Err())
	})
	result, err := inst.run(in)
	stop()

	inst.vm.ClearInterrupt()
	c.pool.put(inst)

	return result, err
}
