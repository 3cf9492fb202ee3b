package main

import (
	"os"

	"go.miragespace.co/typebridge"
	"go.miragespace.co/typebridge/compiler"
	"go.miragespace.co/typebridge/compiler/tsc"
	"go.miragespace.co/typebridge/pipeline"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, err
	}
	if verbose {
		return zap.NewDevelopment()
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	return cfg.Build()
}

// newTranspiler picks the backend: the goja hosted typescript.js bundle
// when --compiler is given, esbuild otherwise (nil lets the adapter pick
// its default).
func newTranspiler(cmd *cobra.Command, logger *zap.Logger) (compiler.Transpiler, error) {
	bundlePath, err := cmd.Flags().GetString("compiler")
	if err != nil {
		return nil, err
	}
	if bundlePath == "" {
		return nil, nil
	}

	f, err := os.Open(bundlePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := tsc.New(tsc.Config{
		Logger: logger,
		Source: f,
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func newAdapter(cmd *cobra.Command, cfg *toolConfig, logger *zap.Logger) (*typebridge.Adapter, error) {
	transpiler, err := newTranspiler(cmd, logger)
	if err != nil {
		return nil, err
	}

	return typebridge.New(typebridge.Config{
		Options:    cfg.TypeScript,
		Root:       cfg.Paths.Root,
		SourceMaps: cfg.SourceMaps,
		VendorGlob: cfg.Conventions.Vendor,
		Logger:     logger,
		Transpiler: transpiler,
	})
}

func newBuilder(cfg *toolConfig, logger *zap.Logger, adapter *typebridge.Adapter, cache *pipeline.Cache) (*pipeline.Builder, error) {
	return pipeline.NewBuilder(pipeline.BuilderConfig{
		Logger:    logger,
		Adapter:   adapter,
		SourceDir: cfg.Paths.Source,
		OutputDir: cfg.Paths.Output,
		Cache:     cache,
	})
}
