package main

import (
	"fmt"
	"os"

	"go.miragespace.co/typebridge/pipeline"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Compile the source tree once",
	Long:  "Compile every matching TypeScript source under paths.source into paths.output.",
	RunE:  runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfgPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := loadToolConfig(cfgPath)
	if err != nil {
		return err
	}

	adapter, err := newAdapter(cmd, cfg, logger)
	if err != nil {
		return err
	}

	cache := pipeline.NewCache()
	if cfg.Build.Cache != "" {
		if err := cache.Load(cfg.Build.Cache); err != nil {
			logger.Warn("ignoring unreadable build cache",
				zap.String("path", cfg.Build.Cache),
				zap.Error(err),
			)
		}
	}

	builder, err := newBuilder(cfg, logger, adapter, cache)
	if err != nil {
		return err
	}

	stats, err := builder.Build(cmd.Context())
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("build failed"))
		fmt.Fprintln(os.Stderr, err)
		return fmt.Errorf("%d file(s) failed", stats.Failed.Load())
	}

	if cfg.Build.Cache != "" {
		if err := cache.Save(cfg.Build.Cache); err != nil {
			logger.Warn("could not persist build cache",
				zap.String("path", cfg.Build.Cache),
				zap.Error(err),
			)
		}
	}

	fmt.Printf("%s %d compiled, %d cached, %d skipped\n",
		color.GreenString("done:"),
		stats.Compiled.Load(),
		stats.Cached.Load(),
		stats.Skipped.Load(),
	)
	return nil
}
