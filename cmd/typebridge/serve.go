package main

import (
	"net/http"
	_ "net/http/pprof"

	"go.miragespace.co/typebridge/pipeline"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve compiled JavaScript for development",
	Long:  "Serve paths.source over HTTP, compiling TypeScript on demand with in-memory caching.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides serve.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfgPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	addr, err := cmd.Flags().GetString("addr")
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
	if addr == "" {
		addr = cfg.Serve.Addr
	}

	adapter, err := newAdapter(cmd, cfg, logger)
	if err != nil {
		return err
	}

	builder, err := newBuilder(cfg, logger, adapter, pipeline.NewCache())
	if err != nil {
		return err
	}

	server := pipeline.NewServer(logger, builder)

	router := chi.NewRouter()
	router.Mount("/debug", middleware.Profiler())
	router.Handle("/*", server)

	logger.Info("ready",
		zap.String("addr", addr),
		zap.String("source", cfg.Paths.Source),
	)

	return http.ListenAndServe(addr, router)
}
