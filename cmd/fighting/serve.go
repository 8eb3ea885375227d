package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/buildwithgo/fighting"
	"github.com/buildwithgo/fighting/addons/openapi"
	"github.com/buildwithgo/fighting/config"
	"github.com/buildwithgo/fighting/directives"
	"github.com/buildwithgo/fighting/examples/hello"
	"github.com/buildwithgo/fighting/metrics"
	"github.com/buildwithgo/fighting/middlewares"
	"github.com/buildwithgo/fighting/routers"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	hotReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the hello API",
	Long: `Serve the hello API.

The server will:
  - Load configuration from --config and FIGHTING_* environment variables
  - Serve documentation at / and actions at /<resource>/<action>
  - Export Prometheus metrics and the OpenAPI document when enabled
  - Reload the log level on config file change or SIGHUP

Examples:
  fighting serve
  fighting serve --config fighting.yaml
  FIGHTING_SERVER_PORT=9000 fighting serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
}

func runServe(cmd *cobra.Command, args []string) error {
	boot := config.NewLogger(config.LoggingConfig{Level: "info", Format: "json"}, os.Stderr)
	holder, err := config.NewHolder(cfgFile, boot)
	if err != nil {
		return err
	}
	defer holder.Stop()

	cfg := holder.Get()
	logger := config.NewLogger(cfg.Logging, os.Stderr)

	reg := prometheusRegistry()
	collector := metrics.NewWithRegistry(reg, reg)
	holder.OnChange(func(c *config.Config) {
		config.ApplyLevel(c.Logging)
		collector.ConfigReloads.Inc()
	})
	if hotReload && cfgFile != "" {
		if err := holder.WatchFile(); err != nil {
			logger.Warn().Err(err).Msg("config file watch disabled")
		}
		holder.WatchSignals()
	}

	handler, err := buildServer(cfg, logger, collector)
	if err != nil {
		return err
	}
	for _, route := range handler.Routes() {
		logger.Debug().Str("method", route.Method).Str("path", route.Path).Msg("route")
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildServer wires the middlewares, the hello API and the optional
// metrics and OpenAPI endpoints.
func buildServer(cfg *config.Config, logger zerolog.Logger, collector *metrics.Collector) (*fighting.App, error) {
	app := fighting.NewApp(
		fighting.WithRouter(routers.NewTrieRouter()),
		fighting.WithAppLogger(logger),
	)
	app.Use(middlewares.RequestID())
	app.Use(middlewares.Logger(logger))
	if cfg.CORS.Enabled {
		cors := middlewares.DefaultCORSConfig()
		cors.AllowOrigins = cfg.CORS.AllowOrigins
		app.Use(middlewares.CORS(cors))
	}
	if cfg.Metrics.Enabled {
		app.Use(collector.Middleware())
		if err := app.Mount(cfg.Metrics.Path, collector.Handler()); err != nil {
			return nil, err
		}
	}
	// Innermost, so the logger and metrics record recovered panics as 500s.
	app.Use(fighting.Recovery(
		fighting.WithRecoveryLogger(logger),
		fighting.WithStackInBody(cfg.Server.Debug),
	))

	ds := map[string]fighting.Directive{
		"ratelimit": directives.RateLimit(),
		"log":       directives.Log(logger),
	}
	if cfg.Auth.JWTSecret != "" {
		ds["auth"] = directives.Auth(cfg.Auth.JWTSecret)
	}
	opts := []fighting.Option{
		fighting.WithDirectives(ds),
		fighting.WithLogger(logger),
		fighting.WithMaxBodySize(cfg.Server.MaxBodySize),
	}
	if cfg.Server.SourceDir != "" {
		opts = append(opts, fighting.WithSourceDocs(cfg.Server.SourceDir))
	}

	api, err := hello.New(app, opts...)
	if err != nil {
		return nil, err
	}

	if cfg.OpenAPI.Enabled {
		title := cfg.OpenAPI.Title
		if title == "" {
			title = "hello"
		}
		info := openapi3.Info{Title: title, Version: cfg.OpenAPI.Version}
		if err := openapi.Register(api, cfg.OpenAPI.Path, info); err != nil {
			return nil, err
		}
	}
	return app, nil
}
