// Package main runs the demo gateway: the example user directory served
// through the schema dispatcher, with health, metrics, and schema
// introspection endpoints alongside the application routes.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/calltree/calltree/adapters/metrics"
	"github.com/calltree/calltree/config"
	"github.com/calltree/calltree/core/example"
	"github.com/calltree/calltree/core/schema"
	"github.com/calltree/calltree/core/server"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "calltree.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	validate := flag.Bool("validate", false, "Validate configuration and exit")
	hotReload := flag.Bool("hot-reload", true, "Enable hot reload of configuration")
	flag.Parse()

	if *showVersion {
		fmt.Printf("calltree-gateway %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	if *validate {
		cfg, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Configuration invalid: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Configuration valid\n")
		fmt.Printf("  Listen: %s\n", cfg.Addr())
		fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
		os.Exit(0)
	}

	if err := run(*configPath, *hotReload); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, hotReload bool) error {
	cfg, err := config.LoadWithFallback(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	logger.Info().Str("version", version).Msg("initializing calltree gateway")

	collector := metrics.New()

	tree := example.Tree()
	store := example.NewStore()

	srv, err := server.New(tree, example.Handlers(store), server.Options{
		Metadata:     example.HeaderMetadata(),
		Collector:    collector,
		Logger:       logger,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	})
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer)
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{"status":"ok"}`)
	})
	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, promhttp.Handler())
		logger.Info().Str("path", cfg.Metrics.Path).Msg("prometheus metrics enabled")
	}
	router.Get("/_schema", schemaHandler(tree))
	router.Mount("/", srv.Router())

	// Hot reload applies to the config fields read per request; the
	// listen address is fixed for the process lifetime.
	if hotReload {
		if holder, err := config.NewHolder(configPath, logger); err == nil {
			holder.Instrument(collector)
			holder.OnChange(func(next *config.Config) {
				setGlobalLevel(next.Logging.Level)
			})
			if err := holder.WatchFile(); err != nil {
				logger.Warn().Err(err).Msg("config file watch unavailable")
			}
			holder.WatchSignals()
			defer holder.Stop()
		} else {
			logger.Warn().Err(err).Msg("hot reload disabled, config file not loadable")
		}
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("starting http server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info().Msg("shutdown complete")
	return nil
}

// schemaHandler exposes the registered endpoints for discovery.
func schemaHandler(tree schema.Schema) http.HandlerFunc {
	endpoints := schema.Endpoints(tree)
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(endpoints)
	}
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	setGlobalLevel(cfg.Level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func setGlobalLevel(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}
