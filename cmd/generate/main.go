// Command generate runs the synthetic UHS dataset generator: it loads the
// YAML configuration, simulates every facility, and writes the CSV tables
// (plus an optional SQLite database).
//
// Usage:
//
//	go run ./cmd/generate \
//	  -config config/uhs_config.yaml \
//	  -out-dir data/generated \
//	  -sqlite data/generated/uhs.db
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	csvadapter "github.com/couchcryptid/uhs-mrv-generator/internal/adapter/csvfile"
	httpadapter "github.com/couchcryptid/uhs-mrv-generator/internal/adapter/http"
	sqliteadapter "github.com/couchcryptid/uhs-mrv-generator/internal/adapter/sqlite"
	"github.com/couchcryptid/uhs-mrv-generator/internal/config"
	"github.com/couchcryptid/uhs-mrv-generator/internal/observability"
	"github.com/couchcryptid/uhs-mrv-generator/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "config/uhs_config.yaml", "path to the generator configuration")
	outDir := flag.String("out-dir", "data/generated", "directory for the CSV tables")
	sqlitePath := flag.String("sqlite", "", "optional SQLite database path")
	metricsAddr := flag.String("metrics-addr", "", "optional address for the metrics/status HTTP server")
	serve := flag.Bool("serve", false, "keep serving metrics and status after generation until interrupted")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	logFormat := flag.String("log-format", "text", "log format: text or json")
	flag.Parse()

	logger := observability.NewLogger(*logLevel, *logFormat)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	writers := []pipeline.DatasetWriter{
		csvadapter.NewWriter(*outDir, logger),
	}
	if *sqlitePath != "" {
		writers = append(writers, sqliteadapter.NewWriter(*sqlitePath, logger))
	}

	p := pipeline.New(cfg, writers, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *httpadapter.Server
	if *metricsAddr != "" {
		srv = httpadapter.NewServer(*metricsAddr, p, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	if _, err := p.Run(ctx); err != nil {
		logger.Error("generation failed", "error", err)
		shutdownServer(srv, logger)
		os.Exit(1)
	}

	if srv != nil && *serve {
		logger.Info("generation done, serving until interrupted", "addr", *metricsAddr)
		<-ctx.Done()
	}
	shutdownServer(srv, logger)
}

func shutdownServer(srv *httpadapter.Server, logger *slog.Logger) {
	if srv == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
}
