package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JonMunkholm/salesetl/internal/config"
	"github.com/JonMunkholm/salesetl/internal/core"
	"github.com/JonMunkholm/salesetl/internal/logging"
	"github.com/JonMunkholm/salesetl/internal/metrics"
	"github.com/JonMunkholm/salesetl/internal/pipeline"
	"github.com/JonMunkholm/salesetl/internal/sink"
	"github.com/joho/godotenv"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return 1
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())

	dest, err := sink.Open(cfg.Destination.Driver, cfg.Destination.URL)
	if err != nil {
		slog.Error("failed to open destination", "error", err, "code", core.CodeOf(err))
		return 1
	}

	// Interrupts cancel the run before anything is written
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Run.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Run.Timeout)
		defer cancel()
	}

	reg := metrics.NewRegistry()
	if path := cfg.Run.MetricsTextfile; path != "" {
		if err := reg.RestoreLastSuccess(path); err != nil {
			slog.Warn("failed to read previous metrics textfile", "path", path, "error", err)
		}
	}
	start := time.Now()

	res, err := pipeline.Run(ctx, pipeline.Config{
		RegionASource:    cfg.Source.RegionA,
		RegionBSource:    cfg.Source.RegionB,
		DestinationTable: cfg.Destination.Table,
		Destination:      dest,
	})
	if err != nil {
		reg.ObserveFailure(time.Since(start))
	} else {
		reg.ObserveSuccess(res.Stats, res.Elapsed, time.Now())
	}

	if path := cfg.Run.MetricsTextfile; path != "" {
		if werr := reg.WriteTextfile(path); werr != nil {
			slog.Warn("failed to write metrics textfile", "path", path, "error", werr)
		}
	}

	// pipeline.Run has already logged the technical error
	if err != nil {
		slog.Error(core.FormatUserError(err))
		return 1
	}

	slog.Info(res.String())
	return 0
}
