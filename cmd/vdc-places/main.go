// Package main implements the entry point for the vdc-places server, the
// hosting process for the vector-data-cube places pipeline: it resolves the
// configured data stores, materializes place groups from their vector data
// cubes, and serves the results alongside Prometheus metrics.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/xcube-dev/xcube-vdc-places/config"
	"github.com/xcube-dev/xcube-vdc-places/metric"
	"github.com/xcube-dev/xcube-vdc-places/pkg/cache"
	"github.com/xcube-dev/xcube-vdc-places/places"
	"github.com/xcube-dev/xcube-vdc-places/store"
	"github.com/xcube-dev/xcube-vdc-places/store/fs"
	"github.com/xcube-dev/xcube-vdc-places/store/memstore"
	"github.com/xcube-dev/xcube-vdc-places/vdc"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "vdc-places"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg, logger, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	cfg, err := config.NewLoader().LoadFile(cliCfg.ConfigPath)
	if err != nil {
		return err
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid",
			"stores", len(cfg.VectorDataCubeStores))
		return nil
	}

	registry := store.NewRegistry()
	if err := fs.Register(registry); err != nil {
		return err
	}
	if err := memstore.Register(registry); err != nil {
		return err
	}

	metricsRegistry := metric.NewMetricsRegistry()

	placesCtx, err := places.NewContext(logger,
		cache.WithMetrics[*places.PlaceGroup](metricsRegistry, "place_groups"))
	if err != nil {
		return err
	}

	ctx := context.Background()
	pipeline, err := vdc.New(ctx, cfg, registry, placesCtx,
		vdc.WithLogger(logger),
		vdc.WithMetrics(metricsRegistry))
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := pipeline.Close(); closeErr != nil {
			logger.Warn("failed to close store pool", "error", closeErr)
		}
	}()

	start := time.Now()
	if err := pipeline.UpdatePlaces(ctx); err != nil {
		// Per-dataset load failures are aggregated; the groups that did
		// materialize are still served.
		logger.Error("some datasets failed to load", "error", err)
	}

	groups := placesCtx.PlaceGroups()
	for _, group := range groups {
		logger.Info("place group ready",
			"group_id", group.ID,
			"title", group.Title,
			"features", len(group.Features()))
	}
	logger.Info("place groups materialized",
		"place_groups", len(groups),
		"duration", time.Since(start))

	if cliCfg.Once {
		return nil
	}
	return serve(cfg, placesCtx, metricsRegistry, logger)
}

// serve exposes the materialized place groups and the metrics endpoint.
func serve(cfg *config.Config, placesCtx *places.Context, metricsRegistry *metric.MetricsRegistry, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metricsRegistry.Handler())
	mux.HandleFunc("/places", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(placesCtx.PlaceGroups()); err != nil {
			logger.Error("failed to encode place groups", "error", err)
		}
	})

	addr := fmt.Sprintf("%s:%d", cfg.Address, cfg.Port)
	logger.Info("serving place groups", "addr", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server.ListenAndServe()
}
