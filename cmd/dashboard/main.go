package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"inflation-dashboard/internal/cfg"
	"inflation-dashboard/internal/charts"
	"inflation-dashboard/internal/common"
	"inflation-dashboard/internal/dashboard"
	"inflation-dashboard/internal/metrics"
	"inflation-dashboard/internal/pipeline"
	"inflation-dashboard/internal/storage"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("Failed to read .env file")
	}
	if os.Getenv(common.EnvLogFormat) == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	mw := metrics.NewWrapper(m)

	store := initializeStorage(c)
	if store != nil {
		defer store.Close()
	}

	paths := pipeline.Paths{Data: c.DataPath, Model: c.ModelPath, XTest: c.XTestPath, YTest: c.YTestPath}
	sources := pipeline.NewSources(paths, mw)
	runner := pipeline.NewRunner(sources, uploadStore(store), mw, pipeline.Options{
		PreviewRows: c.PreviewRows,
		TopFeatures: c.TopFeatures,
		Charts:      chartOptions(c),
	})

	warmUp(sources)

	startMetricsServer(ctx, c, m)

	var wg sync.WaitGroup
	if c.WatchFiles {
		startFileWatcher(ctx, &wg, sources, paths)
	}

	var purger *dashboard.Purger
	if store != nil {
		purger, err = dashboard.NewPurger(store, c.PurgeSchedule, mw)
		if err != nil {
			log.Fatal().Err(err).Msg("purge schedule invalid")
		}
		purger.Start()
		defer purger.Stop()
	}

	var lookup dashboard.UploadLookup
	if store != nil {
		lookup = store
	}
	server := dashboard.NewServer(runner, lookup, mw, c)
	if err := server.Start(); err != nil {
		log.Fatal().Err(err).Msg("dashboard start failed")
	}

	log.Info().
		Int("port", c.ListenPort).
		Int("metrics_port", c.MetricsPort).
		Str("data", c.DataPath).
		Str("model", c.ModelPath).
		Msg("Inflation dashboard ready")

	waitForShutdown(ctx, cancel, &wg)

	if err := server.Stop(); err != nil {
		log.Error().Err(err).Msg("dashboard stop failed")
	}
}

// initializeStorage opens the upload store under StorePath. Uploads still
// work without it; they just cannot be downloaded afterwards.
func initializeStorage(c cfg.Settings) *storage.Store {
	if c.StorePath == "" {
		return nil
	}
	if err := os.MkdirAll(c.StorePath, 0o755); err != nil {
		log.Warn().Err(err).Msg("storage directory unavailable, continuing without upload downloads")
		return nil
	}
	store, err := storage.New(c.StorePath, c.UploadTTL)
	if err != nil {
		log.Warn().Err(err).Msg("storage initialization failed, continuing without upload downloads")
		return nil
	}
	return store
}

// uploadStore avoids handing the runner a typed nil.
func uploadStore(store *storage.Store) pipeline.UploadStore {
	if store == nil {
		return nil
	}
	return store
}

// warmUp loads every input once so problems show in the log at start-up
// rather than on the first page view.
func warmUp(sources *pipeline.Sources) {
	if _, err := sources.Dataset(); err != nil {
		log.Warn().Err(err).Msg("merged dataset unavailable, analysis sections will be empty")
	}
	if _, err := sources.Model(); err != nil {
		log.Error().Err(err).Msg("model unavailable, model sections will show the error")
	}
	if _, err := sources.TestSet(); err != nil {
		log.Warn().Err(err).Msg("test set unavailable, evaluation section will show the error")
	}
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(ctx context.Context, c cfg.Settings, m *metrics.Metrics) {
	go func() {
		mux := http.NewServeMux()

		mux.Handle("/health", dashboard.HealthHandler(m))
		mux.Handle("/metrics", promhttp.Handler())

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", c.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		go func() {
			<-ctx.Done()
			if err := server.Shutdown(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to shutdown metrics server")
			}
		}()

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

// startFileWatcher invalidates cached inputs when their files change.
func startFileWatcher(ctx context.Context, wg *sync.WaitGroup, sources *pipeline.Sources, paths pipeline.Paths) {
	fw, err := dashboard.NewFileWatcher(sources, paths.Files())
	if err != nil {
		log.Warn().Err(err).Msg("file watching disabled")
		return
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer fw.Close()
		if err := fw.Run(ctx); err != nil {
			log.Error().Err(err).Msg("file watcher stopped")
		}
	}()
}

// waitForShutdown waits for shutdown signals and handles graceful shutdown
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, wg *sync.WaitGroup) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("context canceled")
	}

	log.Info().Msg("shutting down gracefully...")
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("all goroutines stopped")
	case <-time.After(10 * time.Second):
		log.Warn().Msg("shutdown timeout, forcing exit")
	}
}

func chartOptions(c cfg.Settings) charts.Options {
	opts := charts.DefaultOptions()
	if c.HistogramBins > 0 {
		opts.HistogramBins = c.HistogramBins
	}
	return opts
}
