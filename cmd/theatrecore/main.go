// Command theatrecore runs the operating theatre scheduling service with its
// HTTP API, metrics endpoint, and snapshot archiving.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"theatrecore/internal/adapters/schedapi"
	"theatrecore/internal/archive"
	"theatrecore/internal/blob"
	"theatrecore/internal/core"
	"theatrecore/internal/infra/persistence"
	"theatrecore/internal/retrieval"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := core.NewDefaultRulesEngine()
	store, err := persistence.OpenPersistentStore(engine)
	if err != nil {
		return err
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := core.NewPrometheusMetricsRecorder(registry)
	if err != nil {
		return err
	}

	index := retrieval.NewIndex(openEmbedder(logger))

	service := core.NewService(store,
		core.WithLogger(core.NewSlogLogger(logger)),
		core.WithMetricsRecorder(metrics),
		core.WithProjectionSink(index),
	)

	if isTruthy(os.Getenv("THEATRECORE_SEED")) && len(store.ListSurgeons()) == 0 {
		if err := core.SeedSampleData(ctx, store); err != nil {
			return err
		}
		logger.Info("seeded sample schedule")
	}
	if err := index.SyncSnapshot(ctx, store.Export()); err != nil {
		logger.Warn("initial index sync failed", "error", err)
	}

	handler := schedapi.NewHandler(service)
	handler.Search = index

	blobs, err := blob.Open(ctx)
	if err != nil {
		logger.Warn("blob storage unavailable, archiving disabled", "error", err)
	} else {
		handler.Archiver = archive.New(blobs, store)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/v1/", handler)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	addr := os.Getenv("THEATRECORE_LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}

func openEmbedder(logger *slog.Logger) retrieval.Embedder {
	if strings.EqualFold(os.Getenv("THEATRECORE_EMBEDDER"), "openai") {
		embedder, err := retrieval.OpenOpenAIEmbedderFromEnv()
		if err == nil {
			return embedder
		}
		logger.Warn("openai embedder unavailable, using local fallback", "error", err)
	}
	return retrieval.NewLocalEmbedder()
}

func isTruthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes":
		return true
	}
	return false
}
