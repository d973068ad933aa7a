package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkotelnikov/autotech-rag/internal/bootstrap"
	"github.com/mkotelnikov/autotech-rag/internal/config"
	"github.com/mkotelnikov/autotech-rag/internal/core/domain"
	"github.com/mkotelnikov/autotech-rag/internal/core/ports"
	"github.com/mkotelnikov/autotech-rag/internal/observability/logging"
	"github.com/mkotelnikov/autotech-rag/internal/observability/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	queue, err := bootstrap.NewQueue(cfg)
	if err != nil {
		slog.Error("queue error", "error", err)
		os.Exit(1)
	}
	defer queue.Close()

	m := metrics.NewWorkerMetrics("worker")
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		if err := http.ListenAndServe(":"+cfg.WorkerMetricsPort, mux); err != nil && err != http.ErrServerClosed {
			slog.Error("worker metrics server error", "error", err)
		}
	}()

	var indexer ports.CorpusIndexer = app.Indexer

	slog.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = queue.SubscribeIndexBatch(ctx, func(handlerCtx context.Context, job domain.IndexBatchJob) error {
		batchCtx, cancel := context.WithTimeout(handlerCtx, 10*time.Minute)
		defer cancel()

		m.StartBatch("worker", len(job.Paths))
		start := time.Now()
		report, err := indexer.IndexFiles(batchCtx, job.Collection, job.Paths)
		m.FinishBatch("worker", time.Since(start), err)
		if report != nil {
			slog.Info("index batch processed",
				"collection", job.Collection,
				"indexed", report.Indexed,
				"failed", len(report.Failed))
		}
		return err
	})
	if err != nil {
		slog.Error("worker subscribe error", "error", err)
		os.Exit(1)
	}
}
