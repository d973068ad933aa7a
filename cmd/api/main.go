package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/mkotelnikov/autotech-rag/internal/adapters/http"
	"github.com/mkotelnikov/autotech-rag/internal/bootstrap"
	"github.com/mkotelnikov/autotech-rag/internal/config"
	"github.com/mkotelnikov/autotech-rag/internal/observability/logging"
	"github.com/mkotelnikov/autotech-rag/internal/observability/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.NewJSONLogger("api", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	// The server accepts connections immediately; queries fail fast
	// until the collections are loaded or built.
	go func() {
		if err := app.Engine.Initialize(ctx); err != nil {
			slog.Error("engine initialization failed", "error", err)
			stop()
		}
	}()

	m := metrics.NewHTTPServerMetrics("api")
	router := httpadapter.NewRouter(app.Engine, m).Handler()
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("api listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("api server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api shutdown error", "error", err)
	}
}
