// Package bootstrap wires configuration into constructed components for
// the api, worker, and batchloader binaries.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/mkotelnikov/autotech-rag/internal/config"
	"github.com/mkotelnikov/autotech-rag/internal/core/ports"
	"github.com/mkotelnikov/autotech-rag/internal/core/usecase"
	"github.com/mkotelnikov/autotech-rag/internal/infrastructure/chunking"
	"github.com/mkotelnikov/autotech-rag/internal/infrastructure/docsource/filesystem"
	"github.com/mkotelnikov/autotech-rag/internal/infrastructure/llm/openaicompat"
	"github.com/mkotelnikov/autotech-rag/internal/infrastructure/queue/nats"
	"github.com/mkotelnikov/autotech-rag/internal/infrastructure/resilience"
	sessionmemory "github.com/mkotelnikov/autotech-rag/internal/infrastructure/session/memory"
	sessionpostgres "github.com/mkotelnikov/autotech-rag/internal/infrastructure/session/postgres"
	"github.com/mkotelnikov/autotech-rag/internal/infrastructure/tokencount"
	"github.com/mkotelnikov/autotech-rag/internal/infrastructure/vector/qdrant"
	"github.com/mkotelnikov/autotech-rag/internal/infrastructure/websearch/duckduckgo"
)

type App struct {
	Config config.Config

	Engine  *usecase.Engine
	Indexer *usecase.Indexer
	Counter ports.TokenCounter

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	counter := tokencount.NewCounter()

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantAPIKey)
	embedder := openaicompat.NewEmbedder(cfg.JinaBaseURL, cfg.JinaAPIKey, cfg.JinaEmbedModel, cfg.EmbedDim,
		openaicompat.EmbedderOptions{Executor: executor})
	completer := openaicompat.NewCompleter(cfg.GroqBaseURL, cfg.GroqAPIKey, cfg.GroqModel,
		openaicompat.CompleterOptions{Executor: executor})
	searcher := duckduckgo.New(duckduckgo.Config{})

	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	source := filesystem.NewReader()
	indexer := usecase.NewIndexer(vectorDB, embedder, chunker, source)

	var sessions ports.SessionStore
	closeFn := func() {}
	if cfg.PostgresDSN != "" {
		db, err := sessionpostgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := sessionpostgres.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		sessions = sessionpostgres.NewStore(db, counter, cfg.MemoryTokenBudget)
		closeFn = func() { _ = db.Close() }
	} else {
		sessions = sessionmemory.NewStore(counter, cfg.MemoryTokenBudget)
	}

	engine := usecase.NewEngine(
		usecase.EngineConfig{
			ManualsPath:         cfg.ManualsPath,
			OnlineResourcesPath: cfg.OnlineResourcesPath,
			MaxAgentSteps:       cfg.MaxAgentSteps,
		},
		indexer,
		embedder,
		completer,
		searcher,
		sessions,
	)

	return &App{
		Config:  cfg,
		Engine:  engine,
		Indexer: indexer,
		Counter: counter,
		closeFn: closeFn,
	}, nil
}

// NewQueue connects to NATS for the offline ingestion path. The api
// binary never calls this.
func NewQueue(cfg config.Config) (*nats.Queue, error) {
	return nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig()),
	})
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
