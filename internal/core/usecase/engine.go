package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/mkotelnikov/autotech-rag/internal/core/domain"
	"github.com/mkotelnikov/autotech-rag/internal/core/ports"
)

// EngineConfig carries the facade's startup inputs. Provider configuration
// is injected as constructed capabilities, never looked up ambiently.
type EngineConfig struct {
	ManualsPath         string
	OnlineResourcesPath string
	MaxAgentSteps       int
}

// Engine is the public entry point composing the indexer, the retrieval
// tool adapters, the web-search tool, and the reasoning agent. Queries
// issued before Initialize completes fail fast with ErrNotInitialized.
type Engine struct {
	cfg       EngineConfig
	indexer   *Indexer
	embedder  ports.Embedder
	completer ports.Completer
	searcher  ports.WebSearcher
	sessions  ports.SessionStore

	agent *Agent
	ready atomic.Bool

	// Queries on the same session are serialized so concurrent callers
	// cannot interleave turn-log writes. Different sessions never block
	// one another.
	sessionLocks sync.Map
}

func NewEngine(
	cfg EngineConfig,
	indexer *Indexer,
	embedder ports.Embedder,
	completer ports.Completer,
	searcher ports.WebSearcher,
	sessions ports.SessionStore,
) *Engine {
	return &Engine{
		cfg:       cfg,
		indexer:   indexer,
		embedder:  embedder,
		completer: completer,
		searcher:  searcher,
		sessions:  sessions,
	}
}

// Initialize loads or cold-builds both collections, then constructs the
// reasoning agent. One-time blocking step gating readiness; safe to run
// repeatedly because collection existence short-circuits re-embedding.
func (e *Engine) Initialize(ctx context.Context) error {
	for _, c := range []struct {
		name string
		path string
	}{
		{domain.ManualsCollection, e.cfg.ManualsPath},
		{domain.OnlineResourcesCollection, e.cfg.OnlineResourcesPath},
	} {
		exists, err := e.indexer.vectorDB.CollectionExists(ctx, c.name)
		if err != nil {
			return domain.WrapError(domain.ErrProvider, "vector store: check collection", err)
		}
		if exists {
			slog.Info("loading existing collection", "collection", c.name)
			continue
		}
		slog.Info("creating new collection", "collection", c.name)
		if err := e.indexer.BuildInitialIndex(ctx, c.name, c.path); err != nil {
			return err
		}
	}

	tools := []Tool{
		NewRetrievalTool(domain.ManualsCollection, domain.OriginManuals, e.embedder, e.indexer.vectorDB),
		NewRetrievalTool(domain.OnlineResourcesCollection, domain.OriginOnlineResources, e.embedder, e.indexer.vectorDB),
		NewWebSearchTool(e.searcher),
	}
	e.agent = NewAgent(e.completer, tools, e.cfg.MaxAgentSteps)
	e.ready.Store(true)
	return nil
}

// Ready reports whether startup has completed.
func (e *Engine) Ready() bool {
	return e.ready.Load()
}

// Query runs the reasoning loop for one question. A missing session id is
// replaced with a generated UUID; the id used is echoed in the result.
// Repeating a query in the same session appends new turns, never rewrites
// prior ones.
func (e *Engine) Query(ctx context.Context, question, sessionID string) (*domain.QueryResult, error) {
	if !e.ready.Load() {
		return nil, domain.WrapError(domain.ErrNotInitialized, "query", errors.New("initialize has not completed"))
	}
	if strings.TrimSpace(question) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "query", errors.New("question is required"))
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	unlock := e.lockSession(sessionID)
	defer unlock()

	history, err := e.sessions.History(ctx, sessionID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrProvider, "session store: history", err)
	}

	result, err := e.agent.Run(ctx, question, history)
	if err != nil {
		return nil, err
	}
	result.SessionID = sessionID

	if err := e.sessions.Append(ctx, sessionID,
		domain.Turn{Role: domain.RoleUser, Content: question},
		domain.Turn{Role: domain.RoleAssistant, Content: result.Answer},
	); err != nil {
		return nil, domain.WrapError(domain.ErrProvider, "session store: append", err)
	}
	return result, nil
}

// AddDocuments routes new documents into the manuals collection only; the
// online-resources corpus is populated exclusively by the offline batch
// path.
func (e *Engine) AddDocuments(ctx context.Context, docs []domain.Document) (*domain.IngestReport, error) {
	if !e.ready.Load() {
		return nil, domain.WrapError(domain.ErrNotInitialized, "add documents", errors.New("initialize has not completed"))
	}
	return e.indexer.Upsert(ctx, domain.ManualsCollection, docs)
}

// ListManuals answers "what manuals are loaded": the per-document catalog
// of the manuals collection.
func (e *Engine) ListManuals(ctx context.Context) ([]domain.ManualEntry, error) {
	if !e.ready.Load() {
		return nil, domain.WrapError(domain.ErrNotInitialized, "list manuals", errors.New("initialize has not completed"))
	}
	return e.indexer.ListEntries(ctx, domain.ManualsCollection)
}

// History returns the session's turn log as held by the session store.
func (e *Engine) History(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "history", errors.New("session id is required"))
	}
	return e.sessions.History(ctx, sessionID)
}

func (e *Engine) lockSession(sessionID string) func() {
	value, _ := e.sessionLocks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
