package ports

import (
	"context"

	"github.com/mkotelnikov/autotech-rag/internal/core/domain"
)

// Assistant is the inbound contract exposed by the RAG facade.
type Assistant interface {
	Ready() bool
	Query(ctx context.Context, question, sessionID string) (*domain.QueryResult, error)
	AddDocuments(ctx context.Context, docs []domain.Document) (*domain.IngestReport, error)
	ListManuals(ctx context.Context) ([]domain.ManualEntry, error)
	History(ctx context.Context, sessionID string) ([]domain.Turn, error)
}

// CorpusIndexer is the inbound contract for offline ingestion (worker path).
type CorpusIndexer interface {
	IndexFiles(ctx context.Context, collection string, paths []string) (*domain.IngestReport, error)
}
