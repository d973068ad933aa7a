package ports

import (
	"context"

	"github.com/mkotelnikov/autotech-rag/internal/core/domain"
)

// Embedder maps text to fixed-dimension vectors. Dimensionality must match
// the collection's configured size or ingestion and search fail.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Completer maps a system instruction plus conversation to generated text.
type Completer interface {
	Complete(ctx context.Context, system string, turns []domain.Turn) (string, error)
}

// VectorIndex is the vector database capability shared by all collections.
// The client must be safe for concurrent search and upsert.
type VectorIndex interface {
	CollectionExists(ctx context.Context, name string) (bool, error)
	// CreateCollection treats a duplicate-create conflict as success so that
	// concurrent initializers racing on the same name stay benign.
	CreateCollection(ctx context.Context, name string, cfg domain.CollectionConfig) error
	Upsert(ctx context.Context, name string, points []domain.ChunkPoint) error
	Search(ctx context.Context, name string, vector []float32, topK int) ([]domain.ScoredPassage, error)
	ScrollPayloads(ctx context.Context, name string) ([]domain.ChunkPayload, error)
}

// WebSearcher queries the open web. It must be callable with a short timeout
// and is expected to fail; callers degrade to empty results.
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]domain.WebResult, error)
}

// SessionStore keeps per-session ordered turn logs bounded by a token
// budget. Oldest turns are evicted first; the most recent turn is always
// retained.
type SessionStore interface {
	History(ctx context.Context, sessionID string) ([]domain.Turn, error)
	Append(ctx context.Context, sessionID string, turns ...domain.Turn) error
}

// Chunker splits text into embeddable units.
type Chunker interface {
	Split(text string) []string
}

// DocumentSource supplies parsed documents from the filesystem. It is the
// boundary to the external parsing collaborator.
type DocumentSource interface {
	ReadDirectory(ctx context.Context, path string) ([]domain.Document, error)
	ReadFiles(ctx context.Context, paths []string) ([]domain.Document, error)
}

// MessageQueue carries offline index-batch jobs from the batch loader to the
// ingestion worker.
type MessageQueue interface {
	PublishIndexBatch(ctx context.Context, job domain.IndexBatchJob) error
	SubscribeIndexBatch(ctx context.Context, handler func(context.Context, domain.IndexBatchJob) error) error
}

// TokenCounter estimates token counts for memory budgeting and batch sizing.
type TokenCounter interface {
	Count(text string) int
}
