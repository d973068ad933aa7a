package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mkotelnikov/autotech-rag/internal/core/domain"
	"github.com/mkotelnikov/autotech-rag/internal/core/ports"
)

// Indexer turns raw documents into embedded, chunked entries and writes them
// into a named collection. Collection existence is the sole signal that
// distinguishes a cold start (bulk-load the corpus) from a warm start
// (attach without re-embedding).
type Indexer struct {
	vectorDB ports.VectorIndex
	embedder ports.Embedder
	chunker  ports.Chunker
	source   ports.DocumentSource
	cfg      domain.CollectionConfig
}

func NewIndexer(
	vectorDB ports.VectorIndex,
	embedder ports.Embedder,
	chunker ports.Chunker,
	source ports.DocumentSource,
) *Indexer {
	return &Indexer{
		vectorDB: vectorDB,
		embedder: embedder,
		chunker:  chunker,
		source:   source,
		cfg:      domain.DefaultCollectionConfig(),
	}
}

// EnsureCollection creates the collection with the fixed config if absent.
// Idempotent: a duplicate-create conflict from a concurrent initializer is
// treated as success by the vector store client.
func (ix *Indexer) EnsureCollection(ctx context.Context, name string) error {
	exists, err := ix.vectorDB.CollectionExists(ctx, name)
	if err != nil {
		return domain.WrapError(domain.ErrProvider, "vector store: check collection", err)
	}
	if exists {
		return nil
	}
	if err := ix.vectorDB.CreateCollection(ctx, name, ix.cfg); err != nil {
		return domain.WrapError(domain.ErrProvider, "vector store: create collection", err)
	}
	slog.Info("collection created", "collection", name, "vector_size", ix.cfg.VectorSize)
	return nil
}

// BuildInitialIndex bulk-loads every document under sourcePath into a fresh
// collection. An empty corpus directory is a configuration error, not a
// valid state: startup must abort rather than serve an empty knowledge base.
func (ix *Indexer) BuildInitialIndex(ctx context.Context, name, sourcePath string) error {
	docs, err := ix.source.ReadDirectory(ctx, sourcePath)
	if err != nil {
		return domain.WrapError(domain.ErrConfiguration, "read corpus directory", err)
	}
	if len(docs) == 0 {
		return domain.WrapError(
			domain.ErrConfiguration,
			"build initial index",
			fmt.Errorf("no documents found under %s for collection %s", sourcePath, name),
		)
	}

	if err := ix.EnsureCollection(ctx, name); err != nil {
		return err
	}

	report, err := ix.upsertDocuments(ctx, name, docs)
	if err != nil {
		return err
	}
	slog.Info("initial index built", "collection", name, "documents", report.Indexed, "failed", len(report.Failed))
	return nil
}

// Upsert routes already-parsed documents into a collection. At-least-once:
// a document that fails to embed or write is recorded in the report, but
// documents already written stay written.
func (ix *Indexer) Upsert(ctx context.Context, name string, docs []domain.Document) (*domain.IngestReport, error) {
	if len(docs) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upsert", fmt.Errorf("no documents provided"))
	}
	if err := ix.EnsureCollection(ctx, name); err != nil {
		return nil, err
	}
	return ix.upsertDocuments(ctx, name, docs)
}

func (ix *Indexer) upsertDocuments(ctx context.Context, name string, docs []domain.Document) (*domain.IngestReport, error) {
	report := &domain.IngestReport{}
	var firstErr error

	for i := range docs {
		doc := docs[i]
		doc.NormalizeMetadata()

		if err := ix.indexDocument(ctx, name, doc); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			report.Failed = append(report.Failed, domain.DocumentFailure{
				FilePath: doc.Metadata.FilePath,
				FileName: doc.Metadata.FileName,
				Reason:   err.Error(),
			})
			slog.Warn("document ingestion failed",
				"collection", name,
				"file_path", doc.Metadata.FilePath,
				"error", err,
			)
			continue
		}
		report.Indexed++
	}

	if firstErr != nil {
		return report, domain.WrapError(domain.ErrProvider, "upsert documents", firstErr)
	}
	return report, nil
}

func (ix *Indexer) indexDocument(ctx context.Context, name string, doc domain.Document) error {
	chunks := ix.chunker.Split(doc.Text)
	if len(chunks) == 0 {
		return fmt.Errorf("chunking produced zero chunks")
	}

	vectors, err := ix.embedder.Embed(ctx, chunks)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks))
	}

	points := make([]domain.ChunkPoint, 0, len(chunks))
	for i := range chunks {
		points = append(points, domain.ChunkPoint{
			ID:     uuid.NewString(),
			Vector: vectors[i],
			Payload: domain.ChunkPayload{
				FilePath:   doc.Metadata.FilePath,
				FileName:   doc.Metadata.FileName,
				Text:       chunks[i],
				ChunkIndex: i,
			},
		})
	}

	if err := ix.vectorDB.Upsert(ctx, name, points); err != nil {
		return fmt.Errorf("write points: %w", err)
	}
	return nil
}

// ListEntries scans a collection's stored payloads and returns the catalog
// view deduplicated by file_path: one source document yields many chunks,
// but the listing must be per-document. Chunks without a file_path are
// skipped.
func (ix *Indexer) ListEntries(ctx context.Context, name string) ([]domain.ManualEntry, error) {
	payloads, err := ix.vectorDB.ScrollPayloads(ctx, name)
	if err != nil {
		return nil, domain.WrapError(domain.ErrProvider, "vector store: scroll payloads", err)
	}

	seen := make(map[string]struct{}, len(payloads))
	entries := make([]domain.ManualEntry, 0, len(payloads))
	for _, p := range payloads {
		if p.FilePath == "" {
			continue
		}
		if _, ok := seen[p.FilePath]; ok {
			continue
		}
		seen[p.FilePath] = struct{}{}
		entries = append(entries, domain.ManualEntry{FileName: p.FileName})
	}
	return entries, nil
}

// IndexFiles reads the given files through the document source and upserts
// them. This is the worker-side entry point for offline batch jobs.
func (ix *Indexer) IndexFiles(ctx context.Context, collection string, paths []string) (*domain.IngestReport, error) {
	docs, err := ix.source.ReadFiles(ctx, paths)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read batch files", err)
	}
	if len(docs) == 0 {
		return &domain.IngestReport{}, nil
	}
	return ix.Upsert(ctx, collection, docs)
}
