package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mkotelnikov/autotech-rag/internal/core/domain"
	"github.com/mkotelnikov/autotech-rag/internal/core/ports"
)

const (
	retrievalTopK       = 10
	webSearchMaxResults = 3
)

// Tool is one callable retrieval or search capability exposed to the
// reasoning agent. Call returns a textual observation for the agent plus the
// scored passages to surface in the final result.
type Tool interface {
	Name() string
	Description() string
	Call(ctx context.Context, query string) (string, []domain.ScoredPassage, error)
}

// RetrievalTool wraps one vector collection as a search operation. Pure
// function of (query, collection state); no mutation.
type RetrievalTool struct {
	collection string
	origin     domain.PassageOrigin
	embedder   ports.Embedder
	vectorDB   ports.VectorIndex
}

func NewRetrievalTool(collection string, origin domain.PassageOrigin, embedder ports.Embedder, vectorDB ports.VectorIndex) *RetrievalTool {
	return &RetrievalTool{
		collection: collection,
		origin:     origin,
		embedder:   embedder,
		vectorDB:   vectorDB,
	}
}

func (t *RetrievalTool) Name() string {
	return t.collection + "_search"
}

func (t *RetrievalTool) Description() string {
	return fmt.Sprintf("Search the %s for detailed automotive technical information and repair procedures.", t.collection)
}

func (t *RetrievalTool) Call(ctx context.Context, query string) (string, []domain.ScoredPassage, error) {
	vector, err := t.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return "", nil, domain.WrapError(domain.ErrProvider, "embedding: query", err)
	}

	hits, err := t.vectorDB.Search(ctx, t.collection, vector, retrievalTopK)
	if err != nil {
		return "", nil, domain.WrapError(domain.ErrProvider, "vector store: search "+t.collection, err)
	}
	for i := range hits {
		hits[i].Origin = t.origin
	}

	if len(hits) == 0 {
		return "no results", nil, nil
	}

	var sb strings.Builder
	for i, hit := range hits {
		fmt.Fprintf(&sb, "[%d] source=%s score=%.3f\n%s\n\n", i+1, hit.FileName, hit.Score, hit.Text)
	}
	return sb.String(), hits, nil
}

// WebSearchTool wraps the web-search capability. A failed or empty search is
// a valid observation, never an error: the agent loop must keep going when
// the open web is unavailable.
type WebSearchTool struct {
	searcher ports.WebSearcher
}

func NewWebSearchTool(searcher ports.WebSearcher) *WebSearchTool {
	return &WebSearchTool{searcher: searcher}
}

func (t *WebSearchTool) Name() string {
	return "duckduckgo_search"
}

func (t *WebSearchTool) Description() string {
	return "Search the web for relevant information about automotive questions. Use it to find up-to-date information that might not be in your technical manuals or online resources."
}

func (t *WebSearchTool) Call(ctx context.Context, query string) (string, []domain.ScoredPassage, error) {
	results, err := t.searcher.Search(ctx, query, webSearchMaxResults)
	if err != nil {
		slog.Warn("web search failed, continuing with empty observation", "error", err)
		return "no results", nil, nil
	}
	if len(results) == 0 {
		return "no results", nil, nil
	}

	passages := make([]domain.ScoredPassage, 0, len(results))
	var sb strings.Builder
	for i, r := range results {
		fmt.Fprintf(&sb, "[%d] %s (%s)\n%s\n\n", i+1, r.Title, r.URL, r.Snippet)
		passages = append(passages, domain.ScoredPassage{
			Text:     fmt.Sprintf("[%s](%s): %s", r.Title, r.URL, r.Snippet),
			Score:    0,
			Origin:   domain.OriginWeb,
			FilePath: r.URL,
			FileName: r.Title,
		})
	}
	return sb.String(), passages, nil
}
