package openaicompat

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mkotelnikov/autotech-rag/internal/infrastructure/resilience"
)

// Embedder maps text to fixed-dimension vectors through an embeddings
// endpoint. The dimension must match the collection configuration.
type Embedder struct {
	client     *openai.Client
	model      string
	dimensions int
	timeout    time.Duration
	executor   *resilience.Executor
}

type EmbedderOptions struct {
	Timeout  time.Duration
	Executor *resilience.Executor
}

func NewEmbedder(baseURL, apiKey, model string, dimensions int, opts EmbedderOptions) *Embedder {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &Embedder{
		client:     newClient(baseURL, apiKey),
		model:      model,
		dimensions: dimensions,
		timeout:    opts.Timeout,
		executor:   opts.Executor,
	}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req := openai.EmbeddingRequest{
		Input:      texts,
		Model:      openai.EmbeddingModel(e.model),
		Dimensions: e.dimensions,
	}

	var vectors [][]float32
	call := func(callCtx context.Context) error {
		resp, err := e.client.CreateEmbeddings(callCtx, req)
		if err != nil {
			return fmt.Errorf("create embeddings: %w", err)
		}
		if len(resp.Data) != len(texts) {
			return fmt.Errorf("embeddings/texts mismatch: %d/%d", len(resp.Data), len(texts))
		}
		vectors = make([][]float32, len(resp.Data))
		for i, data := range resp.Data {
			vectors[i] = data.Embedding
		}
		return nil
	}

	var err error
	if e.executor != nil {
		err = e.executor.Execute(ctx, "embedding.embed", call, classifyProviderError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, err
	}
	return vectors, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}
