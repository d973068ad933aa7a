package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mkotelnikov/autotech-rag/internal/core/domain"
)

// Client is a minimal Qdrant REST client shared by every collection. Safe
// for concurrent search and upsert.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) CollectionExists(ctx context.Context, name string) (bool, error) {
	url := fmt.Sprintf("%s/collections/%s", c.baseURL, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("create collection info request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("qdrant collection info request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 300:
		return false, statusError("collection info", resp)
	default:
		return true, nil
	}
}

// CreateCollection creates a named collection with the engine's fixed
// vector parameters. A conflict means another initializer won the race;
// that is success, not an error.
func (c *Client) CreateCollection(ctx context.Context, name string, cfg domain.CollectionConfig) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     cfg.VectorSize,
			"distance": cfg.Distance,
		},
		"quantization_config": map[string]any{
			"scalar": map[string]any{
				"type":       cfg.QuantizationType,
				"always_ram": cfg.QuantizationInRAM,
			},
		},
		"hnsw_config": map[string]any{
			"m":            cfg.HNSWM,
			"ef_construct": cfg.HNSWEfConstruct,
		},
		"optimizers_config": map[string]any{
			"default_segment_number": cfg.DefaultSegmentNumber,
		},
	}

	resp, err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", name), body, "create collection")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return nil
	}
	if resp.StatusCode >= 300 {
		return statusError("create collection", resp)
	}
	return nil
}

func (c *Client) Upsert(ctx context.Context, name string, points []domain.ChunkPoint) error {
	if len(points) == 0 {
		return nil
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}
	payload := make([]point, 0, len(points))
	for _, p := range points {
		payload = append(payload, point{
			ID:     p.ID,
			Vector: p.Vector,
			Payload: map[string]any{
				"file_path":   p.Payload.FilePath,
				"file_name":   p.Payload.FileName,
				"text":        p.Payload.Text,
				"chunk_index": p.Payload.ChunkIndex,
			},
		})
	}

	resp, err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/points?wait=true", name), map[string]any{"points": payload}, "upsert")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return statusError("upsert", resp)
	}
	return nil
}

func (c *Client) Search(ctx context.Context, name string, vector []float32, topK int) ([]domain.ScoredPassage, error) {
	body := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}

	resp, err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/search", name), body, "search")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, statusError("search", resp)
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]domain.ScoredPassage, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		out = append(out, domain.ScoredPassage{
			Text:     stringPayload(r.Payload, "text"),
			Score:    r.Score,
			FilePath: stringPayload(r.Payload, "file_path"),
			FileName: stringPayload(r.Payload, "file_name"),
		})
	}
	return out, nil
}

// ScrollPayloads pages through every stored payload of a collection.
func (c *Client) ScrollPayloads(ctx context.Context, name string) ([]domain.ChunkPayload, error) {
	var (
		out    []domain.ChunkPayload
		offset any
	)
	for {
		body := map[string]any{
			"limit":        256,
			"with_payload": true,
		}
		if offset != nil {
			body["offset"] = offset
		}

		resp, err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/scroll", name), body, "scroll")
		if err != nil {
			return nil, err
		}

		var scrollResp struct {
			Result struct {
				Points []struct {
					Payload map[string]any `json:"payload"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		if resp.StatusCode >= 300 {
			err := statusError("scroll", resp)
			resp.Body.Close()
			return nil, err
		}
		decodeErr := json.NewDecoder(resp.Body).Decode(&scrollResp)
		resp.Body.Close()
		if decodeErr != nil {
			return nil, fmt.Errorf("decode scroll response: %w", decodeErr)
		}

		for _, p := range scrollResp.Result.Points {
			out = append(out, domain.ChunkPayload{
				FilePath:   stringPayload(p.Payload, "file_path"),
				FileName:   stringPayload(p.Payload, "file_name"),
				Text:       stringPayload(p.Payload, "text"),
				ChunkIndex: intPayload(p.Payload, "chunk_index"),
			})
		}

		if scrollResp.Result.NextPageOffset == nil {
			return out, nil
		}
		offset = scrollResp.Result.NextPageOffset
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any, operation string) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s body: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", operation, err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qdrant %s request: %w", operation, err)
	}
	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}
}

func statusError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return fmt.Errorf("qdrant %s status: %s: %s", operation, resp.Status, msg)
	}
	return fmt.Errorf("qdrant %s status: %s", operation, resp.Status)
}

func stringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func intPayload(payload map[string]any, key string) int {
	v, ok := payload[key]
	if !ok {
		return 0
	}
	if f, ok := v.(float64); ok {
		return int(f)
	}
	return 0
}
