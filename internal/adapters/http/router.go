package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/mkotelnikov/autotech-rag/internal/core/domain"
	"github.com/mkotelnikov/autotech-rag/internal/core/ports"
	"github.com/mkotelnikov/autotech-rag/internal/observability/metrics"
)

const serviceName = "api"

type Router struct {
	assistant ports.Assistant
	metrics   *metrics.HTTPServerMetrics
}

func NewRouter(assistant ports.Assistant, m *metrics.HTTPServerMetrics) *Router {
	return &Router{assistant: assistant, metrics: m}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/readyz", rt.readyz)
	mux.HandleFunc("/v1/chat/query", rt.chatQuery)
	mux.HandleFunc("/v1/chat/history", rt.chatHistory)
	mux.HandleFunc("/v1/documents", rt.uploadDocuments)
	mux.HandleFunc("/v1/manuals", rt.listManuals)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) readyz(w http.ResponseWriter, _ *http.Request) {
	if !rt.assistant.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "initializing"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (rt *Router) chatQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		SessionID string `json:"session_id"`
		Question  string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	start := time.Now()
	result, err := rt.assistant.Query(r.Context(), req.Question, req.SessionID)
	if rt.metrics != nil {
		sources := 0
		if err == nil {
			sources = len(result.SourceNodes)
		}
		rt.metrics.RecordQuery(serviceName, err, sources, time.Since(start))
		if err == nil {
			for _, tool := range result.ToolsInvoked {
				rt.metrics.RecordToolCall(serviceName, tool, nil)
			}
			if result.Refused {
				rt.metrics.RecordRefusal(serviceName)
			}
		}
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{
		SessionID:   result.SessionID,
		Answer:      result.Answer,
		SourceNodes: toSourceNodes(result.SourceNodes),
	})
}

func (rt *Router) chatHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session_id is required"})
		return
	}

	turns, err := rt.assistant.History(r.Context(), sessionID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]historyTurn, 0, len(turns))
	for _, t := range turns {
		out = append(out, historyTurn{Role: string(t.Role), Content: t.Content})
	}
	writeJSON(w, http.StatusOK, historyResponse{SessionID: sessionID, Turns: out})
}

func (rt *Router) uploadDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Documents []documentPayload `json:"documents"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if len(req.Documents) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "documents are required"})
		return
	}

	docs := make([]domain.Document, 0, len(req.Documents))
	for _, d := range req.Documents {
		docs = append(docs, domain.Document{
			Text: d.Text,
			Metadata: domain.DocumentMetadata{
				FilePath: d.FilePath,
				FileName: d.FileName,
			},
		})
	}

	report, err := rt.assistant.AddDocuments(r.Context(), docs)
	if rt.metrics != nil && report != nil {
		rt.metrics.RecordDocumentsIndexed(serviceName, report.Indexed, len(report.Failed))
	}
	if err != nil {
		if report != nil && report.Indexed > 0 {
			writeJSON(w, http.StatusMultiStatus, toIngestResponse(report))
			return
		}
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toIngestResponse(report))
}

func (rt *Router) listManuals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	entries, err := rt.assistant.ListManuals(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.FileName)
	}
	writeJSON(w, http.StatusOK, map[string][]string{"manuals": names})
}

type queryResponse struct {
	SessionID   string       `json:"session_id"`
	Answer      string       `json:"answer"`
	SourceNodes []sourceNode `json:"source_nodes"`
}

type sourceNode struct {
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
	FilePath string  `json:"file_path,omitempty"`
	FileName string  `json:"file_name,omitempty"`
	Origin   string  `json:"origin"`
}

type historyResponse struct {
	SessionID string        `json:"session_id"`
	Turns     []historyTurn `json:"turns"`
}

type historyTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type documentPayload struct {
	Text     string `json:"text"`
	FilePath string `json:"file_path"`
	FileName string `json:"file_name"`
}

type ingestResponse struct {
	Indexed int             `json:"indexed"`
	Failed  []ingestFailure `json:"failed,omitempty"`
}

type ingestFailure struct {
	FilePath string `json:"file_path,omitempty"`
	FileName string `json:"file_name,omitempty"`
	Error    string `json:"error"`
}

func toSourceNodes(passages []domain.ScoredPassage) []sourceNode {
	out := make([]sourceNode, 0, len(passages))
	for _, p := range passages {
		out = append(out, sourceNode{
			Text:     p.Text,
			Score:    p.Score,
			FilePath: p.FilePath,
			FileName: p.FileName,
			Origin:   string(p.Origin),
		})
	}
	return out
}

func toIngestResponse(report *domain.IngestReport) ingestResponse {
	resp := ingestResponse{Indexed: report.Indexed}
	for _, f := range report.Failed {
		resp.Failed = append(resp.Failed, ingestFailure{
			FilePath: f.FilePath,
			FileName: f.FileName,
			Error:    f.Reason,
		})
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
