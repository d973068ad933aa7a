package domain

// PassageOrigin labels where a scored passage came from, so web hits stay
// distinguishable from vector-retrieval hits in QueryResult.SourceNodes.
type PassageOrigin string

const (
	OriginManuals         PassageOrigin = "manuals"
	OriginOnlineResources PassageOrigin = "online_resources"
	OriginWeb             PassageOrigin = "web"
)

// ScoredPassage is one retrieved passage. Score preserves the provider's
// relevance ordering; web results carry score 0.
type ScoredPassage struct {
	Text     string        `json:"text"`
	Score    float64       `json:"score"`
	FilePath string        `json:"file_path,omitempty"`
	FileName string        `json:"file_name,omitempty"`
	Origin   PassageOrigin `json:"origin"`
}

// WebResult is one hit from the web-search capability.
type WebResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// QueryResult is the atomic unit returned per query. SourceNodes holds only
// passages surfaced by tool calls during that query's reasoning run, in
// invocation order.
type QueryResult struct {
	SessionID   string          `json:"session_id"`
	Answer      string          `json:"answer"`
	SourceNodes []ScoredPassage `json:"source_nodes"`

	// Telemetry carried alongside the answer, not part of the wire response.
	// ToolsInvoked lists tool names in invocation order; Refused marks the
	// zero-invocation answer path.
	ToolsInvoked []string `json:"-"`
	Refused      bool     `json:"-"`
}
