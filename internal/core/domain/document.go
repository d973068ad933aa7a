package domain

import "path/filepath"

// Collection names are fixed: one per knowledge source. Live upload targets
// only ManualsCollection; OnlineResourcesCollection is populated by the
// offline batch path.
const (
	ManualsCollection         = "manuals"
	OnlineResourcesCollection = "online_resources"
)

// DocumentMetadata travels with every chunk written to a collection.
type DocumentMetadata struct {
	FilePath string `json:"file_path"`
	FileName string `json:"file_name"`
}

type Document struct {
	ID       string           `json:"id"`
	Text     string           `json:"text"`
	Metadata DocumentMetadata `json:"metadata"`
}

// NormalizeMetadata fills FileName from the last segment of FilePath when it
// is missing. A document with neither field keeps both as empty strings;
// that is valid input, not an error.
func (d *Document) NormalizeMetadata() {
	if d.Metadata.FileName == "" && d.Metadata.FilePath != "" {
		d.Metadata.FileName = filepath.Base(d.Metadata.FilePath)
	}
}

// CollectionConfig mirrors the Qdrant settings used for both knowledge
// sources: fixed dimensionality, cosine distance, int8 scalar quantization
// kept resident, and HNSW parameters tuned for indexing throughput over
// maximal recall.
type CollectionConfig struct {
	VectorSize           int
	Distance             string
	QuantizationType     string
	QuantizationInRAM    bool
	HNSWM                int
	HNSWEfConstruct      int
	DefaultSegmentNumber int
}

func DefaultCollectionConfig() CollectionConfig {
	return CollectionConfig{
		VectorSize:           1024,
		Distance:             "Cosine",
		QuantizationType:     "int8",
		QuantizationInRAM:    true,
		HNSWM:                16,
		HNSWEfConstruct:      100,
		DefaultSegmentNumber: 2,
	}
}

// ChunkPayload is what a collection stores alongside each vector.
type ChunkPayload struct {
	FilePath   string `json:"file_path"`
	FileName   string `json:"file_name"`
	Text       string `json:"text"`
	ChunkIndex int    `json:"chunk_index"`
}

// ChunkPoint is one embedded chunk ready for upsert.
type ChunkPoint struct {
	ID      string
	Vector  []float32
	Payload ChunkPayload
}

// ManualEntry is one row of the per-document catalog view produced by
// deduplicating stored chunk payloads on file_path.
type ManualEntry struct {
	FileName string `json:"file_name"`
}

// DocumentFailure records one document that failed to embed or write during
// an upsert. Documents written before it stay written.
type DocumentFailure struct {
	FilePath string `json:"file_path"`
	FileName string `json:"file_name"`
	Reason   string `json:"reason"`
}

// IngestReport summarizes an at-least-once ingestion pass.
type IngestReport struct {
	Indexed int               `json:"indexed"`
	Failed  []DocumentFailure `json:"failed,omitempty"`
}

// IndexBatchJob is one unit of offline ingestion work published by the batch
// loader and consumed by the worker.
type IndexBatchJob struct {
	Collection string   `json:"collection"`
	Paths      []string `json:"paths"`
}
