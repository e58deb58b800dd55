package server

import (
	"github.com/shadabshaukat/searchd/engine/ingest"
	"github.com/shadabshaukat/searchd/engine/retriever"
	"github.com/shadabshaukat/searchd/engine/store"
)

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query string `json:"query"`
	Mode  string `json:"mode"`
	TopK  int    `json:"top_k"`
}

// SearchResponse wraps one retrieval answer.
type SearchResponse struct {
	Query                string             `json:"query"`
	Mode                 string             `json:"mode"`
	TopK                 int                `json:"top_k"`
	Answer               string             `json:"answer,omitempty"`
	SynthesisUnavailable bool               `json:"synthesis_unavailable,omitempty"`
	SynthesisFailure     string             `json:"synthesis_failure,omitempty"`
	Results              []retriever.Result `json:"results"`
}

// UploadFileResult reports the outcome for one file of a batch upload. A
// failed file carries its error string; the rest of the batch still lands.
type UploadFileResult struct {
	Filename string         `json:"filename"`
	Ingested *ingest.Result `json:"ingested,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// UploadResponse summarizes a batch upload.
type UploadResponse struct {
	Accepted int                `json:"accepted"`
	Failed   int                `json:"failed"`
	Files    []UploadFileResult `json:"files"`
}

// DocumentListResponse is the payload of GET /documents.
type DocumentListResponse struct {
	Documents []store.DocumentSummary `json:"documents"`
	Limit     int                     `json:"limit"`
	Offset    int                     `json:"offset"`
}

// MetadataPatchRequest is the body of PATCH /documents/:id/metadata.
type MetadataPatchRequest struct {
	Metadata map[string]any `json:"metadata"`
}
