package api

import (
	"teko/internal/collection"
	"teko/internal/pipeline"
)

// PipelineResponse wraps a run's state.
type PipelineResponse struct {
	ID    string         `json:"id"`
	State pipeline.State `json:"state"`
}

// RecordResponse wraps a single record.
type RecordResponse struct {
	Record *collection.Record `json:"record"`
}

// RecordListResponse is returned by GET /api/records.
type RecordListResponse struct {
	Records []*collection.Record `json:"records"`
	Count   int                  `json:"count"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Database string `json:"database"`
	OpenRuns int    `json:"openRuns"`
}
