package model

import (
	"encoding/json"
	"time"
)

// ExportSubmitRequest represents the request to submit an export job
type ExportSubmitRequest struct {
	Name    string          `json:"name" validate:"omitempty,max=200"`
	Format  ExportFormat    `json:"format" validate:"required,oneof=csv json xlsx pdf"`
	Payload json.RawMessage `json:"payload" validate:"omitempty"`
}

// ExportSubmitResponse represents the response when submitting an export job
type ExportSubmitResponse struct {
	JobID     string    `json:"jobId"`
	Status    JobStatus `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// ExportListResponse represents the full tracked job list
type ExportListResponse struct {
	Jobs []ExportJob `json:"jobs"`
}

// ExportStatsResponse represents the scheduler's count queries
type ExportStatsResponse struct {
	Active   int `json:"active"`
	Waiting  int `json:"waiting"`
	Finished int `json:"finished"`
}

// ExportCancelResponse represents the response when cancelling a job
type ExportCancelResponse struct {
	Success bool      `json:"success"`
	JobID   string    `json:"jobId"`
	Status  JobStatus `json:"status"`
}

// ExportClearResponse represents the response when clearing finished jobs
type ExportClearResponse struct {
	Removed int `json:"removed"`
}
