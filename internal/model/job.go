package model

import (
	"encoding/json"
	"time"
)

// ExportJob represents one export request tracked by the scheduler.
// ID is assigned at submission and never reused.
type ExportJob struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Format      ExportFormat    `json:"format"`
	Status      JobStatus       `json:"status"`
	Progress    float64         `json:"progress"`
	CurrentStep string          `json:"currentStep,omitempty"`
	Error       *string         `json:"error,omitempty"`
	OutputURL   string          `json:"outputUrl,omitempty"`
	Payload     json.RawMessage `json:"-"`
	CreatedAt   time.Time       `json:"createdAt"`
	StartedAt   *time.Time      `json:"startedAt,omitempty"`
	FinishedAt  *time.Time      `json:"finishedAt,omitempty"`
}

// Terminal reports whether the job has reached a final state.
func (j *ExportJob) Terminal() bool {
	return j.Status.Terminal()
}
