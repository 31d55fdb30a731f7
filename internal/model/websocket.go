package model

// WebSocket message types
const (
	WSMessageTypeJobAdded   = "job_added"
	WSMessageTypeJobUpdated = "job_updated"
	WSMessageTypeJobRemoved = "job_removed"
	WSMessageTypePing       = "ping"
	WSMessageTypePong       = "pong"
)

// WSMessage represents a generic WebSocket message
type WSMessage struct {
	Type string `json:"type"`
}

// WSJobMessage carries the full job record for added/updated notifications
type WSJobMessage struct {
	Type string    `json:"type"`
	Job  ExportJob `json:"job"`
}

// WSJobRemovedMessage announces a job leaving the tracked collection
type WSJobRemovedMessage struct {
	Type  string `json:"type"`
	JobID string `json:"jobId"`
}
