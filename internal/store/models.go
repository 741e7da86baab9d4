package store

import (
	"encoding/json"
	"time"
)

// Deployment is one recorded step of a deploy sequence.
type Deployment struct {
	ID     string    `json:"id"`
	RunID  string    `json:"run_id,omitempty"` // shared by the steps of one sequence
	Name   string    `json:"name"`
	Action string    `json:"action"` // event type, e.g. "mashup_pushed"
	Status int       `json:"status,omitempty"`
	Detail string    `json:"detail,omitempty"`
	Time   time.Time `json:"time"`
}

// Snapshot is the last fetched document of a mashup.
type Snapshot struct {
	Name    string          `json:"name"`
	SavedAt time.Time       `json:"saved_at"`
	Data    json.RawMessage `json:"data,omitempty"`
}
