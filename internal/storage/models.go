package storage

import (
	"encoding/json"
	"time"
)

// Observation is one persisted block timing observation.
type Observation struct {
	Chain           string
	BlockNumber     int64
	BlockTimestampS float64
	ReceivedAt      time.Time
	DeltaMS         float64
	CreatedAt       time.Time
}

// ReportRecord stores one chain's analysis output for a run.
type ReportRecord struct {
	ID        int64
	Chain     string
	RunAt     time.Time
	Report    json.RawMessage
	CreatedAt time.Time
}
