package model

import (
	"context"
	"time"
)

// AlertRecord is the journal entry for one delivered alert.
type AlertRecord struct {
	ID      string    `json:"id" db:"id"`
	RunID   string    `json:"run_id" db:"run_id"`
	Asset   string    `json:"asset" db:"asset"`
	SetupID string    `json:"setup_id" db:"setup_id"`
	Score   float64   `json:"score" db:"score"`
	Close   float64   `json:"close" db:"close"`
	Target  float64   `json:"target" db:"target"`
	Stop    float64   `json:"stop" db:"stop"`
	SentAt  time.Time `json:"sent_at" db:"sent_at"`
}

// AlertJournal persists delivered alerts for audit.
type AlertJournal interface {
	RecordAlert(ctx context.Context, rec AlertRecord) error
}
