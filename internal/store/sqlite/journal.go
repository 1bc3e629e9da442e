package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"setup-scanner/internal/model"
)

// RecordAlert persists a delivered alert to the journal. An empty ID is
// filled with a random UUID.
func (s *Store) RecordAlert(ctx context.Context, rec model.AlertRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO alert_journal (id, run_id, asset, setup_id, score, close, target, stop, sent_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.RunID, rec.Asset, rec.SetupID,
		rec.Score, rec.Close, rec.Target, rec.Stop,
		rec.SentAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: record alert: %w", err)
	}
	return nil
}

// RecentAlerts returns the last limit journal entries, newest first.
func (s *Store) RecentAlerts(ctx context.Context, limit int) ([]model.AlertRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, asset, setup_id, score, close, target, stop, sent_at
		 FROM alert_journal ORDER BY sent_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: recent alerts: %w", err)
	}
	defer rows.Close()

	var out []model.AlertRecord
	for rows.Next() {
		var (
			r     model.AlertRecord
			nanos int64
		)
		if err := rows.Scan(&r.ID, &r.RunID, &r.Asset, &r.SetupID,
			&r.Score, &r.Close, &r.Target, &r.Stop, &nanos); err != nil {
			return nil, fmt.Errorf("sqlite: scan alert: %w", err)
		}
		r.SentAt = time.Unix(0, nanos).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}
