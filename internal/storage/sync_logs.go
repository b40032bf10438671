package storage

import (
	"context"
	"fmt"
	"time"
)

// SyncLog records the outcome of one batch of record uploads.
type SyncLog struct {
	ID              int64     `json:"id"`
	UserID          int       `json:"user_id"`
	SyncID          string    `json:"sync_id"`
	CreatedAt       time.Time `json:"created_at"`
	Source          string    `json:"source"`
	Status          string    `json:"status"`
	RecordsReceived int       `json:"records_received"`
	RecordsChanged  int       `json:"records_changed"`
	RecordsSkipped  int       `json:"records_skipped"`
	DurationMs      *int      `json:"duration_ms"`
	ErrorMessage    *string   `json:"error_message"`
}

// InsertSyncLog creates a sync log entry and returns its ID.
func (db *DB) InsertSyncLog(ctx context.Context, l SyncLog) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO sync_logs (user_id, sync_id, source, status, records_received,
		 records_changed, records_skipped, duration_ms, error_message)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 RETURNING id`,
		l.UserID, l.SyncID, l.Source, l.Status, l.RecordsReceived,
		l.RecordsChanged, l.RecordsSkipped, l.DurationMs, l.ErrorMessage,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting sync log: %w", err)
	}
	return id, nil
}

// QuerySyncLogs returns a user's most recent sync logs, newest first.
func (db *DB) QuerySyncLogs(ctx context.Context, userID, limit int) ([]SyncLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, sync_id, created_at, source, status, records_received,
		 records_changed, records_skipped, duration_ms, error_message
		 FROM sync_logs
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sync logs: %w", err)
	}
	defer rows.Close()

	result := []SyncLog{}
	for rows.Next() {
		var l SyncLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.SyncID, &l.CreatedAt, &l.Source, &l.Status,
			&l.RecordsReceived, &l.RecordsChanged, &l.RecordsSkipped, &l.DurationMs, &l.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scanning sync log: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
