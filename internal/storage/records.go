package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// RecordInfo describes a stored record without its value.
type RecordInfo struct {
	Key       string    `json:"key"`
	Size      int       `json:"size"`
	Hash      string    `json:"hash"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HashRecord returns the hex SHA-256 of a record value, as stored alongside it.
func HashRecord(value []byte) string {
	sum := sha256.Sum256(value)
	return hex.EncodeToString(sum[:])
}

// PutRecord stores a raw record for a user, replacing any previous value.
// It reports whether the stored value changed.
func (db *DB) PutRecord(ctx context.Context, userID int, key string, value []byte) (bool, error) {
	tag, err := db.Pool.Exec(ctx, `
		INSERT INTO wellness_records (user_id, key, value, sha256)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, key) DO UPDATE
			SET value = EXCLUDED.value, sha256 = EXCLUDED.sha256, updated_at = NOW()
			WHERE wellness_records.sha256 <> EXCLUDED.sha256
	`, userID, key, value, HashRecord(value))
	if err != nil {
		return false, fmt.Errorf("storing record %s: %w", key, err)
	}
	return tag.RowsAffected() > 0, nil
}

// PutRecords stores several records in one transaction and returns how many changed.
func (db *DB) PutRecords(ctx context.Context, userID int, records map[string][]byte) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	batch := &pgx.Batch{}
	for key, value := range records {
		batch.Queue(`
			INSERT INTO wellness_records (user_id, key, value, sha256)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id, key) DO UPDATE
				SET value = EXCLUDED.value, sha256 = EXCLUDED.sha256, updated_at = NOW()
				WHERE wellness_records.sha256 <> EXCLUDED.sha256
		`, userID, key, value, HashRecord(value))
	}

	br := tx.SendBatch(ctx, batch)
	changed := 0
	for range records {
		tag, err := br.Exec()
		if err != nil {
			br.Close()
			return 0, fmt.Errorf("storing records: %w", err)
		}
		changed += int(tag.RowsAffected())
	}
	if err := br.Close(); err != nil {
		return 0, fmt.Errorf("closing batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing records: %w", err)
	}
	return changed, nil
}

// GetRecord returns a user's raw record value.
func (db *DB) GetRecord(ctx context.Context, userID int, key string) ([]byte, error) {
	var value []byte
	err := db.Pool.QueryRow(ctx,
		`SELECT value FROM wellness_records WHERE user_id = $1 AND key = $2`,
		userID, key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading record %s: %w", key, err)
	}
	return value, nil
}

// ListRecords returns every record stored for a user, ordered by key.
func (db *DB) ListRecords(ctx context.Context, userID int) ([]RecordInfo, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT key, octet_length(value), sha256, updated_at
		 FROM wellness_records
		 WHERE user_id = $1
		 ORDER BY key`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	result := []RecordInfo{}
	for rows.Next() {
		var r RecordInfo
		if err := rows.Scan(&r.Key, &r.Size, &r.Hash, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
