package db

import (
	"context"
	"fmt"

	"scout-sync-go/pkg/models"
)

// RecordSync appends one sync run to the history
func (db *DB) RecordSync(ctx context.Context, direction models.SyncDirection, r models.SyncResult) error {
	errs := r.Errors
	if errs == nil {
		errs = []string{}
	}
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO sync_history
		     (direction, success, message, records_created, records_updated, records_failed, total_records, errors)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		direction, r.Success, r.Message,
		models.IntValue(r.RecordsCreated),
		models.IntValue(r.RecordsUpdated),
		models.IntValue(r.RecordsFailed),
		models.IntValue(r.TotalRecords),
		errs,
	)
	if err != nil {
		return fmt.Errorf("failed to record sync: %w", err)
	}
	return nil
}

// ListSyncHistory returns the latest limit runs, newest first
func (db *DB) ListSyncHistory(ctx context.Context, limit int) ([]models.SyncRecord, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, direction, created_at, success, message,
		        records_created, records_updated, records_failed, total_records, errors
		 FROM sync_history
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync history: %w", err)
	}
	defer rows.Close()

	records := []models.SyncRecord{}
	for rows.Next() {
		var (
			rec                             models.SyncRecord
			created, updated, failed, total int
		)
		err := rows.Scan(
			&rec.ID,
			&rec.Direction,
			&rec.CreatedAt,
			&rec.Success,
			&rec.Message,
			&created,
			&updated,
			&failed,
			&total,
			&rec.Errors,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync record: %w", err)
		}
		rec.RecordsCreated = models.IntPtr(created)
		rec.RecordsUpdated = models.IntPtr(updated)
		rec.RecordsFailed = models.IntPtr(failed)
		rec.TotalRecords = models.IntPtr(total)
		records = append(records, rec)
	}
	return records, rows.Err()
}
