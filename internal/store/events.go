package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/sidak/internal/model"
)

// RecordEvent appends an entry to an asset's history.
func RecordEvent(ctx context.Context, db *sql.DB, assetID, action, username, summary string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO asset_events (asset_id, action, username, summary, at) VALUES (?, ?, ?, ?, ?)`,
		assetID, action, username, summary, time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("recording asset event: %w", err)
	}
	return nil
}

// GetAssetHistory returns an asset's events, newest first.
func GetAssetHistory(ctx context.Context, db *sql.DB, assetID string) ([]model.AssetEvent, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, asset_id, action, username, summary, at
		 FROM asset_events WHERE asset_id = ?
		 ORDER BY at DESC, id DESC`, assetID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting asset history: %w", err)
	}
	defer rows.Close()

	var events []model.AssetEvent
	for rows.Next() {
		var e model.AssetEvent
		var summary sql.NullString
		if err := rows.Scan(&e.ID, &e.AssetID, &e.Action, &e.Username, &summary, &e.At); err != nil {
			return nil, fmt.Errorf("scanning asset event: %w", err)
		}
		e.Summary = summary.String
		events = append(events, e)
	}
	return events, rows.Err()
}
