package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/erazemk/sidak/internal/model"
)

// CreateUnit creates a new organizational unit.
func CreateUnit(ctx context.Context, db *sql.DB, name string) (*model.Unit, error) {
	existing, err := GetUnitByName(ctx, db, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUnitExists
	}

	result, err := db.ExecContext(ctx, `INSERT INTO units (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("creating unit: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting unit id: %w", err)
	}

	return GetUnit(ctx, db, id)
}

// GetUnit returns a unit by ID.
func GetUnit(ctx context.Context, db *sql.DB, id int64) (*model.Unit, error) {
	u := &model.Unit{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name, created_at, deleted_at FROM units WHERE id = ?`, id,
	).Scan(&u.ID, &u.Name, &u.CreatedAt, &u.DeletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting unit: %w", err)
	}
	return u, nil
}

// GetUnitByName returns the active unit with the given name.
func GetUnitByName(ctx context.Context, db *sql.DB, name string) (*model.Unit, error) {
	u := &model.Unit{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name, created_at, deleted_at FROM units WHERE name = ? AND deleted_at IS NULL`, name,
	).Scan(&u.ID, &u.Name, &u.CreatedAt, &u.DeletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting unit by name: %w", err)
	}
	return u, nil
}

// ListUnits returns all non-deleted units ordered by name.
func ListUnits(ctx context.Context, db *sql.DB) ([]model.Unit, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, created_at, deleted_at FROM units WHERE deleted_at IS NULL ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing units: %w", err)
	}
	defer rows.Close()

	var units []model.Unit
	for rows.Next() {
		var u model.Unit
		if err := rows.Scan(&u.ID, &u.Name, &u.CreatedAt, &u.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning unit: %w", err)
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// EnsureUnit returns the named unit, creating it if needed. Blank names are
// ignored and return nil.
func EnsureUnit(ctx context.Context, db *sql.DB, name string) (*model.Unit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	u, err := GetUnitByName(ctx, db, name)
	if err != nil || u != nil {
		return u, err
	}
	return CreateUnit(ctx, db, name)
}

// DeleteUnit soft-deletes a unit. Fails with ErrUnitInUse if active assets
// still belong to it.
func DeleteUnit(ctx context.Context, db *sql.DB, id int64) error {
	u, err := GetUnit(ctx, db, id)
	if err != nil {
		return err
	}
	if u == nil || u.DeletedAt != nil {
		return nil
	}

	count, err := CountAssetsInUnit(ctx, db, u.Name)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("deleting unit %q: %w (%d assets)", u.Name, ErrUnitInUse, count)
	}

	_, err = db.ExecContext(ctx,
		`UPDATE units SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting unit: %w", err)
	}
	return nil
}
