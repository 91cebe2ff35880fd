package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/erazemk/sidak/internal/model"
)

// CreateUser creates a new user with the given unit grants.
func CreateUser(ctx context.Context, db *sql.DB, username, passwordHash, role string, allowedUnits []string) (*model.User, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)`,
		username, passwordHash, role,
	)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	if err := replaceUserUnits(ctx, tx, id, allowedUnits); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing user: %w", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, db *sql.DB, id int64) (*model.User, error) {
	u := &model.User{}
	err := db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, created_at, deleted_at
		 FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.DeletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	if u.AllowedUnits, err = getUserUnits(ctx, db, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

// GetUserByUsername returns the active user with the given username.
func GetUserByUsername(ctx context.Context, db *sql.DB, username string) (*model.User, error) {
	u := &model.User{}
	err := db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, created_at, deleted_at
		 FROM users WHERE username = ? AND deleted_at IS NULL`, username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.DeletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by username: %w", err)
	}
	if u.AllowedUnits, err = getUserUnits(ctx, db, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

// ListUsers returns all non-deleted users.
func ListUsers(ctx context.Context, db *sql.DB) ([]model.User, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, username, password_hash, role, created_at, deleted_at
		 FROM users WHERE deleted_at IS NULL ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.DeletedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("listing users: %w", err)
	}
	rows.Close()

	// Units are loaded after the user rows are released; the pool has a
	// single connection.
	for i := range users {
		if users[i].AllowedUnits, err = getUserUnits(ctx, db, users[i].ID); err != nil {
			return nil, err
		}
	}
	return users, nil
}

// UpdateUser updates a user's role and unit grants.
func UpdateUser(ctx context.Context, db *sql.DB, id int64, role string, allowedUnits []string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE users SET role = ? WHERE id = ? AND deleted_at IS NULL`,
		role, id,
	)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}

	if err := replaceUserUnits(ctx, tx, id, allowedUnits); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing user update: %w", err)
	}
	return nil
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, db *sql.DB, id int64, passwordHash string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ? AND deleted_at IS NULL`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	return nil
}

// DeleteUser soft-deletes a user.
func DeleteUser(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}

func getUserUnits(ctx context.Context, db *sql.DB, userID int64) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT unit FROM user_units WHERE user_id = ? ORDER BY position`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting user units: %w", err)
	}
	defer rows.Close()

	units := []string{}
	for rows.Next() {
		var unit string
		if err := rows.Scan(&unit); err != nil {
			return nil, fmt.Errorf("scanning user unit: %w", err)
		}
		units = append(units, unit)
	}
	return units, rows.Err()
}

// replaceUserUnits stores units as the user's grants, keeping the first
// occurrence of duplicates and dropping blanks.
func replaceUserUnits(ctx context.Context, tx *sql.Tx, userID int64, units []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM user_units WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clearing user units: %w", err)
	}

	seen := make(map[string]bool, len(units))
	pos := 0
	for _, unit := range units {
		unit = strings.TrimSpace(unit)
		if unit == "" || seen[unit] {
			continue
		}
		seen[unit] = true
		_, err := tx.ExecContext(ctx,
			`INSERT INTO user_units (user_id, unit, position) VALUES (?, ?, ?)`,
			userID, unit, pos,
		)
		if err != nil {
			return fmt.Errorf("granting unit %q: %w", unit, err)
		}
		pos++
	}
	return nil
}
