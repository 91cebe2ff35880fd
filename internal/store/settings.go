package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
)

const jwtSecretKey = "jwt_secret"

// GetSetting returns a stored setting and whether it exists.
func GetSetting(ctx context.Context, db *sql.DB, key string) (string, bool, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading setting %s: %w", key, err)
	}
	return value, true, nil
}

// InitSetting stores value under key unless the key already exists, and
// returns whichever value ends up stored. Concurrent callers all observe the
// same winner.
func InitSetting(ctx context.Context, db *sql.DB, key, value string) (string, error) {
	if _, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`, key, value,
	); err != nil {
		return "", fmt.Errorf("storing setting %s: %w", key, err)
	}
	stored, _, err := GetSetting(ctx, db, key)
	return stored, err
}

// GetJWTSecret returns the token signing key, generating it on first use.
func GetJWTSecret(ctx context.Context, db *sql.DB) (string, error) {
	if secret, ok, err := GetSetting(ctx, db, jwtSecretKey); err != nil || ok {
		return secret, err
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	return InitSetting(ctx, db, jwtSecretKey, hex.EncodeToString(buf))
}
