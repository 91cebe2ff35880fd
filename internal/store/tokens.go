package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RevokeToken records a logged-out token ID until the token would have
// expired anyway, then purges revocations that no longer matter.
func RevokeToken(ctx context.Context, db *sql.DB, jti string, expiresAt time.Time) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO revoked_tokens (jti, expires_at) VALUES (?, ?)`,
		jti, expiresAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	if _, err := PurgeRevokedTokens(ctx, db, time.Now()); err != nil {
		return err
	}
	return nil
}

// PurgeRevokedTokens removes revocations of tokens that expired before now.
func PurgeRevokedTokens(ctx context.Context, db *sql.DB, now time.Time) (int64, error) {
	res, err := db.ExecContext(ctx,
		`DELETE FROM revoked_tokens WHERE expires_at < ?`, now.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("purging revoked tokens: %w", err)
	}
	return res.RowsAffected()
}

// IsTokenRevoked reports whether the token ID was revoked.
func IsTokenRevoked(ctx context.Context, db *sql.DB, jti string) (bool, error) {
	var revoked bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = ?)`, jti,
	).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	return revoked, nil
}
