package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SessionTokenRepo stores refresh tokens by SHA-256 hash.  A token is usable
// until it expires or is revoked; refresh rotation revokes it on first use.
type SessionTokenRepo struct {
	db *sql.DB
}

func NewSessionTokenRepo(db *sql.DB) *SessionTokenRepo { return &SessionTokenRepo{db: db} }

func (r *SessionTokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	const q = `INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, userID, tokenHash, exp.UTC())
	return err
}

// ValidateRefresh returns the owner of a live token or ErrNotFound.
func (r *SessionTokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	const q = `SELECT user_id FROM refresh_tokens
               WHERE token_hash = ? AND revoked_at IS NULL AND expires_at > UTC_TIMESTAMP()`
	var userID uint64
	err := r.db.QueryRowContext(ctx, q, tokenHash).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return userID, err
}

// RevokeByHash revokes one token.  ErrNotFound means it was unknown or
// already revoked, which makes a concurrent second refresh with the same
// token fail.
func (r *SessionTokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	const q = `UPDATE refresh_tokens SET revoked_at = UTC_TIMESTAMP()
               WHERE token_hash = ? AND revoked_at IS NULL`
	res, err := r.db.ExecContext(ctx, q, tokenHash)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// RevokeAllForUser signs the user out of every device.
func (r *SessionTokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	const q = `UPDATE refresh_tokens SET revoked_at = UTC_TIMESTAMP()
               WHERE user_id = ? AND revoked_at IS NULL`
	_, err := r.db.ExecContext(ctx, q, userID)
	return err
}

// PurgeExpired deletes tokens that expired or were revoked before cutoff and
// returns how many rows went away.
func (r *SessionTokenRepo) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `DELETE FROM refresh_tokens
               WHERE expires_at < ? OR (revoked_at IS NOT NULL AND revoked_at < ?)`
	cutoff = cutoff.UTC()
	res, err := r.db.ExecContext(ctx, q, cutoff, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
