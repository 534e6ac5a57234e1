package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrTokenInvalid is returned for refresh tokens that are unknown, revoked
// or expired.  It wraps sql.ErrNoRows.
var ErrTokenInvalid = fmt.Errorf("refresh token invalid: %w", sql.ErrNoRows)

// TokenRepo stores hashed refresh tokens.  Raw tokens never reach the
// database.
type TokenRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewTokenRepo constructs a TokenRepo with the given DB handle.
func NewTokenRepo(db *sql.DB) *TokenRepo {
	return &TokenRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// StoreRefresh records a token hash for userID valid until exp.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)`,
		userID, tokenHash, exp.UTC())
	return err
}

// ValidateRefresh returns the owner of a live token, or ErrTokenInvalid.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	var userID uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id FROM refresh_tokens
		 WHERE token_hash = ? AND revoked_at IS NULL AND expires_at > ?
		 LIMIT 1`,
		tokenHash, r.now()).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrTokenInvalid
	}
	return userID, err
}

// RevokeByHash revokes a single token.  Revoking twice is not an error.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	return r.revoke(ctx, `token_hash = ?`, tokenHash)
}

// RevokeAllForUser revokes every live token of userID.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	return r.revoke(ctx, `user_id = ?`, userID)
}

func (r *TokenRepo) revoke(ctx context.Context, where string, arg any) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = ? WHERE revoked_at IS NULL AND `+where,
		r.now(), arg)
	return err
}

// DeleteExpired drops tokens that expired or were revoked before cutoff and
// returns how many rows went away.
func (r *TokenRepo) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < ? OR revoked_at < ?`,
		cutoff.UTC(), cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
