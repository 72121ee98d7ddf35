package auth_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"repopa/internal/core/apperror"
	"repopa/internal/core/id"
	"repopa/internal/domain/auth"
	"repopa/internal/infrastructure/storage/postgres"
)

// TokenRepo implements auth.TokenRepository.
type TokenRepo struct {
	db postgres.QuerierProvider
}

var _ auth.TokenRepository = (*TokenRepo)(nil)

// NewTokenRepo creates a new token repository.
func NewTokenRepo(db postgres.QuerierProvider) *TokenRepo {
	return &TokenRepo{db: db}
}

// Save stores a refresh token.
func (r *TokenRepo) Save(ctx context.Context, token *auth.RefreshToken) error {
	_, err := r.db.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token_hash, user_agent, ip_address, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		token.ID, token.UserID, token.TokenHash, token.UserAgent, token.IPAddress,
		token.ExpiresAt, token.CreatedAt,
	)
	if err != nil {
		return postgres.MapWriteError(err, "refresh_tokens", "insert")
	}
	return nil
}

// GetByHash retrieves a refresh token by hash.
func (r *TokenRepo) GetByHash(ctx context.Context, tokenHash string) (*auth.RefreshToken, error) {
	var token auth.RefreshToken
	err := pgxscan.Get(ctx, r.db.GetQuerier(ctx), &token, `
		SELECT id, user_id, token_hash, user_agent, ip_address, expires_at, created_at, revoked_at, revoked_reason
		FROM refresh_tokens WHERE token_hash = $1`, tokenHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("refresh token", "")
	}
	if err != nil {
		return nil, fmt.Errorf("query token: %w", err)
	}
	return &token, nil
}

// Revoke marks one token revoked.
func (r *TokenRepo) Revoke(ctx context.Context, tokenID id.ID, reason string) error {
	_, err := r.db.GetQuerier(ctx).Exec(ctx,
		`UPDATE refresh_tokens SET revoked_at = NOW(), revoked_reason = $2 WHERE id = $1 AND revoked_at IS NULL`,
		tokenID, reason)
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// RevokeAllForUser revokes every live token of a user.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID id.ID, reason string) error {
	_, err := r.db.GetQuerier(ctx).Exec(ctx,
		`UPDATE refresh_tokens SET revoked_at = NOW(), revoked_reason = $2 WHERE user_id = $1 AND revoked_at IS NULL`,
		userID, reason)
	if err != nil {
		return fmt.Errorf("revoke all tokens: %w", err)
	}
	return nil
}

// CleanupExpired removes expired tokens and tokens revoked a week
// before olderThan.
func (r *TokenRepo) CleanupExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := r.db.GetQuerier(ctx).Exec(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < $1 OR revoked_at < $2`,
		olderThan, olderThan.Add(-7*24*time.Hour))
	if err != nil {
		return 0, fmt.Errorf("cleanup tokens: %w", err)
	}
	return res.RowsAffected(), nil
}
