package auth

import (
	"context"
	"time"

	"repopa/internal/core/id"
	"repopa/internal/core/security"
)

// UserRepository stores users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, userID id.ID) (*User, error)
	// GetByEmail expects a normalized address.
	GetByEmail(ctx context.Context, email string) (*User, error)
	// Update writes the mutable columns and bumps the version.
	Update(ctx context.Context, user *User) error
	List(ctx context.Context, filter UserFilter) ([]*User, int, error)
	Exists(ctx context.Context, email string) (bool, error)
}

// TokenRepository stores refresh tokens.
type TokenRepository interface {
	Save(ctx context.Context, token *RefreshToken) error
	GetByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	Revoke(ctx context.Context, tokenID id.ID, reason string) error
	RevokeAllForUser(ctx context.Context, userID id.ID, reason string) error
	// CleanupExpired deletes tokens that expired or were revoked before
	// olderThan.
	CleanupExpired(ctx context.Context, olderThan time.Time) (int64, error)
}

// UserFilter for listing users.
type UserFilter struct {
	Search   string
	Role     security.Role
	IsActive *bool
	Limit    int
	Offset   int
}
