package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"repopa/internal/core/apperror"
	appctx "repopa/internal/core/context"
	"repopa/internal/core/id"
	"repopa/internal/core/security"
	"repopa/internal/core/tx"
	"repopa/pkg/logger"
)

// ServiceConfig holds auth service configuration.
type ServiceConfig struct {
	MaxLoginAttempts   int
	LockDuration       time.Duration
	PasswordMinLength  int
	RefreshTokenExpiry time.Duration
	BcryptCost         int
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxLoginAttempts:   5,
		LockDuration:       15 * time.Minute,
		PasswordMinLength:  8,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
		BcryptCost:         bcrypt.DefaultCost,
	}
}

// Service provides authentication and user management.
type Service struct {
	users      UserRepository
	tokens     TokenRepository
	txManager  tx.Manager
	jwtService *JWTService
	config     ServiceConfig
	now        func() time.Time
}

// NewService creates a new auth service.
func NewService(
	users UserRepository,
	tokens TokenRepository,
	txManager tx.Manager,
	jwtService *JWTService,
	config ServiceConfig,
) *Service {
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		users:      users,
		tokens:     tokens,
		txManager:  txManager,
		jwtService: jwtService,
		config:     config,
		now:        time.Now,
	}
}

// CreateUser adds an account. Only administrators reach this through
// the API.
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	role, ok := security.ParseRole(req.Role)
	if !ok {
		return nil, apperror.NewValidation("invalid role").
			WithDetail("field", "role").
			WithDetail("value", req.Role)
	}
	if len(req.Password) < s.config.PasswordMinLength {
		return nil, apperror.NewValidation(
			fmt.Sprintf("password must be at least %d characters", s.config.PasswordMinLength),
		).WithDetail("field", "password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := NewUser(req.Email, string(hash), req.Name, role)
	user.CreatedBy = appctx.GetUserID(ctx)
	user.UpdatedBy = user.CreatedBy
	if err := user.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.users.Exists(ctx, user.Email)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if exists {
			return apperror.NewDuplicate("User", "email", user.Email)
		}
		return s.users.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "user created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// EnsureAdmin creates an administrator unless the email is taken.
// created is false when the account already existed.
func (s *Service) EnsureAdmin(ctx context.Context, email, password, name string) (user *User, created bool, err error) {
	existing, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err == nil {
		return existing, false, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, false, err
	}
	user, err = s.CreateUser(ctx, CreateUserRequest{
		Email:    email,
		Password: password,
		Name:     name,
		Role:     string(security.RoleAdmin),
	})
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// Login checks the password and issues a token pair. Every failure
// answers the same way so callers cannot discover which emails exist.
func (s *Service) Login(ctx context.Context, creds Credentials, session Session) (*TokenPair, *User, error) {
	now := s.now()
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(creds.Email))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil, apperror.NewUnauthorized("invalid credentials")
		}
		return nil, nil, err
	}
	if err := user.CanLogin(now); err != nil {
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		user.RecordFailedLogin(now, s.config.MaxLoginAttempts, s.config.LockDuration)
		if err := s.users.Update(ctx, user); err != nil {
			logger.Error(ctx, "failed to record login failure", "user_id", user.ID, "error", err)
		}
		if user.IsLocked(now) {
			logger.Warn(ctx, "account locked", "user_id", user.ID, "attempts", user.FailedLoginAttempts)
		}
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	var pair *TokenPair
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		user.RecordSuccessfulLogin(now)
		if err := s.users.Update(ctx, user); err != nil {
			return err
		}
		var err error
		pair, err = s.issue(ctx, user, session, now)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Info(ctx, "user logged in", "user_id", user.ID)
	return pair, user, nil
}

// Refresh exchanges a refresh token for a new pair. The old token is
// revoked so each one works once.
func (s *Service) Refresh(ctx context.Context, raw string, session Session) (*TokenPair, error) {
	now := s.now()
	var pair *TokenPair
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		token, err := s.tokens.GetByHash(ctx, hashToken(raw))
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewUnauthorized("invalid refresh token")
			}
			return err
		}
		if !token.IsValid(now) {
			return apperror.NewUnauthorized("refresh token expired or revoked")
		}

		user, err := s.users.GetByID(ctx, token.UserID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewUnauthorized("invalid refresh token")
			}
			return err
		}
		if err := user.CanLogin(now); err != nil {
			return err
		}

		if err := s.tokens.Revoke(ctx, token.ID, "refreshed"); err != nil {
			return err
		}
		pair, err = s.issue(ctx, user, session, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout revokes every refresh token of the user.
func (s *Service) Logout(ctx context.Context, userID id.ID) error {
	return s.tokens.RevokeAllForUser(ctx, userID, "logout")
}

// Me returns the user behind the request.
func (s *Service) Me(ctx context.Context) (*User, error) {
	raw := appctx.GetUserID(ctx)
	if raw == "" {
		return nil, apperror.NewUnauthorized("authentication required")
	}
	userID, err := id.Parse(raw)
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid user id")
	}
	return s.users.GetByID(ctx, userID)
}

// GetUser loads one user.
func (s *Service) GetUser(ctx context.Context, userID id.ID) (*User, error) {
	return s.users.GetByID(ctx, userID)
}

// ListUsers lists users with filtering.
func (s *Service) ListUsers(ctx context.Context, filter UserFilter) ([]*User, int, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return s.users.List(ctx, filter)
}

// CleanupTokens drops refresh tokens that can no longer be used.
func (s *Service) CleanupTokens(ctx context.Context) (int64, error) {
	return s.tokens.CleanupExpired(ctx, s.now())
}

func (s *Service) issue(ctx context.Context, user *User, session Session, now time.Time) (*TokenPair, error) {
	tokenID := id.New()
	access, expiresAt, err := s.jwtService.GenerateAccessToken(user, tokenID.String(), now)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	raw, err := generateRandomToken(32)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	if err := s.tokens.Save(ctx, &RefreshToken{
		ID:        tokenID,
		UserID:    user.ID,
		TokenHash: hashToken(raw),
		UserAgent: session.UserAgent,
		IPAddress: session.IPAddress,
		ExpiresAt: now.Add(s.config.RefreshTokenExpiry),
		CreatedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: raw,
		ExpiresAt:    expiresAt,
		TokenType:    "Bearer",
	}, nil
}

// hashToken creates SHA256 hash of token.
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// generateRandomToken generates a random token string.
func generateRandomToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
