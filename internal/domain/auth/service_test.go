package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"repopa/internal/core/apperror"
	appctx "repopa/internal/core/context"
	"repopa/internal/core/id"
	"repopa/internal/core/security"
	"repopa/internal/core/tx"
)

type memUsers struct {
	mu   sync.Mutex
	rows map[id.ID]User
}

func newMemUsers() *memUsers { return &memUsers{rows: map[id.ID]User{}} }

func (m *memUsers) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[u.ID] = *u
	return nil
}

func (m *memUsers) GetByID(_ context.Context, userID id.ID) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[userID]
	if !ok {
		return nil, apperror.NewNotFound("user", userID.String())
	}
	return &u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperror.NewNotFound("user", email)
}

func (m *memUsers) Update(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.BumpVersion()
	m.rows[u.ID] = *u
	return nil
}

func (m *memUsers) List(context.Context, UserFilter) ([]*User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*User, 0, len(m.rows))
	for _, u := range m.rows {
		u := u
		out = append(out, &u)
	}
	return out, len(out), nil
}

func (m *memUsers) Exists(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	return err == nil, nil
}

type memTokens struct {
	mu   sync.Mutex
	rows map[string]*RefreshToken
}

func newMemTokens() *memTokens { return &memTokens{rows: map[string]*RefreshToken{}} }

func (m *memTokens) Save(_ context.Context, t *RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.rows[t.TokenHash] = &cp
	return nil
}

func (m *memTokens) GetByHash(_ context.Context, hash string) (*RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[hash]
	if !ok {
		return nil, apperror.NewNotFound("refresh token", "")
	}
	cp := *t
	return &cp, nil
}

func (m *memTokens) Revoke(_ context.Context, tokenID id.ID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, t := range m.rows {
		if t.ID == tokenID {
			t.RevokedAt, t.RevokedReason = &now, reason
		}
	}
	return nil
}

func (m *memTokens) RevokeAllForUser(_ context.Context, userID id.ID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, t := range m.rows {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt, t.RevokedReason = &now, reason
		}
	}
	return nil
}

func (m *memTokens) CleanupExpired(_ context.Context, olderThan time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, t := range m.rows {
		if t.ExpiresAt.Before(olderThan) {
			delete(m.rows, k)
			n++
		}
	}
	return n, nil
}

type fixture struct {
	svc    *Service
	users  *memUsers
	tokens *memTokens
	jwt    *JWTService
	clock  time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:  newMemUsers(),
		tokens: newMemTokens(),
		jwt:    NewJWTService(DefaultJWTConfig("test-secret")),
		clock:  time.Now(),
	}
	cfg := DefaultServiceConfig()
	cfg.BcryptCost = bcrypt.MinCost
	f.svc = NewService(f.users, f.tokens, tx.Passthrough, f.jwt, cfg)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) createEditor(t *testing.T) *User {
	t.Helper()
	u, err := f.svc.CreateUser(context.Background(), CreateUserRequest{
		Email:    " Editor@Morelos.gob.mx ",
		Password: "correct-horse",
		Name:     "Editora",
		Role:     "editor",
	})
	require.NoError(t, err)
	return u
}

func TestService_CreateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.createEditor(t)
	assert.Equal(t, "editor@morelos.gob.mx", u.Email)
	assert.Equal(t, security.RoleEditor, u.Role)
	assert.NotEqual(t, "correct-horse", u.PasswordHash)

	_, err := f.svc.CreateUser(ctx, CreateUserRequest{Email: "EDITOR@morelos.gob.mx", Password: "another-pass", Role: "Lector"})
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))

	_, err = f.svc.CreateUser(ctx, CreateUserRequest{Email: "x@y.mx", Password: "long-enough", Role: "Root"})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.svc.CreateUser(ctx, CreateUserRequest{Email: "x@y.mx", Password: "short", Role: "Lector"})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.svc.CreateUser(ctx, CreateUserRequest{Email: "not-an-email", Password: "long-enough", Role: "Lector"})
	assert.True(t, apperror.IsValidation(err))
}

func TestService_LoginIssuesTokens(t *testing.T) {
	f := newFixture(t)
	u := f.createEditor(t)

	pair, got, err := f.svc.Login(context.Background(),
		Credentials{Email: "editor@morelos.gob.mx", Password: "correct-horse"},
		Session{UserAgent: "test", IPAddress: "127.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "Bearer", pair.TokenType)

	claims, err := f.jwt.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), claims.UserID)
	assert.Equal(t, string(security.RoleEditor), claims.Role)

	// only the hash is stored
	_, ok := f.tokens.rows[pair.RefreshToken]
	assert.False(t, ok)
	_, ok = f.tokens.rows[hashToken(pair.RefreshToken)]
	assert.True(t, ok)
}

func TestService_LoginUnknownEmail(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.Login(context.Background(), Credentials{Email: "nobody@x.mx", Password: "whatever"}, Session{})
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
}

func TestService_Lockout(t *testing.T) {
	f := newFixture(t)
	f.createEditor(t)
	ctx := context.Background()
	bad := Credentials{Email: "editor@morelos.gob.mx", Password: "wrong"}
	good := Credentials{Email: "editor@morelos.gob.mx", Password: "correct-horse"}

	for i := 0; i < 5; i++ {
		_, _, err := f.svc.Login(ctx, bad, Session{})
		require.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
	}

	_, _, err := f.svc.Login(ctx, good, Session{})
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden), "locked account must refuse a correct password")

	f.clock = f.clock.Add(15*time.Minute + time.Second)
	_, u, err := f.svc.Login(ctx, good, Session{})
	require.NoError(t, err)
	assert.Zero(t, u.FailedLoginAttempts)
	assert.Nil(t, u.LockedUntil)
}

func TestService_RefreshIsSingleUse(t *testing.T) {
	f := newFixture(t)
	f.createEditor(t)
	ctx := context.Background()

	pair, _, err := f.svc.Login(ctx, Credentials{Email: "editor@morelos.gob.mx", Password: "correct-horse"}, Session{})
	require.NoError(t, err)

	next, err := f.svc.Refresh(ctx, pair.RefreshToken, Session{})
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	_, err = f.svc.Refresh(ctx, pair.RefreshToken, Session{})
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))

	_, err = f.svc.Refresh(ctx, "garbage", Session{})
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
}

func TestService_LogoutRevokesRefreshTokens(t *testing.T) {
	f := newFixture(t)
	u := f.createEditor(t)
	ctx := context.Background()

	pair, _, err := f.svc.Login(ctx, Credentials{Email: "editor@morelos.gob.mx", Password: "correct-horse"}, Session{})
	require.NoError(t, err)
	require.NoError(t, f.svc.Logout(ctx, u.ID))

	_, err = f.svc.Refresh(ctx, pair.RefreshToken, Session{})
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
}

func TestService_Me(t *testing.T) {
	f := newFixture(t)
	u := f.createEditor(t)

	_, err := f.svc.Me(context.Background())
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))

	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: u.ID.String()})
	me, err := f.svc.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, u.Email, me.Email)
}

func TestService_EnsureAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, created, err := f.svc.EnsureAdmin(ctx, "admin@morelos.gob.mx", "admin-password", "Admin")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, security.RoleAdmin, u.Role)

	again, created, err := f.svc.EnsureAdmin(ctx, "ADMIN@morelos.gob.mx", "other-password", "Admin")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, u.ID, again.ID)
}

func TestJWTService_Rejects(t *testing.T) {
	u := NewUser("a@b.mx", "", "A", security.RoleReader)
	svc := NewJWTService(DefaultJWTConfig("secret"))

	expired, _, err := svc.GenerateAccessToken(u, "", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, err = svc.ValidateToken(expired)
	assert.Error(t, err)

	other := NewJWTService(DefaultJWTConfig("other-secret"))
	token, _, err := other.GenerateAccessToken(u, "", time.Now())
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	assert.Error(t, err)

	token, _, err = svc.GenerateAccessToken(u, "sid", time.Now())
	require.NoError(t, err)
	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "sid", claims.SessionID)
}
