package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/mont-sinai/chorale/internal/model"
	"github.com/mont-sinai/chorale/internal/otp"
	appErr "github.com/mont-sinai/chorale/internal/pkg/errors"
	"github.com/mont-sinai/chorale/internal/pkg/jwt"
)

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*model.User{}}
}

func (s *fakeUserStore) Create(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return appErr.ErrConflict
		}
	}
	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (s *fakeUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, appErr.ErrNotFound
}

func (s *fakeUserStore) GetByID(ctx context.Context, userID string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *fakeUserStore) UpdateStatus(ctx context.Context, userID, status string, mtime int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return appErr.ErrNotFound
	}
	u.Status = status
	u.Mtime = mtime
	return nil
}

func (s *fakeUserStore) UpdateRefreshTokenHash(ctx context.Context, userID, hash string, mtime int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return appErr.ErrNotFound
	}
	u.RefreshTokenHash = hash
	u.Mtime = mtime
	return nil
}

type recordingSender struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (s *recordingSender) Send(to, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return context.DeadlineExceeded
	}
	s.sent = append(s.sent, body)
	return nil
}

func (s *recordingSender) lastBody() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return ""
	}
	return s.sent[len(s.sent)-1]
}

type authFixture struct {
	svc    *AuthService
	users  *fakeUserStore
	codes  *otp.Store
	sender *recordingSender
	mr     *miniredis.Miniredis
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	users := newFakeUserStore()
	sender := &recordingSender{}
	codes := otp.NewStore(client)
	svc := NewAuthService(
		users,
		codes,
		sender,
		func() (string, error) { return "654321", nil },
		[]byte("access-secret"),
		[]byte("refresh-secret"),
		15*time.Minute,
		168*time.Hour,
	)
	return &authFixture{svc: svc, users: users, codes: codes, sender: sender, mr: mr}
}

func (f *authFixture) signup(t *testing.T, email string) *model.User {
	t.Helper()
	require.NoError(t, f.svc.Signup(context.Background(), email, "secret123", "Jean Degbo"))
	user, err := f.users.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	return user
}

func TestSignupCreatesPendingAccountAndStoresCode(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user := f.signup(t, "jean@example.com")
	require.Equal(t, model.RoleChoriste, user.Role)
	require.Equal(t, model.StatusPendingEmailVerification, user.Status)
	require.NotEqual(t, "secret123", user.PasswordHash)

	code, err := f.codes.GetCode(ctx, "jean@example.com")
	require.NoError(t, err)
	require.Equal(t, "654321", code)
	require.Contains(t, f.sender.lastBody(), "654321")
}

func TestSignupDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t, "jean@example.com")
	err := f.svc.Signup(context.Background(), "jean@example.com", "other", "Autre")
	require.ErrorIs(t, err, appErr.ErrConflict)
}

func TestSignupMissingFields(t *testing.T) {
	f := newAuthFixture(t)
	require.ErrorIs(t, f.svc.Signup(context.Background(), "", "secret", ""), appErr.ErrInvalid)
	require.ErrorIs(t, f.svc.Signup(context.Background(), "a@b.c", "", ""), appErr.ErrInvalid)
}

func TestSignupSendFailureDoesNotFailSignup(t *testing.T) {
	f := newAuthFixture(t)
	f.sender.fail = true
	require.NoError(t, f.svc.Signup(context.Background(), "jean@example.com", "secret123", "Jean"))
}

func TestVerifyOTPPromotesAccountAndConsumesCode(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.signup(t, "jean@example.com")

	require.NoError(t, f.svc.VerifyOTP(ctx, "jean@example.com", "654321"))
	updated, err := f.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusPendingMCApproval, updated.Status)

	// single use: the same code no longer verifies
	err = f.svc.VerifyOTP(ctx, "jean@example.com", "654321")
	require.ErrorIs(t, err, appErr.ErrInvalidCode)
}

func TestVerifyOTPUnknownEmailBeforeFieldCheck(t *testing.T) {
	f := newAuthFixture(t)
	// absent email resolves as unknown account, not as a missing field
	err := f.svc.VerifyOTP(context.Background(), "", "654321")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestVerifyOTPMissingCode(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t, "jean@example.com")
	err := f.svc.VerifyOTP(context.Background(), "jean@example.com", "")
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestVerifyOTPWrongCode(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t, "jean@example.com")
	err := f.svc.VerifyOTP(context.Background(), "jean@example.com", "000000")
	require.ErrorIs(t, err, appErr.ErrInvalidCode)
}

func TestVerifyOTPExpiredCode(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t, "jean@example.com")
	f.mr.FastForward(11 * time.Minute)
	err := f.svc.VerifyOTP(context.Background(), "jean@example.com", "654321")
	require.ErrorIs(t, err, appErr.ErrInvalidCode)
}

func TestResendOTPCooldown(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.signup(t, "jean@example.com")

	require.NoError(t, f.svc.ResendOTP(ctx, "jean@example.com"))
	require.ErrorIs(t, f.svc.ResendOTP(ctx, "jean@example.com"), appErr.ErrTooMany)

	f.mr.FastForward(61 * time.Second)
	require.NoError(t, f.svc.ResendOTP(ctx, "jean@example.com"))
}

func TestResendOTPUnknownAccount(t *testing.T) {
	f := newAuthFixture(t)
	require.ErrorIs(t, f.svc.ResendOTP(context.Background(), "nobody@example.com"), appErr.ErrNotFound)
	require.ErrorIs(t, f.svc.ResendOTP(context.Background(), ""), appErr.ErrInvalid)
}

func TestLoginLifecycle(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.signup(t, "jean@example.com")

	// unknown email and bad password are both unauthorized
	_, err := f.svc.Login(ctx, "nobody@example.com", "secret123")
	require.ErrorIs(t, err, appErr.ErrUnauthorized)
	_, err = f.svc.Login(ctx, "jean@example.com", "wrong")
	require.ErrorIs(t, err, appErr.ErrUnauthorized)

	// correct credentials on a pending account: status report, no tokens
	result, err := f.svc.Login(ctx, "jean@example.com", "secret123")
	require.NoError(t, err)
	require.True(t, result.Pending)
	require.Empty(t, result.AccessToken)
	require.Empty(t, result.RefreshToken)

	require.NoError(t, f.svc.VerifyOTP(ctx, "jean@example.com", "654321"))
	_, err = f.svc.Validate(ctx, user.ID)
	require.NoError(t, err)

	result, err = f.svc.Login(ctx, "jean@example.com", "secret123")
	require.NoError(t, err)
	require.False(t, result.Pending)
	require.NotEmpty(t, result.AccessToken)
	require.NotEmpty(t, result.RefreshToken)

	claims, err := jwt.ParseToken(result.AccessToken, []byte("access-secret"))
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)
	require.Equal(t, model.RoleChoriste, claims.Role)

	stored, err := f.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, hashRefreshToken(result.RefreshToken), stored.RefreshTokenHash)
}

func activeLogin(t *testing.T, f *authFixture, email string) (*model.User, *LoginResult) {
	t.Helper()
	ctx := context.Background()
	user := f.signup(t, email)
	require.NoError(t, f.svc.VerifyOTP(ctx, email, "654321"))
	_, err := f.svc.Validate(ctx, user.ID)
	require.NoError(t, err)
	result, err := f.svc.Login(ctx, email, "secret123")
	require.NoError(t, err)
	return user, result
}

func TestRefreshRotatesToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user, login := activeLogin(t, f, "jean@example.com")

	refreshed, err := f.svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, refreshed.AccessToken)
	require.NotEmpty(t, refreshed.RefreshToken)
	require.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	stored, err := f.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, hashRefreshToken(refreshed.RefreshToken), stored.RefreshTokenHash)

	// the rotated-out token is rejected
	_, err = f.svc.Refresh(ctx, login.RefreshToken)
	require.ErrorIs(t, err, appErr.ErrUnauthorized)
}

func TestRefreshFailuresAreUniform(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user, login := activeLogin(t, f, "jean@example.com")

	_, err := f.svc.Refresh(ctx, "not-a-token")
	require.ErrorIs(t, err, appErr.ErrUnauthorized)

	// valid signature but cleared stored hash
	require.NoError(t, f.svc.Logout(ctx, user.ID))
	_, err = f.svc.Refresh(ctx, login.RefreshToken)
	require.ErrorIs(t, err, appErr.ErrUnauthorized)

	// token signed for an account that no longer exists
	orphan, err := jwt.GenerateRefreshToken("missing-user", []byte("refresh-secret"), time.Hour)
	require.NoError(t, err)
	_, err = f.svc.Refresh(ctx, orphan)
	require.ErrorIs(t, err, appErr.ErrUnauthorized)
}

func TestValidateSendsWelcomeEmail(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.signup(t, "jean@example.com")

	activated, err := f.svc.Validate(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusActive, activated.Status)
	require.Contains(t, f.sender.lastBody(), "Bienvenue")

	// idempotent: re-validating an active account keeps it active
	again, err := f.svc.Validate(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusActive, again.Status)
}

func TestLogoutClearsRefreshHash(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user, _ := activeLogin(t, f, "jean@example.com")

	require.NoError(t, f.svc.Logout(ctx, user.ID))
	stored, err := f.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Empty(t, stored.RefreshTokenHash)
}
