package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/mont-sinai/chorale/internal/model"
	appErr "github.com/mont-sinai/chorale/internal/pkg/errors"
	"github.com/mont-sinai/chorale/internal/pkg/jwt"
	"github.com/mont-sinai/chorale/internal/pkg/password"
	"github.com/mont-sinai/chorale/internal/pkg/timeutil"
)

const (
	signupCodeTTL  = 10 * time.Minute
	resendCodeTTL  = 5 * time.Minute
	resendCooldown = 60 * time.Second
)

type AuthUserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, userID string) (*model.User, error)
	UpdateStatus(ctx context.Context, userID, status string, mtime int64) error
	UpdateRefreshTokenHash(ctx context.Context, userID, hash string, mtime int64) error
}

// CodeStore is the ephemeral OTP/cooldown backend (redis in production,
// miniredis in tests).
type CodeStore interface {
	SaveCode(ctx context.Context, email, code string, ttl time.Duration) error
	GetCode(ctx context.Context, email string) (string, error)
	DeleteCode(ctx context.Context, email string) error
	SetCooldown(ctx context.Context, email string, ttl time.Duration) error
	InCooldown(ctx context.Context, email string) (bool, error)
}

type GenerateCodeFunc func() (string, error)

type AuthService struct {
	users         AuthUserStore
	codes         CodeStore
	sender        EmailSender
	generateCode  GenerateCodeFunc
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAuthService(users AuthUserStore, codes CodeStore, sender EmailSender, generateCode GenerateCodeFunc, accessSecret, refreshSecret []byte, accessTTL, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		users:         users,
		codes:         codes,
		sender:        sender,
		generateCode:  generateCode,
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// LoginResult carries the outcome of Login and Refresh. Pending marks an
// account that authenticated correctly but is not ACTIVE yet: no tokens
// are issued for it.
type LoginResult struct {
	User         *model.User
	AccessToken  string
	RefreshToken string
	Pending      bool
}

// Refresh tokens are stored server-side only as a one-way SHA-256 hash;
// a new login or refresh overwrites it, invalidating the previous token.
func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *AuthService) Signup(ctx context.Context, email, plainPassword, fullName string) error {
	if email == "" || plainPassword == "" {
		return appErr.ErrInvalid
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return appErr.ErrConflict
	} else if !appErr.IsNotFound(err) {
		return err
	}
	hash, err := password.Hash(plainPassword)
	if err != nil {
		return err
	}
	now := timeutil.NowUnix()
	user := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		Role:         model.RoleChoriste,
		Status:       model.StatusPendingEmailVerification,
		Ctime:        now,
		Mtime:        now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return err
	}
	code, err := s.generateCode()
	if err != nil {
		return err
	}
	if err := s.codes.SaveCode(ctx, email, code, signupCodeTTL); err != nil {
		return err
	}
	s.sendCodeEmail(ctx, email, fullName, code, signupCodeTTL)
	return nil
}

// VerifyOTP checks the submitted code against the stored one with exact
// string equality. The account lookup happens before the field-presence
// check: an unknown (or absent) email reports "not found" rather than
// "fields required".
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if email == "" || code == "" {
		return appErr.ErrInvalid
	}
	stored, err := s.codes.GetCode(ctx, email)
	if err != nil {
		return err
	}
	if stored == "" || stored != code {
		return appErr.ErrInvalidCode
	}
	if err := s.codes.DeleteCode(ctx, email); err != nil {
		return err
	}
	return s.users.UpdateStatus(ctx, user.ID, model.StatusPendingMCApproval, timeutil.NowUnix())
}

func (s *AuthService) ResendOTP(ctx context.Context, email string) error {
	if email == "" {
		return appErr.ErrInvalid
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	active, err := s.codes.InCooldown(ctx, email)
	if err != nil {
		return err
	}
	if active {
		return appErr.ErrTooMany
	}
	code, err := s.generateCode()
	if err != nil {
		return err
	}
	if err := s.codes.SaveCode(ctx, email, code, resendCodeTTL); err != nil {
		return err
	}
	if err := s.codes.SetCooldown(ctx, email, resendCooldown); err != nil {
		return err
	}
	s.sendCodeEmail(ctx, email, user.FullName, code, resendCodeTTL)
	return nil
}

func (s *AuthService) Login(ctx context.Context, email, plainPassword string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, appErr.ErrUnauthorized
	}
	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		return nil, appErr.ErrUnauthorized
	}
	if user.Status != model.StatusActive {
		return &LoginResult{User: user, Pending: true}, nil
	}
	return s.issueTokens(ctx, user)
}

// Refresh collapses every failure path to a single unauthorized outcome
// so callers cannot probe whether an account exists.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := jwt.ParseToken(refreshToken, s.refreshSecret)
	if err != nil {
		return nil, appErr.ErrUnauthorized
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, appErr.ErrUnauthorized
	}
	if user.RefreshTokenHash == "" {
		return nil, appErr.ErrUnauthorized
	}
	supplied := hashRefreshToken(refreshToken)
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(user.RefreshTokenHash)) != 1 {
		return nil, appErr.ErrUnauthorized
	}
	return s.issueTokens(ctx, user)
}

func (s *AuthService) issueTokens(ctx context.Context, user *model.User) (*LoginResult, error) {
	accessToken, err := jwt.GenerateAccessToken(user.ID, user.Role, s.accessSecret, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refreshToken, err := jwt.GenerateRefreshToken(user.ID, s.refreshSecret, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateRefreshTokenHash(ctx, user.ID, hashRefreshToken(refreshToken), timeutil.NowUnix()); err != nil {
		return nil, err
	}
	return &LoginResult{User: user, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Validate activates an account. No current-status precondition: an
// already-active account can be re-validated, which re-sends the welcome
// email.
func (s *AuthService) Validate(ctx context.Context, userID string) (*model.User, error) {
	if err := s.users.UpdateStatus(ctx, userID, model.StatusActive, timeutil.NowUnix()); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.sendWelcomeEmail(ctx, user.Email, user.FullName)
	return user, nil
}

func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.users.UpdateRefreshTokenHash(ctx, userID, "", timeutil.NowUnix())
}

// Email delivery is fire-and-forget: a failed send is logged and never
// fails the parent operation.
func (s *AuthService) sendCodeEmail(ctx context.Context, email, fullName, code string, ttl time.Duration) {
	name := fullName
	if name == "" {
		name = "Choriste"
	}
	subject := "Votre code de vérification (OTP)"
	body := fmt.Sprintf("Bonjour %s,\n\nVotre code de vérification est %s. Il expire dans %d minutes.\n\nCHORALE MONT-SINAI CALAVI CENTRE", name, code, int(ttl.Minutes()))
	if err := s.sender.Send(email, subject, body); err != nil {
		logutil.GetLogger(ctx).Error("failed to send otp email", zap.String("email", email), zap.Error(err))
	}
}

func (s *AuthService) sendWelcomeEmail(ctx context.Context, email, fullName string) {
	name := fullName
	if name == "" {
		name = "Choriste"
	}
	subject := "Bienvenue à la CHORALE MONT-SINAI CALAVI CENTRE"
	body := fmt.Sprintf("Bonjour %s,\n\nVotre inscription a été validée avec succès ! Bienvenue sur la plateforme officielle de la CHORALE MONT-SINAI CALAVI CENTRE.", name)
	if err := s.sender.Send(email, subject, body); err != nil {
		logutil.GetLogger(ctx).Error("failed to send welcome email", zap.String("email", email), zap.Error(err))
	}
}
