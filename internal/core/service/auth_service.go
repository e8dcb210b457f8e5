package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/user-service/internal/core/domain"
	"github.com/clinicore/user-service/internal/core/ports"
	"github.com/clinicore/user-service/internal/pkg/metrics"
)

const (
	maxLoginAttempts = 5
	lockDuration     = 15 * time.Minute
)

var errAccountLocked = domain.NewError(domain.KindInvalidCredentials,
	"too many failed login attempts, try again later")

// AuthService implements login.
type AuthService struct {
	users     ports.UserRepository
	audit     ports.AuditStore
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

var _ ports.AuthService = (*AuthService)(nil)

func NewAuthService(users ports.UserRepository, audit ports.AuditStore, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		users:     users,
		audit:     audit,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Login verifies credentials and returns a signed token. Unknown, deleted and
// inactive accounts are indistinguishable from a wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (_ string, _ *domain.SanitizedUser, err error) {
	defer func() { metrics.LoginAttemptsTotal.WithLabelValues(resultLabel(err)).Inc() }()

	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("login: %w", err)
	}
	if user.IsDeleted || !user.IsActive {
		return "", nil, domain.ErrInvalidCredentials
	}

	now := s.now()
	if user.IsLocked(now) {
		return "", nil, errAccountLocked
	}

	if !checkPassword(user.PasswordHash, password) {
		s.registerFailure(ctx, user, now)
		return "", nil, domain.ErrInvalidCredentials
	}

	user.LoginAttempts = 0
	user.LockUntil = nil
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to record login")
	}

	token, err := s.generateToken(user, now)
	if err != nil {
		return "", nil, fmt.Errorf("login: sign token: %w", err)
	}

	entry := &domain.AuditEntry{
		ID:        uuid.NewString(),
		Action:    domain.AuditUserLoggedIn,
		ActorID:   user.ID,
		TargetID:  user.ID,
		CreatedAt: now,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("audit append failed")
	}

	return token, domain.Sanitize(user, false), nil
}

func (s *AuthService) registerFailure(ctx context.Context, user *domain.User, now time.Time) {
	user.LoginAttempts++
	if user.LoginAttempts >= maxLoginAttempts {
		until := now.Add(lockDuration)
		user.LockUntil = &until
		user.LoginAttempts = 0
		s.log.Warn().Str("user_id", user.ID).Time("lock_until", until).Msg("account locked after failed logins")
	}
	if err := s.users.Update(ctx, user); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to record login failure")
	}
}

func (s *AuthService) generateToken(user *domain.User, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
