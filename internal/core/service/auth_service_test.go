package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/clinicore/user-service/internal/core/domain"
)

func newAuthHarness(t *testing.T) (*AuthService, *stubUserRepo, *stubAudit, string) {
	t.Helper()
	repo := newStubUserRepo()
	audit := &stubAudit{}
	hash, err := hashPassword(goodPassword)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	id := repo.seed(&domain.User{Email: "carol@clinic.test", PasswordHash: hash, Role: domain.RoleDoctor})
	return NewAuthService(repo, audit, "secret", time.Hour, zerolog.Nop()), repo, audit, id
}

func TestAuthService_Login_Success(t *testing.T) {
	svc, repo, audit, id := newAuthHarness(t)

	token, user, err := svc.Login(context.Background(), "Carol@Clinic.test", goodPassword)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token, got empty")
	}
	if user == nil || user.ID != id {
		t.Fatalf("unexpected user: %+v", user)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims["role"] != string(domain.RoleDoctor) || claims["sub"] != id {
		t.Fatalf("unexpected claims: %v", claims)
	}
	if repo.get(id).LastLoginAt == nil {
		t.Fatalf("expected last login to be recorded")
	}
	if actions := audit.actions(); len(actions) != 1 || actions[0] != domain.AuditUserLoggedIn {
		t.Fatalf("unexpected audit trail: %v", actions)
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	svc, repo, _, id := newAuthHarness(t)

	if _, _, err := svc.Login(context.Background(), "carol@clinic.test", "badpass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if got := repo.get(id).LoginAttempts; got != 1 {
		t.Fatalf("expected 1 failed attempt, got %d", got)
	}
}

func TestAuthService_Login_NoEnumeration(t *testing.T) {
	svc, repo, _, id := newAuthHarness(t)

	if _, _, err := svc.Login(context.Background(), "ghost@clinic.test", "pass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}

	u := repo.get(id)
	u.SetStatus(domain.StatusInactive)
	if err := repo.Update(context.Background(), u); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "carol@clinic.test", goodPassword); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("inactive account: expected ErrInvalidCredentials, got %v", err)
	}

	u = repo.get(id)
	u.SetStatus(domain.StatusActive)
	u.IsDeleted = true
	if err := repo.Update(context.Background(), u); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "carol@clinic.test", goodPassword); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("deleted account: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_LocksAfterRepeatedFailures(t *testing.T) {
	svc, repo, _, id := newAuthHarness(t)
	ctx := context.Background()

	for i := 0; i < maxLoginAttempts; i++ {
		_, _, _ = svc.Login(ctx, "carol@clinic.test", "wrong")
	}
	if repo.get(id).LockUntil == nil {
		t.Fatalf("expected account to be locked")
	}
	if _, _, err := svc.Login(ctx, "carol@clinic.test", goodPassword); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("locked account should reject the right password, got %v", err)
	}

	svc.now = func() time.Time { return time.Now().UTC().Add(lockDuration + time.Minute) }
	if _, _, err := svc.Login(ctx, "carol@clinic.test", goodPassword); err != nil {
		t.Fatalf("lock should expire: %v", err)
	}
	if u := repo.get(id); u.LockUntil != nil || u.LoginAttempts != 0 {
		t.Fatalf("successful login should clear the lock: %+v", u)
	}
}
