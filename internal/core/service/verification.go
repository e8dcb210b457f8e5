package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/clinicore/user-service/internal/core/domain"
)

var (
	errInvalidVerificationToken = domain.NewError(domain.KindValidationFailed, "invalid or expired verification token")
	errInvalidResetToken        = domain.NewError(domain.KindValidationFailed, "invalid or expired reset token")
	errAlreadyVerified          = domain.NewError(domain.KindOperationNotAllowed, "email is already verified")
	errResendTooSoon            = domain.NewError(domain.KindOperationNotAllowed, "a verification email was sent recently, try again later")
)

// VerifyEmail consumes a single-use verification token.
func (s *UserService) VerifyEmail(ctx context.Context, token string) (_ *domain.SanitizedUser, err error) {
	defer func() { observe("verify_email", err) }()

	if token == "" {
		return nil, errInvalidVerificationToken
	}
	u, err := s.users.FindByVerificationToken(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, errInvalidVerificationToken
		}
		return nil, fmt.Errorf("verify email: %w", err)
	}
	if u.IsEmailVerified {
		return nil, errAlreadyVerified
	}
	if u.IsDeleted || u.VerificationExpires == nil || !u.VerificationExpires.After(s.now()) {
		return nil, errInvalidVerificationToken
	}

	u.IsEmailVerified = true
	u.VerificationTokenHash = ""
	u.VerificationExpires = nil
	u.UpdatedAt = s.now()
	if err := s.users.Update(ctx, u); err != nil {
		return nil, wrapStore("verify email", err)
	}

	s.record(ctx, domain.AuditEmailVerified, u.ID, u.ID, nil)
	return domain.Sanitize(u, false), nil
}

// ResendVerificationEmail issues a fresh token, invalidating the previous one.
// Resends for the same user are throttled by the cooldown.
func (s *UserService) ResendVerificationEmail(ctx context.Context, id string) (err error) {
	defer func() { observe("resend_verification", err) }()

	u, err := s.loadLive(ctx, id)
	if err != nil {
		return err
	}
	if u.IsEmailVerified {
		return errAlreadyVerified
	}
	if !s.acquireCooldown(ctx, "verify-resend:"+u.ID) {
		return errResendTooSoon
	}

	raw, tokenHash, err := newToken()
	if err != nil {
		return err
	}
	expires := s.now().Add(s.cfg.VerificationTTL)
	u.VerificationTokenHash = tokenHash
	u.VerificationExpires = &expires
	u.UpdatedAt = s.now()
	if err := s.users.Update(ctx, u); err != nil {
		return wrapStore("resend verification", err)
	}

	s.notify(ctx, notificationFor(domain.NotifyVerification, u, s.link("/verify-email", raw)))
	s.record(ctx, domain.AuditVerificationResent, u.ID, u.ID, nil)
	return nil
}

// RequestPasswordReset mails a reset link. Unknown, deleted and cooling-down
// addresses succeed silently so the endpoint cannot be used to probe accounts.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) (err error) {
	defer func() { observe("request_password_reset", err) }()

	email = domain.NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("request password reset: %w", err)
	}
	if u.IsDeleted || !u.IsActive {
		return nil
	}
	if !s.acquireCooldown(ctx, "password-reset:"+u.ID) {
		s.log.Debug().Str("user_id", u.ID).Msg("password reset requested during cooldown")
		return nil
	}

	raw, tokenHash, err := newToken()
	if err != nil {
		return err
	}
	expires := s.now().Add(s.cfg.ResetTTL)
	u.ResetTokenHash = tokenHash
	u.ResetTokenExpires = &expires
	u.UpdatedAt = s.now()
	if err := s.users.Update(ctx, u); err != nil {
		return wrapStore("request password reset", err)
	}

	s.notify(ctx, notificationFor(domain.NotifyPasswordReset, u, s.link("/reset-password", raw)))
	s.record(ctx, domain.AuditPasswordResetRequest, u.ID, u.ID, nil)
	return nil
}

// ResetPassword consumes a reset token and clears any login lock.
func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) (err error) {
	defer func() { observe("reset_password", err) }()

	if token == "" {
		return errInvalidResetToken
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	u, err := s.users.FindByResetToken(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return errInvalidResetToken
		}
		return fmt.Errorf("reset password: %w", err)
	}
	if u.IsDeleted || u.ResetTokenExpires == nil || !u.ResetTokenExpires.After(s.now()) {
		return errInvalidResetToken
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	u.PasswordHash = hash
	u.ResetTokenHash = ""
	u.ResetTokenExpires = nil
	u.LoginAttempts = 0
	u.LockUntil = nil
	u.UpdatedAt = s.now()
	if err := s.users.Update(ctx, u); err != nil {
		return wrapStore("reset password", err)
	}

	s.record(ctx, domain.AuditPasswordReset, u.ID, u.ID, nil)
	return nil
}

// acquireCooldown fails open when the cooldown store is unavailable.
func (s *UserService) acquireCooldown(ctx context.Context, key string) bool {
	if s.cooldown == nil {
		return true
	}
	ok, err := s.cooldown.Acquire(ctx, key, s.cfg.ResendCooldown)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cooldown check failed, allowing request")
		return true
	}
	return ok
}
