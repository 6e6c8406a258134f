package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/memberdir/admin_api/internal/models"
	"github.com/memberdir/admin_api/internal/utils"
)

// ResetPasswordInput carries a password reset submission.
type ResetPasswordInput struct {
	Email           string
	Code            string
	NewPassword     string
	ConfirmPassword string
}

// PasswordResetService runs the forgot-password flow: a six digit code is
// emailed to the account and exchanged for a new password.
type PasswordResetService struct {
	accounts AccountStore
	resets   ResetStore
	notifier Notifier
	throttle ResetThrottle
	now      Clock
	generate func() (string, error)
}

// NewPasswordResetService creates a PasswordResetService. throttle may be nil.
func NewPasswordResetService(accounts AccountStore, resets ResetStore, notifier Notifier, throttle ResetThrottle) *PasswordResetService {
	return &PasswordResetService{
		accounts: accounts,
		resets:   resets,
		notifier: notifier,
		throttle: throttle,
		now:      time.Now,
		generate: utils.GenerateOTP,
	}
}

// WithClock replaces the time source.
func (s *PasswordResetService) WithClock(now Clock) *PasswordResetService {
	s.now = now
	return s
}

// RequestReset issues a fresh code for the account registered under email and
// emails it. Unknown addresses and internal lookup failures return nil so
// callers cannot probe which emails have accounts. If the email cannot be
// delivered no code is left behind, the cooldown is lifted and
// ErrNotificationFailed is returned.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	account, err := s.accounts.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Info().Msg("Password reset requested for unknown email")
		} else {
			log.Error().Err(err).Msg("Password reset account lookup failed")
		}
		return nil
	}

	cooling := false
	if s.throttle != nil {
		allowed, err := s.throttle.Allow(ctx, account.Email)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("account_id", account.AccountID).Msg("Reset throttle unavailable")
		case !allowed:
			// Inside the cooldown no email goes out, but a newer request still
			// voids the outstanding code.
			if err := s.resets.Revoke(ctx, account.AccountID); err != nil && !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("revoke codes: %w", err)
			}
			log.Info().Str("account_id", account.AccountID).Msg("Password reset throttled, outstanding code revoked")
			return nil
		default:
			cooling = true
		}
	}

	err = s.issue(ctx, account)
	if err != nil && cooling {
		if relErr := s.throttle.Release(ctx, account.Email); relErr != nil {
			log.Warn().Err(relErr).Str("account_id", account.AccountID).Msg("Failed to release reset cooldown")
		}
	}
	switch {
	case err == nil:
		log.Info().Str("account_id", account.AccountID).Msg("Password reset code issued")
		return nil
	case errors.Is(err, utils.ErrNotificationFailed):
		log.Error().Err(err).Str("account_id", account.AccountID).Msg("Password reset email failed")
		return utils.ErrNotificationFailed
	case errors.Is(err, sql.ErrNoRows):
		return nil
	default:
		return err
	}
}

// issue stores a fresh code for account and emails it. The code is committed
// only if the email is accepted.
func (s *PasswordResetService) issue(ctx context.Context, account *models.AdminAccount) error {
	code, err := s.generate()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	otp := &models.PasswordResetOTP{
		AccountID: account.AccountID,
		Code:      code,
		CreatedAt: s.now(),
	}
	err = s.resets.Issue(ctx, otp, func(ctx context.Context) error {
		if err := s.notifier.SendResetCode(ctx, account.Email, code); err != nil {
			return fmt.Errorf("%w: %v", utils.ErrNotificationFailed, err)
		}
		return nil
	})
	if err != nil && !errors.Is(err, utils.ErrNotificationFailed) && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("issue code: %w", err)
	}
	return err
}

// VerifyCode checks that code is a live reset code for email without
// consuming it.
func (s *PasswordResetService) VerifyCode(ctx context.Context, email, code string) error {
	account, err := s.lookup(ctx, email, code)
	if err != nil {
		return err
	}

	otp, err := s.resets.FindUnused(ctx, account.AccountID, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return utils.ErrOTPInvalid
		}
		return fmt.Errorf("find code: %w", err)
	}
	if otp.Expired(s.now()) {
		return utils.ErrOTPExpired
	}
	return nil
}

// ResetPassword exchanges a live code for a new password. On success every
// reset code of the account is removed.
func (s *PasswordResetService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	if in.NewPassword != in.ConfirmPassword {
		return utils.ErrPasswordMismatch
	}

	account, err := s.lookup(ctx, in.Email, in.Code)
	if err != nil {
		return err
	}

	hash, err := hashPassword(in.NewPassword)
	if err != nil {
		return err
	}

	err = s.resets.Consume(ctx, account.AccountID, in.Code, hash, func(otp *models.PasswordResetOTP) error {
		if otp.Expired(s.now()) {
			return utils.ErrOTPExpired
		}
		return nil
	})
	switch {
	case err == nil:
		log.Info().Str("account_id", account.AccountID).Msg("Password reset completed")
		return nil
	case errors.Is(err, utils.ErrOTPExpired):
		return utils.ErrOTPExpired
	case errors.Is(err, sql.ErrNoRows):
		return utils.ErrOTPInvalid
	default:
		return fmt.Errorf("consume code: %w", err)
	}
}

// lookup resolves the account for a code submission. Unknown emails and
// malformed codes are reported as ErrOTPInvalid.
func (s *PasswordResetService) lookup(ctx context.Context, email, code string) (*models.AdminAccount, error) {
	if !utils.IsOTPFormat(code) {
		return nil, utils.ErrOTPInvalid
	}
	account, err := s.accounts.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrOTPInvalid
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	return account, nil
}
