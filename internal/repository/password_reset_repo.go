package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/memberdir/admin_api/internal/models"
)

// PasswordResetRepository stores password reset codes. Every multi-statement
// operation runs in one transaction holding the owning account's row lock, so
// concurrent requests for the same account are serialized.
type PasswordResetRepository struct {
	db *sqlx.DB
}

// NewPasswordResetRepository creates a new PasswordResetRepository.
func NewPasswordResetRepository(db *sqlx.DB) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

// Issue replaces every unused code of otp.AccountID with otp, then calls
// deliver. The insert is committed only if deliver succeeds.
func (r *PasswordResetRepository) Issue(ctx context.Context, otp *models.PasswordResetOTP, deliver func(context.Context) error) error {
	return r.withAccountLock(ctx, otp.AccountID, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM password_reset_otps
			WHERE account_id = $1 AND used = FALSE
		`, otp.AccountID); err != nil {
			return fmt.Errorf("delete unused codes: %w", err)
		}

		if err := tx.QueryRowxContext(ctx, `
			INSERT INTO password_reset_otps (account_id, code, used, created_at)
			VALUES ($1, $2, FALSE, $3)
			RETURNING id
		`, otp.AccountID, otp.Code, otp.CreatedAt).Scan(&otp.ID); err != nil {
			return fmt.Errorf("insert code: %w", err)
		}

		return deliver(ctx)
	})
}

// Revoke deletes every unused code of accountID.
func (r *PasswordResetRepository) Revoke(ctx context.Context, accountID string) error {
	return r.withAccountLock(ctx, accountID, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM password_reset_otps
			WHERE account_id = $1 AND used = FALSE
		`, accountID); err != nil {
			return fmt.Errorf("delete unused codes: %w", err)
		}
		return nil
	})
}

// FindUnused returns the newest unused code matching (accountID, code).
func (r *PasswordResetRepository) FindUnused(ctx context.Context, accountID, code string) (*models.PasswordResetOTP, error) {
	var otp models.PasswordResetOTP
	err := r.db.GetContext(ctx, &otp, `
		SELECT id, account_id, code, used, created_at
		FROM password_reset_otps
		WHERE account_id = $1 AND code = $2 AND used = FALSE
		ORDER BY created_at DESC
		LIMIT 1
	`, accountID, code)
	if err != nil {
		return nil, err
	}
	return &otp, nil
}

// Consume validates the unused code with check, then sets the account's
// password hash, marks the code used and removes every code of the account.
// Nothing is committed if the code is missing or check fails.
func (r *PasswordResetRepository) Consume(ctx context.Context, accountID, code, passwordHash string, check func(*models.PasswordResetOTP) error) error {
	return r.withAccountLock(ctx, accountID, func(tx *sqlx.Tx) error {
		var otp models.PasswordResetOTP
		if err := tx.GetContext(ctx, &otp, `
			SELECT id, account_id, code, used, created_at
			FROM password_reset_otps
			WHERE account_id = $1 AND code = $2 AND used = FALSE
			ORDER BY created_at DESC
			LIMIT 1
		`, accountID, code); err != nil {
			return err
		}

		if err := check(&otp); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE admin_accounts
			SET password_hash = $1, updated_at = NOW()
			WHERE account_id = $2
		`, passwordHash, accountID); err != nil {
			return fmt.Errorf("update password: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE password_reset_otps SET used = TRUE WHERE id = $1
		`, otp.ID); err != nil {
			return fmt.Errorf("mark code used: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			DELETE FROM password_reset_otps WHERE account_id = $1
		`, accountID); err != nil {
			return fmt.Errorf("delete codes: %w", err)
		}
		return nil
	})
}

// withAccountLock runs fn in a transaction after locking the account row.
// It returns sql.ErrNoRows if the account does not exist.
func (r *PasswordResetRepository) withAccountLock(ctx context.Context, accountID string, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var locked string
	if err := tx.GetContext(ctx, &locked, `
		SELECT account_id FROM admin_accounts WHERE account_id = $1 FOR UPDATE
	`, accountID); err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
