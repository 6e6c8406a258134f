package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/memberdir/admin_api/internal/models"
)

const adminAccountColumns = `account_id, email, name, password_hash, img_path, role, created_at, updated_at`

// AdminAccountRepository provides data access methods for admin_accounts table.
type AdminAccountRepository struct {
	db *sqlx.DB
}

// NewAdminAccountRepository creates a new AdminAccountRepository.
func NewAdminAccountRepository(db *sqlx.DB) *AdminAccountRepository {
	return &AdminAccountRepository{db: db}
}

// GetByEmail finds an account by email, case-insensitively.
func (r *AdminAccountRepository) GetByEmail(ctx context.Context, email string) (*models.AdminAccount, error) {
	var account models.AdminAccount
	err := r.db.GetContext(ctx, &account, `
		SELECT `+adminAccountColumns+`
		FROM admin_accounts
		WHERE LOWER(email) = LOWER($1)
	`, email)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByID finds an account by its identifier.
func (r *AdminAccountRepository) GetByID(ctx context.Context, accountID string) (*models.AdminAccount, error) {
	var account models.AdminAccount
	err := r.db.GetContext(ctx, &account, `
		SELECT `+adminAccountColumns+`
		FROM admin_accounts
		WHERE account_id = $1
	`, accountID)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// List returns every account, newest first.
func (r *AdminAccountRepository) List(ctx context.Context) ([]*models.AdminAccount, error) {
	var accounts []*models.AdminAccount
	err := r.db.SelectContext(ctx, &accounts, `
		SELECT `+adminAccountColumns+`
		FROM admin_accounts
		ORDER BY created_at DESC
	`)
	return accounts, err
}

// Count returns the number of accounts.
func (r *AdminAccountRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM admin_accounts`)
	return n, err
}

// Create inserts account. A duplicate email yields ErrDuplicate.
func (r *AdminAccountRepository) Create(ctx context.Context, account *models.AdminAccount) error {
	query := `
		INSERT INTO admin_accounts (account_id, email, name, password_hash, img_path, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		account.AccountID,
		account.Email,
		account.Name,
		account.PasswordHash,
		account.ImgPath,
		account.Role,
	).Scan(&account.CreatedAt, &account.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// UpdateProfile saves the editable profile fields of account.
func (r *AdminAccountRepository) UpdateProfile(ctx context.Context, account *models.AdminAccount) error {
	query := `
		UPDATE admin_accounts
		SET name = $1, img_path = $2, updated_at = NOW()
		WHERE account_id = $3
		RETURNING updated_at
	`
	return r.db.QueryRowxContext(ctx, query, account.Name, account.ImgPath, account.AccountID).
		Scan(&account.UpdatedAt)
}

// ErrDuplicate is returned when an insert violates a unique constraint.
var ErrDuplicate = errors.New("duplicate key")

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// IsNoRows reports whether err means the row does not exist.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
