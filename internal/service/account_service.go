package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/memberdir/admin_api/internal/models"
	"github.com/memberdir/admin_api/internal/repository"
	"github.com/memberdir/admin_api/internal/utils"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string                `json:"token"`
	ExpiresAt time.Time             `json:"expires_at"`
	Account   models.AccountSummary `json:"account"`
}

// CreateAccountInput carries the fields of a new admin account.
type CreateAccountInput struct {
	Email           string
	Name            string
	Password        string
	ConfirmPassword string
	Role            models.Role
}

// UpdateProfileInput carries profile changes. Nil fields are left unchanged.
type UpdateProfileInput struct {
	Name    *string
	ImgPath *string
}

// AccountService manages admin accounts and logins.
type AccountService struct {
	accounts AccountStore
	tokens   *TokenService
}

// NewAccountService creates an AccountService.
func NewAccountService(accounts AccountStore, tokens *TokenService) *AccountService {
	return &AccountService{accounts: accounts, tokens: tokens}
}

// Login checks the password of the account registered under email and
// returns a session token for it.
func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	account, err := s.accounts.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn().Str("email", email).Msg("Login failed: unknown email")
			return nil, utils.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		log.Warn().Str("account_id", account.AccountID).Msg("Login failed: password mismatch")
		return nil, utils.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(account)
	if err != nil {
		return nil, err
	}

	log.Info().Str("account_id", account.AccountID).Str("role", string(account.Role)).Msg("Login successful")
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Account: account.Summary()}, nil
}

// CreateAccount registers a new admin account.
func (s *AccountService) CreateAccount(ctx context.Context, in CreateAccountInput) (*models.AdminAccount, error) {
	if in.Password != in.ConfirmPassword {
		return nil, utils.ErrPasswordMismatch
	}
	if !in.Role.Valid() {
		return nil, utils.ErrInvalidRole
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	account := &models.AdminAccount{
		AccountID:    uuid.NewString(),
		Email:        normalizeEmail(in.Email),
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		Role:         in.Role,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, utils.ErrEmailExists
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	log.Info().Str("account_id", account.AccountID).Str("role", string(account.Role)).Msg("Admin account created")
	return account, nil
}

// ListAccounts returns every admin account.
func (s *AccountService) ListAccounts(ctx context.Context) ([]models.AccountSummary, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.AccountSummary, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, a.Summary())
	}
	return out, nil
}

// Profile returns the account accountID.
func (s *AccountService) Profile(ctx context.Context, accountID string) (*models.AdminAccount, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

// UpdateProfile applies in to the account accountID.
func (s *AccountService) UpdateProfile(ctx context.Context, accountID string, in UpdateProfileInput) (*models.AdminAccount, error) {
	account, err := s.Profile(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		account.Name = strings.TrimSpace(*in.Name)
	}
	if in.ImgPath != nil {
		if *in.ImgPath == "" {
			account.ImgPath = nil
		} else {
			account.ImgPath = in.ImgPath
		}
	}

	if err := s.accounts.UpdateProfile(ctx, account); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

// EnsureBootstrapAdmin creates a superadmin with the given credentials unless
// an account with that email already exists.
func (s *AccountService) EnsureBootstrapAdmin(ctx context.Context, email, password, name string) error {
	_, err := s.accounts.GetByEmail(ctx, normalizeEmail(email))
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lookup bootstrap admin: %w", err)
	}

	_, err = s.CreateAccount(ctx, CreateAccountInput{
		Email:           email,
		Name:            name,
		Password:        password,
		ConfirmPassword: password,
		Role:            models.RoleSuperAdmin,
	})
	if errors.Is(err, utils.ErrEmailExists) {
		return nil
	}
	return err
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
