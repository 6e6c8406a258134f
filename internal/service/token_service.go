package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/memberdir/admin_api/internal/models"
	"github.com/memberdir/admin_api/internal/utils"
)

// TokenService issues and verifies session tokens.
type TokenService struct {
	secret   []byte
	accounts AccountStore
	now      Clock
}

// NewTokenService creates a TokenService signing with secret.
func NewTokenService(secret string, accounts AccountStore) *TokenService {
	return &TokenService{
		secret:   []byte(secret),
		accounts: accounts,
		now:      time.Now,
	}
}

// WithClock replaces the time source.
func (s *TokenService) WithClock(now Clock) *TokenService {
	s.now = now
	return s
}

// Issue signs a token for account and returns it with its expiry.
func (s *TokenService) Issue(account *models.AdminAccount) (string, time.Time, error) {
	issuedAt := s.now().Truncate(time.Second)
	token, err := utils.GenerateJWT(s.secret, account.AccountID, account.Email, string(account.Role), issuedAt)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, issuedAt.Add(utils.TokenTTL), nil
}

// Verify checks token and resolves the account it names. The returned
// account, including its role, is read from the store rather than the token.
func (s *TokenService) Verify(ctx context.Context, token string) (*models.AdminAccount, error) {
	claims, err := utils.ValidateJWT(s.secret, token, s.now())
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrAccountNotFound
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	return account, nil
}
