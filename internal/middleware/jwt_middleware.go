package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/memberdir/admin_api/internal/models"
	"github.com/memberdir/admin_api/internal/utils"
)

// TokenVerifier resolves a bearer token to the account it was issued for.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.AdminAccount, error)
}

// JWTMiddleware authenticates admin requests by bearer token.
type JWTMiddleware struct {
	verifier    TokenVerifier
	rateLimiter *InvalidAuthRateLimiter
}

// NewJWTMiddleware constructs a JWTMiddleware. rateLimiter may be nil.
func NewJWTMiddleware(verifier TokenVerifier, rateLimiter *InvalidAuthRateLimiter) *JWTMiddleware {
	return &JWTMiddleware{verifier: verifier, rateLimiter: rateLimiter}
}

// Handle returns a Gin middleware that stores the verified account in context.
func (m *JWTMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			m.handleAuthError(c, "UNAUTHORIZED", "Missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			m.handleAuthError(c, "UNAUTHORIZED", "Invalid authorization header")
			return
		}

		account, err := m.verifier.Verify(c.Request.Context(), parts[1])
		if err != nil {
			switch {
			case errors.Is(err, utils.ErrTokenExpired):
				m.handleAuthError(c, "TOKEN_EXPIRED", "Token has expired")
			case errors.Is(err, utils.ErrAccountNotFound):
				m.handleAuthError(c, "ACCOUNT_NOT_FOUND", "Account no longer exists")
			case errors.Is(err, utils.ErrInvalidToken):
				m.handleAuthError(c, "INVALID_TOKEN", "Invalid token")
			default:
				log.Error().Err(err).Msg("Token verification failed")
				utils.Error(c, 500, "INTERNAL_ERROR", "Failed to verify token")
				c.Abort()
			}
			return
		}

		c.Set("account", account)
		c.Set("account_id", account.AccountID)
		c.Set("role", string(account.Role))
		c.Next()
	}
}

func (m *JWTMiddleware) handleAuthError(c *gin.Context, code, message string) {
	if m.rateLimiter != nil && !m.rateLimiter.Allow(c.ClientIP()) {
		utils.Error(c, 429, "TOO_MANY_REQUESTS", "Too many invalid authentication attempts")
		c.Abort()
		return
	}

	utils.Error(c, 401, code, message)
	c.Abort()
}
