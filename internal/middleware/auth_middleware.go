package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/memberdir/admin_api/internal/models"
	"github.com/memberdir/admin_api/internal/utils"
)

// RequireScope rejects requests whose account role may not call the route's
// method on scope. It must run after JWTMiddleware.
func RequireScope(scope models.Scope) gin.HandlerFunc {
	return func(c *gin.Context) {
		account := GetAccount(c)
		if account == nil {
			utils.Error(c, 401, "UNAUTHORIZED", "Authentication required")
			c.Abort()
			return
		}

		if !models.Authorize(account.Role, scope, c.Request.Method) {
			log.Warn().
				Str("account_id", account.AccountID).
				Str("role", string(account.Role)).
				Str("scope", string(scope)).
				Str("method", c.Request.Method).
				Msg("Request forbidden")
			utils.Error(c, 403, "FORBIDDEN", "You do not have permission to perform this action")
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetAccount returns the authenticated account from context.
func GetAccount(c *gin.Context) *models.AdminAccount {
	account, _ := c.Get("account")
	if account == nil {
		return nil
	}
	return account.(*models.AdminAccount)
}
