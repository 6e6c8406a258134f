package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/memberdir/admin_api/internal/models"
	"github.com/memberdir/admin_api/internal/service"
	"github.com/memberdir/admin_api/internal/utils"
)

// AccountHandler handles admin account management endpoints.
type AccountHandler struct {
	accountService *service.AccountService
}

// NewAccountHandler constructs an AccountHandler.
func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

type createAccountRequest struct {
	Email           string `json:"email" binding:"required,email,max=100"`
	Name            string `json:"name" binding:"required,max=100"`
	Password        string `json:"password" binding:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=Password"`
	Role            string `json:"role" binding:"required,oneof=admin superadmin"`
}

// ListAccounts handles GET /v1/accounts
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	accounts, err := h.accountService.ListAccounts(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to retrieve accounts")
		return
	}

	utils.Success(c, 200, "Accounts retrieved", gin.H{
		"accounts": accounts,
		"total":    len(accounts),
	})
}

// CreateAccount handles POST /v1/accounts
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(c, err)
		return
	}

	account, err := h.accountService.CreateAccount(c.Request.Context(), service.CreateAccountInput{
		Email:           req.Email,
		Name:            req.Name,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Role:            models.Role(req.Role),
	})
	if err != nil {
		respondError(c, err, "Failed to create account")
		return
	}

	utils.Success(c, 201, "Account created successfully", account.Summary())
}
