package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/memberdir/admin_api/internal/middleware"
	"github.com/memberdir/admin_api/internal/service"
	"github.com/memberdir/admin_api/internal/utils"
)

// AuthHandler handles login, profile and password reset endpoints.
type AuthHandler struct {
	accountService *service.AccountService
	resetService   *service.PasswordResetService
	rateLimiter    *middleware.InvalidAuthRateLimiter
}

// NewAuthHandler constructs an AuthHandler. rateLimiter may be nil.
func NewAuthHandler(accountService *service.AccountService, resetService *service.PasswordResetService, rateLimiter *middleware.InvalidAuthRateLimiter) *AuthHandler {
	return &AuthHandler{
		accountService: accountService,
		resetService:   resetService,
		rateLimiter:    rateLimiter,
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type updateProfileRequest struct {
	Name    *string `json:"name" binding:"omitempty,min=1,max=100"`
	ImgPath *string `json:"img_path" binding:"omitempty,max=255"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type verifyOTPRequest struct {
	Email   string `json:"email" binding:"required,email"`
	OTPCode string `json:"otp_code" binding:"required,len=6,numeric"`
}

type resetPasswordRequest struct {
	Email           string `json:"email" binding:"required,email"`
	OTPCode         string `json:"otp_code" binding:"required,len=6,numeric"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=NewPassword"`
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(c, err)
		return
	}

	res, err := h.accountService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidCredentials) && h.rateLimiter != nil && !h.rateLimiter.Allow(c.ClientIP()) {
			utils.Error(c, 429, "TOO_MANY_REQUESTS", "Too many failed login attempts")
			return
		}
		respondError(c, err, "Failed to log in")
		return
	}

	utils.Success(c, 200, "Login successful", res)
}

// Logout handles POST /v1/auth/logout. Tokens are stateless, so the client
// discards its copy.
func (h *AuthHandler) Logout(c *gin.Context) {
	utils.Success(c, 200, "Logged out", nil)
}

// GetProfile handles GET /v1/auth/profile
func (h *AuthHandler) GetProfile(c *gin.Context) {
	account, err := h.accountService.Profile(c.Request.Context(), middleware.GetAccount(c).AccountID)
	if err != nil {
		respondError(c, err, "Failed to load profile")
		return
	}
	utils.Success(c, 200, "Profile retrieved", account.Summary())
}

// UpdateProfile handles PUT /v1/auth/profile
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(c, err)
		return
	}

	account, err := h.accountService.UpdateProfile(c.Request.Context(), middleware.GetAccount(c).AccountID, service.UpdateProfileInput{
		Name:    req.Name,
		ImgPath: req.ImgPath,
	})
	if err != nil {
		respondError(c, err, "Failed to update profile")
		return
	}
	utils.Success(c, 200, "Profile updated", account.Summary())
}

// ForgotPassword handles POST /v1/auth/forgot-password. The response does
// not reveal whether the email belongs to an account.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(c, err)
		return
	}

	if err := h.resetService.RequestReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, err, "Failed to process reset request")
		return
	}
	utils.Success(c, 200, "If the email is registered, a reset code has been sent", nil)
}

// VerifyOTP handles POST /v1/auth/verify-otp
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(c, err)
		return
	}

	if h.otpLocked(c) {
		return
	}
	if err := h.resetService.VerifyCode(c.Request.Context(), req.Email, req.OTPCode); err != nil {
		h.respondOTPError(c, err, "Failed to verify code")
		return
	}
	utils.Success(c, 200, "Code is valid", gin.H{"valid": true})
}

// ResetPassword handles POST /v1/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(c, err)
		return
	}

	if h.otpLocked(c) {
		return
	}
	err := h.resetService.ResetPassword(c.Request.Context(), service.ResetPasswordInput{
		Email:           req.Email,
		Code:            req.OTPCode,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		h.respondOTPError(c, err, "Failed to reset password")
		return
	}
	utils.Success(c, 200, "Password has been reset", nil)
}

// otpLocked rejects code submissions from a client that has exhausted its
// failed attempts, before the code is checked.
func (h *AuthHandler) otpLocked(c *gin.Context) bool {
	if h.rateLimiter == nil || !h.rateLimiter.Exceeded(c.ClientIP()) {
		return false
	}
	utils.Error(c, 429, "TOO_MANY_REQUESTS", "Too many failed code attempts")
	return true
}

// respondOTPError counts rejected codes against the client before writing the
// error response.
func (h *AuthHandler) respondOTPError(c *gin.Context, err error, fallback string) {
	rejected := errors.Is(err, utils.ErrOTPInvalid) || errors.Is(err, utils.ErrOTPExpired)
	if rejected && h.rateLimiter != nil && !h.rateLimiter.Allow(c.ClientIP()) {
		utils.Error(c, 429, "TOO_MANY_REQUESTS", "Too many failed code attempts")
		return
	}
	respondError(c, err, fallback)
}
