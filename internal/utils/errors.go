package utils

import "errors"

// Common application errors used across services.
var (
	ErrInvalidCredentials  = errors.New("INVALID_CREDENTIALS")
	ErrInvalidToken        = errors.New("INVALID_TOKEN")
	ErrTokenExpired        = errors.New("TOKEN_EXPIRED")
	ErrAccountNotFound     = errors.New("ACCOUNT_NOT_FOUND")
	ErrForbidden           = errors.New("FORBIDDEN")
	ErrEmailExists         = errors.New("EMAIL_EXISTS")
	ErrInvalidRole         = errors.New("INVALID_ROLE")
	ErrPasswordMismatch    = errors.New("PASSWORD_MISMATCH")
	ErrMemberNotFound      = errors.New("MEMBER_NOT_FOUND")
	ErrRecordNotFound      = errors.New("RECORD_NOT_FOUND")
	ErrOTPInvalid          = errors.New("OTP_INVALID")
	ErrOTPExpired          = errors.New("OTP_EXPIRED")
	ErrNotificationFailed  = errors.New("NOTIFICATION_FAILED")
	ErrStorageUnavailable  = errors.New("STORAGE_UNAVAILABLE")
	ErrUnsupportedFileType = errors.New("UNSUPPORTED_FILE_TYPE")
)
