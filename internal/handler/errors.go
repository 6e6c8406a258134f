package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/memberdir/admin_api/internal/utils"
)

type errorMapping struct {
	status  int
	message string
}

var errorMappings = map[error]errorMapping{
	utils.ErrInvalidCredentials:  {401, "Invalid email or password"},
	utils.ErrInvalidToken:        {401, "Invalid token"},
	utils.ErrTokenExpired:        {401, "Token has expired"},
	utils.ErrAccountNotFound:     {401, "Account no longer exists"},
	utils.ErrForbidden:           {403, "You do not have permission to perform this action"},
	utils.ErrEmailExists:         {409, "An account with this email already exists"},
	utils.ErrInvalidRole:         {400, "Role must be admin or superadmin"},
	utils.ErrPasswordMismatch:    {400, "Passwords do not match"},
	utils.ErrMemberNotFound:      {404, "Member not found"},
	utils.ErrRecordNotFound:      {404, "Record not found"},
	utils.ErrOTPInvalid:          {400, "Invalid or already used code"},
	utils.ErrOTPExpired:          {400, "Code has expired"},
	utils.ErrNotificationFailed:  {500, "Failed to send reset email"},
	utils.ErrStorageUnavailable:  {503, "Photo storage is unavailable"},
	utils.ErrUnsupportedFileType: {400, "Photo must be a JPEG, PNG or WebP image"},
}

// respondError writes the API error for err. Unknown errors are logged and
// reported as INTERNAL_ERROR without their text.
func respondError(c *gin.Context, err error, fallback string) {
	for sentinel, m := range errorMappings {
		if errors.Is(err, sentinel) {
			utils.Error(c, m.status, sentinel.Error(), m.message)
			return
		}
	}

	log.Error().Err(err).Str("request_id", c.GetString("request_id")).Msg(fallback)
	utils.Error(c, 500, "INTERNAL_ERROR", fallback)
}
