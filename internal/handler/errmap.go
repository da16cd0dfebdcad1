package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wiradata/cbt-backend/internal/response"
	"github.com/wiradata/cbt-backend/internal/service"
)

// failFromErr maps the service error taxonomy onto HTTP status and
// response codes. Unknown errors become a plain 500; the cause is logged
// upstream, never leaked to the client.
func failFromErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNotEligible):
		response.Fail(c, http.StatusForbidden, response.ErrNotEligible)
	case errors.Is(err, service.ErrDuplicateSession):
		response.Fail(c, http.StatusConflict, response.ErrDuplicateSession)
	case errors.Is(err, service.ErrSessionClosed):
		response.Fail(c, http.StatusConflict, response.ErrSessionClosed)
	case errors.Is(err, service.ErrSessionExpired):
		response.Fail(c, http.StatusConflict, response.ErrSessionExpired)
	case errors.Is(err, service.ErrUnauthorized):
		response.Fail(c, http.StatusForbidden, response.ErrAdminOnly)
	case errors.Is(err, service.ErrNotSessionParticipant):
		response.Fail(c, http.StatusForbidden, response.ErrNotSessionParticipant)
	case errors.Is(err, service.ErrEmptyLockReason),
		errors.Is(err, service.ErrLockReasonTooLong),
		errors.Is(err, service.ErrInvalidMinutes):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
	case errors.Is(err, service.ErrLoginAlreadyActive):
		response.Fail(c, http.StatusConflict, response.ErrLoginActive)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
