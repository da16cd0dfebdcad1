package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wiradata/cbt-backend/internal/model"
	"github.com/wiradata/cbt-backend/internal/response"
	"github.com/wiradata/cbt-backend/internal/service"
)

// CheckSingleDeviceLogin validates the JWT's JTI against the registered
// device in Redis. A mismatch means the login was reset by an admin or
// superseded; the request is rejected so only one device stays active.
func CheckSingleDeviceLogin(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		// Only participants are single-device.
		if claims.Role != model.RoleParticipant {
			c.Next()
			return
		}

		if err := authService.ValidateLogin(c.Request.Context(), claims.UserID, claims.ID); err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrLoginInvalidated)
			return
		}

		c.Next()
	}
}
