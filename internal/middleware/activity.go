package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/wiradata/cbt-backend/internal/repository"
)

// TrackActivity refreshes the caller's presence entry on every
// authenticated request. Best-effort: a failed write never blocks the
// request, the entry just expires a little earlier.
func TrackActivity(presence *repository.PresenceRepository, log zerolog.Logger) gin.HandlerFunc {
	plog := log.With().Str("component", "activity").Logger()

	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			c.Next()
			return
		}

		entry := repository.PresenceEntry{
			UserID:       claims.UserID,
			Name:         claims.Name,
			Role:         claims.Role,
			IP:           c.ClientIP(),
			LastActivity: time.Now(),
		}
		if err := presence.Touch(c.Request.Context(), entry); err != nil {
			plog.Warn().Err(err).Int("user_id", claims.UserID).Msg("Presence touch failed")
		}

		c.Next()
	}
}
