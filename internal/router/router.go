package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/wiradata/cbt-backend/internal/config"
	"github.com/wiradata/cbt-backend/internal/handler"
	"github.com/wiradata/cbt-backend/internal/middleware"
	"github.com/wiradata/cbt-backend/internal/repository"
	"github.com/wiradata/cbt-backend/internal/response"
	"github.com/wiradata/cbt-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth        *handler.AuthHandler
	Participant *handler.ParticipantHandler
	Proctor     *handler.ProctorHandler
	Admin       *handler.AdminHandler
	WS          *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	presence *repository.PresenceRepository,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for the login route (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", authLimiter.Middleware(), handlers.Auth.Login)

		// Authenticated profile routes, role-agnostic.
		authed := auth.Group("")
		authed.Use(middleware.RequireJWT(authService))
		{
			authed.GET("/me", handlers.Auth.Me)
			authed.POST("/logout", handlers.Auth.Logout)
		}
	}

	// ─── 2. Participant Group (JWT + Single Device + Presence) ─────────
	participantAPI := router.Group("/api/v1/participant")
	participantAPI.Use(
		middleware.RequireParticipantJWT(authService),
		middleware.CheckSingleDeviceLogin(authService),
		middleware.TrackActivity(presence, log),
	)
	{
		participantAPI.GET("/lobby", handlers.Participant.GetLobby)
		participantAPI.GET("/history", handlers.Participant.GetHistory)
		participantAPI.POST("/tests/:test_id/start", handlers.Participant.StartSession)
		participantAPI.GET("/sessions/:session_id/paper", handlers.Participant.GetPaper)
		participantAPI.GET("/sessions/:session_id/state", handlers.Participant.GetState)
		participantAPI.PUT("/sessions/:session_id/answers", handlers.Participant.SubmitAnswer)
		participantAPI.POST("/sessions/:session_id/finish", handlers.Participant.FinishSession)
		participantAPI.GET("/sessions/:session_id/result", handlers.Participant.GetResult)
	}

	// ─── 3. WebSocket Group (Admin WS Auth) ────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireAdminWSAuth(authService))
	{
		ws.GET("/admin/tests/:test_id/monitor", handlers.WS.MonitorStream)
	}

	// ─── 4. Admin Group (JWT + Presence) ───────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(
		middleware.RequireAdminJWT(authService),
		middleware.TrackActivity(presence, log),
	)
	{
		// Proctor session controls
		adminAPI.POST("/sessions/:session_id/lock", handlers.Proctor.LockSession)
		adminAPI.POST("/sessions/:session_id/unlock", handlers.Proctor.UnlockSession)
		adminAPI.POST("/sessions/:session_id/add-time", handlers.Proctor.AddTime)
		adminAPI.POST("/sessions/:session_id/force-submit", handlers.Proctor.ForceSubmit)
		adminAPI.POST("/sessions/:session_id/validate", handlers.Proctor.ValidateResult)

		// Statistics and monitoring
		adminAPI.GET("/tests/:test_id/statistics", handlers.Admin.GetTestStatistics)
		adminAPI.GET("/tests/:test_id/monitor", handlers.Admin.GetMonitorSnapshot)

		// Presence and login management
		adminAPI.GET("/users/:user_id/statistics", handlers.Admin.GetParticipantStatistics)
		adminAPI.GET("/online", handlers.Admin.GetOnlineUsers)
		adminAPI.POST("/users/:user_id/reset-login", handlers.Admin.ResetLogin)
	}

	return router
}
