package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wiradata/cbt-backend/internal/repository"
	"github.com/wiradata/cbt-backend/internal/response"
	"github.com/wiradata/cbt-backend/internal/service"
)

// AdminHandler handles the administrative read side: statistics,
// monitoring snapshots, online users and login resets.
type AdminHandler struct {
	statsService   *service.StatisticsService
	monitorService *service.MonitorService
	authService    *service.AuthService
	presence       *repository.PresenceRepository
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	statsService *service.StatisticsService,
	monitorService *service.MonitorService,
	authService *service.AuthService,
	presence *repository.PresenceRepository,
) *AdminHandler {
	return &AdminHandler{
		statsService:   statsService,
		monitorService: monitorService,
		authService:    authService,
		presence:       presence,
	}
}

// GetTestStatistics godoc
// GET /api/v1/admin/tests/:test_id/statistics
// Returns score distribution, leaderboard and item analysis over the
// test's submitted sessions.
func (h *AdminHandler) GetTestStatistics(c *gin.Context) {
	testID, err := uuid.Parse(c.Param("test_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	stats, err := h.statsService.Summary(c.Request.Context(), testID, time.Now())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, stats)
}

// GetMonitorSnapshot godoc
// GET /api/v1/admin/tests/:test_id/monitor
// One-shot REST variant of the WebSocket monitoring stream.
func (h *AdminHandler) GetMonitorSnapshot(c *gin.Context) {
	testID, err := uuid.Parse(c.Param("test_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	snapshot, err := h.monitorService.Snapshot(c.Request.Context(), testID, time.Now())
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"participants": snapshot})
}

// GetParticipantStatistics godoc
// GET /api/v1/admin/users/:user_id/statistics
// Per-participant exam history for the admin detail page.
func (h *AdminHandler) GetParticipantStatistics(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	history, err := h.statsService.History(c.Request.Context(), userID, time.Now())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"history": history})
}

// GetOnlineUsers godoc
// GET /api/v1/admin/online
// Lists users seen within the presence TTL.
func (h *AdminHandler) GetOnlineUsers(c *gin.Context) {
	entries, err := h.presence.ListOnline(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if entries == nil {
		entries = []repository.PresenceEntry{}
	}

	response.Success(c, http.StatusOK, gin.H{"online": entries})
}

// ResetLogin godoc
// POST /api/v1/admin/users/:user_id/reset-login
// Drops a participant's registered device so they can log in again.
func (h *AdminHandler) ResetLogin(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.authService.ResetLogin(c.Request.Context(), userID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"reset": true})
}
