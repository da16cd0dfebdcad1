package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/wiradata/cbt-backend/internal/middleware"
	"github.com/wiradata/cbt-backend/internal/service"
	ws "github.com/wiradata/cbt-backend/internal/websocket"
)

// snapshotInterval is the push cadence of the monitoring stream.
const snapshotInterval = 3 * time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowlist permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams live monitoring snapshots to proctors.
type WSHandler struct {
	monitorService *service.MonitorService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(monitorService *service.MonitorService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		monitorService: monitorService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// MonitorStream godoc
// WS /ws/v1/admin/tests/:test_id/monitor
// Upgrades to WebSocket and pushes a snapshot of every ongoing session
// on a fixed cadence. The client can send {"action":"refresh"} for an
// immediate frame and {"action":"ping"} as a keepalive.
func (h *WSHandler) MonitorStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	testID, err := uuid.Parse(c.Param("test_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid test ID"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("admin_id", claims.UserID).
		Str("test_id", testID.String()).
		Logger()

	wsLog.Info().Msg("Proctor connected")

	// Reader goroutine: keeps the connection drained and forwards
	// client actions. Closing the channel ends the push loop.
	actions := make(chan ws.Action)
	go func() {
		defer close(actions)
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				} else {
					wsLog.Debug().Msg("Connection closed")
				}
				return
			}
			actions <- msg.Action
		}
	}()

	// First frame immediately, then on every tick.
	if !h.pushSnapshot(c, conn, wsLog, testID) {
		return
	}

	ticker := time.NewTicker(snapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !h.pushSnapshot(c, conn, wsLog, testID) {
				return
			}
		case action, ok := <-actions:
			if !ok {
				return
			}
			switch action {
			case ws.ActionRefresh:
				if !h.pushSnapshot(c, conn, wsLog, testID) {
					return
				}
			case ws.ActionPing:
				ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			default:
				ws.WriteError(conn, "unknown action: "+string(action))
			}
		}
	}
}

func (h *WSHandler) pushSnapshot(c *gin.Context, conn *websocket.Conn, wsLog zerolog.Logger, testID uuid.UUID) bool {
	snapshot, err := h.monitorService.Snapshot(c.Request.Context(), testID, time.Now())
	if err != nil {
		wsLog.Error().Err(err).Msg("Snapshot failed")
		ws.WriteError(conn, "snapshot failed")
		return false
	}

	if err := ws.WriteTyped(conn, ws.SnapshotResponse{
		Event:        ws.EventSnapshot,
		Participants: snapshot,
	}); err != nil {
		wsLog.Debug().Err(err).Msg("Snapshot write failed")
		return false
	}
	return true
}
