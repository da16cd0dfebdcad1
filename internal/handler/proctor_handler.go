package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wiradata/cbt-backend/internal/middleware"
	"github.com/wiradata/cbt-backend/internal/model"
	"github.com/wiradata/cbt-backend/internal/response"
	"github.com/wiradata/cbt-backend/internal/service"
	"github.com/wiradata/cbt-backend/internal/validator"
)

// ProctorHandler exposes the administrative session controls: lock,
// unlock, time extension, force submit and result validation.
type ProctorHandler struct {
	proctorService *service.ProctorService
}

// NewProctorHandler creates a new ProctorHandler.
func NewProctorHandler(proctorService *service.ProctorService) *ProctorHandler {
	return &ProctorHandler{proctorService: proctorService}
}

// LockSession godoc
// POST /api/v1/admin/sessions/:session_id/lock
// Bars the participant from answering. The reason is mandatory and a
// re-lock overwrites the previous reason, actor and timestamp.
func (h *ProctorHandler) LockSession(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	var req model.LockSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.proctorService.Lock(c.Request.Context(), middleware.GetActor(c), sessionID, req.Reason, time.Now())
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// UnlockSession godoc
// POST /api/v1/admin/sessions/:session_id/unlock
// Clears the lock so the participant can continue.
func (h *ProctorHandler) UnlockSession(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	session, err := h.proctorService.Unlock(c.Request.Context(), middleware.GetActor(c), sessionID)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// AddTime godoc
// POST /api/v1/admin/sessions/:session_id/add-time
// Grants extra minutes on top of the current deadline, or re-opens an
// elapsed window from now.
func (h *ProctorHandler) AddTime(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	var req model.AddTimeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.proctorService.AddTime(c.Request.Context(), middleware.GetActor(c), sessionID, req.Minutes, time.Now())
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// ForceSubmit godoc
// POST /api/v1/admin/sessions/:session_id/force-submit
// Ends the session on the proctor's authority, optionally granting an
// extension that is recorded as the session's end time.
func (h *ProctorHandler) ForceSubmit(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	// Body is optional; an empty request means submit without extension.
	var req model.ForceSubmitRequest
	if c.Request.ContentLength > 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	session, err := h.proctorService.ForceSubmit(c.Request.Context(), middleware.GetActor(c), sessionID, req.ExtendMinutes, time.Now())
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// ValidateResult godoc
// POST /api/v1/admin/sessions/:session_id/validate
// Marks a submitted session's result as reviewed.
func (h *ProctorHandler) ValidateResult(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	result, err := h.proctorService.ValidateResult(c.Request.Context(), middleware.GetActor(c), sessionID)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

func sessionParam(c *gin.Context) (uuid.UUID, bool) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return sessionID, true
}
