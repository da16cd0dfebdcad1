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

// ParticipantHandler handles the exam-taking endpoints: lobby, session
// start, paper, live state, answers, finish and own results.
type ParticipantHandler struct {
	examService  *service.ExamService
	lifecycle    *service.SessionLifecycleService
	answers      *service.AnswerService
	statsService *service.StatisticsService
}

// NewParticipantHandler creates a new ParticipantHandler.
func NewParticipantHandler(
	examService *service.ExamService,
	lifecycle *service.SessionLifecycleService,
	answers *service.AnswerService,
	statsService *service.StatisticsService,
) *ParticipantHandler {
	return &ParticipantHandler{
		examService:  examService,
		lifecycle:    lifecycle,
		answers:      answers,
		statsService: statsService,
	}
}

// GetLobby godoc
// GET /api/v1/participant/lobby
// Lists active tests targeted at the participant's groups, with the
// participant's existing attempt attached.
func (h *ParticipantHandler) GetLobby(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	lobby, err := h.examService.Lobby(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"tests": lobby})
}

// StartSession godoc
// POST /api/v1/participant/tests/:test_id/start
// Creates the participant's single attempt for the test. The countdown
// runs from this moment on the server clock.
func (h *ParticipantHandler) StartSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	testID, err := uuid.Parse(c.Param("test_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	session, err := h.lifecycle.Start(c.Request.Context(), claims.UserID, testID, time.Now())
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"session": session})
}

// GetPaper godoc
// GET /api/v1/participant/sessions/:session_id/paper
// Returns the question paper with correctness flags stripped.
func (h *ParticipantHandler) GetPaper(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	paper, err := h.examService.Paper(c.Request.Context(), claims.UserID, sessionID)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": paper})
}

// GetState godoc
// GET /api/v1/participant/sessions/:session_id/state
// Covers the page reload: saved answers, lock state and the remaining
// time as the server computes it.
func (h *ParticipantHandler) GetState(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	state, err := h.examService.State(c.Request.Context(), claims.UserID, sessionID, time.Now())
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// SubmitAnswer godoc
// PUT /api/v1/participant/sessions/:session_id/answers
// Upserts one answer; re-answering overwrites. Rejected once the session
// is locked, submitted or out of time.
func (h *ParticipantHandler) SubmitAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.examService.Authorize(c.Request.Context(), claims.UserID, sessionID); err != nil {
		failFromErr(c, err)
		return
	}

	answer, err := h.answers.Record(c.Request.Context(), sessionID, &req, time.Now())
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"answer": answer})
}

// FinishSession godoc
// POST /api/v1/participant/sessions/:session_id/finish
// Submits the session and returns the scored result. Idempotent.
func (h *ParticipantHandler) FinishSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.examService.Authorize(c.Request.Context(), claims.UserID, sessionID); err != nil {
		failFromErr(c, err)
		return
	}

	session, err := h.lifecycle.Finish(c.Request.Context(), sessionID, time.Now())
	if err != nil {
		failFromErr(c, err)
		return
	}

	result, err := h.examService.Result(c.Request.Context(), claims.UserID, sessionID)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"session": session,
		"result":  result,
	})
}

// GetResult godoc
// GET /api/v1/participant/sessions/:session_id/result
// Returns the participant's own cached result.
func (h *ParticipantHandler) GetResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.examService.Result(c.Request.Context(), claims.UserID, sessionID)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// GetHistory godoc
// GET /api/v1/participant/history
// Lists the participant's past attempts with scores.
func (h *ParticipantHandler) GetHistory(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	history, err := h.statsService.History(c.Request.Context(), claims.UserID, time.Now())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"history": history})
}
