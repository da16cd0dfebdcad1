package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/wiradata/cbt-backend/internal/model"
)

// ResultStore manages the cached result projection.
type ResultStore interface {
	GetBySession(ctx context.Context, sessionID uuid.UUID) (*model.Result, error)
	SetValidated(ctx context.Context, sessionID uuid.UUID) error
}

// ProctorService is the administrative front of the session state
// machine. Every entry point verifies the acting user is an admin
// before touching a session; the transitions themselves are delegated
// to the lifecycle service.
type ProctorService struct {
	lifecycle *SessionLifecycleService
	results   ResultStore
	log       zerolog.Logger
}

// NewProctorService creates a new ProctorService.
func NewProctorService(lifecycle *SessionLifecycleService, results ResultStore, log zerolog.Logger) *ProctorService {
	return &ProctorService{
		lifecycle: lifecycle,
		results:   results,
		log:       log.With().Str("component", "proctor").Logger(),
	}
}

// Lock bars a participant from answering, recording who locked and why.
func (s *ProctorService) Lock(ctx context.Context, actor model.Actor, sessionID uuid.UUID, reason string, now time.Time) (*model.Session, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}
	return s.lifecycle.Lock(ctx, sessionID, reason, actor.ID, now)
}

// Unlock lets a locked participant continue.
func (s *ProctorService) Unlock(ctx context.Context, actor model.Actor, sessionID uuid.UUID) (*model.Session, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}
	return s.lifecycle.Unlock(ctx, sessionID)
}

// AddTime grants a participant extra minutes.
func (s *ProctorService) AddTime(ctx context.Context, actor model.Actor, sessionID uuid.UUID, minutes int, now time.Time) (*model.Session, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}
	return s.lifecycle.AddTime(ctx, sessionID, minutes, now)
}

// ForceSubmit ends a participant's session on the proctor's authority.
func (s *ProctorService) ForceSubmit(ctx context.Context, actor model.Actor, sessionID uuid.UUID, extendMinutes *int, now time.Time) (*model.Session, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}
	return s.lifecycle.ForceSubmit(ctx, sessionID, extendMinutes, now)
}

// ValidateResult marks a submitted session's result as reviewed.
func (s *ProctorService) ValidateResult(ctx context.Context, actor model.Actor, sessionID uuid.UUID) (*model.Result, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}

	if _, err := s.results.GetBySession(ctx, sessionID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get result: %w", err)
	}

	// Validation certifies the number, so recompute it first.
	if err := s.lifecycle.RecomputeScore(ctx, sessionID); err != nil {
		return nil, err
	}

	if err := s.results.SetValidated(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("validate result: %w", err)
	}

	s.log.Info().
		Str("session_id", sessionID.String()).
		Int("validated_by", actor.ID).
		Msg("Result validated")

	return s.results.GetBySession(ctx, sessionID)
}
