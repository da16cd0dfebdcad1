package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/wiradata/cbt-backend/internal/model"
)

// ScoringData is the question-side read surface the scoring engine needs.
type ScoringData interface {
	// FirstTopicID returns the single scored topic of a test, or
	// pgx.ErrNoRows when the test has none.
	FirstTopicID(ctx context.Context, testID uuid.UUID) (int, error)
	CountActiveMultipleChoice(ctx context.Context, topicID int) (int, error)
}

// CorrectCounter counts a session's correct multiple-choice answers.
type CorrectCounter interface {
	CountCorrectMultipleChoice(ctx context.Context, sessionID uuid.UUID) (int, error)
}

// ScoringService computes a session's score on demand.
//
// The rule is deliberately narrow: one test scores exactly one topic (its
// first), and only active multiple-choice questions count. Essay and
// short-answer items never contribute. The result is the percentage of
// correct answers, rounded half-up to an integer.
type ScoringService struct {
	questions ScoringData
	answers   CorrectCounter
}

// NewScoringService creates a new ScoringService.
func NewScoringService(questions ScoringData, answers CorrectCounter) *ScoringService {
	return &ScoringService{questions: questions, answers: answers}
}

// Calculate returns the session's score in [0, 100]. Any missing link in
// the chain (no test topics, empty scorable pool) yields zero rather
// than an error. Deterministic: unchanged answer data gives the same
// integer on every call, and a recompute is authoritative over any
// cached result.
func (s *ScoringService) Calculate(ctx context.Context, session *model.Session) (int, error) {
	topicID, err := s.questions.FirstTopicID(ctx, session.TestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("resolve scored topic: %w", err)
	}

	totalQuestions, err := s.questions.CountActiveMultipleChoice(ctx, topicID)
	if err != nil {
		return 0, fmt.Errorf("count scorable questions: %w", err)
	}
	if totalQuestions == 0 {
		return 0, nil
	}

	correctAnswers, err := s.answers.CountCorrectMultipleChoice(ctx, session.ID)
	if err != nil {
		return 0, fmt.Errorf("count correct answers: %w", err)
	}

	score := float64(correctAnswers) / float64(totalQuestions) * 100
	return int(math.Round(score)), nil
}
