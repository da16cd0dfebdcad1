package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/wiradata/cbt-backend/internal/model"
	"github.com/wiradata/cbt-backend/internal/repository"
)

// PaperSource supplies the deliverable question pool: the first topic
// attached to a test and that topic's active questions.
type PaperSource interface {
	FirstTopicID(ctx context.Context, testID uuid.UUID) (int, error)
	ListActiveByTopic(ctx context.Context, topicID int) ([]model.Question, error)
}

// AnswerSnapshots reads the Redis mirror of a session's saved answers.
type AnswerSnapshots interface {
	Snapshot(ctx context.Context, sessionID uuid.UUID) (map[string]string, error)
}

// ExamService serves the participant-facing read side: the lobby of
// available tests, the sanitized question paper and the live session
// state a client resumes from.
type ExamService struct {
	lifecycle   *SessionLifecycleService
	testRepo    *repository.TestRepository
	sessionRepo *repository.SessionRepository
	questions   PaperSource
	answers     AnswerStore
	snapshots   AnswerSnapshots
	results     ResultStore
	log         zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(
	lifecycle *SessionLifecycleService,
	testRepo *repository.TestRepository,
	sessionRepo *repository.SessionRepository,
	questions PaperSource,
	answers AnswerStore,
	snapshots AnswerSnapshots,
	results ResultStore,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		lifecycle:   lifecycle,
		testRepo:    testRepo,
		sessionRepo: sessionRepo,
		questions:   questions,
		answers:     answers,
		snapshots:   snapshots,
		results:     results,
		log:         log.With().Str("component", "exam").Logger(),
	}
}

// LobbyEntry is one test in the participant's lobby, with the
// participant's own attempt attached when one exists.
type LobbyEntry struct {
	Test          model.Test           `json:"test"`
	SessionID     *uuid.UUID           `json:"session_id,omitempty"`
	SessionStatus *model.SessionStatus `json:"session_status,omitempty"`
}

// ExamState is what a reconnecting client needs to resume: the session
// with its lock fields, the server-computed remaining time and the
// answers recorded so far.
type ExamState struct {
	Session          *model.Session     `json:"session"`
	RemainingSeconds int64              `json:"remaining_seconds"`
	Deadline         time.Time          `json:"deadline"`
	Answers          []model.UserAnswer `json:"answers"`
}

// Lobby lists active tests targeted at the participant's groups,
// annotated with the participant's existing attempt.
func (s *ExamService) Lobby(ctx context.Context, userID int) ([]LobbyEntry, error) {
	tests, err := s.testRepo.ListEligible(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list eligible tests: %w", err)
	}

	sessions, err := s.sessionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	byTest := make(map[uuid.UUID]*model.Session, len(sessions))
	for i := range sessions {
		byTest[sessions[i].TestID] = &sessions[i]
	}

	entries := make([]LobbyEntry, 0, len(tests))
	for _, test := range tests {
		entry := LobbyEntry{Test: test}
		if sess, ok := byTest[test.ID]; ok {
			entry.SessionID = &sess.ID
			entry.SessionStatus = &sess.Status
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Paper returns the session's question paper with grading keys stripped:
// the first topic's active questions, matching the pool the scorer
// grades against. Only the owning participant may fetch it.
func (s *ExamService) Paper(ctx context.Context, userID int, sessionID uuid.UUID) ([]model.SanitizedQuestion, error) {
	session, _, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	topicID, err := s.questions.FirstTopicID(ctx, session.TestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []model.SanitizedQuestion{}, nil
		}
		return nil, fmt.Errorf("first topic: %w", err)
	}

	questions, err := s.questions.ListActiveByTopic(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	paper := make([]model.SanitizedQuestion, 0, len(questions))
	for _, q := range questions {
		paper = append(paper, q.Sanitize())
	}
	return paper, nil
}

// State returns the participant's resumable session state. Saved answers
// come from the Redis mirror when it has content; the mirror keeps only
// the chosen values, so grading flags are absent on that path. An empty
// or unreachable mirror falls back to the user_answers table.
func (s *ExamService) State(ctx context.Context, userID int, sessionID uuid.UUID, now time.Time) (*ExamState, error) {
	session, test, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	answers := s.mirroredAnswers(ctx, sessionID)
	if answers == nil {
		answers, err = s.answers.ListBySession(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("list answers: %w", err)
		}
		if answers == nil {
			answers = []model.UserAnswer{}
		}
	}

	return &ExamState{
		Session:          session,
		RemainingSeconds: int64(session.Remaining(test.DurationMinutes, now).Seconds()),
		Deadline:         session.Deadline(test.DurationMinutes),
		Answers:          answers,
	}, nil
}

// Authorize verifies the session exists and belongs to the participant.
func (s *ExamService) Authorize(ctx context.Context, userID int, sessionID uuid.UUID) error {
	_, _, err := s.ownedSession(ctx, userID, sessionID)
	return err
}

// Result returns the participant's own cached result for a submitted
// session.
func (s *ExamService) Result(ctx context.Context, userID int, sessionID uuid.UUID) (*model.Result, error) {
	if _, _, err := s.ownedSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	result, err := s.results.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, mapSessionErr(err)
	}
	return result, nil
}

// mirroredAnswers rebuilds the answer list from the Redis mirror, ordered
// by question id. Returns nil when the mirror is empty or unavailable.
func (s *ExamService) mirroredAnswers(ctx context.Context, sessionID uuid.UUID) []model.UserAnswer {
	if s.snapshots == nil {
		return nil
	}
	snap, err := s.snapshots.Snapshot(ctx, sessionID)
	if err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("Answer mirror read failed")
		return nil
	}
	if len(snap) == 0 {
		return nil
	}

	answers := make([]model.UserAnswer, 0, len(snap))
	for key, value := range snap {
		questionID, err := uuid.Parse(key)
		if err != nil {
			continue
		}
		a := model.UserAnswer{SessionID: sessionID, QuestionID: questionID}
		if optionID, err := uuid.Parse(value); err == nil {
			a.AnswerID = &optionID
		} else if value != "" {
			v := value
			a.AnswerText = &v
		}
		answers = append(answers, a)
	}
	sort.Slice(answers, func(i, j int) bool {
		return answers[i].QuestionID.String() < answers[j].QuestionID.String()
	})
	return answers
}

func (s *ExamService) ownedSession(ctx context.Context, userID int, sessionID uuid.UUID) (*model.Session, *model.Test, error) {
	session, test, err := s.lifecycle.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.UserID != userID {
		return nil, nil, ErrNotSessionParticipant
	}
	return session, test, nil
}
