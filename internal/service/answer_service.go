package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/wiradata/cbt-backend/internal/model"
)

// AnswerStore persists participant answers. UpsertTx runs inside the
// caller's transaction so the write shares the session row lock.
type AnswerStore interface {
	UpsertTx(ctx context.Context, tx pgx.Tx, a *model.UserAnswer) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.UserAnswer, error)
}

// OptionResolver looks up a choice option scoped to its question.
type OptionResolver interface {
	GetOption(ctx context.Context, questionID, optionID uuid.UUID) (*model.AnswerOption, error)
}

// AnswerMirror keeps a live copy of submitted answers for monitoring.
type AnswerMirror interface {
	Put(ctx context.Context, sessionID uuid.UUID, questionID uuid.UUID, value string) error
}

// AnswerService records answers with on-the-fly correctness grading.
type AnswerService struct {
	sessions SessionStore
	tests    TestStore
	answers  AnswerStore
	options  OptionResolver
	mirror   AnswerMirror
	log      zerolog.Logger
}

// NewAnswerService creates a new AnswerService.
func NewAnswerService(
	sessions SessionStore,
	tests TestStore,
	answers AnswerStore,
	options OptionResolver,
	mirror AnswerMirror,
	log zerolog.Logger,
) *AnswerService {
	return &AnswerService{
		sessions: sessions,
		tests:    tests,
		answers:  answers,
		options:  options,
		mirror:   mirror,
		log:      log.With().Str("component", "answer").Logger(),
	}
}

// Record upserts the participant's answer for a question. The write gate
// (ongoing, unlocked, inside the deadline) is re-checked on the locked
// row inside the transaction, so a proctor lock and an answer write
// racing on the same session serialize correctly. Re-answering the same
// question overwrites the previous row; there is at most one answer per
// (session, question) pair.
//
// Correctness is derived at write time: a choice answer carries the
// selected option's is_correct flag (false when the option cannot be
// resolved for the question), a cleared or free-text answer stays
// ungraded (null).
func (s *AnswerService) Record(ctx context.Context, sessionID uuid.UUID, req *model.SubmitAnswerRequest, now time.Time) (*model.UserAnswer, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	test, err := s.tests.GetByID(ctx, session.TestID)
	if err != nil {
		return nil, fmt.Errorf("get test: %w", err)
	}

	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		return nil, ErrNotFound
	}

	answer := &model.UserAnswer{
		SessionID:  sessionID,
		QuestionID: questionID,
		AnswerText: req.AnswerText,
	}
	if req.AnswerID != nil {
		optionID, err := uuid.Parse(*req.AnswerID)
		if err != nil {
			return nil, ErrNotFound
		}
		answer.AnswerID = &optionID

		correct := false
		option, err := s.options.GetOption(ctx, questionID, optionID)
		switch {
		case err == nil:
			correct = option.IsCorrect
		case errors.Is(err, pgx.ErrNoRows):
			// Option does not belong to the question; graded wrong.
		default:
			return nil, fmt.Errorf("resolve option: %w", err)
		}
		answer.IsCorrect = &correct
	}

	_, err = s.sessions.Mutate(ctx, sessionID, func(tx pgx.Tx, sess *model.Session) error {
		if err := Writable(sess, test.DurationMinutes, now); err != nil {
			return err
		}
		return s.answers.UpsertTx(ctx, tx, answer)
	})
	if err != nil {
		// A question id with no row trips the foreign key on insert.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, ErrNotFound
		}
		return nil, mapSessionErr(err)
	}

	if s.mirror != nil {
		if err := s.mirror.Put(ctx, sessionID, questionID, mirrorValue(answer)); err != nil {
			s.log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("Answer mirror write failed")
		}
	}

	return answer, nil
}

// ListBySession returns everything the session has answered so far.
func (s *AnswerService) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.UserAnswer, error) {
	answers, err := s.answers.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	return answers, nil
}

func mirrorValue(a *model.UserAnswer) string {
	if a.AnswerID != nil {
		return a.AnswerID.String()
	}
	if a.AnswerText != nil {
		return *a.AnswerText
	}
	return ""
}
