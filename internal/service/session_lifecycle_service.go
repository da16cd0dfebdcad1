package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/wiradata/cbt-backend/internal/model"
)

// SessionStore is the persistence surface of the lifecycle state machine.
// Mutate must serialize concurrent writers on the session row; fn receives
// the open transaction so dependent writes can share the lock scope.
type SessionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error)
	GetByUserAndTest(ctx context.Context, userID int, testID uuid.UUID) (*model.Session, error)
	Create(ctx context.Context, s *model.Session) error
	Mutate(ctx context.Context, id uuid.UUID, fn func(pgx.Tx, *model.Session) error) (*model.Session, error)
}

// TestStore resolves tests and group targeting for eligibility checks.
type TestStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Test, error)
	IsEligible(ctx context.Context, testID uuid.UUID, userID int) (bool, error)
}

// Scorer computes a session's authoritative score.
type Scorer interface {
	Calculate(ctx context.Context, session *model.Session) (int, error)
}

// ScoreSink caches a computed score.
type ScoreSink interface {
	SaveScore(ctx context.Context, sessionID uuid.UUID, score int) error
}

// SnapshotCleaner drops a session's cached answer snapshot after submit.
type SnapshotCleaner interface {
	Clear(ctx context.Context, sessionID uuid.UUID) error
}

// Writable checks the answer-write gate: the session must be ongoing,
// unlocked, and inside its server-computed deadline. The lock/submit
// check runs first so a locked session reports ErrSessionClosed even
// when time also ran out. Time comparisons use the caller-supplied
// server clock only; client-reported elapsed time is never trusted.
func Writable(sess *model.Session, durationMinutes int, now time.Time) error {
	if sess.Status != model.SessionStatusOngoing || sess.IsLocked {
		return ErrSessionClosed
	}
	if sess.Remaining(durationMinutes, now) <= 0 {
		return ErrSessionExpired
	}
	return nil
}

// SessionLifecycleService owns the exam-session state machine:
// start → in-progress → locked/unlocked → time-extended → finished.
// Every transition takes the server clock explicitly so behavior is
// deterministic under test.
type SessionLifecycleService struct {
	sessions  SessionStore
	tests     TestStore
	scorer    Scorer
	results   ScoreSink
	snapshots SnapshotCleaner
	log       zerolog.Logger
}

// NewSessionLifecycleService creates a new SessionLifecycleService.
func NewSessionLifecycleService(
	sessions SessionStore,
	tests TestStore,
	scorer Scorer,
	results ScoreSink,
	snapshots SnapshotCleaner,
	log zerolog.Logger,
) *SessionLifecycleService {
	return &SessionLifecycleService{
		sessions:  sessions,
		tests:     tests,
		scorer:    scorer,
		results:   results,
		snapshots: snapshots,
		log:       log.With().Str("component", "session_lifecycle").Logger(),
	}
}

// Start creates an ongoing session for the participant. Preconditions:
// the test is active, now falls inside its window, and the participant
// belongs to a targeted group. A second start for the same (user, test)
// pair fails with ErrDuplicateSession — the pair owns at most one attempt.
func (s *SessionLifecycleService) Start(ctx context.Context, userID int, testID uuid.UUID, now time.Time) (*model.Session, error) {
	test, err := s.tests.GetByID(ctx, testID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get test: %w", err)
	}

	if !test.IsActive || !test.WithinWindow(now) {
		return nil, ErrNotEligible
	}

	eligible, err := s.tests.IsEligible(ctx, testID, userID)
	if err != nil {
		return nil, fmt.Errorf("check eligibility: %w", err)
	}
	if !eligible {
		return nil, ErrNotEligible
	}

	if _, err := s.sessions.GetByUserAndTest(ctx, userID, testID); err == nil {
		return nil, ErrDuplicateSession
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check existing session: %w", err)
	}

	session := &model.Session{
		UserID:    userID,
		TestID:    testID,
		StartedAt: now,
		Status:    model.SessionStatusOngoing,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost the race against a concurrent start.
			return nil, ErrDuplicateSession
		}
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.log.Info().
		Str("session_id", session.ID.String()).
		Int("user_id", userID).
		Str("test_id", testID.String()).
		Msg("Session started")

	return session, nil
}

// Get resolves a session with its test, mapping missing rows to ErrNotFound.
func (s *SessionLifecycleService) Get(ctx context.Context, sessionID uuid.UUID) (*model.Session, *model.Test, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("get session: %w", err)
	}

	test, err := s.tests.GetByID(ctx, session.TestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("get test: %w", err)
	}
	return session, test, nil
}

// Lock bars further answer writes. The reason is mandatory and capped at
// 500 characters; locking an already-locked session overwrites reason,
// actor and time.
func (s *SessionLifecycleService) Lock(ctx context.Context, sessionID uuid.UUID, reason string, actorID int, now time.Time) (*model.Session, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrEmptyLockReason
	}
	if utf8.RuneCountInString(reason) > 500 {
		return nil, ErrLockReasonTooLong
	}

	session, err := s.sessions.Mutate(ctx, sessionID, func(_ pgx.Tx, sess *model.Session) error {
		sess.IsLocked = true
		sess.LockReason = &reason
		sess.LockedBy = &actorID
		lockedAt := now
		sess.LockedAt = &lockedAt
		return nil
	})
	if err != nil {
		return nil, mapSessionErr(err)
	}

	s.log.Info().
		Str("session_id", sessionID.String()).
		Int("locked_by", actorID).
		Str("reason", reason).
		Msg("Session locked")

	return session, nil
}

// Unlock clears the lock state entirely. No precondition beyond existence.
func (s *SessionLifecycleService) Unlock(ctx context.Context, sessionID uuid.UUID) (*model.Session, error) {
	session, err := s.sessions.Mutate(ctx, sessionID, func(_ pgx.Tx, sess *model.Session) error {
		sess.IsLocked = false
		sess.LockReason = nil
		sess.LockedBy = nil
		sess.LockedAt = nil
		return nil
	})
	if err != nil {
		return nil, mapSessionErr(err)
	}

	s.log.Info().Str("session_id", sessionID.String()).Msg("Session unlocked")
	return session, nil
}

// AddTime grants a time extension. Two distinct cases:
//   - no deadline override yet: the new deadline is now + minutes — the
//     countdown baseline resets to the moment of the grant, not to the
//     original target;
//   - finished_at already set (override or submitted): minutes are added
//     on top of it, re-opening an elapsed window.
//
// The status is left untouched in both cases: extending a submitted
// session moves its finished_at without reopening it.
func (s *SessionLifecycleService) AddTime(ctx context.Context, sessionID uuid.UUID, minutes int, now time.Time) (*model.Session, error) {
	if minutes < 1 || minutes > 120 {
		return nil, ErrInvalidMinutes
	}

	session, err := s.sessions.Mutate(ctx, sessionID, func(_ pgx.Tx, sess *model.Session) error {
		applyTimeExtension(sess, minutes, now)
		return nil
	})
	if err != nil {
		return nil, mapSessionErr(err)
	}

	s.log.Info().
		Str("session_id", sessionID.String()).
		Int("minutes", minutes).
		Time("new_deadline", *session.FinishedAt).
		Msg("Session time extended")

	return session, nil
}

// Finish submits the session: finished_at = now, status = submitted.
// Idempotent on an already-submitted session. The score is computed and
// cached after the transition commits; the recompute path stays
// authoritative either way.
func (s *SessionLifecycleService) Finish(ctx context.Context, sessionID uuid.UUID, now time.Time) (*model.Session, error) {
	session, err := s.sessions.Mutate(ctx, sessionID, func(_ pgx.Tx, sess *model.Session) error {
		if sess.Status == model.SessionStatusSubmitted {
			return nil
		}
		finishedAt := now
		sess.FinishedAt = &finishedAt
		sess.Status = model.SessionStatusSubmitted
		return nil
	})
	if err != nil {
		return nil, mapSessionErr(err)
	}

	if err := s.cacheScore(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// ForceSubmit is the administrative override: optionally apply a time
// extension, then submit, in one transaction. When an extension is
// granted the recorded finished_at keeps the extended timestamp — the
// grant documents until when the session was allowed to run.
func (s *SessionLifecycleService) ForceSubmit(ctx context.Context, sessionID uuid.UUID, extendMinutes *int, now time.Time) (*model.Session, error) {
	if extendMinutes != nil && (*extendMinutes < 1 || *extendMinutes > 120) {
		return nil, ErrInvalidMinutes
	}

	session, err := s.sessions.Mutate(ctx, sessionID, func(_ pgx.Tx, sess *model.Session) error {
		if extendMinutes != nil {
			applyTimeExtension(sess, *extendMinutes, now)
		}
		if sess.FinishedAt == nil {
			finishedAt := now
			sess.FinishedAt = &finishedAt
		}
		sess.Status = model.SessionStatusSubmitted
		return nil
	})
	if err != nil {
		return nil, mapSessionErr(err)
	}

	s.log.Info().
		Str("session_id", sessionID.String()).
		Msg("Session force-submitted")

	if err := s.cacheScore(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// RecomputeScore re-runs the scorer over a submitted session and caches
// the fresh score. Result validation goes through this so the validated
// number is authoritative even if questions changed after submission.
func (s *SessionLifecycleService) RecomputeScore(ctx context.Context, sessionID uuid.UUID) error {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return mapSessionErr(err)
	}
	if session.Status != model.SessionStatusSubmitted {
		return ErrSessionClosed
	}
	return s.cacheScore(ctx, session)
}

// applyTimeExtension: a first grant runs from now, a repeat grant stacks
// on the previous override.
func applyTimeExtension(sess *model.Session, minutes int, now time.Time) {
	var target time.Time
	if sess.FinishedAt == nil {
		target = now.Add(time.Duration(minutes) * time.Minute)
	} else {
		target = sess.FinishedAt.Add(time.Duration(minutes) * time.Minute)
	}
	sess.FinishedAt = &target
}

func (s *SessionLifecycleService) cacheScore(ctx context.Context, session *model.Session) error {
	score, err := s.scorer.Calculate(ctx, session)
	if err != nil {
		return fmt.Errorf("calculate score: %w", err)
	}
	if err := s.results.SaveScore(ctx, session.ID, score); err != nil {
		return fmt.Errorf("cache score: %w", err)
	}

	if s.snapshots != nil {
		if err := s.snapshots.Clear(ctx, session.ID); err != nil {
			// The snapshot expires on its own; losing the delete is harmless.
			s.log.Warn().Err(err).Str("session_id", session.ID.String()).Msg("Clear answer snapshot failed")
		}
	}

	s.log.Info().
		Str("session_id", session.ID.String()).
		Int("score", score).
		Msg("Session submitted and scored")

	return nil
}

func mapSessionErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
