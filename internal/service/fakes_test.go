package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/wiradata/cbt-backend/internal/model"
)

// fakeSessionStore keeps sessions in memory. Mutate applies fn to a copy
// and writes it back, mirroring the SELECT ... FOR UPDATE round trip.
type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]model.Session
}

func newFakeSessionStore(sessions ...model.Session) *fakeSessionStore {
	s := &fakeSessionStore{sessions: make(map[uuid.UUID]model.Session)}
	for _, sess := range sessions {
		s.sessions[sess.ID] = sess
	}
	return s
}

func (s *fakeSessionStore) GetByID(_ context.Context, id uuid.UUID) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &sess, nil
}

func (s *fakeSessionStore) GetByUserAndTest(_ context.Context, userID int, testID uuid.UUID) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.UserID == userID && sess.TestID == testID {
			out := sess
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *fakeSessionStore) Create(_ context.Context, sess *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.sessions {
		if existing.UserID == sess.UserID && existing.TestID == sess.TestID {
			return pgx.ErrNoRows
		}
	}
	sess.ID = uuid.New()
	s.sessions[sess.ID] = *sess
	return nil
}

func (s *fakeSessionStore) Mutate(_ context.Context, id uuid.UUID, fn func(pgx.Tx, *model.Session) error) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if err := fn(nil, &sess); err != nil {
		return nil, err
	}
	s.sessions[id] = sess
	out := sess
	return &out, nil
}

// fakeTestStore serves a fixed set of tests with per-user eligibility.
type fakeTestStore struct {
	tests    map[uuid.UUID]model.Test
	eligible map[int]bool
}

func newFakeTestStore(t model.Test, eligibleUsers ...int) *fakeTestStore {
	s := &fakeTestStore{
		tests:    map[uuid.UUID]model.Test{t.ID: t},
		eligible: make(map[int]bool),
	}
	for _, userID := range eligibleUsers {
		s.eligible[userID] = true
	}
	return s
}

func (s *fakeTestStore) GetByID(_ context.Context, id uuid.UUID) (*model.Test, error) {
	t, ok := s.tests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &t, nil
}

func (s *fakeTestStore) IsEligible(_ context.Context, _ uuid.UUID, userID int) (bool, error) {
	return s.eligible[userID], nil
}

// fakeScorer returns a fixed score and records how often it ran.
type fakeScorer struct {
	score int
	calls int
}

func (s *fakeScorer) Calculate(_ context.Context, _ *model.Session) (int, error) {
	s.calls++
	return s.score, nil
}

// fakeScoreSink records saved scores per session.
type fakeScoreSink struct {
	scores map[uuid.UUID]int
}

func newFakeScoreSink() *fakeScoreSink {
	return &fakeScoreSink{scores: make(map[uuid.UUID]int)}
}

func (s *fakeScoreSink) SaveScore(_ context.Context, sessionID uuid.UUID, score int) error {
	s.scores[sessionID] = score
	return nil
}

// fakeSnapshotCleaner records cleared sessions.
type fakeSnapshotCleaner struct {
	cleared []uuid.UUID
}

func (s *fakeSnapshotCleaner) Clear(_ context.Context, sessionID uuid.UUID) error {
	s.cleared = append(s.cleared, sessionID)
	return nil
}

// fakeAnswerStore records upserts keyed by (session, question).
type fakeAnswerStore struct {
	upsertErr error
	answers   map[uuid.UUID]map[uuid.UUID]model.UserAnswer
}

func newFakeAnswerStore() *fakeAnswerStore {
	return &fakeAnswerStore{answers: make(map[uuid.UUID]map[uuid.UUID]model.UserAnswer)}
}

func (s *fakeAnswerStore) UpsertTx(_ context.Context, _ pgx.Tx, a *model.UserAnswer) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	byQuestion, ok := s.answers[a.SessionID]
	if !ok {
		byQuestion = make(map[uuid.UUID]model.UserAnswer)
		s.answers[a.SessionID] = byQuestion
	}
	a.UpdatedAt = time.Now()
	byQuestion[a.QuestionID] = *a
	return nil
}

func (s *fakeAnswerStore) ListBySession(_ context.Context, sessionID uuid.UUID) ([]model.UserAnswer, error) {
	var out []model.UserAnswer
	for _, a := range s.answers[sessionID] {
		out = append(out, a)
	}
	return out, nil
}

// fakeOptionResolver resolves options from a static (question, option) map.
type fakeOptionResolver struct {
	options map[uuid.UUID]map[uuid.UUID]model.AnswerOption
}

func newFakeOptionResolver() *fakeOptionResolver {
	return &fakeOptionResolver{options: make(map[uuid.UUID]map[uuid.UUID]model.AnswerOption)}
}

func (s *fakeOptionResolver) add(questionID uuid.UUID, opt model.AnswerOption) {
	byOption, ok := s.options[questionID]
	if !ok {
		byOption = make(map[uuid.UUID]model.AnswerOption)
		s.options[questionID] = byOption
	}
	byOption[opt.ID] = opt
}

func (s *fakeOptionResolver) GetOption(_ context.Context, questionID, optionID uuid.UUID) (*model.AnswerOption, error) {
	opt, ok := s.options[questionID][optionID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &opt, nil
}
