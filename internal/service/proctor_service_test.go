package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/wiradata/cbt-backend/internal/model"
)

type fakeResultStore struct {
	results map[uuid.UUID]*model.Result
}

func newFakeResultStore(results ...*model.Result) *fakeResultStore {
	s := &fakeResultStore{results: make(map[uuid.UUID]*model.Result)}
	for _, r := range results {
		s.results[r.SessionID] = r
	}
	return s
}

func (s *fakeResultStore) GetBySession(_ context.Context, sessionID uuid.UUID) (*model.Result, error) {
	r, ok := s.results[sessionID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *r
	return &out, nil
}

func (s *fakeResultStore) SetValidated(_ context.Context, sessionID uuid.UUID) error {
	if r, ok := s.results[sessionID]; ok {
		r.Status = model.ResultStatusValidated
	}
	return nil
}

func newProctorFixture(results *fakeResultStore) (*ProctorService, *fakeSessionStore, model.Session) {
	test := activeTest(60)
	sess := ongoingSession(1, test.ID)
	sessions := newFakeSessionStore(sess)
	lifecycle := newLifecycle(sessions, newFakeTestStore(test, 1), &fakeScorer{score: 80}, newFakeScoreSink())
	return NewProctorService(lifecycle, results, zerolog.Nop()), sessions, sess
}

func TestProctorRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	participant := model.Actor{ID: 1, Role: model.RoleParticipant}
	svc, _, sess := newProctorFixture(newFakeResultStore())

	if _, err := svc.Lock(ctx, participant, sess.ID, "reason", t0); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Lock: expected ErrUnauthorized, got %v", err)
	}
	if _, err := svc.Unlock(ctx, participant, sess.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Unlock: expected ErrUnauthorized, got %v", err)
	}
	if _, err := svc.AddTime(ctx, participant, sess.ID, 10, t0); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("AddTime: expected ErrUnauthorized, got %v", err)
	}
	if _, err := svc.ForceSubmit(ctx, participant, sess.ID, nil, t0); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("ForceSubmit: expected ErrUnauthorized, got %v", err)
	}
	if _, err := svc.ValidateResult(ctx, participant, sess.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("ValidateResult: expected ErrUnauthorized, got %v", err)
	}
}

func TestProctorLockFlow(t *testing.T) {
	ctx := context.Background()
	admin := model.Actor{ID: 9, Role: model.RoleAdmin}
	svc, _, sess := newProctorFixture(newFakeResultStore())

	locked, err := svc.Lock(ctx, admin, sess.ID, "talking", t0.Add(5*time.Minute))
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if !locked.IsLocked || locked.LockedBy == nil || *locked.LockedBy != admin.ID {
		t.Errorf("lock state = %+v", locked)
	}

	unlocked, err := svc.Unlock(ctx, admin, sess.ID)
	if err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if unlocked.IsLocked {
		t.Error("still locked after unlock")
	}
}

func TestValidateResult(t *testing.T) {
	ctx := context.Background()
	admin := model.Actor{ID: 9, Role: model.RoleAdmin}

	t.Run("recomputes and marks validated", func(t *testing.T) {
		results := newFakeResultStore()
		svc, sessions, sess := newProctorFixture(results)
		submitted := t0.Add(40 * time.Minute)
		if _, err := sessions.Mutate(ctx, sess.ID, func(_ pgx.Tx, s *model.Session) error {
			s.Status = model.SessionStatusSubmitted
			s.FinishedAt = &submitted
			return nil
		}); err != nil {
			t.Fatalf("submit fixture session: %v", err)
		}
		results.results[sess.ID] = &model.Result{SessionID: sess.ID, TotalScore: 40, Status: model.ResultStatusPending}

		validated, err := svc.ValidateResult(ctx, admin, sess.ID)
		if err != nil {
			t.Fatalf("ValidateResult: %v", err)
		}
		if validated.Status != model.ResultStatusValidated {
			t.Errorf("status = %s, want validated", validated.Status)
		}
	})

	t.Run("missing result", func(t *testing.T) {
		svc, _, sess := newProctorFixture(newFakeResultStore())

		if _, err := svc.ValidateResult(ctx, admin, sess.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
