package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wiradata/cbt-backend/internal/model"
)

type fakeExpiredLister struct {
	ids []uuid.UUID
	err error
}

func (f *fakeExpiredLister) ListExpired(_ context.Context, _ time.Time) ([]uuid.UUID, error) {
	return f.ids, f.err
}

type fakeFinisher struct {
	finished []uuid.UUID
	failOn   map[uuid.UUID]bool
}

func (f *fakeFinisher) Finish(_ context.Context, sessionID uuid.UUID, now time.Time) (*model.Session, error) {
	if f.failOn[sessionID] {
		return nil, errors.New("finish failed")
	}
	f.finished = append(f.finished, sessionID)
	return &model.Session{ID: sessionID, Status: model.SessionStatusSubmitted, FinishedAt: &now}, nil
}

func TestSweepSubmitsExpiredSessions(t *testing.T) {
	expired := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	finisher := &fakeFinisher{}
	w := NewDeadlineWorker(&fakeExpiredLister{ids: expired}, finisher, time.Minute, zerolog.Nop())

	w.Sweep(context.Background())

	if len(finisher.finished) != len(expired) {
		t.Fatalf("finished %d sessions, want %d", len(finisher.finished), len(expired))
	}
	for i, id := range expired {
		if finisher.finished[i] != id {
			t.Errorf("finished[%d] = %s, want %s", i, finisher.finished[i], id)
		}
	}
}

func TestSweepContinuesPastFailures(t *testing.T) {
	good1, bad, good2 := uuid.New(), uuid.New(), uuid.New()
	finisher := &fakeFinisher{failOn: map[uuid.UUID]bool{bad: true}}
	w := NewDeadlineWorker(&fakeExpiredLister{ids: []uuid.UUID{good1, bad, good2}}, finisher, time.Minute, zerolog.Nop())

	w.Sweep(context.Background())

	if len(finisher.finished) != 2 {
		t.Fatalf("finished %d sessions, want 2", len(finisher.finished))
	}
}

func TestSweepNoExpiredSessions(t *testing.T) {
	finisher := &fakeFinisher{}
	w := NewDeadlineWorker(&fakeExpiredLister{}, finisher, time.Minute, zerolog.Nop())

	w.Sweep(context.Background())

	if len(finisher.finished) != 0 {
		t.Errorf("finished %d sessions, want 0", len(finisher.finished))
	}
}
