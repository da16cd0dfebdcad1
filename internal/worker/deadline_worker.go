package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wiradata/cbt-backend/internal/model"
)

// ExpiredLister finds ongoing sessions whose deadline has passed.
type ExpiredLister interface {
	ListExpired(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

// Finisher submits a session. The submission is idempotent, so a sweep
// racing a participant's own finish is harmless.
type Finisher interface {
	Finish(ctx context.Context, sessionID uuid.UUID, now time.Time) (*model.Session, error)
}

// DeadlineWorker periodically sweeps ongoing sessions past their
// deadline and submits them server-side. Clients show the countdown but
// the sweep is what actually closes an abandoned session.
type DeadlineWorker struct {
	sessions ExpiredLister
	finisher Finisher
	interval time.Duration
	log      zerolog.Logger
}

// NewDeadlineWorker creates a new DeadlineWorker.
func NewDeadlineWorker(sessions ExpiredLister, finisher Finisher, interval time.Duration, log zerolog.Logger) *DeadlineWorker {
	return &DeadlineWorker{
		sessions: sessions,
		finisher: finisher,
		interval: interval,
		log:      log.With().Str("component", "deadline_worker").Logger(),
	}
}

// Start begins the sweep loop. Call in a goroutine.
func (w *DeadlineWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// Sweep runs one pass. Exported so tests and the startup path can force
// a sweep without waiting for the ticker.
func (w *DeadlineWorker) Sweep(ctx context.Context) {
	w.sweep(ctx)
}

func (w *DeadlineWorker) sweep(ctx context.Context) {
	now := time.Now()

	expired, err := w.sessions.ListExpired(ctx, now)
	if err != nil {
		w.log.Error().Err(err).Msg("List expired sessions failed")
		return
	}
	if len(expired) == 0 {
		return
	}

	submitted := 0
	for _, sessionID := range expired {
		if _, err := w.finisher.Finish(ctx, sessionID, now); err != nil {
			w.log.Error().Err(err).Str("session_id", sessionID.String()).Msg("Auto-submit failed")
			continue
		}
		submitted++
	}

	w.log.Info().
		Int("expired", len(expired)).
		Int("submitted", submitted).
		Msg("Deadline sweep completed")
}
