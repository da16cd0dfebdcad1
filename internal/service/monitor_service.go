package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wiradata/cbt-backend/internal/model"
	"github.com/wiradata/cbt-backend/internal/repository"
)

// MonitorService builds the live proctoring snapshot for a test.
type MonitorService struct {
	monitorRepo *repository.MonitorRepository
	tests       TestStore
}

// NewMonitorService creates a new MonitorService.
func NewMonitorService(monitorRepo *repository.MonitorRepository, tests TestStore) *MonitorService {
	return &MonitorService{monitorRepo: monitorRepo, tests: tests}
}

// ParticipantProgress is one ongoing session as the proctor sees it.
type ParticipantProgress struct {
	SessionID        uuid.UUID  `json:"session_id"`
	UserID           int        `json:"user_id"`
	UserName         string     `json:"user_name"`
	StartedAt        time.Time  `json:"started_at"`
	RemainingSeconds int64      `json:"remaining_seconds"`
	IsLocked         bool       `json:"is_locked"`
	LockReason       *string    `json:"lock_reason,omitempty"`
	AnsweredCount    int64      `json:"answered_count"`
}

// Snapshot returns every ongoing session of the test with its answered
// count and server-computed remaining time. Session rows and answer
// counts are fetched in parallel; counts are best-effort and default to
// zero when their query fails.
func (s *MonitorService) Snapshot(ctx context.Context, testID uuid.UUID, now time.Time) ([]ParticipantProgress, error) {
	test, err := s.tests.GetByID(ctx, testID)
	if err != nil {
		return nil, err
	}

	var (
		rows     []repository.OngoingSessionRow
		counts   map[uuid.UUID]int64
		rowsErr  error
		countErr error
		wg       sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		rows, rowsErr = s.monitorRepo.GetOngoingSessions(ctx, testID)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		counts, countErr = s.monitorRepo.GetAnsweredCounts(ctx, testID)
	}()

	wg.Wait()

	if rowsErr != nil {
		return nil, rowsErr
	}
	if countErr != nil {
		counts = map[uuid.UUID]int64{}
	}

	progress := make([]ParticipantProgress, 0, len(rows))
	for _, row := range rows {
		sess := model.Session{
			StartedAt:  row.StartedAt,
			FinishedAt: row.FinishedAt,
			Status:     model.SessionStatusOngoing,
		}
		progress = append(progress, ParticipantProgress{
			SessionID:        row.SessionID,
			UserID:           row.UserID,
			UserName:         row.UserName,
			StartedAt:        row.StartedAt,
			RemainingSeconds: int64(sess.Remaining(test.DurationMinutes, now).Seconds()),
			IsLocked:         row.IsLocked,
			LockReason:       row.LockReason,
			AnsweredCount:    counts[row.SessionID],
		})
	}
	return progress, nil
}
