package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wiradata/cbt-backend/internal/model"
)

// OngoingSessionRow is one in-progress session as shown on the live
// monitoring screen.
type OngoingSessionRow struct {
	SessionID  uuid.UUID
	UserID     int
	UserName   string
	StartedAt  time.Time
	FinishedAt *time.Time
	IsLocked   bool
	LockReason *string
}

// MonitorRepository provides data access for live exam monitoring.
type MonitorRepository struct {
	pool *pgxpool.Pool
}

// NewMonitorRepository creates a new MonitorRepository.
func NewMonitorRepository(pool *pgxpool.Pool) *MonitorRepository {
	return &MonitorRepository{pool: pool}
}

// GetOngoingSessions returns every ongoing session of a test with the
// participant name and lock state.
func (r *MonitorRepository) GetOngoingSessions(ctx context.Context, testID uuid.UUID) ([]OngoingSessionRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.user_id, u.name, s.started_at, s.finished_at, s.is_locked, s.lock_reason
		 FROM sessions s
		 JOIN users u ON s.user_id = u.id
		 WHERE s.test_id = $1 AND s.status = $2
		 ORDER BY u.name ASC`,
		testID, model.SessionStatusOngoing)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []OngoingSessionRow
	for rows.Next() {
		var row OngoingSessionRow
		if err := rows.Scan(&row.SessionID, &row.UserID, &row.UserName, &row.StartedAt,
			&row.FinishedAt, &row.IsLocked, &row.LockReason); err != nil {
			return nil, err
		}
		sessions = append(sessions, row)
	}
	return sessions, rows.Err()
}

// GetAnsweredCounts returns how many questions each session of a test has
// answered so far, keyed by session id.
func (r *MonitorRepository) GetAnsweredCounts(ctx context.Context, testID uuid.UUID) (map[uuid.UUID]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ua.session_id, COUNT(*)
		 FROM user_answers ua
		 JOIN sessions s ON ua.session_id = s.id
		 WHERE s.test_id = $1
		 GROUP BY ua.session_id`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int64)
	for rows.Next() {
		var sid uuid.UUID
		var count int64
		if err := rows.Scan(&sid, &count); err != nil {
			return nil, err
		}
		counts[sid] = count
	}
	return counts, rows.Err()
}
