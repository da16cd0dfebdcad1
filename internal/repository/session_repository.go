package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wiradata/cbt-backend/internal/model"
)

const sessionColumns = `id, user_id, test_id, started_at, finished_at, status, is_locked, lock_reason, locked_by, locked_at`

// SessionRepository handles exam session data access.
//
// All lifecycle mutations go through Mutate, which serializes concurrent
// writers (participant vs proctor) on the session row with FOR UPDATE.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func scanSession(row pgx.Row) (*model.Session, error) {
	s := &model.Session{}
	err := row.Scan(&s.ID, &s.UserID, &s.TestID, &s.StartedAt, &s.FinishedAt,
		&s.Status, &s.IsLocked, &s.LockReason, &s.LockedBy, &s.LockedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetByID retrieves a session by its id.
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
}

// GetByUserAndTest retrieves the session for a specific user-test pair.
func (r *SessionRepository) GetByUserAndTest(ctx context.Context, userID int, testID uuid.UUID) (*model.Session, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE user_id = $1 AND test_id = $2`,
		userID, testID))
}

// Create inserts a new session. The (user_id, test_id) unique constraint
// makes a concurrent duplicate start surface as pgx.ErrNoRows here.
func (r *SessionRepository) Create(ctx context.Context, s *model.Session) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO sessions (user_id, test_id, started_at, status)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, test_id) DO NOTHING
		 RETURNING id`,
		s.UserID, s.TestID, s.StartedAt, s.Status,
	).Scan(&s.ID)
}

// Mutate loads the session row FOR UPDATE, applies fn to it and writes the
// mutable fields back, all inside one transaction. fn receives the open
// transaction so dependent writes (answer upserts) can share the lock scope.
func (r *SessionRepository) Mutate(ctx context.Context, id uuid.UUID, fn func(pgx.Tx, *model.Session) error) (*model.Session, error) {
	var out *model.Session

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		s, err := scanSession(tx.QueryRow(ctx,
			`SELECT `+sessionColumns+` FROM sessions WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}

		if err := fn(tx, s); err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE sessions
			 SET finished_at = $1, status = $2, is_locked = $3,
			     lock_reason = $4, locked_by = $5, locked_at = $6
			 WHERE id = $7`,
			s.FinishedAt, s.Status, s.IsLocked, s.LockReason, s.LockedBy, s.LockedAt, s.ID)
		if err != nil {
			return err
		}

		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListByUser retrieves all sessions of a participant, newest first.
func (r *SessionRepository) ListByUser(ctx context.Context, userID int) ([]model.Session, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE user_id = $1 ORDER BY started_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// ListExpired returns ids of ongoing sessions whose effective deadline
// (finished_at override, else started_at + test duration) has passed.
func (r *SessionRepository) ListExpired(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id
		 FROM sessions s
		 JOIN tests t ON s.test_id = t.id
		 WHERE s.status = $1
		   AND COALESCE(s.finished_at, s.started_at + make_interval(mins => t.duration_minutes)) <= $2`,
		model.SessionStatusOngoing, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
