package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wiradata/cbt-backend/internal/model"
)

// ResultRepository handles the cached score projection. The scoring
// engine's recompute is always authoritative over what is stored here.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// SaveScore upserts the cached score of a session, preserving any
// existing validation status.
func (r *ResultRepository) SaveScore(ctx context.Context, sessionID uuid.UUID, score int) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO results (session_id, total_score, status)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (session_id)
		 DO UPDATE SET total_score = EXCLUDED.total_score, updated_at = NOW()`,
		sessionID, score, model.ResultStatusPending)
	return err
}

// SetValidated marks a session's result as validated by an administrator.
func (r *ResultRepository) SetValidated(ctx context.Context, sessionID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE results SET status = $1, updated_at = NOW() WHERE session_id = $2`,
		model.ResultStatusValidated, sessionID)
	return err
}

// GetBySession retrieves the cached result of a session.
func (r *ResultRepository) GetBySession(ctx context.Context, sessionID uuid.UUID) (*model.Result, error) {
	res := &model.Result{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, session_id, total_score, status, updated_at FROM results WHERE session_id = $1`,
		sessionID,
	).Scan(&res.ID, &res.SessionID, &res.TotalScore, &res.Status, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return res, nil
}
