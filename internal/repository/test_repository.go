package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wiradata/cbt-backend/internal/model"
)

// TestRepository handles test (authored exam) data access. Authoring CRUD
// lives outside this service; the core only reads.
type TestRepository struct {
	pool *pgxpool.Pool
}

// NewTestRepository creates a new TestRepository.
func NewTestRepository(pool *pgxpool.Pool) *TestRepository {
	return &TestRepository{pool: pool}
}

// GetByID retrieves a test by id.
func (r *TestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Test, error) {
	t := &model.Test{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, description, duration_minutes, start_time, end_time, is_active, created_at, updated_at
		 FROM tests WHERE id = $1`, id,
	).Scan(&t.ID, &t.Title, &t.Description, &t.DurationMinutes, &t.StartTime, &t.EndTime,
		&t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// IsEligible reports whether a test targets at least one of the user's groups.
func (r *TestRepository) IsEligible(ctx context.Context, testID uuid.UUID, userID int) (bool, error) {
	var eligible bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1
			FROM group_test gt
			JOIN group_user gu ON gt.group_id = gu.group_id
			WHERE gt.test_id = $1 AND gu.user_id = $2
		)`, testID, userID,
	).Scan(&eligible)
	return eligible, err
}

// ListEligible retrieves the active tests targeted at the user's groups,
// soonest window first. The lobby overlays session state on top of this.
func (r *TestRepository) ListEligible(ctx context.Context, userID int) ([]model.Test, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT t.id, t.title, t.description, t.duration_minutes, t.start_time, t.end_time,
		        t.is_active, t.created_at, t.updated_at
		 FROM tests t
		 JOIN group_test gt ON gt.test_id = t.id
		 JOIN group_user gu ON gu.group_id = gt.group_id
		 WHERE gu.user_id = $1 AND t.is_active = TRUE
		 ORDER BY t.start_time ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tests []model.Test
	for rows.Next() {
		var t model.Test
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.DurationMinutes, &t.StartTime,
			&t.EndTime, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}
	return tests, rows.Err()
}
