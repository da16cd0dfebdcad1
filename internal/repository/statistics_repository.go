package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wiradata/cbt-backend/internal/model"
)

// SessionResultRow is one submitted session with its participant and
// cached score, as consumed by the statistics engine.
type SessionResultRow struct {
	SessionID  uuid.UUID
	UserID     int
	UserName   string
	Score      *int
	FinishedAt *time.Time
}

// TestAnswerRow is one answer record from a submitted session of a test.
type TestAnswerRow struct {
	QuestionID uuid.UUID
	AnswerID   *uuid.UUID
	IsCorrect  *bool
}

// HistoryRow is one session in a participant's cross-test history.
type HistoryRow struct {
	SessionID  uuid.UUID
	TestID     uuid.UUID
	TestTitle  string
	Score      *int
	Status     model.SessionStatus
	StartedAt  time.Time
	FinishedAt *time.Time
}

// StatisticsRepository provides the read-only row sets the statistics
// engine aggregates in memory. It never mutates state and does not need
// to be transactionally consistent with in-flight session writes.
type StatisticsRepository struct {
	pool *pgxpool.Pool
}

// NewStatisticsRepository creates a new StatisticsRepository.
func NewStatisticsRepository(pool *pgxpool.Pool) *StatisticsRepository {
	return &StatisticsRepository{pool: pool}
}

// SubmittedResults retrieves every submitted session of a test with the
// participant name and cached score.
func (r *StatisticsRepository) SubmittedResults(ctx context.Context, testID uuid.UUID) ([]SessionResultRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.user_id, u.name, res.total_score, s.finished_at
		 FROM sessions s
		 JOIN users u ON s.user_id = u.id
		 LEFT JOIN results res ON res.session_id = s.id
		 WHERE s.test_id = $1 AND s.status = $2
		 ORDER BY s.finished_at ASC`,
		testID, model.SessionStatusSubmitted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SessionResultRow
	for rows.Next() {
		var row SessionResultRow
		if err := rows.Scan(&row.SessionID, &row.UserID, &row.UserName, &row.Score, &row.FinishedAt); err != nil {
			return nil, err
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// AnswersForTest retrieves every answer record belonging to submitted
// sessions of a test.
func (r *StatisticsRepository) AnswersForTest(ctx context.Context, testID uuid.UUID) ([]TestAnswerRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ua.question_id, ua.answer_id, ua.is_correct
		 FROM user_answers ua
		 JOIN sessions s ON ua.session_id = s.id
		 WHERE s.test_id = $1 AND s.status = $2`,
		testID, model.SessionStatusSubmitted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []TestAnswerRow
	for rows.Next() {
		var row TestAnswerRow
		if err := rows.Scan(&row.QuestionID, &row.AnswerID, &row.IsCorrect); err != nil {
			return nil, err
		}
		answers = append(answers, row)
	}
	return answers, rows.Err()
}

// HistoryByUser retrieves every session of one participant across all
// tests, newest first.
func (r *StatisticsRepository) HistoryByUser(ctx context.Context, userID int) ([]HistoryRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.test_id, t.title, res.total_score, s.status, s.started_at, s.finished_at
		 FROM sessions s
		 JOIN tests t ON s.test_id = t.id
		 LEFT JOIN results res ON res.session_id = s.id
		 WHERE s.user_id = $1
		 ORDER BY s.started_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []HistoryRow
	for rows.Next() {
		var row HistoryRow
		if err := rows.Scan(&row.SessionID, &row.TestID, &row.TestTitle, &row.Score,
			&row.Status, &row.StartedAt, &row.FinishedAt); err != nil {
			return nil, err
		}
		history = append(history, row)
	}
	return history, rows.Err()
}
