package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wiradata/cbt-backend/internal/model"
)

// AnswerRepository handles answer-record data access. Records are keyed
// uniquely by (session_id, question_id); the last write wins.
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

// UpsertTx writes an answer record inside the caller's transaction so the
// write shares the session row lock taken by SessionRepository.Mutate.
func (r *AnswerRepository) UpsertTx(ctx context.Context, tx pgx.Tx, a *model.UserAnswer) error {
	return tx.QueryRow(ctx,
		`INSERT INTO user_answers (session_id, question_id, answer_id, answer_text, is_correct)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (session_id, question_id)
		 DO UPDATE SET answer_id = EXCLUDED.answer_id,
		               answer_text = EXCLUDED.answer_text,
		               is_correct = EXCLUDED.is_correct,
		               updated_at = NOW()
		 RETURNING id, updated_at`,
		a.SessionID, a.QuestionID, a.AnswerID, a.AnswerText, a.IsCorrect,
	).Scan(&a.ID, &a.UpdatedAt)
}

// ListBySession retrieves all answer records of one session.
func (r *AnswerRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.UserAnswer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, question_id, answer_id, answer_text, is_correct, updated_at
		 FROM user_answers
		 WHERE session_id = $1
		 ORDER BY updated_at ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.UserAnswer
	for rows.Next() {
		var a model.UserAnswer
		if err := rows.Scan(&a.ID, &a.SessionID, &a.QuestionID, &a.AnswerID,
			&a.AnswerText, &a.IsCorrect, &a.UpdatedAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// CountCorrectMultipleChoice counts a session's correct answers to
// multiple-choice questions. Used by the scoring engine.
func (r *AnswerRepository) CountCorrectMultipleChoice(ctx context.Context, sessionID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*)
		 FROM user_answers ua
		 JOIN questions q ON ua.question_id = q.id
		 WHERE ua.session_id = $1
		   AND ua.is_correct = TRUE
		   AND q.type = $2`,
		sessionID, model.QuestionTypeMultipleChoice,
	).Scan(&count)
	return count, err
}
