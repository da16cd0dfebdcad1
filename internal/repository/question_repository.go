package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wiradata/cbt-backend/internal/model"
)

// QuestionRepository handles question and answer-option data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// FirstTopicID returns the first topic attached to a test. Scoring
// considers exactly one topic per test; "first" is the lowest topic id,
// mirroring the attachment order of the authoring flow. pgx.ErrNoRows
// when the test has no topics (or does not exist).
func (r *QuestionRepository) FirstTopicID(ctx context.Context, testID uuid.UUID) (int, error) {
	var topicID int
	err := r.pool.QueryRow(ctx,
		`SELECT topic_id FROM test_topics WHERE test_id = $1 ORDER BY topic_id ASC LIMIT 1`,
		testID,
	).Scan(&topicID)
	return topicID, err
}

// CountActiveMultipleChoice counts the scorable question pool of a topic.
func (r *QuestionRepository) CountActiveMultipleChoice(ctx context.Context, topicID int) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM questions WHERE topic_id = $1 AND type = $2 AND is_active = TRUE`,
		topicID, model.QuestionTypeMultipleChoice,
	).Scan(&count)
	return count, err
}

// ListActiveByTopic retrieves a topic's active questions with their options,
// ordered stably for paper delivery.
func (r *QuestionRepository) ListActiveByTopic(ctx context.Context, topicID int) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, topic_id, question_text, type, is_active
		 FROM questions
		 WHERE topic_id = $1 AND is_active = TRUE
		 ORDER BY id ASC`, topicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions, err := collectQuestions(rows)
	if err != nil {
		return nil, err
	}
	return r.attachOptions(ctx, questions)
}

// ListByTest retrieves every question of every topic attached to a test,
// active or not, with options. Item analysis covers the full attached pool.
func (r *QuestionRepository) ListByTest(ctx context.Context, testID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT q.id, q.topic_id, q.question_text, q.type, q.is_active
		 FROM questions q
		 JOIN test_topics tt ON q.topic_id = tt.topic_id
		 WHERE tt.test_id = $1
		 ORDER BY q.topic_id ASC, q.id ASC`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions, err := collectQuestions(rows)
	if err != nil {
		return nil, err
	}
	return r.attachOptions(ctx, questions)
}

// GetOption resolves one answer option scoped to its question, so an
// option id belonging to another question comes back as pgx.ErrNoRows.
func (r *QuestionRepository) GetOption(ctx context.Context, questionID, optionID uuid.UUID) (*model.AnswerOption, error) {
	opt := &model.AnswerOption{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, question_id, answer_text, is_correct FROM answer_options WHERE id = $1 AND question_id = $2`,
		optionID, questionID,
	).Scan(&opt.ID, &opt.QuestionID, &opt.AnswerText, &opt.IsCorrect)
	if err != nil {
		return nil, err
	}
	return opt, nil
}

type questionRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func collectQuestions(rows questionRows) ([]model.Question, error) {
	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.TopicID, &q.QuestionText, &q.Type, &q.IsActive); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// attachOptions loads the answer options of the given questions in one
// round trip and distributes them in memory.
func (r *QuestionRepository) attachOptions(ctx context.Context, questions []model.Question) ([]model.Question, error) {
	if len(questions) == 0 {
		return questions, nil
	}

	ids := make([]uuid.UUID, len(questions))
	index := make(map[uuid.UUID]int, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
		index[q.ID] = i
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, question_id, answer_text, is_correct
		 FROM answer_options
		 WHERE question_id = ANY($1)
		 ORDER BY question_id ASC, id ASC`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var opt model.AnswerOption
		if err := rows.Scan(&opt.ID, &opt.QuestionID, &opt.AnswerText, &opt.IsCorrect); err != nil {
			return nil, err
		}
		if i, ok := index[opt.QuestionID]; ok {
			questions[i].Options = append(questions[i].Options, opt)
		}
	}
	return questions, rows.Err()
}
