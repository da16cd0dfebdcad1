package model

import "github.com/google/uuid"

// QuestionType enumerates the supported item formats. Only multiple
// choice items are auto-scored; essay and short answer are recorded only.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeEssay          QuestionType = "essay"
	QuestionTypeShortAnswer    QuestionType = "short_answer"
)

// Question is a single item inside a topic's pool.
type Question struct {
	ID           uuid.UUID      `json:"id"`
	TopicID      int            `json:"topic_id"`
	QuestionText string         `json:"question_text"`
	Type         QuestionType   `json:"type"`
	IsActive     bool           `json:"is_active"`
	Options      []AnswerOption `json:"options,omitempty"`
}

// AnswerOption is one selectable choice of a multiple-choice question.
type AnswerOption struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	AnswerText string    `json:"answer_text"`
	IsCorrect  bool      `json:"is_correct"`
}

// SanitizedOption is an answer option with the correctness flag stripped,
// safe to send to participants.
type SanitizedOption struct {
	ID         uuid.UUID `json:"id"`
	AnswerText string    `json:"answer_text"`
}

// SanitizedQuestion is a question as delivered to a participant's paper.
type SanitizedQuestion struct {
	ID           uuid.UUID         `json:"id"`
	QuestionText string            `json:"question_text"`
	Type         QuestionType      `json:"type"`
	Options      []SanitizedOption `json:"options,omitempty"`
}

// Sanitize strips correct-answer information from a question.
func (q Question) Sanitize() SanitizedQuestion {
	out := SanitizedQuestion{
		ID:           q.ID,
		QuestionText: q.QuestionText,
		Type:         q.Type,
	}
	for _, opt := range q.Options {
		out.Options = append(out.Options, SanitizedOption{ID: opt.ID, AnswerText: opt.AnswerText})
	}
	return out
}
