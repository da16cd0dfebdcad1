package model

import (
	"time"

	"github.com/google/uuid"
)

// UserAnswer is a participant's recorded answer to one question, keyed
// uniquely by (session, question). Re-submission overwrites; no history.
//
// IsCorrect is tri-state: true/false for scored objective selections,
// nil when no option was selected (essay, short answer, explicit clear).
type UserAnswer struct {
	ID         int64      `json:"id"`
	SessionID  uuid.UUID  `json:"session_id"`
	QuestionID uuid.UUID  `json:"question_id"`
	AnswerID   *uuid.UUID `json:"answer_id,omitempty"`
	AnswerText *string    `json:"answer_text,omitempty"`
	IsCorrect  *bool      `json:"is_correct,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
