package model

import (
	"time"

	"github.com/google/uuid"
)

// Test is an authored exam: a timed window plus one or more topics
// targeted at participant groups.
type Test struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	DurationMinutes int       `json:"duration_minutes"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TestTopic is the per-topic attachment of a test: how many questions of
// which type the topic contributes.
type TestTopic struct {
	TestID         uuid.UUID `json:"test_id"`
	TopicID        int       `json:"topic_id"`
	TotalQuestions int       `json:"total_questions"`
	QuestionType   string    `json:"question_type"` // multiple_choice | essay | short_answer | mixed
}

// WithinWindow reports whether now falls inside the test's scheduled
// availability window.
func (t *Test) WithinWindow(now time.Time) bool {
	return !now.Before(t.StartTime) && !now.After(t.EndTime)
}
