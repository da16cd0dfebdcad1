package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates exam session states.
type SessionStatus string

const (
	SessionStatusOngoing   SessionStatus = "ongoing"
	SessionStatusSubmitted SessionStatus = "submitted"
)

// Session represents one participant's attempt at a test.
//
// FinishedAt carries two meanings: while the session is ongoing it is the
// deadline override granted by a time extension (nil means the deadline is
// started_at + test duration); once submitted it is the submission moment.
type Session struct {
	ID         uuid.UUID     `json:"id"`
	UserID     int           `json:"user_id"`
	TestID     uuid.UUID     `json:"test_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
	Status     SessionStatus `json:"status"`
	IsLocked   bool          `json:"is_locked"`
	LockReason *string       `json:"lock_reason,omitempty"`
	LockedBy   *int          `json:"locked_by,omitempty"`
	LockedAt   *time.Time    `json:"locked_at,omitempty"`
}

// Deadline returns the moment after which answer writes are rejected.
// A FinishedAt set on an ongoing session (time extension) overrides the
// started_at + duration default.
func (s *Session) Deadline(durationMinutes int) time.Time {
	if s.FinishedAt != nil {
		return *s.FinishedAt
	}
	return s.StartedAt.Add(time.Duration(durationMinutes) * time.Minute)
}

// Remaining returns the time left before the deadline, measured with the
// server clock passed by the caller. Never negative.
func (s *Session) Remaining(durationMinutes int, now time.Time) time.Duration {
	left := s.Deadline(durationMinutes).Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// LockSessionRequest is the payload for locking a session.
type LockSessionRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// AddTimeRequest is the payload for a time extension.
type AddTimeRequest struct {
	Minutes int     `json:"minutes" binding:"required,min=1,max=120"`
	Reason  *string `json:"reason" binding:"omitempty,max=500"`
}

// ForceSubmitRequest is the payload for an administrative force submit.
type ForceSubmitRequest struct {
	ExtendMinutes *int `json:"extend_minutes" binding:"omitempty,min=1,max=120"`
}

// SubmitAnswerRequest is the payload for recording an answer.
type SubmitAnswerRequest struct {
	QuestionID string  `json:"question_id" binding:"required,uuid"`
	AnswerID   *string `json:"answer_id" binding:"omitempty,uuid"`
	AnswerText *string `json:"answer_text" binding:"omitempty,max=10000"`
}
