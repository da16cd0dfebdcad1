package model

import (
	"time"

	"github.com/google/uuid"
)

// ResultStatus tracks administrative validation of a cached score.
type ResultStatus string

const (
	ResultStatusPending   ResultStatus = "pending"
	ResultStatusValidated ResultStatus = "validated"
)

// Result is the cached total score of a session. It is a projection:
// recomputing through the scoring engine is always authoritative over
// the stored value.
type Result struct {
	ID         int64        `json:"id"`
	SessionID  uuid.UUID    `json:"session_id"`
	TotalScore int          `json:"total_score"`
	Status     ResultStatus `json:"status"`
	UpdatedAt  time.Time    `json:"updated_at"`
}
