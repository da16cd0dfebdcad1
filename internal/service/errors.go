package service

import "errors"

// Core error taxonomy. Handlers map these onto response codes; nothing in
// the core retries or swallows them, and a rejected precondition leaves no
// partial write.
var (
	// ErrNotFound signals an unknown session/test/question id.
	ErrNotFound = errors.New("resource not found")

	// ErrNotEligible signals a start attempt outside the test's window,
	// against an inactive test, or by a non-targeted participant.
	ErrNotEligible = errors.New("test is not available to this participant")

	// ErrDuplicateSession signals a second start for the same (user, test)
	// pair. At most one attempt per pair exists.
	ErrDuplicateSession = errors.New("an attempt for this test already exists")

	// ErrSessionClosed signals a write against a locked or submitted
	// session. Terminal: the caller must stop submitting.
	ErrSessionClosed = errors.New("session is locked or already submitted")

	// ErrSessionExpired signals that the server-computed remaining time is
	// zero. Distinct from ErrSessionClosed so clients can tell "locked by
	// proctor" from "ran out of time".
	ErrSessionExpired = errors.New("session time has elapsed")

	// ErrUnauthorized signals a proctor command from a non-admin actor.
	ErrUnauthorized = errors.New("actor does not hold the admin role")

	// ErrNotSessionParticipant signals a participant touching a session
	// that belongs to someone else.
	ErrNotSessionParticipant = errors.New("session belongs to another participant")

	// ErrEmptyLockReason signals a lock request without a usable reason.
	ErrEmptyLockReason = errors.New("lock reason must not be empty")

	// ErrLockReasonTooLong signals a lock reason over 500 characters.
	ErrLockReasonTooLong = errors.New("lock reason exceeds 500 characters")

	// ErrInvalidMinutes signals a time extension outside [1, 120] minutes.
	ErrInvalidMinutes = errors.New("extension minutes must be between 1 and 120")
)
