package model

import "time"

// Role distinguishes administrators (proctors) from exam participants.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleParticipant Role = "participant"
)

// User represents an account: either an administrator or a participant.
// Proctor identity (Session.LockedBy) references the same table.
type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Identifier   string    `json:"identifier"` // student/registration number
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Actor identifies who is performing an administrative command.
// Proctor operations validate the role before any state mutation.
type Actor struct {
	ID   int  `json:"id"`
	Role Role `json:"role"`
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// LoginRequest is the payload for authenticating either role.
// Login accepts an email address or a participant identifier.
type LoginRequest struct {
	Login    string `json:"login" binding:"required,min=3,max=255"`
	Password string `json:"password" binding:"required,min=6"`
}
