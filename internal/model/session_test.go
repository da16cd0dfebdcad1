package model

import (
	"testing"
	"time"
)

func TestSessionDeadline(t *testing.T) {
	started := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	sess := Session{StartedAt: started, Status: SessionStatusOngoing}

	if got, want := sess.Deadline(90), started.Add(90*time.Minute); !got.Equal(want) {
		t.Errorf("Deadline = %v, want %v", got, want)
	}

	extended := started.Add(2 * time.Hour)
	sess.FinishedAt = &extended
	if got := sess.Deadline(90); !got.Equal(extended) {
		t.Errorf("Deadline with extension = %v, want %v", got, extended)
	}
}

func TestSessionRemaining(t *testing.T) {
	started := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	sess := Session{StartedAt: started, Status: SessionStatusOngoing}

	if got := sess.Remaining(60, started.Add(45*time.Minute)); got != 15*time.Minute {
		t.Errorf("Remaining = %v, want 15m", got)
	}
	if got := sess.Remaining(60, started.Add(60*time.Minute)); got != 0 {
		t.Errorf("Remaining at deadline = %v, want 0", got)
	}
	if got := sess.Remaining(60, started.Add(3*time.Hour)); got != 0 {
		t.Errorf("Remaining past deadline = %v, want 0", got)
	}
}
