package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/wiradata/cbt-backend/internal/model"
)

type fakeScoringData struct {
	topicID  int
	hasTopic bool
	total    int
}

func (f *fakeScoringData) FirstTopicID(_ context.Context, _ uuid.UUID) (int, error) {
	if !f.hasTopic {
		return 0, pgx.ErrNoRows
	}
	return f.topicID, nil
}

func (f *fakeScoringData) CountActiveMultipleChoice(_ context.Context, _ int) (int, error) {
	return f.total, nil
}

type fakeCorrectCounter struct {
	correct int
}

func (f *fakeCorrectCounter) CountCorrectMultipleChoice(_ context.Context, _ uuid.UUID) (int, error) {
	return f.correct, nil
}

func TestCalculateScore(t *testing.T) {
	ctx := context.Background()
	session := &model.Session{ID: uuid.New(), TestID: uuid.New()}

	cases := []struct {
		name    string
		total   int
		correct int
		want    int
	}{
		{"seven of ten", 10, 7, 70},
		{"rounds half up", 3, 1, 33},
		{"two thirds", 3, 2, 67},
		{"all correct", 10, 10, 100},
		{"none correct", 10, 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewScoringService(
				&fakeScoringData{topicID: 1, hasTopic: true, total: tc.total},
				&fakeCorrectCounter{correct: tc.correct},
			)
			got, err := svc.Calculate(ctx, session)
			if err != nil {
				t.Fatalf("Calculate: %v", err)
			}
			if got != tc.want {
				t.Errorf("score = %d, want %d (%d/%d)", got, tc.want, tc.correct, tc.total)
			}
		})
	}

	t.Run("test without topics scores zero", func(t *testing.T) {
		svc := NewScoringService(&fakeScoringData{}, &fakeCorrectCounter{correct: 5})
		got, err := svc.Calculate(ctx, session)
		if err != nil {
			t.Fatalf("Calculate: %v", err)
		}
		if got != 0 {
			t.Errorf("score = %d, want 0", got)
		}
	})

	t.Run("empty scorable pool scores zero", func(t *testing.T) {
		svc := NewScoringService(&fakeScoringData{topicID: 1, hasTopic: true, total: 0}, &fakeCorrectCounter{})
		got, err := svc.Calculate(ctx, session)
		if err != nil {
			t.Fatalf("Calculate: %v", err)
		}
		if got != 0 {
			t.Errorf("score = %d, want 0", got)
		}
	})

	t.Run("deterministic across calls", func(t *testing.T) {
		svc := NewScoringService(
			&fakeScoringData{topicID: 1, hasTopic: true, total: 7},
			&fakeCorrectCounter{correct: 5},
		)
		first, _ := svc.Calculate(ctx, session)
		for i := 0; i < 5; i++ {
			again, _ := svc.Calculate(ctx, session)
			if again != first {
				t.Fatalf("call %d: score %d != %d", i, again, first)
			}
		}
	})
}
