package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/wiradata/cbt-backend/internal/model"
)

type fakePaperSource struct {
	topicID   int
	topicErr  error
	questions []model.Question
	gotTopic  int
}

func (f *fakePaperSource) FirstTopicID(_ context.Context, _ uuid.UUID) (int, error) {
	return f.topicID, f.topicErr
}

func (f *fakePaperSource) ListActiveByTopic(_ context.Context, topicID int) ([]model.Question, error) {
	f.gotTopic = topicID
	return f.questions, nil
}

type fakeSnapshots struct {
	snap map[string]string
	err  error
}

func (f *fakeSnapshots) Snapshot(_ context.Context, _ uuid.UUID) (map[string]string, error) {
	return f.snap, f.err
}

func newExamFixture(source *fakePaperSource, answers *fakeAnswerStore, snapshots *fakeSnapshots) (*ExamService, model.Session) {
	test := activeTest(60)
	sess := ongoingSession(1, test.ID)
	sessions := newFakeSessionStore(sess)
	lifecycle := newLifecycle(sessions, newFakeTestStore(test, 1), &fakeScorer{}, newFakeScoreSink())
	var snaps AnswerSnapshots
	if snapshots != nil {
		snaps = snapshots
	}
	svc := NewExamService(lifecycle, nil, nil, source, answers, snaps, nil, zerolog.Nop())
	return svc, sess
}

func TestPaperFirstTopicActiveOnly(t *testing.T) {
	ctx := context.Background()

	t.Run("serves the first topic's pool", func(t *testing.T) {
		questionID := uuid.New()
		source := &fakePaperSource{
			topicID: 7,
			questions: []model.Question{{
				ID:           questionID,
				TopicID:      7,
				QuestionText: "What is 2 + 2?",
				Type:         model.QuestionTypeMultipleChoice,
				IsActive:     true,
				Options: []model.AnswerOption{
					{ID: uuid.New(), QuestionID: questionID, AnswerText: "4", IsCorrect: true},
					{ID: uuid.New(), QuestionID: questionID, AnswerText: "5", IsCorrect: false},
				},
			}},
		}
		svc, sess := newExamFixture(source, newFakeAnswerStore(), nil)

		paper, err := svc.Paper(ctx, 1, sess.ID)
		if err != nil {
			t.Fatalf("Paper: %v", err)
		}
		if source.gotTopic != 7 {
			t.Errorf("listed topic %d, want the first topic 7", source.gotTopic)
		}
		if len(paper) != 1 || len(paper[0].Options) != 2 {
			t.Fatalf("paper = %+v, want 1 question with 2 options", paper)
		}
	})

	t.Run("test without topics yields an empty paper", func(t *testing.T) {
		svc, sess := newExamFixture(&fakePaperSource{topicErr: pgx.ErrNoRows}, newFakeAnswerStore(), nil)

		paper, err := svc.Paper(ctx, 1, sess.ID)
		if err != nil {
			t.Fatalf("Paper: %v", err)
		}
		if len(paper) != 0 {
			t.Errorf("paper = %+v, want empty", paper)
		}
	})

	t.Run("other participant is rejected", func(t *testing.T) {
		svc, sess := newExamFixture(&fakePaperSource{topicID: 7}, newFakeAnswerStore(), nil)

		if _, err := svc.Paper(ctx, 2, sess.ID); !errors.Is(err, ErrNotSessionParticipant) {
			t.Fatalf("expected ErrNotSessionParticipant, got %v", err)
		}
	})
}

func TestStateAnswersFromMirror(t *testing.T) {
	ctx := context.Background()
	now := t0.Add(10 * time.Minute)

	choiceQ, textQ, optionID := uuid.New(), uuid.New(), uuid.New()
	snapshots := &fakeSnapshots{snap: map[string]string{
		choiceQ.String(): optionID.String(),
		textQ.String():   "photosynthesis",
	}}
	store := newFakeAnswerStore()
	svc, sess := newExamFixture(&fakePaperSource{}, store, snapshots)

	state, err := svc.State(ctx, 1, sess.ID, now)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if len(state.Answers) != 2 {
		t.Fatalf("answers = %d, want 2 from the mirror", len(state.Answers))
	}
	byQuestion := make(map[uuid.UUID]model.UserAnswer, len(state.Answers))
	for _, a := range state.Answers {
		byQuestion[a.QuestionID] = a
	}
	if a := byQuestion[choiceQ]; a.AnswerID == nil || *a.AnswerID != optionID {
		t.Errorf("choice answer = %+v, want option %v", a, optionID)
	}
	if a := byQuestion[textQ]; a.AnswerText == nil || *a.AnswerText != "photosynthesis" {
		t.Errorf("text answer = %+v, want the saved text", a)
	}
}

func TestStateFallsBackToDatabase(t *testing.T) {
	ctx := context.Background()
	now := t0.Add(10 * time.Minute)
	questionID := uuid.New()

	run := func(t *testing.T, snapshots *fakeSnapshots) {
		t.Helper()
		store := newFakeAnswerStore()
		svc, sess := newExamFixture(&fakePaperSource{}, store, snapshots)
		if err := store.UpsertTx(ctx, nil, &model.UserAnswer{
			SessionID: sess.ID, QuestionID: questionID,
		}); err != nil {
			t.Fatalf("seed answer: %v", err)
		}

		state, err := svc.State(ctx, 1, sess.ID, now)
		if err != nil {
			t.Fatalf("State: %v", err)
		}
		if len(state.Answers) != 1 || state.Answers[0].QuestionID != questionID {
			t.Fatalf("answers = %+v, want the database row", state.Answers)
		}
	}

	t.Run("empty mirror", func(t *testing.T) {
		run(t, &fakeSnapshots{snap: map[string]string{}})
	})

	t.Run("unreachable mirror", func(t *testing.T) {
		run(t, &fakeSnapshots{err: errors.New("redis down")})
	})
}
