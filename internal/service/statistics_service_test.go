package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wiradata/cbt-backend/internal/model"
	"github.com/wiradata/cbt-backend/internal/repository"
)

type fakeStatisticsData struct {
	results []repository.SessionResultRow
	answers []repository.TestAnswerRow
	history []repository.HistoryRow
}

type fakeQuestionBank struct {
	questions []model.Question
}

func (f *fakeQuestionBank) ListByTest(_ context.Context, _ uuid.UUID) ([]model.Question, error) {
	return f.questions, nil
}

func (f *fakeStatisticsData) SubmittedResults(_ context.Context, _ uuid.UUID) ([]repository.SessionResultRow, error) {
	return f.results, nil
}

func (f *fakeStatisticsData) AnswersForTest(_ context.Context, _ uuid.UUID) ([]repository.TestAnswerRow, error) {
	return f.answers, nil
}

func (f *fakeStatisticsData) HistoryByUser(_ context.Context, _ int) ([]repository.HistoryRow, error) {
	return f.history, nil
}

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }

func uuidPtr(v uuid.UUID) *uuid.UUID { return &v }

func resultRow(userID, score int, finished time.Time) repository.SessionResultRow {
	return repository.SessionResultRow{
		SessionID:  uuid.New(),
		UserID:     userID,
		UserName:   "user",
		Score:      intPtr(score),
		FinishedAt: &finished,
	}
}

func TestSummaryEmpty(t *testing.T) {
	svc := NewStatisticsService(&fakeStatisticsData{}, &fakeQuestionBank{}, 75, zerolog.Nop())

	stats, err := svc.Summary(context.Background(), uuid.New(), t0)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if stats.TotalParticipants != 0 || stats.AverageScore != 0 || stats.HighestScore != 0 || stats.LowestScore != 0 {
		t.Errorf("empty test should yield zero aggregates: %+v", stats)
	}
	if len(stats.ScoreBands) != 5 {
		t.Fatalf("bands = %d, want 5", len(stats.ScoreBands))
	}
	for _, band := range stats.ScoreBands {
		if band.Count != 0 {
			t.Errorf("band %s count = %d, want 0", band.Label, band.Count)
		}
	}
	if len(stats.TopScorers) != 0 || len(stats.Items) != 0 {
		t.Errorf("empty test should yield empty leaderboard and items")
	}
}

func TestSummaryBandEdges(t *testing.T) {
	finished := t0.Add(-time.Hour)
	data := &fakeStatisticsData{
		results: []repository.SessionResultRow{
			resultRow(1, 0, finished),
			resultRow(2, 20, finished),
			resultRow(3, 21, finished),
			resultRow(4, 60, finished),
			resultRow(5, 61, finished),
			resultRow(6, 100, finished),
		},
	}
	svc := NewStatisticsService(data, &fakeQuestionBank{}, 75, zerolog.Nop())

	stats, err := svc.Summary(context.Background(), uuid.New(), t0)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	wantCounts := map[string]int{"0-20": 2, "21-40": 1, "41-60": 1, "61-80": 1, "81-100": 1}
	for _, band := range stats.ScoreBands {
		if band.Count != wantCounts[band.Label] {
			t.Errorf("band %s = %d, want %d", band.Label, band.Count, wantCounts[band.Label])
		}
	}
	if stats.HighestScore != 100 || stats.LowestScore != 0 {
		t.Errorf("extremes = %d..%d, want 0..100", stats.LowestScore, stats.HighestScore)
	}
	if stats.PassedCount != 1 {
		t.Errorf("passed = %d, want 1 (only the 100)", stats.PassedCount)
	}
	if stats.FailedCount != 5 {
		t.Errorf("failed = %d, want 5", stats.FailedCount)
	}
}

func TestSummaryTopScorers(t *testing.T) {
	finished := t0.Add(-30 * time.Minute)
	var rows []repository.SessionResultRow
	for i, score := range []int{55, 90, 72, 88, 61, 95, 40} {
		rows = append(rows, resultRow(i+1, score, finished))
	}
	svc := NewStatisticsService(&fakeStatisticsData{results: rows}, &fakeQuestionBank{}, 75, zerolog.Nop())

	stats, err := svc.Summary(context.Background(), uuid.New(), t0)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if len(stats.TopScorers) != 5 {
		t.Fatalf("top scorers = %d, want 5", len(stats.TopScorers))
	}
	wantOrder := []int{95, 90, 88, 72, 61}
	for i, top := range stats.TopScorers {
		if top.Score != wantOrder[i] {
			t.Errorf("rank %d score = %d, want %d", i+1, top.Score, wantOrder[i])
		}
		if top.FinishedSince == "" {
			t.Errorf("rank %d missing finished_since label", i+1)
		}
	}
}

func TestSummarySkipsUngradedScores(t *testing.T) {
	finished := t0.Add(-time.Hour)
	rows := []repository.SessionResultRow{
		resultRow(1, 80, finished),
		{SessionID: uuid.New(), UserID: 2, UserName: "pending", FinishedAt: &finished}, // no score yet
		resultRow(3, 60, finished),
	}
	svc := NewStatisticsService(&fakeStatisticsData{results: rows}, &fakeQuestionBank{}, 75, zerolog.Nop())

	stats, err := svc.Summary(context.Background(), uuid.New(), t0)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if stats.TotalParticipants != 3 {
		t.Errorf("participants = %d, want 3 (submitted counts even when ungraded)", stats.TotalParticipants)
	}
	if stats.AverageScore != 70 {
		t.Errorf("average = %v, want 70 over graded rows only", stats.AverageScore)
	}
	if len(stats.TopScorers) != 2 {
		t.Errorf("top scorers = %d, want 2", len(stats.TopScorers))
	}
}

func TestItemAnalysis(t *testing.T) {
	finished := t0.Add(-time.Hour)
	var results []repository.SessionResultRow
	for i := 0; i < 30; i++ {
		results = append(results, resultRow(i+1, 50, finished))
	}

	questionID, rightID, wrongID := uuid.New(), uuid.New(), uuid.New()
	bank := &fakeQuestionBank{questions: []model.Question{{
		ID:           questionID,
		QuestionText: "What is 2 + 2?",
		Options: []model.AnswerOption{
			{ID: rightID, QuestionID: questionID, AnswerText: "4", IsCorrect: true},
			{ID: wrongID, QuestionID: questionID, AnswerText: "5", IsCorrect: false},
		},
	}}}

	var answers []repository.TestAnswerRow
	for i := 0; i < 20; i++ {
		answers = append(answers, repository.TestAnswerRow{
			QuestionID: questionID, AnswerID: uuidPtr(rightID), IsCorrect: boolPtr(true),
		})
	}
	for i := 0; i < 8; i++ {
		answers = append(answers, repository.TestAnswerRow{
			QuestionID: questionID, AnswerID: uuidPtr(wrongID), IsCorrect: boolPtr(false),
		})
	}
	svc := NewStatisticsService(&fakeStatisticsData{results: results, answers: answers}, bank, 75, zerolog.Nop())

	stats, err := svc.Summary(context.Background(), uuid.New(), t0)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if len(stats.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(stats.Items))
	}
	item := stats.Items[0]
	if item.Recurrence != 30 {
		t.Errorf("recurrence = %d, want 30", item.Recurrence)
	}
	if item.CorrectCount != 20 || item.WrongCount != 8 || item.UnansweredCount != 2 {
		t.Errorf("counts = %d/%d/%d, want 20/8/2", item.CorrectCount, item.WrongCount, item.UnansweredCount)
	}
	if item.CorrectPercent != 66.7 || item.WrongPercent != 26.7 || item.UnansweredPercent != 6.7 {
		t.Errorf("percents = %v/%v/%v, want 66.7/26.7/6.7",
			item.CorrectPercent, item.WrongPercent, item.UnansweredPercent)
	}

	if len(item.Options) != 2 {
		t.Fatalf("options = %d, want 2", len(item.Options))
	}
	right, wrong := item.Options[0], item.Options[1]
	if right.SelectionCount != 20 || right.SelectionPct != 66.7 {
		t.Errorf("right option = %d picks / %v%%, want 20 / 66.7", right.SelectionCount, right.SelectionPct)
	}
	if wrong.SelectionCount != 8 || wrong.SelectionPct != 26.7 {
		t.Errorf("wrong option = %d picks / %v%%, want 8 / 26.7", wrong.SelectionCount, wrong.SelectionPct)
	}
	if !right.IsCorrect || wrong.IsCorrect {
		t.Errorf("option keys lost: right=%v wrong=%v", right.IsCorrect, wrong.IsCorrect)
	}
}

func TestItemAnalysisCoversUnansweredQuestion(t *testing.T) {
	finished := t0.Add(-time.Hour)
	results := []repository.SessionResultRow{resultRow(1, 50, finished), resultRow(2, 50, finished)}

	questionID := uuid.New()
	bank := &fakeQuestionBank{questions: []model.Question{{
		ID:           questionID,
		QuestionText: "Nobody got this far",
		Options:      []model.AnswerOption{{ID: uuid.New(), QuestionID: questionID, AnswerText: "a"}},
	}}}
	svc := NewStatisticsService(&fakeStatisticsData{results: results}, bank, 75, zerolog.Nop())

	stats, err := svc.Summary(context.Background(), uuid.New(), t0)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if len(stats.Items) != 1 {
		t.Fatalf("items = %d, want 1 (a question with no answer rows still gets a line)", len(stats.Items))
	}
	item := stats.Items[0]
	if item.CorrectCount != 0 || item.WrongCount != 0 || item.UnansweredCount != 2 {
		t.Errorf("counts = %d/%d/%d, want 0/0/2", item.CorrectCount, item.WrongCount, item.UnansweredCount)
	}
	if item.UnansweredPercent != 100 {
		t.Errorf("unanswered pct = %v, want 100", item.UnansweredPercent)
	}
	if len(item.Options) != 1 || item.Options[0].SelectionCount != 0 {
		t.Errorf("unpicked option should report zero selections: %+v", item.Options)
	}
}

func TestItemAnalysisCleanedChoiceNotWrong(t *testing.T) {
	finished := t0.Add(-time.Hour)
	results := []repository.SessionResultRow{resultRow(1, 50, finished), resultRow(2, 50, finished)}

	questionID := uuid.New()
	bank := &fakeQuestionBank{questions: []model.Question{{ID: questionID, QuestionText: "q"}}}
	answers := []repository.TestAnswerRow{
		// Graded false but the option row was later removed: not counted wrong.
		{QuestionID: questionID, AnswerID: nil, IsCorrect: boolPtr(false)},
		{QuestionID: questionID, AnswerID: uuidPtr(uuid.New()), IsCorrect: boolPtr(true)},
	}
	svc := NewStatisticsService(&fakeStatisticsData{results: results, answers: answers}, bank, 75, zerolog.Nop())

	stats, err := svc.Summary(context.Background(), uuid.New(), t0)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if len(stats.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(stats.Items))
	}
	item := stats.Items[0]
	if item.WrongCount != 0 {
		t.Errorf("wrong = %d, want 0 (null answer_id never counts wrong)", item.WrongCount)
	}
	if item.CorrectCount != 1 || item.UnansweredCount != 1 {
		t.Errorf("counts = %d correct / %d unanswered, want 1/1", item.CorrectCount, item.UnansweredCount)
	}
}

func TestHistory(t *testing.T) {
	finished := t0.Add(-2 * time.Hour)
	data := &fakeStatisticsData{
		history: []repository.HistoryRow{
			{
				SessionID: uuid.New(), TestID: uuid.New(), TestTitle: "Physics",
				Score: intPtr(88), Status: "submitted", StartedAt: t0.Add(-3 * time.Hour), FinishedAt: &finished,
			},
			{
				SessionID: uuid.New(), TestID: uuid.New(), TestTitle: "Chemistry",
				Status: "ongoing", StartedAt: t0.Add(-time.Hour),
			},
		},
	}
	svc := NewStatisticsService(data, &fakeQuestionBank{}, 75, zerolog.Nop())

	entries, err := svc.History(context.Background(), 1, t0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].FinishedSince == "" {
		t.Error("submitted entry should carry a finished_since label")
	}
	if entries[1].FinishedSince != "" {
		t.Error("ongoing entry should not carry a finished_since label")
	}
}
