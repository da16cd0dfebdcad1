package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wiradata/cbt-backend/internal/model"
	"github.com/wiradata/cbt-backend/internal/repository"
)

// StatisticsData feeds the aggregation engine. All test-scoped queries
// are restricted to submitted sessions; ongoing work never shows up in
// statistics.
type StatisticsData interface {
	SubmittedResults(ctx context.Context, testID uuid.UUID) ([]repository.SessionResultRow, error)
	AnswersForTest(ctx context.Context, testID uuid.UUID) ([]repository.TestAnswerRow, error)
	HistoryByUser(ctx context.Context, userID int) ([]repository.HistoryRow, error)
}

// QuestionBank supplies the full question pool attached to a test. Item
// analysis iterates this pool, not the answer rows, so a question nobody
// answered still gets a line.
type QuestionBank interface {
	ListByTest(ctx context.Context, testID uuid.UUID) ([]model.Question, error)
}

// ScoreBand is one bucket of the score distribution.
type ScoreBand struct {
	Label string `json:"label"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Count int    `json:"count"`
}

// TopScorer is an entry of the leaderboard.
type TopScorer struct {
	UserID        int    `json:"user_id"`
	Name          string `json:"name"`
	Score         int    `json:"score"`
	FinishedSince string `json:"finished_since,omitempty"`
}

// OptionAnalysis is the pick rate of one answer option.
type OptionAnalysis struct {
	OptionID       uuid.UUID `json:"option_id"`
	AnswerText     string    `json:"answer_text"`
	IsCorrect      bool      `json:"is_correct"`
	SelectionCount int       `json:"selection_count"`
	SelectionPct   float64   `json:"selection_pct"`
}

// ItemAnalysis carries per-question response counts. Recurrence is the
// number of submitted sessions, so a question also counts participants
// that never reached it; unanswered is derived by subtraction and is
// reported as-is even when stale grading data drives it negative.
type ItemAnalysis struct {
	QuestionID        uuid.UUID        `json:"question_id"`
	QuestionText      string           `json:"question_text"`
	Recurrence        int              `json:"recurrence"`
	CorrectCount      int              `json:"correct_count"`
	WrongCount        int              `json:"wrong_count"`
	UnansweredCount   int              `json:"unanswered_count"`
	CorrectPercent    float64          `json:"correct_percent"`
	WrongPercent      float64          `json:"wrong_percent"`
	UnansweredPercent float64          `json:"unanswered_percent"`
	Options           []OptionAnalysis `json:"options"`
}

// TestStatistics is the full aggregation for one test.
type TestStatistics struct {
	TotalParticipants int            `json:"total_participants"`
	AverageScore      float64        `json:"average_score"`
	HighestScore      int            `json:"highest_score"`
	LowestScore       int            `json:"lowest_score"`
	PassedCount       int            `json:"passed_count"`
	FailedCount       int            `json:"failed_count"`
	PassingScore      int            `json:"passing_score"`
	ScoreBands        []ScoreBand    `json:"score_bands"`
	TopScorers        []TopScorer    `json:"top_scorers"`
	Items             []ItemAnalysis `json:"items"`
}

// HistoryEntry is one row of a participant's exam history.
type HistoryEntry struct {
	SessionID     uuid.UUID  `json:"session_id"`
	TestID        uuid.UUID  `json:"test_id"`
	TestTitle     string     `json:"test_title"`
	Score         *int       `json:"score"`
	Status        string     `json:"status"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at"`
	FinishedSince string     `json:"finished_since,omitempty"`
}

// StatisticsService computes score distributions, leaderboards and
// per-question item analysis over submitted sessions.
type StatisticsService struct {
	data         StatisticsData
	questions    QuestionBank
	passingScore int
	log          zerolog.Logger
}

// NewStatisticsService creates a new StatisticsService.
func NewStatisticsService(data StatisticsData, questions QuestionBank, passingScore int, log zerolog.Logger) *StatisticsService {
	return &StatisticsService{
		data:         data,
		questions:    questions,
		passingScore: passingScore,
		log:          log.With().Str("component", "statistics").Logger(),
	}
}

// Summary aggregates the test's submitted sessions: participant count,
// average/extremes over graded scores, fixed 5-band distribution, top-5
// leaderboard and item analysis. A test with no submitted sessions
// yields all-zero aggregates, never an error.
func (s *StatisticsService) Summary(ctx context.Context, testID uuid.UUID, now time.Time) (*TestStatistics, error) {
	rows, err := s.data.SubmittedResults(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}

	stats := &TestStatistics{
		TotalParticipants: len(rows),
		PassingScore:      s.passingScore,
		ScoreBands:        newScoreBands(),
		TopScorers:        []TopScorer{},
		Items:             []ItemAnalysis{},
	}

	graded := make([]repository.SessionResultRow, 0, len(rows))
	sum := 0
	for _, row := range rows {
		if row.Score == nil {
			continue
		}
		graded = append(graded, row)
		sum += *row.Score
		placeInBand(stats.ScoreBands, *row.Score)
		if *row.Score >= s.passingScore {
			stats.PassedCount++
		} else {
			stats.FailedCount++
		}
	}

	if len(graded) > 0 {
		stats.AverageScore = round1(float64(sum) / float64(len(graded)))
		stats.HighestScore = *graded[0].Score
		stats.LowestScore = *graded[0].Score
		for _, row := range graded[1:] {
			if *row.Score > stats.HighestScore {
				stats.HighestScore = *row.Score
			}
			if *row.Score < stats.LowestScore {
				stats.LowestScore = *row.Score
			}
		}
	}

	sort.SliceStable(graded, func(i, j int) bool {
		return *graded[i].Score > *graded[j].Score
	})
	for i, row := range graded {
		if i == 5 {
			break
		}
		top := TopScorer{
			UserID: row.UserID,
			Name:   row.UserName,
			Score:  *row.Score,
		}
		if row.FinishedAt != nil {
			top.FinishedSince = humanize.RelTime(*row.FinishedAt, now, "ago", "from now")
		}
		stats.TopScorers = append(stats.TopScorers, top)
	}

	items, err := s.itemAnalysis(ctx, testID, len(rows))
	if err != nil {
		return nil, err
	}
	stats.Items = items

	return stats, nil
}

// History lists the participant's sessions newest first with a
// humanized "finished since" label.
func (s *StatisticsService) History(ctx context.Context, userID int, now time.Time) ([]HistoryEntry, error) {
	rows, err := s.data.HistoryByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	entries := make([]HistoryEntry, 0, len(rows))
	for _, row := range rows {
		entry := HistoryEntry{
			SessionID:  row.SessionID,
			TestID:     row.TestID,
			TestTitle:  row.TestTitle,
			Score:      row.Score,
			Status:     string(row.Status),
			StartedAt:  row.StartedAt,
			FinishedAt: row.FinishedAt,
		}
		if row.FinishedAt != nil {
			entry.FinishedSince = humanize.RelTime(*row.FinishedAt, now, "ago", "from now")
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// itemAnalysis iterates every question attached to the test, of any type
// and active or not, and joins the submitted answer rows onto it. An
// answer row whose question was since detached from the test is dropped.
func (s *StatisticsService) itemAnalysis(ctx context.Context, testID uuid.UUID, totalParticipants int) ([]ItemAnalysis, error) {
	questions, err := s.questions.ListByTest(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	rows, err := s.data.AnswersForTest(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}

	type counts struct {
		correct   int
		wrong     int
		perOption map[uuid.UUID]int
	}
	perQuestion := make(map[uuid.UUID]*counts, len(questions))
	for _, q := range questions {
		perQuestion[q.ID] = &counts{perOption: make(map[uuid.UUID]int, len(q.Options))}
	}
	for _, row := range rows {
		c, ok := perQuestion[row.QuestionID]
		if !ok {
			continue
		}
		switch {
		case row.IsCorrect != nil && *row.IsCorrect:
			c.correct++
		case row.IsCorrect != nil && row.AnswerID != nil:
			c.wrong++
		}
		if row.AnswerID != nil {
			c.perOption[*row.AnswerID]++
		}
	}

	items := make([]ItemAnalysis, 0, len(questions))
	for _, q := range questions {
		c := perQuestion[q.ID]
		item := ItemAnalysis{
			QuestionID:      q.ID,
			QuestionText:    q.QuestionText,
			Recurrence:      totalParticipants,
			CorrectCount:    c.correct,
			WrongCount:      c.wrong,
			UnansweredCount: totalParticipants - c.correct - c.wrong,
			Options:         make([]OptionAnalysis, 0, len(q.Options)),
		}
		if totalParticipants > 0 {
			item.CorrectPercent = percent(c.correct, totalParticipants)
			item.WrongPercent = percent(c.wrong, totalParticipants)
			item.UnansweredPercent = percent(item.UnansweredCount, totalParticipants)
		}
		for _, opt := range q.Options {
			oa := OptionAnalysis{
				OptionID:       opt.ID,
				AnswerText:     opt.AnswerText,
				IsCorrect:      opt.IsCorrect,
				SelectionCount: c.perOption[opt.ID],
			}
			if totalParticipants > 0 {
				oa.SelectionPct = percent(oa.SelectionCount, totalParticipants)
			}
			item.Options = append(item.Options, oa)
		}
		items = append(items, item)
	}
	return items, nil
}

func newScoreBands() []ScoreBand {
	return []ScoreBand{
		{Label: "0-20", Min: 0, Max: 20},
		{Label: "21-40", Min: 21, Max: 40},
		{Label: "41-60", Min: 41, Max: 60},
		{Label: "61-80", Min: 61, Max: 80},
		{Label: "81-100", Min: 81, Max: 100},
	}
}

func placeInBand(bands []ScoreBand, score int) {
	for i := range bands {
		if score >= bands[i].Min && score <= bands[i].Max {
			bands[i].Count++
			return
		}
	}
}

func percent(part, whole int) float64 {
	return round1(float64(part) / float64(whole) * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
