package app

import (
	"context"
	"time"

	"quiz-bot-service/internal/domain"
)

// QuestionStore persists quiz questions.
type QuestionStore interface {
	AddQuestion(ctx context.Context, q *domain.Question) (int64, error)
	QuestionByID(ctx context.Context, id int64) (*domain.Question, error)
	// NextUnposted applies the selection policy for a slot: an unposted
	// question scheduled for exactly today wins; otherwise the earliest
	// (date, id) unposted question whose schedule floor has passed.
	// Returns (nil, nil) when nothing is eligible.
	NextUnposted(ctx context.Context, slot string, today time.Time) (*domain.Question, error)
	MarkPosted(ctx context.Context, id int64, postedAt time.Time) error
	SetImageFileID(ctx context.Context, id int64, fileID string) error
	UpdateQuestion(ctx context.Context, q *domain.Question) error
	DeleteQuestion(ctx context.Context, id int64) error
}

// ResponseStore persists answers and serves the aggregation queries. The
// store, not the application, enforces the (user, question) uniqueness rule.
type ResponseStore interface {
	// AddResponse inserts r and reports false when the user already answered
	// the question; the existing row is left untouched.
	AddResponse(ctx context.Context, r *domain.Response) (bool, error)
	DailyLeaderboard(ctx context.Context, date time.Time, groupKey string, limit int) ([]domain.LeaderboardEntry, error)
	WeeklyLeaderboard(ctx context.Context, week int, groupKey string, limit int) ([]domain.LeaderboardEntry, error)
	DayReport(ctx context.Context, date time.Time) (domain.PeriodReport, error)
	WeekReport(ctx context.Context, week int) (domain.PeriodReport, error)
}

// SlotStore persists the slot configuration driving the scheduler.
type SlotStore interface {
	Slots(ctx context.Context, activeOnly bool) ([]domain.Slot, error)
	SlotByName(ctx context.Context, name string) (*domain.Slot, error)
	// CreateSlot returns domain.ErrSlotExists on a duplicate name.
	CreateSlot(ctx context.Context, s *domain.Slot) (int64, error)
	UpdateSlot(ctx context.Context, s *domain.Slot) error
	// DeleteSlot returns domain.ErrLastActiveSlot when the named slot is the
	// only active one; the store must stay unchanged in that case.
	DeleteSlot(ctx context.Context, name string) error
}

// PostStore persists per-group quiz post records, the durable source of truth
// for poll-answer correlation.
type PostStore interface {
	CreatePost(ctx context.Context, p *domain.QuizPost) error
	PostByPollID(ctx context.Context, pollID string) (*domain.QuizPost, bool, error)
}

// Store bundles the four persistence concerns, implemented by the postgres
// and in-memory backends.
type Store interface {
	QuestionStore
	ResponseStore
	SlotStore
	PostStore
}

// PollCache is the best-effort fast path from poll ID to correlation info.
// Misses and errors are normal; callers fall back to the PostStore.
type PollCache interface {
	Put(ctx context.Context, pollID string, c domain.PollCorrelation) error
	Get(ctx context.Context, pollID string) (domain.PollCorrelation, bool, error)
}
