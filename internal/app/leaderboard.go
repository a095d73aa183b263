package app

import (
	"context"
	"time"

	"quiz-bot-service/internal/domain"
)

// DefaultLeaderboardSize caps leaderboards when no size is configured.
const DefaultLeaderboardSize = 5

// Leaderboard serves ranked standings and admin reports over stored
// responses. Pure reads, no side effects.
type Leaderboard struct {
	responses ResponseStore
	size      int
}

func NewLeaderboard(responses ResponseStore, size int) *Leaderboard {
	if size <= 0 {
		size = DefaultLeaderboardSize
	}
	return &Leaderboard{responses: responses, size: size}
}

// Daily returns the top entries for a date. An empty groupKey means the
// global board; otherwise only that group's responses count.
func (l *Leaderboard) Daily(ctx context.Context, date time.Time, groupKey string) ([]domain.LeaderboardEntry, error) {
	return l.responses.DailyLeaderboard(ctx, date, groupKey, l.size)
}

// Weekly returns the top entries for an ISO week bucket, optionally filtered
// by group.
func (l *Leaderboard) Weekly(ctx context.Context, week int, groupKey string) ([]domain.LeaderboardEntry, error) {
	return l.responses.WeeklyLeaderboard(ctx, week, groupKey, l.size)
}

// DayReport aggregates all of a date's responses for admin reporting.
func (l *Leaderboard) DayReport(ctx context.Context, date time.Time) (domain.PeriodReport, error) {
	return l.responses.DayReport(ctx, date)
}

// WeekReport aggregates all of a week's responses for admin reporting.
func (l *Leaderboard) WeekReport(ctx context.Context, week int) (domain.PeriodReport, error) {
	return l.responses.WeekReport(ctx, week)
}
