package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"quiz-bot-service/internal/domain"
	"quiz-bot-service/internal/report"
	"quiz-bot-service/internal/timeutil"
)

// NightlyReporter sends the combined daily and weekly leaderboard to every
// configured group. Driven by the scheduler's fixed report trigger.
type NightlyReporter struct {
	leaderboard *Leaderboard
	transport   Transport
	groups      []domain.Group
	loc         *time.Location
	now         func() time.Time
}

func NewNightlyReporter(leaderboard *Leaderboard, transport Transport, groups []domain.Group, loc *time.Location) *NightlyReporter {
	return &NightlyReporter{
		leaderboard: leaderboard,
		transport:   transport,
		groups:      groups,
		loc:         loc,
		now:         time.Now,
	}
}

// SendNightly builds the combined report for today and broadcasts it.
// Per-group send failures are logged, not fatal.
func (r *NightlyReporter) SendNightly(ctx context.Context) error {
	today := timeutil.DateOf(r.now(), r.loc)
	week := timeutil.WeekNumber(today)

	daily, err := r.leaderboard.Daily(ctx, today, "")
	if err != nil {
		return fmt.Errorf("daily leaderboard: %w", err)
	}
	weekly, err := r.leaderboard.Weekly(ctx, week, "")
	if err != nil {
		return fmt.Errorf("weekly leaderboard: %w", err)
	}

	text := report.Combined(daily, weekly)
	for _, group := range r.groups {
		if err := r.transport.SendMessage(ctx, group.ChatID, text); err != nil {
			log.Printf("send nightly report to group %q: %v", group.Key, err)
		}
	}
	log.Printf("sent nightly report for %s", today.Format("2006-01-02"))
	return nil
}
