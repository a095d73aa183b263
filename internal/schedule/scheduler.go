// Package schedule maintains the live set of time-based triggers: one daily
// cron entry per active slot plus the fixed nightly report entry. The entry
// set is rebuilt from persisted slot configuration on Start and Refresh, so
// admin slot changes apply without a process restart.
package schedule

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"quiz-bot-service/internal/domain"
)

// QuizPoster selects and broadcasts the next question for a slot.
type QuizPoster interface {
	PostSlot(ctx context.Context, slot string) error
}

// Reporter sends the nightly leaderboard report.
type Reporter interface {
	SendNightly(ctx context.Context) error
}

// SlotSource reads the persisted slot configuration.
type SlotSource interface {
	Slots(ctx context.Context, activeOnly bool) ([]domain.Slot, error)
}

// SlotTrigger describes one live slot entry, for listings and tests.
type SlotTrigger struct {
	Name   string
	Hour   int
	Minute int
}

// Scheduler owns the cron instance and the name-to-entry bookkeeping that
// lets Refresh remove exactly the slot-derived entries while leaving the
// report entry alone.
type Scheduler struct {
	slots    SlotSource
	poster   QuizPoster
	reporter Reporter
	loc      *time.Location

	reportHour   int
	reportMinute int

	mu          sync.Mutex
	cron        *cron.Cron
	slotEntries map[string]slotEntry
}

type slotEntry struct {
	id      cron.EntryID
	trigger SlotTrigger
}

func New(slots SlotSource, poster QuizPoster, reporter Reporter, loc *time.Location, reportHour, reportMinute int) *Scheduler {
	return &Scheduler{
		slots:        slots,
		poster:       poster,
		reporter:     reporter,
		loc:          loc,
		reportHour:   reportHour,
		reportMinute: reportMinute,
		slotEntries:  make(map[string]slotEntry),
	}
}

// Start loads active slots, registers their triggers plus the report trigger,
// and begins firing. Call Stop to shut down.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return fmt.Errorf("scheduler already started")
	}

	s.cron = cron.New(cron.WithLocation(s.loc))
	if _, err := s.cron.AddJob(cronSpec(s.reportHour, s.reportMinute), reportJob{scheduler: s}); err != nil {
		return fmt.Errorf("register report trigger: %w", err)
	}
	if err := s.registerSlotsLocked(ctx); err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("scheduler started with %d slot triggers", len(s.slotEntries))
	return nil
}

// Refresh drops every slot-derived entry and re-registers from the current
// store contents. Entries mid-run finish normally; with no configuration
// change the resulting trigger set is identical.
func (s *Scheduler) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return fmt.Errorf("scheduler not started")
	}

	for name, entry := range s.slotEntries {
		s.cron.Remove(entry.id)
		delete(s.slotEntries, name)
	}
	if err := s.registerSlotsLocked(ctx); err != nil {
		return err
	}
	log.Printf("scheduler refreshed with %d slot triggers", len(s.slotEntries))
	return nil
}

// Stop halts trigger firing and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
}

// SlotTriggers lists the live slot entries sorted by name.
func (s *Scheduler) SlotTriggers() []SlotTrigger {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SlotTrigger, 0, len(s.slotEntries))
	for _, entry := range s.slotEntries {
		out = append(out, entry.trigger)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Scheduler) registerSlotsLocked(ctx context.Context) error {
	slots, err := s.slots.Slots(ctx, true)
	if err != nil {
		return fmt.Errorf("load slots: %w", err)
	}
	for _, slot := range slots {
		id, err := s.cron.AddJob(cronSpec(slot.Hour, slot.Minute), slotJob{scheduler: s, slot: slot.Name})
		if err != nil {
			return fmt.Errorf("register slot %q: %w", slot.Name, err)
		}
		s.slotEntries[slot.Name] = slotEntry{
			id:      id,
			trigger: SlotTrigger{Name: slot.Name, Hour: slot.Hour, Minute: slot.Minute},
		}
	}
	return nil
}

func cronSpec(hour, minute int) string {
	return fmt.Sprintf("%d %d * * *", minute, hour)
}

// slotJob is a data-carrying trigger: one value per slot name, no per-slot
// closures. Failures are logged and swallowed so one bad run cannot take the
// scheduler down.
type slotJob struct {
	scheduler *Scheduler
	slot      string
}

func (j slotJob) Run() {
	if err := j.scheduler.poster.PostSlot(context.Background(), j.slot); err != nil {
		log.Printf("scheduled post for slot %q: %v", j.slot, err)
	}
}

type reportJob struct {
	scheduler *Scheduler
}

func (j reportJob) Run() {
	if err := j.scheduler.reporter.SendNightly(context.Background()); err != nil {
		log.Printf("nightly report: %v", err)
	}
}
