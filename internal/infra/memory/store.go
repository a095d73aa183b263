// Package memory backs the store and poll-cache interfaces with mutex-guarded
// maps. It drives unit tests and the no-database demo mode.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"quiz-bot-service/internal/domain"
)

// Store is an in-memory implementation of app.Store mirroring the relational
// backend's semantics, including the (user, question) uniqueness rule and the
// last-active-slot guard.
type Store struct {
	mu         sync.RWMutex
	questions  map[int64]*domain.Question
	responses  []*domain.Response
	answered   map[responseKey]bool
	slots      map[string]*domain.Slot
	posts      map[string]*domain.QuizPost // by poll ID
	nextQID    int64
	nextSlotID int64
	nextRespID int64
	nextPostID int64
}

type responseKey struct {
	userID     int64
	questionID int64
}

func NewStore() *Store {
	return &Store{
		questions: make(map[int64]*domain.Question),
		answered:  make(map[responseKey]bool),
		slots:     make(map[string]*domain.Slot),
		posts:     make(map[string]*domain.QuizPost),
	}
}

// ---- questions ----

func (s *Store) AddQuestion(_ context.Context, q *domain.Question) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextQID++
	q.ID = s.nextQID
	clone := *q
	s.questions[q.ID] = &clone
	return q.ID, nil
}

func (s *Store) QuestionByID(_ context.Context, id int64) (*domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return nil, nil
	}
	clone := *q
	return &clone, nil
}

func (s *Store) NextUnposted(_ context.Context, slot string, today time.Time) (*domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var scheduled, fallback *domain.Question
	for _, q := range s.questions {
		if q.Slot != slot || q.Posted {
			continue
		}
		if q.ScheduledDate != nil {
			if q.ScheduledDate.Equal(today) && (scheduled == nil || q.ID < scheduled.ID) {
				scheduled = q
			}
			if q.ScheduledDate.After(today) {
				continue
			}
		}
		if fallback == nil || earlier(q, fallback) {
			fallback = q
		}
	}

	pick := scheduled
	if pick == nil {
		pick = fallback
	}
	if pick == nil {
		return nil, nil
	}
	clone := *pick
	return &clone, nil
}

func earlier(a, b *domain.Question) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	return a.ID < b.ID
}

func (s *Store) MarkPosted(_ context.Context, id int64, postedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.questions[id]
	if !ok {
		return domain.ErrQuestionNotFound
	}
	q.Posted = true
	q.PostedTime = &postedAt
	return nil
}

func (s *Store) SetImageFileID(_ context.Context, id int64, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.questions[id]
	if !ok {
		return domain.ErrQuestionNotFound
	}
	q.ImageFileID = fileID
	return nil
}

func (s *Store) UpdateQuestion(_ context.Context, q *domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[q.ID]; !ok {
		return domain.ErrQuestionNotFound
	}
	clone := *q
	s.questions[q.ID] = &clone
	return nil
}

func (s *Store) DeleteQuestion(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[id]; !ok {
		return domain.ErrQuestionNotFound
	}
	delete(s.questions, id)
	return nil
}

// ---- responses ----

func (s *Store) AddResponse(_ context.Context, r *domain.Response) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := responseKey{userID: r.UserID, questionID: r.QuestionID}
	if s.answered[key] {
		return false, nil
	}
	s.answered[key] = true
	s.nextRespID++
	r.ID = s.nextRespID
	clone := *r
	s.responses = append(s.responses, &clone)
	return true, nil
}

func (s *Store) DailyLeaderboard(_ context.Context, date time.Time, groupKey string, limit int) ([]domain.LeaderboardEntry, error) {
	return s.leaderboard(func(r *domain.Response) bool {
		return r.Date.Equal(date) && (groupKey == "" || r.GroupKey == groupKey)
	}, limit), nil
}

func (s *Store) WeeklyLeaderboard(_ context.Context, week int, groupKey string, limit int) ([]domain.LeaderboardEntry, error) {
	return s.leaderboard(func(r *domain.Response) bool {
		return r.WeekNumber == week && (groupKey == "" || r.GroupKey == groupKey)
	}, limit), nil
}

func (s *Store) leaderboard(match func(*domain.Response) bool, limit int) []domain.LeaderboardEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byUser := make(map[int64]*domain.LeaderboardEntry)
	for _, r := range s.responses {
		if !match(r) {
			continue
		}
		entry, ok := byUser[r.UserID]
		if !ok {
			entry = &domain.LeaderboardEntry{UserID: r.UserID, Username: r.Username}
			byUser[r.UserID] = entry
		}
		if r.Correct {
			entry.Correct++
		}
		entry.TotalTimeSec += r.TimeTakenSec
	}

	entries := make([]domain.LeaderboardEntry, 0, len(byUser))
	for _, e := range byUser {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Correct != entries[j].Correct {
			return entries[i].Correct > entries[j].Correct
		}
		if entries[i].TotalTimeSec != entries[j].TotalTimeSec {
			return entries[i].TotalTimeSec < entries[j].TotalTimeSec
		}
		return entries[i].UserID < entries[j].UserID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

func (s *Store) DayReport(_ context.Context, date time.Time) (domain.PeriodReport, error) {
	return s.periodReport(func(r *domain.Response) bool { return r.Date.Equal(date) }), nil
}

func (s *Store) WeekReport(_ context.Context, week int) (domain.PeriodReport, error) {
	return s.periodReport(func(r *domain.Response) bool { return r.WeekNumber == week }), nil
}

func (s *Store) periodReport(match func(*domain.Response) bool) domain.PeriodReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out domain.PeriodReport
	byUser := make(map[int64]*domain.UserReportRow)
	for _, r := range s.responses {
		if !match(r) {
			continue
		}
		row, ok := byUser[r.UserID]
		if !ok {
			row = &domain.UserReportRow{UserID: r.UserID, Username: r.Username}
			byUser[r.UserID] = row
		}
		if r.Correct {
			out.TotalCorrect++
			row.Correct++
		} else {
			out.TotalWrong++
			row.Wrong++
		}
		row.TotalTimeSec += r.TimeTakenSec
	}
	for _, row := range byUser {
		out.Users = append(out.Users, *row)
	}
	sort.Slice(out.Users, func(i, j int) bool {
		if out.Users[i].Correct != out.Users[j].Correct {
			return out.Users[i].Correct > out.Users[j].Correct
		}
		if out.Users[i].TotalTimeSec != out.Users[j].TotalTimeSec {
			return out.Users[i].TotalTimeSec < out.Users[j].TotalTimeSec
		}
		return out.Users[i].UserID < out.Users[j].UserID
	})
	return out
}

// ---- slots ----

func (s *Store) Slots(_ context.Context, activeOnly bool) ([]domain.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Slot, 0, len(s.slots))
	for _, slot := range s.slots {
		if activeOnly && !slot.Active {
			continue
		}
		out = append(out, *slot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SlotByName(_ context.Context, name string) (*domain.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slot, ok := s.slots[strings.ToLower(name)]
	if !ok {
		return nil, nil
	}
	clone := *slot
	return &clone, nil
}

func (s *Store) CreateSlot(_ context.Context, slot *domain.Slot) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := strings.ToLower(slot.Name)
	if _, ok := s.slots[name]; ok {
		return 0, domain.ErrSlotExists
	}
	s.nextSlotID++
	slot.ID = s.nextSlotID
	slot.Name = name
	clone := *slot
	s.slots[name] = &clone
	return slot.ID, nil
}

func (s *Store) UpdateSlot(_ context.Context, slot *domain.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := strings.ToLower(slot.Name)
	if _, ok := s.slots[name]; !ok {
		return domain.ErrSlotNotFound
	}
	clone := *slot
	clone.Name = name
	s.slots[name] = &clone
	return nil
}

func (s *Store) DeleteSlot(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	name = strings.ToLower(name)
	slot, ok := s.slots[name]
	if !ok {
		return domain.ErrSlotNotFound
	}
	if slot.Active && s.activeCountLocked() == 1 {
		return domain.ErrLastActiveSlot
	}
	delete(s.slots, name)
	return nil
}

func (s *Store) activeCountLocked() int {
	count := 0
	for _, slot := range s.slots {
		if slot.Active {
			count++
		}
	}
	return count
}

// ---- posts ----

func (s *Store) CreatePost(_ context.Context, p *domain.QuizPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPostID++
	p.ID = s.nextPostID
	clone := *p
	s.posts[p.PollID] = &clone
	return nil
}

func (s *Store) PostByPollID(_ context.Context, pollID string) (*domain.QuizPost, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[pollID]
	if !ok {
		return nil, false, nil
	}
	clone := *p
	return &clone, true, nil
}
