package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"quiz-bot-service/internal/app"
	"quiz-bot-service/internal/domain"
	"quiz-bot-service/internal/infra/memory"
)

var testGroups = []domain.Group{
	{Key: "group1", Name: "Group One", ChatID: -100},
	{Key: "group2", Name: "Group Two", ChatID: -200},
}

// fakeTransport records sends and can fail per chat ID.
type fakeTransport struct {
	failChats map[int64]bool
	messages  []int64
	polls     []int64
	photos    []int64
	nextPoll  int
	fileID    string
}

func (f *fakeTransport) SendMessage(_ context.Context, chatID int64, _ string) error {
	if f.failChats[chatID] {
		return errors.New("send failed")
	}
	f.messages = append(f.messages, chatID)
	return nil
}

func (f *fakeTransport) SendPhoto(_ context.Context, chatID int64, _ app.PhotoSource, _ string) (string, error) {
	if f.failChats[chatID] {
		return "", errors.New("send failed")
	}
	f.photos = append(f.photos, chatID)
	return f.fileID, nil
}

func (f *fakeTransport) SendQuizPoll(_ context.Context, chatID int64, _ string, _ [4]string, _ int) (string, error) {
	if f.failChats[chatID] {
		return "", errors.New("send failed")
	}
	f.polls = append(f.polls, chatID)
	f.nextPoll++
	return fmt.Sprintf("poll-%d", f.nextPoll), nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestBroadcaster(store *memory.Store, transport app.Transport, now time.Time) (*app.Broadcaster, *memory.PollCache) {
	cache := memory.NewPollCache()
	b := app.NewBroadcasterWithClock(store, store, cache, transport, testGroups, time.UTC, fixedClock(now))
	return b, cache
}

func addQuestion(t *testing.T, store *memory.Store, q domain.Question) int64 {
	t.Helper()
	if q.CorrectOption == "" {
		q.CorrectOption = domain.OptionB
	}
	if q.TargetGroups.Keys == nil && !q.TargetGroups.All {
		q.TargetGroups = domain.AllGroups()
	}
	id, err := store.AddQuestion(context.Background(), &q)
	if err != nil {
		t.Fatalf("add question: %v", err)
	}
	return id
}

func TestSelectNextPrefersTodaysScheduleOverFIFO(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	today := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	q1 := addQuestion(t, store, domain.Question{Slot: "morning", Date: today.AddDate(0, 0, -9)})
	q2 := addQuestion(t, store, domain.Question{Slot: "morning", Date: today, ScheduledDate: &today})

	b, _ := newTestBroadcaster(store, &fakeTransport{}, now)
	got, err := b.SelectNext(ctx, "morning")
	if err != nil {
		t.Fatalf("select next: %v", err)
	}
	if got == nil || got.ID != q2 {
		t.Fatalf("expected scheduled question %d over FIFO %d, got %+v", q2, q1, got)
	}
}

func TestPostMarksQuestionSoSelectionNeverRepeats(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

	id := addQuestion(t, store, domain.Question{Slot: "morning", Date: now})
	b, _ := newTestBroadcaster(store, &fakeTransport{}, now)

	q, err := b.SelectNext(ctx, "morning")
	if err != nil || q == nil || q.ID != id {
		t.Fatalf("expected question %d, got %+v err=%v", id, q, err)
	}
	if err := b.Post(ctx, q); err != nil {
		t.Fatalf("post: %v", err)
	}

	again, err := b.SelectNext(ctx, "morning")
	if err != nil {
		t.Fatalf("select next: %v", err)
	}
	if again != nil {
		t.Fatalf("posted question selected again: %+v", again)
	}
}

func TestPostFansOutToAllGroupsAndRecordsPosts(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	transport := &fakeTransport{}

	id := addQuestion(t, store, domain.Question{Slot: "morning", Date: now})
	b, cache := newTestBroadcaster(store, transport, now)

	q, _ := store.QuestionByID(ctx, id)
	if err := b.Post(ctx, q); err != nil {
		t.Fatalf("post: %v", err)
	}

	if len(transport.polls) != 2 {
		t.Fatalf("expected 2 poll sends, got %d", len(transport.polls))
	}
	for _, pollID := range []string{"poll-1", "poll-2"} {
		post, ok, err := store.PostByPollID(ctx, pollID)
		if err != nil || !ok {
			t.Fatalf("missing post record for %s: ok=%v err=%v", pollID, ok, err)
		}
		if !post.PostedTime.Equal(now) {
			t.Fatalf("post timestamp should be the shared fan-out time, got %v", post.PostedTime)
		}
		if _, ok, _ := cache.Get(ctx, pollID); !ok {
			t.Fatalf("missing cache entry for %s", pollID)
		}
	}
}

func TestPostPartialFailureSkipsGroupButMarksPostedOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	transport := &fakeTransport{failChats: map[int64]bool{-100: true}}

	id := addQuestion(t, store, domain.Question{Slot: "morning", Date: now})
	b, cache := newTestBroadcaster(store, transport, now)

	q, _ := store.QuestionByID(ctx, id)
	if err := b.Post(ctx, q); err != nil {
		t.Fatalf("post should tolerate per-group failure: %v", err)
	}

	// Only group2 got through; poll-1 belongs to its send.
	post, ok, _ := store.PostByPollID(ctx, "poll-1")
	if !ok || post.GroupKey != "group2" {
		t.Fatalf("expected post record for group2 only, got ok=%v post=%+v", ok, post)
	}
	if _, ok, _ := cache.Get(ctx, "poll-1"); !ok {
		t.Fatalf("expected cache entry for surviving group")
	}

	stored, _ := store.QuestionByID(ctx, id)
	if !stored.Posted || stored.PostedTime == nil || !stored.PostedTime.Equal(now) {
		t.Fatalf("question should be marked posted exactly once: %+v", stored)
	}
}

func TestPostResolvesExplicitGroupsAndSkipsUnknown(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	transport := &fakeTransport{}

	id := addQuestion(t, store, domain.Question{
		Slot: "morning", Date: now,
		TargetGroups: domain.GroupsOf("group2", "ghost"),
	})
	b, _ := newTestBroadcaster(store, transport, now)

	q, _ := store.QuestionByID(ctx, id)
	if err := b.Post(ctx, q); err != nil {
		t.Fatalf("post: %v", err)
	}
	if len(transport.polls) != 1 || transport.polls[0] != -200 {
		t.Fatalf("expected a single send to group2's chat, got %v", transport.polls)
	}
}

func TestPostImmediateMarksBeforeFanOutAndReturnsFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	transport := &fakeTransport{failChats: map[int64]bool{-100: true, -200: true}}

	id := addQuestion(t, store, domain.Question{Slot: "morning", Date: now})
	b, _ := newTestBroadcaster(store, transport, now)

	if err := b.PostImmediate(ctx, id); err == nil {
		t.Fatalf("expected immediate post to surface the send failure")
	}

	stored, _ := store.QuestionByID(ctx, id)
	if !stored.Posted {
		t.Fatalf("question must be marked posted before fan-out to block duplicate taps")
	}
}

func TestPostImmediateUnknownQuestion(t *testing.T) {
	store := memory.NewStore()
	b, _ := newTestBroadcaster(store, &fakeTransport{}, time.Now())
	if err := b.PostImmediate(context.Background(), 999); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
}
