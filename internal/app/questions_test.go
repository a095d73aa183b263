package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-bot-service/internal/app"
	"quiz-bot-service/internal/domain"
	"quiz-bot-service/internal/infra/memory"
)

func newTestQuestionService(store *memory.Store) *app.QuestionService {
	return app.NewQuestionService(store, app.NewAdminGate([]int64{adminID}), time.UTC)
}

func validInput() app.QuestionInput {
	return app.QuestionInput{
		Text:          "Capital of France?",
		Options:       [4]string{"Paris", "Rome", "Madrid", "Berlin"},
		CorrectOption: domain.OptionA,
		Slot:          "Morning",
	}
}

func TestQuestionAddStampsDateAndWeek(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestQuestionService(store)

	q, err := svc.Add(ctx, adminID, validInput())
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if q.ID == 0 || q.Slot != "morning" {
		t.Fatalf("expected stored normalized question, got %+v", q)
	}
	if q.Date.IsZero() || q.WeekNumber == 0 {
		t.Fatalf("expected date and week stamps, got date=%v week=%d", q.Date, q.WeekNumber)
	}
	if !q.TargetGroups.All {
		t.Fatalf("expected all-groups default, got %+v", q.TargetGroups)
	}
}

func TestQuestionAddRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	svc := newTestQuestionService(memory.NewStore())

	for name, mutate := range map[string]func(*app.QuestionInput){
		"empty text":     func(in *app.QuestionInput) { in.Text = "" },
		"empty option":   func(in *app.QuestionInput) { in.Options[2] = "" },
		"bad correct":    func(in *app.QuestionInput) { in.CorrectOption = "E" },
		"bad slot":       func(in *app.QuestionInput) { in.Slot = "slot 1" },
		"bad sched date": func(in *app.QuestionInput) { in.ScheduledDate = "soon" },
	} {
		in := validInput()
		mutate(&in)
		if _, err := svc.Add(ctx, adminID, in); err == nil {
			t.Errorf("%s: expected rejection", name)
		}
	}
}

func TestQuestionAddRequiresAdmin(t *testing.T) {
	svc := newTestQuestionService(memory.NewStore())
	if _, err := svc.Add(context.Background(), 999, validInput()); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestQuestionUpdateKeepsProvenance(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestQuestionService(store)

	q, err := svc.Add(ctx, adminID, validInput())
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	in := validInput()
	in.Text = "Capital of Italy?"
	in.CorrectOption = domain.OptionB
	updated, err := svc.Update(ctx, adminID, q.ID, in)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Text != "Capital of Italy?" || updated.CorrectOption != domain.OptionB {
		t.Fatalf("edit not applied: %+v", updated)
	}
	if !updated.Date.Equal(q.Date) || updated.WeekNumber != q.WeekNumber {
		t.Fatalf("expected creation stamps kept, got %+v", updated)
	}
}

func TestQuestionDeleteRejectsPosted(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestQuestionService(store)

	q, err := svc.Add(ctx, adminID, validInput())
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.MarkPosted(ctx, q.ID, time.Now()); err != nil {
		t.Fatalf("mark posted: %v", err)
	}

	if err := svc.Delete(ctx, adminID, q.ID); !errors.Is(err, domain.ErrQuestionPosted) {
		t.Fatalf("expected ErrQuestionPosted, got %v", err)
	}
	if got, _ := store.QuestionByID(ctx, q.ID); got == nil {
		t.Fatalf("posted question must survive the delete attempt")
	}
}

func TestQuestionDeleteRemovesUnposted(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestQuestionService(store)

	q, err := svc.Add(ctx, adminID, validInput())
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.Delete(ctx, adminID, q.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := store.QuestionByID(ctx, q.ID); got != nil {
		t.Fatalf("expected question gone, got %+v", got)
	}
}
