package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"quiz-bot-service/internal/domain"
	"quiz-bot-service/internal/report"
	"quiz-bot-service/internal/timeutil"
)

// Broadcaster selects the next question for a slot and fans it out to the
// configured groups, recording one post per group plus the fast-path cache
// entry used to score inbound answers.
type Broadcaster struct {
	questions QuestionStore
	posts     PostStore
	cache     PollCache
	transport Transport
	groups    []domain.Group
	loc       *time.Location
	now       func() time.Time
}

func NewBroadcaster(questions QuestionStore, posts PostStore, cache PollCache, transport Transport, groups []domain.Group, loc *time.Location) *Broadcaster {
	return &Broadcaster{
		questions: questions,
		posts:     posts,
		cache:     cache,
		transport: transport,
		groups:    groups,
		loc:       loc,
		now:       time.Now,
	}
}

// NewBroadcasterWithClock is for deterministic timestamps in tests.
func NewBroadcasterWithClock(questions QuestionStore, posts PostStore, cache PollCache, transport Transport, groups []domain.Group, loc *time.Location, now func() time.Time) *Broadcaster {
	b := NewBroadcaster(questions, posts, cache, transport, groups, loc)
	b.now = now
	return b
}

// SelectNext picks the next eligible unposted question for the slot.
// Returns (nil, nil) when nothing is due; callers skip silently.
func (b *Broadcaster) SelectNext(ctx context.Context, slot string) (*domain.Question, error) {
	today := timeutil.DateOf(b.now(), b.loc)
	return b.questions.NextUnposted(ctx, slot, today)
}

// PostSlot is the scheduled-trigger entry point: select and broadcast the
// next question for the slot, doing nothing when no question is due.
func (b *Broadcaster) PostSlot(ctx context.Context, slot string) error {
	q, err := b.SelectNext(ctx, slot)
	if err != nil {
		return fmt.Errorf("select next for slot %q: %w", slot, err)
	}
	if q == nil {
		log.Printf("no unposted questions available for slot %q", slot)
		return nil
	}
	return b.Post(ctx, q)
}

// Post fans the question out to its target groups. Per-group send failures
// are logged and skipped so one bad group cannot starve the rest; the
// question is marked posted exactly once, after all groups were attempted,
// with a single timestamp shared by every per-group post record.
func (b *Broadcaster) Post(ctx context.Context, q *domain.Question) error {
	postedAt := b.now().In(b.loc)

	for _, group := range b.resolveGroups(q.TargetGroups) {
		if err := b.postToGroup(ctx, q, group, postedAt); err != nil {
			log.Printf("post question %d to group %q failed: %v", q.ID, group.Key, err)
			continue
		}
		log.Printf("posted question %d to group %q", q.ID, group.Key)
	}

	if err := b.questions.MarkPosted(ctx, q.ID, postedAt); err != nil {
		return fmt.Errorf("mark question %d posted: %w", q.ID, err)
	}
	q.Posted = true
	q.PostedTime = &postedAt
	return nil
}

// PostImmediate broadcasts a specific question right away, out of band of the
// scheduler. The question is marked posted before the fan-out so repeated
// admin taps cannot double-post, and the first per-group failure is returned
// so the interactive caller can report it.
func (b *Broadcaster) PostImmediate(ctx context.Context, questionID int64) error {
	q, err := b.questions.QuestionByID(ctx, questionID)
	if err != nil {
		return err
	}
	if q == nil {
		return domain.ErrQuestionNotFound
	}

	postedAt := b.now().In(b.loc)
	if err := b.questions.MarkPosted(ctx, questionID, postedAt); err != nil {
		return fmt.Errorf("mark question %d posted: %w", questionID, err)
	}
	q.Posted = true
	q.PostedTime = &postedAt

	for _, group := range b.resolveGroups(q.TargetGroups) {
		if err := b.postToGroup(ctx, q, group, postedAt); err != nil {
			log.Printf("immediate post of question %d to group %q failed: %v", q.ID, group.Key, err)
			return err
		}
		log.Printf("posted question %d immediately to group %q", q.ID, group.Key)
	}
	return nil
}

// resolveGroups maps the question's target set onto the configured groups in
// configuration order. Unknown keys are warned about and dropped.
func (b *Broadcaster) resolveGroups(targets domain.TargetGroups) []domain.Group {
	if targets.All {
		return b.groups
	}
	wanted := make(map[string]bool, len(targets.Keys))
	for _, key := range targets.Keys {
		wanted[key] = true
	}
	resolved := make([]domain.Group, 0, len(targets.Keys))
	for _, group := range b.groups {
		if wanted[group.Key] {
			resolved = append(resolved, group)
			delete(wanted, group.Key)
		}
	}
	for key := range wanted {
		log.Printf("target group %q not in configuration, skipping", key)
	}
	return resolved
}

func (b *Broadcaster) postToGroup(ctx context.Context, q *domain.Question, group domain.Group, postedAt time.Time) error {
	caption := report.QuizHeader(q.Slot) + q.Text

	switch {
	case q.ImageFileID != "":
		if _, err := b.transport.SendPhoto(ctx, group.ChatID, PhotoSource{FileID: q.ImageFileID}, caption); err != nil {
			return fmt.Errorf("send photo: %w", err)
		}
	case q.ImageLocalPath != "" && fileExists(q.ImageLocalPath):
		fileID, err := b.transport.SendPhoto(ctx, group.ChatID, PhotoSource{LocalPath: q.ImageLocalPath}, caption)
		if err != nil {
			return fmt.Errorf("send photo: %w", err)
		}
		// Remember the transport handle so later sends skip the upload.
		if fileID != "" {
			if err := b.questions.SetImageFileID(ctx, q.ID, fileID); err != nil {
				log.Printf("store image file id for question %d: %v", q.ID, err)
			} else {
				q.ImageFileID = fileID
			}
		}
	default:
		if err := b.transport.SendMessage(ctx, group.ChatID, caption); err != nil {
			return fmt.Errorf("send message: %w", err)
		}
	}

	pollID, err := b.transport.SendQuizPoll(ctx, group.ChatID, "Choose your answer:", q.Options, q.CorrectOption.Index())
	if err != nil {
		return fmt.Errorf("send poll: %w", err)
	}

	if err := b.posts.CreatePost(ctx, &domain.QuizPost{
		QuestionID: q.ID,
		GroupKey:   group.Key,
		PollID:     pollID,
		PostedTime: postedAt,
	}); err != nil {
		return fmt.Errorf("record post: %w", err)
	}

	corr := domain.PollCorrelation{
		QuestionID:    q.ID,
		PostedTime:    postedAt,
		CorrectOption: q.CorrectOption,
		GroupKey:      group.Key,
	}
	if err := b.cache.Put(ctx, pollID, corr); err != nil {
		// Cache is a latency optimization; the post record above is the
		// durable source of truth.
		log.Printf("cache poll %s: %v", pollID, err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
