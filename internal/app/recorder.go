package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-bot-service/internal/domain"
	"quiz-bot-service/internal/timeutil"
)

// Outcome is the result of recording one inbound poll answer.
type Outcome int

const (
	// OutcomeUnknownPoll means the poll could not be correlated to a posted
	// question; the event is dropped (stale or foreign poll).
	OutcomeUnknownPoll Outcome = iota
	// OutcomeInserted means the answer was scored and stored.
	OutcomeInserted
	// OutcomeDuplicate means the user already answered this question; the
	// first stored answer stands.
	OutcomeDuplicate
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeDuplicate:
		return "duplicate"
	default:
		return "unknown poll"
	}
}

// Recorder scores inbound poll answers and commits idempotent response rows.
// Correlation is read through the fast-path cache with the post store as the
// durable fallback.
type Recorder struct {
	questions QuestionStore
	posts     PostStore
	responses ResponseStore
	cache     PollCache
	loc       *time.Location
	sf        singleflight.Group
}

func NewRecorder(questions QuestionStore, posts PostStore, responses ResponseStore, cache PollCache, loc *time.Location) *Recorder {
	return &Recorder{
		questions: questions,
		posts:     posts,
		responses: responses,
		cache:     cache,
		loc:       loc,
	}
}

// RecordAnswer resolves pollID back to its question, derives correctness and
// elapsed time, and inserts the response. Duplicate answers are reported as
// an outcome, never an error; unknown polls are dropped silently.
func (r *Recorder) RecordAnswer(ctx context.Context, pollID string, userID int64, username string, optionIndex int, answeredAt time.Time) (Outcome, error) {
	corr, ok, err := r.lookup(ctx, pollID)
	if err != nil {
		return OutcomeUnknownPoll, err
	}
	if !ok {
		return OutcomeUnknownPoll, nil
	}

	selected, ok := domain.OptionFromIndex(optionIndex)
	if !ok {
		return OutcomeUnknownPoll, fmt.Errorf("option index %d out of range", optionIndex)
	}

	resp := &domain.Response{
		UserID:       userID,
		Username:     username,
		QuestionID:   corr.QuestionID,
		Selected:     selected,
		Correct:      selected == corr.CorrectOption,
		RespondedAt:  answeredAt,
		TimeTakenSec: timeutil.ElapsedSeconds(corr.PostedTime, answeredAt),
		WeekNumber:   timeutil.WeekNumber(timeutil.DateOf(answeredAt, r.loc)),
		Date:         timeutil.DateOf(answeredAt, r.loc),
		GroupKey:     corr.GroupKey,
	}

	inserted, err := r.responses.AddResponse(ctx, resp)
	if err != nil {
		return OutcomeUnknownPoll, fmt.Errorf("store response: %w", err)
	}
	if !inserted {
		return OutcomeDuplicate, nil
	}
	return OutcomeInserted, nil
}

// lookup resolves a poll ID to its correlation record: cache first, then the
// durable post records joined to the question. Concurrent misses for the same
// poll collapse into one store round trip.
func (r *Recorder) lookup(ctx context.Context, pollID string) (domain.PollCorrelation, bool, error) {
	if corr, ok, err := r.cache.Get(ctx, pollID); err != nil {
		log.Printf("poll cache get %s: %v", pollID, err)
	} else if ok {
		return corr, true, nil
	}

	result, err, _ := r.sf.Do(pollID, func() (interface{}, error) {
		post, ok, err := r.posts.PostByPollID(ctx, pollID)
		if err != nil {
			return nil, fmt.Errorf("lookup post: %w", err)
		}
		if !ok {
			return nil, nil
		}
		q, err := r.questions.QuestionByID(ctx, post.QuestionID)
		if err != nil {
			return nil, fmt.Errorf("lookup question %d: %w", post.QuestionID, err)
		}
		if q == nil {
			return nil, nil
		}
		corr := domain.PollCorrelation{
			QuestionID:    post.QuestionID,
			PostedTime:    post.PostedTime,
			CorrectOption: q.CorrectOption,
			GroupKey:      post.GroupKey,
		}
		if err := r.cache.Put(ctx, pollID, corr); err != nil {
			log.Printf("poll cache backfill %s: %v", pollID, err)
		}
		return corr, nil
	})
	if err != nil {
		return domain.PollCorrelation{}, false, err
	}
	if result == nil {
		return domain.PollCorrelation{}, false, nil
	}
	return result.(domain.PollCorrelation), true, nil
}
