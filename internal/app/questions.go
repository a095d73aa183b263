package app

import (
	"context"
	"fmt"
	"time"

	"quiz-bot-service/internal/domain"
	"quiz-bot-service/internal/timeutil"
)

// QuestionInput is the admin-facing shape for creating or editing a question.
type QuestionInput struct {
	Text           string              `json:"text"`
	Options        [4]string           `json:"options"`
	CorrectOption  domain.OptionLetter `json:"correct"`
	Slot           string              `json:"slot"`
	ScheduledDate  string              `json:"scheduledDate,omitempty"` // YYYY-MM-DD
	TargetGroups   []string            `json:"targetGroups,omitempty"`  // empty means all
	ImageLocalPath string              `json:"imagePath,omitempty"`
}

// QuestionService is the gated admin surface for the question bank.
type QuestionService struct {
	questions QuestionStore
	gate      *AdminGate
	loc       *time.Location
	now       func() time.Time
}

func NewQuestionService(questions QuestionStore, gate *AdminGate, loc *time.Location) *QuestionService {
	return &QuestionService{questions: questions, gate: gate, loc: loc, now: time.Now}
}

// Add stores a new question, stamping it with the current date and week
// bucket.
func (s *QuestionService) Add(ctx context.Context, actorID int64, in QuestionInput) (*domain.Question, error) {
	if err := s.gate.Authorize(actorID); err != nil {
		return nil, err
	}
	q, err := s.build(in)
	if err != nil {
		return nil, err
	}
	date := timeutil.DateOf(s.now(), s.loc)
	q.Date = date
	q.WeekNumber = timeutil.WeekNumber(date)

	if _, err := s.questions.AddQuestion(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// Get loads one question by ID.
func (s *QuestionService) Get(ctx context.Context, actorID int64, id int64) (*domain.Question, error) {
	if err := s.gate.Authorize(actorID); err != nil {
		return nil, err
	}
	q, err := s.questions.QuestionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, domain.ErrQuestionNotFound
	}
	return q, nil
}

// Update replaces the editable fields of an existing question. The creation
// date, week bucket and posted state are kept.
func (s *QuestionService) Update(ctx context.Context, actorID int64, id int64, in QuestionInput) (*domain.Question, error) {
	if err := s.gate.Authorize(actorID); err != nil {
		return nil, err
	}
	existing, err := s.questions.QuestionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, domain.ErrQuestionNotFound
	}
	q, err := s.build(in)
	if err != nil {
		return nil, err
	}
	q.ID = existing.ID
	q.Date = existing.Date
	q.WeekNumber = existing.WeekNumber
	q.Posted = existing.Posted
	q.PostedTime = existing.PostedTime
	if q.ImageLocalPath == "" {
		q.ImageLocalPath = existing.ImageLocalPath
		q.ImageFileID = existing.ImageFileID
	}

	if err := s.questions.UpdateQuestion(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// Delete removes an unposted question. Posted questions are kept so their
// responses stay explicable.
func (s *QuestionService) Delete(ctx context.Context, actorID int64, id int64) error {
	if err := s.gate.Authorize(actorID); err != nil {
		return err
	}
	q, err := s.questions.QuestionByID(ctx, id)
	if err != nil {
		return err
	}
	if q == nil {
		return domain.ErrQuestionNotFound
	}
	if q.Posted {
		return domain.ErrQuestionPosted
	}
	return s.questions.DeleteQuestion(ctx, id)
}

func (s *QuestionService) build(in QuestionInput) (*domain.Question, error) {
	if in.Text == "" {
		return nil, fmt.Errorf("%w: empty text", domain.ErrInvalidQuestion)
	}
	for i, opt := range in.Options {
		if opt == "" {
			return nil, fmt.Errorf("%w: empty option %c", domain.ErrInvalidQuestion, 'A'+rune(i))
		}
	}
	if !in.CorrectOption.Valid() {
		return nil, fmt.Errorf("%w: correct option %q", domain.ErrInvalidQuestion, in.CorrectOption)
	}
	slot, err := normalizeSlotName(in.Slot)
	if err != nil {
		return nil, err
	}

	q := &domain.Question{
		Text:           in.Text,
		Options:        in.Options,
		CorrectOption:  in.CorrectOption,
		Slot:           slot,
		TargetGroups:   domain.AllGroups(),
		ImageLocalPath: in.ImageLocalPath,
	}
	if len(in.TargetGroups) > 0 {
		q.TargetGroups = domain.GroupsOf(in.TargetGroups...)
	}
	if in.ScheduledDate != "" {
		scheduled, err := time.ParseInLocation("2006-01-02", in.ScheduledDate, s.loc)
		if err != nil {
			return nil, fmt.Errorf("%w: scheduled date %q", domain.ErrInvalidQuestion, in.ScheduledDate)
		}
		q.ScheduledDate = &scheduled
	}
	return q, nil
}
