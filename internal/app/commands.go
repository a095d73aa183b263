package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"quiz-bot-service/internal/domain"
	"quiz-bot-service/internal/report"
	"quiz-bot-service/internal/timeutil"
)

// Commands routes admin commands arriving over the gateway to the services
// and renders the reply text. Authorization happens in the services; this
// layer only parses.
type Commands struct {
	questions   *QuestionService
	slots       *SlotService
	broadcaster *Broadcaster
	leaderboard *Leaderboard
	loc         *time.Location
	now         func() time.Time
}

func NewCommands(questions *QuestionService, slots *SlotService, broadcaster *Broadcaster, leaderboard *Leaderboard, loc *time.Location) *Commands {
	return &Commands{
		questions:   questions,
		slots:       slots,
		broadcaster: broadcaster,
		leaderboard: leaderboard,
		loc:         loc,
		now:         time.Now,
	}
}

// Handle executes one command for an actor and returns the reply text.
func (c *Commands) Handle(ctx context.Context, actorID int64, command string, args []string) (string, error) {
	switch strings.ToLower(command) {
	case "addquestion":
		return c.addQuestion(ctx, actorID, args)
	case "question":
		return c.showQuestion(ctx, actorID, args)
	case "updatequestion":
		return c.updateQuestion(ctx, actorID, args)
	case "deletequestion":
		return c.deleteQuestion(ctx, actorID, args)
	case "postnow":
		return c.postNow(ctx, actorID, args)
	case "addslot":
		return c.addSlot(ctx, actorID, args)
	case "updateslot":
		return c.updateSlot(ctx, actorID, args)
	case "deleteslot":
		return c.deleteSlot(ctx, actorID, args)
	case "listslots":
		return c.listSlots(ctx)
	case "daytop":
		return c.dayTop(ctx)
	case "weektop":
		return c.weekTop(ctx)
	case "dayreport":
		return c.dayReport(ctx, actorID)
	case "weekreport":
		return c.weekReport(ctx, actorID)
	default:
		return "", fmt.Errorf("unknown command %q", command)
	}
}

func (c *Commands) addQuestion(ctx context.Context, actorID int64, args []string) (string, error) {
	in, err := parseQuestionInput(args)
	if err != nil {
		return "", err
	}
	q, err := c.questions.Add(ctx, actorID, in)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Question %d added to slot %q.", q.ID, q.Slot), nil
}

func (c *Commands) showQuestion(ctx context.Context, actorID int64, args []string) (string, error) {
	id, err := parseID(args)
	if err != nil {
		return "", err
	}
	q, err := c.questions.Get(ctx, actorID, id)
	if err != nil {
		return "", err
	}
	return formatQuestion(q), nil
}

func (c *Commands) updateQuestion(ctx context.Context, actorID int64, args []string) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("usage: updatequestion <id> <json>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return "", fmt.Errorf("bad question id %q", args[0])
	}
	in, err := parseQuestionInput(args[1:])
	if err != nil {
		return "", err
	}
	q, err := c.questions.Update(ctx, actorID, id, in)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Question %d updated.", q.ID), nil
}

func (c *Commands) deleteQuestion(ctx context.Context, actorID int64, args []string) (string, error) {
	id, err := parseID(args)
	if err != nil {
		return "", err
	}
	if err := c.questions.Delete(ctx, actorID, id); err != nil {
		return "", err
	}
	return fmt.Sprintf("Question %d deleted.", id), nil
}

// postNow is the gated immediate-post command. The broadcaster itself is not
// gated, so the gate check lives here.
func (c *Commands) postNow(ctx context.Context, actorID int64, args []string) (string, error) {
	if err := c.questions.gate.Authorize(actorID); err != nil {
		return "", err
	}
	id, err := parseID(args)
	if err != nil {
		return "", err
	}
	if err := c.broadcaster.PostImmediate(ctx, id); err != nil {
		return "", err
	}
	return fmt.Sprintf("Question %d posted.", id), nil
}

func (c *Commands) addSlot(ctx context.Context, actorID int64, args []string) (string, error) {
	name, hour, minute, err := parseSlotArgs(args)
	if err != nil {
		return "", err
	}
	slot, err := c.slots.Create(ctx, actorID, name, hour, minute)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Slot %q scheduled daily at %02d:%02d.", slot.Name, slot.Hour, slot.Minute), nil
}

func (c *Commands) updateSlot(ctx context.Context, actorID int64, args []string) (string, error) {
	name, hour, minute, err := parseSlotArgs(args)
	if err != nil {
		return "", err
	}
	if err := c.slots.Update(ctx, actorID, name, hour, minute); err != nil {
		return "", err
	}
	return fmt.Sprintf("Slot %q moved to %02d:%02d.", strings.ToLower(name), hour, minute), nil
}

func (c *Commands) deleteSlot(ctx context.Context, actorID int64, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("usage: deleteslot <name>")
	}
	if err := c.slots.Delete(ctx, actorID, args[0]); err != nil {
		return "", err
	}
	return fmt.Sprintf("Slot %q deleted.", strings.ToLower(args[0])), nil
}

func (c *Commands) listSlots(ctx context.Context) (string, error) {
	slots, err := c.slots.List(ctx)
	if err != nil {
		return "", err
	}
	if len(slots) == 0 {
		return "No slots configured.", nil
	}
	var b strings.Builder
	b.WriteString("Configured slots:\n")
	for _, s := range slots {
		state := "active"
		if !s.Active {
			state = "inactive"
		}
		fmt.Fprintf(&b, "• %s at %02d:%02d (%s)\n", s.Name, s.Hour, s.Minute, state)
	}
	return b.String(), nil
}

func (c *Commands) dayTop(ctx context.Context) (string, error) {
	today := timeutil.DateOf(c.now(), c.loc)
	entries, err := c.leaderboard.Daily(ctx, today, "")
	if err != nil {
		return "", err
	}
	return report.Leaderboard(entries), nil
}

func (c *Commands) weekTop(ctx context.Context) (string, error) {
	week := timeutil.WeekNumber(timeutil.DateOf(c.now(), c.loc))
	entries, err := c.leaderboard.Weekly(ctx, week, "")
	if err != nil {
		return "", err
	}
	return report.Leaderboard(entries), nil
}

func (c *Commands) dayReport(ctx context.Context, actorID int64) (string, error) {
	if err := c.questions.gate.Authorize(actorID); err != nil {
		return "", err
	}
	r, err := c.leaderboard.DayReport(ctx, timeutil.DateOf(c.now(), c.loc))
	if err != nil {
		return "", err
	}
	return report.DayReport(r), nil
}

func (c *Commands) weekReport(ctx context.Context, actorID int64) (string, error) {
	if err := c.questions.gate.Authorize(actorID); err != nil {
		return "", err
	}
	week := timeutil.WeekNumber(timeutil.DateOf(c.now(), c.loc))
	r, err := c.leaderboard.WeekReport(ctx, week)
	if err != nil {
		return "", err
	}
	return report.WeekReport(r), nil
}

// parseQuestionInput decodes the JSON question payload admins attach to
// addquestion and updatequestion.
func parseQuestionInput(args []string) (QuestionInput, error) {
	raw := strings.TrimSpace(strings.Join(args, " "))
	if raw == "" {
		return QuestionInput{}, fmt.Errorf("missing question payload")
	}
	var in QuestionInput
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return QuestionInput{}, fmt.Errorf("%w: %v", domain.ErrInvalidQuestion, err)
	}
	return in, nil
}

func parseID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected a question id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad question id %q", args[0])
	}
	return id, nil
}

func parseSlotArgs(args []string) (string, int, int, error) {
	if len(args) != 3 {
		return "", 0, 0, fmt.Errorf("usage: <name> <hour> <minute>")
	}
	hour, err := strconv.Atoi(args[1])
	if err != nil {
		return "", 0, 0, fmt.Errorf("bad hour %q", args[1])
	}
	minute, err := strconv.Atoi(args[2])
	if err != nil {
		return "", 0, 0, fmt.Errorf("bad minute %q", args[2])
	}
	return args[0], hour, minute, nil
}

func formatQuestion(q *domain.Question) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question %d [%s]\n%s\n", q.ID, q.Slot, q.Text)
	for i, opt := range q.Options {
		marker := " "
		if domain.OptionLetter('A'+rune(i)) == q.CorrectOption {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %c) %s\n", marker, 'A'+rune(i), opt)
	}
	if q.ScheduledDate != nil {
		fmt.Fprintf(&b, "Scheduled: %s\n", q.ScheduledDate.Format("2006-01-02"))
	}
	if q.Posted {
		b.WriteString("Status: posted\n")
	} else {
		b.WriteString("Status: pending\n")
	}
	return b.String()
}
