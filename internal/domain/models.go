package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// OptionLetter identifies one of the four answer options of a question.
type OptionLetter string

const (
	OptionA OptionLetter = "A"
	OptionB OptionLetter = "B"
	OptionC OptionLetter = "C"
	OptionD OptionLetter = "D"
)

// OptionFromIndex maps a zero-based poll option index to a letter (0=A .. 3=D).
func OptionFromIndex(i int) (OptionLetter, bool) {
	if i < 0 || i > 3 {
		return "", false
	}
	return OptionLetter('A' + rune(i)), true
}

// Index returns the zero-based poll option index for the letter, or -1.
func (o OptionLetter) Index() int {
	if len(o) != 1 || o[0] < 'A' || o[0] > 'D' {
		return -1
	}
	return int(o[0] - 'A')
}

// Valid reports whether the letter is one of A-D.
func (o OptionLetter) Valid() bool {
	return o.Index() >= 0
}

// TargetGroupsAll is the persisted sentinel meaning "every configured group".
const TargetGroupsAll = "all"

// TargetGroups is either the "all groups" sentinel or an explicit set of group keys.
type TargetGroups struct {
	All  bool
	Keys []string
}

// AllGroups returns the sentinel target covering every configured group.
func AllGroups() TargetGroups {
	return TargetGroups{All: true}
}

// GroupsOf returns an explicit target set.
func GroupsOf(keys ...string) TargetGroups {
	return TargetGroups{Keys: keys}
}

// Encode serializes the target set to its persisted form: the literal "all"
// or a JSON array of group keys.
func (t TargetGroups) Encode() string {
	if t.All || len(t.Keys) == 0 {
		return TargetGroupsAll
	}
	raw, err := json.Marshal(t.Keys)
	if err != nil {
		return TargetGroupsAll
	}
	return string(raw)
}

// ParseTargetGroups decodes the persisted target-group form.
func ParseTargetGroups(raw string) (TargetGroups, error) {
	if raw == "" || raw == TargetGroupsAll {
		return AllGroups(), nil
	}
	var keys []string
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		return TargetGroups{}, fmt.Errorf("parse target groups %q: %w", raw, err)
	}
	if len(keys) == 0 {
		return AllGroups(), nil
	}
	return TargetGroups{Keys: keys}, nil
}

// Question is a single multiple-choice quiz question.
type Question struct {
	ID             int64
	Text           string
	ImageFileID    string // transport-issued content handle, reusable across sends
	ImageLocalPath string
	Options        [4]string // A, B, C, D
	CorrectOption  OptionLetter
	Slot           string
	WeekNumber     int
	Date           time.Time // creation date, midnight in the bot timezone
	ScheduledDate  *time.Time
	TargetGroups   TargetGroups
	Posted         bool
	PostedTime     *time.Time
}

// Slot is a named daily posting trigger.
type Slot struct {
	ID     int64
	Name   string
	Hour   int
	Minute int
	Active bool
}

// Group is a configured broadcast destination.
type Group struct {
	Key    string `yaml:"key"`
	Name   string `yaml:"name"`
	ChatID int64  `yaml:"chat_id"`
}

// QuizPost records one question posted to one group. Append-only; the poll ID
// is the correlation key for inbound answers.
type QuizPost struct {
	ID         int64
	QuestionID int64
	GroupKey   string
	PollID     string
	PostedTime time.Time
}

// Response is one user's first answer to one question in one group.
type Response struct {
	ID           int64
	UserID       int64
	Username     string
	QuestionID   int64
	Selected     OptionLetter
	Correct      bool
	RespondedAt  time.Time
	TimeTakenSec int64
	WeekNumber   int
	Date         time.Time
	GroupKey     string
}

// LeaderboardEntry is one ranked row of a daily or weekly leaderboard.
type LeaderboardEntry struct {
	UserID       int64  `json:"userId"`
	Username     string `json:"username"`
	Correct      int    `json:"correct"`
	TotalTimeSec int64  `json:"totalTimeSec"`
}

// UserReportRow is one user's aggregate line in an admin report.
type UserReportRow struct {
	UserID       int64
	Username     string
	Correct      int
	Wrong        int
	TotalTimeSec int64
}

// PeriodReport aggregates all responses of a day or week for admin reporting.
type PeriodReport struct {
	TotalCorrect int
	TotalWrong   int
	Users        []UserReportRow
}

// PollCorrelation is the lightweight record cached per active poll so inbound
// answers can be scored without a durable-store round trip.
type PollCorrelation struct {
	QuestionID    int64        `json:"questionId"`
	PostedTime    time.Time    `json:"postedTime"`
	CorrectOption OptionLetter `json:"correctOption"`
	GroupKey      string       `json:"groupKey"`
}
