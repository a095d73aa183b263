package report

import (
	"strings"
	"testing"

	"quiz-bot-service/internal/domain"
)

func TestLeaderboardRendersMedalsAndNames(t *testing.T) {
	out := Leaderboard([]domain.LeaderboardEntry{
		{UserID: 1, Username: "alice", Correct: 3},
		{UserID: 2, Username: "@bob", Correct: 2},
		{UserID: 3, Correct: 1},
	})
	for _, want := range []string{"🥇 @alice - 3 pts", "🥈 @bob - 2 pts", "🥉 User 3 - 1 pts"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
}

func TestLeaderboardEmpty(t *testing.T) {
	if out := Leaderboard(nil); !strings.Contains(out, "No participants yet.") {
		t.Fatalf("unexpected empty-board text: %q", out)
	}
}

func TestCombinedContainsBothSections(t *testing.T) {
	out := Combined(
		[]domain.LeaderboardEntry{{UserID: 1, Username: "alice", Correct: 1}},
		nil,
	)
	if !strings.Contains(out, "Daily Top Performers") || !strings.Contains(out, "Weekly Leaderboard") {
		t.Fatalf("missing section headers:\n%s", out)
	}
}

func TestDayReportTable(t *testing.T) {
	out := DayReport(domain.PeriodReport{
		TotalCorrect: 4,
		TotalWrong:   2,
		Users: []domain.UserReportRow{
			{UserID: 7, Username: "carol", Correct: 3, Wrong: 1, TotalTimeSec: 75},
		},
	})
	for _, want := range []string{"Total Correct: 4", "Total Wrong: 2", "carol", "1m 15s"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
}

func TestDayReportNoData(t *testing.T) {
	if out := DayReport(domain.PeriodReport{}); !strings.Contains(out, "No data available") {
		t.Fatalf("unexpected no-data text: %q", out)
	}
}

func TestFormatSeconds(t *testing.T) {
	cases := map[int64]string{
		42:   "42s",
		192:  "3m 12s",
		3845: "1h 4m 5s",
	}
	for sec, want := range cases {
		if got := FormatSeconds(sec); got != want {
			t.Fatalf("FormatSeconds(%d) = %q, want %q", sec, got, want)
		}
	}
}

func TestQuizHeaderCapitalizesSlot(t *testing.T) {
	if got := QuizHeader("morning"); !strings.Contains(got, "Morning Quiz") {
		t.Fatalf("unexpected header %q", got)
	}
}
