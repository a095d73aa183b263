// Package report renders leaderboards and admin statistics as chat text.
package report

import (
	"fmt"
	"strings"

	"quiz-bot-service/internal/domain"
)

const (
	dailyHeader  = "🏆 Daily Top Performers\n\n"
	weeklyHeader = "📅 Weekly Leaderboard (Till Today)\n\n"
	dayHeader    = "📊 Day Report\n\n"
	weekHeader   = "📊 Week Report\n\n"
	noDataMsg    = "No data available for this period."
)

var medals = []string{"🥇", "🥈", "🥉", "4️⃣", "5️⃣"}

// QuizHeader is the banner prepended to a posted question's text.
func QuizHeader(slot string) string {
	return fmt.Sprintf("📝 %s Quiz 📝\n\n", capitalize(slot))
}

// Leaderboard renders ranked entries as medal-prefixed lines.
func Leaderboard(entries []domain.LeaderboardEntry) string {
	if len(entries) == 0 {
		return "No participants yet.\n"
	}
	var b strings.Builder
	for i, e := range entries {
		medal := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			medal = medals[i]
		}
		fmt.Fprintf(&b, "%s %s - %d pts\n", medal, displayName(e.Username, e.UserID), e.Correct)
	}
	return b.String()
}

// GroupLeaderboard renders a leaderboard under a group heading.
func GroupLeaderboard(entries []domain.LeaderboardEntry, groupName string) string {
	if len(entries) == 0 {
		return fmt.Sprintf("%s\nNo participants yet.\n", groupName)
	}
	return groupName + "\n" + Leaderboard(entries)
}

// Combined is the nightly report: today's board followed by the running
// weekly board.
func Combined(daily, weekly []domain.LeaderboardEntry) string {
	var b strings.Builder
	b.WriteString(dailyHeader)
	b.WriteString(Leaderboard(daily))
	b.WriteString("\n")
	b.WriteString(weeklyHeader)
	b.WriteString(Leaderboard(weekly))
	return b.String()
}

// DayReport renders the admin statistics table for one date.
func DayReport(r domain.PeriodReport) string {
	return periodReport(dayHeader, r)
}

// WeekReport renders the admin statistics table for one week bucket.
func WeekReport(r domain.PeriodReport) string {
	return periodReport(weekHeader, r)
}

func periodReport(header string, r domain.PeriodReport) string {
	if len(r.Users) == 0 {
		return header + noDataMsg
	}
	var b strings.Builder
	b.WriteString(header)
	fmt.Fprintf(&b, "Total Correct: %d\n", r.TotalCorrect)
	fmt.Fprintf(&b, "Total Wrong: %d\n\n", r.TotalWrong)
	fmt.Fprintf(&b, "%-12s | %-20s | %-8s | %-8s | %-10s\n", "User ID", "Username", "Correct", "Wrong", "Time")
	b.WriteString(strings.Repeat("-", 70) + "\n")
	for _, u := range r.Users {
		name := u.Username
		if name == "" {
			name = "N/A"
		}
		fmt.Fprintf(&b, "%-12d | %-20s | %-8d | %-8d | %-10s\n", u.UserID, name, u.Correct, u.Wrong, FormatSeconds(u.TotalTimeSec))
	}
	return b.String()
}

// FormatSeconds renders an elapsed-seconds total as 42s, 3m 12s or 1h 4m 5s.
func FormatSeconds(sec int64) string {
	if sec < 60 {
		return fmt.Sprintf("%ds", sec)
	}
	minutes, rem := sec/60, sec%60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, rem)
	}
	return fmt.Sprintf("%dh %dm %ds", minutes/60, minutes%60, rem)
}

func displayName(username string, userID int64) string {
	if username == "" {
		return fmt.Sprintf("User %d", userID)
	}
	if !strings.HasPrefix(username, "@") {
		return "@" + username
	}
	return username
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
