package timeutil

import (
	"testing"
	"time"
)

func TestWeekNumberUsesISOWeeks(t *testing.T) {
	// 2024-01-01 is a Monday, ISO week 1 of 2024.
	if got := WeekNumber(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)); got != 202401 {
		t.Fatalf("expected 202401, got %d", got)
	}
	// 2023-01-01 is a Sunday, still ISO week 52 of 2022.
	if got := WeekNumber(time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC)); got != 202252 {
		t.Fatalf("expected 202252, got %d", got)
	}
}

func TestWeekNumberStableAcrossWeek(t *testing.T) {
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	sunday := monday.AddDate(0, 0, 6)
	if WeekNumber(monday) != WeekNumber(sunday) {
		t.Fatalf("monday and sunday of same week bucketed differently")
	}
	if WeekNumber(monday) == WeekNumber(sunday.AddDate(0, 0, 1)) {
		t.Fatalf("next monday should start a new bucket")
	}
}

func TestDateOfTruncatesInLocation(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	// 20:00 UTC is already the next day in IST.
	utc := time.Date(2024, 5, 10, 20, 0, 0, 0, time.UTC)
	got := DateOf(utc, loc)
	want := time.Date(2024, 5, 11, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestElapsedSecondsKeepsNegativeValues(t *testing.T) {
	posted := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	if got := ElapsedSeconds(posted, posted.Add(95*time.Second)); got != 95 {
		t.Fatalf("expected 95, got %d", got)
	}
	if got := ElapsedSeconds(posted, posted.Add(-3*time.Second)); got != -3 {
		t.Fatalf("expected -3, got %d", got)
	}
}
