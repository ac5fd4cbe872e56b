package analytics

import (
	"testing"
	"time"

	"github.com/nhle/habitlog/internal/model"
)

type sliceSource []model.HabitEntry

func (s sliceSource) Entries() []model.HabitEntry { return s }

// Wednesday afternoon; the current ISO week starts Monday 2025-06-09.
var fixedNow = time.Date(2025, 6, 11, 15, 0, 0, 0, time.Local)

func analyzerAt(entries []model.HabitEntry, now time.Time) *Analyzer {
	a := New(sliceSource(entries))
	a.now = func() time.Time { return now }
	return a
}

func entryOn(y int, m time.Month, d, hour int, category string) model.HabitEntry {
	return model.NewEntry(
		time.Date(y, m, d, hour, 0, 0, 0, time.Local),
		model.HabitCategory{ID: "c-" + category, Name: category},
		"", nil,
	)
}

func TestTrailingDays(t *testing.T) {
	entries := []model.HabitEntry{
		entryOn(2025, 6, 11, 9, "REWARD"),  // today
		entryOn(2025, 6, 10, 23, "REWARD"), // yesterday
		entryOn(2025, 6, 5, 12, "REWARD"),  // 6 days ago
		entryOn(2025, 6, 4, 12, "REWARD"),  // 7 days ago
	}
	a := analyzerAt(entries, fixedNow)

	cases := []struct {
		n    int
		want int
	}{
		{-1, 0},
		{0, 0},
		{1, 1}, // today only
		{2, 2},
		{7, 3}, // includes 6 days ago, excludes 7
		{8, 4},
	}
	for _, tc := range cases {
		if got := a.TrailingDays(tc.n); got != tc.want {
			t.Errorf("TrailingDays(%d) = %d, want %d", tc.n, got, tc.want)
		}
	}
}

func TestEventsThisWeekStartsMonday(t *testing.T) {
	entries := []model.HabitEntry{
		entryOn(2025, 6, 9, 0, "REWARD"),   // Monday 00:00, in
		entryOn(2025, 6, 11, 14, "REWARD"), // today, in
		entryOn(2025, 6, 8, 23, "REWARD"),  // Sunday before, out
	}
	a := analyzerAt(entries, fixedNow)

	if got := a.EventsThisWeek(); got != 2 {
		t.Errorf("EventsThisWeek() = %d, want 2", got)
	}
}

func TestEventsThisMonth(t *testing.T) {
	entries := []model.HabitEntry{
		entryOn(2025, 6, 1, 0, "REWARD"),
		entryOn(2025, 6, 11, 9, "REWARD"),
		entryOn(2025, 5, 31, 23, "REWARD"), // previous month
	}
	a := analyzerAt(entries, fixedNow)

	if got := a.EventsThisMonth(); got != 2 {
		t.Errorf("EventsThisMonth() = %d, want 2", got)
	}
}

func TestWeeklyOverYearShape(t *testing.T) {
	entries := []model.HabitEntry{
		entryOn(2025, 6, 10, 9, "REWARD"),
		entryOn(2025, 6, 3, 9, "REWARD"),
		entryOn(2025, 1, 15, 9, "REWARD"),
	}
	a := analyzerAt(entries, fixedNow)

	buckets := a.WeeklyOverYear()
	if n := len(buckets); n != 52 && n != 53 {
		t.Fatalf("got %d weekly buckets, want 52 or 53", n)
	}

	for i, b := range buckets {
		if b.Start.Weekday() != time.Monday {
			t.Errorf("bucket %d starts on %v, want Monday", i, b.Start.Weekday())
		}
		if i > 0 {
			if want := buckets[i-1].Start.AddDate(0, 0, 7); !b.Start.Equal(want) {
				t.Errorf("bucket %d starts %v, want %v", i, b.Start, want)
			}
		}
	}

	total := 0
	for _, b := range buckets {
		total += b.Count
	}
	if total != len(entries) {
		t.Errorf("bucket counts sum to %d, want %d", total, len(entries))
	}

	// The two most recent entries land in the current and previous week.
	last := buckets[len(buckets)-1]
	if last.Count != 1 {
		t.Errorf("current week count = %d, want 1", last.Count)
	}
	if prev := buckets[len(buckets)-2]; prev.Count != 1 {
		t.Errorf("previous week count = %d, want 1", prev.Count)
	}
}

func TestMonthlyOverYearShape(t *testing.T) {
	entries := []model.HabitEntry{
		entryOn(2025, 6, 10, 9, "REWARD"),
		entryOn(2025, 6, 3, 9, "REWARD"),
		entryOn(2024, 7, 1, 9, "REWARD"),
	}
	a := analyzerAt(entries, fixedNow)

	buckets := a.MonthlyOverYear()
	if len(buckets) != 13 {
		t.Fatalf("got %d monthly buckets, want 13", len(buckets))
	}
	if got := buckets[0].Start; !got.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.Local)) {
		t.Errorf("first bucket starts %v, want 2024-06-01", got)
	}
	for i, b := range buckets {
		if b.Start.Day() != 1 {
			t.Errorf("bucket %d starts on day %d, want 1", i, b.Start.Day())
		}
		if i > 0 {
			if want := buckets[i-1].Start.AddDate(0, 1, 0); !b.Start.Equal(want) {
				t.Errorf("bucket %d starts %v, want %v", i, b.Start, want)
			}
		}
	}
	if last := buckets[len(buckets)-1]; last.Count != 2 {
		t.Errorf("current month count = %d, want 2", last.Count)
	}
}

func TestMonthBucketsSurviveLongMonths(t *testing.T) {
	// A span starting late in a 31-day month still yields every calendar
	// month with no skips.
	now := time.Date(2025, 1, 31, 12, 0, 0, 0, time.Local)
	a := analyzerAt(nil, now)

	buckets := a.BucketedCounts(UnitMonth, now.AddDate(0, -3, 0), now)
	want := []time.Time{
		time.Date(2024, 10, 1, 0, 0, 0, 0, time.Local),
		time.Date(2024, 11, 1, 0, 0, 0, 0, time.Local),
		time.Date(2024, 12, 1, 0, 0, 0, 0, time.Local),
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local),
	}
	if len(buckets) != len(want) {
		t.Fatalf("got %d buckets, want %d", len(buckets), len(want))
	}
	for i, b := range buckets {
		if !b.Start.Equal(want[i]) {
			t.Errorf("bucket %d starts %v, want %v", i, b.Start, want[i])
		}
	}
}

func TestCategoryBreakdown(t *testing.T) {
	entries := []model.HabitEntry{
		entryOn(2025, 6, 2, 9, "Reward"),
		entryOn(2025, 6, 3, 9, "REWARD"), // merges case-insensitively
		entryOn(2025, 6, 4, 9, "Focus"),
		entryOn(2025, 6, 30, 9, "Focus"), // at end, excluded
		entryOn(2025, 5, 31, 9, "Relax"), // before start, excluded
	}
	a := analyzerAt(entries, fixedNow)

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local)
	end := time.Date(2025, 6, 30, 9, 0, 0, 0, time.Local)
	got := a.CategoryBreakdown(start, end)

	want := []CategoryCount{
		{Label: "Focus", Count: 1},
		{Label: "Reward", Count: 2},
	}
	if len(got) != len(want) {
		t.Fatalf("breakdown = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestCountSinceEmptySource(t *testing.T) {
	a := analyzerAt(nil, fixedNow)
	if got := a.CountSince(time.Time{}); got != 0 {
		t.Errorf("CountSince on empty source = %d", got)
	}
	if got := a.EventsThisWeek(); got != 0 {
		t.Errorf("EventsThisWeek on empty source = %d", got)
	}
}
