// Package analytics derives aggregate statistics from the entry
// collection. Everything is recomputed on demand from the current
// in-memory entries; nothing here mutates or caches.
package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/nhle/habitlog/internal/model"
)

// EntrySource supplies the current entry collection.
type EntrySource interface {
	Entries() []model.HabitEntry
}

// Unit is the calendar width of a trend bucket.
type Unit int

const (
	UnitWeek Unit = iota
	UnitMonth
)

// Bucket is one point of a time-bucketed trend series.
type Bucket struct {
	Start time.Time
	Count int
}

// CategoryCount is one row of a category breakdown.
type CategoryCount struct {
	Label string
	Count int
}

// Analyzer computes aggregates over an entry source. The clock is a
// field so tests can pin "today".
type Analyzer struct {
	source EntrySource
	now    func() time.Time
}

// New creates an analyzer using the wall clock.
func New(source EntrySource) *Analyzer {
	return &Analyzer{source: source, now: time.Now}
}

// CountSince counts entries dated at or after start.
func (a *Analyzer) CountSince(start time.Time) int {
	count := 0
	for _, e := range a.source.Entries() {
		if !e.Date.Before(start) {
			count++
		}
	}
	return count
}

// EventsThisWeek counts entries since the start of the current ISO
// week (Monday, local time).
func (a *Analyzer) EventsThisWeek() int {
	return a.CountSince(startOfWeek(a.now()))
}

// EventsThisMonth counts entries since the start of the current
// calendar month.
func (a *Analyzer) EventsThisMonth() int {
	return a.CountSince(startOfMonth(a.now()))
}

// TrailingDays counts entries within the last n days inclusive of
// today. Non-positive n returns 0; n=1 counts only entries dated today.
func (a *Analyzer) TrailingDays(n int) int {
	if n <= 0 {
		return 0
	}
	return a.CountSince(startOfDay(a.now()).AddDate(0, 0, -(n - 1)))
}

// BucketedCounts partitions [spanStart, spanEnd] into consecutive
// calendar buckets of the given unit and counts entries per bucket,
// oldest first. Bucket starts are strictly increasing with no gaps.
func (a *Analyzer) BucketedCounts(unit Unit, spanStart, spanEnd time.Time) []Bucket {
	entries := a.source.Entries()
	var buckets []Bucket

	switch unit {
	case UnitWeek:
		for cur := spanStart; !cur.After(spanEnd); cur = cur.AddDate(0, 0, 7) {
			start := startOfWeek(cur)
			buckets = append(buckets, Bucket{
				Start: start,
				Count: countBetween(entries, start, start.AddDate(0, 0, 7)),
			})
		}
	case UnitMonth:
		for start := startOfMonth(spanStart); !start.After(spanEnd); start = start.AddDate(0, 1, 0) {
			buckets = append(buckets, Bucket{
				Start: start,
				Count: countBetween(entries, start, start.AddDate(0, 1, 0)),
			})
		}
	}

	return buckets
}

// WeeklyOverYear returns weekly counts covering exactly one year
// trailing from today.
func (a *Analyzer) WeeklyOverYear() []Bucket {
	now := a.now()
	return a.BucketedCounts(UnitWeek, now.AddDate(-1, 0, 0), now)
}

// MonthlyOverYear returns monthly counts covering one year trailing
// from today.
func (a *Analyzer) MonthlyOverYear() []Bucket {
	now := a.now()
	return a.BucketedCounts(UnitMonth, now.AddDate(-1, 0, 0), now)
}

// CategoryBreakdown groups entries dated in [start, end) by category
// name, case-insensitively. The label is the first spelling seen;
// results are sorted ascending by label.
func (a *Analyzer) CategoryBreakdown(start, end time.Time) []CategoryCount {
	counts := make(map[string]int)
	labels := make(map[string]string)

	for _, e := range a.source.Entries() {
		if e.Date.Before(start) || !e.Date.Before(end) {
			continue
		}
		key := strings.ToLower(e.Category.Name)
		if _, ok := labels[key]; !ok {
			labels[key] = e.Category.Name
		}
		counts[key]++
	}

	out := make([]CategoryCount, 0, len(counts))
	for key, n := range counts {
		out = append(out, CategoryCount{Label: labels[key], Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Label < out[j].Label
	})
	return out
}

// countBetween counts entries dated in [start, end).
func countBetween(entries []model.HabitEntry, start, end time.Time) int {
	count := 0
	for _, e := range entries {
		if !e.Date.Before(start) && e.Date.Before(end) {
			count++
		}
	}
	return count
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// startOfWeek returns the Monday 00:00 of t's ISO week.
func startOfWeek(t time.Time) time.Time {
	d := startOfDay(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
