package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/nhle/habitlog/internal/analytics"
)

// StatsCmd prints aggregate statistics for the logged entries.
type StatsCmd struct {
	Trailing int  `default:"7" help:"Trailing window in days for the rolling count."`
	Weekly   bool `help:"Show the weekly trend over the last year."`
	Monthly  bool `help:"Show the monthly trend over the last year."`
}

func (cmd *StatsCmd) Run(c *Context) error {
	a := c.Analytics

	fmt.Printf("this week:  %d\n", a.EventsThisWeek())
	fmt.Printf("this month: %d\n", a.EventsThisMonth())
	fmt.Printf("last %d days: %d\n", cmd.Trailing, a.TrailingDays(cmd.Trailing))

	now := time.Now()
	breakdown := a.CategoryBreakdown(now.AddDate(0, -1, 0), now)
	if len(breakdown) > 0 {
		fmt.Println("\nby category (last month):")
		for _, row := range breakdown {
			fmt.Printf("  %-20s %d\n", row.Label, row.Count)
		}
	}

	if cmd.Weekly {
		fmt.Println("\nweekly over the last year:")
		printBuckets(a.WeeklyOverYear(), "2006-01-02")
	}
	if cmd.Monthly {
		fmt.Println("\nmonthly over the last year:")
		printBuckets(a.MonthlyOverYear(), "2006-01")
	}

	return nil
}

// printBuckets renders a minimal textual bar chart.
func printBuckets(buckets []analytics.Bucket, layout string) {
	for _, b := range buckets {
		fmt.Printf("  %s %3d %s\n", b.Start.Format(layout), b.Count, strings.Repeat("#", b.Count))
	}
}
