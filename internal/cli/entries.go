package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nhle/habitlog/internal/model"
)

// AddCmd logs a new habit entry.
type AddCmd struct {
	Category string   `arg:"" help:"Category (reason) name; created as custom if unknown."`
	Notes    string   `short:"n" help:"Free-form notes."`
	At       string   `help:"Timestamp as 'YYYY-MM-DD HH:MM:SS' (default: now)."`
	Field    []string `short:"f" help:"Custom field as name=value; repeatable."`
}

func (cmd *AddCmd) Run(c *Context) error {
	ctx := context.Background()

	when := time.Now()
	if cmd.At != "" {
		parsed, err := time.ParseInLocation(timestampLayout, cmd.At, time.Local)
		if err != nil {
			return fmt.Errorf("parsing --at: %w", err)
		}
		when = parsed
	}

	category, ok := model.FindCategory(c.Store.Categories(), cmd.Category)
	if !ok {
		category = c.Store.AddCategory(ctx, cmd.Category)
		fmt.Printf("created category %q\n", category.Name)
	}

	var fields map[string]model.CustomFieldValue
	cols := c.Store.CustomColumns()
	for _, pair := range cmd.Field {
		name, raw, found := strings.Cut(pair, "=")
		if !found {
			return fmt.Errorf("invalid --field %q, expected name=value", pair)
		}
		value, err := parseFieldValue(cols, name, raw)
		if err != nil {
			return err
		}
		if fields == nil {
			fields = make(map[string]model.CustomFieldValue)
		}
		fields[name] = value
	}

	entry := model.NewEntry(when, category, cmd.Notes, fields)
	c.Store.AddEntry(ctx, entry)
	fmt.Printf("logged %s at %s\n", category.Name, formatWhen(when))

	if c.Config.Display.ShowInsights {
		fmt.Printf("this week: %d, this month: %d\n",
			c.Analytics.EventsThisWeek(), c.Analytics.EventsThisMonth())
	}

	c.pushAfterMutation(ctx)
	return nil
}

// ListCmd prints entries, newest first.
type ListCmd struct {
	Limit int `default:"25" help:"Maximum number of entries to show (0 = all)."`
}

func (cmd *ListCmd) Run(c *Context) error {
	entries := c.Store.Entries()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.After(entries[j].Date)
	})
	if cmd.Limit > 0 && len(entries) > cmd.Limit {
		entries = entries[:cmd.Limit]
	}

	if len(entries) == 0 {
		fmt.Println("no entries logged yet")
		return nil
	}

	for _, e := range entries {
		line := fmt.Sprintf("%s  %-12s %s", formatWhen(e.Date), e.Category.Name, e.Notes)
		fmt.Println(strings.TrimRight(line, " "))
	}
	return nil
}

// DeleteCmd removes an entry by ID.
type DeleteCmd struct {
	ID string `arg:"" help:"Entry ID."`
}

func (cmd *DeleteCmd) Run(c *Context) error {
	ctx := context.Background()
	c.Store.DeleteEntry(ctx, cmd.ID)
	fmt.Println("deleted (if the ID existed)")

	c.pushAfterMutation(ctx)
	return nil
}

// NameCmd shows or sets the habit label.
type NameCmd struct {
	Name string `arg:"" optional:"" help:"New habit name; omit to show the current one."`
}

func (cmd *NameCmd) Run(c *Context) error {
	if cmd.Name == "" {
		name := c.Store.HabitName()
		if name == "" {
			fmt.Println("no habit name set")
		} else {
			fmt.Println(name)
		}
		return nil
	}

	ctx := context.Background()
	c.Store.SetHabitName(ctx, cmd.Name)
	fmt.Printf("habit name set to %q\n", cmd.Name)

	c.pushAfterMutation(ctx)
	return nil
}
