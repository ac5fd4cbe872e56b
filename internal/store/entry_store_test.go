package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/nhle/habitlog/internal/model"
	"github.com/nhle/habitlog/internal/store"
	"github.com/nhle/habitlog/tests/testutil"
)

// recordingPusher counts push and disconnect requests.
type recordingPusher struct {
	pushes      [][]model.HabitEntry
	disconnects int
}

func (p *recordingPusher) PushAsync(entries []model.HabitEntry) {
	p.pushes = append(p.pushes, entries)
}

func (p *recordingPusher) Disconnect() { p.disconnects++ }

func testEntry(notes string) model.HabitEntry {
	return model.NewEntry(
		time.Date(2025, 6, 12, 14, 30, 0, 0, time.Local),
		model.HabitCategory{ID: "c1", Name: "REWARD"},
		notes, nil,
	)
}

func TestNewEntryStoreSeedsDefaultCategories(t *testing.T) {
	s := testutil.NewTestEntryStore(t)

	cats := s.Categories()
	if len(cats) != len(model.DefaultCategories()) {
		t.Fatalf("fresh store has %d categories, want %d", len(cats), len(model.DefaultCategories()))
	}
	for _, c := range cats {
		if c.IsCustom {
			t.Errorf("seeded category %q marked custom", c.Name)
		}
	}
}

func TestMutationsPersistAcrossReload(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewTestRepository(t)

	s, err := store.NewEntryStore(ctx, repo)
	if err != nil {
		t.Fatal(err)
	}

	e := testEntry("persisted")
	s.AddEntry(ctx, e)
	s.AddCategory(ctx, "Celebration")
	s.AddCustomColumn(ctx, "Shared", model.ColumnBoolean)
	s.SetHabitName(ctx, "Snacking")

	// A second store over the same repository sees everything.
	reloaded, err := store.NewEntryStore(ctx, repo)
	if err != nil {
		t.Fatal(err)
	}

	entries := reloaded.Entries()
	if len(entries) != 1 || entries[0].ID != e.ID || entries[0].Notes != "persisted" {
		t.Errorf("entries after reload = %+v", entries)
	}
	if _, ok := model.FindCategory(reloaded.Categories(), "celebration"); !ok {
		t.Error("custom category lost on reload")
	}
	cols := reloaded.CustomColumns()
	if len(cols) != 1 || cols[0].Name != "Shared" || cols[0].Type != model.ColumnBoolean {
		t.Errorf("columns after reload = %+v", cols)
	}
	if got := reloaded.HabitName(); got != "Snacking" {
		t.Errorf("habit name after reload = %q", got)
	}
}

func TestUpdateEntryUnknownIDIsNoOp(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestEntryStore(t)
	s.AddEntry(ctx, testEntry("original"))

	ghost := testEntry("ghost")
	s.UpdateEntry(ctx, ghost)

	entries := s.Entries()
	if len(entries) != 1 || entries[0].Notes != "original" {
		t.Errorf("unknown-ID update changed the collection: %+v", entries)
	}
}

func TestUpdateEntryReplacesMatch(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestEntryStore(t)

	e := testEntry("before")
	s.AddEntry(ctx, e)

	e.Notes = "after"
	s.UpdateEntry(ctx, e)

	entries := s.Entries()
	if len(entries) != 1 || entries[0].Notes != "after" {
		t.Errorf("update did not take: %+v", entries)
	}
}

func TestDeleteEntry(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestEntryStore(t)

	keep := testEntry("keep")
	drop := testEntry("drop")
	s.AddEntry(ctx, keep)
	s.AddEntry(ctx, drop)

	s.DeleteEntry(ctx, drop.ID)
	s.DeleteEntry(ctx, "no-such-id") // no-op

	entries := s.Entries()
	if len(entries) != 1 || entries[0].ID != keep.ID {
		t.Errorf("entries after delete = %+v", entries)
	}
}

func TestDeleteCategoryProtectsBuiltIns(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestEntryStore(t)

	builtIn := s.Categories()[0]
	s.DeleteCategory(ctx, builtIn)
	if _, ok := model.FindCategory(s.Categories(), builtIn.Name); !ok {
		t.Fatalf("built-in category %q was removed", builtIn.Name)
	}

	custom := s.AddCategory(ctx, "Celebration")
	s.DeleteCategory(ctx, custom)
	if _, ok := model.FindCategory(s.Categories(), "Celebration"); ok {
		t.Error("custom category survived delete")
	}
}

func TestMutationsRequestPush(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestEntryStore(t)
	p := &recordingPusher{}
	s.SetPusher(p)

	s.AddEntry(ctx, testEntry("one"))
	s.AddCategory(ctx, "Celebration")
	s.SetHabitName(ctx, "Snacking")

	if len(p.pushes) != 3 {
		t.Fatalf("got %d push requests, want 3", len(p.pushes))
	}
	// Each push carries the entry snapshot taken at mutation time.
	if len(p.pushes[0]) != 1 || p.pushes[0][0].Notes != "one" {
		t.Errorf("first push snapshot = %+v", p.pushes[0])
	}
}

func TestReplaceAllDoesNotPush(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestEntryStore(t)
	p := &recordingPusher{}
	s.SetPusher(p)

	s.ReplaceAll(ctx, []model.HabitEntry{testEntry("remote")})

	if len(p.pushes) != 0 {
		t.Fatalf("ReplaceAll requested %d pushes, want 0", len(p.pushes))
	}
	entries := s.Entries()
	if len(entries) != 1 || entries[0].Notes != "remote" {
		t.Errorf("entries after ReplaceAll = %+v", entries)
	}
}

func TestClearAllResetsAndDisconnects(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewTestRepository(t)
	s, err := store.NewEntryStore(ctx, repo)
	if err != nil {
		t.Fatal(err)
	}
	p := &recordingPusher{}
	s.SetPusher(p)

	s.AddEntry(ctx, testEntry("gone"))
	s.AddCategory(ctx, "Celebration")
	s.AddCustomColumn(ctx, "Shared", model.ColumnBoolean)

	s.ClearAll(ctx)

	if len(s.Entries()) != 0 {
		t.Error("entries survived ClearAll")
	}
	if len(s.CustomColumns()) != 0 {
		t.Error("columns survived ClearAll")
	}
	if _, ok := model.FindCategory(s.Categories(), "Celebration"); ok {
		t.Error("custom category survived ClearAll")
	}
	if len(s.Categories()) != len(model.DefaultCategories()) {
		t.Errorf("categories after ClearAll = %d, want the default set", len(s.Categories()))
	}
	if p.disconnects != 1 {
		t.Errorf("ClearAll signaled %d disconnects, want 1", p.disconnects)
	}

	// The reset state is what a reload sees too.
	reloaded, err := store.NewEntryStore(ctx, repo)
	if err != nil {
		t.Fatal(err)
	}
	if len(reloaded.Entries()) != 0 || len(reloaded.CustomColumns()) != 0 {
		t.Error("reset did not persist")
	}
}

func TestGettersReturnCopies(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestEntryStore(t)
	s.AddEntry(ctx, testEntry("stable"))

	got := s.Entries()
	got[0].Notes = "mutated"

	if s.Entries()[0].Notes != "stable" {
		t.Error("Entries() exposed internal state")
	}
}
