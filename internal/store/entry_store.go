package store

import (
	"context"
	"sync"

	"github.com/nhle/habitlog/internal/logger"
	"github.com/nhle/habitlog/internal/model"
)

// Pusher receives push requests from the entry store after local
// mutations. The sync engine implements it; a nil pusher means sync is
// not configured and pushes are skipped.
type Pusher interface {
	// PushAsync requests a best-effort background push of the given
	// entries. It must not block; requests arriving while a sync is in
	// flight are dropped.
	PushAsync(entries []model.HabitEntry)

	// Disconnect stops future syncs. It does not abort one in flight.
	Disconnect()
}

// EntryStore is the in-memory authoritative collection of habit
// entries, categories, and custom column definitions. Every mutation
// persists the affected collection synchronously before the call
// returns, then requests an asynchronous remote push. A failed push
// never rolls back the local mutation.
type EntryStore struct {
	mu     sync.Mutex
	repo   Repository
	pusher Pusher

	entries    []model.HabitEntry
	columns    []model.CustomColumn
	categories []model.HabitCategory
	habitName  string
}

// NewEntryStore loads the persisted collections from repo. A store
// with no persisted categories starts with the built-in default set.
func NewEntryStore(ctx context.Context, repo Repository) (*EntryStore, error) {
	s := &EntryStore{repo: repo}

	var err error
	if s.entries, err = repo.Entries(ctx); err != nil {
		return nil, err
	}
	if s.columns, err = repo.Columns(ctx); err != nil {
		return nil, err
	}
	if s.categories, err = repo.Categories(ctx); err != nil {
		return nil, err
	}
	if s.habitName, err = repo.HabitName(ctx); err != nil {
		return nil, err
	}

	if len(s.categories) == 0 {
		s.categories = model.DefaultCategories()
	}

	return s, nil
}

// SetPusher wires the sync engine in. Must be called before any
// mutation that should trigger a push.
func (s *EntryStore) SetPusher(p Pusher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pusher = p
}

// Entries returns a copy of the current entry collection.
func (s *EntryStore) Entries() []model.HabitEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entriesLocked()
}

// Categories returns a copy of the current category collection.
func (s *EntryStore) Categories() []model.HabitCategory {
	s.mu.Lock()
	defer s.mu.Unlock()
	cats := make([]model.HabitCategory, len(s.categories))
	copy(cats, s.categories)
	return cats
}

// CustomColumns returns a copy of the current column definitions, in
// definition order.
func (s *EntryStore) CustomColumns() []model.CustomColumn {
	s.mu.Lock()
	defer s.mu.Unlock()
	cols := make([]model.CustomColumn, len(s.columns))
	copy(cols, s.columns)
	return cols
}

// HabitName returns the user-set habit label.
func (s *EntryStore) HabitName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.habitName
}

// AddEntry appends a new entry.
func (s *EntryStore) AddEntry(ctx context.Context, e model.HabitEntry) {
	s.mu.Lock()
	s.entries = append(s.entries, e)
	s.persistEntriesLocked(ctx)
	snapshot := s.entriesLocked()
	s.mu.Unlock()

	s.requestPush(snapshot)
}

// UpdateEntry replaces the entry with the same ID. An unknown ID is a
// silent no-op.
func (s *EntryStore) UpdateEntry(ctx context.Context, e model.HabitEntry) {
	s.mu.Lock()
	found := false
	for i := range s.entries {
		if s.entries[i].ID == e.ID {
			s.entries[i] = e
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return
	}
	s.persistEntriesLocked(ctx)
	snapshot := s.entriesLocked()
	s.mu.Unlock()

	s.requestPush(snapshot)
}

// DeleteEntry removes the entry with the given ID. Deleting an unknown
// ID is a no-op. Deletion is hard: a deleted entry that still exists
// remotely will reappear on the next pull unless the remote is also
// updated.
func (s *EntryStore) DeleteEntry(ctx context.Context, id string) {
	s.mu.Lock()
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	s.entries = kept
	s.persistEntriesLocked(ctx)
	snapshot := s.entriesLocked()
	s.mu.Unlock()

	s.requestPush(snapshot)
}

// AddCategory creates and registers a custom category with the given
// name, returning it.
func (s *EntryStore) AddCategory(ctx context.Context, name string) model.HabitCategory {
	c := model.NewCategory(name)

	s.mu.Lock()
	s.categories = append(s.categories, c)
	s.persistCategoriesLocked(ctx)
	snapshot := s.entriesLocked()
	s.mu.Unlock()

	s.requestPush(snapshot)
	return c
}

// AddCategories registers already-constructed categories, such as the
// ones synthesized while decoding a remote document.
func (s *EntryStore) AddCategories(ctx context.Context, cats []model.HabitCategory) {
	if len(cats) == 0 {
		return
	}

	s.mu.Lock()
	s.categories = append(s.categories, cats...)
	s.persistCategoriesLocked(ctx)
	snapshot := s.entriesLocked()
	s.mu.Unlock()

	s.requestPush(snapshot)
}

// DeleteCategory removes a custom category. Built-in categories
// (IsCustom=false) are never removed; attempting to is a silent no-op.
func (s *EntryStore) DeleteCategory(ctx context.Context, c model.HabitCategory) {
	if !c.IsCustom {
		return
	}

	s.mu.Lock()
	kept := s.categories[:0]
	for _, existing := range s.categories {
		if existing.ID != c.ID {
			kept = append(kept, existing)
		}
	}
	s.categories = kept
	s.persistCategoriesLocked(ctx)
	snapshot := s.entriesLocked()
	s.mu.Unlock()

	s.requestPush(snapshot)
}

// AddCustomColumn appends a column definition and returns it. Names are
// not deduplicated; a duplicate name shadows the earlier column in CSV
// import and export, which resolve columns by first name match.
func (s *EntryStore) AddCustomColumn(ctx context.Context, name string, typ model.ColumnType) model.CustomColumn {
	col := model.NewCustomColumn(name, typ)

	s.mu.Lock()
	s.columns = append(s.columns, col)
	s.persistColumnsLocked(ctx)
	snapshot := s.entriesLocked()
	s.mu.Unlock()

	s.requestPush(snapshot)
	return col
}

// SetHabitName updates the user-set habit label.
func (s *EntryStore) SetHabitName(ctx context.Context, name string) {
	s.mu.Lock()
	s.habitName = name
	if err := s.repo.SaveHabitName(ctx, name); err != nil {
		logger.Error("persisting habit name failed; memory and disk now diverge", "error", err)
	}
	snapshot := s.entriesLocked()
	s.mu.Unlock()

	s.requestPush(snapshot)
}

// ReplaceAll overwrites the entry collection wholesale. It is the
// remote-wins arm of reconciliation, so it persists but does not
// request a push back to the remote.
func (s *EntryStore) ReplaceAll(ctx context.Context, entries []model.HabitEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make([]model.HabitEntry, len(entries))
	copy(s.entries, entries)
	s.persistEntriesLocked(ctx)
}

// ClearAll resets entries to empty, categories to the built-in default
// set, and custom columns to empty, then signals the sync engine to
// disconnect.
func (s *EntryStore) ClearAll(ctx context.Context) {
	s.mu.Lock()
	s.entries = nil
	s.categories = model.DefaultCategories()
	s.columns = nil
	s.persistEntriesLocked(ctx)
	s.persistCategoriesLocked(ctx)
	s.persistColumnsLocked(ctx)
	p := s.pusher
	s.mu.Unlock()

	if p != nil {
		p.Disconnect()
	}
}

// entriesLocked returns a copy of the entry slice. Callers must hold mu.
func (s *EntryStore) entriesLocked() []model.HabitEntry {
	entries := make([]model.HabitEntry, len(s.entries))
	copy(entries, s.entries)
	return entries
}

// Persist failures are logged rather than surfaced: the mutation has
// already been applied in memory and the caller gets no error channel,
// but a failure here means local state no longer matches disk.

func (s *EntryStore) persistEntriesLocked(ctx context.Context) {
	if err := s.repo.SaveEntries(ctx, s.entries); err != nil {
		logger.Error("persisting entries failed; memory and disk now diverge", "error", err)
	}
}

func (s *EntryStore) persistCategoriesLocked(ctx context.Context) {
	if err := s.repo.SaveCategories(ctx, s.categories); err != nil {
		logger.Error("persisting categories failed; memory and disk now diverge", "error", err)
	}
}

func (s *EntryStore) persistColumnsLocked(ctx context.Context) {
	if err := s.repo.SaveColumns(ctx, s.columns); err != nil {
		logger.Error("persisting custom columns failed; memory and disk now diverge", "error", err)
	}
}

func (s *EntryStore) requestPush(entries []model.HabitEntry) {
	s.mu.Lock()
	p := s.pusher
	s.mu.Unlock()
	if p != nil {
		p.PushAsync(entries)
	}
}
