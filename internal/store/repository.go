package store

import (
	"context"

	"github.com/nhle/habitlog/internal/model"
)

// Repository is the local persistence backend for the entry store.
// The collections are each serialized independently and stored under a
// stable key, so a write to one never touches the others. There is no
// schema version on the records themselves; shape changes are not
// migration-safe.
type Repository interface {
	Entries(ctx context.Context) ([]model.HabitEntry, error)
	SaveEntries(ctx context.Context, entries []model.HabitEntry) error

	Columns(ctx context.Context) ([]model.CustomColumn, error)
	SaveColumns(ctx context.Context, cols []model.CustomColumn) error

	Categories(ctx context.Context) ([]model.HabitCategory, error)
	SaveCategories(ctx context.Context, cats []model.HabitCategory) error

	HabitName(ctx context.Context) (string, error)
	SaveHabitName(ctx context.Context, name string) error

	// RemoteFileID is the identifier of the one remote document this
	// installation syncs with. Empty means no document is known yet.
	RemoteFileID(ctx context.Context) (string, error)
	SaveRemoteFileID(ctx context.Context, id string) error

	Close() error
}
