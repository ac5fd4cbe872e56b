package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/habitlog/internal/model"
)

// Stable keys for the persisted records. Renaming one orphans the data
// stored under the old key.
const (
	keyEntries      = "habitEntries"
	keyColumns      = "customColumns"
	keyCategories   = "customCategories"
	keyHabitName    = "habitName"
	keyRemoteFileID = "remoteFileID"
)

// SQLiteRepository implements Repository using a local SQLite database.
// Each record lives as a JSON value in the app_state key/value table.
type SQLiteRepository struct {
	db *sqlx.DB
}

// NewSQLiteRepository opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	r := &SQLiteRepository{db: db}
	if err := r.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return r, nil
}

// Close closes the underlying database connection.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (r *SQLiteRepository) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := r.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = r.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := r.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// get reads the raw value stored under key. Missing keys are not an
// error; they return ("", false, nil).
func (r *SQLiteRepository) get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.GetContext(ctx, &value, "SELECT value FROM app_state WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading state key %q: %w", key, err)
	}
	return value, true, nil
}

// put writes value under key, replacing any previous value.
func (r *SQLiteRepository) put(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO app_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("writing state key %q: %w", key, err)
	}
	return nil
}

// getJSON unmarshals the record stored under key into out. A missing
// key leaves out untouched.
func (r *SQLiteRepository) getJSON(ctx context.Context, key string, out any) error {
	value, ok, err := r.get(ctx, key)
	if err != nil || !ok {
		return err
	}
	if err := json.Unmarshal([]byte(value), out); err != nil {
		return fmt.Errorf("unmarshaling state key %q: %w", key, err)
	}
	return nil
}

// putJSON marshals v and stores it under key.
func (r *SQLiteRepository) putJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling state key %q: %w", key, err)
	}
	return r.put(ctx, key, string(data))
}

// Entries loads the persisted entry collection.
func (r *SQLiteRepository) Entries(ctx context.Context) ([]model.HabitEntry, error) {
	var entries []model.HabitEntry
	if err := r.getJSON(ctx, keyEntries, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// SaveEntries overwrites the persisted entry collection.
func (r *SQLiteRepository) SaveEntries(ctx context.Context, entries []model.HabitEntry) error {
	if entries == nil {
		entries = []model.HabitEntry{}
	}
	return r.putJSON(ctx, keyEntries, entries)
}

// Columns loads the persisted custom column definitions.
func (r *SQLiteRepository) Columns(ctx context.Context) ([]model.CustomColumn, error) {
	var cols []model.CustomColumn
	if err := r.getJSON(ctx, keyColumns, &cols); err != nil {
		return nil, err
	}
	return cols, nil
}

// SaveColumns overwrites the persisted custom column definitions.
func (r *SQLiteRepository) SaveColumns(ctx context.Context, cols []model.CustomColumn) error {
	if cols == nil {
		cols = []model.CustomColumn{}
	}
	return r.putJSON(ctx, keyColumns, cols)
}

// Categories loads the persisted category collection.
func (r *SQLiteRepository) Categories(ctx context.Context) ([]model.HabitCategory, error) {
	var cats []model.HabitCategory
	if err := r.getJSON(ctx, keyCategories, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// SaveCategories overwrites the persisted category collection.
func (r *SQLiteRepository) SaveCategories(ctx context.Context, cats []model.HabitCategory) error {
	if cats == nil {
		cats = []model.HabitCategory{}
	}
	return r.putJSON(ctx, keyCategories, cats)
}

// HabitName loads the persisted habit label.
func (r *SQLiteRepository) HabitName(ctx context.Context) (string, error) {
	value, _, err := r.get(ctx, keyHabitName)
	return value, err
}

// SaveHabitName overwrites the persisted habit label.
func (r *SQLiteRepository) SaveHabitName(ctx context.Context, name string) error {
	return r.put(ctx, keyHabitName, name)
}

// RemoteFileID loads the stored remote document identifier.
func (r *SQLiteRepository) RemoteFileID(ctx context.Context) (string, error) {
	value, _, err := r.get(ctx, keyRemoteFileID)
	return value, err
}

// SaveRemoteFileID overwrites the stored remote document identifier.
func (r *SQLiteRepository) SaveRemoteFileID(ctx context.Context, id string) error {
	return r.put(ctx, keyRemoteFileID, id)
}
