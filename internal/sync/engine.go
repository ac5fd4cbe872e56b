// Package sync orchestrates pull/push between the local entry store
// and the remote document, applying a count-based reconciliation
// policy after every successful pull.
package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	"github.com/nhle/habitlog/internal/logger"
	"github.com/nhle/habitlog/internal/model"
	"github.com/nhle/habitlog/internal/remote"
	"github.com/nhle/habitlog/internal/sheet"
	"github.com/nhle/habitlog/internal/store"
)

// State is the engine's connection/sync state.
type State int

const (
	StateDisconnected State = iota
	StateAuthenticating
	StateIdle
	StateSyncing
	StateError
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateAuthenticating:
		return "authenticating"
	case StateIdle:
		return "idle"
	case StateSyncing:
		return "syncing"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Status is a point-in-time snapshot of the engine.
type Status struct {
	State State

	// Message is the single retained user-visible error message. Last
	// error wins; it is cleared when the next operation starts or a
	// sign-in attempt begins.
	Message string

	// LastSynced is when the last successful transfer completed.
	LastSynced time.Time
}

// Collection is the narrow view of the entry store the engine needs.
// Reconciliation results flow back through direct method calls here
// rather than any broadcast mechanism, so a pull's reconciliation has
// fully completed before the in-flight guard is released.
type Collection interface {
	Entries() []model.HabitEntry
	Categories() []model.HabitCategory
	CustomColumns() []model.CustomColumn
	ReplaceAll(ctx context.Context, entries []model.HabitEntry)
	AddCategories(ctx context.Context, cats []model.HabitCategory)
}

// ErrNotConnected is returned by synchronous operations when the
// engine is disconnected.
var ErrNotConnected = errors.New("sync: not connected")

// ErrBusy is returned by synchronous operations when another sync is
// already in flight. Asynchronous requests are dropped silently
// instead.
var ErrBusy = errors.New("sync: operation already in flight")

// opTimeout bounds a single pull or push operation.
const opTimeout = 30 * time.Second

// Engine drives sync against one remote document. At most one
// operation is in flight at a time; async requests arriving while one
// is running are dropped. Disconnecting stops future syncs but does
// not abort one in flight.
type Engine struct {
	docs    remote.DocumentStore
	repo    store.Repository
	coll    Collection
	docName string

	mu         gosync.Mutex
	idle       *gosync.Cond
	state      State
	message    string
	lastSynced time.Time
	inFlight   bool
}

// New creates a disconnected engine. docName is the display name used
// when the remote document has to be created.
func New(docs remote.DocumentStore, repo store.Repository, coll Collection, docName string) *Engine {
	e := &Engine{
		docs:    docs,
		repo:    repo,
		coll:    coll,
		docName: docName,
		state:   StateDisconnected,
	}
	e.idle = gosync.NewCond(&e.mu)
	return e
}

// Connect marks the capability as available and kicks off an initial
// pull, mirroring the pull-after-sign-in behavior of the app. Any
// retained error message is cleared.
func (e *Engine) Connect() {
	e.mu.Lock()
	e.state = StateAuthenticating
	e.message = ""
	e.mu.Unlock()

	e.Pull()
}

// Resume marks the engine idle after the capability is restored,
// without the automatic pull. Callers that want the pull-after-sign-in
// behavior use Connect instead.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateDisconnected {
		e.state = StateIdle
		e.message = ""
	}
}

// Disconnect stops future syncs. The stored remote document reference
// is kept for the next sign-in; the error message and last-synced
// timestamp are cleared.
func (e *Engine) Disconnect() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = StateDisconnected
	e.message = ""
	e.lastSynced = time.Time{}
}

// Status returns a snapshot of the engine state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{
		State:      e.state,
		Message:    e.message,
		LastSynced: e.lastSynced,
	}
}

// Pull requests an asynchronous pull. The request is dropped silently
// when the engine is disconnected or a sync is already in flight.
func (e *Engine) Pull() {
	if err := e.begin(); err != nil {
		logger.Debug("pull request dropped", "reason", err)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		e.finish(e.pull(ctx))
	}()
}

// PullNow performs a pull synchronously. Unlike Pull, a request that
// cannot start reports ErrNotConnected or ErrBusy.
func (e *Engine) PullNow(ctx context.Context) error {
	if err := e.begin(); err != nil {
		return err
	}
	err := e.pull(ctx)
	e.finish(err)
	return err
}

// PushAsync implements store.Pusher: a best-effort background push of
// the given entries. Dropped silently when disconnected or busy.
func (e *Engine) PushAsync(entries []model.HabitEntry) {
	if err := e.begin(); err != nil {
		logger.Debug("push request dropped", "reason", err)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		e.finish(e.push(ctx, entries))
	}()
}

// PushNow performs a push synchronously.
func (e *Engine) PushNow(ctx context.Context, entries []model.HabitEntry) error {
	if err := e.begin(); err != nil {
		return err
	}
	err := e.push(ctx, entries)
	e.finish(err)
	return err
}

// begin claims the in-flight slot and enters the syncing state,
// clearing any retained error message.
func (e *Engine) begin() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateDisconnected {
		return ErrNotConnected
	}
	if e.inFlight {
		return ErrBusy
	}
	e.inFlight = true
	e.state = StateSyncing
	e.message = ""
	return nil
}

// Wait blocks until no operation is in flight. Short-lived callers use
// it to let a background push finish before the process exits.
func (e *Engine) Wait() {
	e.mu.Lock()
	for e.inFlight {
		e.idle.Wait()
	}
	e.mu.Unlock()
}

// finish releases the in-flight slot and records the outcome. A nil
// error and an explicit user cancellation both land in idle; anything
// else retains its message (last error wins).
func (e *Engine) finish(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inFlight = false
	e.idle.Broadcast()

	// Disconnect may have happened while the operation was running;
	// it only stops future syncs, so the outcome is discarded.
	if e.state == StateDisconnected {
		return
	}

	switch {
	case err == nil, remote.IsCanceled(err):
		e.state = StateIdle
		e.message = ""
	default:
		e.state = StateError
		e.message = err.Error()
		logger.Warn("sync failed", "error", err)
	}
}

// pull fetches the remote document, decodes it, and reconciles. When
// no document reference is known one is created first, seeded with the
// current local data. A not-found on export self-heals by clearing the
// stored reference and recreating the document.
func (e *Engine) pull(ctx context.Context) error {
	id, err := e.repo.RemoteFileID(ctx)
	if err != nil {
		return fmt.Errorf("loading remote document reference: %w", err)
	}

	if id == "" {
		if id, err = e.createSeeded(ctx); err != nil {
			return err
		}
	}

	body, err := e.docs.ExportDocument(ctx, id, remote.MIMECSV)
	if remote.IsNotFound(err) {
		// The user deleted the remote document out from under us;
		// forget the stale reference and start a fresh one.
		logger.Info("remote document gone, recreating", "id", id)
		if err := e.repo.SaveRemoteFileID(ctx, ""); err != nil {
			return fmt.Errorf("clearing stale document reference: %w", err)
		}
		if id, err = e.createSeeded(ctx); err != nil {
			return err
		}
		body, err = e.docs.ExportDocument(ctx, id, remote.MIMECSV)
	}
	if err != nil {
		return fmt.Errorf("fetching remote document: %w", err)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		e.setLastSynced()
		return nil
	}

	res := sheet.Decode(body, e.coll.Categories(), e.coll.CustomColumns())
	if len(res.NewCategories) > 0 {
		e.coll.AddCategories(ctx, res.NewCategories)
	}
	e.setLastSynced()

	return e.reconcile(ctx, res.Entries)
}

// reconcile applies the count-based conflict policy: the longer list
// wins, equal counts are treated as already in sync. Divergent edits
// of equal cardinality are not detected; that is a known limitation of
// the policy, not an oversight.
func (e *Engine) reconcile(ctx context.Context, remoteEntries []model.HabitEntry) error {
	local := e.coll.Entries()

	switch {
	case len(remoteEntries) == len(local):
		logger.Debug("reconcile: in sync", "count", len(local))
		return nil

	case len(remoteEntries) > len(local):
		logger.Info("reconcile: remote wins", "remote", len(remoteEntries), "local", len(local))
		e.coll.ReplaceAll(ctx, remoteEntries)
		return nil

	default:
		logger.Info("reconcile: local wins", "remote", len(remoteEntries), "local", len(local))
		return e.push(ctx, local)
	}
}

// push encodes entries with the current categories/columns context and
// writes them to the remote document, creating it if no reference is
// known.
func (e *Engine) push(ctx context.Context, entries []model.HabitEntry) error {
	data := sheet.Encode(entries, e.coll.CustomColumns())

	id, err := e.repo.RemoteFileID(ctx)
	if err != nil {
		return fmt.Errorf("loading remote document reference: %w", err)
	}

	if id == "" {
		id, err = e.docs.CreateDocument(ctx, e.docName, data, remote.MIMECSV)
		if err != nil {
			return fmt.Errorf("creating remote document: %w", err)
		}
		if err := e.repo.SaveRemoteFileID(ctx, id); err != nil {
			return fmt.Errorf("storing remote document reference: %w", err)
		}
	} else {
		if err := e.docs.UpdateDocument(ctx, id, data, remote.MIMECSV); err != nil {
			return fmt.Errorf("updating remote document: %w", err)
		}
	}

	e.setLastSynced()
	return nil
}

// createSeeded creates the remote document seeded with the current
// local data and stores its reference.
func (e *Engine) createSeeded(ctx context.Context) (string, error) {
	data := sheet.Encode(e.coll.Entries(), e.coll.CustomColumns())
	id, err := e.docs.CreateDocument(ctx, e.docName, data, remote.MIMECSV)
	if err != nil {
		return "", fmt.Errorf("creating remote document: %w", err)
	}
	if err := e.repo.SaveRemoteFileID(ctx, id); err != nil {
		return "", fmt.Errorf("storing remote document reference: %w", err)
	}
	return id, nil
}

// setLastSynced records a successful transfer.
func (e *Engine) setLastSynced() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastSynced = time.Now()
}
