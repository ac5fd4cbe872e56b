// Package cli holds the command implementations for the habitlog
// binary. It is presentation glue over the core packages; nothing here
// owns data.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/habitlog/internal/analytics"
	"github.com/nhle/habitlog/internal/logger"
	"github.com/nhle/habitlog/internal/model"
	"github.com/nhle/habitlog/internal/store"
	"github.com/nhle/habitlog/internal/sync"
)

// Context carries the wired-up core components into the commands.
type Context struct {
	Store     *store.EntryStore
	Engine    *sync.Engine
	Analytics *analytics.Analyzer
	Config    *model.AppConfig

	// NewEngine builds an engine around a fresh remote client for the
	// given access token and repoints the store's pusher at it. Used by
	// auth login, which changes tokens mid-process.
	NewEngine func(token string) *sync.Engine
}

// timestampLayout is how the CLI accepts and prints entry timestamps.
const timestampLayout = "2006-01-02 15:04:05"

// pushAfterMutation makes sure the mutation reaches the remote before
// the process exits. The mutation itself already requested a background
// push through the store's pusher; when that push holds the in-flight
// slot this only has to wait for it. Being signed out is not an error
// for a mutation command.
func (c *Context) pushAfterMutation(ctx context.Context) {
	err := c.Engine.PushNow(ctx, c.Store.Entries())
	switch {
	case err == nil, errors.Is(err, sync.ErrNotConnected):
		return
	case errors.Is(err, sync.ErrBusy):
		c.Engine.Wait()
		return
	}
	logger.Warn("push after mutation failed", "error", err)
	fmt.Printf("warning: remote push failed: %v\n", err)
}

// parseFieldValue converts a name=value pair into a typed custom field
// value using the column's declared type.
func parseFieldValue(cols []model.CustomColumn, name, raw string) (model.CustomFieldValue, error) {
	for _, col := range cols {
		if col.Name != name {
			continue
		}
		if col.Type == model.ColumnBoolean {
			switch strings.ToLower(raw) {
			case "yes", "true", "y", "1":
				return model.BoolValue(true), nil
			case "no", "false", "n", "0":
				return model.BoolValue(false), nil
			default:
				return model.CustomFieldValue{}, fmt.Errorf("column %q is boolean; got %q", name, raw)
			}
		}
		return model.TextValue(raw), nil
	}
	return model.CustomFieldValue{}, fmt.Errorf("no custom column named %q", name)
}

func formatWhen(t time.Time) string {
	return t.Local().Format(timestampLayout)
}
