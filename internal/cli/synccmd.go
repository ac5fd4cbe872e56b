package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/habitlog/internal/credential"
	"github.com/nhle/habitlog/internal/sync"
)

// SyncCmd pulls the remote document and reconciles it with the local
// collection.
type SyncCmd struct{}

func (cmd *SyncCmd) Run(c *Context) error {
	if !c.Config.Remote.Enabled {
		return errors.New("remote sync is disabled in the config")
	}

	err := c.Engine.PullNow(context.Background())
	switch {
	case errors.Is(err, sync.ErrNotConnected):
		return errors.New("not signed in; run 'habitlog auth login' first")
	case errors.Is(err, sync.ErrBusy):
		return errors.New("a sync is already in flight")
	case err != nil:
		return err
	}

	status := c.Engine.Status()
	fmt.Printf("synced; %d entries local (last synced %s)\n",
		len(c.Store.Entries()), status.LastSynced.Format(timestampLayout))
	return nil
}

// StatusCmd prints the sync engine state.
type StatusCmd struct{}

func (cmd *StatusCmd) Run(c *Context) error {
	status := c.Engine.Status()
	fmt.Printf("state: %s\n", status.State)
	if status.Message != "" {
		fmt.Printf("error: %s\n", status.Message)
	}
	if !status.LastSynced.IsZero() {
		fmt.Printf("last synced: %s\n", status.LastSynced.Format(timestampLayout))
	}
	return nil
}

// AuthCmd manages the remote capability token.
type AuthCmd struct {
	Login  AuthLoginCmd  `cmd:"" help:"Store a remote access token."`
	Logout AuthLogoutCmd `cmd:"" help:"Forget the stored token and disconnect."`
}

// AuthLoginCmd stores the access token obtained from the provider's
// sign-in flow. The interactive handshake itself happens outside this
// binary.
type AuthLoginCmd struct {
	Token string `arg:"" help:"OAuth access token with document scope."`
}

func (cmd *AuthLoginCmd) Run(c *Context) error {
	if err := credential.SetToken(cmd.Token); err != nil {
		return err
	}
	if !c.Config.Remote.Enabled || c.NewEngine == nil {
		fmt.Println("token stored; remote sync is disabled")
		return nil
	}

	// Sign-in is followed by an immediate pull so the first sync does
	// not wait for the next command. The running engine still carries
	// the old token, so a fresh one is built around the new credential.
	engine := c.NewEngine(cmd.Token)
	engine.Connect()
	engine.Wait()

	if status := engine.Status(); status.State == sync.StateError {
		return fmt.Errorf("signed in, but the initial sync failed: %s", status.Message)
	}
	fmt.Printf("signed in; %d entries local after initial sync\n", len(c.Store.Entries()))
	return nil
}

// AuthLogoutCmd removes the stored token and disconnects the engine.
// The remote document reference is kept for the next sign-in.
type AuthLogoutCmd struct{}

func (cmd *AuthLogoutCmd) Run(c *Context) error {
	if err := credential.DeleteToken(); err != nil {
		return err
	}
	c.Engine.Disconnect()
	fmt.Println("signed out")
	return nil
}

// ResetCmd wipes the local collections back to first-run state.
type ResetCmd struct {
	Force bool `help:"Skip the confirmation prompt."`
}

func (cmd *ResetCmd) Run(c *Context) error {
	if !cmd.Force {
		fmt.Print("this resets all local entries, categories, and columns; pass --force to confirm\n")
		return nil
	}
	c.Store.ClearAll(context.Background())
	fmt.Println("local data reset")
	return nil
}
