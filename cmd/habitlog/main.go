package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/nhle/habitlog/internal/analytics"
	"github.com/nhle/habitlog/internal/cli"
	"github.com/nhle/habitlog/internal/credential"
	"github.com/nhle/habitlog/internal/logger"
	"github.com/nhle/habitlog/internal/model"
	"github.com/nhle/habitlog/internal/remote/drive"
	"github.com/nhle/habitlog/internal/store"
	"github.com/nhle/habitlog/internal/sync"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path." type:"path"`
	Debug   bool   `help:"Enable debug logging to stderr."`

	Add    cli.AddCmd    `cmd:"" help:"Log a habit entry."`
	List   cli.ListCmd   `cmd:"" help:"List entries, newest first."`
	Delete cli.DeleteCmd `cmd:"" help:"Delete an entry by ID."`
	Stats  cli.StatsCmd  `cmd:"" help:"Show aggregate statistics."`
	Sync   cli.SyncCmd   `cmd:"" help:"Pull the remote document and reconcile."`
	Status cli.StatusCmd `cmd:"" help:"Show sync state."`
	Name   cli.NameCmd   `cmd:"" help:"Show or set the habit name."`

	Category cli.CategoryCmd `cmd:"" help:"Manage categories."`
	Column   cli.ColumnCmd   `cmd:"" help:"Manage custom columns."`
	Auth     cli.AuthCmd     `cmd:"" help:"Manage the remote access token."`
	Reset    cli.ResetCmd    `cmd:"" help:"Reset local data to first-run state."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("habitlog"),
		kong.Description("Personal habit logger with remote spreadsheet sync"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Vars{"version": "v0.2.0"},
	)

	configPath := CLI.Config
	if configPath == "" {
		configPath = model.DefaultConfigPath()
	}

	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		fatal(err)
	}
	if CLI.Debug {
		cfg.Display.Debug = true
	}

	if err := logger.Init(logger.Config{
		Debug:     cfg.Display.Debug,
		ConfigDir: model.ConfigDir(),
	}); err != nil {
		fatal(fmt.Errorf("initializing logger: %w", err))
	}

	repo, err := store.NewSQLiteRepository(cfg.Database.Path)
	if err != nil {
		fatal(fmt.Errorf("opening local database: %w", err))
	}
	defer repo.Close()

	entryStore, err := store.NewEntryStore(context.Background(), repo)
	if err != nil {
		fatal(fmt.Errorf("loading local data: %w", err))
	}

	// newEngine binds a fresh remote client to the shared store and
	// repository. The store's pusher is pointed at the new engine so
	// mutations push to it and a reset disconnects it.
	newEngine := func(token string) *sync.Engine {
		eng := sync.New(drive.NewClient(token), repo, entryStore, cfg.Remote.DocumentName)
		entryStore.SetPusher(eng)
		return eng
	}

	// The engine stays disconnected unless a token is on the keyring;
	// commands surface that as "not signed in".
	token, tokenErr := credential.Token()
	engine := newEngine(token)
	if cfg.Remote.Enabled && tokenErr == nil && token != "" {
		engine.Resume()
	}

	runCtx := &cli.Context{
		Store:     entryStore,
		Engine:    engine,
		NewEngine: newEngine,
		Analytics: analytics.New(entryStore),
		Config:    cfg,
	}

	if err := kctx.Run(runCtx); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	logger.Error("command failed", "error", err)
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
