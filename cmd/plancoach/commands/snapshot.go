package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/plancoach/internal/app/snapshot"
)

type SnapshotCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	format string
}

// NewSnapshotCommand returns the snapshot command.
func NewSnapshotCommand(rootCmd *RootCommand, app *kingpin.Application) *SnapshotCommand {
	c := &SnapshotCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("snapshot", "Show the progress summary.")
	formatFlag(c.Cmd, &c.format)

	return c
}

func (c SnapshotCommand) Name() string { return c.Cmd.FullCommand() }

func (c SnapshotCommand) Run(ctx context.Context) error {
	d, err := newDeps(ctx, *c.rootCmd)
	if err != nil {
		return err
	}
	defer func() { _ = d.close() }()

	svc, err := snapshot.NewService(snapshot.ServiceConfig{
		Curriculum:   d.repo,
		Progress:     d.repo,
		Conversation: d.conversation,
		Logger:       c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	snap, err := svc.Run(ctx, snapshot.Request{UserID: c.rootCmd.UserID})
	if err != nil {
		return fmt.Errorf("could not get snapshot: %w", err)
	}

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintSnapshot(*snap); err != nil {
		return fmt.Errorf("could not print snapshot: %w", err)
	}

	return nil
}
