package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/plancoach/internal/app/history"
)

type HistoryCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	format string
}

// NewHistoryCommand returns the history command.
func NewHistoryCommand(rootCmd *RootCommand, app *kingpin.Application) *HistoryCommand {
	c := &HistoryCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("history", "Show the coach conversation.")
	formatFlag(c.Cmd, &c.format)

	return c
}

func (c HistoryCommand) Name() string { return c.Cmd.FullCommand() }

func (c HistoryCommand) Run(ctx context.Context) error {
	d, err := newDeps(ctx, *c.rootCmd)
	if err != nil {
		return err
	}
	defer func() { _ = d.close() }()

	svc, err := history.NewService(history.ServiceConfig{
		Conversation: d.conversation,
		Logger:       c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	h, err := svc.Run(ctx, history.Request{UserID: c.rootCmd.UserID})
	if err != nil {
		return fmt.Errorf("could not get conversation: %w", err)
	}

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintConversation(h.Messages, h.AwaitingConfirmation); err != nil {
		return fmt.Errorf("could not print conversation: %w", err)
	}

	return nil
}
