package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/plancoach/internal/app/conversationclear"
)

type ClearCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand
}

// NewClearCommand returns the clear command.
func NewClearCommand(rootCmd *RootCommand, app *kingpin.Application) *ClearCommand {
	c := &ClearCommand{rootCmd: rootCmd}
	c.Cmd = app.Command("clear", "Delete the coach conversation.")
	return c
}

func (c ClearCommand) Name() string { return c.Cmd.FullCommand() }

func (c ClearCommand) Run(ctx context.Context) error {
	d, err := newDeps(ctx, *c.rootCmd)
	if err != nil {
		return err
	}
	defer func() { _ = d.close() }()

	svc, err := conversationclear.NewService(conversationclear.ServiceConfig{
		Conversation: d.conversation,
		Logger:       c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	if err := svc.Run(ctx, conversationclear.Request{UserID: c.rootCmd.UserID}); err != nil {
		return fmt.Errorf("could not clear conversation: %w", err)
	}

	c.rootCmd.Logger.Infof("Conversation cleared")

	return nil
}
