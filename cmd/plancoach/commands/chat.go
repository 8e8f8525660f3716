package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/plancoach/internal/app/coach"
	"github.com/slok/plancoach/internal/model"
	"github.com/slok/plancoach/internal/printer"
)

type ChatCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	message   string
	autoApply bool
	format    string
}

// NewChatCommand returns the chat command.
func NewChatCommand(rootCmd *RootCommand, app *kingpin.Application) *ChatCommand {
	c := &ChatCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("chat", "Talk with the coach, reads messages from stdin when no message is given.")
	c.Cmd.Arg("message", "Message for the coach.").StringVar(&c.message)
	c.Cmd.Flag("auto-apply", "Apply the operations of confirmed plans.").Default("true").BoolVar(&c.autoApply)
	formatFlag(c.Cmd, &c.format)

	return c
}

func (c ChatCommand) Name() string { return c.Cmd.FullCommand() }

func (c ChatCommand) Run(ctx context.Context) error {
	d, err := newDeps(ctx, *c.rootCmd)
	if err != nil {
		return err
	}
	defer func() { _ = d.close() }()

	svc, err := newCoachService(ctx, *c.rootCmd, d, c.autoApply)
	if err != nil {
		return err
	}

	p := newPrinter(c.format, c.rootCmd.Stdout)

	if strings.TrimSpace(c.message) != "" {
		return c.turn(ctx, svc, p, c.message)
	}

	// Interactive session, one message per line.
	scanner := bufio.NewScanner(c.rootCmd.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		err := c.turn(ctx, svc, p, line)
		if errors.Is(err, model.ErrNotValid) {
			c.rootCmd.Logger.Warningf("Ignoring message: %s", err)
			continue
		}
		if err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("could not read messages: %w", err)
	}

	return nil
}

func (c ChatCommand) turn(ctx context.Context, svc *coach.Service, p printer.Printer, msg string) error {
	resp, err := svc.Run(ctx, coach.Request{UserID: c.rootCmd.UserID, Message: msg})
	if err != nil {
		return fmt.Errorf("could not run coach turn: %w", err)
	}

	if err := p.PrintTurn(resp.AgentResponse); err != nil {
		return fmt.Errorf("could not print turn: %w", err)
	}

	if resp.Applied != nil {
		if err := p.PrintApplyResult(*resp.Applied); err != nil {
			return fmt.Errorf("could not print applied operations: %w", err)
		}
	}

	return nil
}
