package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/plancoach/internal/app/conversationclear"
	"github.com/slok/plancoach/internal/app/history"
	"github.com/slok/plancoach/internal/app/snapshot"
	"github.com/slok/plancoach/internal/rpc"
)

type ServeCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	listenAddr      string
	autoApply       bool
	shutdownTimeout time.Duration
}

// NewServeCommand returns the serve command.
func NewServeCommand(rootCmd *RootCommand, app *kingpin.Application) *ServeCommand {
	c := &ServeCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("serve", "Serve the coach HTTP API.")
	c.Cmd.Flag("listen-address", "Address the API listens on.").Default(":8080").StringVar(&c.listenAddr)
	c.Cmd.Flag("auto-apply", "Apply the operations of confirmed plans.").Default("true").BoolVar(&c.autoApply)
	c.Cmd.Flag("shutdown-timeout", "Graceful shutdown deadline.").Default("5s").DurationVar(&c.shutdownTimeout)

	return c
}

func (c ServeCommand) Name() string { return c.Cmd.FullCommand() }

func (c ServeCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	d, err := newDeps(ctx, *c.rootCmd)
	if err != nil {
		return err
	}
	defer func() { _ = d.close() }()

	coachSvc, err := newCoachService(ctx, *c.rootCmd, d, c.autoApply)
	if err != nil {
		return err
	}

	applySvc, err := newApplyOpsService(*c.rootCmd, d)
	if err != nil {
		return err
	}

	historySvc, err := history.NewService(history.ServiceConfig{Conversation: d.conversation, Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create history service: %w", err)
	}

	clearSvc, err := conversationclear.NewService(conversationclear.ServiceConfig{Conversation: d.conversation, Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create clear service: %w", err)
	}

	snapshotSvc, err := snapshot.NewService(snapshot.ServiceConfig{
		Curriculum:   d.repo,
		Progress:     d.repo,
		Conversation: d.conversation,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("could not create snapshot service: %w", err)
	}

	handler, err := rpc.NewHandler(rpc.HandlerConfig{
		Coach:    coachSvc,
		History:  historySvc,
		Clear:    clearSvc,
		Apply:    applySvc,
		Snapshot: snapshotSvc,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("could not create handler: %w", err)
	}

	server, err := rpc.NewServer(rpc.ServerConfig{
		ListenAddr:      c.listenAddr,
		Handler:         handler,
		ShutdownTimeout: c.shutdownTimeout,
		Logger:          logger,
	})
	if err != nil {
		return fmt.Errorf("could not create server: %w", err)
	}

	return server.Run(ctx)
}
