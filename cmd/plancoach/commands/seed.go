package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/plancoach/internal/app/seed"
	storageio "github.com/slok/plancoach/internal/storage/io"
)

type SeedCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	path   string
	force  bool
	format string
}

// NewSeedCommand returns the seed command.
func NewSeedCommand(rootCmd *RootCommand, app *kingpin.Application) *SeedCommand {
	c := &SeedCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("seed", "Store a curriculum from a YAML or JSON file.")
	c.Cmd.Arg("path", "Curriculum file.").Required().StringVar(&c.path)
	c.Cmd.Flag("force", "Replace the stored curriculum.").BoolVar(&c.force)
	formatFlag(c.Cmd, &c.format)

	return c
}

func (c SeedCommand) Name() string { return c.Cmd.FullCommand() }

func (c SeedCommand) Run(ctx context.Context) error {
	abs, err := filepath.Abs(c.path)
	if err != nil {
		return fmt.Errorf("invalid curriculum path: %w", err)
	}

	d, err := newDeps(ctx, *c.rootCmd)
	if err != nil {
		return err
	}
	defer func() { _ = d.close() }()

	svc, err := seed.NewService(seed.ServiceConfig{
		Loader:     storageio.NewCurriculumFileRepository(os.DirFS(filepath.Dir(abs))),
		Curriculum: d.repo,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	curriculum, err := svc.Run(ctx, seed.Request{Path: filepath.Base(abs), Force: c.force})
	if err != nil {
		return fmt.Errorf("could not seed curriculum: %w", err)
	}

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintCurriculum(*curriculum); err != nil {
		return fmt.Errorf("could not print curriculum: %w", err)
	}

	return nil
}
