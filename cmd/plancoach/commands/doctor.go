package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/plancoach/internal/app/doctor"
	"github.com/slok/plancoach/internal/model"
)

type DoctorCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand
}

// NewDoctorCommand returns the doctor command.
func NewDoctorCommand(rootCmd *RootCommand, app *kingpin.Application) *DoctorCommand {
	c := &DoctorCommand{rootCmd: rootCmd}
	c.Cmd = app.Command("doctor", "Run preflight checks for the store and the model provider.")
	return c
}

func (c DoctorCommand) Name() string { return c.Cmd.FullCommand() }

func (c DoctorCommand) Run(ctx context.Context) error {
	out := c.rootCmd.Stdout

	d, err := newDeps(ctx, *c.rootCmd)
	if err != nil {
		return err
	}
	defer func() { _ = d.close() }()

	_, credentials, err := newModel(ctx, *c.rootCmd)
	if err != nil {
		return err
	}

	svc, err := doctor.NewService(doctor.ServiceConfig{
		Store:            d.store,
		ModelProvider:    c.rootCmd.Provider,
		ModelCredentials: credentials,
		Logger:           c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	results := svc.Run(ctx)

	fmt.Fprintf(out, "\nChecking %s store and %s provider...\n", c.rootCmd.Store, c.rootCmd.Provider)
	for _, r := range results {
		fmt.Fprintf(out, "  %s %-20s %s\n", statusIcon(r.Status), r.ID, r.Message)
	}
	warns, errs := model.CountByStatus(results)

	fmt.Fprintln(out)
	if errs == 0 && warns == 0 {
		fmt.Fprintln(out, "All checks passed!")
		return nil
	}

	var summary []string
	if errs > 0 {
		summary = append(summary, fmt.Sprintf("%d error(s)", errs))
	}
	if warns > 0 {
		summary = append(summary, fmt.Sprintf("%d warning(s)", warns))
	}
	fmt.Fprintln(out, strings.Join(summary, ", "))

	if errs > 0 {
		return fmt.Errorf("preflight checks failed with %d error(s)", errs)
	}

	return nil
}

func statusIcon(status model.CheckStatus) string {
	switch status {
	case model.CheckStatusOK:
		return "OK"
	case model.CheckStatusWarning:
		return "!!"
	case model.CheckStatusError:
		return "XX"
	default:
		return "??"
	}
}
