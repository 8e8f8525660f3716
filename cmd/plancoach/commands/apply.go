package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/plancoach/internal/app/applyops"
	"github.com/slok/plancoach/internal/model"
)

type ApplyCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	file   string
	format string
}

// NewApplyCommand returns the apply command.
func NewApplyCommand(rootCmd *RootCommand, app *kingpin.Application) *ApplyCommand {
	c := &ApplyCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("apply", "Apply plan operations from a JSON file.")
	c.Cmd.Flag("file", "JSON file with the operations, stdin when missing or '-'.").Short('f').StringVar(&c.file)
	formatFlag(c.Cmd, &c.format)

	return c
}

func (c ApplyCommand) Name() string { return c.Cmd.FullCommand() }

func (c ApplyCommand) Run(ctx context.Context) error {
	var r io.Reader = c.rootCmd.Stdin
	if c.file != "" && c.file != "-" {
		f, err := os.Open(c.file)
		if err != nil {
			return fmt.Errorf("could not open operations file: %w", err)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("could not read operations: %w", err)
	}

	ops, err := decodeOperations(data)
	if err != nil {
		return err
	}

	d, err := newDeps(ctx, *c.rootCmd)
	if err != nil {
		return err
	}
	defer func() { _ = d.close() }()

	svc, err := newApplyOpsService(*c.rootCmd, d)
	if err != nil {
		return err
	}

	res, err := svc.Run(ctx, applyops.Request{UserID: c.rootCmd.UserID, Operations: ops})
	if err != nil {
		return fmt.Errorf("could not apply operations: %w", err)
	}

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintApplyResult(*res); err != nil {
		return fmt.Errorf("could not print result: %w", err)
	}

	return nil
}

// decodeOperations accepts a JSON list of operations or an object with an
// `operations` list.
func decodeOperations(data []byte) ([]model.Operation, error) {
	data = bytes.TrimSpace(data)

	var ops []model.Operation
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &ops); err != nil {
			return nil, fmt.Errorf("invalid operations: %w", err)
		}
	} else {
		body := struct {
			Operations []model.Operation `json:"operations"`
		}{}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, fmt.Errorf("invalid operations: %w", err)
		}
		ops = body.Operations
	}

	if len(ops) == 0 {
		return nil, fmt.Errorf("at least one operation is required: %w", model.ErrNotValid)
	}

	return ops, nil
}
