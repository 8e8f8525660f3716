package commands

import (
	"io"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/plancoach/internal/printer"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

func formatFlag(cmd *kingpin.CmdClause, format *string) {
	cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(format, formatTable, formatJSON)
}

func newPrinter(format string, w io.Writer) printer.Printer {
	switch format {
	case formatJSON:
		return printer.NewJSONPrinter(w)
	default:
		return printer.NewTablePrinter(w)
	}
}
