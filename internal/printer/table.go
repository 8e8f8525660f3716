package printer

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/slok/plancoach/internal/app/snapshot"
	"github.com/slok/plancoach/internal/apply"
	"github.com/slok/plancoach/internal/model"
)

// TablePrinter prints coach information in a human readable format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintTurn prints the coach answer with its plan or operations.
func (t *TablePrinter) PrintTurn(resp model.AgentResponse) error {
	fmt.Fprintln(t.writer, resp.Message)

	if p := resp.WeeklyPlan; p != nil {
		fmt.Fprintf(t.writer, "\nProposed plan for week %d", p.Week)
		if p.EstimatedMinutes != nil {
			fmt.Fprintf(t.writer, " (%s)", apply.DisplayTime(p.EstimatedMinutes))
		}
		fmt.Fprintln(t.writer, ":")
		for _, task := range p.Tasks {
			fmt.Fprintf(t.writer, "  - %s\n", task)
		}
		fmt.Fprintln(t.writer, "Reply \"yes\" to add these tasks.")
	}

	if len(resp.Operations) > 0 {
		fmt.Fprintln(t.writer, "\nOperations:")
		for _, op := range resp.Operations {
			fmt.Fprintf(t.writer, "  - %s\n", op.Describe())
		}
	}

	return nil
}

// PrintConversation prints the conversation messages.
func (t *TablePrinter) PrintConversation(msgs []model.Message, awaitingConfirmation bool) error {
	if len(msgs) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "ROLE\tKIND\tMESSAGE\tCREATED")
	for _, m := range msgs {
		kind := string(m.Kind)
		if kind == "" {
			kind = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.Role, kind, oneLine(m.Content, 80), TimeAgo(m.CreatedAt))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if awaitingConfirmation {
		fmt.Fprintln(t.writer, "\nThe last proposal is awaiting confirmation.")
	}

	return nil
}

// PrintApplyResult prints the applied and skipped operations.
func (t *TablePrinter) PrintApplyResult(res apply.Result) error {
	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "OPERATION\tRESULT")
	for _, op := range res.Applied {
		fmt.Fprintf(tw, "%s\tapplied\n", op.Describe())
	}
	for _, s := range res.Skipped {
		fmt.Fprintf(tw, "%s\tskipped (%s)\n", s.Operation.Describe(), s.Reason)
	}

	return nil
}

// PrintSnapshot prints the progress snapshot.
func (t *TablePrinter) PrintSnapshot(snap snapshot.Snapshot) error {
	fmt.Fprintf(t.writer, "Week:         %d of %d\n", snap.CurrentWeek, snap.TotalWeeks)
	fmt.Fprintf(t.writer, "Tasks:        %d of %d done\n", snap.CompletedTasks, snap.TotalTasks)

	if snap.HoursPerWeekTarget != nil {
		fmt.Fprintf(t.writer, "Target:       %g hours/week\n", *snap.HoursPerWeekTarget)
	}

	if snap.WeeklyPlanMinutes != nil {
		fmt.Fprintf(t.writer, "Latest plan:  %d minutes\n", *snap.WeeklyPlanMinutes)
	}

	return nil
}

// PrintCurriculum prints the curriculum weeks.
func (t *TablePrinter) PrintCurriculum(c model.Curriculum) error {
	if len(c.Weeks()) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "PHASE\tWEEK\tTITLE\tTASKS")
	for _, p := range c.Phases {
		for _, w := range p.Weeks {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%d\n", p.ID, w.ID, w.Title, len(w.Tasks))
		}
	}

	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}

func oneLine(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-1]) + "…"
}
