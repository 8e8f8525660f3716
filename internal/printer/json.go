package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/slok/plancoach/internal/app/snapshot"
	"github.com/slok/plancoach/internal/apply"
	"github.com/slok/plancoach/internal/model"
)

// JSONPrinter prints coach information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

// messageItem is a conversation message, times are printed in UTC.
type messageItem struct {
	Role       model.Role        `json:"role"`
	Kind       model.TurnKind    `json:"kind,omitempty"`
	Content    string            `json:"content"`
	Operations []model.Operation `json:"operations,omitempty"`
	WeeklyPlan *model.WeeklyPlan `json:"weekly_plan,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

type conversationOutput struct {
	Messages             []messageItem `json:"messages"`
	AwaitingConfirmation bool          `json:"awaiting_confirmation"`
}

type skippedItem struct {
	Operation model.Operation `json:"operation"`
	Reason    string          `json:"reason"`
}

type applyOutput struct {
	Applied []model.Operation `json:"applied"`
	Skipped []skippedItem     `json:"skipped"`
}

type snapshotOutput struct {
	CurrentWeek        int      `json:"current_week"`
	TotalWeeks         int      `json:"total_weeks"`
	CompletedTasks     int      `json:"completed_tasks"`
	TotalTasks         int      `json:"total_tasks"`
	HoursPerWeekTarget *float64 `json:"hours_per_week_target,omitempty"`
	WeeklyPlanMinutes  *int     `json:"weekly_plan_minutes,omitempty"`
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

// PrintTurn prints the coach answer in JSON format.
func (j *JSONPrinter) PrintTurn(resp model.AgentResponse) error {
	return j.encode(resp)
}

// PrintConversation prints the conversation in JSON format.
func (j *JSONPrinter) PrintConversation(msgs []model.Message, awaitingConfirmation bool) error {
	items := make([]messageItem, 0, len(msgs))
	for _, m := range msgs {
		items = append(items, messageItem{
			Role:       m.Role,
			Kind:       m.Kind,
			Content:    m.Content,
			Operations: m.Operations,
			WeeklyPlan: m.WeeklyPlan,
			CreatedAt:  m.CreatedAt.UTC(),
		})
	}

	return j.encode(conversationOutput{Messages: items, AwaitingConfirmation: awaitingConfirmation})
}

// PrintApplyResult prints the applied and skipped operations in JSON format.
func (j *JSONPrinter) PrintApplyResult(res apply.Result) error {
	out := applyOutput{
		Applied: append([]model.Operation{}, res.Applied...),
		Skipped: make([]skippedItem, 0, len(res.Skipped)),
	}
	for _, s := range res.Skipped {
		out.Skipped = append(out.Skipped, skippedItem{Operation: s.Operation, Reason: string(s.Reason)})
	}

	return j.encode(out)
}

// PrintSnapshot prints the progress snapshot in JSON format.
func (j *JSONPrinter) PrintSnapshot(snap snapshot.Snapshot) error {
	return j.encode(snapshotOutput{
		CurrentWeek:        snap.CurrentWeek,
		TotalWeeks:         snap.TotalWeeks,
		CompletedTasks:     snap.CompletedTasks,
		TotalTasks:         snap.TotalTasks,
		HoursPerWeekTarget: snap.HoursPerWeekTarget,
		WeeklyPlanMinutes:  snap.WeeklyPlanMinutes,
	})
}

// PrintCurriculum prints the curriculum in JSON format.
func (j *JSONPrinter) PrintCurriculum(c model.Curriculum) error {
	if c.Phases == nil {
		c.Phases = []model.Phase{}
	}
	return j.encode(c)
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
