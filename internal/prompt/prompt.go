package prompt

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/slok/plancoach/internal/model"
)

const (
	// DefaultCurriculumCap is the max size of the serialized curriculum block.
	DefaultCurriculumCap = 14000
	// DefaultProgressCap is the max size of the serialized progress summary block.
	DefaultProgressCap = 5000
	// DefaultReminderTurns is the number of recent turns added as a reminder.
	DefaultReminderTurns = 4
	// DefaultReminderContentCap is the max size of each reminder turn content.
	DefaultReminderContentCap = 280
)

// Instructions is the fixed instruction block of the system prompt.
const Instructions = `You are a Plan Coach Agent that adjusts a 12-week curriculum.
You must reply with a single JSON object: {"message": string, "operations": [], "weeklyPlan"?: {...}}.

Allowed operations:
- update_status { "type": "update_status", "taskId": string, "status": "todo"|"in_progress"|"done"|"skipped" }
- reschedule { "type": "reschedule", "taskId": string, "newWeek": number }
- add_task { "type": "add_task", "week": number, "task": { "text": string, "estimatedMinutes"?: number, "category"?: string } }
- delete_task { "type": "delete_task", "taskId": string }
Weekly plan shape: { "week": number, "tasks": string[] (full task text), "estimatedMinutes"?: number }.

Two-phase protocol:
1. PROPOSE: when suggesting changes, include a weeklyPlan and leave operations empty. Nothing is changed yet.
2. CONFIRM: only after the user explicitly agrees (yes, sure, do it, go ahead...), return the operations that
   apply the previously proposed plan and omit weeklyPlan. Never return operations and a weeklyPlan together.
If the user asks for "more" suggestions, keep the previous ones in mind and don't repeat them.

Formatting rules for "message":
- Use markdown bullets, one task per line: "- **Task** (time) short reason".
- Never show raw JSON to the user.
- End every proposal with an explicit confirmation question, for example "Shall I add these to week N?".
Be concise and actionable.`

// Truncate cuts s to at most max bytes. The cut point never splits a UTF-8
// sequence, so the result may be a few bytes shorter than max. Truncation is
// silent and lossy.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}

	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// ProgressSummary is the progress view given to the model.
type ProgressSummary struct {
	// HoursPerWeekTarget is a number or "unknown".
	HoursPerWeekTarget any               `json:"hoursPerWeekTarget"`
	FocusAreas         []string          `json:"focusAreas"`
	TaskProgress       model.ProgressMap `json:"taskProgress"`
	Completed          []string          `json:"completed"`
	Skipped            []string          `json:"skipped"`
}

// Summarize computes the progress summary of a user.
func Summarize(p model.UserProgress) ProgressSummary {
	s := ProgressSummary{
		HoursPerWeekTarget: "unknown",
		FocusAreas:         []string{},
		TaskProgress:       model.ProgressMap{},
		Completed:          p.TaskProgress.IDsWithStatus(model.TaskStatusDone),
		Skipped:            p.TaskProgress.IDsWithStatus(model.TaskStatusSkipped),
	}
	if p.HoursPerWeekTarget != nil {
		s.HoursPerWeekTarget = *p.HoursPerWeekTarget
	}
	if p.FocusAreas != nil {
		s.FocusAreas = p.FocusAreas
	}
	if p.TaskProgress != nil {
		s.TaskProgress = p.TaskProgress
	}
	return s
}

// BuilderConfig is the configuration of the prompt builder.
type BuilderConfig struct {
	CurriculumCap      int
	ProgressCap        int
	ReminderTurns      int
	ReminderContentCap int
}

func (c *BuilderConfig) defaults() error {
	if c.CurriculumCap == 0 {
		c.CurriculumCap = DefaultCurriculumCap
	}
	if c.ProgressCap == 0 {
		c.ProgressCap = DefaultProgressCap
	}
	if c.ReminderTurns == 0 {
		c.ReminderTurns = DefaultReminderTurns
	}
	if c.ReminderContentCap == 0 {
		c.ReminderContentCap = DefaultReminderContentCap
	}

	if c.CurriculumCap < 0 || c.ProgressCap < 0 || c.ReminderTurns < 0 || c.ReminderContentCap < 0 {
		return fmt.Errorf("caps can't be negative")
	}
	return nil
}

// Builder composes the system prompt sent to the model. Given the same inputs it
// always returns the same prompt.
type Builder struct {
	cfg BuilderConfig
}

// NewBuilder returns a new prompt builder.
func NewBuilder(cfg BuilderConfig) (*Builder, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Builder{cfg: cfg}, nil
}

// Build returns the system prompt. recent is the conversation history in
// ascending time order, only its tail is used for the reminder.
func (b Builder) Build(curriculum model.Curriculum, progress model.UserProgress, recent []model.Message) (string, error) {
	if curriculum.Phases == nil {
		curriculum.Phases = []model.Phase{}
	}

	curriculumJSON, err := json.Marshal(curriculum)
	if err != nil {
		return "", fmt.Errorf("could not serialize curriculum: %w", err)
	}
	summaryJSON, err := json.Marshal(Summarize(progress))
	if err != nil {
		return "", fmt.Errorf("could not serialize progress summary: %w", err)
	}

	sections := []string{
		Instructions,
		"Curriculum summary: " + Truncate(string(curriculumJSON), b.cfg.CurriculumCap),
		"User progress summary: " + Truncate(string(summaryJSON), b.cfg.ProgressCap),
	}
	if reminder := b.Reminder(recent); reminder != "" {
		sections = append(sections, reminder)
	}

	return strings.Join(sections, "\n\n"), nil
}

// Reminder returns a short digest of the last conversation turns, empty when
// there is no history.
func (b Builder) Reminder(history []model.Message) string {
	if len(history) == 0 || b.cfg.ReminderTurns == 0 {
		return ""
	}

	start := max(len(history)-b.cfg.ReminderTurns, 0)

	var sb strings.Builder
	sb.WriteString("Recent conversation (most recent last), use it to keep context of previous suggestions:")
	for _, m := range history[start:] {
		content := strings.Join(strings.Fields(m.Content), " ")
		short := Truncate(content, b.cfg.ReminderContentCap)
		if len(short) < len(content) {
			short += "…"
		}
		fmt.Fprintf(&sb, "\n- %s: %s", m.Role, short)
		if m.WeeklyPlan != nil && len(m.WeeklyPlan.Tasks) > 0 {
			fmt.Fprintf(&sb, " [proposed for week %d: %s]", m.WeeklyPlan.Week, strings.Join(m.WeeklyPlan.Tasks, "; "))
		}
	}

	return sb.String()
}
