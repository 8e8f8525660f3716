package confirm

import (
	"fmt"
	"math"

	"github.com/slok/plancoach/internal/log"
	"github.com/slok/plancoach/internal/model"
)

// State is the confirmation state of a conversation.
type State string

const (
	// StateIdle means there is nothing waiting for the user.
	StateIdle State = "idle"
	// StateAwaitingConfirmation means the last assistant turn proposed a plan.
	StateAwaitingConfirmation State = "awaiting_confirmation"
)

// StateOf returns the confirmation state of a conversation history in ascending
// time order.
func StateOf(history []model.Message) State {
	last, ok := lastAssistant(history)
	if ok && last.IsProposal() {
		return StateAwaitingConfirmation
	}
	return StateIdle
}

// PlanSource is where the operations of a confirmed turn came from.
type PlanSource string

const (
	PlanSourceNone           PlanSource = "none"
	PlanSourceModel          PlanSource = "model_operations"
	PlanSourceCurrentPlan    PlanSource = "current_plan"
	PlanSourcePreviousPlan   PlanSource = "previous_plan"
	PlanSourcePreviousText   PlanSource = "previous_text"
	PlanSourceAlreadyApplied PlanSource = "already_applied"
)

// Input is a single turn to resolve.
type Input struct {
	// UserMessage is the message of the user in this turn.
	UserMessage string
	// Response is the parsed model response of this turn.
	Response model.AgentResponse
	// History is the conversation before this turn, ascending.
	History []model.Message
	// DefaultWeek is used for derived tasks when the plan has no week.
	DefaultWeek int
}

// Decision is the resolved turn.
type Decision struct {
	Response model.AgentResponse
	Source   PlanSource
}

// MachineConfig is the configuration of the confirmation state machine.
type MachineConfig struct {
	Extractor PlanExtractor
	Logger    log.Logger
}

func (c *MachineConfig) defaults() error {
	if c.Extractor == nil {
		c.Extractor = BulletExtractor{}
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "confirm.Machine"})

	return nil
}

// Machine decides what a turn means in the propose/confirm protocol. A resolved
// turn never has operations and a weekly plan at the same time.
type Machine struct {
	extractor PlanExtractor
	logger    log.Logger
}

// NewMachine returns a new confirmation state machine.
func NewMachine(cfg MachineConfig) (*Machine, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Machine{
		extractor: cfg.Extractor,
		logger:    cfg.Logger,
	}, nil
}

// Resolve applies the confirmation rules to a parsed model response:
//
//   - Model operations are trusted and win over any plan.
//   - An affirmative user message derives add_task operations from the plan of
//     this turn, the last proposed plan, or the bullets of the last assistant text.
//   - A weekly plan without operations is a proposal.
//   - Declining a pending proposal is a rejection.
func (m *Machine) Resolve(in Input) Decision {
	resp := in.Response
	resp.Operations = append([]model.Operation{}, resp.Operations...)
	resp.WeeklyPlan = resp.WeeklyPlan.Clone()

	intent := Classify(in.UserMessage)
	logger := m.logger.WithValues(log.Kv{"intent": intent})

	switch {
	case len(resp.Operations) > 0:
		resp.WeeklyPlan = nil
		resp.Kind = model.TurnKindConfirmed
		return Decision{Response: resp, Source: PlanSourceModel}

	case intent == IntentAffirm:
		plan, source := m.findPlan(resp.WeeklyPlan, in.History)
		resp.WeeklyPlan = nil
		resp.Kind = model.TurnKindReply
		if plan == nil {
			logger.Debugf("affirmative message without a plan to confirm (%s)", source)
			return Decision{Response: resp, Source: source}
		}

		ops := Operations(*plan, in.DefaultWeek)
		if len(ops) == 0 {
			logger.Debugf("confirmed plan has no tasks")
			return Decision{Response: resp, Source: PlanSourceNone}
		}

		logger.Infof("derived %d operations from %s", len(ops), source)
		resp.Operations = ops
		resp.Kind = model.TurnKindConfirmed
		return Decision{Response: resp, Source: source}

	case resp.WeeklyPlan != nil:
		resp.Kind = model.TurnKindProposal
		return Decision{Response: resp, Source: PlanSourceNone}

	case intent == IntentReject && StateOf(in.History) == StateAwaitingConfirmation:
		resp.Kind = model.TurnKindRejected
		return Decision{Response: resp, Source: PlanSourceNone}
	}

	resp.Kind = model.TurnKindReply
	return Decision{Response: resp, Source: PlanSourceNone}
}

func (m *Machine) findPlan(current *model.WeeklyPlan, history []model.Message) (*model.WeeklyPlan, PlanSource) {
	if current != nil && len(current.Tasks) > 0 {
		return current, PlanSourceCurrentPlan
	}

	last, ok := lastAssistant(history)
	if !ok {
		return nil, PlanSourceNone
	}

	// Confirming twice must not add the same tasks again.
	if last.IsConfirmed() {
		return nil, PlanSourceAlreadyApplied
	}

	if last.WeeklyPlan != nil && len(last.WeeklyPlan.Tasks) > 0 {
		return last.WeeklyPlan.Clone(), PlanSourcePreviousPlan
	}

	if plan, ok := m.extractor.Extract(last.Content); ok && plan != nil && len(plan.Tasks) > 0 {
		return plan, PlanSourcePreviousText
	}

	return nil, PlanSourceNone
}

func lastAssistant(history []model.Message) (model.Message, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == model.RoleAssistant {
			return history[i], true
		}
	}
	return model.Message{}, false
}

// Operations derives add_task operations from a weekly plan. Plans without a
// week use defaultWeek. Task durations come from the task text, else the part of
// the plan estimate not claimed by other tasks split evenly, else
// DefaultTaskMinutes.
func Operations(plan model.WeeklyPlan, defaultWeek int) []model.Operation {
	week := plan.Week
	if week <= 0 {
		week = defaultWeek
	}
	if week <= 0 {
		week = 1
	}

	type derived struct {
		text    string
		minutes int
		ok      bool
	}
	tasks := []derived{}
	claimed, unknown := 0, 0
	for _, t := range plan.Tasks {
		text, minutes, ok := SplitDuration(t)
		if text == "" {
			continue
		}
		if ok {
			claimed += minutes
		} else {
			unknown++
		}
		tasks = append(tasks, derived{text: text, minutes: minutes, ok: ok})
	}

	split := DefaultTaskMinutes
	if plan.EstimatedMinutes != nil && unknown > 0 {
		if rest := *plan.EstimatedMinutes - claimed; rest > 0 {
			split = max(1, int(math.Round(float64(rest)/float64(unknown))))
		}
	}

	ops := make([]model.Operation, 0, len(tasks))
	for _, t := range tasks {
		minutes := t.minutes
		if !t.ok {
			minutes = split
		}
		ops = append(ops, model.AddTask(week, model.NewTask{
			Text:             t.text,
			EstimatedMinutes: &minutes,
		}))
	}

	return ops
}
