package model

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// Role is the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// TurnKind is the role an assistant turn plays in the propose/confirm protocol.
type TurnKind string

const (
	// TurnKindReply is a plain answer, it doesn't propose nor apply anything.
	TurnKindReply TurnKind = "reply"
	// TurnKindProposal carries a weekly plan awaiting user confirmation.
	TurnKindProposal TurnKind = "proposal"
	// TurnKindConfirmed carries operations to be applied.
	TurnKindConfirmed TurnKind = "confirmed"
	// TurnKindRejected is the answer to a user declining a proposal.
	TurnKindRejected TurnKind = "rejected"
)

// DefaultUserID is the identity used when the caller doesn't supply one.
const DefaultUserID = "default"

// NoResponseMessage is used when the model didn't produce any usable message.
const NoResponseMessage = "No response"

// WeeklyPlan is a proposal of tasks for a week. It is never applied as is.
type WeeklyPlan struct {
	Week             int      `json:"week"`
	Tasks            []string `json:"tasks"`
	EstimatedMinutes *int     `json:"estimatedMinutes,omitempty"`
}

// Clone returns a deep copy of the plan.
func (w *WeeklyPlan) Clone() *WeeklyPlan {
	if w == nil {
		return nil
	}
	cp := *w
	cp.Tasks = slices.Clone(w.Tasks)
	if w.EstimatedMinutes != nil {
		v := *w.EstimatedMinutes
		cp.EstimatedMinutes = &v
	}
	return &cp
}

// AgentResponse is the structured answer of the coach for a single turn.
type AgentResponse struct {
	Message    string      `json:"message"`
	Operations []Operation `json:"operations"`
	WeeklyPlan *WeeklyPlan `json:"weeklyPlan,omitempty"`
	Kind       TurnKind    `json:"kind,omitempty"`
}

// Validate checks a turn is never a proposal and an action at the same time.
func (a AgentResponse) Validate() error {
	if len(a.Operations) > 0 && a.WeeklyPlan != nil {
		return fmt.Errorf("a turn can't have operations and a weekly plan: %w", ErrNotValid)
	}
	return nil
}

// Message is a single conversation message.
type Message struct {
	Role       Role
	Content    string
	CreatedAt  time.Time
	Operations []Operation
	WeeklyPlan *WeeklyPlan
	Kind       TurnKind
}

// IsProposal returns true when the message is an assistant proposal, a weekly
// plan without operations.
func (m Message) IsProposal() bool {
	return m.Role == RoleAssistant && m.WeeklyPlan != nil && len(m.Operations) == 0
}

// IsConfirmed returns true when the message is an assistant turn with operations.
func (m Message) IsConfirmed() bool {
	return m.Role == RoleAssistant && len(m.Operations) > 0
}

// messageJSON is the wire format of a message, createdAt is stored as unix
// milliseconds.
type messageJSON struct {
	Role       Role        `json:"role"`
	Content    string      `json:"content"`
	CreatedAt  int64       `json:"createdAt"`
	Operations []Operation `json:"operations,omitempty"`
	WeeklyPlan *WeeklyPlan `json:"weeklyPlan,omitempty"`
	Kind       TurnKind    `json:"kind,omitempty"`
}

// MarshalJSON satisfies json.Marshaler.
func (m Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(messageJSON{
		Role:       m.Role,
		Content:    m.Content,
		CreatedAt:  m.CreatedAt.UnixMilli(),
		Operations: m.Operations,
		WeeklyPlan: m.WeeklyPlan,
		Kind:       m.Kind,
	})
}

// UnmarshalJSON satisfies json.Unmarshaler.
func (m *Message) UnmarshalJSON(data []byte) error {
	var mj messageJSON
	if err := json.Unmarshal(data, &mj); err != nil {
		return err
	}

	*m = Message{
		Role:       mj.Role,
		Content:    mj.Content,
		CreatedAt:  time.UnixMilli(mj.CreatedAt),
		Operations: mj.Operations,
		WeeklyPlan: mj.WeeklyPlan,
		Kind:       mj.Kind,
	}
	return nil
}
