package rpc

import (
	"github.com/slok/plancoach/internal/app/coach"
	"github.com/slok/plancoach/internal/app/history"
	"github.com/slok/plancoach/internal/app/snapshot"
	"github.com/slok/plancoach/internal/apply"
	"github.com/slok/plancoach/internal/model"
)

// CoachRequest is the body of the coach call.
type CoachRequest struct {
	Message string `json:"message" validate:"required"`
}

// CoachResponse is the answer of the coach call.
type CoachResponse struct {
	Message    string            `json:"message"`
	Operations []model.Operation `json:"operations"`
	WeeklyPlan *model.WeeklyPlan `json:"weeklyPlan,omitempty"`
	Kind       model.TurnKind    `json:"kind"`
	Source     string            `json:"source,omitempty"`
	Applied    *ApplyResponse    `json:"applied,omitempty"`
}

// ApplyRequest is the body of the apply operations call.
type ApplyRequest struct {
	Operations []model.Operation `json:"operations" validate:"required,min=1"`
}

// ApplyResponse is the result of applying operations.
type ApplyResponse struct {
	Applied []model.Operation `json:"applied"`
	Skipped []SkippedJSON     `json:"skipped"`
}

// SkippedJSON is an operation that had no effect.
type SkippedJSON struct {
	Operation   model.Operation `json:"operation"`
	Description string          `json:"description"`
	Reason      string          `json:"reason"`
}

// ConversationResponse is a displayable conversation.
type ConversationResponse struct {
	Messages             []model.Message `json:"messages"`
	AwaitingConfirmation bool            `json:"awaitingConfirmation"`
}

// SnapshotResponse is the progress summary of a user.
type SnapshotResponse struct {
	CurrentWeek        int      `json:"currentWeek"`
	TotalWeeks         int      `json:"totalWeeks"`
	CompletedTasks     int      `json:"completedTasks"`
	TotalTasks         int      `json:"totalTasks"`
	HoursPerWeekTarget *float64 `json:"hoursPerWeekTarget,omitempty"`
	WeeklyPlanMinutes  *int     `json:"weeklyPlanMinutes,omitempty"`
}

// ErrorResponse is the body of failed calls.
type ErrorResponse struct {
	Error ErrorJSON `json:"error"`
}

// ErrorJSON describes a failed call.
type ErrorJSON struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func mapCoachResponse(r coach.Response) CoachResponse {
	ops := r.Operations
	if ops == nil {
		ops = []model.Operation{}
	}

	resp := CoachResponse{
		Message:    r.Message,
		Operations: ops,
		WeeklyPlan: r.WeeklyPlan,
		Kind:       r.Kind,
		Source:     string(r.Source),
	}
	if r.Applied != nil {
		applied := mapApplyResult(*r.Applied)
		resp.Applied = &applied
	}

	return resp
}

func mapApplyResult(r apply.Result) ApplyResponse {
	resp := ApplyResponse{
		Applied: append([]model.Operation{}, r.Applied...),
		Skipped: []SkippedJSON{},
	}
	for _, s := range r.Skipped {
		resp.Skipped = append(resp.Skipped, SkippedJSON{
			Operation:   s.Operation,
			Description: s.Operation.Describe(),
			Reason:      string(s.Reason),
		})
	}
	return resp
}

func mapHistory(h history.History) ConversationResponse {
	msgs := h.Messages
	if msgs == nil {
		msgs = []model.Message{}
	}
	return ConversationResponse{Messages: msgs, AwaitingConfirmation: h.AwaitingConfirmation}
}

func mapSnapshot(s snapshot.Snapshot) SnapshotResponse {
	return SnapshotResponse{
		CurrentWeek:        s.CurrentWeek,
		TotalWeeks:         s.TotalWeeks,
		CompletedTasks:     s.CompletedTasks,
		TotalTasks:         s.TotalTasks,
		HoursPerWeekTarget: s.HoursPerWeekTarget,
		WeeklyPlanMinutes:  s.WeeklyPlanMinutes,
	}
}
