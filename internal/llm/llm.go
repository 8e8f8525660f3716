package llm

import (
	"context"
	"strings"

	"github.com/slok/plancoach/internal/model"
)

const (
	// DefaultMaxTokens is the completion size limit of coach turns.
	DefaultMaxTokens = 800
	// DefaultTemperature is the sampling temperature of coach turns.
	DefaultTemperature = 0.3
)

// Turn is a single conversation turn sent to the model.
type Turn struct {
	Role    model.Role
	Content string
}

// Request is a model completion request.
type Request struct {
	System      string
	Turns       []Turn
	MaxTokens   int
	Temperature float64
}

// Client is a hosted language model. The returned text has no structure
// guarantee.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ClientFunc is a helper to implement Client with a function.
type ClientFunc func(ctx context.Context, req Request) (string, error)

func (f ClientFunc) Complete(ctx context.Context, req Request) (string, error) { return f(ctx, req) }

// TurnsFromMessages converts conversation messages into model turns.
func TurnsFromMessages(msgs []model.Message) []Turn {
	turns := make([]Turn, 0, len(msgs))
	for _, m := range msgs {
		turns = append(turns, Turn{Role: m.Role, Content: m.Content})
	}
	return turns
}

// NormalizeTurns returns turns that providers accept: no empty turns, starting
// with a user turn, and consecutive turns of the same role joined.
func NormalizeTurns(turns []Turn) []Turn {
	out := []Turn{}
	for _, t := range turns {
		content := strings.TrimSpace(t.Content)
		if content == "" {
			continue
		}
		role := t.Role
		if role != model.RoleAssistant {
			role = model.RoleUser
		}
		if len(out) == 0 && role != model.RoleUser {
			continue
		}
		if len(out) > 0 && out[len(out)-1].Role == role {
			out[len(out)-1].Content += "\n\n" + content
			continue
		}
		out = append(out, Turn{Role: role, Content: content})
	}
	return out
}

// Defaults returns the request with the default generation parameters set.
func (r Request) Defaults() Request {
	if r.MaxTokens <= 0 {
		r.MaxTokens = DefaultMaxTokens
	}
	if r.Temperature <= 0 {
		r.Temperature = DefaultTemperature
	}
	return r
}
