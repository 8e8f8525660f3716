package history

import (
	"context"
	"fmt"

	"github.com/slok/plancoach/internal/confirm"
	"github.com/slok/plancoach/internal/log"
	"github.com/slok/plancoach/internal/model"
	"github.com/slok/plancoach/internal/response"
	"github.com/slok/plancoach/internal/storage"
)

// ServiceConfig is the configuration for the history service.
type ServiceConfig struct {
	Conversation storage.ConversationRepository
	Logger       log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Conversation == nil {
		return fmt.Errorf("conversation repository is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.History"})

	return nil
}

// Service returns the conversation of a user ready to be displayed.
type Service struct {
	conversation storage.ConversationRepository
	logger       log.Logger
}

// NewService creates a new history service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		conversation: cfg.Conversation,
		logger:       cfg.Logger,
	}, nil
}

// Request represents the history request parameters.
type Request struct {
	UserID string
}

// History is a displayable conversation.
type History struct {
	// Messages are in ascending time order with their content normalized.
	Messages []model.Message
	// AwaitingConfirmation is true when the latest assistant turn proposes a plan.
	AwaitingConfirmation bool
}

// Run loads the conversation of a user.
func (s *Service) Run(ctx context.Context, req Request) (*History, error) {
	userID := req.UserID
	if userID == "" {
		userID = model.DefaultUserID
	}

	msgs, err := s.conversation.LoadConversation(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("could not load conversation: %w", err)
	}

	out := make([]model.Message, 0, len(msgs))
	for _, m := range msgs {
		m.Content = response.NormalizeContent(m.Content)
		out = append(out, m)
	}

	return &History{
		Messages:             out,
		AwaitingConfirmation: confirm.StateOf(out) == confirm.StateAwaitingConfirmation,
	}, nil
}
