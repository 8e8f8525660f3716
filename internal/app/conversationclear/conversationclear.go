package conversationclear

import (
	"context"
	"fmt"

	"github.com/slok/plancoach/internal/log"
	"github.com/slok/plancoach/internal/model"
	"github.com/slok/plancoach/internal/storage"
)

// ServiceConfig is the configuration for the conversation clear service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.ConversationClear"})

	return nil
}

// Service deletes the conversation of a user.
type Service struct {
	conversation storage.ConversationRepository
	logger       log.Logger
}

// NewService creates a new conversation clear service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		conversation: cfg.Conversation,
		logger:       cfg.Logger,
	}, nil
}

// Request represents the clear request parameters.
type Request struct {
	UserID string
}

// Run deletes the conversation, clearing a missing conversation is not an error.
func (s *Service) Run(ctx context.Context, req Request) error {
	userID := req.UserID
	if userID == "" {
		userID = model.DefaultUserID
	}

	if err := s.conversation.ClearConversation(ctx, userID); err != nil {
		return fmt.Errorf("could not clear conversation: %w", err)
	}
	s.logger.Infof("Conversation of %q cleared", userID)

	return nil
}
