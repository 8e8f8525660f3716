package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/slok/plancoach/internal/log"
	"github.com/slok/plancoach/internal/model"
	"github.com/slok/plancoach/internal/storage"
)

const (
	// DefaultStorageWindow is the number of most recent messages persisted.
	DefaultStorageWindow = 12
	// DefaultPromptWindow is the number of most recent messages sent to the model.
	DefaultPromptWindow = 12
)

// StoreConfig is the configuration of the conversation store.
type StoreConfig struct {
	Documents     storage.DocumentStore
	StorageWindow int
	PromptWindow  int
	Now           func() time.Time
	Logger        log.Logger
}

func (c *StoreConfig) defaults() error {
	if c.Documents == nil {
		return fmt.Errorf("document store is required")
	}

	if c.StorageWindow == 0 {
		c.StorageWindow = DefaultStorageWindow
	}
	if c.PromptWindow == 0 {
		c.PromptWindow = DefaultPromptWindow
	}
	if c.StorageWindow < 0 || c.PromptWindow < 0 {
		return fmt.Errorf("windows can't be negative")
	}

	if c.Now == nil {
		c.Now = time.Now
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "conversation.Store"})

	return nil
}

// Store loads, bounds and persists the coach conversation of users.
type Store struct {
	docs          storage.DocumentStore
	storageWindow int
	promptWindow  int
	now           func() time.Time
	logger        log.Logger
}

var _ storage.ConversationRepository = &Store{}

// NewStore returns a new conversation store.
func NewStore(cfg StoreConfig) (*Store, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Store{
		docs:          cfg.Documents,
		storageWindow: cfg.StorageWindow,
		promptWindow:  cfg.PromptWindow,
		now:           cfg.Now,
		logger:        cfg.Logger,
	}, nil
}

// LoadConversation satisfies storage.ConversationRepository.
func (s *Store) LoadConversation(ctx context.Context, userID string) ([]model.Message, error) {
	doc, err := s.docs.GetDocument(ctx, storage.ConversationPath(userID))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return []model.Message{}, nil
		}
		return nil, fmt.Errorf("could not get conversation: %w", err)
	}

	items, _ := doc["messages"].([]any)
	msgs := make([]model.Message, 0, len(items))
	for i, item := range items {
		raw, err := json.Marshal(item)
		if err != nil {
			s.logger.Warningf("Ignoring message %d of %s: %s", i, userID, err)
			continue
		}
		var m model.Message
		if err := json.Unmarshal(raw, &m); err != nil {
			s.logger.Warningf("Ignoring message %d of %s: %s", i, userID, err)
			continue
		}
		msgs = append(msgs, m)
	}

	return Sort(msgs), nil
}

// SaveConversation satisfies storage.ConversationRepository. Only the most recent
// messages are kept, and every message is sanitized before being written.
func (s *Store) SaveConversation(ctx context.Context, userID string, msgs []model.Message) error {
	kept := Trim(Sort(msgs), s.storageWindow)

	items := make([]any, 0, len(kept))
	for _, m := range kept {
		item, err := Sanitize(m)
		if err != nil {
			return fmt.Errorf("could not sanitize message: %w", err)
		}
		items = append(items, item)
	}

	err := s.docs.SetDocument(ctx, storage.ConversationPath(userID), map[string]any{
		"messages":  items,
		"updatedAt": s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("could not save conversation: %w", err)
	}

	return nil
}

// ClearConversation satisfies storage.ConversationRepository.
func (s *Store) ClearConversation(ctx context.Context, userID string) error {
	if err := s.docs.DeleteDocument(ctx, storage.ConversationPath(userID)); err != nil {
		return fmt.Errorf("could not delete conversation: %w", err)
	}

	return nil
}

// PromptHistory returns the part of a sorted history that is sent to the model.
func (s *Store) PromptHistory(msgs []model.Message) []model.Message {
	return Trim(msgs, s.promptWindow)
}

// Sort returns a copy of the messages sorted by creation time, ascending. Messages
// created at the same time keep their order.
func Sort(msgs []model.Message) []model.Message {
	sorted := slices.Clone(msgs)
	if sorted == nil {
		sorted = []model.Message{}
	}
	slices.SortStableFunc(sorted, func(a, b model.Message) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return sorted
}

// Trim returns the last n messages.
func Trim(msgs []model.Message, n int) []model.Message {
	if len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}

// Sanitize returns the stored representation of a message. Fields without value
// are removed, nested ones included, because document stores like Firestore
// reject them on write.
func Sanitize(m model.Message) (map[string]any, error) {
	doc, err := storage.EncodeDocument(m)
	if err != nil {
		return nil, err
	}

	return stripNulls(doc), nil
}

func stripNulls(obj map[string]any) map[string]any {
	for k, v := range obj {
		switch tv := v.(type) {
		case nil:
			delete(obj, k)
		case map[string]any:
			obj[k] = stripNulls(tv)
		case []any:
			obj[k] = stripNullItems(tv)
		}
	}
	return obj
}

func stripNullItems(items []any) []any {
	out := make([]any, 0, len(items))
	for _, it := range items {
		switch tv := it.(type) {
		case nil:
			continue
		case map[string]any:
			out = append(out, stripNulls(tv))
		case []any:
			out = append(out, stripNullItems(tv))
		default:
			out = append(out, it)
		}
	}
	return out
}
