package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/slok/plancoach/internal/model"
)

// Document paths, `<collection>/<id>`.
const (
	CurriculumPath         = "curriculum/main"
	ProgressCollection     = "userProgress"
	ConversationCollection = "coachConversations"
)

// ProgressPath returns the progress document path of a user.
func ProgressPath(userID string) string { return ProgressCollection + "/" + userID }

// ConversationPath returns the conversation document path of a user.
func ConversationPath(userID string) string { return ConversationCollection + "/" + userID }

// DocumentStore is the document persistence port. Documents are JSON like
// objects addressed by path.
type DocumentStore interface {
	// GetDocument returns model.ErrNotFound when the document doesn't exist.
	GetDocument(ctx context.Context, path string) (map[string]any, error)
	// SetDocument merges data into the document, creating it if missing. Nested
	// objects are merged, any other value is replaced.
	SetDocument(ctx context.Context, path string, data map[string]any) error
	// DeleteDocument deletes the document, missing documents are not an error.
	DeleteDocument(ctx context.Context, path string) error
}

// CurriculumRepository persists the global curriculum.
type CurriculumRepository interface {
	// GetCurriculum returns an empty curriculum when there is none stored.
	GetCurriculum(ctx context.Context) (*model.Curriculum, error)
	SaveCurriculum(ctx context.Context, c model.Curriculum) error
}

// ProgressRepository persists the progress of users.
type ProgressRepository interface {
	// GetProgress returns an empty progress when the user has none stored.
	GetProgress(ctx context.Context, userID string) (*model.UserProgress, error)
	SaveProgress(ctx context.Context, userID string, p model.UserProgress) error
}

// ConversationRepository persists the coach conversation of users.
type ConversationRepository interface {
	// LoadConversation returns the messages in ascending time order, empty when
	// there is no conversation stored.
	LoadConversation(ctx context.Context, userID string) ([]model.Message, error)
	SaveConversation(ctx context.Context, userID string, msgs []model.Message) error
	ClearConversation(ctx context.Context, userID string) error
}

// MergeDocument merges src into dst recursively and returns dst. Nested objects
// are merged key by key, any other value in src replaces the one in dst.
func MergeDocument(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = map[string]any{}
	}

	for k, sv := range src {
		sm, sok := sv.(map[string]any)
		dm, dok := dst[k].(map[string]any)
		if sok && dok {
			dst[k] = MergeDocument(dm, sm)
			continue
		}
		dst[k] = sv
	}

	return dst
}

// EncodeDocument converts a JSON serializable value into a document holding
// only JSON types (objects, arrays, strings, float64 numbers, bools and nulls).
// The result never shares memory with v.
func EncodeDocument(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("could not marshal document: %w", err)
	}

	doc := map[string]any{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("could not unmarshal document: %w", err)
	}

	return doc, nil
}

// DecodeDocument decodes a document into v.
func DecodeDocument(doc map[string]any, v any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("could not marshal document: %w", err)
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("could not decode document: %w", err)
	}

	return nil
}
