package storagemock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/slok/plancoach/internal/model"
	"github.com/slok/plancoach/internal/storage"
)

// DocumentStore is a testify mock of storage.DocumentStore.
type DocumentStore struct{ mock.Mock }

var _ storage.DocumentStore = &DocumentStore{}

func (m *DocumentStore) GetDocument(ctx context.Context, path string) (map[string]any, error) {
	args := m.Called(ctx, path)
	doc, _ := args.Get(0).(map[string]any)
	return doc, args.Error(1)
}

func (m *DocumentStore) SetDocument(ctx context.Context, path string, data map[string]any) error {
	return m.Called(ctx, path, data).Error(0)
}

func (m *DocumentStore) DeleteDocument(ctx context.Context, path string) error {
	return m.Called(ctx, path).Error(0)
}

// CurriculumRepository is a testify mock of storage.CurriculumRepository.
type CurriculumRepository struct{ mock.Mock }

var _ storage.CurriculumRepository = &CurriculumRepository{}

func (m *CurriculumRepository) GetCurriculum(ctx context.Context) (*model.Curriculum, error) {
	args := m.Called(ctx)
	c, _ := args.Get(0).(*model.Curriculum)
	return c, args.Error(1)
}

func (m *CurriculumRepository) SaveCurriculum(ctx context.Context, c model.Curriculum) error {
	return m.Called(ctx, c).Error(0)
}

// ProgressRepository is a testify mock of storage.ProgressRepository.
type ProgressRepository struct{ mock.Mock }

var _ storage.ProgressRepository = &ProgressRepository{}

func (m *ProgressRepository) GetProgress(ctx context.Context, userID string) (*model.UserProgress, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).(*model.UserProgress)
	return p, args.Error(1)
}

func (m *ProgressRepository) SaveProgress(ctx context.Context, userID string, p model.UserProgress) error {
	return m.Called(ctx, userID, p).Error(0)
}

// ConversationRepository is a testify mock of storage.ConversationRepository.
type ConversationRepository struct{ mock.Mock }

var _ storage.ConversationRepository = &ConversationRepository{}

func (m *ConversationRepository) LoadConversation(ctx context.Context, userID string) ([]model.Message, error) {
	args := m.Called(ctx, userID)
	msgs, _ := args.Get(0).([]model.Message)
	return msgs, args.Error(1)
}

func (m *ConversationRepository) SaveConversation(ctx context.Context, userID string, msgs []model.Message) error {
	return m.Called(ctx, userID, msgs).Error(0)
}

func (m *ConversationRepository) ClearConversation(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}
