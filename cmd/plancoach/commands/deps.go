package commands

import (
	"context"
	"fmt"

	"github.com/slok/plancoach/internal/app/applyops"
	"github.com/slok/plancoach/internal/app/coach"
	"github.com/slok/plancoach/internal/conversation"
	"github.com/slok/plancoach/internal/llm"
	"github.com/slok/plancoach/internal/llm/anthropic"
	"github.com/slok/plancoach/internal/llm/fake"
	"github.com/slok/plancoach/internal/llm/gemini"
	"github.com/slok/plancoach/internal/storage"
	"github.com/slok/plancoach/internal/storage/firestore"
	"github.com/slok/plancoach/internal/storage/memory"
	"github.com/slok/plancoach/internal/storage/sqlite"
)

// offlineReply is the answer of the fake provider.
const offlineReply = `{"message":"The coach is running offline, no model provider is configured.","operations":[]}`

// deps are the shared instances the commands are built from.
type deps struct {
	store        storage.DocumentStore
	repo         *storage.DocumentRepository
	conversation *conversation.Store
	close        func() error
}

func newDeps(ctx context.Context, root RootCommand) (*deps, error) {
	store, closeStore, err := newDocumentStore(ctx, root)
	if err != nil {
		return nil, err
	}

	repo, err := storage.NewDocumentRepository(storage.DocumentRepositoryConfig{Store: store, Logger: root.Logger})
	if err != nil {
		_ = closeStore()
		return nil, fmt.Errorf("could not create repository: %w", err)
	}

	convs, err := conversation.NewStore(conversation.StoreConfig{Documents: store, Logger: root.Logger})
	if err != nil {
		_ = closeStore()
		return nil, fmt.Errorf("could not create conversation store: %w", err)
	}

	return &deps{store: store, repo: repo, conversation: convs, close: closeStore}, nil
}

func newDocumentStore(ctx context.Context, root RootCommand) (storage.DocumentStore, func() error, error) {
	switch root.Store {
	case StoreMemory:
		s, err := memory.NewDocumentStore(memory.DocumentStoreConfig{Logger: root.Logger})
		if err != nil {
			return nil, nil, fmt.Errorf("could not create memory store: %w", err)
		}
		return s, func() error { return nil }, nil
	case StoreFirestore:
		s, err := firestore.NewDocumentStore(ctx, firestore.DocumentStoreConfig{ProjectID: root.FirestoreProject, Logger: root.Logger})
		if err != nil {
			return nil, nil, fmt.Errorf("could not create firestore store: %w", err)
		}
		return s, s.Close, nil
	default:
		s, err := sqlite.NewDocumentStore(ctx, sqlite.DocumentStoreConfig{DBPath: root.DBPath, Logger: root.Logger})
		if err != nil {
			return nil, nil, fmt.Errorf("could not create sqlite store: %w", err)
		}
		return s, s.Close, nil
	}
}

// newModel returns the configured model client and if it has credentials.
func newModel(ctx context.Context, root RootCommand) (llm.Client, bool, error) {
	switch root.Provider {
	case ProviderFake:
		return fake.NewClient(offlineReply), true, nil
	case ProviderGemini:
		c, err := gemini.NewClient(ctx, gemini.ClientConfig{APIKey: root.GeminiAPIKey, Model: root.GeminiModel, Logger: root.Logger})
		if err != nil {
			return nil, false, fmt.Errorf("could not create gemini client: %w", err)
		}
		return c, root.GeminiAPIKey != "", nil
	default:
		c, err := anthropic.NewClient(anthropic.ClientConfig{APIKey: root.AnthropicAPIKey, Model: root.AnthropicModel, Logger: root.Logger})
		if err != nil {
			return nil, false, fmt.Errorf("could not create anthropic client: %w", err)
		}
		return c, root.AnthropicAPIKey != "", nil
	}
}

func newApplyOpsService(root RootCommand, d *deps) (*applyops.Service, error) {
	svc, err := applyops.NewService(applyops.ServiceConfig{Curriculum: d.repo, Progress: d.repo, Logger: root.Logger})
	if err != nil {
		return nil, fmt.Errorf("could not create apply service: %w", err)
	}
	return svc, nil
}

func newCoachService(ctx context.Context, root RootCommand, d *deps, autoApply bool) (*coach.Service, error) {
	m, _, err := newModel(ctx, root)
	if err != nil {
		return nil, err
	}

	applySvc, err := newApplyOpsService(root, d)
	if err != nil {
		return nil, err
	}

	svc, err := coach.NewService(coach.ServiceConfig{
		Curriculum:   d.repo,
		Progress:     d.repo,
		Conversation: d.conversation,
		Model:        m,
		ApplyOps:     applySvc,
		AutoApply:    autoApply,
		ModelTimeout: root.ModelTimeout,
		Logger:       root.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create coach service: %w", err)
	}

	return svc, nil
}
