package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/slok/plancoach/internal/log"
	"github.com/slok/plancoach/internal/model"
	"github.com/slok/plancoach/internal/storage"
)

// DocumentStoreConfig is the configuration for the memory document store.
type DocumentStoreConfig struct {
	Logger log.Logger
}

func (c *DocumentStoreConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// DocumentStore is an in-memory implementation of storage.DocumentStore.
type DocumentStore struct {
	docs   map[string]map[string]any
	mu     sync.RWMutex
	logger log.Logger
}

var _ storage.DocumentStore = &DocumentStore{}

// NewDocumentStore creates a new memory document store.
func NewDocumentStore(cfg DocumentStoreConfig) (*DocumentStore, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &DocumentStore{
		docs:   make(map[string]map[string]any),
		logger: cfg.Logger,
	}, nil
}

// GetDocument retrieves a document by path.
func (s *DocumentStore) GetDocument(ctx context.Context, path string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[path]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", path, model.ErrNotFound)
	}

	// Return a copy.
	return storage.EncodeDocument(doc)
}

// SetDocument merges data into a document.
func (s *DocumentStore) SetDocument(ctx context.Context, path string, data map[string]any) error {
	doc, err := storage.EncodeDocument(data)
	if err != nil {
		return fmt.Errorf("invalid document %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs[path] = storage.MergeDocument(s.docs[path], doc)
	s.logger.Debugf("Set document in memory: %s", path)

	return nil
}

// DeleteDocument deletes a document.
func (s *DocumentStore) DeleteDocument(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.docs, path)
	s.logger.Debugf("Deleted document from memory: %s", path)

	return nil
}
