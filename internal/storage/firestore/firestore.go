package firestore

import (
	"context"
	"fmt"
	"strings"

	gcfirestore "cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/slok/plancoach/internal/log"
	"github.com/slok/plancoach/internal/model"
	"github.com/slok/plancoach/internal/storage"
)

// DocumentStoreConfig is the configuration for the Firestore document store.
type DocumentStoreConfig struct {
	// Client is used when set, otherwise a client for ProjectID is created.
	Client    *gcfirestore.Client
	ProjectID string
	Logger    log.Logger
}

func (c *DocumentStoreConfig) defaults() error {
	if c.Client == nil && c.ProjectID == "" {
		return fmt.Errorf("firestore client or project id is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Firestore"})
	return nil
}

// DocumentStore is a Cloud Firestore implementation of storage.DocumentStore.
// Paths map directly to Firestore document paths.
type DocumentStore struct {
	client *gcfirestore.Client
	owned  bool
	logger log.Logger
}

var _ storage.DocumentStore = &DocumentStore{}

// NewDocumentStore creates a new Firestore document store.
func NewDocumentStore(ctx context.Context, cfg DocumentStoreConfig) (*DocumentStore, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	client, owned := cfg.Client, false
	if client == nil {
		c, err := gcfirestore.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("could not create firestore client: %w", err)
		}
		client, owned = c, true
	}

	return &DocumentStore{client: client, owned: owned, logger: cfg.Logger}, nil
}

// Close closes the Firestore client when it was created by the store.
func (s *DocumentStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}

// GetDocument retrieves a document by path.
func (s *DocumentStore) GetDocument(ctx context.Context, path string) (map[string]any, error) {
	ref, err := s.doc(path)
	if err != nil {
		return nil, err
	}

	snap, err := ref.Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("document %s: %w", path, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not get document: %w", err)
	}
	if !snap.Exists() {
		return nil, fmt.Errorf("document %s: %w", path, model.ErrNotFound)
	}

	// Firestore native values (timestamps, int64...) are returned as JSON types.
	return storage.EncodeDocument(snap.Data())
}

// SetDocument merges data into a document.
func (s *DocumentStore) SetDocument(ctx context.Context, path string, data map[string]any) error {
	ref, err := s.doc(path)
	if err != nil {
		return err
	}

	if _, err := ref.Set(ctx, data, gcfirestore.MergeAll); err != nil {
		return fmt.Errorf("could not set document: %w", err)
	}

	s.logger.Debugf("Set document in firestore: %s", path)
	return nil
}

// DeleteDocument deletes a document.
func (s *DocumentStore) DeleteDocument(ctx context.Context, path string) error {
	ref, err := s.doc(path)
	if err != nil {
		return err
	}

	if _, err := ref.Delete(ctx); err != nil && !isNotFound(err) {
		return fmt.Errorf("could not delete document: %w", err)
	}

	s.logger.Debugf("Deleted document from firestore: %s", path)
	return nil
}

func (s *DocumentStore) doc(path string) (*gcfirestore.DocumentRef, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	return s.client.Doc(path), nil
}

// ValidatePath checks path is a Firestore document path, an even number of non
// empty segments.
func ValidatePath(path string) error {
	parts := strings.Split(path, "/")
	if len(parts)%2 != 0 {
		return fmt.Errorf("%q is not a document path: %w", path, model.ErrNotValid)
	}
	for _, p := range parts {
		if p == "" {
			return fmt.Errorf("%q has empty segments: %w", path, model.ErrNotValid)
		}
	}
	return nil
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}
