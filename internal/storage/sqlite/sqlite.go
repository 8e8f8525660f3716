package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/slok/plancoach/internal/log"
	"github.com/slok/plancoach/internal/model"
	"github.com/slok/plancoach/internal/storage"
	"github.com/slok/plancoach/internal/storage/sqlite/migrations"
)

// DocumentStoreConfig is the configuration for the SQLite document store.
type DocumentStoreConfig struct {
	DBPath string
	Logger log.Logger
	Now    func() time.Time
}

func (c *DocumentStoreConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// DocumentStore is a SQLite implementation of storage.DocumentStore. Documents
// are stored as JSON text, one row per path.
type DocumentStore struct {
	db     *sql.DB
	now    func() time.Time
	logger log.Logger
}

var _ storage.DocumentStore = &DocumentStore{}

// NewDocumentStore creates a new SQLite document store and runs the pending migrations.
func NewDocumentStore(ctx context.Context, cfg DocumentStoreConfig) (*DocumentStore, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	migrator, err := migrations.NewMigrator(migrations.MigratorConfig{DB: db, Logger: cfg.Logger})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	if _, err := migrator.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite document store initialized at %s", cfg.DBPath)

	return &DocumentStore{db: db, now: cfg.Now, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (s *DocumentStore) Close() error { return s.db.Close() }

// Ping checks the database is reachable.
func (s *DocumentStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// GetDocument retrieves a document by path.
func (s *DocumentStore) GetDocument(ctx context.Context, path string) (map[string]any, error) {
	doc, err := getDocument(ctx, s.db, path)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("document %s: %w", path, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query document: %w", err)
	}

	return doc, nil
}

// SetDocument merges data into a document in a single transaction.
func (s *DocumentStore) SetDocument(ctx context.Context, path string, data map[string]any) error {
	collection, _, ok := strings.Cut(path, "/")
	if !ok || collection == "" {
		return fmt.Errorf("invalid document path %q: %w", path, model.ErrNotValid)
	}

	doc, err := storage.EncodeDocument(data)
	if err != nil {
		return fmt.Errorf("invalid document %s: %w", path, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := getDocument(ctx, tx, path)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("could not query document: %w", err)
	}

	merged, err := json.Marshal(storage.MergeDocument(current, doc))
	if err != nil {
		return fmt.Errorf("could not marshal document: %w", err)
	}

	query := `
		INSERT INTO documents (path, collection, data, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`
	_, err = tx.ExecContext(ctx, query, path, collection, string(merged), s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("could not upsert document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	s.logger.Debugf("Set document in repository: %s", path)
	return nil
}

// DeleteDocument deletes a document.
func (s *DocumentStore) DeleteDocument(ctx context.Context, path string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("could not delete document: %w", err)
	}

	s.logger.Debugf("Deleted document from repository: %s", path)
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getDocument(ctx context.Context, q queryer, path string) (map[string]any, error) {
	var data string
	err := q.QueryRowContext(ctx, `SELECT data FROM documents WHERE path = ?`, path).Scan(&data)
	if err != nil {
		return nil, err
	}

	doc := map[string]any{}
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("could not unmarshal document %s: %w", path, err)
	}

	return doc, nil
}
