package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cast"

	"github.com/slok/plancoach/internal/log"
	"github.com/slok/plancoach/internal/model"
)

// DocumentRepositoryConfig is the configuration of the DocumentRepository.
type DocumentRepositoryConfig struct {
	Store  DocumentStore
	Logger log.Logger
	// Now is the clock used for update timestamps.
	Now func() time.Time
}

func (c *DocumentRepositoryConfig) defaults() error {
	if c.Store == nil {
		return fmt.Errorf("document store is required")
	}

	if c.Now == nil {
		c.Now = time.Now
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.DocumentRepository"})

	return nil
}

// DocumentRepository implements the curriculum and progress repositories on top
// of a document store.
type DocumentRepository struct {
	store  DocumentStore
	now    func() time.Time
	logger log.Logger
}

// NewDocumentRepository returns a new DocumentRepository.
func NewDocumentRepository(cfg DocumentRepositoryConfig) (*DocumentRepository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &DocumentRepository{
		store:  cfg.Store,
		now:    cfg.Now,
		logger: cfg.Logger,
	}, nil
}

var (
	_ CurriculumRepository = &DocumentRepository{}
	_ ProgressRepository   = &DocumentRepository{}
)

// GetCurriculum satisfies CurriculumRepository.
func (r *DocumentRepository) GetCurriculum(ctx context.Context) (*model.Curriculum, error) {
	doc, err := r.store.GetDocument(ctx, CurriculumPath)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			r.logger.Debugf("No curriculum stored, using an empty one")
			return &model.Curriculum{Phases: []model.Phase{}}, nil
		}
		return nil, fmt.Errorf("could not get curriculum: %w", err)
	}

	c := model.Curriculum{}
	if err := DecodeDocument(doc, &c); err != nil {
		return nil, fmt.Errorf("could not decode curriculum: %w", err)
	}
	if c.Phases == nil {
		c.Phases = []model.Phase{}
	}

	return &c, nil
}

// SaveCurriculum satisfies CurriculumRepository.
func (r *DocumentRepository) SaveCurriculum(ctx context.Context, c model.Curriculum) error {
	if c.Phases == nil {
		c.Phases = []model.Phase{}
	}

	doc, err := EncodeDocument(c)
	if err != nil {
		return err
	}
	doc["lastUpdated"] = r.now().UTC().Format(time.RFC3339Nano)

	if err := r.store.SetDocument(ctx, CurriculumPath, doc); err != nil {
		return fmt.Errorf("could not save curriculum: %w", err)
	}

	return nil
}

// GetProgress satisfies ProgressRepository.
func (r *DocumentRepository) GetProgress(ctx context.Context, userID string) (*model.UserProgress, error) {
	doc, err := r.store.GetDocument(ctx, ProgressPath(userID))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return &model.UserProgress{TaskProgress: model.ProgressMap{}}, nil
		}
		return nil, fmt.Errorf("could not get progress: %w", err)
	}

	p := model.UserProgress{}
	if err := DecodeDocument(doc, &p); err != nil {
		return nil, fmt.Errorf("could not decode progress: %w", err)
	}
	if p.TaskProgress == nil {
		p.TaskProgress = model.ProgressMap{}
	}
	if v, ok := doc["updatedAt"]; ok {
		if t, err := cast.ToTimeE(v); err == nil {
			p.UpdatedAt = t
		}
	}

	return &p, nil
}

// SaveProgress satisfies ProgressRepository. The optional fields are only
// written when set, so stored values are kept otherwise.
func (r *DocumentRepository) SaveProgress(ctx context.Context, userID string, p model.UserProgress) error {
	taskProgress, err := EncodeDocument(p.TaskProgress.Clone())
	if err != nil {
		return err
	}

	doc := map[string]any{
		"taskProgress": taskProgress,
		"updatedAt":    r.now().UTC().Format(time.RFC3339Nano),
	}
	if p.HoursPerWeekTarget != nil {
		doc["hoursPerWeekTarget"] = *p.HoursPerWeekTarget
	}
	if p.FocusAreas != nil {
		doc["focusAreas"] = p.FocusAreas
	}

	if err := r.store.SetDocument(ctx, ProgressPath(userID), doc); err != nil {
		return fmt.Errorf("could not save progress: %w", err)
	}

	return nil
}
