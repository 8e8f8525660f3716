package seed

import (
	"context"
	"fmt"

	"github.com/slok/plancoach/internal/log"
	"github.com/slok/plancoach/internal/model"
	"github.com/slok/plancoach/internal/storage"
)

// CurriculumLoader loads a curriculum from a source path.
type CurriculumLoader interface {
	GetCurriculum(ctx context.Context, path string) (model.Curriculum, error)
}

// ServiceConfig is the configuration for the seed service.
type ServiceConfig struct {
	Loader     CurriculumLoader
	Curriculum storage.CurriculumRepository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Loader == nil {
		return fmt.Errorf("curriculum loader is required")
	}

	if c.Curriculum == nil {
		return fmt.Errorf("curriculum repository is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Seed"})

	return nil
}

// Service imports a curriculum into the store.
type Service struct {
	loader     CurriculumLoader
	curriculum storage.CurriculumRepository
	logger     log.Logger
}

// NewService creates a new seed service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		loader:     cfg.Loader,
		curriculum: cfg.Curriculum,
		logger:     cfg.Logger,
	}, nil
}

// Request represents the seed request parameters.
type Request struct {
	Path string
	// Force replaces a stored curriculum that already has weeks.
	Force bool
}

// Run loads the curriculum file and stores it.
func (s *Service) Run(ctx context.Context, req Request) (*model.Curriculum, error) {
	if req.Path == "" {
		return nil, fmt.Errorf("curriculum path is required: %w", model.ErrNotValid)
	}

	c, err := s.loader.GetCurriculum(ctx, req.Path)
	if err != nil {
		return nil, fmt.Errorf("could not load curriculum: %w", err)
	}

	if !req.Force {
		current, err := s.curriculum.GetCurriculum(ctx)
		if err != nil {
			return nil, fmt.Errorf("could not get current curriculum: %w", err)
		}
		if len(current.Weeks()) > 0 {
			return nil, fmt.Errorf("a curriculum is already stored: %w", model.ErrAlreadyExists)
		}
	}

	if err := s.curriculum.SaveCurriculum(ctx, c); err != nil {
		return nil, fmt.Errorf("could not save curriculum: %w", err)
	}
	s.logger.Infof("Curriculum with %d weeks and %d tasks stored", len(c.Weeks()), c.TotalTasks())

	return &c, nil
}
