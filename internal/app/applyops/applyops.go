package applyops

import (
	"context"
	"fmt"

	"github.com/slok/plancoach/internal/apply"
	"github.com/slok/plancoach/internal/log"
	"github.com/slok/plancoach/internal/model"
	"github.com/slok/plancoach/internal/storage"
)

// ServiceConfig is the configuration for the apply operations service.
type ServiceConfig struct {
	Curriculum storage.CurriculumRepository
	Progress   storage.ProgressRepository
	Applier    *apply.Applier
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Curriculum == nil {
		return fmt.Errorf("curriculum repository is required")
	}

	if c.Progress == nil {
		return fmt.Errorf("progress repository is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.ApplyOps"})

	if c.Applier == nil {
		a, err := apply.NewApplier(apply.ApplierConfig{Logger: c.Logger})
		if err != nil {
			return fmt.Errorf("could not create applier: %w", err)
		}
		c.Applier = a
	}

	return nil
}

// Service applies confirmed operations to the stored curriculum and progress.
type Service struct {
	curriculum storage.CurriculumRepository
	progress   storage.ProgressRepository
	applier    *apply.Applier
	logger     log.Logger
}

// NewService creates a new apply operations service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		curriculum: cfg.Curriculum,
		progress:   cfg.Progress,
		applier:    cfg.Applier,
		logger:     cfg.Logger,
	}, nil
}

// Request represents the apply operations request parameters.
type Request struct {
	UserID     string
	Operations []model.Operation
}

// Run loads the curriculum and the user progress, applies the operations and
// stores the documents that changed.
func (s *Service) Run(ctx context.Context, req Request) (*apply.Result, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("user id is required: %w", model.ErrNotValid)
	}

	curriculum, err := s.curriculum.GetCurriculum(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not get curriculum: %w", err)
	}

	progress, err := s.progress.GetProgress(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("could not get progress: %w", err)
	}

	res := s.applier.Apply(req.Operations, *curriculum, progress.TaskProgress)
	s.logger.Infof("%d operations applied, %d skipped", len(res.Applied), len(res.Skipped))

	curriculumChanged, progressChanged := changes(res.Applied)

	if curriculumChanged {
		if err := s.curriculum.SaveCurriculum(ctx, res.Curriculum); err != nil {
			return nil, fmt.Errorf("could not save curriculum: %w", err)
		}
	}

	if progressChanged {
		if err := s.progress.SaveProgress(ctx, req.UserID, model.UserProgress{TaskProgress: res.Progress}); err != nil {
			return nil, fmt.Errorf("could not save progress: %w", err)
		}
	}

	return &res, nil
}

func changes(applied []model.Operation) (curriculum, progress bool) {
	for _, op := range applied {
		if op.Type == model.OperationUpdateStatus {
			progress = true
			continue
		}
		curriculum = true
	}
	return curriculum, progress
}
