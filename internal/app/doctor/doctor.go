package doctor

import (
	"context"
	"errors"
	"fmt"

	"github.com/slok/plancoach/internal/log"
	"github.com/slok/plancoach/internal/model"
	"github.com/slok/plancoach/internal/storage"
)

// ServiceConfig is the configuration for the doctor service.
type ServiceConfig struct {
	Store storage.DocumentStore
	// ModelProvider is the name of the configured model provider.
	ModelProvider string
	// ModelCredentials is true when the provider has credentials configured.
	ModelCredentials bool
	Logger           log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Store == nil {
		return fmt.Errorf("document store is required")
	}

	if c.ModelProvider == "" {
		return fmt.Errorf("model provider is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Doctor"})

	return nil
}

// Service runs preflight checks.
type Service struct {
	store            storage.DocumentStore
	modelProvider    string
	modelCredentials bool
	logger           log.Logger
}

// NewService creates a new doctor service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		store:            cfg.Store,
		modelProvider:    cfg.ModelProvider,
		modelCredentials: cfg.ModelCredentials,
		logger:           cfg.Logger,
	}, nil
}

// Run returns the result of every check. Failing checks are results, not errors.
func (s *Service) Run(ctx context.Context) []model.CheckResult {
	results := []model.CheckResult{s.checkCredentials()}

	curriculum, err := s.store.GetDocument(ctx, storage.CurriculumPath)
	switch {
	case err == nil:
		results = append(results, model.CheckResult{
			ID:      "store_reachable",
			Message: "document store is reachable",
			Status:  model.CheckStatusOK,
		})
		results = append(results, checkCurriculum(curriculum))
	case errors.Is(err, model.ErrNotFound):
		results = append(results, model.CheckResult{
			ID:      "store_reachable",
			Message: "document store is reachable",
			Status:  model.CheckStatusOK,
		})
		results = append(results, model.CheckResult{
			ID:      "curriculum_present",
			Message: "no curriculum stored, use the seed command",
			Status:  model.CheckStatusWarning,
		})
	default:
		s.logger.Debugf("store check failed: %s", err)
		results = append(results, model.CheckResult{
			ID:      "store_reachable",
			Message: fmt.Sprintf("document store is not reachable: %s", err),
			Status:  model.CheckStatusError,
		})
	}

	return results
}

// checkCredentials only warns, the service starts without credentials and model
// calls fail.
func (s *Service) checkCredentials() model.CheckResult {
	if !s.modelCredentials {
		return model.CheckResult{
			ID:      "model_credentials",
			Message: fmt.Sprintf("%s API key is not set, model calls will fail", s.modelProvider),
			Status:  model.CheckStatusWarning,
		}
	}

	return model.CheckResult{
		ID:      "model_credentials",
		Message: fmt.Sprintf("%s API key is set", s.modelProvider),
		Status:  model.CheckStatusOK,
	}
}

func checkCurriculum(doc map[string]any) model.CheckResult {
	c := model.Curriculum{}
	if err := storage.DecodeDocument(doc, &c); err != nil {
		return model.CheckResult{
			ID:      "curriculum_present",
			Message: fmt.Sprintf("stored curriculum can't be decoded: %s", err),
			Status:  model.CheckStatusError,
		}
	}

	if len(c.Weeks()) == 0 {
		return model.CheckResult{
			ID:      "curriculum_present",
			Message: "stored curriculum has no weeks, use the seed command",
			Status:  model.CheckStatusWarning,
		}
	}

	if err := c.Validate(); err != nil {
		return model.CheckResult{
			ID:      "curriculum_present",
			Message: fmt.Sprintf("stored curriculum is not valid: %s", err),
			Status:  model.CheckStatusError,
		}
	}

	return model.CheckResult{
		ID:      "curriculum_present",
		Message: fmt.Sprintf("curriculum with %d weeks and %d tasks", len(c.Weeks()), c.TotalTasks()),
		Status:  model.CheckStatusOK,
	}
}
