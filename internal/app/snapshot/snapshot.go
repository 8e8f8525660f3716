package snapshot

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/slok/plancoach/internal/log"
	"github.com/slok/plancoach/internal/model"
	"github.com/slok/plancoach/internal/storage"
)

// ServiceConfig is the configuration for the snapshot service.
type ServiceConfig struct {
	Curriculum   storage.CurriculumRepository
	Progress     storage.ProgressRepository
	Conversation storage.ConversationRepository
	Logger       log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Curriculum == nil {
		return fmt.Errorf("curriculum repository is required")
	}

	if c.Progress == nil {
		return fmt.Errorf("progress repository is required")
	}

	if c.Conversation == nil {
		return fmt.Errorf("conversation repository is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Snapshot"})

	return nil
}

// Service summarizes the progress of a user.
type Service struct {
	curriculum   storage.CurriculumRepository
	progress     storage.ProgressRepository
	conversation storage.ConversationRepository
	logger       log.Logger
}

// NewService creates a new snapshot service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		curriculum:   cfg.Curriculum,
		progress:     cfg.Progress,
		conversation: cfg.Conversation,
		logger:       cfg.Logger,
	}, nil
}

// Request represents the snapshot request parameters.
type Request struct {
	UserID string
}

// Snapshot is the progress summary of a user.
type Snapshot struct {
	CurrentWeek        int
	TotalWeeks         int
	CompletedTasks     int
	TotalTasks         int
	HoursPerWeekTarget *float64
	// WeeklyPlanMinutes is the estimate of the latest proposed plan that has one.
	WeeklyPlanMinutes *int
}

// Run returns the snapshot of a user.
func (s *Service) Run(ctx context.Context, req Request) (*Snapshot, error) {
	userID := req.UserID
	if userID == "" {
		userID = model.DefaultUserID
	}

	var (
		curriculum *model.Curriculum
		progress   *model.UserProgress
		msgs       []model.Message
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		curriculum, err = s.curriculum.GetCurriculum(gctx)
		if err != nil {
			return fmt.Errorf("could not get curriculum: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		progress, err = s.progress.GetProgress(gctx, userID)
		if err != nil {
			return fmt.Errorf("could not get progress: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		msgs, err = s.conversation.LoadConversation(gctx, userID)
		if err != nil {
			return fmt.Errorf("could not load conversation: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return New(*curriculum, *progress, msgs), nil
}

// New computes a snapshot. msgs are in ascending time order.
func New(curriculum model.Curriculum, progress model.UserProgress, msgs []model.Message) *Snapshot {
	completed := progress.TaskProgress.Completed()

	snap := &Snapshot{
		CurrentWeek: curriculum.CurrentWeek(completed),
		TotalWeeks:  len(curriculum.Weeks()),
		TotalTasks:  curriculum.TotalTasks(),
	}
	for _, w := range curriculum.Weeks() {
		for _, t := range w.Tasks {
			if completed[t.ID] {
				snap.CompletedTasks++
			}
		}
	}
	if progress.HoursPerWeekTarget != nil {
		v := *progress.HoursPerWeekTarget
		snap.HoursPerWeekTarget = &v
	}
	for i := len(msgs) - 1; i >= 0; i-- {
		if p := msgs[i].WeeklyPlan; p != nil && p.EstimatedMinutes != nil {
			v := *p.EstimatedMinutes
			snap.WeeklyPlanMinutes = &v
			break
		}
	}

	return snap
}
