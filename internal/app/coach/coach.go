package coach

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/slok/plancoach/internal/app/applyops"
	"github.com/slok/plancoach/internal/apply"
	"github.com/slok/plancoach/internal/confirm"
	"github.com/slok/plancoach/internal/conversation"
	"github.com/slok/plancoach/internal/llm"
	"github.com/slok/plancoach/internal/log"
	"github.com/slok/plancoach/internal/model"
	"github.com/slok/plancoach/internal/prompt"
	"github.com/slok/plancoach/internal/response"
	"github.com/slok/plancoach/internal/storage"
)

// ServiceConfig is the configuration for the coach service.
type ServiceConfig struct {
	Curriculum   storage.CurriculumRepository
	Progress     storage.ProgressRepository
	Conversation storage.ConversationRepository
	Model        llm.Client
	Prompt       *prompt.Builder
	Machine      *confirm.Machine
	// ApplyOps is required when AutoApply is enabled.
	ApplyOps  *applyops.Service
	AutoApply bool
	// ModelTimeout is the deadline of the model call, 0 means no deadline.
	ModelTimeout time.Duration
	// PromptWindow is the number of stored messages sent to the model.
	PromptWindow int
	Now          func() time.Time
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

	if c.Model == nil {
		return fmt.Errorf("model client is required")
	}

	if c.AutoApply && c.ApplyOps == nil {
		return fmt.Errorf("apply operations service is required with auto apply")
	}

	if c.ModelTimeout < 0 {
		return fmt.Errorf("model timeout can't be negative")
	}

	if c.PromptWindow < 0 {
		return fmt.Errorf("prompt window can't be negative")
	}
	if c.PromptWindow == 0 {
		c.PromptWindow = conversation.DefaultPromptWindow
	}

	if c.Now == nil {
		c.Now = time.Now
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Coach"})

	if c.Prompt == nil {
		b, err := prompt.NewBuilder(prompt.BuilderConfig{})
		if err != nil {
			return fmt.Errorf("could not create prompt builder: %w", err)
		}
		c.Prompt = b
	}

	if c.Machine == nil {
		m, err := confirm.NewMachine(confirm.MachineConfig{Logger: c.Logger})
		if err != nil {
			return fmt.Errorf("could not create confirmation machine: %w", err)
		}
		c.Machine = m
	}

	return nil
}

// Service runs a single coach conversation turn.
type Service struct {
	curriculum   storage.CurriculumRepository
	progress     storage.ProgressRepository
	conversation storage.ConversationRepository
	model        llm.Client
	prompt       *prompt.Builder
	machine      *confirm.Machine
	applyOps     *applyops.Service
	autoApply    bool
	modelTimeout time.Duration
	promptWindow int
	now          func() time.Time
	logger       log.Logger
}

// NewService creates a new coach service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		curriculum:   cfg.Curriculum,
		progress:     cfg.Progress,
		conversation: cfg.Conversation,
		model:        cfg.Model,
		prompt:       cfg.Prompt,
		machine:      cfg.Machine,
		applyOps:     cfg.ApplyOps,
		autoApply:    cfg.AutoApply,
		modelTimeout: cfg.ModelTimeout,
		promptWindow: cfg.PromptWindow,
		now:          cfg.Now,
		logger:       cfg.Logger,
	}, nil
}

// Request represents the coach request parameters.
type Request struct {
	// UserID is the caller identity, model.DefaultUserID when empty.
	UserID  string
	Message string
}

// Response is the result of a coach turn.
type Response struct {
	model.AgentResponse
	// Source is where the operations of a confirmed turn came from.
	Source confirm.PlanSource
	// Applied is set when the operations were applied in the same turn.
	Applied *apply.Result
}

type state struct {
	curriculum *model.Curriculum
	progress   *model.UserProgress
	history    []model.Message
}

// Run answers a user message: it asks the model with the curriculum, progress and
// recent conversation as context, resolves the propose/confirm protocol and
// stores both turns.
func (s *Service) Run(ctx context.Context, req Request) (*Response, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return nil, fmt.Errorf("message is required: %w", model.ErrNotValid)
	}

	userID := req.UserID
	if userID == "" {
		userID = model.DefaultUserID
	}
	ctx = s.logger.SetValuesOnCtx(ctx, log.Kv{"user": userID})
	logger := s.logger.WithCtxValues(ctx)

	userAt := s.now()

	st, err := s.fetch(ctx, userID)
	if err != nil {
		return nil, err
	}

	recent := conversation.Trim(st.history, s.promptWindow)
	system, err := s.prompt.Build(*st.curriculum, *st.progress, recent)
	if err != nil {
		return nil, fmt.Errorf("could not build prompt: %w", err)
	}

	turns := append(llm.TurnsFromMessages(recent), llm.Turn{Role: model.RoleUser, Content: msg})
	raw, err := s.complete(ctx, llm.Request{System: system, Turns: turns})
	if err != nil {
		return nil, fmt.Errorf("could not get model response: %w", err)
	}

	parsed, source := response.ParseWithSource(raw)
	logger.Debugf("Model response parsed from %s", source)

	decision := s.machine.Resolve(confirm.Input{
		UserMessage: msg,
		Response:    parsed,
		History:     st.history,
		DefaultWeek: st.curriculum.CurrentWeek(st.progress.TaskProgress.Completed()),
	})
	resp := decision.Response
	logger.Infof("Turn resolved as %s with %d operations", resp.Kind, len(resp.Operations))

	history := append(st.history,
		model.Message{Role: model.RoleUser, Content: msg, CreatedAt: userAt},
		model.Message{
			Role:       model.RoleAssistant,
			Content:    resp.Message,
			CreatedAt:  s.now(),
			Operations: resp.Operations,
			WeeklyPlan: resp.WeeklyPlan,
			Kind:       resp.Kind,
		},
	)
	if err := s.conversation.SaveConversation(ctx, userID, history); err != nil {
		return nil, fmt.Errorf("could not save conversation: %w", err)
	}

	res := &Response{AgentResponse: resp, Source: decision.Source}
	if s.autoApply && len(resp.Operations) > 0 {
		applied, err := s.applyOps.Run(ctx, applyops.Request{UserID: userID, Operations: resp.Operations})
		if err != nil {
			return nil, fmt.Errorf("could not apply operations: %w", err)
		}
		res.Applied = applied
	}

	return res, nil
}

// fetch reads the curriculum, the progress and the conversation concurrently.
func (s *Service) fetch(ctx context.Context, userID string) (*state, error) {
	st := &state{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		c, err := s.curriculum.GetCurriculum(gctx)
		if err != nil {
			return fmt.Errorf("could not get curriculum: %w", err)
		}
		st.curriculum = c
		return nil
	})

	g.Go(func() error {
		p, err := s.progress.GetProgress(gctx, userID)
		if err != nil {
			return fmt.Errorf("could not get progress: %w", err)
		}
		st.progress = p
		return nil
	})

	g.Go(func() error {
		h, err := s.conversation.LoadConversation(gctx, userID)
		if err != nil {
			return fmt.Errorf("could not load conversation: %w", err)
		}
		st.history = h
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return st, nil
}

func (s *Service) complete(ctx context.Context, req llm.Request) (string, error) {
	if s.modelTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.modelTimeout)
		defer cancel()
	}

	return s.model.Complete(ctx, req)
}
