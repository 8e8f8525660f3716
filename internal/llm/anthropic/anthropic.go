package anthropic

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/slok/plancoach/internal/llm"
	"github.com/slok/plancoach/internal/log"
	"github.com/slok/plancoach/internal/model"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "claude-3-haiku-20240307"

// ErrMissingAPIKey is returned on calls made without credentials.
var ErrMissingAPIKey = errors.New("anthropic api key is not set")

// ClientConfig is the configuration of the Anthropic client.
type ClientConfig struct {
	APIKey string
	Model  string
	// Options are extra SDK request options (base URL, HTTP client...).
	Options []option.RequestOption
	Logger  log.Logger
}

func (c *ClientConfig) defaults() error {
	if c.Model == "" {
		c.Model = DefaultModel
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "llm.Anthropic"})

	return nil
}

// Client is an llm.Client backed by the Anthropic Messages API.
type Client struct {
	sdk       anthropic.Client
	model     anthropic.Model
	hasAPIKey bool
	logger    log.Logger
}

var _ llm.Client = &Client{}

// NewClient returns a new Anthropic client. A missing API key is not an error,
// calls will fail until one is configured.
func NewClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	opts := append([]option.RequestOption{}, cfg.Options...)
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	} else {
		cfg.Logger.Warningf("Anthropic API key is not set, model calls will fail")
	}

	return &Client{
		sdk:       anthropic.NewClient(opts...),
		model:     anthropic.Model(cfg.Model),
		hasAPIKey: cfg.APIKey != "",
		logger:    cfg.Logger,
	}, nil
}

// Complete satisfies llm.Client. The text of the first text block is returned.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	if !c.hasAPIKey {
		return "", ErrMissingAPIKey
	}

	req = req.Defaults()
	resp, err := c.sdk.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       c.model,
		MaxTokens:   int64(req.MaxTokens),
		Temperature: anthropic.Float(req.Temperature),
		System: []anthropic.TextBlockParam{
			{Text: req.System},
		},
		Messages: messages(req.Turns),
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call failed: %w", err)
	}

	c.logger.Debugf("Model call used %d input and %d output tokens", resp.Usage.InputTokens, resp.Usage.OutputTokens)

	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			return variant.Text, nil
		}
	}

	return "", nil
}

func messages(turns []llm.Turn) []anthropic.MessageParam {
	msgs := []anthropic.MessageParam{}
	for _, t := range llm.NormalizeTurns(turns) {
		block := anthropic.NewTextBlock(t.Content)
		if t.Role == model.RoleAssistant {
			msgs = append(msgs, anthropic.NewAssistantMessage(block))
			continue
		}
		msgs = append(msgs, anthropic.NewUserMessage(block))
	}
	return msgs
}
