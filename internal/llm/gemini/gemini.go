package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/slok/plancoach/internal/llm"
	"github.com/slok/plancoach/internal/log"
	"github.com/slok/plancoach/internal/model"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-2.0-flash"

// ErrMissingAPIKey is returned on calls made without credentials.
var ErrMissingAPIKey = errors.New("gemini api key is not set")

// ClientConfig is the configuration of the Gemini client.
type ClientConfig struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint.
	BaseURL string
	Logger  log.Logger
}

func (c *ClientConfig) defaults() error {
	if c.Model == "" {
		c.Model = DefaultModel
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "llm.Gemini"})

	return nil
}

// Client is an llm.Client backed by the Gemini API.
type Client struct {
	sdk    *genai.Client
	model  string
	logger log.Logger
}

var _ llm.Client = &Client{}

// NewClient returns a new Gemini client. A missing API key is not an error,
// calls will fail until one is configured.
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	c := &Client{
		model:  cfg.Model,
		logger: cfg.Logger,
	}

	if cfg.APIKey == "" {
		cfg.Logger.Warningf("Gemini API key is not set, model calls will fail")
		return c, nil
	}

	sdk, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("could not create gemini client: %w", err)
	}
	c.sdk = sdk

	return c, nil
}

// Complete satisfies llm.Client.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	if c.sdk == nil {
		return "", ErrMissingAPIKey
	}

	req = req.Defaults()
	resp, err := c.sdk.Models.GenerateContent(ctx, c.model, contents(req.Turns), config(req))
	if err != nil {
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}

	return firstText(resp), nil
}

// firstText returns the first non empty text part of the first candidate.
func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil && p.Text != "" && !p.Thought {
			return p.Text
		}
	}

	return ""
}

func config(req llm.Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	return cfg
}

func contents(turns []llm.Turn) []*genai.Content {
	cs := []*genai.Content{}
	for _, t := range llm.NormalizeTurns(turns) {
		role := genai.Role(genai.RoleUser)
		if t.Role == model.RoleAssistant {
			role = genai.RoleModel
		}
		cs = append(cs, genai.NewContentFromText(t.Content, role))
	}
	return cs
}
