package fake

import (
	"context"
	"errors"
	"sync"

	"github.com/slok/plancoach/internal/llm"
)

// ErrNoReplies is returned when the scripted replies are exhausted.
var ErrNoReplies = errors.New("fake model has no more replies")

// Client is a scripted llm.Client that returns its replies in order and
// records every request. When a single reply is configured it is repeated.
type Client struct {
	mu       sync.Mutex
	replies  []string
	requests []llm.Request
}

var _ llm.Client = &Client{}

// NewClient returns a new fake client.
func NewClient(replies ...string) *Client {
	return &Client{replies: replies}
}

func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.requests = append(c.requests, req)

	switch len(c.replies) {
	case 0:
		return "", ErrNoReplies
	case 1:
		return c.replies[0], nil
	}

	reply := c.replies[0]
	c.replies = c.replies[1:]
	return reply, nil
}

// Requests returns the received requests.
func (c *Client) Requests() []llm.Request {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]llm.Request{}, c.requests...)
}
