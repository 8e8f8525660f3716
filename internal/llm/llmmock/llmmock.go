package llmmock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/slok/plancoach/internal/llm"
)

// Client is a testify mock of llm.Client.
type Client struct{ mock.Mock }

var _ llm.Client = &Client{}

func (m *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}
