package plancoach

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/slok/plancoach/test/integration/testutils"
)

// Config holds integration test configuration loaded from environment variables.
type Config struct {
	Binary string
	// AnthropicAPIKey enables the tests that talk with the real model.
	AnthropicAPIKey string
}

func (c *Config) defaults() error {
	if c.Binary == "" {
		return fmt.Errorf("PLANCOACH_INTEGRATION_BINARY is required")
	}

	// go test changes the CWD to the package directory.
	if !filepath.IsAbs(c.Binary) {
		return fmt.Errorf("PLANCOACH_INTEGRATION_BINARY must be an absolute path, got %q", c.Binary)
	}
	if _, err := os.Stat(c.Binary); err != nil {
		return fmt.Errorf("plancoach binary not found at %q: %w", c.Binary, err)
	}

	return nil
}

// NewConfig loads integration test configuration from environment variables.
// If the config is invalid or the activation env var is not set, the test is skipped.
func NewConfig(t *testing.T) Config {
	t.Helper()

	const (
		envActivation = "PLANCOACH_INTEGRATION"
		envBinary     = "PLANCOACH_INTEGRATION_BINARY"
	)

	if os.Getenv(envActivation) != "true" {
		t.Skipf("Skipping integration test: %s is not set to 'true'", envActivation)
	}

	c := Config{
		Binary:          os.Getenv(envBinary),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
	}

	if err := c.defaults(); err != nil {
		t.Skipf("Skipping due to invalid config: %s", err)
	}

	return c
}

// RunCmd runs a plancoach command against a specific db path and user.
func RunCmd(ctx context.Context, config Config, dbPath, provider, cmdArgs, stdin string) (stdout, stderr []byte, err error) {
	args := fmt.Sprintf("--db-path %s --provider %s --user integration %s", dbPath, provider, cmdArgs)
	return testutils.RunPlancoach(ctx, nil, config.Binary, args, stdin)
}

// RunChat sends a message to the coach, the message may contain spaces.
func RunChat(ctx context.Context, config Config, dbPath, provider, message string) (stdout, stderr []byte, err error) {
	args := []string{"--db-path", dbPath, "--provider", provider, "--user", "integration", "chat", "--format", "json", message}
	return testutils.RunPlancoachArgs(ctx, nil, config.Binary, args, "")
}
