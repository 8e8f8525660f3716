package commands

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"k8s.io/client-go/util/homedir"

	"github.com/slok/plancoach/internal/llm/anthropic"
	"github.com/slok/plancoach/internal/llm/gemini"
	"github.com/slok/plancoach/internal/log"
	"github.com/slok/plancoach/internal/model"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"
)

// Store types.
const (
	StoreSQLite    = "sqlite"
	StoreMemory    = "memory"
	StoreFirestore = "firestore"
)

// Model providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderFake      = "fake"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug      bool
	NoLog      bool
	NoColor    bool
	LoggerType string
	UserID     string

	// Store.
	Store            string
	DBPath           string
	FirestoreProject string

	// Model.
	Provider        string
	AnthropicAPIKey string
	AnthropicModel  string
	GeminiAPIKey    string
	GeminiModel     string
	ModelTimeout    time.Duration

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)
	app.Flag("user", "User the conversation and progress belong to.").Envar("PLANCOACH_USER").Default(model.DefaultUserID).StringVar(&c.UserID)

	defaultDBPath := filepath.Join(homedir.HomeDir(), ".plancoach", "plancoach.db")
	app.Flag("store", "Document store backend.").Envar("PLANCOACH_STORE").Default(StoreSQLite).EnumVar(&c.Store, StoreSQLite, StoreMemory, StoreFirestore)
	app.Flag("db-path", "Path to the SQLite database file.").Envar("PLANCOACH_DB_PATH").Default(defaultDBPath).StringVar(&c.DBPath)
	app.Flag("firestore-project", "Google Cloud project of the Firestore store.").Envar("FIRESTORE_PROJECT").StringVar(&c.FirestoreProject)

	app.Flag("provider", "Model provider.").Envar("PLANCOACH_PROVIDER").Default(ProviderAnthropic).EnumVar(&c.Provider, ProviderAnthropic, ProviderGemini, ProviderFake)
	app.Flag("anthropic-api-key", "Anthropic API key.").Envar("ANTHROPIC_API_KEY").StringVar(&c.AnthropicAPIKey)
	app.Flag("anthropic-model", "Anthropic model.").Envar("ANTHROPIC_MODEL").Default(anthropic.DefaultModel).StringVar(&c.AnthropicModel)
	app.Flag("gemini-api-key", "Gemini API key.").Envar("GEMINI_API_KEY").StringVar(&c.GeminiAPIKey)
	app.Flag("gemini-model", "Gemini model.").Envar("GEMINI_MODEL").Default(gemini.DefaultModel).StringVar(&c.GeminiModel)
	app.Flag("model-timeout", "Deadline of model calls, 0 disables it.").Default("0s").DurationVar(&c.ModelTimeout)

	return c
}
