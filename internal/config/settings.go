package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/dates"
	"github.com/Veraticus/sift/internal/llm"
)

// AIConfig is the classifier configuration for one pipeline operation.
type AIConfig struct {
	Provider       string
	ModelName      string
	BatchSize      int
	Temperature    float64
	EnableThinking bool
}

// DefaultBatchSize bounds how many descriptions go into one classifier call.
const DefaultBatchSize = 50

// ImportAI is the low-cost configuration used while importing statements.
func ImportAI() AIConfig {
	return AIConfig{
		Provider:       llm.ProviderGemini,
		ModelName:      "gemini-2.5-flash-lite",
		BatchSize:      DefaultBatchSize,
		Temperature:    0,
		EnableThinking: false,
	}
}

// RecategorizeAI is the higher-capability configuration used when
// revisiting uncategorized transactions.
func RecategorizeAI() AIConfig {
	return AIConfig{
		Provider:       llm.ProviderGemini,
		ModelName:      "gemini-2.5-pro",
		BatchSize:      DefaultBatchSize,
		Temperature:    0.5,
		EnableThinking: true,
	}
}

// DatabaseSettings selects the ledger store.
type DatabaseSettings struct {
	Driver string
	Path   string
}

// AISettings configures the classifier client and both operations.
type AISettings struct {
	Provider     string
	APIKey       string
	Endpoint     string
	Import       AIConfig
	Recategorize AIConfig
	RateLimit    int
	MaxRetries   int
	Timeout      time.Duration
	Enabled      bool
}

// Settings is the fully resolved configuration.
type Settings struct {
	Database DatabaseSettings
	DateHint dates.Hint
	AI       AISettings
}

// Defaults registers every key with its default value.
func Defaults(v *viper.Viper) {
	imp, re := ImportAI(), RecategorizeAI()

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", DefaultDatabasePath())

	v.SetDefault("import.date_format", string(dates.HintAuto))

	v.SetDefault("ai.enabled", true)
	v.SetDefault("ai.provider", imp.Provider)
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.endpoint", "")
	v.SetDefault("ai.batch_size", DefaultBatchSize)
	v.SetDefault("ai.rate_limit", 30)
	v.SetDefault("ai.max_retries", 2)
	v.SetDefault("ai.timeout", 60*time.Second)

	v.SetDefault("ai.import.model", imp.ModelName)
	v.SetDefault("ai.import.temperature", imp.Temperature)
	v.SetDefault("ai.import.thinking", imp.EnableThinking)

	v.SetDefault("ai.recategorize.model", re.ModelName)
	v.SetDefault("ai.recategorize.temperature", re.Temperature)
	v.SetDefault("ai.recategorize.thinking", re.EnableThinking)
}

// providerKeyEnv is consulted when ai.api_key is not set.
var providerKeyEnv = map[string]string{
	llm.ProviderGemini:    "GEMINI_API_KEY",
	llm.ProviderAnthropic: "ANTHROPIC_API_KEY",
	llm.ProviderOpenAI:    "OPENAI_API_KEY",
}

// FromViper resolves settings from v. Precedence is flags, SIFT_ environment
// variables, the config file, then defaults; provider API keys also fall
// back to the provider's usual environment variable.
func FromViper(v *viper.Viper) (Settings, error) {
	provider := strings.ToLower(strings.TrimSpace(v.GetString("ai.provider")))
	batchSize := v.GetInt("ai.batch_size")

	s := Settings{
		Database: DatabaseSettings{
			Driver: strings.ToLower(v.GetString("database.driver")),
			Path:   ExpandPath(v.GetString("database.path")),
		},
		AI: AISettings{
			Enabled:    v.GetBool("ai.enabled"),
			Provider:   provider,
			APIKey:     v.GetString("ai.api_key"),
			Endpoint:   v.GetString("ai.endpoint"),
			RateLimit:  v.GetInt("ai.rate_limit"),
			MaxRetries: v.GetInt("ai.max_retries"),
			Timeout:    v.GetDuration("ai.timeout"),
			Import: AIConfig{
				Provider:       provider,
				ModelName:      v.GetString("ai.import.model"),
				BatchSize:      batchSize,
				Temperature:    v.GetFloat64("ai.import.temperature"),
				EnableThinking: v.GetBool("ai.import.thinking"),
			},
			Recategorize: AIConfig{
				Provider:       provider,
				ModelName:      v.GetString("ai.recategorize.model"),
				BatchSize:      batchSize,
				Temperature:    v.GetFloat64("ai.recategorize.temperature"),
				EnableThinking: v.GetBool("ai.recategorize.thinking"),
			},
		},
	}

	if s.AI.APIKey == "" {
		if env, ok := providerKeyEnv[provider]; ok {
			s.AI.APIKey = os.Getenv(env)
		}
	}

	hint, err := dates.ParseHint(v.GetString("import.date_format"))
	if err != nil {
		return Settings{}, fmt.Errorf("%w: import.date_format: %w", common.ErrInvalidConfig, err)
	}
	s.DateHint = hint

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks the settings for values the pipeline cannot work with.
func (s Settings) Validate() error {
	switch s.Database.Driver {
	case "sqlite", "bolt":
	default:
		return fmt.Errorf("%w: database.driver must be sqlite or bolt, got %q", common.ErrInvalidConfig, s.Database.Driver)
	}
	if s.Database.Path == "" {
		return fmt.Errorf("%w: database.path", common.ErrMissingConfig)
	}
	if s.AI.Import.BatchSize <= 0 {
		return fmt.Errorf("%w: ai.batch_size must be positive", common.ErrInvalidConfig)
	}
	return nil
}

// ClassifierConfig is the client configuration for the configured provider.
func (s Settings) ClassifierConfig() llm.Config {
	return llm.Config{
		Provider:   s.AI.Provider,
		APIKey:     s.AI.APIKey,
		Endpoint:   s.AI.Endpoint,
		RateLimit:  s.AI.RateLimit,
		MaxRetries: s.AI.MaxRetries,
		Timeout:    s.AI.Timeout,
	}
}
