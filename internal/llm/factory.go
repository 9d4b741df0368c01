package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Provider names accepted by NewClassifier.
const (
	ProviderRemote    = "remote"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderBayes     = "bayes"
)

// NewClassifier creates a classifier client for the configured provider.
func NewClassifier(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Provider))

	var (
		p   provider
		err error
	)
	switch name {
	case ProviderRemote:
		p, err = newRemoteClient(cfg)
	case ProviderGemini:
		p, err = newGeminiClient(ctx, cfg)
	case ProviderAnthropic:
		p, err = newAnthropicClient(cfg)
	case ProviderOpenAI:
		p, err = newOpenAIClient(cfg)
	case ProviderBayes:
		p = newBayesClassifier(cfg)
	default:
		return nil, fmt.Errorf("unsupported classifier provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s classifier: %w", name, err)
	}

	return newClient(name, p, cfg, logger), nil
}
