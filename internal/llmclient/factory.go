package llmclient

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/aiport/internal/config"
	"github.com/xkilldash9x/aiport/internal/network"
)

const defaultTimeout = 120 * time.Second

// NewProvider creates the adapter for provider using its connection settings.
func NewProvider(provider config.LLMProvider, cfg config.ProviderConfig, logger *zap.Logger) (Provider, error) {
	switch provider {
	case config.ProviderGemini:
		return NewGeminiClient(cfg, logger), nil
	case config.ProviderOpenRouter:
		return NewOpenRouterClient(cfg, logger), nil
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg, logger), nil
	case config.ProviderClaude:
		return NewClaudeClient(cfg, logger), nil
	case config.ProviderOllama:
		return NewOllamaClient(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown or unsupported LLM provider configured: '%s'. Supported: %v", provider, config.KnownProviders)
	}
}

// NewProviderFromConfig resolves the provider's settings from the application config.
func NewProviderFromConfig(provider config.LLMProvider, cfg config.Interface, logger *zap.Logger) (Provider, error) {
	pc, ok := cfg.Providers().Get(provider)
	if !ok {
		return nil, fmt.Errorf("unknown or unsupported LLM provider configured: '%s'", provider)
	}
	return NewProvider(provider, pc, logger)
}

// RequiresCredential reports whether calls to provider need an API key.
// Local runtimes do not.
func RequiresCredential(provider config.LLMProvider) bool {
	return provider != config.ProviderOllama
}

// KnownModels returns the configured model names per provider, in
// presentation order.
func KnownModels(cfg config.ProvidersConfig) map[config.LLMProvider][]string {
	out := make(map[config.LLMProvider][]string, len(config.KnownProviders))
	for _, p := range config.KnownProviders {
		pc, _ := cfg.Get(p)
		out[p] = append([]string(nil), pc.Models...)
	}
	return out
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return network.NewClientWithTimeout(timeout, nil)
}
