// File: internal/llmclient/factory.go
package llmclient

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/feedpilot/feedpilot-cli/api/schemas"
	"github.com/feedpilot/feedpilot-cli/internal/config"
)

// NewCompleter is a factory function that creates a TextCompleter based on
// the configured provider.
func NewCompleter(cfg config.LLMConfig, logger *zap.Logger) (schemas.TextCompleter, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiClient(cfg, logger)
	case config.ProviderHTTP:
		return NewHTTPClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown or unsupported LLM provider configured: %q. Supported: [%s, %s]",
			cfg.Provider, config.ProviderGemini, config.ProviderHTTP)
	}
}
