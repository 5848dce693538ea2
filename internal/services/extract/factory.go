package extract

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/promoparse/internal/common"
	"github.com/ternarybob/promoparse/internal/interfaces"
)

// NewExtractor creates the document extractor for the configured provider.
func NewExtractor(cfg *common.LLMConfig, logger arbor.ILogger) (interfaces.DocumentExtractor, error) {
	logger.Info().Str("provider", string(cfg.DefaultProvider)).Msg("Initializing document extractor")

	switch cfg.DefaultProvider {
	case common.LLMProviderClaude:
		return NewClaudeExtractor(&cfg.Claude, logger)
	case common.LLMProviderGemini:
		return NewGeminiExtractor(&cfg.Gemini, logger)
	default:
		return nil, fmt.Errorf("unsupported extraction provider '%s': must be 'claude' or 'gemini'", cfg.DefaultProvider)
	}
}
