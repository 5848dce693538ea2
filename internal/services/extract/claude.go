package extract

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/promoparse/internal/common"
	"github.com/ternarybob/promoparse/internal/models"
)

// ClaudeExtractor implements DocumentExtractor using the Anthropic API.
// Documents are attached as base64 PDF blocks; the extraction schema
// rides in the system prompt.
type ClaudeExtractor struct {
	config    *common.ClaudeConfig
	logger    arbor.ILogger
	client    anthropic.Client
	timeout   time.Duration
	maxTokens int
}

// NewClaudeExtractor creates a Claude-backed document extractor.
func NewClaudeExtractor(config *common.ClaudeConfig, logger arbor.ILogger) (*ClaudeExtractor, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required for Claude extraction (set via ANTHROPIC_API_KEY or llm.claude.api_key in config)")
	}

	if config.Model == "" {
		config.Model = "claude-sonnet-4-20250514"
	}

	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Timeout, err)
	}

	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}

	client := anthropic.NewClient(
		option.WithAPIKey(config.APIKey),
	)

	service := &ClaudeExtractor{
		config:    config,
		logger:    logger,
		client:    client,
		timeout:   timeout,
		maxTokens: maxTokens,
	}

	logger.Debug().
		Str("model", config.Model).
		Dur("timeout", timeout).
		Int("max_tokens", maxTokens).
		Msg("Claude document extractor initialized")

	return service, nil
}

// ExtractSellSheet reads one distributor sell sheet PDF.
func (s *ClaudeExtractor) ExtractSellSheet(ctx context.Context, document []byte) (*models.ESPProduct, error) {
	var product models.ESPProduct
	if err := s.extract(ctx, document, sellSheetPrompt, &product); err != nil {
		return nil, fmt.Errorf("sell sheet extraction failed: %w", err)
	}
	return &product, nil
}

// ExtractPresentation reads a presentation listing PDF.
func (s *ClaudeExtractor) ExtractPresentation(ctx context.Context, document []byte) (*models.PresentationListing, error) {
	var listing models.PresentationListing
	if err := s.extract(ctx, document, presentationPrompt, &listing); err != nil {
		return nil, fmt.Errorf("presentation extraction failed: %w", err)
	}
	return &listing, nil
}

func (s *ClaudeExtractor) extract(ctx context.Context, document []byte, prompt string, out interface{}) error {
	if len(document) == 0 {
		return fmt.Errorf("document cannot be empty")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	startTime := time.Now()
	s.logger.Debug().
		Int("document_bytes", len(document)).
		Str("model", s.config.Model).
		Msg("Starting document extraction")

	encoded := base64.StdEncoding.EncodeToString(document)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.config.Model),
		MaxTokens: int64(s.maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: prompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewDocumentBlock(anthropic.Base64PDFSourceParam{Data: encoded}),
				anthropic.NewTextBlock("Extract the structured data from this document per the schema."),
			),
		},
	}

	resp, err := s.client.Messages.New(timeoutCtx, params)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("document_bytes", len(document)).
			Msg("Claude extraction call failed")
		return fmt.Errorf("Claude API call failed: %w", err)
	}

	var response strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			response.WriteString(block.Text)
		}
	}

	if response.Len() == 0 {
		return fmt.Errorf("no response generated from Claude API")
	}

	if err := decodeResponse(response.String(), out); err != nil {
		return err
	}

	s.logger.Debug().
		Int("response_length", response.Len()).
		Dur("duration", time.Since(startTime)).
		Msg("Document extraction completed")

	return nil
}
