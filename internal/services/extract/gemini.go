package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"github.com/ternarybob/promoparse/internal/common"
	"github.com/ternarybob/promoparse/internal/models"
)

// GeminiExtractor implements DocumentExtractor using the Gemini API.
// Documents are attached as inline PDF parts.
type GeminiExtractor struct {
	config  *common.GeminiConfig
	logger  arbor.ILogger
	client  *genai.Client
	timeout time.Duration
}

// NewGeminiExtractor creates a Gemini-backed document extractor.
func NewGeminiExtractor(config *common.GeminiConfig, logger arbor.ILogger) (*GeminiExtractor, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required for Gemini extraction (set via GEMINI_API_KEY or llm.gemini.api_key in config)")
	}

	if config.Model == "" {
		config.Model = "gemini-2.5-flash"
	}

	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Timeout, err)
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	service := &GeminiExtractor{
		config:  config,
		logger:  logger,
		client:  client,
		timeout: timeout,
	}

	logger.Debug().
		Str("model", config.Model).
		Dur("timeout", timeout).
		Msg("Gemini document extractor initialized")

	return service, nil
}

// ExtractSellSheet reads one distributor sell sheet PDF.
func (s *GeminiExtractor) ExtractSellSheet(ctx context.Context, document []byte) (*models.ESPProduct, error) {
	var product models.ESPProduct
	if err := s.extract(ctx, document, sellSheetPrompt, &product); err != nil {
		return nil, fmt.Errorf("sell sheet extraction failed: %w", err)
	}
	return &product, nil
}

// ExtractPresentation reads a presentation listing PDF.
func (s *GeminiExtractor) ExtractPresentation(ctx context.Context, document []byte) (*models.PresentationListing, error) {
	var listing models.PresentationListing
	if err := s.extract(ctx, document, presentationPrompt, &listing); err != nil {
		return nil, fmt.Errorf("presentation extraction failed: %w", err)
	}
	return &listing, nil
}

func (s *GeminiExtractor) extract(ctx context.Context, document []byte, prompt string, out interface{}) error {
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

	contents := []*genai.Content{
		{
			Role: genai.RoleUser,
			Parts: []*genai.Part{
				genai.NewPartFromBytes(document, "application/pdf"),
				genai.NewPartFromText("Extract the structured data from this document per the schema."),
			},
		},
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(prompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
	}

	resp, err := s.client.Models.GenerateContent(timeoutCtx, s.config.Model, contents, config)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("document_bytes", len(document)).
			Msg("Gemini extraction call failed")
		return fmt.Errorf("Gemini API call failed: %w", err)
	}

	var response strings.Builder
	if resp != nil && len(resp.Candidates) > 0 {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					response.WriteString(part.Text)
				}
			}
			if response.Len() > 0 {
				break
			}
		}
	}

	if response.Len() == 0 {
		return fmt.Errorf("no response generated from Gemini API")
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
