package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/kotoba-learn/kotoba-api/internal/config"
	"github.com/kotoba-learn/kotoba-api/internal/generation"
	"google.golang.org/genai"
)

// contentClient is the subset of the genai Models service used here.
type contentClient interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator implements the generation.Generator interface using
// Google's Gemini API to generate chapter content.
type GeminiGenerator struct {
	logger         *slog.Logger
	promptTemplate *template.Template
	client         contentClient
	model          string
	retry          generation.RetryConfig
}

var _ generation.Generator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a new instance of GeminiGenerator with the provided dependencies.
// An empty PromptTemplatePath selects the built-in chapter prompt.
func NewGeminiGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*GeminiGenerator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	tmpl, err := generation.LoadPromptTemplate(cfg.PromptTemplatePath)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return newGenerator(logger, tmpl, client.Models, cfg.ModelName, generation.RetryConfig{
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  time.Duration(cfg.RetryDelaySeconds) * time.Second,
	}), nil
}

func newGenerator(
	logger *slog.Logger,
	tmpl *template.Template,
	client contentClient,
	model string,
	retry generation.RetryConfig,
) *GeminiGenerator {
	return &GeminiGenerator{
		logger:         logger.With("component", "gemini_generator", "model", model),
		promptTemplate: tmpl,
		client:         client,
		model:          model,
		retry:          retry,
	}
}

// Generate implements generation.Generator.
func (g *GeminiGenerator) Generate(ctx context.Context, params generation.Params) (*generation.RawChapter, error) {
	prompt, err := generation.RenderPrompt(g.promptTemplate, params)
	if err != nil {
		return nil, err
	}

	g.logger.DebugContext(ctx, "Prompt generated successfully",
		"chapter_number", params.ChapterNumber,
		"prompt_length", len(prompt))

	var chapter *generation.RawChapter
	err = generation.CallWithRetry(ctx, g.logger, g.retry, func(ctx context.Context) error {
		text, err := g.callGemini(ctx, prompt)
		if err != nil {
			return err
		}
		chapter, err = generation.DecodeChapter(text)
		return err
	})
	if err != nil {
		return nil, err
	}

	g.logger.InfoContext(ctx, "Gemini chapter generated",
		"chapter_number", params.ChapterNumber,
		"vocabulary_count", len(chapter.Vocabulary),
		"example_count", len(chapter.Examples))

	return chapter, nil
}

// callGemini makes one API call and returns the concatenated response text.
func (g *GeminiGenerator) callGemini(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		g.logger.ErrorContext(ctx, "Gemini API call error", "error", err)
		return "", classifyError(err)
	}

	return extractText(resp)
}

// classifyError uses the status of a Gemini API error to decide whether
// the call is worth retrying. Errors without one never reached the API.
func classifyError(err error) error {
	status := 0

	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.Code
	case errors.As(err, &apiErrPtr):
		status = apiErrPtr.Code
	}

	return generation.ClassifyStatus(status, err)
}

// extractText pulls the text parts out of the first candidate.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}

	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("%w: prompt blocked (%s)",
				generation.ErrContentBlocked, resp.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: content blocked by safety filters", generation.ErrContentBlocked)
	}

	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			text.WriteString(part.Text)
		}
	}

	return text.String(), nil
}
