// Package summarize turns raw upstream error messages into plain-English
// explanations using an LLM.
//
// This is the only network-dependent step in drafting. Callers are expected
// to degrade any returned error into fallback text; nothing here is fatal.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/remedyd/internal/normalize"
)

const (
	// minMessageLength is the shortest cleaned message worth summarizing.
	// Anything shorter is noise from a truncated block.
	minMessageLength = 10

	// FallbackUnusable is returned without calling the LLM when the message
	// is too short to summarize.
	FallbackUnusable = "Could not extract a valid error message."

	defaultModel       = "gpt-4o-mini"
	defaultTemperature = 0.1
	defaultRateLimit   = 1 // requests per second
	defaultBurst       = 4
)

// Config holds summarizer configuration.
type Config struct {
	// APIKey is the OpenAI API key.
	APIKey string

	// Model is the chat model to use. Defaults to gpt-4o-mini.
	Model string
}

// Service generates error summaries via an LLM with rate limiting.
type Service struct {
	llm     llms.Model
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New creates a summarizer around an existing model. Used directly in tests;
// production wiring goes through NewOpenAI.
func New(llm llms.Model, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		llm:     llm,
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		logger:  logger,
	}
}

// NewOpenAI creates a summarizer backed by the OpenAI chat completions API.
func NewOpenAI(cfg Config, logger *zap.Logger) (*Service, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key required")
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	llm, err := openai.New(
		openai.WithToken(cfg.APIKey),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}

	return New(llm, logger), nil
}

// Summarize explains an upstream error message for a support engineer.
//
// The message is normalized first; anything shorter than minMessageLength
// after cleaning skips the LLM call entirely and returns FallbackUnusable.
// A failed or cancelled LLM call returns an error; the caller owns the
// textual fallback.
func (s *Service) Summarize(ctx context.Context, message string) (string, error) {
	cleaned := normalize.Clean(message)
	if len(cleaned) < minMessageLength {
		return FallbackUnusable, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter error: %w", err)
	}

	prompt := buildPrompt(cleaned)

	summary, err := llms.GenerateFromSinglePrompt(ctx, s.llm, prompt,
		llms.WithTemperature(defaultTemperature),
	)
	if err != nil {
		return "", fmt.Errorf("summarization failed: %w", err)
	}

	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", fmt.Errorf("empty summary from model")
	}

	s.logger.Debug("summarized error message",
		zap.Int("message_len", len(cleaned)),
		zap.Int("summary_len", len(summary)))

	return summary, nil
}

// buildPrompt wraps the error message in summarization instructions.
func buildPrompt(message string) string {
	return fmt.Sprintf(`Summarize this error message for a support engineer.
Explain in plain English what went wrong and how the user can fix it.

Error message:
%s`, message)
}
