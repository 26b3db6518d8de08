// Package generator turns a prompt into raw meal-plan text through a chat
// completion API.
package generator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/mealplanner/internal/app/system/apperr"
	"github.com/dalemusser/mealplanner/internal/app/system/metrics"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// SystemMessage is sent ahead of every prompt.
const SystemMessage = "You are a helpful assistant."

// Defaults applied when Config leaves a field empty.
const (
	DefaultModel     = openai.GPT3Dot5Turbo
	DefaultMaxTokens = 4096
)

// Generator produces raw plan text for a prompt. The text is returned as the
// model wrote it; callers decide whether to validate it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config configures the OpenAI-backed generator.
type Config struct {
	APIKey    string
	BaseURL   string // empty uses the public API
	Model     string
	MaxTokens int
}

// OpenAI calls the chat completions endpoint once per Generate, with no
// retry and no streaming.
type OpenAI struct {
	client    *openai.Client
	model     string
	maxTokens int
	metrics   *metrics.Metrics
	log       *zap.Logger
}

// NewOpenAI builds a generator from cfg.
func NewOpenAI(cfg Config, m *metrics.Metrics, logger *zap.Logger) (*OpenAI, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("generator: API key is required")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAI{
		client:    openai.NewClientWithConfig(oc),
		model:     model,
		maxTokens: maxTokens,
		metrics:   m,
		log:       logger,
	}, nil
}

// Generate sends prompt as the user message and returns the first choice's
// content unchanged. Transport, auth and API errors, and a response with no
// choices, are reported as upstream generation failures.
func (g *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	const op = "generator.generate"

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemMessage},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: g.maxTokens,
	})
	g.metrics.ObserveGeneration(time.Since(start))

	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			g.log.Error("completion API error",
				zap.Int("status", apiErr.HTTPStatusCode),
				zap.String("type", apiErr.Type),
				zap.Error(err))
		} else {
			g.log.Error("completion request failed", zap.Error(err))
		}
		return "", apperr.Wrap(apperr.KindUpstreamGeneration, op, err)
	}
	if len(resp.Choices) == 0 {
		g.log.Error("completion returned no choices", zap.String("id", resp.ID))
		return "", apperr.New(apperr.KindUpstreamGeneration, op, "completion returned no choices")
	}

	choice := resp.Choices[0]
	g.log.Debug("completion finished",
		zap.String("id", resp.ID),
		zap.String("model", resp.Model),
		zap.String("finish_reason", string(choice.FinishReason)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	return choice.Message.Content, nil
}
