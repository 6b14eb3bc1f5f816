package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/palco-live/cadastro/internal/agent/model"
	logx "github.com/palco-live/cadastro/pkg/logger"
)

// LangchainProvider adapts a langchaingo chat model to the completion
// provider contract. The OpenAI and Anthropic fallbacks share this path.
type LangchainProvider struct {
	llm         llms.Model
	name        string
	modelName   string
	maxTokens   int
	temperature float32
}

// NewOpenAI creates the OpenAI-backed fallback provider.
func NewOpenAI(apiKey string, mc *model.ExtractionModelConfig) (*LangchainProvider, error) {
	llm, err := openai.New(
		openai.WithModel(mc.OpenAIModel),
		openai.WithToken(apiKey),
	)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating OpenAI model")
		return nil, fmt.Errorf("error creating OpenAI model: %w", err)
	}
	return &LangchainProvider{
		llm:         llm,
		name:        "openai",
		modelName:   mc.OpenAIModel,
		maxTokens:   mc.MaxTokens,
		temperature: mc.Temperature,
	}, nil
}

// NewAnthropic creates the Anthropic-backed fallback provider.
func NewAnthropic(apiKey string, mc *model.ExtractionModelConfig) (*LangchainProvider, error) {
	llm, err := anthropic.New(
		anthropic.WithToken(apiKey),
		anthropic.WithModel(mc.AnthropicModel),
	)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Anthropic model")
		return nil, fmt.Errorf("error creating Anthropic model: %w", err)
	}
	return &LangchainProvider{
		llm:         llm,
		name:        "anthropic",
		modelName:   mc.AnthropicModel,
		maxTokens:   mc.MaxTokens,
		temperature: mc.Temperature,
	}, nil
}

// Name identifies the provider in traces and results.
func (p *LangchainProvider) Name() string { return p.name }

// Complete sends one system+user exchange and returns the raw reply text.
func (p *LangchainProvider) Complete(ctx context.Context, system, user string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}

	resp, err := p.llm.GenerateContent(ctx, messages,
		llms.WithTemperature(float64(p.temperature)),
		llms.WithMaxTokens(p.maxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("%s generate: %w", p.name, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		return "", fmt.Errorf("%s generate: empty completion", p.name)
	}

	logx.Debug().
		Str("provider", p.name).
		Str("model", p.modelName).
		Msg("LLM fallback completion")
	return resp.Choices[0].Content, nil
}
