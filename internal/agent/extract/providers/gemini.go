package providers

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/palco-live/cadastro/internal/agent/model"
	"github.com/palco-live/cadastro/internal/agent/observers"
	logx "github.com/palco-live/cadastro/pkg/logger"
)

// GeminiConfig holds what is needed to reach the Gemini API.
type GeminiConfig struct {
	APIKey  string
	BaseURL string
}

// GeminiProvider runs extraction completions against Gemini through the
// Eino chat model component. It is the primary provider in the chain.
type GeminiProvider struct {
	chatModel *gemini.ChatModel
	modelName string
	verbose   bool
}

// NewGemini creates the Gemini-backed provider for the configured model.
func NewGemini(ctx context.Context, config GeminiConfig, mc *model.ExtractionModelConfig) (*GeminiProvider, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       mc.GeminiModel,
		Temperature: &mc.Temperature,
		MaxTokens:   &mc.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			// The reply must land inside the per-call budget.
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(int32(0)),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating extraction model")
		return nil, fmt.Errorf("error creating extraction model: %w", err)
	}

	return &GeminiProvider{
		chatModel: chatModel,
		modelName: mc.GeminiModel,
		verbose:   mc.VerboseCallbacks,
	}, nil
}

// Name identifies the provider in traces and results.
func (p *GeminiProvider) Name() string { return "gemini" }

// Complete sends one system+user exchange and returns the raw reply text.
func (p *GeminiProvider) Complete(ctx context.Context, system, user string) (string, error) {
	messages := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(user),
	}

	if p.verbose {
		ctx = observers.WithModelRun(ctx, p.modelName)
	}
	out, err := p.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	p.logUsage(out)
	return out.Content, nil
}

// logUsage computes and logs usage cost when the response carries token counts.
func (p *GeminiProvider) logUsage(out *schema.Message) {
	if out == nil || out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	usage := out.ResponseMeta.Usage
	inC, outC, totalC := ComputeCost(usage, ResolvePricing(p.modelName))
	logx.Debug().
		Str("provider", p.Name()).
		Str("model", p.modelName).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", usage.TotalTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")
}
