package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/palco-live/cadastro/internal/agent/extract"
	"github.com/palco-live/cadastro/internal/agent/extract/providers"
	"github.com/palco-live/cadastro/internal/agent/flow"
	"github.com/palco-live/cadastro/internal/agent/model"
	"github.com/palco-live/cadastro/internal/agent/repo"
	"github.com/palco-live/cadastro/internal/core"
	"github.com/palco-live/cadastro/internal/gateway"
	"github.com/palco-live/cadastro/internal/trace"
	logx "github.com/palco-live/cadastro/pkg/logger"
	pkgpostgres "github.com/palco-live/cadastro/pkg/postgres"
	pkgredis "github.com/palco-live/cadastro/pkg/redis"
)

// AppConfig defines all configurable parameters for the service, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment core.Environment `envconfig:"ENVIRONMENT" default:"development"`
	HTTPAddr    string           `envconfig:"HTTP_ADDR" default:":8080"`

	// Infrastructure
	Redis    pkgredis.Config
	Postgres pkgpostgres.Config

	// LLM providers. A missing key skips that provider in the fallback
	// chain; at least one must be configured.
	GeminiAPIKey    string `envconfig:"GEMINI_API_KEY"`
	GeminiBaseURL   string `envconfig:"GEMINI_BASE_URL"`
	OpenAIAPIKey    string `envconfig:"OPENAI_API_KEY"`
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY"`

	// Agent configs
	Extraction   model.ExtractionModelConfig
	Budget       model.BudgetConfig
	Conversation model.ConversationConfig
}

func main() {
	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load structured config from env
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: cfg.Environment})

	ttl, err := time.ParseDuration(cfg.Conversation.TTL)
	if err != nil {
		logx.Fatal().Err(err).Str("value", cfg.Conversation.TTL).Msg("invalid CONVERSATION_TTL")
	}
	perCall, err := time.ParseDuration(cfg.Budget.ProviderTimeout)
	if err != nil {
		logx.Fatal().Err(err).Str("value", cfg.Budget.ProviderTimeout).Msg("invalid EXTRACTION_PROVIDER_TIMEOUT")
	}
	replyWindow, err := time.ParseDuration(cfg.Budget.ReplyWindow)
	if err != nil {
		logx.Fatal().Err(err).Str("value", cfg.Budget.ReplyWindow).Msg("invalid REPLY_WINDOW")
	}

	ctx := context.Background()

	rdb, err := cfg.Redis.New()
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to initialise redis client")
	}
	defer rdb.Close()

	pool, err := cfg.Postgres.New(ctx)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to initialise postgres pool")
	}
	defer pool.Close()

	chain := buildProviders(ctx, &cfg)
	if len(chain) == 0 {
		logx.Fatal().Msg("no extraction provider configured; set GEMINI_API_KEY, OPENAI_API_KEY or ANTHROPIC_API_KEY")
	}

	adapter := extract.NewAdapter(chain, perCall, cfg.Extraction.BotName)
	extractor := extract.NewExtractor(adapter, &cfg.Extraction)

	states := repo.NewRedisStateRepository(rdb, ttl)
	tenants := repo.NewPostgresTenantRepository(pool)

	tracer := trace.NewLogSink(256)

	orch := flow.NewOrchestrator(states, tenants, extractor, tracer, flow.Config{
		ReplyWindow:    replyWindow,
		AttemptCeiling: cfg.Budget.AttemptCeiling,
		BotName:        cfg.Extraction.BotName,
	})

	srv := gateway.NewServer(gateway.Config{Addr: cfg.HTTPAddr}, orch, states, map[string]gateway.Pinger{
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		"postgres": pool.Ping,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal().Err(err).Msg("server stopped")
		}
	}()
	logx.Info().
		Str("addr", cfg.HTTPAddr).
		Str("environment", cfg.Environment.String()).
		Int("providers", len(chain)).
		Msg("cadastro listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logx.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("server shutdown failed")
	}
	tracer.Close()
}

// buildProviders assembles the fallback chain in priority order from the
// keys present in the environment. A provider that fails to initialise is
// skipped with a warning rather than aborting startup, so an outage at one
// vendor does not take the service down with it.
func buildProviders(ctx context.Context, cfg *AppConfig) []extract.CompletionProvider {
	var chain []extract.CompletionProvider

	if cfg.GeminiAPIKey != "" {
		p, err := providers.NewGemini(ctx, providers.GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			BaseURL: cfg.GeminiBaseURL,
		}, &cfg.Extraction)
		if err != nil {
			logx.Warn().Err(err).Msg("gemini provider skipped")
		} else {
			chain = append(chain, p)
		}
	}
	if cfg.OpenAIAPIKey != "" {
		p, err := providers.NewOpenAI(cfg.OpenAIAPIKey, &cfg.Extraction)
		if err != nil {
			logx.Warn().Err(err).Msg("openai provider skipped")
		} else {
			chain = append(chain, p)
		}
	}
	if cfg.AnthropicAPIKey != "" {
		p, err := providers.NewAnthropic(cfg.AnthropicAPIKey, &cfg.Extraction)
		if err != nil {
			logx.Warn().Err(err).Msg("anthropic provider skipped")
		} else {
			chain = append(chain, p)
		}
	}
	return chain
}
