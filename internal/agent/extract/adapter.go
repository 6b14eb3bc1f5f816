package extract

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/palco-live/cadastro/internal/agent/model"
	"github.com/palco-live/cadastro/internal/agent/parsers"
	errx "github.com/palco-live/cadastro/internal/core/error"
	logx "github.com/palco-live/cadastro/pkg/logger"
)

// CompletionProvider is one LLM vendor able to answer a single system+user
// exchange with raw text.
type CompletionProvider interface {
	Name() string
	Complete(ctx context.Context, system, user string) (string, error)
}

// Adapter walks an ordered provider chain until one reply parses into a
// usable delta. One attempt per provider, never a retry against the same
// one; the caller's context carries the reply-window deadline and cuts the
// walk short when it expires.
type Adapter struct {
	providers []CompletionProvider
	timeout   time.Duration
	botName   string
}

// NewAdapter wires the ordered chain with the per-call budget.
func NewAdapter(providers []CompletionProvider, perCall time.Duration, botName string) *Adapter {
	return &Adapter{
		providers: providers,
		timeout:   perCall,
		botName:   botName,
	}
}

// Extract runs the chain for one inbound message. The result names the
// provider that produced it; an empty delta from a well-formed reply is a
// success, not a failure. When every provider fails or the reply window is
// already spent, the error wraps errx.ErrExtractionUnavailable.
func (a *Adapter) Extract(ctx context.Context, system, user string) (*model.ExtractionResult, error) {
	if len(a.providers) == 0 {
		return nil, a.unavailable(fmt.Errorf("no providers configured"))
	}

	for _, p := range a.providers {
		if err := ctx.Err(); err != nil {
			logx.Warn().Err(err).Msg("Reply window spent before provider attempt")
			return nil, a.unavailable(err)
		}

		content, err := a.attempt(ctx, p, system, user)
		if err != nil {
			logx.Warn().Err(err).Str("provider", p.Name()).Msg("Provider attempt failed")
			continue
		}

		parsed, err := parsers.ParseDeltaResponse(content, a.botName)
		if err != nil {
			// An unusable reply counts as a failed attempt; next in line.
			logx.Warn().Err(err).Str("provider", p.Name()).Msg("Provider reply failed schema validation")
			continue
		}

		if len(parsed.ParsingMetadata) > 0 {
			logx.Debug().
				Str("provider", p.Name()).
				Interface("parsing_metadata", parsed.ParsingMetadata).
				Msg("Delta parsed with notes")
		}
		return &model.ExtractionResult{
			Delta:           parsed.Delta,
			ConfidenceNotes: parsed.ConfidenceNotes,
			ProviderUsed:    p.Name(),
		}, nil
	}

	return nil, a.unavailable(fmt.Errorf("all %d providers failed", len(a.providers)))
}

// attempt runs one provider call under the per-call budget.
func (a *Adapter) attempt(ctx context.Context, p CompletionProvider, system, user string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	started := time.Now()
	content, err := p.Complete(callCtx, system, user)
	elapsed := time.Since(started)
	if err != nil {
		return "", fmt.Errorf("%w: %s after %s: %v", errx.ErrProvider, p.Name(), elapsed.Round(time.Millisecond), err)
	}

	logx.Debug().
		Str("provider", p.Name()).
		Dur("elapsed", elapsed).
		Msg("Provider completion received")
	return content, nil
}

func (a *Adapter) unavailable(cause error) *errx.Error {
	return errx.New(
		fmt.Errorf("%w: %v", errx.ErrExtractionUnavailable, cause),
		http.StatusServiceUnavailable,
		"extraction providers unavailable",
	)
}
