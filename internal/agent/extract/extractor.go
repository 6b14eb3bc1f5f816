package extract

import (
	"context"
	"net/http"

	"github.com/palco-live/cadastro/internal/agent/model"
	"github.com/palco-live/cadastro/internal/agent/observers"
	"github.com/palco-live/cadastro/internal/agent/prompts"
	errx "github.com/palco-live/cadastro/internal/core/error"
)

// Extractor turns one inbound message plus the already known record into a
// field delta via the provider chain.
type Extractor struct {
	adapter *Adapter
	cfg     *model.ExtractionModelConfig
}

// NewExtractor wires the extractor over an adapter.
func NewExtractor(adapter *Adapter, cfg *model.ExtractionModelConfig) *Extractor {
	return &Extractor{adapter: adapter, cfg: cfg}
}

// ExtractFields renders the prompt pair and runs the provider chain. Known
// fields ride along so the model does not re-ask for them; the merge step
// still protects them from overwrites.
func (e *Extractor) ExtractFields(ctx context.Context, rawText string, known model.RegistrationRecord) (*model.ExtractionResult, error) {
	renderCtx := ctx
	if e.cfg.VerboseCallbacks {
		renderCtx = observers.WithPromptRun(ctx, "extraction")
	}
	system, err := prompts.RenderExtractionSystem(renderCtx, e.cfg)
	if err != nil {
		return nil, errx.New(err, http.StatusInternalServerError, errx.SystemErrorMessage)
	}
	user := prompts.BuildExtractionContext(rawText, known)
	return e.adapter.Extract(ctx, system, user)
}
