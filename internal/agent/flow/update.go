package flow

import (
	"context"

	"github.com/palco-live/cadastro/internal/agent/model"
)

// Update applies a change request from an already completed registration.
// One extraction pass, then the named fields are overwritten; the record
// stays completed throughout.
type Update struct {
	extractor FieldExtractor
}

func NewUpdate(extractor FieldExtractor) *Update {
	return &Update{extractor: extractor}
}

func (e *Update) Handle(ctx context.Context, state *model.ConversationState, text string) (string, string, error) {
	state.Strategy = model.StrategyUpdate

	// Extraction runs against an empty known record on purpose: fields the
	// user wants to change are already filled, and the extractor skips
	// anything it believes is known.
	res, err := e.extractor.ExtractFields(ctx, text, model.RegistrationRecord{TenantID: state.TenantID})
	if err != nil {
		return updateUnavailableReply(state.Record.ArtistName), "", err
	}

	if res.Delta.Empty() {
		// A change intent with no concrete values: show what is on file and
		// ask what to replace.
		return dadosReply(state.Record), res.ProviderUsed, nil
	}

	applyUpdate(&state.Record, res.Delta)
	return updateAppliedReply(state.Record), res.ProviderUsed, nil
}

// applyUpdate overwrites the fields the delta names and swaps links per
// platform. Unlike Merge, filled fields do change here; that is the point
// of the update path.
func applyUpdate(record *model.RegistrationRecord, delta model.RecordDelta) {
	if delta.ArtistName != "" {
		record.Overwrite(model.FieldName, delta.ArtistName)
	}
	if delta.PrimaryGenre != "" {
		record.Overwrite(model.FieldGenre, delta.PrimaryGenre)
	}
	if delta.City != "" {
		record.Overwrite(model.FieldCity, delta.City)
	}
	for _, link := range delta.SocialLinks {
		record.ReplaceLink(link)
	}
}
