package flow

import (
	"context"

	"github.com/palco-live/cadastro/internal/agent/model"
)

// NewUser handles an identity's first registration message, including the
// restart after an abandoned attempt. One extraction pass over the whole
// message, merge, then ask for exactly the first missing field.
type NewUser struct {
	extractor FieldExtractor
	botName   string
}

func NewNewUser(extractor FieldExtractor, botName string) *NewUser {
	return &NewUser{extractor: extractor, botName: botName}
}

// Handle runs one new-user turn. The extraction here never counts toward
// the collection attempt ceiling; that bookkeeping belongs to the graph
// engine.
func (e *NewUser) Handle(ctx context.Context, state *model.ConversationState, tenant *model.TenantContext, text string) (string, string, error) {
	state.Strategy = model.StrategyNew

	res, err := e.extractor.ExtractFields(ctx, text, state.Record)
	if err != nil {
		// Nothing was extracted, so the state stays as loaded.
		if state.Record.Empty() {
			return welcomeReply(e.botName, tenant), "", err
		}
		return directAskReply(state.Record.NextMissing()), "", err
	}

	state.Record.Merge(res.Delta)

	if state.Record.RequiredComplete() {
		state.Record.MarkCompleted()
		state.MachineState = model.StateDone
		state.PendingField = model.FieldNone
		return completionReply(state.Record, state.UserIdentity), res.ProviderUsed, nil
	}

	next := state.Record.NextMissing()
	state.PendingField = next
	if res.Delta.Empty() && state.Record.Empty() {
		return welcomeReply(e.botName, tenant), res.ProviderUsed, nil
	}
	return askNextReply(res.Delta, state.Record), res.ProviderUsed, nil
}
