package flow

import (
	"context"
	"strings"
	"unicode"

	"github.com/palco-live/cadastro/internal/agent/model"
	errx "github.com/palco-live/cadastro/internal/core/error"
	logx "github.com/palco-live/cadastro/pkg/logger"
)

var (
	// affirmativeWords confirm the summary during the confirm stage.
	affirmativeWords = []string{"sim", "ok", "okay", "certo", "correto", "confirmo"}
	// negativeWords reject it without naming a field.
	negativeWords = []string{"nao", "errado", "errada"}
)

// correctionTargets maps confirm-stage correction keywords to the field the
// user wants to redo.
var correctionTargets = []struct {
	word  string
	field model.Field
}{
	{"nome", model.FieldName},
	{"banda", model.FieldName},
	{"estilo", model.FieldGenre},
	{"genero", model.FieldGenre},
	{"cidade", model.FieldCity},
	{"link", model.FieldLinks},
	{"instagram", model.FieldLinks},
	{"youtube", model.FieldLinks},
	{"spotify", model.FieldLinks},
}

// Machine is the explicit collect/confirm workflow for registrations that
// did not finish in one message. One inbound message advances it at most one
// transition.
type Machine struct {
	extractor FieldExtractor
	ceiling   int
}

func NewMachine(extractor FieldExtractor, ceiling int) *Machine {
	return &Machine{extractor: extractor, ceiling: ceiling}
}

// Step advances the machine for one message and mutates state in place.
// The returned provider name is empty on turns that made no extraction call.
func (m *Machine) Step(ctx context.Context, state *model.ConversationState, text string) (string, string, error) {
	state.Strategy = model.StrategyGraph

	switch state.MachineState {
	case model.StateCollect, "":
		// Blobs saved before the machine_state field default to collect.
		return m.collect(ctx, state, text)
	case model.StateConfirm:
		return m.confirm(state, text), "", nil
	case model.StateDone:
		// The router sends completed registrations to the fast path; this
		// answer covers a stale state slipping through.
		return completedAlreadyReply(state.Record.ArtistName), "", nil
	case model.StateAbandoned:
		return abandonReply(state.Record.ArtistName), "", nil
	}
	return didNotUnderstandReply(), "", nil
}

// collect runs one extraction attempt and charges it against the ceiling.
// An unavailable extraction stack charges nothing: the user should not burn
// attempts on an outage.
func (m *Machine) collect(ctx context.Context, state *model.ConversationState, text string) (string, string, error) {
	res, err := m.extractor.ExtractFields(ctx, text, state.Record)
	if err != nil {
		return directAskReply(state.Record.NextMissing()), "", err
	}

	state.GraphAttemptCount++
	state.Record.Merge(res.Delta)

	// Completion wins over the ceiling when both land on the same turn.
	if state.Record.RequiredComplete() {
		state.MachineState = model.StateConfirm
		state.PendingField = model.FieldNone
		return confirmSummaryReply(state.Record), res.ProviderUsed, nil
	}

	if state.GraphAttemptCount >= m.ceiling {
		logx.Warn().
			Str("identity", state.UserIdentity).
			Int("attempts", state.GraphAttemptCount).
			Err(errx.ErrLoopLimit).
			Msg("collection abandoned")
		state.MachineState = model.StateAbandoned
		return abandonReply(state.Record.ArtistName), res.ProviderUsed, nil
	}

	next := state.Record.NextMissing()
	state.PendingField = next
	if res.Delta.Empty() {
		return emptyDeltaReply(next), res.ProviderUsed, nil
	}
	return askNextReply(res.Delta, state.Record), res.ProviderUsed, nil
}

// confirm resolves the yes/no/fix answer for the pending summary. No
// extraction call happens here; the answer is keyword driven.
func (m *Machine) confirm(state *model.ConversationState, text string) string {
	norm := normalizeText(text)

	if field, ok := correctionField(norm); ok {
		state.Record.Overwrite(field, "")
		state.RestartCollection()
		state.PendingField = field
		return correctionAskReply(field)
	}
	if containsAny(norm, negativeWords) {
		return askWhatToFixReply()
	}
	if containsAny(norm, affirmativeWords) {
		state.Record.MarkCompleted()
		state.MachineState = model.StateDone
		return completionReply(state.Record, state.UserIdentity)
	}
	return confirmSummaryReply(state.Record)
}

// correctionField finds the first correction keyword in the message.
// Checked before affirmatives so "sim, mas a cidade está errada" lands on
// the city fix rather than a blind confirm.
func correctionField(norm string) (model.Field, bool) {
	for _, t := range correctionTargets {
		if strings.Contains(norm, t.word) {
			return t.field, true
		}
	}
	return model.FieldNone, false
}

// containsAny matches whole words, not substrings, so "assim" never reads
// as "sim".
func containsAny(norm string, words []string) bool {
	for _, token := range strings.FieldsFunc(norm, isWordBreak) {
		for _, w := range words {
			if token == w {
				return true
			}
		}
	}
	return false
}

func isWordBreak(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsNumber(r)
}
