package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palco-live/cadastro/internal/agent/model"
	errx "github.com/palco-live/cadastro/internal/core/error"
)

func TestMachineCollectMergesAndAsksNext(t *testing.T) {
	m := NewMachine(extractorReturning(model.RecordDelta{PrimaryGenre: "rock"}), 3)
	state := collectingState("5511999990000", "tenant-1", 0)

	reply, provider, err := m.Step(context.Background(), state, "a gente toca rock")

	require.NoError(t, err)
	assert.Equal(t, "gemini", provider)
	assert.Equal(t, 1, state.GraphAttemptCount)
	assert.Equal(t, "rock", state.Record.PrimaryGenre)
	assert.Equal(t, model.StateCollect, state.MachineState)
	assert.Equal(t, model.FieldCity, state.PendingField)
	assert.Contains(t, reply, "De qual cidade você é?")
}

func TestMachineCollectReachesConfirm(t *testing.T) {
	m := NewMachine(extractorReturning(model.RecordDelta{PrimaryGenre: "rock", City: "Bragança"}), 3)
	state := collectingState("5511999990000", "tenant-1", 1)

	reply, _, err := m.Step(context.Background(), state, "rock, de Bragança")

	require.NoError(t, err)
	assert.Equal(t, model.StateConfirm, state.MachineState)
	assert.False(t, state.Record.Completed, "completion only happens after the user confirms")
	assert.Contains(t, reply, "Está tudo certo?")
	assert.Contains(t, reply, "Nome: Rio Sol")
}

func TestMachineThreeEmptyDeltasAbandon(t *testing.T) {
	m := NewMachine(extractorEmpty(), 3)
	state := collectingState("5511999990000", "tenant-1", 0)

	for i := 1; i <= 2; i++ {
		reply, _, err := m.Step(context.Background(), state, "mensagem sem dado nenhum")
		require.NoError(t, err)
		assert.Equal(t, i, state.GraphAttemptCount)
		assert.Equal(t, model.StateCollect, state.MachineState)
		assert.Contains(t, reply, "não consegui processar")
	}

	reply, _, err := m.Step(context.Background(), state, "ainda nada")
	require.NoError(t, err)
	assert.Equal(t, 3, state.GraphAttemptCount)
	assert.Equal(t, model.StateAbandoned, state.MachineState)
	assert.Contains(t, reply, "Guardei o que você já me passou")
	assert.Equal(t, "Rio Sol", state.Record.ArtistName, "partial data survives the abandon")
	assert.False(t, state.Record.Completed)
}

func TestMachineAttemptCountNeverExceedsCeiling(t *testing.T) {
	m := NewMachine(extractorEmpty(), 3)
	state := collectingState("5511999990000", "tenant-1", 0)

	for i := 0; i < 6; i++ {
		m.Step(context.Background(), state, "nada")
		assert.LessOrEqual(t, state.GraphAttemptCount, 3)
	}
	assert.Equal(t, model.StateAbandoned, state.MachineState)
}

func TestMachineCompletionWinsOverCeiling(t *testing.T) {
	m := NewMachine(extractorReturning(model.RecordDelta{PrimaryGenre: "rock", City: "Bragança"}), 3)
	state := collectingState("5511999990000", "tenant-1", 2)

	_, _, err := m.Step(context.Background(), state, "rock, de Bragança")

	require.NoError(t, err)
	assert.Equal(t, 3, state.GraphAttemptCount)
	assert.Equal(t, model.StateConfirm, state.MachineState, "a completing delta beats the ceiling on the same turn")
}

func TestMachineUnavailableChargesNoAttempt(t *testing.T) {
	m := NewMachine(extractorFailing(), 3)
	state := collectingState("5511999990000", "tenant-1", 1)

	reply, provider, err := m.Step(context.Background(), state, "toco rock")

	require.Error(t, err)
	assert.True(t, errors.Is(err, errx.ErrExtractionUnavailable))
	assert.Empty(t, provider)
	assert.Equal(t, 1, state.GraphAttemptCount, "an outage must not burn user attempts")
	assert.Equal(t, model.StateCollect, state.MachineState)
	assert.Contains(t, reply, "estilo musical")
}

func TestMachineConfirmAffirmativeCompletes(t *testing.T) {
	m := NewMachine(extractorEmpty(), 3)
	state := confirmingState()

	reply, provider, err := m.Step(context.Background(), state, "sim, tudo certo")

	require.NoError(t, err)
	assert.Empty(t, provider, "confirm answers are keyword driven, no provider call")
	assert.True(t, state.Record.Completed)
	assert.Equal(t, model.StateDone, state.MachineState)
	assert.Contains(t, reply, "Cadastro concluído")
}

func TestMachineConfirmCorrectionReopensCollection(t *testing.T) {
	m := NewMachine(extractorEmpty(), 3)
	state := confirmingState()
	state.GraphAttemptCount = 3

	reply, _, err := m.Step(context.Background(), state, "a cidade está errada")

	require.NoError(t, err)
	assert.Equal(t, model.StateCollect, state.MachineState)
	assert.Empty(t, state.Record.City, "the corrected field is cleared for re-collection")
	assert.Equal(t, "Rio Sol", state.Record.ArtistName)
	assert.Zero(t, state.GraphAttemptCount, "corrections open a fresh attempt round")
	assert.Equal(t, model.FieldCity, state.PendingField)
	assert.Contains(t, reply, "De qual cidade você é?")
}

func TestMachineConfirmNegativeAsksWhatToFix(t *testing.T) {
	m := NewMachine(extractorEmpty(), 3)
	state := confirmingState()

	reply, _, err := m.Step(context.Background(), state, "não")

	require.NoError(t, err)
	assert.Equal(t, model.StateConfirm, state.MachineState)
	assert.Contains(t, reply, "Qual informação precisa ser ajustada?")
}

func TestMachineConfirmAmbiguousReasks(t *testing.T) {
	m := NewMachine(extractorEmpty(), 3)
	state := confirmingState()

	reply, _, err := m.Step(context.Background(), state, "talvez depois")

	require.NoError(t, err)
	assert.Equal(t, model.StateConfirm, state.MachineState)
	assert.Contains(t, reply, "Está tudo certo?")
}

func TestMachineConfirmMixedAnswerPrefersCorrection(t *testing.T) {
	m := NewMachine(extractorEmpty(), 3)
	state := confirmingState()

	_, _, err := m.Step(context.Background(), state, "sim, mas o estilo está errado")

	require.NoError(t, err)
	assert.Equal(t, model.StateCollect, state.MachineState)
	assert.Empty(t, state.Record.PrimaryGenre)
}

func TestMachineTerminalStatesAnswerWithoutExtraction(t *testing.T) {
	ex := extractorEmpty()
	m := NewMachine(ex, 3)

	done := completedState("5511999990000", "tenant-1")
	reply, _, err := m.Step(context.Background(), done, "oi")
	require.NoError(t, err)
	assert.Contains(t, reply, "já estão completos")

	abandoned := collectingState("5511999990000", "tenant-1", 3)
	abandoned.MachineState = model.StateAbandoned
	reply, _, err = m.Step(context.Background(), abandoned, "oi")
	require.NoError(t, err)
	assert.Contains(t, reply, "Guardei o que você já me passou")

	assert.Zero(t, ex.callCount())
}

func confirmingState() *model.ConversationState {
	state := model.NewConversationState("5511999990000", "tenant-1")
	state.Record.ArtistName = "Rio Sol"
	state.Record.PrimaryGenre = "rock"
	state.Record.City = "Bragança"
	state.MachineState = model.StateConfirm
	state.Strategy = model.StrategyGraph
	state.GraphAttemptCount = 2
	return state
}
