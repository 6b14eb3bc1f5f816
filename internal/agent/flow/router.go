package flow

import (
	"strings"

	"github.com/palco-live/cadastro/internal/agent/model"
)

// Command is an inline instruction handled before any strategy runs.
type Command int

const (
	CommandNone Command = iota
	CommandReset
	CommandStatus
)

var (
	resetCommands  = []string{"/reiniciar", "/restart", "reiniciar"}
	statusCommands = []string{"/status", "status"}

	// updateVerbs mark a completed user's message as a change request rather
	// than a menu choice. Bare nouns like "dados" stay on the fast path.
	updateVerbs = []string{"atualizar", "mudar", "alterar", "corrigir", "editar", "trocar"}
)

// Router picks how one inbound message is processed. It never blocks and
// never consults a completion provider.
type Router struct{}

// Command matches the message against the special commands. Exact match
// only, case and accent insensitive.
func (Router) Command(text string) Command {
	norm := normalizeText(text)
	for _, c := range resetCommands {
		if norm == c {
			return CommandReset
		}
	}
	for _, c := range statusCommands {
		if norm == c {
			return CommandStatus
		}
	}
	return CommandNone
}

// Classify picks the strategy for one inbound message. fresh marks an
// identity seen for the first time on this message. First match wins:
// fresh or just-abandoned identities restart through NEW, completed
// registrations split between UPDATE (change request) and FAST (everything
// else), and open collections continue on the stateful graph.
func (Router) Classify(state *model.ConversationState, fresh bool, text string) model.Strategy {
	if fresh {
		return model.StrategyNew
	}
	if state.MachineState == model.StateAbandoned {
		return model.StrategyNew
	}
	if state.Record.Completed {
		if hasUpdateSignal(text) {
			return model.StrategyUpdate
		}
		return model.StrategyFast
	}
	return model.StrategyGraph
}

func hasUpdateSignal(text string) bool {
	norm := normalizeText(text)
	for _, verb := range updateVerbs {
		if strings.Contains(norm, verb) {
			return true
		}
	}
	// A handle or URL is an update payload on its own.
	return strings.Contains(norm, "@") || strings.Contains(norm, "http")
}

// normalizeText lowercases, trims and folds pt-BR accents so keyword
// matching works however the user types.
func normalizeText(s string) string {
	return accentFolder.Replace(strings.ToLower(strings.TrimSpace(s)))
}

var accentFolder = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ã", "a",
	"é", "e", "ê", "e",
	"í", "i",
	"ó", "o", "ô", "o", "õ", "o",
	"ú", "u", "ü", "u",
	"ç", "c",
)
