package flow

import (
	"strings"

	"github.com/palco-live/cadastro/internal/agent/model"
)

// menuIntent is the fast-path decision: one of the canned menu options or
// unknown.
type menuIntent int

const (
	intentUnknown menuIntent = iota
	intentGreeting
	intentAgenda
	intentDados
	intentCasa
)

var (
	greetingWords = []string{"oi", "ola", "hello", "hi"}
	agendaWords   = []string{"agenda", "show", "tocar", "data", "quando", "disponivel", "sexta", "sabado", "apresentar"}
	dadosWords    = []string{"dados", "atualizar", "mudar", "alterar", "instagram", "spotify", "youtube", "corrigir", "editar"}
	casaWords     = []string{"casa", "cervejaria", "info", "informacao", "local", "endereco", "onde", "horario", "funciona"}
)

// FastPath answers completed registrations from a keyword decision table.
// It never calls a completion provider and never mutates the record, so the
// same message against the same state always yields the same reply.
type FastPath struct {
	botName string
}

func NewFastPath(botName string) *FastPath {
	return &FastPath{botName: botName}
}

func (f *FastPath) Handle(state *model.ConversationState, tenant *model.TenantContext, text string) string {
	switch detectMenuIntent(text) {
	case intentGreeting:
		return menuReply(f.botName, state.Record.ArtistName, tenant)
	case intentAgenda:
		return agendaReply(tenant)
	case intentDados:
		return dadosReply(state.Record)
	case intentCasa:
		return casaReply(tenant)
	default:
		return didNotUnderstandReply()
	}
}

// detectMenuIntent counts keyword hits per category and keeps the category
// with the most. Ties resolve agenda, then dados, then casa. Greetings are
// exact matches only so "oi, quero ver a agenda" still lands on agenda.
func detectMenuIntent(text string) menuIntent {
	norm := normalizeText(text)
	if norm == "" {
		return intentUnknown
	}
	for _, g := range greetingWords {
		if norm == g {
			return intentGreeting
		}
	}

	agenda := countMatches(norm, agendaWords)
	dados := countMatches(norm, dadosWords)
	casa := countMatches(norm, casaWords)

	max := agenda
	if dados > max {
		max = dados
	}
	if casa > max {
		max = casa
	}
	if max == 0 {
		return intentUnknown
	}
	switch {
	case agenda == max:
		return intentAgenda
	case dados == max:
		return intentDados
	default:
		return intentCasa
	}
}

func countMatches(norm string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(norm, w) {
			n++
		}
	}
	return n
}
