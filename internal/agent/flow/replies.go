package flow

import (
	"fmt"
	"strings"

	"github.com/palco-live/cadastro/internal/agent/model"
)

// Canned pt-BR replies. Every deterministic answer the engines send lives
// here so the wording stays in one place; engines only pick which builder
// to call.

func venueName(tenant *model.TenantContext) string {
	if tenant == nil || tenant.DisplayName == "" {
		return "nossa casa"
	}
	return tenant.DisplayName
}

func welcomeReply(botName string, tenant *model.TenantContext) string {
	return fmt.Sprintf(
		"Olá! Sou a %s, assistente virtual da %s 🍺\n\n"+
			"Vamos cadastrar você para tocar aqui na casa?\n"+
			"Para começar, qual é o seu nome ou nome da sua banda?",
		botName, venueName(tenant))
}

func menuReply(botName, artistName string, tenant *model.TenantContext) string {
	greeting := "Olá!"
	if artistName != "" {
		greeting = fmt.Sprintf("Olá %s!", artistName)
	}
	return fmt.Sprintf(
		"%s %s da %s aqui 🍺\n\n"+
			"Como posso ajudar hoje?\n\n"+
			"📅 **Agenda** - ver datas disponíveis para shows\n"+
			"📝 **Dados** - atualizar suas informações\n"+
			"🏠 **Casa** - saber mais sobre a casa\n\n"+
			"O que você gostaria?",
		greeting, botName, venueName(tenant))
}

func agendaReply(tenant *model.TenantContext) string {
	// Canned schedule; booking data is outside the conversation core.
	return fmt.Sprintf(
		"📅 **Agenda da %s**\n\n"+
			"Próximas datas disponíveis para shows:\n\n"+
			"• Sexta 23/08 - 20h às 23h\n"+
			"• Sábado 24/08 - 21h às 00h\n"+
			"• Sexta 30/08 - 20h às 23h\n\n"+
			"Interessado em alguma data? Me diga qual você prefere!",
		venueName(tenant))
}

func dadosReply(record model.RegistrationRecord) string {
	var b strings.Builder
	b.WriteString("📝 **Atualização de Dados**\n\nSeus dados atuais:\n")
	fmt.Fprintf(&b, "• Nome: %s\n", orMissing(record.ArtistName))
	fmt.Fprintf(&b, "• Cidade: %s\n", orMissing(record.City))
	fmt.Fprintf(&b, "• Estilo: %s\n", orMissing(record.PrimaryGenre))
	writeLinkLines(&b, record.SocialLinks)
	b.WriteString("\nO que você gostaria de atualizar?")
	return b.String()
}

func casaReply(tenant *model.TenantContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏠 **%s**\n\n", venueName(tenant))
	if tenant != nil && tenant.City != "" {
		fmt.Fprintf(&b, "📍 Cidade: %s\n", tenant.City)
	}
	b.WriteString("🕐 Funcionamento: Qui-Dom, 18h às 00h\n")
	b.WriteString("🎸 Shows: Sex e Sáb, a partir das 20h\n")
	b.WriteString("🍺 Cervejas artesanais e petiscos\n\n")
	b.WriteString("Ambiente acolhedor para música ao vivo!\n")
	b.WriteString("Focamos em rock, MPB e música autoral.\n\n")
	b.WriteString("Algo mais que você gostaria de saber?")
	return b.String()
}

func didNotUnderstandReply() string {
	return "Desculpe, não entendi. Você pode me dizer se quer:\n\n" +
		"• Ver a **agenda** de shows\n" +
		"• Atualizar seus **dados**\n" +
		"• Saber mais sobre a **casa**\n\n" +
		"Como posso ajudar?"
}

// directAskReply asks plainly for one field, with no acknowledgment prefix.
func directAskReply(field model.Field) string {
	switch field {
	case model.FieldName:
		return "Qual é o seu nome ou nome da sua banda?"
	case model.FieldGenre:
		return "Qual é o seu estilo musical principal?\n(Rock, MPB, Samba, Pop, Sertanejo, etc)"
	case model.FieldCity:
		return "De qual cidade você é?"
	case model.FieldLinks:
		return "Se quiser, me envie seu Instagram (com @), YouTube ou Spotify:"
	}
	return didNotUnderstandReply()
}

// askNextReply acknowledges what the last message contributed and asks for
// the first field still missing.
func askNextReply(delta model.RecordDelta, record model.RegistrationRecord) string {
	var b strings.Builder
	switch {
	case delta.ArtistName != "" && record.ArtistName != "":
		fmt.Fprintf(&b, "Prazer, %s! 🎸\n\n", record.ArtistName)
	case delta.PrimaryGenre != "" && record.PrimaryGenre != "":
		fmt.Fprintf(&b, "Legal! %s é um ótimo estilo! 🎵\n\n", record.PrimaryGenre)
	case delta.City != "" && record.City != "":
		fmt.Fprintf(&b, "Ótimo! Cidade: %s\n\n", record.City)
	}
	b.WriteString(directAskReply(record.NextMissing()))
	return b.String()
}

func emptyDeltaReply(field model.Field) string {
	return "Desculpe, não consegui processar sua mensagem.\n\n" + directAskReply(field)
}

func completionReply(record model.RegistrationRecord, userIdentity string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎉 Perfeito, %s! Cadastro concluído!\n\n", record.ArtistName)
	b.WriteString("📋 Resumo:\n")
	fmt.Fprintf(&b, "• Nome: %s\n", record.ArtistName)
	fmt.Fprintf(&b, "• Estilo: %s\n", orMissing(record.PrimaryGenre))
	fmt.Fprintf(&b, "• Cidade: %s\n", orMissing(record.City))
	fmt.Fprintf(&b, "• WhatsApp: %s\n", userIdentity)
	writeLinkLines(&b, record.SocialLinks)
	b.WriteString("\nVocê já está em nosso sistema! 🍺\n\n")
	if len(record.SocialLinks) == 0 {
		b.WriteString("Se quiser, me envie depois seu Instagram (com @), YouTube ou Spotify.\n\n")
	}
	b.WriteString("Como posso ajudar?\n\n")
	b.WriteString("📅 **Agenda** - ver datas disponíveis\n")
	b.WriteString("📝 **Dados** - atualizar informações\n")
	b.WriteString("🏠 **Casa** - sobre a casa")
	return b.String()
}

func confirmSummaryReply(record model.RegistrationRecord) string {
	var b strings.Builder
	b.WriteString("Deixa eu confirmar o que anotei:\n\n📋 Resumo:\n")
	fmt.Fprintf(&b, "• Nome: %s\n", record.ArtistName)
	fmt.Fprintf(&b, "• Estilo: %s\n", record.PrimaryGenre)
	fmt.Fprintf(&b, "• Cidade: %s\n", record.City)
	writeLinkLines(&b, record.SocialLinks)
	b.WriteString("\nEstá tudo certo? Responda *sim* para confirmar, " +
		"ou me diga o que corrigir (nome, estilo ou cidade).")
	return b.String()
}

func correctionAskReply(field model.Field) string {
	return "Sem problemas, vamos corrigir!\n\n" + directAskReply(field)
}

func askWhatToFixReply() string {
	return "Vamos corrigir isso juntos. Qual informação precisa ser ajustada? (nome, estilo ou cidade)"
}

func abandonReply(artistName string) string {
	prefix := "Tive dificuldade em entender as últimas mensagens 😅"
	if artistName != "" {
		prefix = fmt.Sprintf("%s, tive dificuldade em entender as últimas mensagens 😅", artistName)
	}
	return prefix + "\n\nGuardei o que você já me passou. " +
		"Quando quiser continuar o cadastro, é só mandar outra mensagem!"
}

func completedAlreadyReply(artistName string) string {
	greeting := "Seus dados já estão completos!"
	if artistName != "" {
		greeting = fmt.Sprintf("Seus dados já estão completos, %s!", artistName)
	}
	return greeting + " Como posso ajudar?\n\n" +
		"📅 **Agenda** - ver datas disponíveis\n" +
		"📝 **Dados** - atualizar informações\n" +
		"🏠 **Casa** - sobre a casa"
}

func updateAppliedReply(record model.RegistrationRecord) string {
	var b strings.Builder
	b.WriteString("Prontinho! Dados atualizados 🎉\n\n📋 Resumo:\n")
	fmt.Fprintf(&b, "• Nome: %s\n", orMissing(record.ArtistName))
	fmt.Fprintf(&b, "• Estilo: %s\n", orMissing(record.PrimaryGenre))
	fmt.Fprintf(&b, "• Cidade: %s\n", orMissing(record.City))
	writeLinkLines(&b, record.SocialLinks)
	b.WriteString("\nAlgo mais que você gostaria de atualizar?")
	return b.String()
}

func updateUnavailableReply(artistName string) string {
	prefix := "Não consegui identificar os dados na sua mensagem."
	if artistName != "" {
		prefix = fmt.Sprintf("%s, não consegui identificar os dados na sua mensagem.", artistName)
	}
	return prefix + "\n\nPor favor, me envie assim:\n" +
		"• Instagram: @seu_usuario\n" +
		"• Cidade: sua cidade\n" +
		"• Estilo: seu estilo musical\n\n" +
		"Pode me enviar o que quer atualizar?"
}

func resetReply() string {
	return "Conversa reiniciada! Vamos começar seu cadastro do zero. " +
		"Qual é o seu nome ou nome da sua banda?"
}

func statusReply(state *model.ConversationState) string {
	filled := len(requiredFieldsTotal) - len(state.Record.MissingRequired())
	pct := filled * 100 / len(requiredFieldsTotal)
	return fmt.Sprintf(
		"Status do seu cadastro:\n- Progresso: %d%%\n- Etapa atual: %s\n- Tentativas: %d",
		pct, stageLabel(state.MachineState), state.GraphAttemptCount)
}

// requiredFieldsTotal mirrors the collection order used by the record.
var requiredFieldsTotal = []model.Field{model.FieldName, model.FieldGenre, model.FieldCity}

func stageLabel(s model.MachineState) string {
	switch s {
	case model.StateCollect:
		return "coleta de dados"
	case model.StateConfirm:
		return "confirmação"
	case model.StateDone:
		return "concluído"
	case model.StateAbandoned:
		return "abandonado"
	}
	return string(s)
}

func saveRetryReply(artistName string) string {
	prefix := "Ops!"
	if artistName != "" {
		prefix = fmt.Sprintf("Ops, %s!", artistName)
	}
	return prefix + " Tive um probleminha ao salvar seu cadastro.\n\n" +
		"Pode tentar novamente em alguns instantes?"
}

func genericTroubleReply() string {
	return "Desculpe, tive um problema. Pode repetir?"
}

func orMissing(v string) string {
	if v == "" {
		return "Não informado"
	}
	return v
}

var platformTitles = map[string]string{
	"instagram":  "Instagram",
	"youtube":    "YouTube",
	"spotify":    "Spotify",
	"soundcloud": "SoundCloud",
	"bandcamp":   "Bandcamp",
}

func platformTitle(platform string) string {
	if t, ok := platformTitles[strings.ToLower(platform)]; ok {
		return t
	}
	if platform == "" {
		return platform
	}
	return strings.ToUpper(platform[:1]) + platform[1:]
}

func writeLinkLines(b *strings.Builder, links []model.SocialLink) {
	for _, l := range links {
		fmt.Fprintf(b, "• %s: %s\n", platformTitle(l.Platform), l.URL)
	}
}
