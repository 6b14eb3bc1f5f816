package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/palco-live/cadastro/internal/agent/model"
)

//go:embed template/extraction_prompt.txt
var extractionSystemPrompt string

// RenderExtractionSystem renders the extraction system prompt via the Eino
// prompt component. This triggers Prompt callbacks and returns the final
// system prompt string.
func RenderExtractionSystem(ctx context.Context, cfg *model.ExtractionModelConfig) (string, error) {
	if cfg == nil {
		return "", fmt.Errorf("extraction config is nil")
	}

	// Safely render known tokens only to avoid interfering with JSON braces in template
	content := strings.NewReplacer(
		"{bot_name}", cfg.BotName,
	).Replace(extractionSystemPrompt)

	// Wrap via Eino prompt component using a messages placeholder to emit callbacks
	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(content)},
	})
	if err != nil {
		return "", fmt.Errorf("extraction prompt callbacks: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("extraction prompt callbacks: empty result")
	}
	return msgs[0].Content, nil
}

// BuildExtractionContext assembles the user message for one extraction call:
// the already known fields (so the model does not re-ask for them) followed
// by the message to analyze.
func BuildExtractionContext(rawText string, known model.RegistrationRecord) string {
	var b strings.Builder
	b.WriteString("<dados_conhecidos>\n")
	writeKnownField(&b, "nome", known.ArtistName)
	writeKnownField(&b, "estilo_musical", known.PrimaryGenre)
	writeKnownField(&b, "cidade", known.City)
	if len(known.SocialLinks) > 0 {
		platforms := make([]string, 0, len(known.SocialLinks))
		for _, l := range known.SocialLinks {
			platforms = append(platforms, l.Platform)
		}
		b.WriteString("links: " + strings.Join(platforms, ", ") + "\n")
	}
	b.WriteString("</dados_conhecidos>\n")
	b.WriteString("<mensagem_atual>\n")
	b.WriteString(rawText)
	b.WriteString("\n</mensagem_atual>")
	return b.String()
}

func writeKnownField(b *strings.Builder, label, value string) {
	if value == "" {
		b.WriteString(label + ": (faltando)\n")
		return
	}
	b.WriteString(label + ": " + value + "\n")
}
