package parsers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/kaptinlin/jsonrepair"

	"github.com/palco-live/cadastro/internal/agent/model"
	errx "github.com/palco-live/cadastro/internal/core/error"
	logx "github.com/palco-live/cadastro/pkg/logger"
)

// basic safety limits to avoid pathological inputs
const (
	maxContentLen = 64 * 1024 // 64KB
	maxFieldLen   = 256       // per extracted field
	maxErrSnippet = 200       // limit error snippet size
)

// DeltaResponse is the parsed outcome of one completion reply.
type DeltaResponse struct {
	Delta           model.RecordDelta
	ConfidenceNotes []string
	ParsingMetadata map[string]any
}

// ParseDeltaResponse turns a completion reply into a registration delta.
// The reply is expected to be a JSON object with the keys nome,
// estilo_musical, cidade, instagram, youtube, spotify and confianca; anything
// else is dropped. An object that cannot be recovered at all fails with
// ErrSchemaValidation so the caller can move to the next provider. A
// recovered object with no usable fields is a valid, empty delta.
func ParseDeltaResponse(content string, botName string) (resp *DeltaResponse, err error) {
	// panic safety
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "delta_parser").Msgf("panic recovered: %v", r)
			err = errx.New(fmt.Errorf("delta parser panic"), http.StatusInternalServerError, errx.SystemErrorMessage)
			resp = nil
		}
	}()

	resp = &DeltaResponse{
		ConfidenceNotes: []string{},
		ParsingMetadata: map[string]any{"parser": "delta"},
	}

	addErr := func(msg string) {
		v, _ := resp.ParsingMetadata["parsing_errors"].([]string)
		v = append(v, msg)
		resp.ParsingMetadata["parsing_errors"] = v
	}

	// content length guard
	if len(content) > maxContentLen {
		logx.Warn().
			Str("component", "delta_parser").
			Int("max_len", maxContentLen).
			Int("orig_len", len(content)).
			Msg("content truncated due to size limit")
		content = content[:maxContentLen]
		resp.ParsingMetadata["truncated"] = true
	}

	raw := extractJSONObject(content)
	if raw == "" {
		return nil, errx.New(
			fmt.Errorf("%w: no json object in reply: %s", errx.ErrSchemaValidation, safeSnippet(content)),
			http.StatusUnprocessableEntity, "unparseable completion reply")
	}

	var fields map[string]any
	if uerr := json.Unmarshal([]byte(raw), &fields); uerr != nil {
		repaired, rerr := jsonrepair.JSONRepair(raw)
		if rerr != nil || json.Unmarshal([]byte(repaired), &fields) != nil {
			return nil, errx.New(
				fmt.Errorf("%w: %v: %s", errx.ErrSchemaValidation, uerr, safeSnippet(raw)),
				http.StatusUnprocessableEntity, "unparseable completion reply")
		}
		resp.ParsingMetadata["repaired"] = true
	}

	var dropped []string
	for key, value := range fields {
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "nome":
			name := cleanField(value)
			if name == "" {
				continue
			}
			if strings.EqualFold(name, botName) {
				addErr("nome: assistant name rejected")
				continue
			}
			resp.Delta.ArtistName = name

		case "estilo_musical":
			resp.Delta.PrimaryGenre = model.NormalizeGenre(cleanField(value))

		case "cidade":
			resp.Delta.City = cleanField(value)

		case "instagram":
			if link, ok := model.NormalizeSocialLink(model.PlatformInstagram, cleanField(value)); ok {
				resp.Delta.SocialLinks = append(resp.Delta.SocialLinks, link)
			} else if cleanField(value) != "" {
				addErr("instagram: unusable link")
			}

		case "youtube":
			if link, ok := model.NormalizeSocialLink(model.PlatformYouTube, cleanField(value)); ok {
				resp.Delta.SocialLinks = append(resp.Delta.SocialLinks, link)
			} else if cleanField(value) != "" {
				addErr("youtube: unusable link")
			}

		case "spotify":
			if link, ok := model.NormalizeSocialLink(model.PlatformSpotify, cleanField(value)); ok {
				resp.Delta.SocialLinks = append(resp.Delta.SocialLinks, link)
			} else if cleanField(value) != "" {
				addErr("spotify: unusable link")
			}

		case "confianca":
			if f, ok := value.(float64); ok && f >= 0 && f <= 1 {
				resp.ConfidenceNotes = append(resp.ConfidenceNotes, fmt.Sprintf("confidence=%.2f", f))
			} else {
				addErr("confianca: out of range")
			}

		default:
			dropped = append(dropped, safeSnippet(key))
		}
	}
	if len(dropped) > 0 {
		resp.ParsingMetadata["dropped_fields"] = dropped
	}

	return resp, nil
}

// extractJSONObject strips markdown fences and isolates the outermost JSON
// object from a completion reply. Returns "" when no object is present.
func extractJSONObject(content string) string {
	content = strings.TrimSpace(content)
	if after, ok := strings.CutPrefix(content, "```json"); ok {
		content = after
	} else if after, ok := strings.CutPrefix(content, "```"); ok {
		content = after
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return ""
	}
	return content[start : end+1]
}

// cleanField normalises a decoded JSON value into a bounded, trimmed string.
func cleanField(value any) string {
	s, ok := value.(string)
	if !ok {
		return ""
	}
	s = strings.Join(strings.Fields(s), " ")
	if !utf8.ValidString(s) {
		return ""
	}
	if len(s) > maxFieldLen {
		s = s[:maxFieldLen]
		for len(s) > 0 && !utf8.ValidString(s) {
			s = s[:len(s)-1]
		}
	}
	return strings.TrimSpace(s)
}

// --- helpers ---

func safeSnippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxErrSnippet {
		return s
	}
	return s[:maxErrSnippet]
}
