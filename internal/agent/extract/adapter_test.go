package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/palco-live/cadastro/internal/core/error"
)

type stubProvider struct {
	name    string
	content string
	err     error
	delay   time.Duration
	calls   int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Complete(ctx context.Context, system, user string) (string, error) {
	s.calls++
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if s.err != nil {
		return "", s.err
	}
	return s.content, nil
}

const goodReply = `{"nome": "Rio Sol", "estilo_musical": "rock", "cidade": "Bragança"}`

func TestAdapterFirstProviderWins(t *testing.T) {
	first := &stubProvider{name: "gemini", content: goodReply}
	second := &stubProvider{name: "openai", content: goodReply}
	a := NewAdapter([]CompletionProvider{first, second}, time.Second, "WIP")

	res, err := a.Extract(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "gemini", res.ProviderUsed)
	assert.Equal(t, "Rio Sol", res.Delta.ArtistName)
	assert.Equal(t, "rock", res.Delta.PrimaryGenre)
	assert.Equal(t, 1, first.calls)
	assert.Zero(t, second.calls)
}

func TestAdapterFallsBackOnTransportError(t *testing.T) {
	first := &stubProvider{name: "gemini", err: errors.New("upstream 500")}
	second := &stubProvider{name: "openai", content: goodReply}
	a := NewAdapter([]CompletionProvider{first, second}, time.Second, "WIP")

	res, err := a.Extract(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "openai", res.ProviderUsed)
	assert.Equal(t, 1, first.calls, "failed provider must not be retried")
}

func TestAdapterFallsBackOnUnparseableReply(t *testing.T) {
	first := &stubProvider{name: "gemini", content: "desculpe, não consegui entender a mensagem"}
	second := &stubProvider{name: "openai", content: goodReply}
	a := NewAdapter([]CompletionProvider{first, second}, time.Second, "WIP")

	res, err := a.Extract(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "openai", res.ProviderUsed)
}

func TestAdapterEmptyDeltaIsSuccess(t *testing.T) {
	first := &stubProvider{name: "gemini", content: `{"confianca": 0.2}`}
	second := &stubProvider{name: "openai", content: goodReply}
	a := NewAdapter([]CompletionProvider{first, second}, time.Second, "WIP")

	res, err := a.Extract(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.True(t, res.Delta.Empty())
	assert.Equal(t, "gemini", res.ProviderUsed)
	assert.Zero(t, second.calls)
}

func TestAdapterExhaustedChain(t *testing.T) {
	first := &stubProvider{name: "gemini", err: errors.New("down")}
	second := &stubProvider{name: "openai", err: errors.New("down too")}
	a := NewAdapter([]CompletionProvider{first, second}, time.Second, "WIP")

	_, err := a.Extract(context.Background(), "sys", "user")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errx.ErrExtractionUnavailable))
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestAdapterStopsWhenWindowSpent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	first := &stubProvider{name: "gemini", content: goodReply}
	a := NewAdapter([]CompletionProvider{first}, time.Second, "WIP")

	_, err := a.Extract(ctx, "sys", "user")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errx.ErrExtractionUnavailable))
	assert.Zero(t, first.calls)
}

func TestAdapterPerCallBudgetCutsSlowProvider(t *testing.T) {
	slow := &stubProvider{name: "gemini", content: goodReply, delay: 200 * time.Millisecond}
	fast := &stubProvider{name: "openai", content: goodReply}
	a := NewAdapter([]CompletionProvider{slow, fast}, 20*time.Millisecond, "WIP")

	res, err := a.Extract(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "openai", res.ProviderUsed)
	assert.Equal(t, 1, slow.calls)
}

func TestAdapterNoProviders(t *testing.T) {
	a := NewAdapter(nil, time.Second, "WIP")

	_, err := a.Extract(context.Background(), "sys", "user")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errx.ErrExtractionUnavailable))
}
