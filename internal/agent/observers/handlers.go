package observers

import (
	"context"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"
)

// NewExtractionCallbacks aggregates the prompt and model observer handlers
// into one callbacks.Handler.
func NewExtractionCallbacks() einocb.Handler {
	return callbackHelper.NewHandlerHelper().
		ChatModel(newModelHandler()).
		Prompt(newPromptHandler()).
		Handler()
}

// WithPromptRun injects the observers for a standalone prompt render. Eino
// components run outside a composed graph only see handlers carried this way.
func WithPromptRun(ctx context.Context, name string) context.Context {
	return einocb.InitCallbacks(ctx, &einocb.RunInfo{
		Name:      name,
		Component: components.ComponentOfPrompt,
	}, NewExtractionCallbacks())
}

// WithModelRun injects the observers for a standalone chat model call.
func WithModelRun(ctx context.Context, name string) context.Context {
	return einocb.InitCallbacks(ctx, &einocb.RunInfo{
		Name:      name,
		Component: components.ComponentOfChatModel,
	}, NewExtractionCallbacks())
}
