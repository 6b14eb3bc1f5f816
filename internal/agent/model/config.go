package model

// ================ Config ================
type ConversationConfig struct {
	TTL string `envconfig:"CONVERSATION_TTL" default:"72h"`
}

type ExtractionModelConfig struct {
	GeminiModel    string  `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
	OpenAIModel    string  `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	AnthropicModel string  `envconfig:"ANTHROPIC_MODEL" default:"claude-3-5-haiku-latest"`
	MaxTokens      int     `envconfig:"EXTRACTION_MAX_TOKENS" default:"1024"`
	Temperature    float32 `envconfig:"EXTRACTION_TEMPERATURE" default:"0.1"`
	// BotName is the assistant's own display name; it must never be accepted
	// as an extracted artist name.
	BotName string `envconfig:"BOT_DISPLAY_NAME" default:"WIP"`
	// VerboseCallbacks attaches prompt/model lifecycle observers to every
	// extraction run. Development only.
	VerboseCallbacks bool `envconfig:"EXTRACTION_VERBOSE_CALLBACKS" default:"false"`
}

type BudgetConfig struct {
	// ProviderTimeout bounds one completion call. ReplyWindow bounds the whole
	// turn; it has to stay under the channel's response deadline.
	ProviderTimeout string `envconfig:"EXTRACTION_PROVIDER_TIMEOUT" default:"4s"`
	ReplyWindow     string `envconfig:"REPLY_WINDOW" default:"12s"`
	AttemptCeiling  int    `envconfig:"COLLECT_ATTEMPT_CEILING" default:"3"`
}
