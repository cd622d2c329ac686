package installer

// Settings maps one to one onto the runtime .env keys.
type Settings struct {
	Provider string `env:"PARLEY_MODEL_PROVIDER"`
	Model    string `env:"PARLEY_MODEL"`

	GeminiAPIKey     string `env:"PARLEY_GEMINI_API_KEY"`
	OpenAIAPIKey     string `env:"PARLEY_OPENAI_API_KEY"`
	OpenRouterAPIKey string `env:"PARLEY_OPENROUTER_API_KEY"`
	OllamaBaseURL    string `env:"PARLEY_OLLAMA_BASE_URL"`
	OllamaAPIKey     string `env:"PARLEY_OLLAMA_API_KEY"`

	EnableTelegram bool `env:"PARLEY_ENABLE_TELEGRAM"`
	EnableCLI      bool `env:"PARLEY_ENABLE_CLI"`

	TelegramToken     string `env:"PARLEY_TELEGRAM_TOKEN"`
	TelegramAllowedID string `env:"PARLEY_TELEGRAM_ALLOWED_ID"`
}

type InstallState struct {
	Settings Settings
}

func NewInstallState() *InstallState {
	return &InstallState{}
}
