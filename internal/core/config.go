package core

import "context"

type AppConfig interface {
	GetRuntimePath() string
	GetDatabasePath() string
	IsTelegramSelected() bool
	IsCLISelected() bool
}

type ProviderConfig interface {
	GetProvider() string
	GetModel() string
	SetModel(provider, model string) error
	GetGeminiAPIKey() string
	GetOpenAIAPIKey() string
	GetOpenRouterAPIKey() string
	GetOllamaAPIKey() string
	GetOllamaBaseURL() string
}

type GlobalState interface {
	ChangeModel(ctx context.Context, spec string) error
}
