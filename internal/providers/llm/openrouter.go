package llm

import (
	"github.com/sandevgo/parley/internal/core"
)

type OpenRouter struct {
	*OpenAICompatible
}

func NewOpenRouter(apiKey, model string) *OpenRouter {
	return &OpenRouter{
		OpenAICompatible: NewOpenAICompatible(OpenAICompatibleConfig{
			BaseURL:    "https://openrouter.ai/api",
			APIKey:     apiKey,
			Model:      model,
			AuthHeader: "Authorization",
			AuthPrefix: "Bearer ",
			JSONMode:   true,
			ExtraHeaders: map[string]string{
				"HTTP-Referer": core.ParleyRepositoryURL,
				"X-Title":      core.ParleyName,
			},
		}),
	}
}
