package config

import (
	"context"
	"fmt"
	"os"
	"sync"

	env11 "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sandevgo/parley/pkg/log"
)

type ProviderConfig struct {
	Provider string `env:"PARLEY_MODEL_PROVIDER" envDefault:"gemini"`
	Model    string `env:"PARLEY_MODEL" envDefault:"gemini-2.5-flash"`

	GeminiAPIKey     string `env:"PARLEY_GEMINI_API_KEY"`
	OpenAIAPIKey     string `env:"PARLEY_OPENAI_API_KEY"`
	OpenRouterAPIKey string `env:"PARLEY_OPENROUTER_API_KEY"`
	OllamaBaseURL    string `env:"PARLEY_OLLAMA_BASE_URL" envDefault:"http://localhost:11434"`
	OllamaAPIKey     string `env:"PARLEY_OLLAMA_API_KEY"`

	mu      sync.RWMutex
	envPath string
}

func NewProviderConfig(ctx context.Context, envPath string) *ProviderConfig {
	c := &ProviderConfig{envPath: envPath}
	if err := env11.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Provider config")
	}
	return c
}

func (c *ProviderConfig) GetProvider() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Provider
}

func (c *ProviderConfig) GetModel() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Model
}

// SetModel switches the active provider/model pair and persists the
// change to the runtime .env file so it survives restarts.
func (c *ProviderConfig) SetModel(provider, model string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Provider = provider
	c.Model = model

	if c.envPath == "" {
		return nil
	}

	// Merge into the existing .env rather than clobbering unrelated keys
	vars, err := godotenv.Read(c.envPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("read %s: %w", c.envPath, err)
		}
		vars = make(map[string]string)
	}
	vars["PARLEY_MODEL_PROVIDER"] = provider
	vars["PARLEY_MODEL"] = model

	if err := godotenv.Write(vars, c.envPath); err != nil {
		return fmt.Errorf("write %s: %w", c.envPath, err)
	}
	return nil
}

func (c *ProviderConfig) GetGeminiAPIKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.GeminiAPIKey
}

func (c *ProviderConfig) GetOpenAIAPIKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.OpenAIAPIKey
}

func (c *ProviderConfig) GetOpenRouterAPIKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.OpenRouterAPIKey
}

func (c *ProviderConfig) GetOllamaAPIKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.OllamaAPIKey
}

func (c *ProviderConfig) GetOllamaBaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.OllamaBaseURL
}
