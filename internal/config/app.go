package config

import (
	"context"
	"path/filepath"

	"github.com/caarlos0/env/v9"
	"github.com/sandevgo/parley/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"PARLEY_RUNTIME_PATH" envDefault:".parley"`

	// Transport Flags
	EnableTelegram bool `env:"PARLEY_ENABLE_TELEGRAM" envDefault:"false"`
	EnableCLI      bool `env:"PARLEY_ENABLE_CLI" envDefault:"true"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "parley.db")
}

func (c AppConfig) GetEnvPath() string {
	return filepath.Join(c.RuntimePath, ".env")
}

func (c AppConfig) IsTelegramSelected() bool {
	return c.EnableTelegram
}

func (c AppConfig) IsCLISelected() bool {
	return c.EnableCLI
}
