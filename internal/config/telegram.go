package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/parley/pkg/log"
)

type TelegramConfig struct {
	Token string `env:"PARLEY_TELEGRAM_TOKEN,required,notEmpty"`

	// AllowedID restricts the bot to one Telegram user when non-zero.
	AllowedID int64 `env:"PARLEY_TELEGRAM_ALLOWED_ID"`
}

func NewTelegramConfig(ctx context.Context) *TelegramConfig {
	c := &TelegramConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Telegram config")
	}
	return c
}
