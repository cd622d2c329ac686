package main

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sandevgo/parley/internal/config"
	"github.com/sandevgo/parley/internal/providers/llm"
	"github.com/sandevgo/parley/internal/service/chat"
	"github.com/sandevgo/parley/internal/service/command"
	"github.com/sandevgo/parley/internal/service/notify"
	"github.com/sandevgo/parley/internal/service/state"
	"github.com/sandevgo/parley/internal/storage/sqlite"
	"github.com/sandevgo/parley/internal/transport/cli"
	"github.com/sandevgo/parley/internal/transport/telegram"
	"github.com/sandevgo/parley/pkg/log"
	"github.com/sandevgo/parley/pkg/srv"
)

func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	// init env
	err := initEnv(ctx, config.GetRuntimePath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	providerCfg := config.NewProviderConfig(ctx, appCfg.GetEnvPath())

	// 2. Storage
	db, err := initStorage(ctx, appCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	services = append(services, srv.NewCleanup(db.Close))

	conversationsRepo := sqlite.NewConversationsRepo(db)
	reportsRepo := sqlite.NewReportsRepo(db)

	// 3. AI Provider (hot-swappable via /model)
	aiProvider, err := llm.NewDynamicProvider(ctx, providerCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize LLM provider")
	}

	// 4. Event hub
	hub := notify.NewHub()
	services = append(services, srv.NewCleanup(func() error {
		hub.Close()
		return nil
	}))

	// 5. Chat service
	chatSvc := chat.NewService(conversationsRepo, reportsRepo, aiProvider, hub)

	// 6. Runtime state and chat commands
	globalState := state.NewGlobalState(aiProvider)
	router := command.New(command.NewCommands(providerCfg, globalState, reportsRepo, chatSvc))

	// 7. Transports
	transports, err := initTransports(ctx, appCfg, chatSvc, router, globalState, hub)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize transports")
	}
	services = append(services, transports...)

	return services
}

func initStorage(ctx context.Context, cfg *config.AppConfig) (*sql.DB, error) {
	if err := os.MkdirAll(cfg.GetRuntimePath(), 0755); err != nil {
		return nil, err
	}
	return sqlite.NewDB(ctx, cfg.GetDatabasePath())
}

func initTransports(
	ctx context.Context,
	cfg *config.AppConfig,
	chatSvc *chat.Service,
	router *command.Router,
	globalState *state.GlobalState,
	hub *notify.Hub,
) ([]srv.Service, error) {
	var services []srv.Service

	// Telegram Bot
	if cfg.IsTelegramSelected() {
		tgCfg := config.NewTelegramConfig(ctx)
		bot, err := telegram.NewBot(ctx, tgCfg, chatSvc, router, globalState, hub)
		if err != nil {
			return nil, err
		}
		services = append(services, bot)
	}

	// Local terminal
	if cfg.IsCLISelected() {
		rl, err := cli.NewReadLine(chatSvc, router, globalState, cfg)
		if err != nil {
			return nil, err
		}
		services = append(services, rl)
	}

	return services, nil
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
