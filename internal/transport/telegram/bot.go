package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/parley/internal/config"
	"github.com/sandevgo/parley/internal/core"
	"github.com/sandevgo/parley/internal/service/chat"
	"github.com/sandevgo/parley/internal/service/notify"
	"github.com/sandevgo/parley/internal/service/state"
	"github.com/sandevgo/parley/pkg/log"
	tele "gopkg.in/telebot.v3"
)

const baseContextKey = "base_context"

const sessionPrefix = "telegram-"

type Bot struct {
	bot    *tele.Bot
	cfg    *config.TelegramConfig
	chat   *chat.Service
	router core.CmdRouter
	state  *state.GlobalState
	hub    *notify.Hub
	sender *sender

	unsubscribe func()
}

func NewBot(
	ctx context.Context,
	cfg *config.TelegramConfig,
	chatSvc *chat.Service,
	router core.CmdRouter,
	globalState *state.GlobalState,
	hub *notify.Hub,
) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	bot := &Bot{
		bot:    b,
		cfg:    cfg,
		chat:   chatSvc,
		router: router,
		state:  globalState,
		hub:    hub,
		sender: newSender(b),
	}

	// Use context from Signal with logger
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			c.Set(baseContextKey, ctx)
			return next(c)
		}
	})

	// Middleware: restrict to the configured user when set
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if cfg.AllowedID != 0 && c.Sender().ID != cfg.AllowedID {
				return nil // Ignore unauthorized users
			}
			return next(c)
		}
	})

	b.Handle(tele.OnText, bot.handleMessage)

	return bot, nil
}

func (b *Bot) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Msg("starting telegram bot")

	if b.hub != nil {
		events, cancel := b.hub.Subscribe()
		b.unsubscribe = cancel
		go b.watchEvents(ctx, events)
	}

	b.bot.Start()
	return nil
}

func (b *Bot) Shutdown(ctx context.Context) error {
	if b.unsubscribe != nil {
		b.unsubscribe()
	}
	b.bot.Stop()
	return nil
}

// watchEvents pushes phase-completion notices outside the reply flow so
// the user sees when a block of the conversation got archived.
func (b *Bot) watchEvents(ctx context.Context, events <-chan core.Event) {
	for event := range events {
		if event.PhaseCompleted == nil {
			continue
		}
		chatID, ok := sessionChatID(event.OwnerID)
		if !ok {
			continue
		}
		notice := fmt.Sprintf("📘 **Phase %d archived**\n\n%s",
			event.PhaseCompleted.Number, event.PhaseCompleted.Summary)
		if err := b.sender.sendMarkdown(ctx, tele.ChatID(chatID), notice, true); err != nil {
			log.FromCtx(ctx).Error().Err(err).Int64("chat_id", chatID).Msg("failed to send phase notice")
		}
	}
}

func (b *Bot) handleMessage(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	logger := log.FromCtx(ctx)
	sessionID := fmt.Sprintf("%s%d", sessionPrefix, c.Chat().ID)

	text := strings.TrimSpace(c.Text())

	if out, handled := b.router.Execute(ctx, sessionID, text); handled {
		return b.sender.sendMarkdown(ctx, c.Chat(), out, false)
	}

	reportID := b.state.ActiveReport(sessionID)
	if reportID == "" {
		return b.sender.sendMarkdown(ctx, c.Chat(),
			"No active report. Use `/report list` and `/report use [id]` to pick one.", false)
	}

	// Notify user we are working
	_ = c.Notify(tele.Typing)

	result, err := b.chat.HandleTurn(ctx, sessionID, reportID, text)
	if err != nil {
		logger.Error().Err(err).Str("session_id", sessionID).Msg("turn failed")
		return c.Send(fmt.Sprintf("error: %v", err))
	}

	return b.sender.sendMarkdown(ctx, c.Chat(), result.Reply, false)
}
