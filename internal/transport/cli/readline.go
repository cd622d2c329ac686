package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/sandevgo/parley/internal/config"
	"github.com/sandevgo/parley/internal/core"
	"github.com/sandevgo/parley/internal/service/chat"
	"github.com/sandevgo/parley/internal/service/state"
	"github.com/sandevgo/parley/pkg/log"
)

// DefaultSessionID is the owner identity for the local terminal session.
const DefaultSessionID = "cli-local"

type ReadLine struct {
	cfg    *config.AppConfig
	chat   *chat.Service
	router core.CmdRouter
	state  *state.GlobalState
	rl     *readline.Instance
}

func NewReadLine(
	chatSvc *chat.Service,
	router core.CmdRouter,
	globalState *state.GlobalState,
	cfg *config.AppConfig,
) (*ReadLine, error) {
	// Ensure runtime directory exists
	if err := os.MkdirAll(cfg.RuntimePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     filepath.Join(cfg.RuntimePath, "input_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	return &ReadLine{
		cfg:    cfg,
		chat:   chatSvc,
		router: router,
		state:  globalState,
		rl:     rl,
	}, nil
}

func (r *ReadLine) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Msg("ReadLine chat started. Type 'exit' to quit.")

	for {
		// Check context before blocking read
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := r.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if len(line) == 0 {
					return nil // Exit on Ctrl+C
				}
				continue
			} else if err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "exit" {
			return nil
		}
		if line == "" {
			continue
		}

		if out, handled := r.router.Execute(ctx, DefaultSessionID, line); handled {
			fmt.Fprintf(r.rl.Stdout(), "%s\n", out)
			continue
		}

		reportID := r.state.ActiveReport(DefaultSessionID)
		if reportID == "" {
			fmt.Fprintln(r.rl.Stdout(), "No active report. Use /report list and /report use [id] to pick one.")
			continue
		}

		result, err := r.chat.HandleTurn(ctx, DefaultSessionID, reportID, line)
		if err != nil {
			logger.Error().Err(err).Msg("turn failed")
			fmt.Fprintf(r.rl.Stdout(), "Error: %v\n", err)
			continue
		}

		fmt.Fprintf(r.rl.Stdout(), "%s\n", result.Reply)
		if result.PhaseCompleted != nil {
			fmt.Fprintf(r.rl.Stdout(), "\033[38;5;240m[Phase %d archived] %s\033[0m\n",
				result.PhaseCompleted.Number, result.PhaseCompleted.Summary)
		}
	}
}

func (r *ReadLine) Shutdown(ctx context.Context) error {
	if r.rl != nil {
		return r.rl.Close()
	}
	return nil
}
