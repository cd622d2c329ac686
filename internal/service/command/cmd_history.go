package command

import (
	"context"
	"fmt"

	"github.com/sandevgo/parley/internal/core"
)

type historyReader interface {
	History(ctx context.Context, ownerID, reportID string) (*core.Conversation, error)
}

// HistoryCommand shows where the conversation for the active report
// stands: how many messages, which phases are summarized.
type HistoryCommand struct {
	chat      historyReader
	state     activeReportReader
	formatter *ResponseFormatter
}

func NewHistoryCommand(
	chat historyReader,
	state activeReportReader,
) *HistoryCommand {
	return &HistoryCommand{
		chat:      chat,
		state:     state,
		formatter: NewResponseFormatter(),
	}
}

func (c *HistoryCommand) Name() string {
	return "history"
}

func (c *HistoryCommand) Description() string {
	return "Show conversation progress for the active report"
}

func (c *HistoryCommand) Execute(ctx context.Context, sessionID string, args []string) (string, error) {
	reportID := c.state.ActiveReport(sessionID)
	if reportID == "" {
		return c.formatter.Tip("No active report. Pick one with `/report use [id]` first."), nil
	}

	conv, err := c.chat.History(ctx, sessionID, reportID)
	if err != nil {
		return "", fmt.Errorf("failed to load history: %w", err)
	}

	if len(conv.Messages) == 0 {
		return c.formatter.Combine(
			c.formatter.Info("Conversation"),
			c.formatter.Tip("Nothing yet. Send a message to start."),
		), nil
	}

	items := make([]string, 0, len(conv.Phases))
	for _, p := range conv.Phases {
		items = append(items, fmt.Sprintf("Phase %d: %s", p.Number, p.Summary))
	}

	sections := []string{
		c.formatter.Info("Conversation"),
		c.formatter.Label("Report", reportID),
		c.formatter.Label("Messages", fmt.Sprintf("%d", len(conv.Messages))),
	}
	if len(items) > 0 {
		sections = append(sections, c.formatter.List(items))
	}

	return c.formatter.Combine(sections...), nil
}
