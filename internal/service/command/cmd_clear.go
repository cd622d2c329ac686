package command

import (
	"context"
	"fmt"
)

type conversationClearer interface {
	Clear(ctx context.Context, ownerID, reportID string) error
}

type activeReportReader interface {
	ActiveReport(sessionID string) string
}

// ClearCommand wipes the conversation for the session's active report.
type ClearCommand struct {
	chat      conversationClearer
	state     activeReportReader
	formatter *ResponseFormatter
}

func NewClearCommand(
	chat conversationClearer,
	state activeReportReader,
) *ClearCommand {
	return &ClearCommand{
		chat:      chat,
		state:     state,
		formatter: NewResponseFormatter(),
	}
}

func (c *ClearCommand) Name() string {
	return "clear"
}

func (c *ClearCommand) Description() string {
	return "Erase the conversation for the active report"
}

func (c *ClearCommand) Execute(ctx context.Context, sessionID string, args []string) (string, error) {
	reportID := c.state.ActiveReport(sessionID)
	if reportID == "" {
		return c.formatter.Tip("No active report. Pick one with `/report use [id]` first."), nil
	}

	if err := c.chat.Clear(ctx, sessionID, reportID); err != nil {
		return "", fmt.Errorf("failed to clear conversation: %w", err)
	}

	return c.formatter.Success(fmt.Sprintf("Conversation for `%s` erased", reportID)), nil
}
