package command

import (
	"context"
	"fmt"

	"github.com/sandevgo/parley/internal/core"
)

type reportState interface {
	SetActiveReport(sessionID, reportID string)
	ActiveReport(sessionID string) string
}

// ReportCommand lists stored reports and selects the one the session
// talks about.
type ReportCommand struct {
	reports   core.ReportRepository
	state     reportState
	formatter *ResponseFormatter
}

func NewReportCommand(
	reports core.ReportRepository,
	state reportState,
) *ReportCommand {
	return &ReportCommand{
		reports:   reports,
		state:     state,
		formatter: NewResponseFormatter(),
	}
}

func (c *ReportCommand) Name() string {
	return "report"
}

func (c *ReportCommand) Description() string {
	return "List reports or pick the active one"
}

func (c *ReportCommand) Execute(ctx context.Context, sessionID string, args []string) (string, error) {
	if len(args) == 0 || args[0] == "list" {
		return c.list(ctx, sessionID)
	}

	switch args[0] {
	case "use":
		if len(args) < 2 {
			return c.formatter.Usage("/report use [id]"), nil
		}
		return c.use(ctx, sessionID, args[1])
	default:
		return c.formatter.Combine(
			c.formatter.Usage("/report [list|use id]"),
			c.formatter.Examples([]string{
				"/report list",
				"/report use 4f2a",
			}),
		), nil
	}
}

func (c *ReportCommand) list(ctx context.Context, sessionID string) (string, error) {
	reports, err := c.reports.ListReports(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to list reports: %w", err)
	}
	if len(reports) == 0 {
		return c.formatter.Combine(
			c.formatter.Info("Reports"),
			c.formatter.Tip("No reports yet. Add one with `parley report add`."),
		), nil
	}

	active := c.state.ActiveReport(sessionID)
	items := make([]string, 0, len(reports))
	for _, r := range reports {
		marker := ""
		if r.ID == active {
			marker = "  (active)"
		}
		items = append(items, fmt.Sprintf("`%s` — %s%s", r.ID, r.Title, marker))
	}

	return c.formatter.Combine(
		c.formatter.Info("Reports"),
		c.formatter.List(items),
		c.formatter.Tip("Switch with `/report use [id]`."),
	), nil
}

func (c *ReportCommand) use(ctx context.Context, sessionID, reportID string) (string, error) {
	report, err := c.reports.GetReport(ctx, sessionID, reportID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve report %s: %w", reportID, err)
	}

	c.state.SetActiveReport(sessionID, report.ID)

	return c.formatter.Combine(
		c.formatter.Success(fmt.Sprintf("Active report: `%s`", report.ID)),
		c.formatter.Label("Title", report.Title),
	), nil
}
