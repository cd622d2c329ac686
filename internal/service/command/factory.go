package command

import (
	"github.com/sandevgo/parley/internal/core"
	"github.com/sandevgo/parley/internal/service/chat"
	"github.com/sandevgo/parley/internal/service/state"
)

func NewCommands(
	cfg core.ProviderConfig,
	globalState *state.GlobalState,
	reports core.ReportRepository,
	chatSvc *chat.Service,
) []core.Command {
	return []core.Command{
		NewModelCommand(cfg, globalState),
		NewReportCommand(reports, globalState),
		NewClearCommand(chatSvc, globalState),
		NewHistoryCommand(chatSvc, globalState),
	}
}
