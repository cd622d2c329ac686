package installer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

func defaultModel(provider string) string {
	switch provider {
	case "gemini":
		return "gemini-2.5-flash"
	case "openai":
		return "gpt-4o-mini"
	case "openrouter":
		return "openai/gpt-4o-mini"
	case "ollama":
		return "llama3.1"
	default:
		return ""
	}
}

// ModelStep collects the model name, pre-filled with a sensible default
// for the chosen provider.
type ModelStep struct {
	input textinput.Model
	ready bool
}

func NewModelStep() Step {
	return &ModelStep{}
}

func (s *ModelStep) Init() tea.Cmd {
	return func() tea.Msg { return nextMsg{} }
}

func (s *ModelStep) setup(state *InstallState) {
	s.input = textinput.New()
	s.input.Focus()
	s.input.CharLimit = 255
	s.input.Width = 40
	s.input.Placeholder = defaultModel(state.Settings.Provider)
	s.ready = true
}

func (s *ModelStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if !s.ready {
		s.setup(state)
		return s, textinput.Blink
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "enter" {
			model := strings.TrimSpace(s.input.Value())
			if model == "" {
				model = defaultModel(state.Settings.Provider)
			}
			state.Settings.Model = model
			return nil, nil
		}
	}
	return s, cmd
}

func (s *ModelStep) View(state *InstallState) string {
	if !s.ready {
		return "Loading..."
	}
	return fmt.Sprintf("Enter the model name (Enter for %s):\n\n%s\n\n(press enter to confirm)\n",
		defaultModel(state.Settings.Provider), s.input.View())
}
