// Package ui provides the interactive session picker shown by `revisit tui`.
package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ciciliostudio/revisit/internal/session"
)

// SessionsReloadedMsg replaces the picker's session list while it is on
// screen, sent when the session directory changes underneath the TUI
type SessionsReloadedMsg struct {
	Sessions []session.Summary
}

// ErrPickerCancelled is returned when the user backs out without choosing
type ErrPickerCancelled struct{}

func (e ErrPickerCancelled) Error() string {
	return "selection cancelled"
}

// PickerModel lets the user choose one saved session
type PickerModel struct {
	title       string
	sessions    []session.Summary
	cursor      int
	selected    string
	showDetails bool
	finished    bool
	cancelled   bool
	width       int
	height      int

	filter    textinput.Model
	filtering bool

	titleStyle  lipgloss.Style
	optionStyle lipgloss.Style
	cursorStyle lipgloss.Style
	detailStyle lipgloss.Style
	emptyStyle  lipgloss.Style
	helpStyle   lipgloss.Style
}

// NewPickerModel creates a picker over the given session summaries
func NewPickerModel(title string, sessions []session.Summary) *PickerModel {
	filter := textinput.New()
	filter.Prompt = "/"
	filter.Placeholder = "filter"
	filter.CharLimit = 64

	return &PickerModel{
		title:    title,
		sessions: sessions,
		filter:   filter,
		width:    80,
		height:   20,

		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")).
			MarginBottom(1),

		optionStyle: lipgloss.NewStyle().
			PaddingLeft(2),

		cursorStyle: lipgloss.NewStyle().
			PaddingLeft(0).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true),

		detailStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			PaddingLeft(4),

		emptyStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Italic(true),

		helpStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			MarginTop(1),
	}
}

// Selected returns the name of the chosen session
func (m PickerModel) Selected() string {
	return m.selected
}

// IsCancelled returns true if the picker was dismissed without choosing
func (m PickerModel) IsCancelled() bool {
	return m.cancelled
}

// Init initializes the picker model
func (m PickerModel) Init() tea.Cmd {
	return nil
}

// visible returns the sessions matching the current filter
func (m PickerModel) visible() []session.Summary {
	query := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	if query == "" {
		return m.sessions
	}

	var matched []session.Summary
	for _, s := range m.sessions {
		if strings.Contains(strings.ToLower(s.Name), query) {
			matched = append(matched, s)
		}
	}
	return matched
}

func (m PickerModel) clampCursor() int {
	cursor := m.cursor
	if max := len(m.visible()) - 1; cursor > max {
		cursor = max
	}
	if cursor < 0 {
		cursor = 0
	}
	return cursor
}

// Update handles picker model updates
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.filtering {
			switch msg.String() {
			case "ctrl+c":
				m.cancelled = true
				return m, tea.Quit

			case "esc":
				m.filtering = false
				m.filter.Blur()
				m.filter.SetValue("")
				m.cursor = 0
				return m, nil

			case "enter":
				m.filtering = false
				m.filter.Blur()
				m.cursor = m.clampCursor()
				return m, nil
			}

			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			m.cursor = 0
			return m, cmd
		}

		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit

		case "/":
			m.filtering = true
			m.filter.Focus()
			return m, textinput.Blink

		case "enter", " ":
			if visible := m.visible(); m.cursor < len(visible) {
				m.selected = visible[m.cursor].Name
				m.finished = true
				return m, tea.Quit
			}

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < len(m.visible())-1 {
				m.cursor++
			}

		case "d":
			m.showDetails = !m.showDetails
		}

	case SessionsReloadedMsg:
		m.sessions = msg.Sessions
		m.cursor = m.clampCursor()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

// View renders the picker
func (m PickerModel) View() string {
	if m.finished || m.cancelled {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.titleStyle.Render(m.title))
	b.WriteString("\n")

	if m.filtering || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
	}

	visible := m.visible()

	if len(m.sessions) == 0 {
		b.WriteString(m.emptyStyle.Render("No saved sessions. Run `revisit capture <name>` first."))
		b.WriteString("\n")
	} else if len(visible) == 0 {
		b.WriteString(m.emptyStyle.Render("No sessions match the filter."))
		b.WriteString("\n")
	}

	for i, s := range visible {
		if i == m.cursor {
			b.WriteString(m.cursorStyle.Render("→ " + s.Name))
		} else {
			b.WriteString(m.optionStyle.Render("  " + s.Name))
		}
		b.WriteString("\n")

		if m.showDetails {
			if s.URL != "" {
				b.WriteString(m.detailStyle.Render("URL: " + s.URL))
				b.WriteString("\n")
			}
			if s.LastAccessed != "" {
				b.WriteString(m.detailStyle.Render("Last used: " + s.LastAccessed))
				b.WriteString("\n")
			}
		}
	}

	b.WriteString("\n")
	b.WriteString(m.helpStyle.Render(m.buildHelpText()))

	return b.String()
}

// buildHelpText creates context-appropriate help text
func (m PickerModel) buildHelpText() string {
	if m.filtering {
		return "type to filter • enter: apply • esc: clear"
	}

	parts := []string{
		"↑↓/jk: navigate",
		"enter/space: resume",
		"/: filter",
	}

	if m.showDetails {
		parts = append(parts, "d: hide details")
	} else {
		parts = append(parts, "d: show details")
	}

	parts = append(parts, "q/esc: cancel")

	return strings.Join(parts, " • ")
}

// PickSession runs the picker and returns the chosen session name
func PickSession(title string, sessions []session.Summary) (string, error) {
	model := NewPickerModel(title, sessions)

	program := tea.NewProgram(*model, tea.WithAltScreen())
	result, err := program.Run()
	if err != nil {
		return "", err
	}

	finalModel := result.(PickerModel)
	if finalModel.IsCancelled() {
		return "", ErrPickerCancelled{}
	}

	return finalModel.Selected(), nil
}
