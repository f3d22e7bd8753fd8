package tui

import (
	"strings"

	textinput "github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type searchPage struct {
	width       int
	height      int
	searchInput textinput.Model
}

func (m searchPage) Init() tea.Cmd {
	return nil
}

func (m searchPage) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEnter {
			if m.searchInput.Focused() {
				query := strings.TrimSpace(m.searchInput.Value())
				return m, func() tea.Msg { return applyFilterMsg{query: query} }
			}
		}

		if msg.Type == tea.KeyTab {
			if !m.searchInput.Focused() {
				m.searchInput.Focus()
			}
		}
		switch msg.String() {
		case "esc":
			if m.searchInput.Focused() {
				m.searchInput.Blur()
			} else {
				return m, func() tea.Msg { return goToTableMsg{} }
			}
		case "1":
			if !m.searchInput.Focused() {
				return m, func() tea.Msg { return goToTableMsg{} }
			}
		default:
			updated, cmd := m.searchInput.Update(msg)
			m.searchInput = updated
			return m, cmd
		}
	case goToSearchMsg:
		if m.searchInput.Value() == "" {
			m.searchInput = initializeInput()
		}
		m.searchInput.Focus()
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

func initializeInput() textinput.Model {
	input := textinput.New()
	input.Prompt = ""
	input.Placeholder = "전세보증금"
	input.PlaceholderStyle.Width(40)
	input.Width = 50

	return input
}

func (m searchPage) View() string {
	instructions := lipgloss.NewStyle().
		MarginTop(min(m.height/4, 10)).
		MarginBottom(2).
		Render("Enter a keyword below to filter posts by title, keyword or status")

	var borderColor lipgloss.Color
	borderColor = lipgloss.Color("8")
	if m.searchInput.Focused() {
		borderColor = lipgloss.Color("15")
	}

	input := lipgloss.NewStyle().
		Width(50).
		AlignHorizontal(lipgloss.Left).
		Border(lipgloss.NormalBorder()).
		BorderForeground(borderColor).
		Render(m.searchInput.View())

	var helpInfo string
	if m.searchInput.Focused() {
		helpInfo = helpBar([]string{
			"Enter: apply filter",
			"Esc: unfocus search input",
		})
	} else {
		helpInfo = helpBar([]string{
			"1: go to table view",
			"Tab: focus search input",
			"Esc: back",
		})
	}

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		renderMenu(1, m.width),
		instructions,
		input,
		lipgloss.NewStyle().MarginTop(2).Render(helpInfo),
	)

	return pageLayout("Search", content)
}
