package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

type detailPage struct {
	width        int
	height       int
	viewport     viewport.Model
	selectedItem *postDetail
}

func (m detailPage) Init() tea.Cmd {
	return nil
}

func (m detailPage) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, func() tea.Msg { return goToTableMsg{} }
		case "k":
			m.viewport.ScrollUp(1)
			return m, nil
		case "j":
			m.viewport.ScrollDown(1)
			return m, nil
		case "g":
			m.viewport.GotoTop()
			return m, nil
		case "G":
			m.viewport.GotoBottom()
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width - 4
		m.height = msg.Height - 4
		if m.selectedItem != nil {
			m.viewport = setupViewport(m.width, m.height, m.selectedItem)
		}

		return m, nil
	case goToDetailMsg:
		m.selectedItem = msg.item
		m.viewport = setupViewport(m.width, m.height, m.selectedItem)

		return m, nil
	}

	return m, nil
}

func (m detailPage) View() string {
	if m.selectedItem == nil {
		return "No post selected"
	}
	post := m.selectedItem.post

	title := post.Title
	if title == "" {
		title = "No title"
	}

	lightBlue := lightBlue()
	darkBlue := darkBlue()

	borderStyle := lipgloss.NewStyle().
		Border(lipgloss.ThickBorder()).
		BorderForeground(darkBlue)

	titleStyle := lipgloss.NewStyle().
		Foreground(darkBlue).
		Bold(true).
		Align(lipgloss.Left).
		MarginBottom(1).
		Width(m.width - 8)

	metaStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		MarginBottom(1)

	scrollStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Align(lipgloss.Center).
		Bold(true)

	titleRendered := titleStyle.Render(title)

	statusRendered := lipgloss.NewStyle().
		Foreground(statusColor(post.Status)).
		Bold(true).
		Render(post.Status)

	metaRendered := metaStyle.Render(fmt.Sprintf("%s • 키워드: %s • SEO %.0f • 품질 %.0f (%s) • %s",
		statusRendered, post.Keyword, post.SEOScore, post.QualityScore, post.QualityGrade,
		post.CreatedAt.Format("2006-01-02 15:04")))

	var urlRendered string
	if post.RemoteURL.Valid {
		urlRendered = lipgloss.NewStyle().
			Foreground(lightBlue).
			Italic(true).
			MarginBottom(1).
			Width(m.width - 8).
			Render("URL: " + post.RemoteURL.String)
	}

	legalRendered := metaStyle.Render(legalSummary(m.selectedItem))

	scrollPercent := m.viewport.ScrollPercent()
	if scrollPercent < 0 {
		scrollPercent = 0
	} else if scrollPercent > 1 {
		scrollPercent = 1
	}
	scrollRendered := scrollStyle.Render(fmt.Sprintf("Scroll: %d%%", int(scrollPercent*100)))

	helpInfo := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Align(lipgloss.Center).
		MarginTop(1).
		Render("j/k: scroll • g/G: top/bottom • esc/q: back")

	header := []string{titleRendered}
	if urlRendered != "" {
		header = append(header, urlRendered)
	}
	header = append(header, metaRendered, legalRendered)

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinVertical(lipgloss.Left, header...),
		m.viewport.View(),
		scrollRendered,
		helpInfo)

	return pageLayout(titleRendered, borderStyle.Render(content))
}

// legalSummary condenses the citation checks into one status line.
func legalSummary(d *postDetail) string {
	if len(d.legal) == 0 {
		return "법령 인용: 없음"
	}
	valid, invalid, unknown := 0, 0, 0
	var bad []string
	for _, ref := range d.legal {
		switch ref.Verdict {
		case "valid":
			valid++
		case "invalid":
			invalid++
			bad = append(bad, ref.Citation)
		default:
			unknown++
		}
	}
	s := fmt.Sprintf("법령 인용: %d건 (확인 %d / 오류 %d / 미확인 %d)", len(d.legal), valid, invalid, unknown)
	if len(bad) > 0 {
		s += " - " + strings.Join(bad, ", ")
	}
	return s
}

func setupViewport(width, height int, selectedItem *postDetail) viewport.Model {
	contentWidth := width
	if contentWidth < 20 {
		contentWidth = 20
	}

	renderedContent := renderMarkdown(selectedItem.post.Body, contentWidth)

	viewportHeight := height - 10
	if viewportHeight < 5 {
		viewportHeight = 5
	}

	viewport := viewport.New(contentWidth, viewportHeight)
	viewport.SetContent(renderedContent)

	return viewport
}

// renderMarkdown uses Glamour to render markdown content with terminal styling
func renderMarkdown(content string, width int) string {
	if strings.TrimSpace(content) == "" {
		return "No content available"
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithWordWrap(width),
		glamour.WithStandardStyle("dark"),
	)
	if err != nil {
		return content
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content
	}

	return rendered
}
