package tui

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"blogpilot/internal/models"
	"blogpilot/internal/store"
)

type tablePage struct {
	db       *sql.DB
	allItems []models.Post
	items    []models.Post
	filter   string
	table    *table.Table

	ready        bool
	cursor       int
	currentPage  int
	totalPages   int
	tableWidth   int
	tableHeight  int
	titleWidth   int
	keywordWidth int
	statusWidth  int
	scoreWidth   int
	dateWidth    int
	pageSize     int
	notice       string
}

func TablePage(db *sql.DB, items []models.Post, cursor int, pageSize int, currentPage int) tablePage {
	return tablePage{
		db:          db,
		allItems:    items,
		items:       items,
		cursor:      cursor,
		pageSize:    pageSize,
		currentPage: currentPage,
	}
}

func (m tablePage) Init() tea.Cmd {
	return nil
}

func (m tablePage) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.filter != "" {
				m.filter = ""
				m.items = m.allItems
				m.currentPage = 0
				m.cursor = 0
				m.notice = ""
				m.configureTable(m.tableWidth+2, m.tableHeight-4)
				return m, nil
			}
			return m, tea.Quit
		case " ", "enter":
			if item := m.selected(); item != nil {
				detail := m.loadDetail(*item)
				return m, func() tea.Msg { return goToDetailMsg{item: detail} }
			}
			return m, nil
		case "/", "2":
			return m, func() tea.Msg { return goToSearchMsg{} }
		case "a":
			m.setStatus(models.StatusApproved)
			return m, nil
		case "r":
			m.setStatus(models.StatusRejected)
			return m, nil
		case "k":
			if m.cursor > 0 {
				m.cursor--
			} else if m.currentPage > 0 {
				m.currentPage--
				m.cursor = m.pageSize - 1
			}
			m.updateTableRows()
			return m, nil
		case "j":
			itemsOnCurrentPage := min(m.pageSize, len(m.items)-m.currentPage*m.pageSize)
			if m.cursor < itemsOnCurrentPage-1 {
				m.cursor++
			} else if m.currentPage < m.totalPages-1 {
				m.currentPage++
				m.cursor = 0
			}
			m.updateTableRows()
			return m, nil
		case "g":
			m.currentPage = 0
			m.cursor = 0
			m.updateTableRows()
			return m, nil
		case "G":
			m.currentPage = m.totalPages - 1
			lastPageItems := len(m.items) % m.pageSize
			if lastPageItems == 0 {
				lastPageItems = m.pageSize
			}
			m.cursor = lastPageItems - 1
			m.updateTableRows()
			return m, nil
		case "l": // Next page
			if m.currentPage < m.totalPages-1 {
				m.currentPage++
				m.cursor = 0
				m.updateTableRows()
				return m, tea.ClearScreen
			}
			return m, nil
		case "h": // Previous page
			if m.currentPage > 0 {
				m.currentPage--
				m.cursor = 0
				m.updateTableRows()
				return m, tea.ClearScreen
			}
			return m, nil
		}
	case applyFilterMsg:
		m.filter = strings.TrimSpace(msg.query)
		m.items = filterPosts(m.allItems, m.filter)
		m.currentPage = 0
		m.cursor = 0
		m.configureTable(m.tableWidth+2, m.tableHeight-4)
		return m, tea.ClearScreen
	case tea.WindowSizeMsg:
		m.tableWidth = msg.Width - 2
		m.tableHeight = msg.Height
		m.configureTable(msg.Width, msg.Height-4)
		m.ready = true

		return m, tea.ClearScreen
	}

	return m, nil
}

func (m *tablePage) selected() *models.Post {
	if len(m.items) == 0 {
		return nil
	}
	globalCursor := m.currentPage*m.pageSize + m.cursor
	if globalCursor >= len(m.items) {
		return nil
	}
	return &m.items[globalCursor]
}

func (m *tablePage) loadDetail(p models.Post) *postDetail {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	refs, err := store.LegalReferences(ctx, m.db, p.ID)
	if err != nil {
		refs = nil
	}
	return &postDetail{post: p, legal: refs}
}

// setStatus flips the selected post between review states and records it.
func (m *tablePage) setStatus(status string) {
	item := m.selected()
	if item == nil {
		return
	}
	if item.Status == models.StatusPublished {
		m.notice = "발행된 글은 상태를 바꿀 수 없습니다"
		m.updateTableRows()
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.SetPostStatus(ctx, m.db, item.ID, status); err != nil {
		m.notice = fmt.Sprintf("상태 변경 실패: %v", err)
		m.updateTableRows()
		return
	}
	item.Status = status
	for i := range m.allItems {
		if m.allItems[i].ID == item.ID {
			m.allItems[i].Status = status
		}
	}
	m.notice = fmt.Sprintf("%q → %s", truncateString(item.Title, 30), status)
	m.updateTableRows()
}

func (m tablePage) View() string {
	return m.renderTableView()
}

func (m tablePage) renderTableView() string {
	if !m.ready {
		return "...Loading"
	}

	if len(m.items) == 0 {
		if m.filter != "" {
			return fmt.Sprintf("검색 결과 없음: %q (esc: 필터 해제)", m.filter)
		}
		return "No posts found in the database"
	}

	title := "Posts"
	if m.filter != "" {
		title = fmt.Sprintf("Posts - filter %q", m.filter)
	}
	menu := renderMenu(0, m.tableWidth)

	tableContainer := m.table.Render()

	parts := []string{menu, tableContainer}
	if m.notice != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(darkBlue()).Render(m.notice))
	}
	parts = append(parts, helpBar([]string{
		"j/k: move", "l/h: page", "a/r: approve/reject",
		"Enter: detail", "/: search", "q: quit",
	}))

	return pageLayout(title, lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m *tablePage) updateTableRows() {
	if len(m.items) == 0 {
		return
	}

	headers := []string{
		truncateString("Title", m.titleWidth),
		truncateString("Keyword", m.keywordWidth),
		truncateString("Status", m.statusWidth),
		truncateString("SEO", m.scoreWidth),
		truncateString("Quality", m.scoreWidth),
		truncateString("Created", m.dateWidth),
	}

	var rows [][]string
	startIdx := m.currentPage * m.pageSize
	endIdx := min(startIdx+m.pageSize, len(m.items))

	for i := startIdx; i < endIdx; i++ {
		item := m.items[i]
		title := item.Title
		if title == "" {
			title = "No title"
		}
		row := []string{
			truncateString(title, m.titleWidth),
			truncateString(item.Keyword, m.keywordWidth),
			truncateString(item.Status, m.statusWidth),
			fmt.Sprintf("%.0f", item.SEOScore),
			fmt.Sprintf("%.0f", item.QualityScore),
			truncateString(item.CreatedAt.Format("2006-01-02"), m.dateWidth),
		}
		rows = append(rows, row)
	}

	itemsOnCurrentPage := len(rows)
	if itemsOnCurrentPage > 0 {
		if m.cursor >= itemsOnCurrentPage {
			m.cursor = itemsOnCurrentPage - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
	}

	lightBlue := lightBlue()
	darkBlue := darkBlue()

	borderStyle := lipgloss.NewStyle().Foreground(darkBlue)

	headerStyle := lipgloss.NewStyle().
		Padding(0, 1).
		Bold(true).
		Foreground(darkBlue).
		Align(lipgloss.Center)

	newTable := table.New().
		Width(m.tableWidth).
		Border(lipgloss.ThickBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 { // Header row
				return headerStyle
			}
			if row == m.cursor { // Selected row
				return lipgloss.NewStyle().
					Padding(0, 1).
					Background(lightBlue).
					Foreground(lipgloss.Color("0"))
			}
			if col == 2 && row+startIdx < len(m.items) {
				return lipgloss.NewStyle().
					Padding(0, 1).
					Foreground(statusColor(m.items[startIdx+row].Status))
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	m.table = newTable
}

// configureTable sets up the table with dynamic column widths based on available space
func (m *tablePage) configureTable(width, height int) {
	if len(m.items) == 0 {
		return
	}

	m.pageSize = max(5, height-6)
	m.totalPages = (len(m.items) + m.pageSize - 1) / m.pageSize

	if m.currentPage >= m.totalPages {
		m.currentPage = m.totalPages - 1
	}
	if m.currentPage < 0 {
		m.currentPage = 0
	}

	globalCursor := m.currentPage*m.pageSize + m.cursor
	if globalCursor >= len(m.items) {
		globalCursor = len(m.items) - 1
		m.currentPage = globalCursor / m.pageSize
		m.cursor = globalCursor % m.pageSize
	}

	m.dateWidth = 10
	m.statusWidth = 10
	m.scoreWidth = 7
	// 4 chars of border plus 3 chars of padding per column
	borderPaddingWidth := 4 + (3 * 6)
	remainingWidth := width - m.dateWidth - m.statusWidth - 2*m.scoreWidth - borderPaddingWidth

	m.titleWidth = remainingWidth * 60 / 100
	m.keywordWidth = remainingWidth * 40 / 100

	if m.titleWidth < 24 {
		m.titleWidth = 24
	}
	if m.keywordWidth < 12 {
		m.keywordWidth = 12
	}

	m.updateTableRows()
}

func filterPosts(items []models.Post, query string) []models.Post {
	if query == "" {
		return items
	}
	q := strings.ToLower(query)
	var out []models.Post
	for _, p := range items {
		if strings.Contains(strings.ToLower(p.Title), q) ||
			strings.Contains(strings.ToLower(p.Keyword), q) ||
			strings.Contains(strings.ToLower(p.Status), q) {
			out = append(out, p)
		}
	}
	return out
}
