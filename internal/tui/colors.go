package tui

import (
	"github.com/charmbracelet/lipgloss"

	"blogpilot/internal/models"
)

func lightBlue() lipgloss.Color {
	return lipgloss.Color("#87CEEB")
}

func darkBlue() lipgloss.Color {
	return lipgloss.Color("#4682B4")
}

func statusColor(status string) lipgloss.Color {
	switch status {
	case models.StatusApproved:
		return lipgloss.Color("2")
	case models.StatusRejected, models.StatusFailed:
		return lipgloss.Color("1")
	case models.StatusPublished:
		return lipgloss.Color("4")
	case models.StatusReview:
		return lipgloss.Color("3")
	default:
		return lipgloss.Color("7")
	}
}
