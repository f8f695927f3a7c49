package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/omg04j/100BM-chatbot-IronLady-02/internal/assistant"
)

// Shared palette and small render helpers for both terminal front-ends.
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	goodStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	userLabelStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	assistantLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))

	bubbleStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	selectedBubbleStyle = bubbleStyle.BorderForeground(lipgloss.Color("205"))
	noticeBubbleStyle   = bubbleStyle.BorderForeground(lipgloss.Color("214"))

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 2).
			Align(lipgloss.Center)

	positiveBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	negativeBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
	selectedRowStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func spinnerFrame(i int) string {
	return spinnerFrames[i%len(spinnerFrames)]
}

// truncate shortens s to at most max runes, ellipsis-terminated.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}

// bar renders a proportional block bar, at least one cell wide for any
// non-zero count so small values stay visible.
func bar(count, max, width int) string {
	if count <= 0 || max <= 0 || width <= 0 {
		return ""
	}
	w := count * width / max
	if w < 1 {
		w = 1
	}
	if w > width {
		w = width
	}
	return strings.Repeat("█", w)
}

func ratingGlyph(rating string) string {
	switch rating {
	case assistant.RatingPositive:
		return "👍"
	case assistant.RatingNegative:
		return "👎"
	}
	return "·"
}

// shortID abbreviates an opaque id for display.
func shortID(id string) string {
	return truncate(id, 8)
}
