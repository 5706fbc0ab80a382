// Package tui holds the florist terminal views: the debounced catalog
// browser and the lipgloss styles shared with the plain command output.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/domain"
)

// Semantic colors.
var (
	ColorWarning = lipgloss.Color("#FFC107")
	ColorInfo    = lipgloss.Color("#2196F3")
	ColorSuccess = lipgloss.Color("#8BC34A")
	ColorDanger  = lipgloss.Color("#E53935")
	ColorMuted   = lipgloss.Color("#9E9E9E")
	ColorInk     = lipgloss.Color("#101F38")
)

var toneColors = map[domain.Tone]lipgloss.Color{
	domain.ToneWarning: ColorWarning,
	domain.ToneInfo:    ColorInfo,
	domain.ToneSuccess: ColorSuccess,
	domain.ToneDanger:  ColorDanger,
	domain.ToneMuted:   ColorMuted,
}

// BadgeStyle returns the pill style for tone. Unknown tones render muted.
func BadgeStyle(tone domain.Tone) lipgloss.Style {
	bg, ok := toneColors[tone]
	if !ok {
		bg = ColorMuted
	}
	return lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		Foreground(ColorInk).
		Background(bg)
}

// RenderBadge renders an order status badge.
func RenderBadge(b domain.Badge) string {
	return BadgeStyle(b.Tone).Render(b.Label)
}

// Styles are the catalog browser styles.
type Styles struct {
	Title    lipgloss.Style
	Selected lipgloss.Style
	Row      lipgloss.Style
	Price    lipgloss.Style
	Muted    lipgloss.Style
	Error    lipgloss.Style
	Status   lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(ColorSuccess).MarginBottom(1),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(ColorInfo),
		Row:      lipgloss.NewStyle(),
		Price:    lipgloss.NewStyle().Bold(true),
		Muted:    lipgloss.NewStyle().Foreground(ColorMuted),
		Error:    lipgloss.NewStyle().Foreground(ColorDanger),
		Status:   lipgloss.NewStyle().Foreground(ColorSuccess),
	}
}
