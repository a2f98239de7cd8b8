package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/nikbrunner/anchors/internal/anchors"
)

// Palette is the small set of colors every style derives from.
type Palette struct {
	Text   lipgloss.AdaptiveColor
	Muted  lipgloss.AdaptiveColor
	Accent lipgloss.AdaptiveColor
	Border lipgloss.AdaptiveColor
	Ink    lipgloss.Color // text on accent backgrounds

	Info  lipgloss.AdaptiveColor
	Warn  lipgloss.AdaptiveColor
	Error lipgloss.AdaptiveColor
}

// DefaultPalette is grayscale with a single desaturated teal accent.
func DefaultPalette() Palette {
	return Palette{
		Text:   lipgloss.AdaptiveColor{Light: "#505050", Dark: "#A0A0A0"},
		Muted:  lipgloss.AdaptiveColor{Light: "#888888", Dark: "#606060"},
		Accent: lipgloss.AdaptiveColor{Light: "#4A7070", Dark: "#5F8787"},
		Border: lipgloss.AdaptiveColor{Light: "#888888", Dark: "#505050"},
		Ink:    lipgloss.Color("#1A1A1A"),
		Info:   lipgloss.AdaptiveColor{Light: "#338833", Dark: "#66CC66"},
		Warn:   lipgloss.AdaptiveColor{Light: "#CC8800", Dark: "#FFAA00"},
		Error:  lipgloss.AdaptiveColor{Light: "#CC3333", Dark: "#FF6666"},
	}
}

// Styles holds all lipgloss styles for the TUI.
type Styles struct {
	App        lipgloss.Style
	Pane       lipgloss.Style // preview
	PaneActive lipgloss.Style // anchor list
	Modal      lipgloss.Style
	Title      lipgloss.Style

	Item         lipgloss.Style
	ItemSelected lipgloss.Style
	Match        lipgloss.Style // matched characters in filtered labels
	Identifier   lipgloss.Style
	Body         lipgloss.Style
	Empty        lipgloss.Style

	Help      lipgloss.Style
	HintKey   lipgloss.Style
	HintDesc  lipgloss.Style
	HintLabel lipgloss.Style

	Notices map[anchors.Level]NoticeStyle
}

// NoticeStyle renders one notice level in the message line.
type NoticeStyle struct {
	Icon  string
	Style lipgloss.Style
}

// DefaultStyles returns the styles built from DefaultPalette.
func DefaultStyles() Styles {
	return NewStyles(DefaultPalette())
}

// NewStyles derives the full style set from p.
func NewStyles(p Palette) Styles {
	pane := func(border lipgloss.TerminalColor) lipgloss.Style {
		return lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(border).
			Padding(0, 1)
	}
	muted := lipgloss.NewStyle().Foreground(p.Muted)
	notice := func(c lipgloss.AdaptiveColor) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c).Bold(true)
	}

	return Styles{
		App:        lipgloss.NewStyle().Padding(1, 2, 0, 2),
		Pane:       pane(p.Border),
		PaneActive: pane(p.Accent),
		Modal:      pane(p.Accent).Padding(1, 2),
		Title:      lipgloss.NewStyle().Bold(true).Foreground(p.Accent),

		Item:         lipgloss.NewStyle().Foreground(p.Text).PaddingLeft(1),
		ItemSelected: lipgloss.NewStyle().PaddingLeft(1).Background(p.Accent).Foreground(p.Ink),
		Match:        lipgloss.NewStyle().Foreground(p.Accent).Underline(true),
		Identifier:   muted,
		Body:         lipgloss.NewStyle().Foreground(p.Text),
		Empty:        muted,

		Help:      muted.Padding(1, 0),
		HintKey:   muted,
		HintDesc:  muted,
		HintLabel: muted.Bold(true),

		Notices: map[anchors.Level]NoticeStyle{
			anchors.LevelInfo:  {Icon: "✓ ", Style: notice(p.Info)},
			anchors.LevelWarn:  {Icon: "⚠ ", Style: notice(p.Warn)},
			anchors.LevelError: {Icon: "✗ ", Style: notice(p.Error)},
		},
	}
}

// Notice renders n with the icon and color of its level.
func (s Styles) Notice(n anchors.Notice) string {
	ns, ok := s.Notices[n.Level]
	if !ok {
		ns = s.Notices[anchors.LevelInfo]
	}
	return ns.Style.Render(ns.Icon + n.Message)
}
