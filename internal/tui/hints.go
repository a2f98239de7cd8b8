package tui

import "strings"

// Hint is one key binding shown in the hint bar.
type Hint struct {
	Key  string // e.g. "j/k", "Enter"
	Desc string // e.g. "move", "open"
}

// HintSet groups the hints of one mode.
type HintSet struct {
	Nav    []Hint
	Edit   []Hint
	Action []Hint
	System []Hint
}

// All returns the hints in display order: Nav, Action, Edit, System.
func (h HintSet) All() []Hint {
	var out []Hint
	for _, group := range [][]Hint{h.Nav, h.Action, h.Edit, h.System} {
		out = append(out, group...)
	}
	return out
}

var modeHints = map[Mode]HintSet{
	ModeNormal: {
		Nav:    []Hint{{"j/k", "move"}},
		Action: []Hint{{"o", "open"}, {"y", "copy"}, {"/", "filter"}},
		Edit:   []Hint{{"p", "drop"}, {"a", "add"}, {"d", "del"}},
		System: []Hint{{"?", "help"}, {"q", "quit"}},
	},
	ModeFilter: {
		Nav:    []Hint{{"type", "filter"}},
		Action: []Hint{{"Enter", "apply"}},
		System: []Hint{{"Esc", "clear"}},
	},
	ModeAddManual: {
		Nav:    []Hint{{"Tab", "next"}},
		Action: []Hint{{"Enter", "anchor"}},
		System: []Hint{{"Esc", "cancel"}},
	},
	ModeHelp: {
		System: []Hint{{"?/q/Esc", "close"}},
	},
}

// getContextualHints returns the hints for the current mode.
func (a App) getContextualHints() HintSet {
	return modeHints[a.mode]
}

// renderHints renders the bottom bar form: "j/k:move o:open".
func (a App) renderHints(hints HintSet) string {
	return a.joinHints(hints.All(), ":", " ")
}

// renderHintsInline renders the modal form: "Enter anchor  Esc cancel".
func (a App) renderHintsInline(hints []Hint) string {
	return a.joinHints(hints, " ", "  ")
}

func (a App) joinHints(hints []Hint, keySep, hintSep string) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, a.styles.HintKey.Render(h.Key)+keySep+a.styles.HintDesc.Render(h.Desc))
	}
	return strings.Join(parts, hintSep)
}
