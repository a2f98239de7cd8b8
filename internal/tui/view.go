package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/nikbrunner/anchors/internal/resolve"
	"github.com/nikbrunner/anchors/internal/tui/layout"
)

// renderView creates the list and preview panes.
func (a App) renderView() string {
	switch a.mode {
	case ModeAddManual:
		return a.renderModal()
	case ModeHelp:
		return a.renderHelpOverlay()
	}

	paneHeight := layout.CalculatePaneHeight(a.height, a.layoutConfig.Pane)
	panes := layout.CalculatePaneWidths(a.width, a.layoutConfig.Pane)

	columns := lipgloss.JoinHorizontal(
		lipgloss.Top,
		a.renderListPane(panes.ListWidth, paneHeight),
		a.renderPreviewPane(panes.PreviewWidth, paneHeight),
	)

	content := a.styles.App.Render(
		lipgloss.JoinVertical(lipgloss.Left, a.renderTitle(), columns, a.renderHelpBar()),
	)

	// Use Place to ensure exact terminal dimensions and prevent overflow
	return lipgloss.Place(a.width, a.height, lipgloss.Left, lipgloss.Top, content)
}

func (a App) renderTitle() string {
	title := "Anchors"
	if a.pad != nil {
		title += " · " + a.pad.Manager().User()
	}
	if a.list != nil {
		title += " (" + strconv.Itoa(len(a.list)) + ")"
	}
	return a.styles.Title.Render(title)
}

func (a App) renderListPane(width, height int) string {
	var content strings.Builder

	headerLines := 0
	if a.mode == ModeFilter || a.filter.Query != "" {
		headerLines = 1
	}
	visibleHeight := layout.CalculateVisibleHeight(height, headerLines)
	itemWidth := layout.CalculateItemWidth(width, a.layoutConfig.Pane)

	// Show filter input or indicator at top
	if a.mode == ModeFilter {
		content.WriteString("/" + a.filter.Input.View() + "\n")
	} else if a.filter.Query != "" {
		content.WriteString(a.styles.Identifier.Render("/"+a.filter.Query) + "\n")
	}

	switch {
	case a.list == nil:
		content.WriteString(a.styles.Empty.Render("(anchors unavailable, r to reload)"))
	case len(a.items) == 0 && a.filter.Query != "":
		content.WriteString(a.styles.Empty.Render("(no matches)"))
	case len(a.items) == 0:
		content.WriteString(a.styles.Empty.Render("(drop a document here: p pastes the clipboard)"))
	default:
		// Calculate viewport offset to keep cursor visible
		offset := layout.CalculateViewportOffset(a.cursor, len(a.items), visibleHeight)

		for i, item := range a.items {
			if i < offset {
				continue
			}
			if i >= offset+visibleHeight {
				break
			}
			content.WriteString(a.renderItem(item, i == a.cursor, itemWidth) + "\n")
		}
	}

	return a.styles.PaneActive.
		Width(width).
		Height(height).
		Render(strings.TrimRight(content.String(), "\n"))
}

func (a App) renderItem(item Item, isCursor bool, maxWidth int) string {
	if isCursor {
		line, _ := layout.TruncateWithPrefixSuffix(item.Title(), maxWidth, item.Number(), "", a.layoutConfig.Text)
		// Pad to fill width for highlight
		if pad := maxWidth - layout.VisibleLength(line); pad > 0 {
			line += strings.Repeat(" ", pad)
		}
		return a.styles.ItemSelected.Render(line)
	}

	if len(item.MatchedIndexes) > 0 {
		styled := item.Number() + a.highlight(item.Title(), item.MatchedIndexes)
		return a.styles.Item.Render(layout.TruncateANSIAware(styled, maxWidth, a.layoutConfig.Text))
	}

	line, _ := layout.TruncateWithPrefixSuffix(item.Title(), maxWidth, item.Number(), "", a.layoutConfig.Text)
	return a.styles.Item.Render(line)
}

// highlight styles the matched byte offsets of label.
func (a App) highlight(label string, matched []int) string {
	hit := make(map[int]bool, len(matched))
	for _, i := range matched {
		hit[i] = true
	}

	var b strings.Builder
	for i, r := range label {
		if hit[i] {
			b.WriteString(a.styles.Match.Render(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (a App) renderPreviewPane(width, height int) string {
	var content strings.Builder

	itemWidth := layout.CalculateItemWidth(width, a.layoutConfig.Pane)

	if item, ok := a.current(); ok {
		id, _ := layout.TruncateText(item.Entry.Identifier, itemWidth, a.layoutConfig.Text)

		if doc := a.preview; doc != nil && doc.Identifier() == item.Entry.Identifier {
			content.WriteString(a.styles.Title.Render(doc.Name) + "\n")
			content.WriteString(a.styles.Identifier.Render(id) + "\n\n")
			kind := doc.Type
			if doc.Pack != "" {
				kind += " in " + doc.Pack
			}
			content.WriteString(a.styles.Identifier.Render(kind) + "\n\n")
			if doc.Body != "" {
				content.WriteString(a.styles.Body.Width(itemWidth).Render(doc.Body))
			} else {
				content.WriteString(a.styles.Empty.Render("(no content)"))
			}
		} else {
			content.WriteString(a.styles.Title.Render(item.Entry.Label) + "\n")
			content.WriteString(a.styles.Identifier.Render(id) + "\n\n")
			enricher, _ := layout.TruncateText(resolve.Enricher(item.Entry.Identifier), itemWidth, a.layoutConfig.Text)
			content.WriteString(a.styles.Body.Render(enricher) + "\n\n")
			content.WriteString(a.renderHintsInline([]Hint{
				{Key: "o", Desc: "open"},
				{Key: "y", Desc: "copy"},
			}))
		}
	}

	return a.styles.Pane.
		Width(width).
		Height(height).
		Render(strings.TrimRight(content.String(), "\n"))
}

func (a App) renderModal() string {
	var content strings.Builder

	ml := layout.CalculateModalLayout(a.width, a.layoutConfig.Modal, a.layoutConfig.Input)
	uuidInput, labelInput := a.modal.UUIDInput, a.modal.LabelInput
	uuidInput.Width, labelInput.Width = ml.InputWidth, ml.InputWidth

	content.WriteString(a.styles.Title.Render("Add Anchor") + "\n\n")
	content.WriteString("UUID:\n")
	content.WriteString(uuidInput.View())
	content.WriteString("\n\n")
	content.WriteString("Label (optional):\n")
	content.WriteString(labelInput.View())
	content.WriteString("\n\n")

	if line := a.renderMessageLine(); line != "" {
		content.WriteString(line + "\n\n")
	}

	hints := a.getContextualHints()
	content.WriteString(a.renderHintsInline(hints.All()))

	return lipgloss.Place(
		a.width,
		a.height,
		lipgloss.Center,
		lipgloss.Center,
		a.styles.Modal.Width(ml.Width).Render(content.String()),
	)
}

func (a App) renderHelpBar() string {
	var lines []string

	// Line 1: message or empty spacer
	lines = append(lines, a.renderMessageLine())

	// Line 2: contextual keyboard hints
	if hints := a.renderHints(a.getContextualHints()); hints != "" {
		lines = append(lines, a.styles.HintLabel.Render("Keys ")+hints)
	}

	return strings.Join(lines, "\n")
}

// renderMessageLine renders the last notice, if any.
func (a App) renderMessageLine() string {
	notice, ok := a.status.Notice()
	if !ok {
		return ""
	}
	return a.styles.Notice(notice)
}

func (a App) renderHelpOverlay() string {
	// Brutalist style: no border, just raw columns
	modalStyle := lipgloss.NewStyle().
		Padding(1, 2)

	var left strings.Builder
	left.WriteString(a.styles.Title.Render("nav") + "\n")
	left.WriteString("j/k  move\n")
	left.WriteString("gg   top\n")
	left.WriteString("G    bottom\n")
	left.WriteString("/    filter\n")
	left.WriteString("Esc  clear filter\n")
	left.WriteString("r    reload\n")

	var right strings.Builder
	right.WriteString(a.styles.Title.Render("anchors") + "\n")
	right.WriteString("p    drop clipboard\n")
	right.WriteString("a    add by uuid\n")
	right.WriteString("d    delete\n")
	right.WriteString("y    copy reference\n")
	right.WriteString("o    open document\n")
	right.WriteString("\n")
	right.WriteString(a.styles.Help.Render("[?/esc] close"))

	leftCol := lipgloss.NewStyle().Width(a.layoutConfig.Modal.HelpLeftColumnWidth).Render(left.String())
	rightCol := lipgloss.NewStyle().Width(a.layoutConfig.Modal.HelpRightColumnWidth).Render(right.String())
	cols := lipgloss.JoinHorizontal(lipgloss.Top, leftCol, "  ", rightCol)

	return lipgloss.Place(
		a.width,
		a.height,
		lipgloss.Left,
		lipgloss.Top,
		modalStyle.Render(cols),
	)
}
