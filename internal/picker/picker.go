package picker

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/nikbrunner/anchors/internal/search"
)

var (
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	detailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Italic(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("99")).
			Bold(true).
			MarginBottom(1)
)

// Item is one pickable row.
type Item struct {
	Title  string
	Detail string // identifier shown under the title
}

// FromEntries builds items from anchor search results.
func FromEntries(results []search.SearchResult) []Item {
	items := make([]Item, len(results))
	for i, r := range results {
		items[i] = Item{Title: r.Entry.Label, Detail: r.Entry.Identifier}
	}
	return items
}

// FromDocuments builds items from document search results.
func FromDocuments(results []search.DocumentResult) []Item {
	items := make([]Item, len(results))
	for i, r := range results {
		items[i] = Item{Title: r.Document.Name, Detail: r.Document.Identifier()}
	}
	return items
}

// Picker is a simple TUI for selecting from search results.
type Picker struct {
	items     []Item
	query     string
	action    string
	cursor    int
	selected  bool
	cancelled bool
	width     int
	height    int
}

// New creates a new Picker. action names what Enter does in the footer.
func New(items []Item, query, action string) Picker {
	if action == "" {
		action = "select"
	}
	return Picker{
		items:  items,
		query:  query,
		action: action,
		cursor: 0,
		width:  80,
		height: 24,
	}
}

// Init implements tea.Model.
func (p Picker) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height
		return p, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEsc, tea.KeyCtrlC:
			p.cancelled = true
			return p, tea.Quit

		case tea.KeyEnter:
			p.selected = true
			return p, tea.Quit

		case tea.KeyDown:
			p.moveDown()
			return p, nil

		case tea.KeyUp:
			p.moveUp()
			return p, nil
		}

		// Handle j/k vim keys
		if msg.Type == tea.KeyRunes {
			switch string(msg.Runes) {
			case "j":
				p.moveDown()
				return p, nil
			case "k":
				p.moveUp()
				return p, nil
			case "q":
				p.cancelled = true
				return p, tea.Quit
			}
		}
	}

	return p, nil
}

func (p *Picker) moveDown() {
	if p.cursor < len(p.items)-1 {
		p.cursor++
	}
}

func (p *Picker) moveUp() {
	if p.cursor > 0 {
		p.cursor--
	}
}

// View implements tea.Model.
func (p Picker) View() string {
	var b strings.Builder

	// Header
	b.WriteString(headerStyle.Render(fmt.Sprintf("Search: %s (%d results)", p.query, len(p.items))))
	b.WriteString("\n\n")

	for i, item := range p.items {
		cursor := "  "
		style := normalStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedStyle
		}

		fmt.Fprintf(&b, "%s%s\n", cursor, style.Render(item.Title))
		fmt.Fprintf(&b, "   %s\n", detailStyle.Render(item.Detail))
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(detailStyle.UnsetItalic().Render(fmt.Sprintf("j/k: move  Enter: %s  q/Esc: cancel", p.action)))

	return b.String()
}

// Selected returns the position of the chosen item, or false if cancelled.
func (p Picker) Selected() (int, bool) {
	if p.cancelled || !p.selected {
		return 0, false
	}
	if p.cursor < len(p.items) {
		return p.cursor, true
	}
	return 0, false
}

// Cancelled returns true if the user cancelled the selection.
func (p Picker) Cancelled() bool {
	return p.cancelled
}
