package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nikbrunner/anchors/internal/anchors"
	"github.com/nikbrunner/anchors/internal/model"
	"github.com/nikbrunner/anchors/internal/search"
	"github.com/nikbrunner/anchors/internal/tui/layout"
)

// Clipboard reads and writes the system clipboard.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) ReadAll() (string, error)   { return clipboard.ReadAll() }
func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// App is the main bubbletea model for the anchor panel.
type App struct {
	ctx          context.Context
	pad          *anchors.Pad
	status       *Status
	clipboard    Clipboard
	keys         KeyMap
	styles       Styles
	layoutConfig layout.LayoutConfig

	mode   Mode
	list   model.List // last loaded list, nil when unavailable
	items  []Item     // visible rows (filtered or all)
	cursor int

	modal  ModalState
	filter FilterState

	// Document opened from the list, shown in the preview pane
	preview *model.Document

	// For gg command
	lastKeyWasG bool

	// Window dimensions
	width  int
	height int
}

// AppParams holds parameters for creating a new App.
type AppParams struct {
	Pad          *anchors.Pad
	Status       *Status              // optional, should also be the pad's notifier
	Clipboard    Clipboard            // optional, uses the system clipboard if nil
	Context      context.Context      // optional
	Keys         *KeyMap              // optional, uses default if nil
	Styles       *Styles              // optional, uses default if nil
	LayoutConfig *layout.LayoutConfig // optional, uses default if nil
}

// NewApp creates a new App and loads the anchor list.
func NewApp(params AppParams) App {
	keys := DefaultKeyMap()
	if params.Keys != nil {
		keys = *params.Keys
	}

	styles := DefaultStyles()
	if params.Styles != nil {
		styles = *params.Styles
	}

	layoutCfg := layout.DefaultConfig()
	if params.LayoutConfig != nil {
		layoutCfg = *params.LayoutConfig
	}

	status := params.Status
	if status == nil {
		status = NewStatus()
	}

	var cb Clipboard = systemClipboard{}
	if params.Clipboard != nil {
		cb = params.Clipboard
	}

	ctx := params.Context
	if ctx == nil {
		ctx = context.Background()
	}

	app := App{
		ctx:          ctx,
		pad:          params.Pad,
		status:       status,
		clipboard:    cb,
		keys:         keys,
		styles:       styles,
		layoutConfig: layoutCfg,
		mode:         ModeNormal,
		modal:        NewModalState(layoutCfg),
		filter:       NewFilterState(layoutCfg),
		width:        80,
		height:       24,
	}

	app.reload()
	return app
}

// WithDimensions returns a copy of the app with the given terminal size.
func (a App) WithDimensions(width, height int) App {
	a.width = width
	a.height = height
	return a
}

// Cursor returns the current cursor position.
func (a App) Cursor() int {
	return a.cursor
}

// Items returns the visible rows.
func (a App) Items() []Item {
	return a.items
}

// Mode returns the current interaction mode.
func (a App) Mode() Mode {
	return a.mode
}

// Preview returns the opened document, or nil.
func (a App) Preview() *model.Document {
	return a.preview
}

// FilterQuery returns the active filter query.
func (a App) FilterQuery() string {
	return a.filter.Query
}

// reload fetches the list from the pad and rebuilds the rows.
func (a *App) reload() {
	list, err := a.pad.Entries(a.ctx)
	if err != nil {
		a.list = nil
	} else {
		a.list = list
	}
	a.refreshItems()
}

// apply takes a list returned by a successful pad operation.
func (a *App) apply(list model.List) {
	a.list = list
	a.refreshItems()
}

// refreshItems rebuilds the visible rows from the list and the filter.
func (a *App) refreshItems() {
	a.items = nil

	if a.filter.Query != "" {
		a.filter.Matches = search.FuzzySearchEntries(a.list, a.filter.Query)
		for _, m := range a.filter.Matches {
			a.items = append(a.items, Item{Index: m.Index, Entry: m.Entry, MatchedIndexes: m.MatchedIndexes})
		}
	} else {
		for i, e := range a.list {
			a.items = append(a.items, Item{Index: i, Entry: e})
		}
	}

	if a.cursor >= len(a.items) {
		a.cursor = len(a.items) - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}

	if a.preview != nil {
		if item, ok := a.current(); !ok || item.Entry.Identifier != a.preview.Identifier() {
			a.preview = nil
		}
	}
}

// current returns the row under the cursor.
func (a App) current() (Item, bool) {
	if len(a.items) == 0 || a.cursor >= len(a.items) {
		return Item{}, false
	}
	return a.items[a.cursor], true
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		switch a.mode {
		case ModeFilter:
			return a.updateFilter(msg)
		case ModeAddManual:
			return a.updateAddManual(msg)
		case ModeHelp:
			return a.updateHelp(msg)
		default:
			return a.updateNormal(msg)
		}
	}

	return a, nil
}

func (a App) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle gg sequence
	if key.Matches(msg, a.keys.Top) {
		if a.lastKeyWasG {
			a.cursor = 0
			a.lastKeyWasG = false
			return a, nil
		}
		a.lastKeyWasG = true
		return a, nil
	}
	a.lastKeyWasG = false

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Down):
		if len(a.items) > 0 && a.cursor < len(a.items)-1 {
			a.cursor++
		}

	case key.Matches(msg, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}

	case key.Matches(msg, a.keys.Bottom):
		if len(a.items) > 0 {
			a.cursor = len(a.items) - 1
		}

	case key.Matches(msg, a.keys.Add):
		a.status.Clear()
		a.modal.ResetInputs()
		a.mode = ModeAddManual
		return a, nil

	case key.Matches(msg, a.keys.Paste):
		a.status.Clear()
		text, err := a.clipboard.ReadAll()
		if err != nil {
			a.status.Error(fmt.Sprintf("Clipboard unavailable: %v", err))
			return a, nil
		}
		if list, err := a.pad.Drop(a.ctx, "", []byte(text)); err == nil {
			a.apply(list)
			a.cursor = a.rowOf(len(list) - 1)
		}

	case key.Matches(msg, a.keys.Delete):
		a.status.Clear()
		item, ok := a.current()
		if !ok {
			return a, nil
		}
		list, err := a.pad.Delete(a.ctx, item.Index)
		if err == nil || list != nil {
			a.apply(list)
		}
		if err == nil {
			a.status.Info("Removed: " + item.Entry.Label)
		}

	case key.Matches(msg, a.keys.Yank):
		a.status.Clear()
		item, ok := a.current()
		if !ok {
			return a, nil
		}
		text, err := a.pad.Enricher(a.ctx, item.Index)
		if err != nil {
			return a, nil
		}
		if err := a.clipboard.WriteAll(text); err != nil {
			a.status.Error(fmt.Sprintf("Clipboard unavailable: %v", err))
			return a, nil
		}
		a.status.Info("Copied " + text)

	case key.Matches(msg, a.keys.Open):
		a.status.Clear()
		item, ok := a.current()
		if !ok {
			return a, nil
		}
		if doc, err := a.pad.Open(a.ctx, item.Index); err == nil {
			a.preview = doc
		}

	case key.Matches(msg, a.keys.Filter):
		a.mode = ModeFilter
		a.filter.Input.SetValue(a.filter.Query)
		a.filter.Input.CursorEnd()
		return a, a.filter.Input.Focus()

	case key.Matches(msg, a.keys.Reload):
		a.status.Clear()
		a.reload()

	case key.Matches(msg, a.keys.Help):
		a.mode = ModeHelp

	case msg.Type == tea.KeyEsc:
		// Esc in normal mode clears an applied filter
		if a.filter.Query != "" {
			a.filter.Reset()
			a.cursor = 0
			a.refreshItems()
		}
	}

	return a, nil
}

// rowOf returns the visible row showing list position index, or the current
// cursor when the entry is filtered out.
func (a App) rowOf(index int) int {
	for row, item := range a.items {
		if item.Index == index {
			return row
		}
	}
	return a.cursor
}

func (a App) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		a.filter.Reset()
		a.mode = ModeNormal
		a.cursor = 0
		a.refreshItems()
		return a, nil

	case tea.KeyEnter:
		a.filter.Input.Blur()
		a.mode = ModeNormal
		return a, nil
	}

	var cmd tea.Cmd
	a.filter.Input, cmd = a.filter.Input.Update(msg)
	a.filter.Query = strings.TrimSpace(a.filter.Input.Value())
	a.cursor = 0
	a.refreshItems()
	return a, cmd
}

func (a App) updateAddManual(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		a.modal.ResetInputs()
		a.modal.UUIDInput.Blur()
		a.mode = ModeNormal
		return a, nil

	case tea.KeyTab, tea.KeyShiftTab:
		a.modal.ToggleFocus()
		return a, nil

	case tea.KeyEnter:
		a.status.Clear()
		list, err := a.pad.AddManual(a.ctx, a.modal.UUIDInput.Value(), a.modal.LabelInput.Value())
		if err != nil {
			// Stay in the modal so the input can be fixed
			return a, nil
		}
		a.modal.ResetInputs()
		a.modal.UUIDInput.Blur()
		a.mode = ModeNormal
		a.apply(list)
		a.cursor = a.rowOf(len(list) - 1)
		return a, nil
	}

	var cmd tea.Cmd
	if a.modal.FocusLabel {
		a.modal.LabelInput, cmd = a.modal.LabelInput.Update(msg)
	} else {
		a.modal.UUIDInput, cmd = a.modal.UUIDInput.Update(msg)
	}
	return a, cmd
}

func (a App) updateHelp(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEsc || key.Matches(msg, a.keys.Help) || key.Matches(msg, a.keys.Quit) {
		a.mode = ModeNormal
	}
	return a, nil
}

// View implements tea.Model.
func (a App) View() string {
	return a.renderView()
}
