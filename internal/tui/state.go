package tui

import (
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/nikbrunner/anchors/internal/anchors"
	"github.com/nikbrunner/anchors/internal/search"
	"github.com/nikbrunner/anchors/internal/tui/layout"
)

// Mode is the current interaction mode of the App.
type Mode int

const (
	ModeNormal Mode = iota
	ModeFilter
	ModeAddManual
	ModeHelp
)

// ModalState holds state for the manual add modal.
type ModalState struct {
	UUIDInput  textinput.Model
	LabelInput textinput.Model
	FocusLabel bool // false = uuid input focused
}

// NewModalState creates a new ModalState with initialized inputs.
func NewModalState(cfg layout.LayoutConfig) ModalState {
	uuidInput := textinput.New()
	uuidInput.Placeholder = "Actor.abc123 or Compendium.pack.id"
	uuidInput.CharLimit = cfg.Input.UUIDCharLimit
	uuidInput.Width = cfg.Input.StandardWidth

	labelInput := textinput.New()
	labelInput.Placeholder = "optional label"
	labelInput.CharLimit = cfg.Input.LabelCharLimit
	labelInput.Width = cfg.Input.StandardWidth

	return ModalState{
		UUIDInput:  uuidInput,
		LabelInput: labelInput,
	}
}

// ResetInputs clears the inputs and focuses the uuid field.
func (m *ModalState) ResetInputs() {
	m.UUIDInput.Reset()
	m.LabelInput.Reset()
	m.FocusLabel = false
	m.LabelInput.Blur()
	m.UUIDInput.Focus()
}

// ToggleFocus moves focus between the two inputs.
func (m *ModalState) ToggleFocus() {
	m.FocusLabel = !m.FocusLabel
	if m.FocusLabel {
		m.UUIDInput.Blur()
		m.LabelInput.Focus()
		return
	}
	m.LabelInput.Blur()
	m.UUIDInput.Focus()
}

// FilterState holds state for the fuzzy label filter.
type FilterState struct {
	Input   textinput.Model
	Query   string // active query, kept after the input is closed
	Matches []search.SearchResult
}

// NewFilterState creates a new FilterState with an initialized input.
func NewFilterState(cfg layout.LayoutConfig) FilterState {
	input := textinput.New()
	input.Placeholder = "Filter..."
	input.CharLimit = cfg.Input.FilterCharLimit
	input.Width = cfg.Input.FilterWidth
	return FilterState{Input: input}
}

// Reset clears the filter.
func (f *FilterState) Reset() {
	f.Input.Reset()
	f.Input.Blur()
	f.Query = ""
	f.Matches = nil
}

// Status collects pad notices for the message line. It implements
// anchors.Notifier; pass the same Status to the pad and the App.
type Status struct {
	mu     sync.Mutex
	notice anchors.Notice
	set    bool
}

// NewStatus creates an empty Status.
func NewStatus() *Status {
	return &Status{}
}

func (s *Status) Info(msg string)  { s.put(anchors.LevelInfo, msg) }
func (s *Status) Warn(msg string)  { s.put(anchors.LevelWarn, msg) }
func (s *Status) Error(msg string) { s.put(anchors.LevelError, msg) }

func (s *Status) put(level anchors.Level, msg string) {
	s.mu.Lock()
	s.notice = anchors.Notice{Level: level, Message: msg}
	s.set = true
	s.mu.Unlock()
}

// Notice returns the last notice, if any.
func (s *Status) Notice() (anchors.Notice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notice, s.set
}

// Clear drops the current notice.
func (s *Status) Clear() {
	s.mu.Lock()
	s.set = false
	s.mu.Unlock()
}
