package layout

// LayoutConfig holds all layout-related configuration values.
type LayoutConfig struct {
	Pane  PaneConfig
	Modal ModalConfig
	Input InputConfig
	Text  TextConfig
}

// PaneConfig holds dimensions of the list and preview panes.
type PaneConfig struct {
	// HeightReduction is subtracted from terminal height for pane content.
	// Accounts for: app padding (1) + title (1) + pane borders (2) + status and hints (2) = 6
	HeightReduction int

	// MinHeight is the minimum pane height.
	MinHeight int

	// WidthOffset is subtracted from terminal width before splitting it.
	// Accounts for app padding (4) and the borders of both panes (4).
	WidthOffset int

	// ListWidthPercent is the share of the usable width given to the anchor list.
	ListWidthPercent int

	// MinPaneWidth is the minimum width of either pane.
	MinPaneWidth int

	// ContentPadding is subtracted from pane width for item rendering.
	ContentPadding int
}

// ModalConfig holds modal dialog configuration.
type ModalConfig struct {
	// DefaultWidthPercent is the modal width as percentage of terminal width.
	DefaultWidthPercent int

	MinWidth int
	MaxWidth int

	HelpLeftColumnWidth  int
	HelpRightColumnWidth int
}

// InputConfig holds text input configuration.
type InputConfig struct {
	UUIDCharLimit   int
	LabelCharLimit  int
	FilterCharLimit int

	StandardWidth int // manual add inputs
	FilterWidth   int
}

// TextConfig holds text truncation configuration.
type TextConfig struct {
	// Ellipsis is the string used to indicate truncation.
	Ellipsis string
}

// DefaultConfig returns the default layout configuration.
func DefaultConfig() LayoutConfig {
	return LayoutConfig{
		Pane: PaneConfig{
			HeightReduction:  6,
			MinHeight:        5,
			WidthOffset:      8,
			ListWidthPercent: 45,
			MinPaneWidth:     20,
			ContentPadding:   4,
		},
		Modal: ModalConfig{
			DefaultWidthPercent:  40,
			MinWidth:             50,
			MaxWidth:             80,
			HelpLeftColumnWidth:  18,
			HelpRightColumnWidth: 22,
		},
		Input: InputConfig{
			UUIDCharLimit:   200,
			LabelCharLimit:  100,
			FilterCharLimit: 50,
			StandardWidth:   40,
			FilterWidth:     30,
		},
		Text: TextConfig{
			Ellipsis: "...",
		},
	}
}
