package layout

// ModalLayout holds the calculated size of a modal and its inputs.
type ModalLayout struct {
	Width      int // outer width passed to the modal style
	InputWidth int // visible width of each text input
}

// modalChrome is the border (2) plus horizontal padding (4) of a modal.
const modalChrome = 6

// CalculateModalWidth computes the modal width as widthPercent of the terminal,
// clamped between MinWidth and MaxWidth and never wider than the terminal allows.
func CalculateModalWidth(terminalWidth, widthPercent int, cfg ModalConfig) int {
	width := terminalWidth * widthPercent / 100
	width = max(width, cfg.MinWidth)
	width = min(width, cfg.MaxWidth, terminalWidth-4)
	return max(width, 1)
}

// CalculateModalLayout sizes the add dialog. Inputs use their standard width
// unless the modal is too narrow for it; the prompt takes 2 cells.
func CalculateModalLayout(terminalWidth int, cfg ModalConfig, input InputConfig) ModalLayout {
	width := CalculateModalWidth(terminalWidth, cfg.DefaultWidthPercent, cfg)
	inputWidth := min(input.StandardWidth, width-modalChrome-2)
	return ModalLayout{
		Width:      width,
		InputWidth: max(inputWidth, 1),
	}
}
