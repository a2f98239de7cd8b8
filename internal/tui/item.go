package tui

import (
	"strconv"

	"github.com/nikbrunner/anchors/internal/model"
)

// Item is one visible row of the anchor list.
type Item struct {
	Index          int // position in the stored list
	Entry          model.Entry
	MatchedIndexes []int // byte offsets into the label, set while filtering
}

// Title returns the display label.
func (i Item) Title() string {
	return i.Entry.Label
}

// Number returns the 1-based list position shown before the label.
func (i Item) Number() string {
	return strconv.Itoa(i.Index+1) + ". "
}
