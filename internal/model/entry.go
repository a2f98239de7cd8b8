package model

import "strings"

// Entry is one anchored document reference.
type Entry struct {
	Identifier string `json:"uuid"`
	Label      string `json:"label"`
}

// Valid reports whether both fields are present.
func (e Entry) Valid() bool {
	return strings.TrimSpace(e.Identifier) != "" && strings.TrimSpace(e.Label) != ""
}

// List is the ordered anchor list of one user. Index is the display order
// and the removal key.
type List []Entry

// Clone returns a copy that shares no backing array with l.
// A nil list clones to an empty, non-nil list.
func (l List) Clone() List {
	out := make(List, len(l))
	copy(out, l)
	return out
}

// Equal reports whether both lists hold the same entries in the same order.
func (l List) Equal(other List) bool {
	if len(l) != len(other) {
		return false
	}
	for i := range l {
		if l[i] != other[i] {
			return false
		}
	}
	return true
}

// InRange reports whether index addresses an entry.
func (l List) InRange(index int) bool {
	return index >= 0 && index < len(l)
}
