package resolve

import (
	"fmt"
	"regexp"

	"github.com/nikbrunner/anchors/internal/model"
)

// markerRegex matches @UUID[<identifier>] with an optional {label} suffix.
var markerRegex = regexp.MustCompile(`@UUID\[(.+?)\](?:\{([^}]*)\})?`)

// Marker is one embedded reference found in text.
type Marker struct {
	Identifier string
	Label      string // empty when the marker has no label suffix
	Raw        string // the full matched marker text
}

// FirstMarker returns the first marker in text.
func FirstMarker(text string) (Marker, bool) {
	m := markerRegex.FindStringSubmatch(text)
	if m == nil {
		return Marker{}, false
	}
	return Marker{Identifier: m[1], Label: m[2], Raw: m[0]}, true
}

// FindMarkers returns all markers in text in order of appearance.
func FindMarkers(text string) []Marker {
	var markers []Marker
	for _, m := range markerRegex.FindAllStringSubmatch(text, -1) {
		markers = append(markers, Marker{Identifier: m[1], Label: m[2], Raw: m[0]})
	}
	return markers
}

// Enricher renders the rich-text reference for identifier, labelled with
// its last segment.
func Enricher(identifier string) string {
	return fmt.Sprintf("@UUID[%s]{%s}", identifier, model.LastSegment(identifier))
}
