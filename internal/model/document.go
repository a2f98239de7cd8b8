package model

import "strings"

// Identifier delimiter and namespace token used by the host.
const (
	Delimiter       = "."
	CompendiumToken = "Compendium"
)

// Document is the host's view of a document that can be anchored.
type Document struct {
	ID   string `json:"id" yaml:"id"`
	Type string `json:"type" yaml:"type"`           // collection name, e.g. "Actor"
	Name string `json:"name" yaml:"name"`           // display name
	Pack string `json:"pack,omitempty" yaml:"pack"` // compendium name, empty for world documents
	Body string `json:"body,omitempty" yaml:"body"`
}

// Identifier returns the canonical reference of the document.
// World documents are "<Type>.<ID>", compendium documents "Compendium.<Pack>.<ID>".
func (d Document) Identifier() string {
	if d.Pack != "" {
		return CompendiumIdentifier(d.Pack, d.ID)
	}
	return strings.Join([]string{d.Type, d.ID}, Delimiter)
}

// CompendiumIdentifier composes the identifier of an entry inside a compendium pack.
func CompendiumIdentifier(pack, id string) string {
	return strings.Join([]string{CompendiumToken, pack, id}, Delimiter)
}

// LastSegment returns the part of identifier after the last delimiter, or the
// whole identifier when that part is empty.
func LastSegment(identifier string) string {
	parts := strings.Split(identifier, Delimiter)
	if last := parts[len(parts)-1]; last != "" {
		return last
	}
	return identifier
}
