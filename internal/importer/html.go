package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/nikbrunner/anchors/internal/resolve"
	"golang.org/x/net/html"
)

// ParseJournalHTML parses a journal page and returns one drop for every
// document reference in it, in document order. Rendered content links carry
// their data attributes and link text; raw @UUID[...] markers are returned
// as marker text. Callers resolve each drop like any other.
func ParseJournalHTML(r io.Reader) ([]resolve.DropData, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse journal: %w", err)
	}

	var drops []resolve.DropData

	var parse func(*html.Node)
	parse = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch strings.ToLower(n.Data) {
			case "script", "style":
				return
			case "a":
				if !resolve.IsContentLink(n) {
					break
				}
				if d := linkDrop(n); len(d.Candidates()) > 0 {
					drops = append(drops, d)
				}
				return // Don't recurse into the link
			}

		case html.TextNode:
			for _, m := range resolve.FindMarkers(n.Data) {
				drops = append(drops, resolve.DropData{Text: m.Raw})
			}
			return
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			parse(c)
		}
	}

	parse(doc)
	return drops, nil
}

func linkDrop(n *html.Node) resolve.DropData {
	return resolve.DropData{
		UUID: resolve.GetAttr(n, "data-uuid"),
		Pack: resolve.GetAttr(n, "data-pack"),
		ID:   resolve.GetAttr(n, "data-id"),
		Type: resolve.GetAttr(n, "data-type"),
		Name: resolve.CleanName(resolve.GetTextContent(n)),
	}
}
