package resolve

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	stdhtml "html"
	"mime"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

var ErrUnrecognizedDrop = errors.New("drop not recognized")

// namePolicy strips all markup from names supplied by a drop.
var namePolicy = bluemonday.StrictPolicy()

// ParseDrop decodes raw drag data into DropData. An empty or text/plain
// contentType is sniffed: hosts put their JSON drag data on text/plain.
func ParseDrop(contentType string, body []byte) (DropData, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return DropData{}, fmt.Errorf("%w: empty payload", ErrUnrecognizedDrop)
	}

	mediaType := ""
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			mediaType = mt
		}
	}

	sniff := mediaType == "" || mediaType == "text/plain"

	switch {
	case mediaType == "application/json":
		return parseJSONDrop(body)
	case mediaType == "text/html":
		return parseHTMLDrop(body)
	case sniff && (body[0] == '{' || body[0] == '"'):
		// Fall back to text when it isn't JSON after all
		if data, err := parseJSONDrop(body); err == nil {
			return data, nil
		}
		return DropData{Text: string(body)}, nil
	case mediaType == "" && body[0] == '<':
		return parseHTMLDrop(body)
	default:
		return DropData{Text: string(body)}, nil
	}
}

func parseJSONDrop(body []byte) (DropData, error) {
	if body[0] == '"' {
		var text string
		if err := json.Unmarshal(body, &text); err != nil {
			return DropData{}, fmt.Errorf("%w: %v", ErrUnrecognizedDrop, err)
		}
		return DropData{Text: text}, nil
	}

	var data DropData
	if err := json.Unmarshal(body, &data); err != nil {
		return DropData{}, fmt.Errorf("%w: %v", ErrUnrecognizedDrop, err)
	}
	data.UUID = strings.TrimSpace(data.UUID)
	data.Pack = strings.TrimSpace(data.Pack)
	data.ID = strings.TrimSpace(data.ID)
	data.Type = strings.TrimSpace(data.Type)
	data.Name = CleanName(data.Name)
	return data, nil
}

// parseHTMLDrop reads rich-text embeds. The first content link supplies the
// reference fields; the visible text is kept for marker scanning.
func parseHTMLDrop(body []byte) (DropData, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return DropData{}, fmt.Errorf("%w: %v", ErrUnrecognizedDrop, err)
	}

	var data DropData
	if link := FirstContentLink(doc); link != nil {
		data.UUID = GetAttr(link, "data-uuid")
		data.Pack = GetAttr(link, "data-pack")
		data.ID = GetAttr(link, "data-id")
		data.Type = GetAttr(link, "data-type")
		data.Name = CleanName(GetTextContent(link))
	}
	data.Text = GetTextContent(doc)

	if data.UUID == "" && data.ID == "" && data.Text == "" {
		return DropData{}, fmt.Errorf("%w: no content", ErrUnrecognizedDrop)
	}
	return data, nil
}

// CleanName strips markup and surrounding space from an untrusted name.
func CleanName(name string) string {
	return strings.TrimSpace(stdhtml.UnescapeString(namePolicy.Sanitize(name)))
}

// IsContentLink reports whether n is an anchor that references a document.
func IsContentLink(n *html.Node) bool {
	if n.Type != html.ElementNode || !strings.EqualFold(n.Data, "a") {
		return false
	}
	return GetAttr(n, "data-uuid") != "" || GetAttr(n, "data-id") != ""
}

// FirstContentLink returns the first content link below n, or nil.
func FirstContentLink(n *html.Node) *html.Node {
	if IsContentLink(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := FirstContentLink(c); found != nil {
			return found
		}
	}
	return nil
}

// GetTextContent returns the text content of a node.
func GetTextContent(n *html.Node) string {
	var text strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(text.String())
}

// GetAttr returns the value of an attribute, case-insensitive.
func GetAttr(n *html.Node, key string) string {
	key = strings.ToLower(key)
	for _, attr := range n.Attr {
		if strings.ToLower(attr.Key) == key {
			return strings.TrimSpace(attr.Val)
		}
	}
	return ""
}
