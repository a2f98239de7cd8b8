package exporter

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nikbrunner/anchors/internal/model"
)

// DefaultExportPath returns the default export file path.
// Format: ~/Downloads/anchors-<user>-YYYY-MM-DD.html
func DefaultExportPath(user string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("anchors-%s-%s.html", user, time.Now().Format("2006-01-02"))
	return filepath.Join(home, "Downloads", filename), nil
}

// ExportHTML renders the list as a journal page of content links, one per
// anchor, in list order.
func ExportHTML(list model.List, title string) string {
	if title == "" {
		title = "Anchors"
	}
	title = html.EscapeString(title)

	var b strings.Builder

	// Header
	b.WriteString("<!DOCTYPE html>\n")
	b.WriteString("<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", title)
	fmt.Fprintf(&b, "<h1>%s</h1>\n", title)
	b.WriteString("<ul>\n")

	for _, e := range list {
		fmt.Fprintf(&b,
			"    <li><a class=\"content-link\" draggable=\"true\" data-uuid=\"%s\">%s</a></li>\n",
			html.EscapeString(e.Identifier),
			html.EscapeString(e.Label),
		)
	}

	// Footer
	b.WriteString("</ul>\n")

	return b.String()
}
