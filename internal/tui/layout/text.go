package layout

import "github.com/charmbracelet/x/ansi"

const resetCode = "\x1b[0m"

// StripANSI removes escape sequences from s.
func StripANSI(s string) string {
	return ansi.Strip(s)
}

// VisibleLength returns the terminal cell width of s, ignoring escape sequences.
// Wide characters count as two cells.
func VisibleLength(s string) int {
	return ansi.StringWidth(s)
}

// TruncateText shortens text to at most maxWidth cells, ending in the ellipsis.
// Returns the truncated text and whether truncation occurred.
func TruncateText(text string, maxWidth int, cfg TextConfig) (string, bool) {
	if maxWidth <= 0 {
		return "", true
	}
	if ansi.StringWidth(text) <= maxWidth {
		return text, false
	}

	// No room for text next to the ellipsis
	if maxWidth <= ansi.StringWidth(cfg.Ellipsis) {
		return ansi.Truncate(cfg.Ellipsis, maxWidth, ""), true
	}
	return ansi.Truncate(text, maxWidth, cfg.Ellipsis), true
}

// TruncateWithPrefixSuffix truncates text while keeping prefix and suffix intact.
// Example: TruncateWithPrefixSuffix("Harbor Master", 12, "3. ", "", cfg) -> "3. Harbor..."
// Returns the truncated text and whether truncation occurred.
func TruncateWithPrefixSuffix(text string, maxWidth int, prefix, suffix string, cfg TextConfig) (string, bool) {
	if maxWidth <= 0 {
		return "", true
	}

	combined := prefix + text + suffix
	if ansi.StringWidth(combined) <= maxWidth {
		return combined, false
	}

	fixed := ansi.StringWidth(prefix) + ansi.StringWidth(suffix)
	if fixed+ansi.StringWidth(cfg.Ellipsis) >= maxWidth {
		return TruncateText(combined, maxWidth, cfg)
	}

	return prefix + ansi.Truncate(text, maxWidth-fixed, cfg.Ellipsis) + suffix, true
}

// TruncateANSIAware truncates styled text without breaking escape sequences.
// Used for filtered rows where matched characters are highlighted.
// A truncated result ends with a reset code so styles don't bleed.
func TruncateANSIAware(styledText string, maxWidth int, cfg TextConfig) string {
	if maxWidth <= 0 {
		return ""
	}
	if ansi.StringWidth(styledText) <= maxWidth {
		return styledText
	}
	return ansi.Truncate(styledText, maxWidth, cfg.Ellipsis) + resetCode
}
