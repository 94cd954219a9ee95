package ingest

import (
	"html"
	"regexp"
	"strings"
)

var (
	reScript     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	reStyle      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	reComment    = regexp.MustCompile(`(?s)<!--.*?-->`)
	reBlockEnd   = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|tr|section|article|blockquote|pre)>|<br\s*/?>`)
	reTag        = regexp.MustCompile(`<[^>]+>`)
	reTitle      = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	reBlankLines = regexp.MustCompile(`\n{3,}`)
	reSpaces     = regexp.MustCompile(`[ \t]+`)
)

// StripHTML reduces an HTML page to readable plain text: scripts, styles
// and comments are removed, block-level closings become newlines, remaining
// tags are dropped and entities unescaped. This is a pragmatic reduction,
// not a browser-grade parse.
func StripHTML(raw string) string {
	text := reScript.ReplaceAllString(raw, " ")
	text = reStyle.ReplaceAllString(text, " ")
	text = reComment.ReplaceAllString(text, " ")
	text = reBlockEnd.ReplaceAllString(text, "\n")
	text = reTag.ReplaceAllString(text, " ")
	text = html.UnescapeString(text)

	// Collapse horizontal whitespace, then trim every line.
	text = reSpaces.ReplaceAllString(text, " ")
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		kept = append(kept, strings.TrimSpace(line))
	}
	text = strings.Join(kept, "\n")
	text = reBlankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// ExtractTitle returns the content of the page's <title> tag, or "".
func ExtractTitle(raw string) string {
	match := reTitle.FindStringSubmatch(raw)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(reTag.ReplaceAllString(match[1], " ")))
}
