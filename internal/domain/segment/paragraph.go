package segment

import (
	"regexp"
	"strings"
)

// newlineRuns matches one or more consecutive line breaks. A lone carriage
// return counts so CRLF and old Mac line endings split the same way.
var newlineRuns = regexp.MustCompile(`[\r\n]+`)

// SplitParagraphs breaks text on runs of newlines and returns the non-blank
// pieces, trimmed of edge whitespace, in source order.
func SplitParagraphs(text string) []string {
	paragraphs := make([]string, 0)
	if text == "" {
		return paragraphs
	}
	for _, piece := range newlineRuns.Split(text, -1) {
		if trimmed := strings.TrimSpace(piece); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}
	return paragraphs
}
