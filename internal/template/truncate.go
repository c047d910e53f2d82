package template

import "strings"

// SplitLines bounds a free-text block to maxLines template rows. Blank
// lines are dropped and every kept line is trimmed. When the block is too
// long, the first maxLines-1 lines survive unchanged, the maxLines-th gets
// an ellipsis appended, and everything after it is lost.
func SplitLines(text string, maxLines int) []string {
	if text == "" || maxLines <= 0 {
		return nil
	}
	lines := make([]string, 0, maxLines)
	for _, ln := range strings.Split(text, "\n") {
		if s := strings.TrimSpace(ln); s != "" {
			lines = append(lines, s)
		}
	}
	if len(lines) <= maxLines {
		return lines
	}
	kept := lines[:maxLines-1]
	kept = append(kept, lines[maxLines-1]+"…")
	return kept
}
