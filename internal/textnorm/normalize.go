// Package textnorm canonicalizes incident mail text before extraction.
package textnorm

import (
	"strings"

	"golang.org/x/text/width"
)

var replacer = strings.NewReplacer(
	"：", ":",
	"\t", " ",
	"\r\n", "\n",
	"\r", "\n",
)

// Normalize folds full-width/half-width character forms, unifies the colon
// delimiter, converts tabs to spaces and line endings to "\n". Pure and
// total: empty input yields empty output.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	t := width.Fold.String(text)
	return replacer.Replace(t)
}
