// Package htmlsanitize cleans user-supplied text before it is stored.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strict = bluemonday.StrictPolicy()
	ugc    = bluemonday.UGCPolicy()
)

// PlainText strips every tag from s, decodes entities, and collapses runs of
// whitespace. Used for names (rotations, residents, procedures, quizzes).
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	out := html.UnescapeString(strict.Sanitize(s))
	return strings.Join(strings.Fields(out), " ")
}

// Notes keeps safe formatting in free-text evaluator notes and removes
// scripts, event handlers and dangerous URLs.
func Notes(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(ugc.Sanitize(s))
}
