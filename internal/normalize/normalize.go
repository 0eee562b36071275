// Package normalize strips escape artifacts from raw log text before
// pattern matching.
//
// Pasted log dumps arrive with literal backslash-escaped newlines and tabs
// and stray quoting left over from upstream serialization. Normalizing them
// up front keeps the extraction patterns simple.
package normalize

import "strings"

// replacer collapses escaped whitespace sequences and drops quoting artifacts.
// Literal "\n" and "\t" become a single space; remaining backslashes and both
// quote characters are removed.
var replacer = strings.NewReplacer(
	`\n`, " ",
	`\t`, " ",
	`\`, "",
	`"`, "",
	`'`, "",
)

// Clean normalizes raw text for pattern matching.
// Returns the empty string for empty input. Idempotent: cleaning an
// already-clean string returns it unchanged.
func Clean(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(replacer.Replace(raw))
}
