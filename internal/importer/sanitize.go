package importer

import (
	"regexp"
	"strings"
)

var (
	disallowedChars    = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)
	repeatedSeparators = regexp.MustCompile(`_{2,}`)
)

// SanitizeFileName normalizes a declared file name into the form stored in
// the ledger: disallowed characters replaced with underscores, repeated
// underscores collapsed, leading and trailing separators trimmed. The
// function is idempotent so the same input file always stores the same name.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	name = disallowedChars.ReplaceAllString(name, "_")
	name = repeatedSeparators.ReplaceAllString(name, "_")
	return strings.Trim(name, "_")
}
