package mcp

import (
	"regexp"
	"strings"

	"teamcity-rest/src/sanitize"
)

// maxStatusTextLength bounds status texts in tool output. Long texts are
// usually lists of failed test names.
const maxStatusTextLength = 300

// shortRevisionLength is the abbreviated length of git SHAs in tool output.
const shortRevisionLength = 12

// whitespacePattern matches multiple consecutive whitespace characters.
var whitespacePattern = regexp.MustCompile(`\s+`)

// normalizeWhitespace collapses multiple spaces/tabs/newlines and trims.
func normalizeWhitespace(line string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(line, " "))
}

// compactStatusText cleans a status text and bounds its length.
func compactStatusText(text string) string {
	text = normalizeWhitespace(sanitize.Clean(text))
	runes := []rune(text)
	if len(runes) > maxStatusTextLength {
		return string(runes[:maxStatusTextLength-3]) + "..."
	}
	return text
}

// shaPattern matches full hex revisions (git SHA-1 and SHA-256).
var shaPattern = regexp.MustCompile(`^[a-f0-9]{40}([a-f0-9]{24})?$`)

// shortRevision abbreviates git SHAs; other VCS versions are kept as is.
func shortRevision(version string) string {
	if shaPattern.MatchString(version) {
		return version[:shortRevisionLength]
	}
	return version
}

// stripRefPrefix turns refs/heads/main into main for display.
func stripRefPrefix(branch string) string {
	return strings.TrimPrefix(branch, "refs/heads/")
}
