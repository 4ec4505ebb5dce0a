// Package sanitize cleans server-provided text (status texts, VCS root names)
// for plain output: JSON tool responses and non-terminal CLI output.
// It removes terminal escape sequences and TeamCity service messages.
package sanitize

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// serviceMessage matches ##teamcity[...] markers. Inside the brackets "|" escapes the next character.
var serviceMessage = regexp.MustCompile(`##teamcity\[(?:[^\]|]|\|.)*\]`)

// StripANSI removes terminal escape sequences.
func StripANSI(s string) string {
	return ansi.Strip(s)
}

// StripServiceMessages removes ##teamcity[...] service messages.
func StripServiceMessages(s string) string {
	return serviceMessage.ReplaceAllString(s, "")
}

// Clean strips escape sequences and service messages, normalizes line
// endings and trims surrounding whitespace.
func Clean(s string) string {
	s = StripANSI(s)
	s = StripServiceMessages(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "")
	return strings.TrimSpace(s)
}
