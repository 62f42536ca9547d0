// Package document implements the handoff markdown model: template
// instantiation, metadata and summary extraction, section rewriting,
// archive blocks and the derived listing info.
package document

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	headingPrefix   = "## "
	delimiterPrefix = "---"
)

var camelRe = regexp.MustCompile(`[^a-zA-Z0-9]+(.)`)

// CamelCase lowercases s and folds every run of non-alphanumerics into an
// uppercase of the following character: "Session Duration" → "sessionDuration".
func CamelCase(s string) string {
	out := camelRe.ReplaceAllStringFunc(strings.ToLower(s), func(m string) string {
		r := []rune(m)
		return strings.ToUpper(string(r[len(r)-1]))
	})
	if out != "" && out[0] >= 'A' && out[0] <= 'Z' {
		out = strings.ToLower(out[:1]) + out[1:]
	}
	return out
}

// normalizeTitle strips emoji and punctuation from a heading title and camelCases it.
func normalizeTitle(title string) string {
	plain := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, title)
	return CamelCase(strings.TrimSpace(plain))
}

func splitLines(content string) []string {
	return strings.Split(content, "\n")
}

func isHeading(line string) bool {
	return strings.HasPrefix(line, headingPrefix)
}

func isDelimiter(line string) bool {
	return strings.HasPrefix(line, delimiterPrefix)
}

// delimiterIndex returns the index of the first --- line, or -1.
func delimiterIndex(lines []string) int {
	for i, line := range lines {
		if isDelimiter(line) {
			return i
		}
	}
	return -1
}

// Metadata extracts the **Key**: value pairs of the header block. Scanning
// stops at the first --- line; without one the whole document is scanned.
func Metadata(content string) map[string]string {
	out := make(map[string]string)
	for _, line := range splitLines(content) {
		if strings.HasPrefix(line, "**") && strings.Contains(line, ":") {
			key, value, _ := strings.Cut(strings.ReplaceAll(line, "**", ""), ":")
			out[CamelCase(strings.TrimSpace(key))] = strings.TrimSpace(value)
		}
		if isDelimiter(line) {
			break
		}
	}
	return out
}
