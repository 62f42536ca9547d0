package document

import (
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Summary maps each ## section (camelCased heading) to its bullet entries,
// in document order. Non-bullet lines are ignored.
type Summary = orderedmap.OrderedMap[string, []string]

// Summarize builds the section→bullets summary of content.
func Summarize(content string) *Summary {
	summary := orderedmap.New[string, []string]()
	current := ""
	for _, line := range splitLines(content) {
		if isHeading(line) {
			current = CamelCase(strings.TrimSpace(strings.Replace(line, headingPrefix, "", 1)))
			summary.Set(current, []string{})
			continue
		}
		if current == "" || strings.TrimSpace(line) == "" || isDelimiter(line) {
			continue
		}
		if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
			items, _ := summary.Get(current)
			summary.Set(current, append(items, strings.TrimSpace(line[2:])))
		}
	}
	return summary
}
