package document

import (
	"encoding/json"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Section names accepted by update operations.
const (
	SectionProgress    = "progress"
	SectionPriorities  = "priorities"
	SectionIssues      = "issues"
	SectionEnvironment = "environment"
	SectionContext     = "context"
)

// Sections lists every updatable section name.
var Sections = []string{SectionProgress, SectionPriorities, SectionIssues, SectionEnvironment, SectionContext}

// sectionAliases are the normalized heading titles each section answers to,
// in addition to any heading whose title contains the section name.
var sectionAliases = map[string][]string{
	SectionProgress:    {"recentProgress", "justCompleted", "progress"},
	SectionPriorities:  {"immediatePriorities", "priorities", "priorityQueue"},
	SectionIssues:      {"knownIssues", "issues"},
	SectionEnvironment: {"environmentStatus", "environment"},
	SectionContext:     {"projectContext", "context"},
}

// Fields is the ordered content of a section update, decoded from JSON with
// key order preserved.
type Fields = orderedmap.OrderedMap[string, any]

// NewFields returns an empty Fields map.
func NewFields() *Fields {
	return orderedmap.New[string, any]()
}

// Update rewrites one named section.
type Update struct {
	Section string
	Content *Fields
}

// matchesSection reports whether line is a ## heading addressing section.
func matchesSection(line, section string) bool {
	if !isHeading(line) {
		return false
	}
	title := strings.TrimSpace(line[len(headingPrefix):])
	norm := normalizeTitle(title)
	for _, alias := range sectionAliases[section] {
		if norm == alias {
			return true
		}
	}
	return strings.Contains(strings.ToLower(title), strings.ToLower(section))
}

// ApplyUpdates applies updates in order. For each one, the lines between the
// matching heading and the next ## heading (or end of document) are replaced
// with the formatted block. Updates whose heading is not found are skipped.
func ApplyUpdates(content string, updates []Update) (out string, applied, skipped []string) {
	lines := splitLines(content)

	for _, u := range updates {
		start := -1
		for i, line := range lines {
			if matchesSection(line, u.Section) {
				start = i
				break
			}
		}
		if start == -1 {
			skipped = append(skipped, u.Section)
			continue
		}

		end := len(lines)
		for i := start + 1; i < len(lines); i++ {
			if isHeading(lines[i]) {
				end = i
				break
			}
		}

		next := make([]string, 0, start+2+len(lines)-end)
		next = append(next, lines[:start+1]...)
		next = append(next, FormatSection(u.Section, u.Content))
		next = append(next, lines[end:]...)
		lines = next
		applied = append(applied, u.Section)
	}

	return strings.Join(lines, "\n"), applied, skipped
}

// FormatSection renders the replacement block for a section update.
func FormatSection(section string, content *Fields) string {
	if content == nil {
		content = NewFields()
	}
	var b strings.Builder

	switch section {
	case SectionProgress:
		if v, ok := content.Get("completionTime"); ok && truthy(v) {
			b.WriteString("\n**Completion Time**: " + stringify(v) + "\n\n")
		}
		if v, ok := content.Get("completedItems"); ok && truthy(v) {
			b.WriteString("### Completed Items\n")
			writeItems(&b, "- ", v)
		}

	case SectionPriorities:
		b.WriteString("\n### High Priority\n")
		if v, ok := content.Get("highPriority"); ok && truthy(v) {
			writeItems(&b, "- ", v)
		}
		if v, ok := content.Get("mediumPriority"); ok && truthy(v) {
			b.WriteString("\n### Medium Priority\n")
			writeItems(&b, "- ", v)
		}

	case SectionIssues:
		if v, ok := content.Get("critical"); ok && truthy(v) {
			b.WriteString("\n### Critical Issues\n")
			writeItems(&b, "- ❗ ", v)
		}
		if v, ok := content.Get("nonCritical"); ok && truthy(v) {
			b.WriteString("\n### Non-Critical Issues\n")
			writeItems(&b, "- ⚠️ ", v)
		}

	case SectionEnvironment:
		for pair := content.Oldest(); pair != nil; pair = pair.Next() {
			b.WriteString("\n- **" + pair.Key + "**: " + stringify(pair.Value))
		}

	case SectionContext:
		for pair := content.Oldest(); pair != nil; pair = pair.Next() {
			b.WriteString("\n### " + pair.Key + "\n" + stringify(pair.Value) + "\n")
		}
	}

	return b.String()
}

func writeItems(b *strings.Builder, prefix string, v any) {
	for _, item := range toList(v) {
		b.WriteString(prefix + stringify(item) + "\n")
	}
}

func toList(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case nil:
		return nil
	default:
		return []any{t}
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	default:
		return true
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		parts := make([]string, len(t))
		for i, item := range t {
			parts[i] = stringify(item)
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(t, ",")
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(data)
	}
}
