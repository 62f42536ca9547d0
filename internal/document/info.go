package document

import (
	"strings"
	"time"
)

// Info is the listing view of a handoff document, derived from its text.
type Info struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Date     string `json:"date"`
	Status   string `json:"status"`
	Priority int    `json:"priority"`
}

// priorityMarkers ranks the urgency emoji used for list ordering.
var priorityMarkers = []struct {
	marker string
	rank   int
}{
	{"🔥", 4},
	{"⚡", 3},
	{"📋", 2},
	{"💡", 1},
}

// ParseInfo scans the header block for title, date and type, and ranks the
// whole content for priority. ID and Status are left to the caller.
func ParseInfo(content string) Info {
	info := Info{Type: TypeStandard}
	for _, line := range splitLines(content) {
		switch {
		case strings.HasPrefix(line, "**Date**:"):
			_, value, _ := strings.Cut(line, ":")
			info.Date = strings.TrimSpace(value)
		case strings.HasPrefix(line, "# "):
			info.Title = strings.TrimSpace(line[2:])
		}
		if strings.Contains(line, "Quick Handoff") {
			info.Type = TypeQuick
		}
		if isDelimiter(line) {
			break
		}
	}
	info.Priority = Priority(content)
	return info
}

// Priority returns the highest marker rank found anywhere in content, or 0.
func Priority(content string) int {
	for _, p := range priorityMarkers {
		if strings.Contains(content, p.marker) {
			return p.rank
		}
	}
	return 0
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04 MST",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

// ParseDate parses a handoff date. Values starting with YYYY-MM-DD followed by
// anything else fall back to the date prefix.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if len(s) >= 10 {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// InDateRange reports whether date falls within [start, end]. Any
// unparseable value yields false.
func InDateRange(date, start, end string) bool {
	d, ok := ParseDate(date)
	if !ok {
		return false
	}
	s, ok := ParseDate(start)
	if !ok {
		return false
	}
	e, ok := ParseDate(end)
	if !ok {
		return false
	}
	return !d.Before(s) && !d.After(e)
}

// HasIssues reports whether content has a known-issues heading and does not
// declare "No known issues".
func HasIssues(content string) bool {
	if strings.Contains(content, "No known issues") {
		return false
	}
	for _, line := range splitLines(content) {
		if isHeading(line) && strings.Contains(strings.ToLower(line), "known issues") {
			return true
		}
	}
	return false
}

// HasAnyTag reports whether any tag occurs in content, case-insensitively.
func HasAnyTag(content string, tags []string) bool {
	lower := strings.ToLower(content)
	for _, tag := range tags {
		if strings.Contains(lower, strings.ToLower(tag)) {
			return true
		}
	}
	return false
}
