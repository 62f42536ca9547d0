package document

import (
	"strings"
	"time"
)

// Completion statuses recorded on archive.
const (
	CompletionSuccess = "success"
	CompletionPartial = "partial"
	CompletionBlocked = "blocked"
)

// isoMillis matches the UTC millisecond timestamps used in archive blocks.
const isoMillis = "2006-01-02T15:04:05.000Z"

// ArchiveInfo is the metadata appended when a document is archived.
type ArchiveInfo struct {
	Date             time.Time
	Reason           string
	CompletionStatus string
	Tags             []string
}

// ArchiveBlock renders the Archive Information lines, ending with a blank line.
func ArchiveBlock(info ArchiveInfo) []string {
	return []string{
		"## 📦 Archive Information",
		"**Archive Date**: " + info.Date.UTC().Format(isoMillis),
		"**Archive Reason**: " + info.Reason,
		"**Completion Status**: " + info.CompletionStatus,
		"**Tags**: " + strings.Join(info.Tags, ", "),
		"",
	}
}

// InsertArchiveBlock inserts the archive block right after the first ---
// line. Without a delimiter the block is prepended.
func InsertArchiveBlock(content string, info ArchiveInfo) string {
	lines := splitLines(content)
	at := delimiterIndex(lines) + 1

	out := make([]string, 0, len(lines)+6)
	out = append(out, lines[:at]...)
	out = append(out, ArchiveBlock(info)...)
	out = append(out, lines[at:]...)
	return strings.Join(out, "\n")
}
