package document

import (
	"regexp"
	"strings"
)

// Environment status markers accepted in templates and create requests.
const (
	StatusOK      = "✅"
	StatusWarning = "⚠️"
	StatusError   = "❌"

	envPlaceholder = StatusOK + "/" + StatusWarning + "/" + StatusError
)

// KeyValue is an ordered key/value pair.
type KeyValue struct {
	Key   string
	Value string
}

// TemplateData holds the caller-supplied values substituted into a template.
type TemplateData struct {
	Date           string
	Time           string
	WorkingOn      string
	Status         string
	NextStep       string
	ProjectContext string
	// Environment is applied in order; each key fills its first placeholder.
	Environment []KeyValue
}

// Populate fills the placeholders of tpl. Each placeholder is replaced at
// its first occurrence only.
func Populate(tpl string, data TemplateData) string {
	out := tpl
	out = strings.Replace(out, "[YYYY-MM-DD HH:MM UTC]", strings.TrimSpace(data.Date+" "+data.Time), 1)
	out = strings.Replace(out, "[YYYY-MM-DD]", data.Date, 1)
	out = strings.Replace(out, "[HH:MM UTC]", data.Time, 1)
	out = strings.Replace(out, "[Current primary task]", data.WorkingOn, 1)
	out = strings.Replace(out, "[How far along]", data.Status, 1)
	out = strings.Replace(out, "[Very specific next action]", data.NextStep, 1)

	if data.ProjectContext != "" {
		out = strings.Replace(out, "[Brief description of main objective]", data.ProjectContext, 1)
	}

	for _, kv := range data.Environment {
		re := regexp.MustCompile(regexp.QuoteMeta(kv.Key) + `.*: ` + regexp.QuoteMeta(envPlaceholder))
		out = replaceFirst(re, out, kv.Key+": "+kv.Value)
	}
	return out
}

func replaceFirst(re *regexp.Regexp, s, repl string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + repl + s[loc[1]:]
}
