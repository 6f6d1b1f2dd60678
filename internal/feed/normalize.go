package feed

import "strings"

const untitled = "(untitled)"

// Normalize flattens a raw record into a canonical Event.
//
// A record without a usable event code is unrepresentable and is rejected
// (ok=false), never an error. A missing title gets a placeholder. Every
// other field passes through as-is, empty included; the validity filter
// decides what to do with it.
func Normalize(r RawRecord) (Event, bool) {
	fields := make(map[string]string, len(r.Fields))
	for _, f := range r.Fields {
		k := strings.TrimSpace(f.ValidationKey)
		if k == "" {
			continue
		}
		fields[k] = strings.TrimSpace(f.Value)
	}

	code := fields[keyCode]
	if code == "" {
		return Event{}, false
	}

	title := strings.TrimSpace(r.Title)
	if title == "" {
		title = untitled
	}

	return Event{
		Code:     code,
		Title:    title,
		Category: fields[keyCategory],
		Location: fields[keyLocation],
		Status:   fields[keyStatus],
	}, true
}
