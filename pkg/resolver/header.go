package resolver

import (
	"regexp"
	"strings"
)

// ListUnsubscribeHeader is the RFC 2369 header carrying unsubscribe URIs.
const ListUnsubscribeHeader = "List-Unsubscribe"

var angleURLPattern = regexp.MustCompile(`<(https?://[^>]+)>`)

// headerURL extracts the first http(s) URI from a List-Unsubscribe value.
// Entries are comma or space separated and conventionally wrapped in angle
// brackets; mailto entries are skipped.
func headerURL(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}

	if m := angleURLPattern.FindStringSubmatch(value); m != nil {
		return m[1], true
	}

	// Some senders omit the angle brackets.
	for _, entry := range strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	}) {
		entry = strings.Trim(entry, "<> ")
		lower := strings.ToLower(entry)
		if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
			return entry, true
		}
	}
	return "", false
}
