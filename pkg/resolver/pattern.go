package resolver

import (
	"regexp"
	"strings"
)

// Matcher is one pure pattern in the body-scanning tier. Matchers run in the
// order returned by PatternMatchers; the first http(s) hit wins.
type Matcher struct {
	Name    string
	pattern *regexp.Regexp
}

// Match returns the first candidate URL in text, if any. Mailto results are
// rejected here; scheme validation happens in the resolver.
func (m Matcher) Match(text string) (string, bool) {
	groups := m.pattern.FindStringSubmatch(text)
	if groups == nil {
		return "", false
	}
	candidate := groups[len(groups)-1]
	if strings.HasPrefix(strings.ToLower(candidate), "mailto:") {
		return "", false
	}
	return candidate, true
}

var patternMatchers = []Matcher{
	{Name: "anchor-unsubscribe", pattern: regexp.MustCompile(`(?i)<a[^>]*href=["']([^"']*unsubscribe[^"']*)["']`)},
	{Name: "anchor-opt-out", pattern: regexp.MustCompile(`(?i)<a[^>]*href=["']([^"']*opt-out[^"']*)["']`)},
	{Name: "anchor-manage-preference", pattern: regexp.MustCompile(`(?i)<a[^>]*href=["']([^"']*manage[^"']*preference[^"']*)["']`)},
	{Name: "bare-unsubscribe", pattern: regexp.MustCompile(`(?i)https?://[^\s<>"{}|\\^` + "`" + `\[\]]*unsubscribe[^\s<>"{}|\\^` + "`" + `\[\]]*`)},
	{Name: "bare-opt-out", pattern: regexp.MustCompile(`(?i)https?://[^\s<>"{}|\\^` + "`" + `\[\]]*opt-out[^\s<>"{}|\\^` + "`" + `\[\]]*`)},
	{Name: "bare-manage-preference", pattern: regexp.MustCompile(`(?i)https?://[^\s<>"{}|\\^` + "`" + `\[\]]*manage[^\s<>"{}|\\^` + "`" + `\[\]]*preference[^\s<>"{}|\\^` + "`" + `\[\]]*`)},
}

// PatternMatchers returns the ordered body matchers. The slice is shared;
// callers must not mutate it.
func PatternMatchers() []Matcher {
	return patternMatchers
}
