// Package redact masks sensitive fragments of unsubscribe URLs before they
// reach logs. Unsubscribe links routinely embed per-recipient tokens and
// email addresses in query parameters.
package redact

import (
	"net/url"
	"strings"

	masker "github.com/goliatone/go-masker"
)

// URL returns a loggable copy of raw with every query parameter value
// masked. Scheme, host, and path stay readable so operators can still tell
// which provider was targeted. Unparseable input is masked wholesale.
func URL(raw string) string {
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return Value(raw)
	}
	query := parsed.Query()
	if len(query) == 0 {
		return parsed.String()
	}
	masked := url.Values{}
	for key, values := range query {
		for _, v := range values {
			masked.Add(key, Value(v))
		}
	}
	parsed.RawQuery = masked.Encode()
	return parsed.String()
}

// Value masks a single string, preserving two characters at each end when
// the value is long enough to stay unidentifiable.
func Value(value string) string {
	if value == "" {
		return ""
	}
	if masked, err := masker.Default.String("preserveEnds(2,2)", value); err == nil {
		return masked
	}
	// Fallback masking if no rule is registered.
	runes := []rune(value)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:2]) + strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-2:])
}
