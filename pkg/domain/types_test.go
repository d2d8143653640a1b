package domain

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestHeaderLookupCaseInsensitive(t *testing.T) {
	req := UnsubscribeRequest{
		Headers: map[string]string{"list-UNSUBSCRIBE": "<https://x.com/u>"},
	}
	if got := req.Header("List-Unsubscribe"); got != "<https://x.com/u>" {
		t.Fatalf("Header() = %q", got)
	}
	if got := req.Header("X-Missing"); got != "" {
		t.Fatalf("missing header returned %q", got)
	}
}

func TestHeaderExactMatchPreferred(t *testing.T) {
	req := UnsubscribeRequest{
		Headers: map[string]string{
			"List-Unsubscribe": "exact",
		},
	}
	if got := req.Header("List-Unsubscribe"); got != "exact" {
		t.Fatalf("Header() = %q, want exact value", got)
	}
}

func TestBoundedBody(t *testing.T) {
	req := UnsubscribeRequest{Body: strings.Repeat("a", 100)}
	if got := req.BoundedBody(10); len(got) != 10 {
		t.Fatalf("bounded length = %d, want 10", len(got))
	}
	if got := req.BoundedBody(0); len(got) != 100 {
		t.Fatalf("unbounded length = %d, want 100", len(got))
	}
	if got := req.BoundedBody(500); len(got) != 100 {
		t.Fatalf("oversized limit length = %d, want 100", len(got))
	}
}

func TestBoundedBodyKeepsRunesIntact(t *testing.T) {
	// Each rune is two bytes; an odd limit lands mid-rune.
	req := UnsubscribeRequest{Body: strings.Repeat("é", 10)}
	got := req.BoundedBody(5)
	if !utf8.ValidString(got) {
		t.Fatalf("excerpt is not valid UTF-8: %q", got)
	}
	if len(got) > 5 {
		t.Fatalf("excerpt length = %d, want <= 5", len(got))
	}
	if got != strings.Repeat("é", 2) {
		t.Fatalf("excerpt = %q, want two runes", got)
	}
}

func TestOutcomeHelpers(t *testing.T) {
	if o := SuccessOutcome("removed"); o.Status != StatusSuccess || !strings.Contains(o.Message, "removed") {
		t.Fatalf("unexpected success outcome %+v", o)
	}
	if o := UncertainOutcome(); o.Status != StatusUncertain {
		t.Fatalf("unexpected uncertain outcome %+v", o)
	}
	if o := NotFoundOutcome(); o.Status != StatusNotFound {
		t.Fatalf("unexpected not-found outcome %+v", o)
	}
	if o := FailedOutcome("boom"); o.Status != StatusFailed || o.Message != "boom" {
		t.Fatalf("unexpected failed outcome %+v", o)
	}
}
