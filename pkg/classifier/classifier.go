// Package classifier turns captured page content and interaction evidence
// into a final Outcome. Content confirmation always outranks the fact that a
// control was clicked.
package classifier

import (
	"strings"

	"github.com/jaytaylor/html2text"

	"github.com/goliatone/go-optout/pkg/domain"
)

// DefaultMarkers is the fixed success vocabulary scanned in order. The first
// marker present in the page text decides the outcome message.
var DefaultMarkers = []string{
	"unsubscribed",
	"opt out",
	"opt-out",
	"removed",
	"no longer receive",
	"successfully",
}

// Classifier evaluates execution attempts against a marker vocabulary.
type Classifier struct {
	markers []string
}

// Option configures the classifier.
type Option func(*Classifier)

// WithMarkers replaces the success vocabulary.
func WithMarkers(markers []string) Option {
	return func(c *Classifier) {
		if len(markers) > 0 {
			c.markers = markers
		}
	}
}

// New builds a classifier with the default vocabulary.
func New(opts ...Option) *Classifier {
	c := &Classifier{markers: DefaultMarkers}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Classify inspects the attempt. Evaluation order: success marker in page
// text, then interaction evidence, then failure.
func (c *Classifier) Classify(attempt domain.ExecutionAttempt) domain.Outcome {
	text := flatten(attempt.PageContent)

	for _, marker := range c.markers {
		if strings.Contains(text, marker) {
			return domain.SuccessOutcome(marker)
		}
	}

	if attempt.Clicked {
		return domain.UncertainOutcome()
	}

	if attempt.TimedOut {
		return domain.FailedOutcome("page did not load before timeout")
	}
	return domain.FailedOutcome("no unsubscribe control found")
}

// flatten lowers HTML to plain text so markers inside markup still match.
// When flattening fails the raw content is scanned instead.
func flatten(content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	text, err := html2text.FromString(content, html2text.Options{TextOnly: true})
	if err != nil {
		text = content
	}
	return strings.ToLower(text)
}
