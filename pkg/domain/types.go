package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Status is the terminal classification of an opt-out attempt.
type Status string

const (
	// StatusSuccess means page content confirmed the unsubscribe.
	StatusSuccess Status = "success"
	// StatusUncertain means an unsubscribe control was activated but no
	// confirmation text was observed.
	StatusUncertain Status = "uncertain"
	// StatusNotFound means no unsubscribe target could be resolved.
	StatusNotFound Status = "not_found"
	// StatusFailed means a target was resolved but the attempt did not
	// produce any positive signal.
	StatusFailed Status = "failed"
)

// Tier identifies which resolution fallback produced a link.
type Tier string

const (
	TierHeader   Tier = "header"
	TierSemantic Tier = "semantic"
	TierPattern  Tier = "pattern"
)

// Strategy identifies how an opt-out attempt reached the target.
type Strategy string

const (
	// StrategyPassive is a plain HTTP fetch with no script execution.
	StrategyPassive Strategy = "passive"
	// StrategyActive drives a headless browser against the target.
	StrategyActive Strategy = "active"
)

// UnsubscribeRequest is the immutable input to the pipeline: one classified
// newsletter message reduced to the fields the engine needs.
type UnsubscribeRequest struct {
	MessageID string
	Subject   string
	Headers   map[string]string
	Body      string
}

// Header performs a case-insensitive header lookup.
func (r UnsubscribeRequest) Header(name string) string {
	if v, ok := r.Headers[name]; ok {
		return v
	}
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// BoundedBody returns at most limit bytes of the message body, trimmed back
// to a rune boundary so the excerpt stays valid UTF-8. A non-positive limit
// returns the body unchanged.
func (r UnsubscribeRequest) BoundedBody(limit int) string {
	if limit <= 0 || len(r.Body) <= limit {
		return r.Body
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(r.Body[cut]) {
		cut--
	}
	return r.Body[:cut]
}

// ResolvedLink is the single unsubscribe target chosen by the resolver.
// Resolution never ranks candidates: the first tier to produce a validated
// http(s) URL wins and is final.
type ResolvedLink struct {
	URL  string
	Tier Tier
}

// ExecutionAttempt captures what one strategy observed. It is transient state
// handed to the classifier and is not persisted by the core.
type ExecutionAttempt struct {
	Strategy    Strategy
	PageContent string
	Clicked     bool
	TimedOut    bool
	Duration    time.Duration
}

// Outcome is the final classified result returned to the caller. The pipeline
// emits exactly one Outcome per request.
type Outcome struct {
	Status  Status
	Message string
}

// SuccessOutcome reports a content-confirmed unsubscribe naming the marker
// that matched.
func SuccessOutcome(marker string) Outcome {
	return Outcome{Status: StatusSuccess, Message: "unsubscribe confirmed (found: " + marker + ")"}
}

// UncertainOutcome reports that a control was activated without a visible
// confirmation.
func UncertainOutcome() Outcome {
	return Outcome{Status: StatusUncertain, Message: "action taken, confirmation not detected"}
}

// NotFoundOutcome reports that no tier produced an unsubscribe target.
func NotFoundOutcome() Outcome {
	return Outcome{Status: StatusNotFound, Message: "no unsubscribe link found"}
}

// FailedOutcome reports a resolved target that could not be acted on.
func FailedOutcome(reason string) Outcome {
	return Outcome{Status: StatusFailed, Message: reason}
}
