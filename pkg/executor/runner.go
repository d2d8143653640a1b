package executor

import (
	"context"
	"time"
)

// BrowserTask describes one active opt-out attempt: navigate, settle, sweep
// the selectors in order, click the first match, settle again, capture.
type BrowserTask struct {
	URL             string
	PageLoadTimeout time.Duration
	SettleInterval  time.Duration
	Selectors       []string
}

// BrowserResult carries the interaction evidence back to the classifier.
// PageContent may be populated even when the run returned an error.
type BrowserResult struct {
	PageContent string
	Clicked     bool
	Selector    string
}

// BrowserRunner owns the headless-browser session lifecycle. Implementations
// must acquire one isolated session per Run call and release it on every
// exit path.
type BrowserRunner interface {
	Run(ctx context.Context, task BrowserTask) (BrowserResult, error)
}

// selectorSweep targets controls whose class, value, or text suggests an
// unsubscribe action. Order matters: buttons before links before inputs.
var selectorSweep = []string{
	`button[class*='unsubscribe']`,
	`button[class*='opt-out']`,
	`a[class*='unsubscribe']`,
	`a[class*='opt-out']`,
	`input[type='submit'][value*='unsubscribe']`,
	`input[type='submit'][value*='opt-out']`,
}

// SelectorSweep returns the ordered selector list used by the active
// strategy. The slice is shared; callers must not mutate it.
func SelectorSweep() []string {
	return selectorSweep
}
