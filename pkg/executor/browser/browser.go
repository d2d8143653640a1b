// Package browser implements the active opt-out strategy on headless Chrome
// via chromedp. Every Run call owns an isolated browser context that is torn
// down on every exit path: normal return, timeout, or fault mid-flow.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"github.com/goliatone/go-optout/pkg/executor"
	"github.com/goliatone/go-optout/pkg/interfaces/logger"
)

// Runner drives one headless-browser session per task.
type Runner struct {
	headless bool
	logger   logger.Logger
	execPath string
}

var _ executor.BrowserRunner = (*Runner)(nil)

// Option configures the runner.
type Option func(*Runner)

// WithHeadless toggles headless mode (on by default).
func WithHeadless(headless bool) Option {
	return func(r *Runner) {
		r.headless = headless
	}
}

// WithLogger attaches a structured logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithExecPath points the allocator at a specific Chrome binary.
func WithExecPath(path string) Option {
	return func(r *Runner) {
		r.execPath = path
	}
}

// NewRunner builds the chromedp-backed runner.
func NewRunner(opts ...Option) *Runner {
	runner := &Runner{
		headless: true,
		logger:   &logger.Nop{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(runner)
		}
	}
	return runner
}

// Run navigates to the task URL, sweeps the selectors, clicks the first
// match, and captures the rendered page. The allocator and browser contexts
// are cancelled via defer so the session is released even when a step faults.
func (r *Runner) Run(ctx context.Context, task executor.BrowserTask) (executor.BrowserResult, error) {
	if task.PageLoadTimeout <= 0 {
		task.PageLoadTimeout = 10 * time.Second
	}
	budget := 2*task.PageLoadTimeout + 2*task.SettleInterval
	sessionCtx, cancelBudget := context.WithTimeout(ctx, budget)
	defer cancelBudget()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(sessionCtx, r.allocatorOptions()...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	result := executor.BrowserResult{}

	navCtx, cancelNav := context.WithTimeout(browserCtx, task.PageLoadTimeout)
	defer cancelNav()
	if err := chromedp.Run(navCtx, chromedp.Navigate(task.URL)); err != nil {
		return result, fmt.Errorf("navigate: %w", err)
	}

	// Let client-side rendering settle before inspecting the DOM.
	if err := r.settle(browserCtx, task.SettleInterval); err != nil {
		return result, err
	}

	for _, selector := range task.Selectors {
		found, err := r.click(browserCtx, selector)
		if err != nil {
			r.logger.Debug("selector click failed, trying next",
				logger.Field{Key: "selector", Value: selector},
				logger.Field{Key: "error", Value: err})
			continue
		}
		if !found {
			continue
		}
		result.Clicked = true
		result.Selector = selector
		if err := r.settle(browserCtx, task.SettleInterval); err != nil {
			return result, err
		}
		break
	}

	var html string
	if err := chromedp.Run(browserCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return result, fmt.Errorf("capture page: %w", err)
	}
	result.PageContent = html
	return result, nil
}

// click reports whether the selector matched and was activated.
func (r *Runner) click(ctx context.Context, selector string) (bool, error) {
	var nodes []*cdp.Node
	if err := chromedp.Run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return false, err
	}
	if len(nodes) == 0 {
		return false, nil
	}
	if err := chromedp.Run(ctx, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Runner) settle(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}
	if err := chromedp.Run(ctx, chromedp.Sleep(interval)); err != nil {
		return fmt.Errorf("settle: %w", err)
	}
	return nil
}

func (r *Runner) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", r.headless),
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.execPath != "" {
		opts = append(opts, chromedp.ExecPath(r.execPath))
	}
	return opts
}
