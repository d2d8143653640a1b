// Package executor performs the opt-out action against a resolved URL: a
// passive bounded HTTP fetch first, escalating to an active headless-browser
// strategy only when the passive fetch fails at the network level.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-optout/pkg/domain"
	"github.com/goliatone/go-optout/pkg/interfaces/logger"
	"github.com/goliatone/go-optout/pkg/redact"
)

// maxCapturedBody bounds how much page content is handed to the classifier.
const maxCapturedBody = 1 << 20

// Config bounds both strategies.
type Config struct {
	PassiveTimeout  time.Duration
	PageLoadTimeout time.Duration
	SettleInterval  time.Duration
	UserAgent       string
}

// Dependencies groups the executor's collaborators.
type Dependencies struct {
	Browser BrowserRunner
	Logger  logger.Logger
	// Client optionally replaces the passive-strategy HTTP client.
	Client *http.Client
}

// Executor runs at most one passive attempt and at most one active attempt
// per invocation. It shares no mutable state across calls.
type Executor struct {
	browser BrowserRunner
	client  *http.Client
	logger  logger.Logger
	cfg     Config
}

var (
	// ErrMissingBrowser is returned when no browser runner is supplied.
	ErrMissingBrowser = errors.New("executor: browser runner is required")
	// ErrUnsupportedScheme is returned for non-http(s) targets.
	ErrUnsupportedScheme = errors.New("executor: only http(s) URLs are supported")
)

// New builds the executor.
func New(cfg Config, deps Dependencies) (*Executor, error) {
	if deps.Browser == nil {
		return nil, ErrMissingBrowser
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	if cfg.PassiveTimeout <= 0 {
		cfg.PassiveTimeout = 10 * time.Second
	}
	if cfg.PageLoadTimeout <= 0 {
		cfg.PageLoadTimeout = 10 * time.Second
	}
	if cfg.SettleInterval < 0 {
		cfg.SettleInterval = 0
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "go-optout/1.0"
	}
	client := deps.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.PassiveTimeout}
	}
	return &Executor{
		browser: deps.Browser,
		client:  client,
		logger:  deps.Logger,
		cfg:     cfg,
	}, nil
}

// Execute attempts the opt-out and returns what was observed. An error means
// neither strategy produced classifiable content; the caller maps that to a
// Failed outcome.
func (e *Executor) Execute(ctx context.Context, link domain.ResolvedLink, subject string) (domain.ExecutionAttempt, error) {
	lower := strings.ToLower(link.URL)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return domain.ExecutionAttempt{}, ErrUnsupportedScheme
	}

	log := e.logger.With(
		logger.Field{Key: "url", Value: redact.URL(link.URL)},
		logger.Field{Key: "subject", Value: subject},
	)

	attempt, netErr := e.passive(ctx, link.URL)
	if netErr == nil {
		log.Info("passive strategy captured page", logger.Field{Key: "strategy", Value: domain.StrategyPassive})
		return attempt, nil
	}

	// An Uncertain classification after a passive success never reaches this
	// point: escalation happens only on network failure.
	log.Warn("passive fetch failed, escalating to browser",
		logger.Field{Key: "error", Value: netErr})

	return e.active(ctx, link.URL, log)
}

// passive issues a bounded GET following redirects. Any transport error,
// non-2xx final status, or empty body counts as a network failure.
func (e *Executor) passive(ctx context.Context, target string) (domain.ExecutionAttempt, error) {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, e.cfg.PassiveTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		return domain.ExecutionAttempt{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", e.cfg.UserAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return domain.ExecutionAttempt{}, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.ExecutionAttempt{}, fmt.Errorf("final status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCapturedBody))
	if err != nil {
		return domain.ExecutionAttempt{}, fmt.Errorf("read body: %w", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return domain.ExecutionAttempt{}, errors.New("empty response body")
	}

	return domain.ExecutionAttempt{
		Strategy:    domain.StrategyPassive,
		PageContent: string(body),
		Duration:    time.Since(start),
	}, nil
}

// active drives one isolated browser session. The runner guarantees session
// teardown on every exit path, including faults mid-flow.
func (e *Executor) active(ctx context.Context, target string, log logger.Logger) (domain.ExecutionAttempt, error) {
	start := time.Now()

	result, err := e.browser.Run(ctx, BrowserTask{
		URL:             target,
		PageLoadTimeout: e.cfg.PageLoadTimeout,
		SettleInterval:  e.cfg.SettleInterval,
		Selectors:       SelectorSweep(),
	})

	attempt := domain.ExecutionAttempt{
		Strategy:    domain.StrategyActive,
		PageContent: result.PageContent,
		Clicked:     result.Clicked,
		TimedOut:    errors.Is(err, context.DeadlineExceeded),
		Duration:    time.Since(start),
	}
	if err != nil {
		return attempt, fmt.Errorf("browser session: %w", err)
	}

	log.Info("active strategy captured page",
		logger.Field{Key: "strategy", Value: domain.StrategyActive},
		logger.Field{Key: "clicked", Value: result.Clicked})
	return attempt, nil
}
