// Package optout composes link resolution, action execution, and outcome
// classification into the single entry point hosts call once per detected
// newsletter message.
package optout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-optout/pkg/classifier"
	"github.com/goliatone/go-optout/pkg/domain"
	"github.com/goliatone/go-optout/pkg/executor"
	"github.com/goliatone/go-optout/pkg/interfaces/logger"
	"github.com/goliatone/go-optout/pkg/interfaces/store"
	"github.com/goliatone/go-optout/pkg/redact"
	"github.com/goliatone/go-optout/pkg/resolver"
)

// Dependencies bundles the pipeline stages plus the optional history store.
type Dependencies struct {
	Resolver   *resolver.Resolver
	Executor   *executor.Executor
	Classifier *classifier.Classifier
	Attempts   store.AttemptRepository
	Logger     logger.Logger
}

// Manager runs the pipeline: resolve, execute, classify, record. Process
// always emits exactly one Outcome and never panics or returns an error to
// the caller.
type Manager struct {
	resolver   *resolver.Resolver
	executor   *executor.Executor
	classifier *classifier.Classifier
	attempts   store.AttemptRepository
	logger     logger.Logger
}

var (
	ErrMissingResolver = errors.New("optout: resolver is required")
	ErrMissingExecutor = errors.New("optout: executor is required")
)

// New constructs the manager.
func New(deps Dependencies) (*Manager, error) {
	if deps.Resolver == nil {
		return nil, ErrMissingResolver
	}
	if deps.Executor == nil {
		return nil, ErrMissingExecutor
	}
	if deps.Classifier == nil {
		deps.Classifier = classifier.New()
	}
	if deps.Attempts == nil {
		deps.Attempts = &store.NopAttemptRepository{}
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	return &Manager{
		resolver:   deps.Resolver,
		executor:   deps.Executor,
		classifier: deps.Classifier,
		attempts:   deps.Attempts,
		logger:     deps.Logger,
	}, nil
}

// Process resolves and executes the opt-out for one message. Every failure
// path degrades to a defined Outcome.
func (m *Manager) Process(ctx context.Context, req domain.UnsubscribeRequest) (outcome domain.Outcome) {
	log := m.logger.With(
		logger.Field{Key: "message_id", Value: req.MessageID},
		logger.Field{Key: "subject", Value: req.Subject},
	)

	var link *domain.ResolvedLink
	var attempt domain.ExecutionAttempt

	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline panic recovered", logger.Field{Key: "panic", Value: r})
			outcome = domain.FailedOutcome(fmt.Sprintf("internal fault: %v", r))
		}
		m.record(ctx, req, link, attempt, outcome, log)
	}()

	link = m.resolver.Resolve(ctx, req)
	if link == nil {
		log.Info("no unsubscribe target resolved")
		outcome = domain.NotFoundOutcome()
		return outcome
	}
	log.Info("unsubscribe target resolved",
		logger.Field{Key: "tier", Value: link.Tier},
		logger.Field{Key: "url", Value: redact.URL(link.URL)})

	var err error
	attempt, err = m.executor.Execute(ctx, *link, req.Subject)
	if err != nil {
		log.Warn("execution produced no classifiable content",
			logger.Field{Key: "error", Value: err})
		outcome = m.degrade(attempt, err)
		return outcome
	}

	outcome = m.classifier.Classify(attempt)
	log.Info("opt-out classified",
		logger.Field{Key: "status", Value: outcome.Status},
		logger.Field{Key: "strategy", Value: attempt.Strategy})
	return outcome
}

// degrade maps an execution error to a terminal outcome. A clicked control
// still counts as interaction evidence even when capture failed afterwards.
func (m *Manager) degrade(attempt domain.ExecutionAttempt, err error) domain.Outcome {
	if attempt.Clicked {
		return domain.UncertainOutcome()
	}
	return domain.FailedOutcome("opt-out attempt failed: " + err.Error())
}

// record appends the attempt to history. Best-effort: a write failure is
// logged and never alters the outcome.
func (m *Manager) record(ctx context.Context, req domain.UnsubscribeRequest, link *domain.ResolvedLink, attempt domain.ExecutionAttempt, outcome domain.Outcome, log logger.Logger) {
	record := &domain.OptOutAttempt{
		MessageID:   req.MessageID,
		Subject:     req.Subject,
		Status:      outcome.Status,
		Message:     outcome.Message,
		AttemptedAt: time.Now().UTC(),
	}
	if link != nil {
		record.URL = link.URL
		record.Tier = link.Tier
		record.Strategy = attempt.Strategy
	}
	if err := m.attempts.Create(ctx, record); err != nil {
		log.Warn("failed to record opt-out attempt",
			logger.Field{Key: "error", Value: err})
	}
}

// Stats summarizes recorded attempts by terminal status.
type Stats struct {
	Total    int
	ByStatus map[domain.Status]int
}

// Stats reads the history store. Hosts using the Nop repository get zeros.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	counts, err := m.attempts.CountByStatus(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("optout: count attempts: %w", err)
	}
	stats := Stats{ByStatus: counts}
	for _, n := range counts {
		stats.Total += n
	}
	return stats, nil
}

// History lists prior attempts for a message, newest last.
func (m *Manager) History(ctx context.Context, messageID string) ([]domain.OptOutAttempt, error) {
	return m.attempts.ListByMessage(ctx, messageID)
}
