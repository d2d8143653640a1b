// Package resolver finds at most one unsubscribe URL for a message using
// ordered fallback tiers: the List-Unsubscribe header, an optional semantic
// extractor, then body pattern matching. Each tier's failure is a miss, never
// a pipeline error, and the first validated http(s) URL is final.
package resolver

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-optout/pkg/domain"
	"github.com/goliatone/go-optout/pkg/interfaces/extractor"
	"github.com/goliatone/go-optout/pkg/interfaces/logger"
)

// Config controls tier behavior. The zero value disables the semantic tier.
type Config struct {
	EnableSemantic   bool
	SemanticTimeout  time.Duration
	BodyExcerptLimit int
}

// Dependencies groups the collaborators required by the resolver.
type Dependencies struct {
	Extractor extractor.Extractor
	Logger    logger.Logger
}

// Resolver walks the fallback tiers in order. It holds no mutable state:
// resolving identical inputs twice yields identical results.
type Resolver struct {
	extractor extractor.Extractor
	logger    logger.Logger
	cfg       Config
}

// ErrMissingExtractor is returned when the semantic tier is enabled without
// an extractor implementation.
var ErrMissingExtractor = errors.New("resolver: extractor is required when the semantic tier is enabled")

// New builds the resolver.
func New(cfg Config, deps Dependencies) (*Resolver, error) {
	if cfg.EnableSemantic && deps.Extractor == nil {
		return nil, ErrMissingExtractor
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	if deps.Extractor == nil {
		deps.Extractor = &extractor.Nop{}
	}
	if cfg.SemanticTimeout <= 0 {
		cfg.SemanticTimeout = 15 * time.Second
	}
	if cfg.BodyExcerptLimit <= 0 {
		cfg.BodyExcerptLimit = 2000
	}
	return &Resolver{
		extractor: deps.Extractor,
		logger:    deps.Logger,
		cfg:       cfg,
	}, nil
}

// Resolve returns the unsubscribe target for the message, or nil when every
// tier misses.
func (r *Resolver) Resolve(ctx context.Context, req domain.UnsubscribeRequest) *domain.ResolvedLink {
	headerValue := req.Header(ListUnsubscribeHeader)

	if raw, ok := headerURL(headerValue); ok {
		if validated, ok := validateHTTPURL(raw); ok {
			r.logger.Info("resolved unsubscribe link from header", logger.Field{Key: "tier", Value: domain.TierHeader})
			return &domain.ResolvedLink{URL: validated, Tier: domain.TierHeader}
		}
	}

	if r.cfg.EnableSemantic {
		if link := r.resolveSemantic(ctx, headerValue, req); link != nil {
			return link
		}
	}

	for _, matcher := range PatternMatchers() {
		raw, ok := matcher.Match(req.Body)
		if !ok {
			continue
		}
		validated, ok := validateHTTPURL(raw)
		if !ok {
			r.logger.Debug("pattern matched non-http candidate, skipping",
				logger.Field{Key: "matcher", Value: matcher.Name})
			continue
		}
		r.logger.Info("resolved unsubscribe link from body pattern",
			logger.Field{Key: "tier", Value: domain.TierPattern},
			logger.Field{Key: "matcher", Value: matcher.Name})
		return &domain.ResolvedLink{URL: validated, Tier: domain.TierPattern}
	}

	return nil
}

func (r *Resolver) resolveSemantic(ctx context.Context, headerValue string, req domain.UnsubscribeRequest) *domain.ResolvedLink {
	callCtx, cancel := context.WithTimeout(ctx, r.cfg.SemanticTimeout)
	defer cancel()

	raw, found, err := r.extractor.Extract(callCtx, extractor.Input{
		HeaderValue: headerValue,
		BodyExcerpt: req.BoundedBody(r.cfg.BodyExcerptLimit),
		Subject:     req.Subject,
	})
	if err != nil {
		r.logger.Warn("semantic extraction failed, falling through",
			logger.Field{Key: "error", Value: err})
		return nil
	}
	if !found {
		return nil
	}
	validated, ok := validateHTTPURL(raw)
	if !ok {
		r.logger.Warn("semantic extractor returned non-http url, falling through")
		return nil
	}
	r.logger.Info("resolved unsubscribe link from semantic tier",
		logger.Field{Key: "tier", Value: domain.TierSemantic})
	return &domain.ResolvedLink{URL: validated, Tier: domain.TierSemantic}
}

// validateHTTPURL accepts only absolute http(s) URLs with a host.
func validateHTTPURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	default:
		return "", false
	}
	if parsed.Host == "" {
		return "", false
	}
	return raw, true
}
