// Package di assembles the opt-out pipeline from configuration: storage,
// semantic extractor, browser runner, resolver, executor, classifier,
// manager, and the command registry.
package di

import (
	"context"
	"fmt"
	"reflect"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-optout/pkg/classifier"
	"github.com/goliatone/go-optout/pkg/commands"
	"github.com/goliatone/go-optout/pkg/config"
	"github.com/goliatone/go-optout/pkg/executor"
	"github.com/goliatone/go-optout/pkg/executor/browser"
	openai "github.com/goliatone/go-optout/pkg/extractor/openai"
	"github.com/goliatone/go-optout/pkg/interfaces/extractor"
	"github.com/goliatone/go-optout/pkg/interfaces/logger"
	"github.com/goliatone/go-optout/pkg/optout"
	"github.com/goliatone/go-optout/pkg/resolver"
	"github.com/goliatone/go-optout/pkg/storage"
)

// Options configure the container. Nil fields are built from Config; a zero
// Config falls back to config.Defaults().
type Options struct {
	Config    config.Config
	Storage   storage.Providers
	Logger    logger.Logger
	Extractor extractor.Extractor
	Browser   executor.BrowserRunner
}

// Container wires the pipeline stages, history store, manager, and commands.
type Container struct {
	Config     config.Config
	Storage    storage.Providers
	Resolver   *resolver.Resolver
	Executor   *executor.Executor
	Classifier *classifier.Classifier
	Manager    *optout.Manager
	Commands   *commands.Registry
	// DB is set only when the container opened the sqlite backend itself;
	// the caller owns closing it.
	DB *bun.DB
}

func isZeroConfig(cfg config.Config) bool {
	return reflect.ValueOf(cfg).IsZero()
}

// New constructs the container using the supplied options.
func New(opts Options) (*Container, error) {
	cfg := opts.Config
	if isZeroConfig(cfg) {
		cfg = config.Defaults()
	}

	// Load normalizes partial configs and validates the result.
	cfg, err := config.Load(cfg)
	if err != nil {
		return nil, err
	}

	lgr := opts.Logger
	if lgr == nil {
		lgr = &logger.Nop{}
	}

	c := &Container{Config: cfg}

	c.Storage = opts.Storage
	if c.Storage.Attempts == nil {
		if err := c.buildStorage(cfg.Storage); err != nil {
			return nil, err
		}
	}

	ext := opts.Extractor
	if ext == nil && cfg.Resolver.EnableSemantic {
		ext, err = buildExtractor(cfg.Extractor, lgr)
		if err != nil {
			return nil, err
		}
	}

	runner := opts.Browser
	if runner == nil {
		runner = browser.NewRunner(
			browser.WithHeadless(cfg.Browser.Headless),
			browser.WithLogger(lgr),
		)
	}

	c.Resolver, err = resolver.New(resolver.Config{
		EnableSemantic:   cfg.Resolver.EnableSemantic,
		SemanticTimeout:  cfg.Resolver.SemanticTimeout,
		BodyExcerptLimit: cfg.Resolver.BodyExcerptLimit,
	}, resolver.Dependencies{
		Extractor: ext,
		Logger:    lgr,
	})
	if err != nil {
		return nil, err
	}

	c.Executor, err = executor.New(executor.Config{
		PassiveTimeout:  cfg.Executor.PassiveTimeout,
		PageLoadTimeout: cfg.Browser.PageLoadTimeout,
		SettleInterval:  cfg.Browser.SettleInterval,
		UserAgent:       cfg.Executor.UserAgent,
	}, executor.Dependencies{
		Browser: runner,
		Logger:  lgr,
	})
	if err != nil {
		return nil, err
	}

	c.Classifier = classifier.New()

	c.Manager, err = optout.New(optout.Dependencies{
		Resolver:   c.Resolver,
		Executor:   c.Executor,
		Classifier: c.Classifier,
		Attempts:   c.Storage.Attempts,
		Logger:     lgr,
	})
	if err != nil {
		return nil, err
	}

	c.Commands, err = commands.New(commands.Dependencies{
		Manager: c.Manager,
		Logger:  lgr,
	})
	if err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Container) buildStorage(cfg config.StorageConfig) error {
	switch cfg.Driver {
	case "memory":
		c.Storage = storage.NewMemoryProviders()
		return nil
	case "sqlite":
		db, err := storage.OpenSQLite(cfg.DSN)
		if err != nil {
			return err
		}
		if err := storage.EnsureSchema(context.Background(), db); err != nil {
			db.Close()
			return err
		}
		c.DB = db
		c.Storage = storage.NewBunProviders(db)
		return nil
	default:
		return fmt.Errorf("di: storage driver %q is not supported", cfg.Driver)
	}
}

func buildExtractor(cfg config.ExtractorConfig, lgr logger.Logger) (extractor.Extractor, error) {
	opts := []openai.Option{
		openai.WithModel(cfg.Model),
		openai.WithMaxRetries(cfg.MaxRetries),
		openai.WithLogger(lgr),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.APIKey, cfg.BaseURL))
	}
	return openai.New(cfg.APIKey, opts...)
}
