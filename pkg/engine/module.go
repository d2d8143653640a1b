// Package engine is the composition root: one call assembles the full
// opt-out pipeline from configuration.
package engine

import (
	"github.com/goliatone/go-optout/internal/di"
	"github.com/goliatone/go-optout/pkg/commands"
	"github.com/goliatone/go-optout/pkg/config"
	"github.com/goliatone/go-optout/pkg/executor"
	"github.com/goliatone/go-optout/pkg/interfaces/extractor"
	"github.com/goliatone/go-optout/pkg/interfaces/logger"
	"github.com/goliatone/go-optout/pkg/optout"
	"github.com/goliatone/go-optout/pkg/storage"
)

// ModuleOptions configure the module facade. Nil fields are built from
// Config.
type ModuleOptions struct {
	Config    config.Config
	Storage   storage.Providers
	Logger    logger.Logger
	Extractor extractor.Extractor
	Browser   executor.BrowserRunner
}

// Module bundles the container and exposes high-level accessors.
type Module struct {
	container *di.Container
}

// NewModule assembles storage, pipeline stages, manager, and commands.
func NewModule(opts ModuleOptions) (*Module, error) {
	container, err := di.New(di.Options{
		Config:    opts.Config,
		Storage:   opts.Storage,
		Logger:    opts.Logger,
		Extractor: opts.Extractor,
		Browser:   opts.Browser,
	})
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Manager returns the opt-out pipeline manager.
func (m *Module) Manager() *optout.Manager {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Manager
}

// Commands returns the go-command registry.
func (m *Module) Commands() *commands.Registry {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Commands
}

// Config returns the effective module configuration.
func (m *Module) Config() config.Config {
	if m == nil || m.container == nil {
		return config.Config{}
	}
	return m.container.Config
}

// Storage exposes the wired history repositories.
func (m *Module) Storage() storage.Providers {
	if m == nil || m.container == nil {
		return storage.Providers{}
	}
	return m.container.Storage
}

// Container returns the internal DI container.
// This is exposed for advanced use cases like direct storage access.
func (m *Module) Container() *di.Container {
	if m == nil {
		return nil
	}
	return m.container
}

// Close releases the sqlite handle when the module opened it itself.
func (m *Module) Close() error {
	if m == nil || m.container == nil || m.container.DB == nil {
		return nil
	}
	return m.container.DB.Close()
}
