// Package commands exposes the opt-out pipeline as go-command compatible
// handlers so host transports (queues, schedulers, CLIs) can invoke it
// without importing the pipeline packages directly.
package commands

import (
	"context"
	"errors"
	"strings"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-optout/pkg/domain"
	"github.com/goliatone/go-optout/pkg/interfaces/logger"
	"github.com/goliatone/go-optout/pkg/optout"
)

// ProcessMessage is the payload for one opt-out invocation.
type ProcessMessage struct {
	MessageID string            `json:"message_id"`
	Subject   string            `json:"subject"`
	Headers   map[string]string `json:"headers"`
	Body      string            `json:"body"`
}

// Registry exposes go-command compatible handlers backed by the manager.
type Registry struct {
	ProcessMessage command.Commander[ProcessMessage]
}

// Dependencies wires the pipeline manager into the command registry.
type Dependencies struct {
	Manager *optout.Manager
	Logger  logger.Logger
}

// ErrMissingManager is returned when no pipeline manager is supplied.
var ErrMissingManager = errors.New("commands: optout manager is required")

// New builds the registry using the provided dependencies.
func New(deps Dependencies) (*Registry, error) {
	if deps.Manager == nil {
		return nil, ErrMissingManager
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	return &Registry{
		ProcessMessage: processMessageCommand{manager: deps.Manager, logger: deps.Logger},
	}, nil
}

// Commanders returns every handler so callers can register them with
// go-command registries.
func (r *Registry) Commanders() []any {
	if r == nil {
		return nil
	}
	return []any{r.ProcessMessage}
}

type processMessageCommand struct {
	manager *optout.Manager
	logger  logger.Logger
}

func (c processMessageCommand) Execute(ctx context.Context, msg ProcessMessage) error {
	if strings.TrimSpace(msg.MessageID) == "" {
		return errors.New("commands: message id is required")
	}
	outcome := c.manager.Process(ctx, domain.UnsubscribeRequest{
		MessageID: msg.MessageID,
		Subject:   msg.Subject,
		Headers:   msg.Headers,
		Body:      msg.Body,
	})
	// The pipeline degrades every failure to an Outcome; the transport only
	// sees validation errors.
	c.logger.Info("opt-out processed",
		logger.Field{Key: "message_id", Value: msg.MessageID},
		logger.Field{Key: "status", Value: outcome.Status})
	return nil
}
