// Package openai implements the semantic extraction tier against the OpenAI
// chat completions API. The model is asked for a single-line response in a
// fixed grammar; anything else is treated as a miss, never as a pipeline
// error.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	gotemplate "github.com/goliatone/go-template"
	openai "github.com/sashabaranov/go-openai"

	"github.com/goliatone/go-optout/pkg/interfaces/extractor"
	"github.com/goliatone/go-optout/pkg/interfaces/logger"
	"github.com/goliatone/go-optout/pkg/retry"
)

// ErrMalformedResponse indicates the model's reply violated the expected
// "URL: <uri>" grammar.
var ErrMalformedResponse = errors.New("openai: response does not match URL grammar")

// notFoundToken is the literal the model must return when no link exists.
const notFoundToken = "NOT_FOUND"

var responseGrammar = regexp.MustCompile(`^URL:\s*(\S+)$`)

// Completer is the narrow slice of the OpenAI client the extractor uses,
// kept as an interface so tests can stub completions.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client extracts unsubscribe URLs from message content via chat completions.
type Client struct {
	completer Completer
	renderer  *gotemplate.Engine
	logger    logger.Logger
	model     string
	retries   int
	backoff   retry.Backoff
}

var _ extractor.Extractor = (*Client)(nil)

// Option configures the extractor client.
type Option func(*Client)

// WithModel overrides the completion model.
func WithModel(model string) Option {
	return func(c *Client) {
		if strings.TrimSpace(model) != "" {
			c.model = model
		}
	}
}

// WithCompleter injects a custom completion backend (test doubles, proxies).
func WithCompleter(completer Completer) Option {
	return func(c *Client) {
		if completer != nil {
			c.completer = completer
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithBackoff overrides the retry policy for transient API errors.
func WithBackoff(b retry.Backoff) Option {
	return func(c *Client) {
		if b != nil {
			c.backoff = b
		}
	}
}

// WithMaxRetries bounds additional attempts after a transient failure.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(apiKey, baseURL string) Option {
	return func(c *Client) {
		cfg := openai.DefaultConfig(apiKey)
		if strings.TrimSpace(baseURL) != "" {
			cfg.BaseURL = baseURL
		}
		c.completer = openai.NewClientWithConfig(cfg)
	}
}

// New constructs the extractor client.
func New(apiKey string, opts ...Option) (*Client, error) {
	renderer, err := gotemplate.NewRenderer(gotemplate.WithBaseDir("."))
	if err != nil {
		return nil, fmt.Errorf("openai: renderer: %w", err)
	}

	client := &Client{
		renderer: renderer,
		logger:   &logger.Nop{},
		model:    openai.GPT4oMini,
		retries:  1,
		backoff:  retry.DefaultBackoff(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.completer == nil {
		if strings.TrimSpace(apiKey) == "" {
			return nil, errors.New("openai: api key is required")
		}
		client.completer = openai.NewClient(apiKey)
	}
	return client, nil
}

// Extract asks the model for an unsubscribe URL. Grammar violations return
// ErrMalformedResponse; a clean NOT_FOUND returns (_, false, nil).
func (c *Client) Extract(ctx context.Context, in extractor.Input) (string, bool, error) {
	prompt, err := c.renderPrompt(in)
	if err != nil {
		return "", false, fmt.Errorf("openai: render prompt: %w", err)
	}

	resp, err := c.complete(ctx, prompt)
	if err != nil {
		return "", false, fmt.Errorf("openai: completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", false, ErrMalformedResponse
	}

	return parseResponse(resp.Choices[0].Message.Content)
}

func (c *Client) complete(ctx context.Context, prompt string) (openai.ChatCompletionResponse, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.1,
		MaxTokens:   200,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			if err := retry.Sleep(ctx, c.backoff, attempt); err != nil {
				return openai.ChatCompletionResponse{}, err
			}
			c.logger.Debug("retrying extraction completion", logger.Field{Key: "attempt", Value: attempt})
		}
		resp, err := c.completer.CreateChatCompletion(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !isTransient(err) {
			break
		}
	}
	return openai.ChatCompletionResponse{}, lastErr
}

// parseResponse enforces the strict grammar: exactly one line of either
// "URL: <absolute-uri>" or "URL: NOT_FOUND".
func parseResponse(content string) (string, bool, error) {
	groups := responseGrammar.FindStringSubmatch(strings.TrimSpace(content))
	if groups == nil {
		return "", false, ErrMalformedResponse
	}
	value := groups[1]
	if value == notFoundToken {
		return "", false, nil
	}
	lower := strings.ToLower(value)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return "", false, ErrMalformedResponse
	}
	return value, true, nil
}

// isTransient reports whether the API error is worth one more attempt.
// Grammar violations and client errors are not.
func isTransient(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	// Transport-level failures (timeouts, resets) arrive as plain errors.
	return true
}
