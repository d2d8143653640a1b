package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/goliatone/go-optout/pkg/interfaces/extractor"
	"github.com/goliatone/go-optout/pkg/retry"
)

type fakeCompleter struct {
	responses []string
	errs      []error
	calls     int
	lastReq   openai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	idx := f.calls
	f.calls++
	f.lastReq = req
	if idx < len(f.errs) && f.errs[idx] != nil {
		return openai.ChatCompletionResponse{}, f.errs[idx]
	}
	content := ""
	if idx < len(f.responses) {
		content = f.responses[idx]
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}, nil
}

func newTestClient(t *testing.T, completer Completer) *Client {
	t.Helper()
	client, err := New("",
		WithCompleter(completer),
		WithBackoff(retry.ExponentialBackoff{Base: 1, Max: 1}),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestExtractValidURL(t *testing.T) {
	completer := &fakeCompleter{responses: []string{"URL: https://example.com/unsubscribe?token=123"}}
	client := newTestClient(t, completer)

	url, found, err := client.Extract(context.Background(), extractor.Input{
		HeaderValue: "<https://example.com/u>",
		BodyExcerpt: "click to unsubscribe",
	})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !found {
		t.Fatal("expected url to be found")
	}
	if url != "https://example.com/unsubscribe?token=123" {
		t.Fatalf("unexpected url %q", url)
	}
}

func TestExtractNotFound(t *testing.T) {
	completer := &fakeCompleter{responses: []string{"URL: NOT_FOUND"}}
	client := newTestClient(t, completer)

	url, found, err := client.Extract(context.Background(), extractor.Input{BodyExcerpt: "hello"})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if found || url != "" {
		t.Fatalf("expected clean not-found, got %q %v", url, found)
	}
}

func TestExtractGrammarViolations(t *testing.T) {
	cases := map[string]string{
		"prose":            "I think the link is https://example.com/u",
		"missing prefix":   "https://example.com/u",
		"non-http scheme":  "URL: ftp://example.com/u",
		"mailto":           "URL: mailto:leave@example.com",
		"multiline prose":  "Sure!\nURL: https://example.com/u\nHope that helps.",
		"empty":            "",
		"not-found suffix": "URL: NOT_FOUND_REALLY",
	}
	for name, response := range cases {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, &fakeCompleter{responses: []string{response}})
			_, found, err := client.Extract(context.Background(), extractor.Input{})
			if !errors.Is(err, ErrMalformedResponse) {
				t.Fatalf("expected ErrMalformedResponse, got %v (found=%v)", err, found)
			}
		})
	}
}

func TestExtractRetriesTransientErrors(t *testing.T) {
	completer := &fakeCompleter{
		errs:      []error{&openai.APIError{HTTPStatusCode: http.StatusInternalServerError}},
		responses: []string{"", "URL: https://example.com/u"},
	}
	client := newTestClient(t, completer)

	url, found, err := client.Extract(context.Background(), extractor.Input{})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !found || url != "https://example.com/u" {
		t.Fatalf("unexpected result %q %v", url, found)
	}
	if completer.calls != 2 {
		t.Fatalf("completer calls = %d, want 2", completer.calls)
	}
}

func TestExtractDoesNotRetryClientErrors(t *testing.T) {
	completer := &fakeCompleter{
		errs: []error{
			&openai.APIError{HTTPStatusCode: http.StatusBadRequest},
			nil,
		},
		responses: []string{"", "URL: https://example.com/u"},
	}
	client := newTestClient(t, completer)

	if _, _, err := client.Extract(context.Background(), extractor.Input{}); err == nil {
		t.Fatal("expected error to surface")
	}
	if completer.calls != 1 {
		t.Fatalf("completer calls = %d, want 1", completer.calls)
	}
}

func TestPromptIncludesSignals(t *testing.T) {
	completer := &fakeCompleter{responses: []string{"URL: NOT_FOUND"}}
	client := newTestClient(t, completer)

	_, _, err := client.Extract(context.Background(), extractor.Input{
		HeaderValue: "<https://h.example.com/u>",
		BodyExcerpt: "body excerpt goes here",
	})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(completer.lastReq.Messages) != 2 {
		t.Fatalf("message count = %d, want 2", len(completer.lastReq.Messages))
	}
	prompt := completer.lastReq.Messages[1].Content
	if !strings.Contains(prompt, "https://h.example.com/u") {
		t.Fatal("prompt missing header value")
	}
	if !strings.Contains(prompt, "body excerpt goes here") {
		t.Fatal("prompt missing body excerpt")
	}
}

func TestNewRequiresAPIKeyWithoutCompleter(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("expected error for missing api key")
	}
}
