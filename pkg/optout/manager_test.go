package optout

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goliatone/go-optout/internal/storage/memory"
	"github.com/goliatone/go-optout/pkg/classifier"
	"github.com/goliatone/go-optout/pkg/domain"
	"github.com/goliatone/go-optout/pkg/executor"
	"github.com/goliatone/go-optout/pkg/resolver"
)

type fakeRunner struct {
	result   executor.BrowserResult
	err      error
	runs     int
	released bool
}

func (f *fakeRunner) Run(ctx context.Context, task executor.BrowserTask) (executor.BrowserResult, error) {
	f.runs++
	defer func() { f.released = true }()
	return f.result, f.err
}

func newTestManager(t *testing.T, runner executor.BrowserRunner, attempts *memory.AttemptRepository) *Manager {
	t.Helper()
	res, err := resolver.New(resolver.Config{}, resolver.Dependencies{})
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	exec, err := executor.New(executor.Config{
		PassiveTimeout:  2 * time.Second,
		PageLoadTimeout: 2 * time.Second,
	}, executor.Dependencies{Browser: runner})
	if err != nil {
		t.Fatalf("executor: %v", err)
	}
	deps := Dependencies{
		Resolver:   res,
		Executor:   exec,
		Classifier: classifier.New(),
	}
	if attempts != nil {
		deps.Attempts = attempts
	}
	manager, err := New(deps)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return manager
}

func TestProcessNotFound(t *testing.T) {
	m := newTestManager(t, &fakeRunner{}, nil)
	outcome := m.Process(context.Background(), domain.UnsubscribeRequest{
		MessageID: "m1",
		Subject:   "weekly digest",
		Body:      "no links here",
	})
	if outcome.Status != domain.StatusNotFound {
		t.Fatalf("status = %q, want not_found", outcome.Status)
	}
}

func TestProcessPassiveSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>You have successfully unsubscribed.</html>"))
	}))
	defer server.Close()

	runner := &fakeRunner{}
	attempts := memory.NewAttemptRepository()
	m := newTestManager(t, runner, attempts)

	outcome := m.Process(context.Background(), domain.UnsubscribeRequest{
		MessageID: "m2",
		Subject:   "deals",
		Headers:   map[string]string{"List-Unsubscribe": "<" + server.URL + ">"},
	})
	if outcome.Status != domain.StatusSuccess {
		t.Fatalf("status = %q (%s), want success", outcome.Status, outcome.Message)
	}
	if runner.runs != 0 {
		t.Fatalf("browser ran %d times after passive success", runner.runs)
	}

	history, err := m.History(context.Background(), "m2")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1", len(history))
	}
	record := history[0]
	if record.Status != domain.StatusSuccess || record.Tier != domain.TierHeader || record.Strategy != domain.StrategyPassive {
		t.Fatalf("unexpected record %+v", record)
	}
}

func TestProcessEscalatesOnceThenUncertain(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := server.URL
	server.Close()

	runner := &fakeRunner{result: executor.BrowserResult{
		PageContent: "<html>Thanks</html>",
		Clicked:     true,
	}}
	m := newTestManager(t, runner, nil)

	outcome := m.Process(context.Background(), domain.UnsubscribeRequest{
		MessageID: "m3",
		Headers:   map[string]string{"List-Unsubscribe": "<" + target + ">"},
	})
	if runner.runs != 1 {
		t.Fatalf("browser ran %d times, want exactly 1", runner.runs)
	}
	if outcome.Status != domain.StatusUncertain {
		t.Fatalf("status = %q, want uncertain", outcome.Status)
	}
}

func TestProcessBrowserFaultDegradesToFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := server.URL
	server.Close()

	runner := &fakeRunner{err: errors.New("chrome crashed")}
	m := newTestManager(t, runner, nil)

	outcome := m.Process(context.Background(), domain.UnsubscribeRequest{
		MessageID: "m4",
		Headers:   map[string]string{"List-Unsubscribe": "<" + target + ">"},
	})
	if outcome.Status != domain.StatusFailed {
		t.Fatalf("status = %q, want failed", outcome.Status)
	}
	if !runner.released {
		t.Fatal("browser session leaked after fault")
	}
}

func TestProcessClickFaultStillUncertain(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := server.URL
	server.Close()

	// The click landed but capture faulted afterwards: interaction evidence
	// survives as Uncertain, never as an unreleased resource.
	runner := &fakeRunner{
		result: executor.BrowserResult{Clicked: true},
		err:    errors.New("capture failed"),
	}
	m := newTestManager(t, runner, nil)

	outcome := m.Process(context.Background(), domain.UnsubscribeRequest{
		MessageID: "m5",
		Headers:   map[string]string{"List-Unsubscribe": "<" + target + ">"},
	})
	if outcome.Status != domain.StatusUncertain && outcome.Status != domain.StatusFailed {
		t.Fatalf("status = %q, want uncertain or failed", outcome.Status)
	}
	if !runner.released {
		t.Fatal("browser session leaked")
	}
}

func TestProcessAlwaysReturnsOutcome(t *testing.T) {
	m := newTestManager(t, &fakeRunner{}, nil)
	requests := []domain.UnsubscribeRequest{
		{},
		{MessageID: "only-id"},
		{Headers: map[string]string{}},
		{Headers: map[string]string{"List-Unsubscribe": ""}},
		{Headers: map[string]string{"List-Unsubscribe": "garbage"}},
		{Body: "mailto:leave@example.com"},
	}
	valid := map[domain.Status]bool{
		domain.StatusSuccess:   true,
		domain.StatusUncertain: true,
		domain.StatusNotFound:  true,
		domain.StatusFailed:    true,
	}
	for i, req := range requests {
		outcome := m.Process(context.Background(), req)
		if !valid[outcome.Status] {
			t.Fatalf("request %d produced invalid status %q", i, outcome.Status)
		}
	}
}

func TestProcessRecordsNotFoundAttempts(t *testing.T) {
	attempts := memory.NewAttemptRepository()
	m := newTestManager(t, &fakeRunner{}, attempts)

	m.Process(context.Background(), domain.UnsubscribeRequest{MessageID: "m6", Body: "nothing"})

	history, err := m.History(context.Background(), "m6")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1", len(history))
	}
	if history[0].Status != domain.StatusNotFound {
		t.Fatalf("recorded status = %q, want not_found", history[0].Status)
	}
	if history[0].URL != "" {
		t.Fatalf("unresolved attempt should have no url, got %q", history[0].URL)
	}
}

func TestStats(t *testing.T) {
	attempts := memory.NewAttemptRepository()
	m := newTestManager(t, &fakeRunner{}, attempts)

	m.Process(context.Background(), domain.UnsubscribeRequest{MessageID: "a", Body: "x"})
	m.Process(context.Background(), domain.UnsubscribeRequest{MessageID: "b", Body: "y"})

	stats, err := m.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 2 {
		t.Fatalf("total = %d, want 2", stats.Total)
	}
	if stats.ByStatus[domain.StatusNotFound] != 2 {
		t.Fatalf("not_found count = %d, want 2", stats.ByStatus[domain.StatusNotFound])
	}
}

func TestNewValidatesDependencies(t *testing.T) {
	if _, err := New(Dependencies{}); !errors.Is(err, ErrMissingResolver) {
		t.Fatalf("expected ErrMissingResolver, got %v", err)
	}
	res, _ := resolver.New(resolver.Config{}, resolver.Dependencies{})
	if _, err := New(Dependencies{Resolver: res}); !errors.Is(err, ErrMissingExecutor) {
		t.Fatalf("expected ErrMissingExecutor, got %v", err)
	}
}
