package retry

import (
	"context"
	"testing"
	"time"
)

func TestExponentialBackoffGrowth(t *testing.T) {
	b := ExponentialBackoff{Base: 100 * time.Millisecond, Max: 5 * time.Second}
	if got := b.Next(1); got != 100*time.Millisecond {
		t.Fatalf("Next(1) = %v", got)
	}
	if got := b.Next(3); got != 400*time.Millisecond {
		t.Fatalf("Next(3) = %v", got)
	}
	if got := b.Next(10); got != 5*time.Second {
		t.Fatalf("Next(10) = %v, want cap", got)
	}
}

func TestBackoffDefaults(t *testing.T) {
	b := ExponentialBackoff{}
	if got := b.Next(0); got != 100*time.Millisecond {
		t.Fatalf("Next(0) = %v, want base default", got)
	}
}

func TestSleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := ExponentialBackoff{Base: time.Hour}
	if err := Sleep(ctx, b, 1); err == nil {
		t.Fatal("expected context error")
	}
}
