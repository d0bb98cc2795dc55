package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFixedWindowPolicyEnforcesLimit(t *testing.T) {
	current := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	policy := NewFixedWindowPolicy(NewMemoryStateStore(), 10, time.Minute)
	policy.Now = func() time.Time { return current }
	ctx := context.Background()
	key := Key{FormID: "form-1", ClientIP: "203.0.113.9"}

	for i := 0; i < 10; i++ {
		if err := policy.Allow(ctx, key); err != nil {
			t.Fatalf("submission %d should pass: %v", i+1, err)
		}
	}

	err := policy.Allow(ctx, key)
	var throttled ThrottledError
	if !errors.As(err, &throttled) {
		t.Fatalf("expected ThrottledError, got %v", err)
	}
	if throttled.RetryAfter != time.Minute {
		t.Fatalf("expected full window retry hint, got %s", throttled.RetryAfter)
	}
	if throttled.ToReportsError().Code != 429 {
		t.Fatalf("expected 429, got %d", throttled.ToReportsError().Code)
	}
}

func TestFixedWindowPolicyResetsAfterWindow(t *testing.T) {
	current := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	policy := NewFixedWindowPolicy(NewMemoryStateStore(), 2, time.Minute)
	policy.Now = func() time.Time { return current }
	ctx := context.Background()
	key := Key{FormID: "form-1", ClientIP: "203.0.113.9"}

	if err := policy.Allow(ctx, key); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := policy.Allow(ctx, key); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := policy.Allow(ctx, key); err == nil {
		t.Fatal("expected throttle at limit")
	}

	current = current.Add(61 * time.Second)
	if err := policy.Allow(ctx, key); err != nil {
		t.Fatalf("expected fresh window, got %v", err)
	}
}

func TestFixedWindowPolicyKeysAreIndependent(t *testing.T) {
	policy := NewFixedWindowPolicy(NewMemoryStateStore(), 1, time.Minute)
	ctx := context.Background()

	if err := policy.Allow(ctx, Key{FormID: "form-1", ClientIP: "203.0.113.9"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := policy.Allow(ctx, Key{FormID: "form-1", ClientIP: "203.0.113.9"}); err == nil {
		t.Fatal("expected throttle for same pair")
	}
	if err := policy.Allow(ctx, Key{FormID: "form-2", ClientIP: "203.0.113.9"}); err != nil {
		t.Fatalf("other form must not be throttled: %v", err)
	}
	if err := policy.Allow(ctx, Key{FormID: "form-1", ClientIP: "198.51.100.7"}); err != nil {
		t.Fatalf("other ip must not be throttled: %v", err)
	}
}
