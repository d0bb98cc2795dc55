// Package ratelimit throttles public lead-form submissions with a fixed
// window per (client IP, form) pair.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-seo-reports/core"
)

var ErrStateNotFound = errors.New("ratelimit: state not found")

type Key struct {
	FormID   string
	ClientIP string
}

type State struct {
	Key         Key
	Count       int
	WindowStart time.Time
	UpdatedAt   time.Time
}

type StateStore interface {
	Get(ctx context.Context, key Key) (State, error)
	Upsert(ctx context.Context, state State) error
}

type ThrottledError struct {
	FormID     string
	ClientIP   string
	RetryAfter time.Duration
}

func (e ThrottledError) Error() string {
	return fmt.Sprintf(
		"ratelimit: form %q throttled for %s for %s",
		strings.TrimSpace(e.FormID),
		strings.TrimSpace(e.ClientIP),
		e.RetryAfter,
	)
}

func (e ThrottledError) ToReportsError() *goerrors.Error {
	metadata := map[string]any{
		"form_id": strings.TrimSpace(e.FormID),
	}
	if e.RetryAfter > 0 {
		metadata["retry_after_ms"] = e.RetryAfter.Milliseconds()
	}
	return goerrors.New("too many submissions; retry later", goerrors.CategoryRateLimit).
		WithCode(http.StatusTooManyRequests).
		WithTextCode(core.ReportsErrorRateLimited).
		WithMetadata(metadata)
}

// FixedWindowPolicy admits up to Limit submissions per Window for each key.
// The window is anchored at the first submission, not sliding.
type FixedWindowPolicy struct {
	Store  StateStore
	Now    func() time.Time
	Limit  int
	Window time.Duration
}

func NewFixedWindowPolicy(store StateStore, limit int, window time.Duration) *FixedWindowPolicy {
	if limit <= 0 {
		limit = core.DefaultConfig().Leads.WindowLimit
	}
	if window <= 0 {
		window = core.DefaultConfig().Leads.Window()
	}
	return &FixedWindowPolicy{
		Store:  store,
		Now:    func() time.Time { return time.Now().UTC() },
		Limit:  limit,
		Window: window,
	}
}

// Allow records one submission attempt and fails with ThrottledError when the
// window budget is spent.
func (p *FixedWindowPolicy) Allow(ctx context.Context, key Key) error {
	if p == nil || p.Store == nil {
		return nil
	}
	key = normalizeKey(key)
	now := p.now()

	state, err := p.Store.Get(ctx, key)
	if err != nil && !errors.Is(err, ErrStateNotFound) {
		return err
	}
	if errors.Is(err, ErrStateNotFound) || !now.Before(state.WindowStart.Add(p.Window)) {
		state = State{Key: key, Count: 0, WindowStart: now}
	}

	if state.Count >= p.Limit {
		return ThrottledError{
			FormID:     key.FormID,
			ClientIP:   key.ClientIP,
			RetryAfter: state.WindowStart.Add(p.Window).Sub(now),
		}
	}

	state.Count++
	state.UpdatedAt = now
	return p.Store.Upsert(ctx, state)
}

func (p *FixedWindowPolicy) now() time.Time {
	if p != nil && p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}

func normalizeKey(key Key) Key {
	return Key{
		FormID:   strings.TrimSpace(key.FormID),
		ClientIP: strings.TrimSpace(strings.ToLower(key.ClientIP)),
	}
}

type MemoryStateStore struct {
	mu     sync.Mutex
	states map[Key]State
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: map[Key]State{}}
}

func (s *MemoryStateStore) Get(_ context.Context, key Key) (State, error) {
	if s == nil {
		return State{}, ErrStateNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[normalizeKey(key)]
	if !ok {
		return State{}, ErrStateNotFound
	}
	return state, nil
}

func (s *MemoryStateStore) Upsert(_ context.Context, state State) error {
	if s == nil {
		return fmt.Errorf("ratelimit: state store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state.Key = normalizeKey(state.Key)
	s.states[state.Key] = state
	return nil
}

var _ StateStore = (*MemoryStateStore)(nil)
