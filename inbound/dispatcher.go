package inbound

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-seo-reports/core"
)

const (
	SurfaceForm          = "form"
	SurfaceOAuthCallback = "oauth_callback"
)

var supportedSurfaces = map[string]struct{}{
	SurfaceForm:          {},
	SurfaceOAuthCallback: {},
}

// Dispatcher fans inbound requests out to per-surface handlers. Both
// surfaces are publicly reachable, so handlers own their abuse controls.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]core.InboundHandler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: map[string]core.InboundHandler{}}
}

func (d *Dispatcher) Register(handler core.InboundHandler) error {
	if d == nil {
		return inboundInternal("inbound: dispatcher is nil", nil)
	}
	if handler == nil {
		return inboundBadInput("inbound: handler is nil", nil)
	}
	surface := normalizeSurface(handler.Surface())
	if !isSupportedSurface(surface) {
		return inboundBadInput(
			fmt.Sprintf("inbound: unsupported surface %q", surface),
			map[string]any{"surface": surface},
		)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.handlers[surface]; exists {
		return inboundError(
			fmt.Sprintf("inbound: handler already registered for surface %q", surface),
			goerrors.CategoryConflict,
			http.StatusConflict,
			core.ReportsErrorInternal,
			map[string]any{"surface": surface},
		)
	}
	d.handlers[surface] = handler
	return nil
}

func (d *Dispatcher) Dispatch(ctx context.Context, req core.InboundRequest) (core.InboundResult, error) {
	if d == nil {
		return core.InboundResult{}, inboundInternal("inbound: dispatcher is nil", nil)
	}
	req.Surface = normalizeSurface(req.Surface)
	if !isSupportedSurface(req.Surface) {
		return core.InboundResult{}, inboundBadInput(
			fmt.Sprintf("inbound: unsupported surface %q", req.Surface),
			map[string]any{"surface": req.Surface},
		)
	}

	d.mu.RLock()
	handler, ok := d.handlers[req.Surface]
	d.mu.RUnlock()
	if !ok {
		return core.InboundResult{}, inboundInternal(
			fmt.Sprintf("inbound: no handler for surface %q", req.Surface),
			map[string]any{"surface": req.Surface},
		)
	}
	return handler.Handle(ctx, req)
}

func normalizeSurface(surface string) string {
	return strings.ToLower(strings.TrimSpace(surface))
}

func isSupportedSurface(surface string) bool {
	_, ok := supportedSurfaces[surface]
	return ok
}
