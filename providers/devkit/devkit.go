// Package devkit provides a scripted transport adapter for provider tests:
// queue canned responses, then assert on the requests the provider issued.
package devkit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/goliatone/go-seo-reports/core"
)

type step struct {
	response core.TransportResponse
	err      error
}

// ScriptedTransport replays queued responses in order and records every
// request. An exhausted script fails loudly instead of returning zero values.
type ScriptedTransport struct {
	mu       sync.Mutex
	steps    []step
	Requests []core.TransportRequest
}

func NewScriptedTransport() *ScriptedTransport {
	return &ScriptedTransport{}
}

func (*ScriptedTransport) Kind() string {
	return "scripted"
}

// Respond queues a canned response.
func (t *ScriptedTransport) Respond(res core.TransportResponse) *ScriptedTransport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.steps = append(t.steps, step{response: res})
	return t
}

// RespondJSON queues a JSON response built from any marshalable value or a
// raw string body.
func (t *ScriptedTransport) RespondJSON(statusCode int, body any) *ScriptedTransport {
	var raw []byte
	switch value := body.(type) {
	case string:
		raw = []byte(value)
	case []byte:
		raw = value
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			panic(fmt.Sprintf("devkit: marshal scripted body: %v", err))
		}
		raw = encoded
	}
	return t.Respond(core.TransportResponse{
		StatusCode: statusCode,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       raw,
	})
}

// Fail queues a transport-level error.
func (t *ScriptedTransport) Fail(err error) *ScriptedTransport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.steps = append(t.steps, step{err: err})
	return t
}

func (t *ScriptedTransport) Do(_ context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Requests = append(t.Requests, req)
	if len(t.steps) == 0 {
		return core.TransportResponse{}, fmt.Errorf("devkit: unscripted request %s %s", req.Method, req.URL)
	}
	next := t.steps[0]
	t.steps = t.steps[1:]
	return next.response, next.err
}

// CallCount reports how many requests the transport has seen.
func (t *ScriptedTransport) CallCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.Requests)
}

// LastRequest returns the most recent request, or false when none were made.
func (t *ScriptedTransport) LastRequest() (core.TransportRequest, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.Requests) == 0 {
		return core.TransportRequest{}, false
	}
	return t.Requests[len(t.Requests)-1], true
}

// OKJSON is shorthand for a 200 JSON response.
func OKJSON(body any) core.TransportResponse {
	raw, err := json.Marshal(body)
	if err != nil {
		panic(fmt.Sprintf("devkit: marshal body: %v", err))
	}
	return core.TransportResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       raw,
	}
}

var _ core.TransportAdapter = (*ScriptedTransport)(nil)
