package inbound

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-seo-reports/core"
	"github.com/goliatone/go-seo-reports/leads"
)

// startedAtHeader carries the client-side render timestamp used by the
// minimum fill-time check.
const startedAtHeader = "X-Form-Started-At"

type LeadSubmitter interface {
	Submit(ctx context.Context, in leads.SubmitInput) (leads.SubmitResult, error)
}

// FormHandler feeds lead capture posts into the leads service. Spam
// verdicts come back as accepted results, so the handler cannot leak
// which submissions were dropped.
type FormHandler struct {
	service LeadSubmitter
}

func NewFormHandler(service LeadSubmitter) *FormHandler {
	return &FormHandler{service: service}
}

func (h *FormHandler) Surface() string { return SurfaceForm }

func (h *FormHandler) Handle(ctx context.Context, req core.InboundRequest) (core.InboundResult, error) {
	if h == nil || h.service == nil {
		return core.InboundResult{}, inboundInternal("inbound: form handler is not configured", nil)
	}

	result, err := h.service.Submit(ctx, leads.SubmitInput{
		FormID:    req.FormID,
		Fields:    req.Fields,
		ClientIP:  req.ClientIP,
		StartedAt: extractStartedAt(req),
	})
	if err != nil {
		return core.InboundResult{}, err
	}
	return core.InboundResult{
		Accepted:   result.Accepted,
		StatusCode: http.StatusOK,
		Metadata: map[string]any{
			"surface":       SurfaceForm,
			"form_id":       req.FormID,
			"submission_id": result.SubmissionID,
		},
	}, nil
}

func extractStartedAt(req core.InboundRequest) time.Time {
	if raw, ok := req.Metadata["started_at"]; ok {
		switch typed := raw.(type) {
		case time.Time:
			return typed
		case string:
			if parsed, err := time.Parse(time.RFC3339, typed); err == nil {
				return parsed
			}
		}
	}
	if raw := strings.TrimSpace(req.Headers[startedAtHeader]); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

type CallbackCompleter interface {
	CompleteCallback(ctx context.Context, req core.CompleteCallbackRequest) (core.Integration, error)
}

// OAuthCallbackHandler finishes the provider redirect leg of a connect
// flow.
type OAuthCallbackHandler struct {
	service CallbackCompleter
}

func NewOAuthCallbackHandler(service CallbackCompleter) *OAuthCallbackHandler {
	return &OAuthCallbackHandler{service: service}
}

func (h *OAuthCallbackHandler) Surface() string { return SurfaceOAuthCallback }

func (h *OAuthCallbackHandler) Handle(ctx context.Context, req core.InboundRequest) (core.InboundResult, error) {
	if h == nil || h.service == nil {
		return core.InboundResult{}, inboundInternal("inbound: oauth callback handler is not configured", nil)
	}
	state := strings.TrimSpace(req.Fields["state"])
	if state == "" {
		return core.InboundResult{}, inboundBadInput("inbound: callback state is required", map[string]any{
			"surface": SurfaceOAuthCallback,
		})
	}

	integration, err := h.service.CompleteCallback(ctx, core.CompleteCallbackRequest{
		State:     state,
		Code:      strings.TrimSpace(req.Fields["code"]),
		ErrorCode: strings.TrimSpace(req.Fields["error"]),
	})
	if err != nil {
		return core.InboundResult{}, err
	}
	return core.InboundResult{
		Accepted:   true,
		StatusCode: http.StatusOK,
		Metadata: map[string]any{
			"surface":        SurfaceOAuthCallback,
			"site_id":        integration.SiteID,
			"provider":       integration.Provider,
			"integration_id": integration.ID,
		},
	}, nil
}

var (
	_ core.InboundHandler = (*FormHandler)(nil)
	_ core.InboundHandler = (*OAuthCallbackHandler)(nil)
)
