package inbound

import (
	"context"
	"net/http"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-seo-reports/core"
	"github.com/goliatone/go-seo-reports/leads"
)

type stubSubmitter struct {
	last   leads.SubmitInput
	result leads.SubmitResult
	err    error
}

func (s *stubSubmitter) Submit(_ context.Context, in leads.SubmitInput) (leads.SubmitResult, error) {
	s.last = in
	return s.result, s.err
}

type stubCompleter struct {
	last        core.CompleteCallbackRequest
	integration core.Integration
	err         error
}

func (s *stubCompleter) CompleteCallback(_ context.Context, req core.CompleteCallbackRequest) (core.Integration, error) {
	s.last = req
	return s.integration, s.err
}

func TestDispatcherRoutesFormSurface(t *testing.T) {
	submitter := &stubSubmitter{result: leads.SubmitResult{Accepted: true, SubmissionID: "sub-1"}}
	dispatcher := NewDispatcher()
	if err := dispatcher.Register(NewFormHandler(submitter)); err != nil {
		t.Fatalf("register form handler: %v", err)
	}

	startedAt := time.Now().UTC().Add(-5 * time.Second).Truncate(time.Second)
	result, err := dispatcher.Dispatch(context.Background(), core.InboundRequest{
		Surface:  " Form ",
		FormID:   "form-1",
		ClientIP: "203.0.113.7",
		Fields:   map[string]string{"name": "Ada"},
		Headers:  map[string]string{startedAtHeader: startedAt.Format(time.RFC3339)},
	})
	if err != nil {
		t.Fatalf("dispatch form: %v", err)
	}
	if !result.Accepted || result.StatusCode != http.StatusOK {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Metadata["submission_id"] != "sub-1" {
		t.Fatalf("expected submission id metadata, got %+v", result.Metadata)
	}
	if submitter.last.FormID != "form-1" || submitter.last.ClientIP != "203.0.113.7" {
		t.Fatalf("unexpected submit input: %+v", submitter.last)
	}
	if !submitter.last.StartedAt.Equal(startedAt) {
		t.Fatalf("expected started_at from header, got %s", submitter.last.StartedAt)
	}
}

func TestDispatcherRoutesOAuthCallbackSurface(t *testing.T) {
	completer := &stubCompleter{integration: core.Integration{
		ID:       "int-1",
		SiteID:   "site-1",
		Provider: core.ProviderGoogleAnalytics,
	}}
	dispatcher := NewDispatcher()
	if err := dispatcher.Register(NewOAuthCallbackHandler(completer)); err != nil {
		t.Fatalf("register callback handler: %v", err)
	}

	result, err := dispatcher.Dispatch(context.Background(), core.InboundRequest{
		Surface: SurfaceOAuthCallback,
		Fields:  map[string]string{"state": "st-1", "code": "auth-code"},
	})
	if err != nil {
		t.Fatalf("dispatch callback: %v", err)
	}
	if !result.Accepted || result.Metadata["integration_id"] != "int-1" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if completer.last.State != "st-1" || completer.last.Code != "auth-code" {
		t.Fatalf("unexpected callback request: %+v", completer.last)
	}
}

func TestDispatcherRejectsUnsupportedSurface(t *testing.T) {
	dispatcher := NewDispatcher()
	_, err := dispatcher.Dispatch(context.Background(), core.InboundRequest{Surface: "webhook"})
	if err == nil {
		t.Fatalf("expected unsupported surface error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryBadInput {
		t.Fatalf("expected bad input category, got %q", rich.Category)
	}
	if rich.TextCode != core.ReportsErrorBadInput {
		t.Fatalf("expected %q text code, got %q", core.ReportsErrorBadInput, rich.TextCode)
	}
}

func TestDispatcherRejectsDuplicateRegistration(t *testing.T) {
	dispatcher := NewDispatcher()
	handler := NewFormHandler(&stubSubmitter{})
	if err := dispatcher.Register(handler); err != nil {
		t.Fatalf("first register: %v", err)
	}
	err := dispatcher.Register(handler)
	if err == nil {
		t.Fatalf("expected duplicate registration error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Code != http.StatusConflict {
		t.Fatalf("expected %d code, got %d", http.StatusConflict, rich.Code)
	}
}

func TestOAuthCallbackHandlerRequiresState(t *testing.T) {
	handler := NewOAuthCallbackHandler(&stubCompleter{})
	_, err := handler.Handle(context.Background(), core.InboundRequest{
		Surface: SurfaceOAuthCallback,
		Fields:  map[string]string{"code": "auth-code"},
	})
	if err == nil {
		t.Fatalf("expected missing state error")
	}
}
