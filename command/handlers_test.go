package command

import (
	"context"
	"net/http"
	"testing"

	gocmd "github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-seo-reports/core"
	"github.com/goliatone/go-seo-reports/leads"
	"github.com/goliatone/go-seo-reports/rank"
)

type stubMutatingService struct {
	createSiteFn       func(ctx context.Context, caller core.Caller, name, domain string) (core.Site, error)
	connectFn          func(ctx context.Context, caller core.Caller, siteID, providerID string) (core.ConnectBegin, error)
	completeCallbackFn func(ctx context.Context, req core.CompleteCallbackRequest) (core.Integration, error)
	disconnectFn       func(ctx context.Context, caller core.Caller, siteID, providerID string) error
	selectResourceFn   func(ctx context.Context, caller core.Caller, siteID, providerID, key, value string) error
	addKeywordFn       func(ctx context.Context, caller core.Caller, siteID, phrase string) (core.Keyword, error)
	deleteKeywordFn    func(ctx context.Context, caller core.Caller, siteID, keywordID string) error
}

func (s stubMutatingService) CreateSite(ctx context.Context, caller core.Caller, name, domain string) (core.Site, error) {
	return s.createSiteFn(ctx, caller, name, domain)
}

func (s stubMutatingService) Connect(ctx context.Context, caller core.Caller, siteID, providerID string) (core.ConnectBegin, error) {
	return s.connectFn(ctx, caller, siteID, providerID)
}

func (s stubMutatingService) CompleteCallback(ctx context.Context, req core.CompleteCallbackRequest) (core.Integration, error) {
	return s.completeCallbackFn(ctx, req)
}

func (s stubMutatingService) Disconnect(ctx context.Context, caller core.Caller, siteID, providerID string) error {
	return s.disconnectFn(ctx, caller, siteID, providerID)
}

func (s stubMutatingService) SelectResource(ctx context.Context, caller core.Caller, siteID, providerID, key, value string) error {
	return s.selectResourceFn(ctx, caller, siteID, providerID, key, value)
}

func (s stubMutatingService) AddKeyword(ctx context.Context, caller core.Caller, siteID, phrase string) (core.Keyword, error) {
	return s.addKeywordFn(ctx, caller, siteID, phrase)
}

func (s stubMutatingService) DeleteKeyword(ctx context.Context, caller core.Caller, siteID, keywordID string) error {
	return s.deleteKeywordFn(ctx, caller, siteID, keywordID)
}

func TestConnectCommand_ExecuteDelegatesAndStoresResult(t *testing.T) {
	expected := core.ConnectBegin{AuthorizeURL: "https://accounts.google.com/o/oauth2/auth?x=1", State: "st"}
	called := false

	svc := stubMutatingService{
		connectFn: func(_ context.Context, _ core.Caller, siteID, providerID string) (core.ConnectBegin, error) {
			called = true
			if siteID != "site-1" || providerID != core.ProviderGoogleAnalytics {
				t.Fatalf("unexpected connect payload: %q %q", siteID, providerID)
			}
			return expected, nil
		},
	}

	cmd := NewConnectCommand(svc)
	collector := gocmd.NewResult[core.ConnectBegin]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	err := cmd.Execute(ctx, ConnectMessage{
		Caller:   core.Caller{UserID: "usr_1"},
		SiteID:   "site-1",
		Provider: core.ProviderGoogleAnalytics,
	})
	if err != nil {
		t.Fatalf("execute connect: %v", err)
	}
	if !called {
		t.Fatalf("expected connect service invocation")
	}
	result, ok := collector.Load()
	if !ok {
		t.Fatalf("expected result to be stored")
	}
	if result.AuthorizeURL != expected.AuthorizeURL || result.State != expected.State {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestMutationCommands_DelegateToService(t *testing.T) {
	t.Run("disconnect", func(t *testing.T) {
		called := false
		svc := stubMutatingService{
			disconnectFn: func(_ context.Context, _ core.Caller, siteID, providerID string) error {
				called = true
				if siteID != "site-1" || providerID != core.ProviderSearchConsole {
					t.Fatalf("unexpected disconnect payload: %q %q", siteID, providerID)
				}
				return nil
			},
		}
		cmd := NewDisconnectCommand(svc)
		if err := cmd.Execute(context.Background(), DisconnectMessage{
			SiteID:   "site-1",
			Provider: core.ProviderSearchConsole,
		}); err != nil {
			t.Fatalf("execute disconnect: %v", err)
		}
		if !called {
			t.Fatalf("expected disconnect invocation")
		}
	})

	t.Run("select resource", func(t *testing.T) {
		called := false
		svc := stubMutatingService{
			selectResourceFn: func(_ context.Context, _ core.Caller, siteID, providerID, key, value string) error {
				called = true
				if key != "analytics_property_id" || value != "123456" {
					t.Fatalf("unexpected selector payload: %q %q", key, value)
				}
				return nil
			},
		}
		cmd := NewSelectResourceCommand(svc)
		if err := cmd.Execute(context.Background(), SelectResourceMessage{
			SiteID:   "site-1",
			Provider: core.ProviderGoogleAnalytics,
			Key:      "analytics_property_id",
			Value:    "123456",
		}); err != nil {
			t.Fatalf("execute select resource: %v", err)
		}
		if !called {
			t.Fatalf("expected select resource invocation")
		}
	})

	t.Run("add keyword stores result", func(t *testing.T) {
		svc := stubMutatingService{
			addKeywordFn: func(_ context.Context, _ core.Caller, siteID, phrase string) (core.Keyword, error) {
				return core.Keyword{ID: "kw-1", SiteID: siteID, Phrase: phrase}, nil
			},
		}
		cmd := NewAddKeywordCommand(svc)
		collector := gocmd.NewResult[core.Keyword]()
		ctx := gocmd.ContextWithResult(context.Background(), collector)
		if err := cmd.Execute(ctx, AddKeywordMessage{SiteID: "site-1", Phrase: "coffee roaster"}); err != nil {
			t.Fatalf("execute add keyword: %v", err)
		}
		keyword, ok := collector.Load()
		if !ok || keyword.ID != "kw-1" {
			t.Fatalf("expected stored keyword, got %#v ok=%v", keyword, ok)
		}
	})
}

type stubLeadSubmitter struct {
	submitFn func(ctx context.Context, in leads.SubmitInput) (leads.SubmitResult, error)
}

func (s stubLeadSubmitter) Submit(ctx context.Context, in leads.SubmitInput) (leads.SubmitResult, error) {
	return s.submitFn(ctx, in)
}

func TestSubmitLeadCommand_StoresResult(t *testing.T) {
	cmd := NewSubmitLeadCommand(stubLeadSubmitter{
		submitFn: func(_ context.Context, in leads.SubmitInput) (leads.SubmitResult, error) {
			if in.FormID != "form-1" {
				t.Fatalf("unexpected form id %q", in.FormID)
			}
			return leads.SubmitResult{Accepted: true, SubmissionID: "sub-1"}, nil
		},
	})

	collector := gocmd.NewResult[leads.SubmitResult]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)
	if err := cmd.Execute(ctx, SubmitLeadMessage{Input: leads.SubmitInput{FormID: "form-1"}}); err != nil {
		t.Fatalf("execute submit lead: %v", err)
	}
	result, ok := collector.Load()
	if !ok || !result.Accepted || result.SubmissionID != "sub-1" {
		t.Fatalf("unexpected result: %#v ok=%v", result, ok)
	}
}

type stubRankRunner struct {
	trackFn func(ctx context.Context, siteID string) (rank.RunReport, error)
}

func (s stubRankRunner) TrackSite(ctx context.Context, siteID string) (rank.RunReport, error) {
	return s.trackFn(ctx, siteID)
}

func TestTrackRankingsCommand_StoresRunReport(t *testing.T) {
	cmd := NewTrackRankingsCommand(stubRankRunner{
		trackFn: func(_ context.Context, siteID string) (rank.RunReport, error) {
			return rank.RunReport{SiteID: siteID, Processed: 3, Failed: 1}, nil
		},
	})

	collector := gocmd.NewResult[rank.RunReport]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)
	if err := cmd.Execute(ctx, TrackRankingsMessage{SiteID: "site-1"}); err != nil {
		t.Fatalf("execute track rankings: %v", err)
	}
	report, ok := collector.Load()
	if !ok || report.Processed != 3 || report.Failed != 1 {
		t.Fatalf("unexpected report: %#v ok=%v", report, ok)
	}
}

func TestConnectMessage_ValidateReturnsRichError(t *testing.T) {
	err := (ConnectMessage{}).Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryValidation {
		t.Fatalf("expected validation category, got %q", rich.Category)
	}
	if rich.TextCode != core.ReportsErrorBadInput {
		t.Fatalf("expected %q text code, got %q", core.ReportsErrorBadInput, rich.TextCode)
	}
	if rich.Code != http.StatusBadRequest {
		t.Fatalf("expected %d code, got %d", http.StatusBadRequest, rich.Code)
	}
	validation := rich.AllValidationErrors()
	if len(validation) == 0 {
		t.Fatalf("expected validation errors in envelope")
	}
	if validation[0].Field != "site_id" {
		t.Fatalf("expected site_id validation field, got %q", validation[0].Field)
	}
}

func TestConnectCommand_NilServiceReturnsRichError(t *testing.T) {
	var cmd *ConnectCommand
	err := cmd.Execute(context.Background(), ConnectMessage{SiteID: "site-1", Provider: "x"})
	if err == nil {
		t.Fatalf("expected dependency error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal category, got %q", rich.Category)
	}
	if rich.Code != http.StatusInternalServerError {
		t.Fatalf("expected %d code, got %d", http.StatusInternalServerError, rich.Code)
	}
}
