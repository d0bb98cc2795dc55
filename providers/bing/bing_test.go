package bing

import (
	"context"
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-seo-reports/core"
	"github.com/goliatone/go-seo-reports/providers/devkit"
)

func testRequest() core.ReportRequest {
	return core.ReportRequest{
		Provider:     core.ProviderBingWebmaster,
		Kind:         KindQueryStats,
		TargetDomain: "example.com",
		Integration: core.Integration{
			Config: map[string]any{APIKeyConfigKey: "bing-key"},
		},
	}
}

func TestFetchQueryStats(t *testing.T) {
	transport := devkit.NewScriptedTransport().RespondJSON(200, map[string]any{
		"d": []map[string]any{
			{"Query": "coffee", "Clicks": 10.0, "Impressions": 200.0, "AvgClickPosition": 4.2},
			{"Query": "espresso", "Clicks": 5.0, "Impressions": 90.0, "AvgClickPosition": 7.0},
		},
	})

	result, err := New(transport).Fetch(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Rows) != 2 || result.Rows[0].DimensionKey != "coffee" {
		t.Fatalf("unexpected rows: %+v", result.Rows)
	}
	if result.Totals["clicks"] != 15 || result.Totals["impressions"] != 290 {
		t.Fatalf("unexpected totals: %+v", result.Totals)
	}

	req, _ := transport.LastRequest()
	if req.Query["apikey"] != "bing-key" {
		t.Fatal("expected api key in query string")
	}
	if req.Query["siteUrl"] != "https://example.com/" {
		t.Fatalf("unexpected site url: %s", req.Query["siteUrl"])
	}
	if !strings.HasSuffix(req.URL, "/GetQueryStats") {
		t.Fatalf("unexpected url: %s", req.URL)
	}
}

func TestFetchMissingAPIKey(t *testing.T) {
	transport := devkit.NewScriptedTransport()
	req := testRequest()
	req.Integration.Config = nil

	_, err := New(transport).Fetch(context.Background(), req)
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.TextCode != core.ReportsErrorNotConnected {
		t.Fatalf("expected not-connected, got %v", err)
	}
	if transport.CallCount() != 0 {
		t.Fatal("no HTTP call may be made without an api key")
	}
}

func TestFetchUnauthorizedKey(t *testing.T) {
	transport := devkit.NewScriptedTransport().RespondJSON(401, `{}`)
	_, err := New(transport).Fetch(context.Background(), testRequest())
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.TextCode != core.ReportsErrorPermissionDenied {
		t.Fatalf("expected permission denied, got %v", err)
	}
}
