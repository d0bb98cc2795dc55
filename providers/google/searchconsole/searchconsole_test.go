package searchconsole

import (
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-seo-reports/core"
	"github.com/goliatone/go-seo-reports/providers/devkit"
)

func testRequest() core.ReportRequest {
	return core.ReportRequest{
		SiteID:      "site-1",
		Provider:    core.ProviderSearchConsole,
		Kind:        KindQueries,
		Range:       core.DateRange{Start: "2026-01-01", End: "2026-01-31"},
		AccessToken: "bearer-token",
		Integration: core.Integration{
			Config: map[string]any{SelectorKey: "https://example.com/"},
		},
		TargetDomain: "example.com",
	}
}

func TestFetchShapesQueryRows(t *testing.T) {
	transport := devkit.NewScriptedTransport().RespondJSON(200, map[string]any{
		"rows": []map[string]any{
			{
				"keys":        []string{"coffee roaster"},
				"clicks":      42.0,
				"impressions": 900.0,
				"ctr":         0.0467,
				"position":    3.4,
			},
		},
	})

	result, err := New(transport).Fetch(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	row := result.Rows[0]
	if row.DimensionKey != "coffee roaster" {
		t.Fatalf("unexpected dimension: %q", row.DimensionKey)
	}
	if row.Metrics["ctr"] != 4.7 {
		t.Fatalf("expected ctr as percentage, got %v", row.Metrics["ctr"])
	}
	if result.Totals["clicks"] != 42 || result.Totals["impressions"] != 900 {
		t.Fatalf("unexpected totals: %+v", result.Totals)
	}

	req, _ := transport.LastRequest()
	if !strings.Contains(req.URL, "sites/https:%2F%2Fexample.com%2F/searchAnalytics/query") {
		t.Fatalf("expected escaped site url, got %s", req.URL)
	}
}

func TestFetchFallsBackToDomainProperty(t *testing.T) {
	transport := devkit.NewScriptedTransport().RespondJSON(200, map[string]any{"rows": []any{}})
	req := testRequest()
	req.Integration.Config = nil

	if _, err := New(transport).Fetch(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sent, _ := transport.LastRequest()
	if !strings.Contains(sent.URL, "sc-domain:example.com") {
		t.Fatalf("expected sc-domain fallback, got %s", sent.URL)
	}
}

func TestFetchPagesKindUsesPageDimension(t *testing.T) {
	transport := devkit.NewScriptedTransport().RespondJSON(200, map[string]any{"rows": []any{}})
	req := testRequest()
	req.Kind = KindPages

	if _, err := New(transport).Fetch(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sent, _ := transport.LastRequest()
	if !strings.Contains(string(sent.Body), `"dimensions":["page"]`) {
		t.Fatalf("unexpected body: %s", sent.Body)
	}
}
