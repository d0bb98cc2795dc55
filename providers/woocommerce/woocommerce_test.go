package woocommerce

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-seo-reports/core"
	"github.com/goliatone/go-seo-reports/providers/devkit"
)

func testRequest() core.ReportRequest {
	return core.ReportRequest{
		SiteID:   "site-1",
		Provider: core.ProviderWooCommerce,
		Kind:     KindSales,
		Range:    core.DateRange{Start: "2026-01-01", End: "2026-01-31"},
		Integration: core.Integration{
			Config: map[string]any{
				ConsumerKeyConfigKey:    "ck_test",
				ConsumerSecretConfigKey: "cs_test",
			},
		},
		TargetDomain: "shop.example.com",
	}
}

func TestFetchSalesReport(t *testing.T) {
	transport := devkit.NewScriptedTransport().RespondJSON(200, []map[string]any{
		{
			"total_sales":  "1249.50",
			"net_sales":    "1100.00",
			"total_orders": 31,
			"total_items":  54,
			"totals": map[string]any{
				"2026-01-01": map[string]any{"sales": "100.00", "orders": 3, "items": 5},
				"2026-01-02": map[string]any{"sales": "249.50", "orders": 6, "items": 9},
			},
		},
	})

	result, err := New(transport).Fetch(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Totals["total_sales"] != 1249.5 || result.Totals["orders"] != 31 {
		t.Fatalf("unexpected totals: %+v", result.Totals)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("expected 2 daily rows, got %d", len(result.Rows))
	}

	req, _ := transport.LastRequest()
	expectedAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("ck_test:cs_test"))
	if req.Headers["Authorization"] != expectedAuth {
		t.Fatalf("unexpected auth header: %s", req.Headers["Authorization"])
	}
	if !strings.Contains(req.URL, "https://shop.example.com/wp-json/wc/v3/reports/sales") {
		t.Fatalf("unexpected url: %s", req.URL)
	}
	if req.Query["date_min"] != "2026-01-01" {
		t.Fatalf("unexpected query: %+v", req.Query)
	}
}

func TestFetchStoreURLOverride(t *testing.T) {
	transport := devkit.NewScriptedTransport().RespondJSON(200, `[]`)
	req := testRequest()
	req.Integration.Config[StoreURLConfigKey] = "https://store.elsewhere.net/"

	if _, err := New(transport).Fetch(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sent, _ := transport.LastRequest()
	if !strings.HasPrefix(sent.URL, "https://store.elsewhere.net/wp-json") {
		t.Fatalf("unexpected url: %s", sent.URL)
	}
}

func TestFetchMissingCredentials(t *testing.T) {
	transport := devkit.NewScriptedTransport()
	req := testRequest()
	req.Integration.Config = map[string]any{}

	_, err := New(transport).Fetch(context.Background(), req)
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.TextCode != core.ReportsErrorNotConnected {
		t.Fatalf("expected not-connected, got %v", err)
	}
	if transport.CallCount() != 0 {
		t.Fatal("no HTTP call may be made without credentials")
	}
}

func TestFetchUnauthorized(t *testing.T) {
	transport := devkit.NewScriptedTransport().RespondJSON(401, `{"code":"woocommerce_rest_cannot_view"}`)
	_, err := New(transport).Fetch(context.Background(), testRequest())
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.TextCode != core.ReportsErrorPermissionDenied {
		t.Fatalf("expected permission denied, got %v", err)
	}
}
