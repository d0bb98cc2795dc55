package pagespeed

import (
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-seo-reports/core"
	"github.com/goliatone/go-seo-reports/providers/devkit"
)

func TestFetchConvertsCategoryScores(t *testing.T) {
	transport := devkit.NewScriptedTransport().RespondJSON(200, map[string]any{
		"lighthouseResult": map[string]any{
			"categories": map[string]any{
				"performance":   map[string]float64{"score": 0.91},
				"accessibility": map[string]float64{"score": 0.88},
				"seo":           map[string]float64{"score": 1.0},
			},
			"audits": map[string]any{
				"largest-contentful-paint": map[string]float64{"numericValue": 1840.5},
			},
		},
	})

	result, err := New(transport, "psi-key").Fetch(context.Background(), core.ReportRequest{
		Provider:     core.ProviderPageSpeed,
		Kind:         KindLighthouse,
		TargetDomain: "example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Totals["performance"] != 91 {
		t.Fatalf("expected score as percentage, got %v", result.Totals["performance"])
	}
	if result.Totals["best_practices"] != 0 {
		t.Fatalf("missing category must zero-fill, got %v", result.Totals["best_practices"])
	}
	if result.Totals["largest_contentful_paint"] != 1840.5 {
		t.Fatalf("unexpected audit metric: %v", result.Totals["largest_contentful_paint"])
	}

	req, _ := transport.LastRequest()
	if req.Query["key"] != "psi-key" || req.Query["strategy"] != "mobile" {
		t.Fatalf("unexpected query: %+v", req.Query)
	}
	if !strings.Contains(req.URL, "category=performance") {
		t.Fatalf("expected category params, got %s", req.URL)
	}
	if req.Timeout != requestTimeout {
		t.Fatalf("expected fixed timeout, got %s", req.Timeout)
	}
}

func TestFetchPageOverride(t *testing.T) {
	transport := devkit.NewScriptedTransport().RespondJSON(200, map[string]any{"lighthouseResult": map[string]any{}})
	_, err := New(transport, "").Fetch(context.Background(), core.ReportRequest{
		Provider:     core.ProviderPageSpeed,
		TargetDomain: "example.com",
		Params:       map[string]string{"url": "https://example.com/pricing", "strategy": "desktop"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req, _ := transport.LastRequest()
	if req.Query["url"] != "https://example.com/pricing" || req.Query["strategy"] != "desktop" {
		t.Fatalf("unexpected query: %+v", req.Query)
	}
	if _, ok := req.Query["key"]; ok {
		t.Fatal("no key param expected without an API key")
	}
}
