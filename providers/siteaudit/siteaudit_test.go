package siteaudit

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
		Provider:     core.ProviderSiteAudit,
		Kind:         KindAudit,
		TargetDomain: "example.com",
		Integration: core.Integration{
			Config: map[string]any{APIKeyConfigKey: "sk-audit"},
		},
	}
}

func TestFetchParsesVerdict(t *testing.T) {
	transport := devkit.NewScriptedTransport().
		Respond(core.TransportResponse{
			StatusCode: 200,
			Body:       []byte(`<html><head><title>Example</title><script>var x=1;</script></head><body><h1>Welcome</h1></body></html>`),
		}).
		RespondJSON(200, map[string]any{
			"choices": []map[string]any{
				{
					"message": map[string]string{
						"role":    "assistant",
						"content": `{"score": 72, "summary": "Decent page.", "issues": [{"title": "Missing meta description", "severity": "high", "detail": "Add one."}]}`,
					},
				},
			},
		})

	result, err := New(transport).Fetch(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Totals["score"] != 72 {
		t.Fatalf("unexpected score: %v", result.Totals["score"])
	}
	if len(result.Rows) != 1 || result.Rows[0].DimensionKey != "Missing meta description" {
		t.Fatalf("unexpected issues: %+v", result.Rows)
	}
	if result.Rows[0].Metrics["severity"] != 3 {
		t.Fatalf("unexpected severity weight: %v", result.Rows[0].Metrics["severity"])
	}

	chatReq := transport.Requests[1]
	if chatReq.Headers["Authorization"] != "Bearer sk-audit" {
		t.Fatal("expected bearer header on the chat call")
	}
	body := string(chatReq.Body)
	if strings.Contains(body, "<script>") {
		t.Fatal("scripts must be stripped from the excerpt")
	}
	if !strings.Contains(body, "Welcome") {
		t.Fatal("expected page text in the prompt")
	}
}

func TestFetchInvalidVerdictJSON(t *testing.T) {
	transport := devkit.NewScriptedTransport().
		Respond(core.TransportResponse{StatusCode: 200, Body: []byte(`<html></html>`)}).
		RespondJSON(200, map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "sorry, I cannot"}},
			},
		})

	_, err := New(transport).Fetch(context.Background(), testRequest())
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.TextCode != core.ReportsErrorUpstream {
		t.Fatalf("expected upstream error, got %v", err)
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
		t.Fatal("no HTTP call may be made without an API key")
	}
}
