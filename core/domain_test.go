package core

import (
	"testing"
	"time"
)

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain domain", raw: "example.com", want: "example.com"},
		{name: "uppercase", raw: "Example.COM", want: "example.com"},
		{name: "scheme stripped", raw: "https://example.com", want: "example.com"},
		{name: "path stripped", raw: "https://example.com/blog?utm=1", want: "example.com"},
		{name: "trailing dot", raw: "example.com.", want: "example.com"},
		{name: "whitespace", raw: "  example.com  ", want: "example.com"},
		{name: "empty", raw: "", want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeDomain(tc.raw); got != tc.want {
				t.Fatalf("NormalizeDomain(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestIntegrationTransitionTo(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	t.Run("connecting clears last error", func(t *testing.T) {
		integration := Integration{Status: IntegrationStatusError, LastError: "invalid_grant"}
		if err := integration.TransitionTo(IntegrationStatusConnected, "", now); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if integration.LastError != "" {
			t.Fatalf("expected last error cleared, got %q", integration.LastError)
		}
		if integration.ConnectedAt == nil || !integration.ConnectedAt.Equal(now) {
			t.Fatalf("expected connected_at set to %v", now)
		}
	})

	t.Run("disconnected to error is rejected", func(t *testing.T) {
		integration := Integration{Status: IntegrationStatusDisconnected}
		if err := integration.TransitionTo(IntegrationStatusError, "boom", now); err == nil {
			t.Fatal("expected transition to be rejected")
		}
	})

	t.Run("same status records reason", func(t *testing.T) {
		integration := Integration{Status: IntegrationStatusError, LastError: "old"}
		if err := integration.TransitionTo(IntegrationStatusError, "new reason", now); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if integration.LastError != "new reason" {
			t.Fatalf("expected reason updated, got %q", integration.LastError)
		}
	})
}

func TestIntegrationResourceSelector(t *testing.T) {
	integration := Integration{Config: map[string]any{
		"property_id": " 123456 ",
		"customer_id": 9876,
	}}
	if got := integration.ResourceSelector("property_id"); got != "123456" {
		t.Fatalf("expected trimmed property id, got %q", got)
	}
	if got := integration.ResourceSelector("customer_id"); got != "9876" {
		t.Fatalf("expected stringified customer id, got %q", got)
	}
	if got := integration.ResourceSelector("missing"); got != "" {
		t.Fatalf("expected empty selector, got %q", got)
	}
}

func TestRedactSensitiveMap(t *testing.T) {
	redacted := RedactSensitiveMap(map[string]any{
		"provider":      ProviderGoogleAnalytics,
		"access_token":  "ya29.secret",
		"refresh_token": "1//refresh",
		"nested": map[string]any{
			"client_secret": "shh",
			"site_id":       "site-1",
		},
	})

	if redacted["access_token"] != RedactedValue || redacted["refresh_token"] != RedactedValue {
		t.Fatalf("expected tokens masked: %v", redacted)
	}
	if redacted["provider"] != ProviderGoogleAnalytics {
		t.Fatal("traceability keys must survive redaction")
	}
	nested := redacted["nested"].(map[string]any)
	if nested["client_secret"] != RedactedValue {
		t.Fatal("expected nested secret masked")
	}
	if nested["site_id"] != "site-1" {
		t.Fatal("expected nested site_id preserved")
	}
}

func TestOAuthAppKeyFor(t *testing.T) {
	if OAuthAppKeyFor(ProviderSearchConsole) != "google" {
		t.Fatal("expected google family to share one app key")
	}
	if OAuthAppKeyFor(ProviderBingWebmaster) != "bing" {
		t.Fatal("expected bing app key")
	}
	if OAuthAppKeyFor(ProviderWooCommerce) != ProviderWooCommerce {
		t.Fatal("expected passthrough for standalone providers")
	}
}
