package serp

import (
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-seo-reports/core"
	"github.com/goliatone/go-seo-reports/providers/devkit"
)

func serpBody(items []map[string]any) map[string]any {
	return map[string]any{
		"status_code": 20000,
		"tasks": []map[string]any{
			{
				"status_code": 20000,
				"result": []map[string]any{
					{"items": items},
				},
			},
		},
	}
}

func TestFetchRankFindsMatchingDomain(t *testing.T) {
	transport := devkit.NewScriptedTransport().RespondJSON(200, serpBody([]map[string]any{
		{"type": "organic", "rank_group": 1, "rank_absolute": 1, "domain": "other.com", "url": "https://other.com/"},
		{"type": "paid", "rank_group": 2, "rank_absolute": 3, "domain": "example.com", "url": "https://example.com/ad"},
		{
			"type": "organic", "rank_group": 4, "rank_absolute": 6,
			"domain": "www.example.com", "url": "https://www.example.com/page",
			"title": "Example Page", "description": "About examples",
		},
	}))

	result, err := New(transport, "login", "password").
		FetchRank(context.Background(), core.RankQuery{Keyword: "coffee roaster", Domain: "example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Position != 4 || result.RankAbsolute != 6 {
		t.Fatalf("unexpected rank: %+v", result)
	}
	if result.Title != "Example Page" {
		t.Fatalf("unexpected title: %q", result.Title)
	}

	req, _ := transport.LastRequest()
	if !strings.HasPrefix(req.Headers["Authorization"], "Basic ") {
		t.Fatal("expected basic auth header")
	}
	if !strings.Contains(string(req.Body), "coffee roaster") {
		t.Fatalf("unexpected body: %s", req.Body)
	}
}

func TestFetchRankNoMatchIsZeroPosition(t *testing.T) {
	transport := devkit.NewScriptedTransport().RespondJSON(200, serpBody([]map[string]any{
		{"type": "organic", "rank_group": 1, "rank_absolute": 1, "domain": "other.com"},
	}))

	result, err := New(transport, "login", "password").
		FetchRank(context.Background(), core.RankQuery{Keyword: "coffee", Domain: "example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Position != 0 || result.RankAbsolute != 0 {
		t.Fatalf("expected zero rank for unranked keyword, got %+v", result)
	}
}

func TestFetchRankMissingCredentials(t *testing.T) {
	if _, err := New(devkit.NewScriptedTransport(), "", "").
		FetchRank(context.Background(), core.RankQuery{Keyword: "coffee", Domain: "example.com"}); err == nil {
		t.Fatal("expected error without credentials")
	}
}

func TestFetchRankFailedTask(t *testing.T) {
	transport := devkit.NewScriptedTransport().RespondJSON(200, map[string]any{
		"status_code": 20000,
		"tasks": []map[string]any{
			{"status_code": 40501, "result": nil},
		},
	})
	if _, err := New(transport, "login", "password").
		FetchRank(context.Background(), core.RankQuery{Keyword: "coffee", Domain: "example.com"}); err == nil {
		t.Fatal("expected error for failed task")
	}
}
