package core

import (
	"testing"
	"time"
)

func TestMemoryReportCacheExpiresLazily(t *testing.T) {
	current := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	cache := NewMemoryReportCache(5*time.Minute, func() time.Time { return current })

	key := BuildReportCacheKey("site-1", ProviderGoogleAnalytics, "overview", nil)
	cache.Set(key, ReportResult{Totals: map[string]float64{"sessions": 42}})

	current = current.Add(4 * time.Minute)
	if _, ok := cache.Get(key); !ok {
		t.Fatal("expected hit inside TTL")
	}

	current = current.Add(2 * time.Minute)
	if _, ok := cache.Get(key); ok {
		t.Fatal("expected miss past TTL")
	}
}

func TestMemoryReportCacheInvalidateSiteIsScoped(t *testing.T) {
	current := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	cache := NewMemoryReportCache(5*time.Minute, func() time.Time { return current })

	siteOneKey := BuildReportCacheKey("site-1", ProviderGoogleAnalytics, "overview", nil)
	siteTwoKey := BuildReportCacheKey("site-2", ProviderGoogleAnalytics, "overview", nil)
	cache.Set(siteOneKey, ReportResult{})
	cache.Set(siteTwoKey, ReportResult{})

	cache.InvalidateSite("site-1")

	if _, ok := cache.Get(siteOneKey); ok {
		t.Fatal("expected site-1 entries invalidated")
	}
	if _, ok := cache.Get(siteTwoKey); !ok {
		t.Fatal("expected site-2 entries untouched")
	}
}

func TestMemoryReportCacheGetStaleSurvivesTTL(t *testing.T) {
	current := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	cache := NewMemoryReportCache(time.Minute, func() time.Time { return current })

	key := BuildReportCacheKey("site-1", ProviderSearchConsole, "queries", nil)
	cache.Set(key, ReportResult{Totals: map[string]float64{"clicks": 7}})

	current = current.Add(time.Hour)
	stale, ok := cache.GetStale(key)
	if !ok {
		t.Fatal("expected stale entry to remain readable")
	}
	if stale.Totals["clicks"] != 7 {
		t.Fatalf("unexpected stale totals: %v", stale.Totals)
	}
}

func TestMemoryReportCacheReturnsCopies(t *testing.T) {
	cache := NewMemoryReportCache(time.Minute, nil)
	key := BuildReportCacheKey("site-1", ProviderGoogleAds, "campaigns", nil)
	cache.Set(key, ReportResult{
		Rows:   []ReportRow{{DimensionKey: "brand", Metrics: map[string]float64{"cost": 10}}},
		Totals: map[string]float64{"cost": 10},
	})

	first, _ := cache.Get(key)
	first.Rows[0].Metrics["cost"] = 999
	first.Totals["cost"] = 999

	second, _ := cache.Get(key)
	if second.Rows[0].Metrics["cost"] != 10 || second.Totals["cost"] != 10 {
		t.Fatal("cache entries must not share state with callers")
	}
}

func TestBuildReportCacheKeyIsStable(t *testing.T) {
	first := BuildReportCacheKey("site-1", ProviderGoogleAnalytics, "overview", map[string]string{
		"start": "2026-01-01",
		"end":   "2026-01-31",
	})
	second := BuildReportCacheKey("site-1", ProviderGoogleAnalytics, "overview", map[string]string{
		"end":   "2026-01-31",
		"start": "2026-01-01",
	})
	if first != second {
		t.Fatalf("expected identical keys, got %q vs %q", first, second)
	}
}
