package core

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// ReportCache stores rendered report results keyed by site, report kind, and
// request parameters. Entries expire lazily on read.
type ReportCache interface {
	Get(key string) (ReportResult, bool)
	Set(key string, result ReportResult)
	InvalidateSite(siteID string)
}

const reportCacheKeySeparator = "::"

// BuildReportCacheKey produces a stable cache key. The site ID leads the key
// so InvalidateSite can drop every entry for a site with a prefix scan.
func BuildReportCacheKey(siteID, provider, kind string, params map[string]string) string {
	parts := []string{
		strings.TrimSpace(siteID),
		strings.TrimSpace(provider),
		strings.TrimSpace(kind),
	}
	if len(params) > 0 {
		keys := make([]string, 0, len(params))
		for key := range params {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			parts = append(parts, key+"="+params[key])
		}
	}
	return strings.Join(parts, reportCacheKeySeparator)
}

type reportCacheEntry struct {
	result    ReportResult
	expiresAt time.Time
}

type MemoryReportCache struct {
	mu      sync.Mutex
	entries map[string]reportCacheEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryReportCache(ttl time.Duration, now func() time.Time) *MemoryReportCache {
	if ttl <= 0 {
		ttl = DefaultConfig().Cache.TTL()
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &MemoryReportCache{
		entries: make(map[string]reportCacheEntry),
		ttl:     ttl,
		now:     now,
	}
}

func (c *MemoryReportCache) Get(key string) (ReportResult, bool) {
	if c == nil {
		return ReportResult{}, false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return ReportResult{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return ReportResult{}, false
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		return ReportResult{}, false
	}
	return cloneReportResult(entry.result), true
}

func (c *MemoryReportCache) Set(key string, result ReportResult) {
	if c == nil {
		return
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = reportCacheEntry{
		result:    cloneReportResult(result),
		expiresAt: c.now().Add(c.ttl),
	}
}

// GetStale returns a cached entry even past its TTL without evicting it. The
// service uses it to serve the last good report when the upstream rate limits.
func (c *MemoryReportCache) GetStale(key string) (ReportResult, bool) {
	if c == nil {
		return ReportResult{}, false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return ReportResult{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return ReportResult{}, false
	}
	return cloneReportResult(entry.result), true
}

func (c *MemoryReportCache) InvalidateSite(siteID string) {
	if c == nil {
		return
	}
	prefix := strings.TrimSpace(siteID) + reportCacheKeySeparator
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
}

func cloneReportResult(result ReportResult) ReportResult {
	cloned := ReportResult{
		RateLimited: result.RateLimited,
	}
	if result.Rows != nil {
		cloned.Rows = make([]ReportRow, len(result.Rows))
		for i, row := range result.Rows {
			metrics := make(map[string]float64, len(row.Metrics))
			for name, value := range row.Metrics {
				metrics[name] = value
			}
			cloned.Rows[i] = ReportRow{DimensionKey: row.DimensionKey, Metrics: metrics}
		}
	}
	if result.Totals != nil {
		cloned.Totals = make(map[string]float64, len(result.Totals))
		for name, value := range result.Totals {
			cloned.Totals[name] = value
		}
	}
	if result.Metadata != nil {
		cloned.Metadata = make(map[string]any, len(result.Metadata))
		for key, value := range result.Metadata {
			cloned.Metadata[key] = value
		}
	}
	return cloned
}

var _ ReportCache = (*MemoryReportCache)(nil)
