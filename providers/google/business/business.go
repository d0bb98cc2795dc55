// Package business fetches Google Business Profile daily performance
// metrics and lists the caller's accounts and locations.
package business

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-seo-reports/core"
	"github.com/goliatone/go-seo-reports/providers/google"
)

const (
	defaultPerformanceEndpoint = "https://businessprofileperformance.googleapis.com"
	defaultAccountEndpoint     = "https://mybusinessaccountmanagement.googleapis.com"
	defaultInfoEndpoint        = "https://mybusinessbusinessinformation.googleapis.com"
	defaultListingTTL          = 10 * time.Minute
)

const KindPerformance = "performance"

// SelectorKey is the integration config key holding the location resource
// name, e.g. "locations/123".
const SelectorKey = "gbp_location_id"

var dailyMetrics = []string{
	"BUSINESS_IMPRESSIONS_DESKTOP_SEARCH",
	"BUSINESS_IMPRESSIONS_MOBILE_SEARCH",
	"CALL_CLICKS",
	"WEBSITE_CLICKS",
	"BUSINESS_DIRECTION_REQUESTS",
}

type Provider struct {
	Transport           core.TransportAdapter
	PerformanceEndpoint string
	AccountEndpoint     string
	InfoEndpoint        string
	listings            *listingCache
}

func New(transport core.TransportAdapter) *Provider {
	return &Provider{
		Transport:           transport,
		PerformanceEndpoint: defaultPerformanceEndpoint,
		AccountEndpoint:     defaultAccountEndpoint,
		InfoEndpoint:        defaultInfoEndpoint,
		listings:            newListingCache(defaultListingTTL, nil),
	}
}

// WithListingCache swaps the account/location cache, letting tests control
// TTL and clock.
func (p *Provider) WithListingCache(ttl time.Duration, now func() time.Time) *Provider {
	p.listings = newListingCache(ttl, now)
	return p
}

func (*Provider) ID() string {
	return core.ProviderBusinessProfile
}

func (*Provider) AuthKind() string {
	return core.AuthKindOAuth
}

func (*Provider) Kinds() []string {
	return []string{KindPerformance}
}

type performanceResponse struct {
	MultiDailyMetricTimeSeries []struct {
		DailyMetricTimeSeries []struct {
			DailyMetric string `json:"dailyMetric"`
			TimeSeries  struct {
				DatedValues []struct {
					Date struct {
						Year  int `json:"year"`
						Month int `json:"month"`
						Day   int `json:"day"`
					} `json:"date"`
					Value string `json:"value"`
				} `json:"datedValues"`
			} `json:"timeSeries"`
		} `json:"dailyMetricTimeSeries"`
	} `json:"multiDailyMetricTimeSeries"`
}

func (p *Provider) Fetch(ctx context.Context, req core.ReportRequest) (core.ReportResult, error) {
	location := req.Integration.ResourceSelector(SelectorKey)
	if location == "" {
		return core.ReportResult{}, core.ResourceNotSelectedError(
			req.Provider,
			"choose a Business Profile location on the integration settings page first",
		)
	}

	query := url.Values{}
	for _, metric := range dailyMetrics {
		query.Add("dailyMetrics", metric)
	}
	addDateParams(query, "dailyRange.start_date", req.Range.Start)
	addDateParams(query, "dailyRange.end_date", req.Range.End)

	res, err := p.Transport.Do(ctx, core.TransportRequest{
		Method: "GET",
		URL: strings.TrimRight(p.PerformanceEndpoint, "/") + "/v1/" +
			location + ":fetchMultiDailyMetricsTimeSeries?" + query.Encode(),
		Headers: google.BearerHeaders(req.AccessToken),
	})
	if err != nil {
		return core.ReportResult{}, err
	}
	if err := google.ClassifyResponse(req.Provider, res); err != nil {
		return core.ReportResult{}, err
	}

	var parsed performanceResponse
	if err := json.Unmarshal(res.Body, &parsed); err != nil {
		return core.ReportResult{}, core.UpstreamError(req.Provider, res.StatusCode, "unparseable performance payload")
	}
	return shapePerformance(parsed), nil
}

// shapePerformance pivots the per-metric time series into one row per day,
// zero-filling days a metric omits.
func shapePerformance(parsed performanceResponse) core.ReportResult {
	byDay := map[string]map[string]float64{}
	var order []string
	for _, multi := range parsed.MultiDailyMetricTimeSeries {
		for _, series := range multi.DailyMetricTimeSeries {
			metric := strings.ToLower(series.DailyMetric)
			for _, dated := range series.TimeSeries.DatedValues {
				day := fmt.Sprintf("%04d-%02d-%02d", dated.Date.Year, dated.Date.Month, dated.Date.Day)
				if _, ok := byDay[day]; !ok {
					byDay[day] = map[string]float64{}
					order = append(order, day)
				}
				var value float64
				fmt.Sscanf(dated.Value, "%f", &value)
				byDay[day][metric] = value
			}
		}
	}

	result := core.ReportResult{Rows: make([]core.ReportRow, 0, len(order)), Totals: map[string]float64{}}
	for _, day := range order {
		metrics := make(map[string]float64, len(dailyMetrics))
		for _, name := range dailyMetrics {
			key := strings.ToLower(name)
			metrics[key] = byDay[day][key]
			result.Totals[key] += byDay[day][key]
		}
		result.Rows = append(result.Rows, core.ReportRow{DimensionKey: day, Metrics: metrics})
	}
	return result
}

type Account struct {
	Name        string `json:"name"`
	AccountName string `json:"accountName"`
}

type Location struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// ListAccounts returns the accounts visible to the token, cached for the
// listing TTL so repeated settings-page loads do not refetch.
func (p *Provider) ListAccounts(ctx context.Context, accessToken string) ([]Account, error) {
	if cached, ok := p.listings.get("accounts"); ok {
		return cached.([]Account), nil
	}
	res, err := p.Transport.Do(ctx, core.TransportRequest{
		Method:  "GET",
		URL:     strings.TrimRight(p.AccountEndpoint, "/") + "/v1/accounts",
		Headers: google.BearerHeaders(accessToken),
	})
	if err != nil {
		return nil, err
	}
	if err := google.ClassifyResponse(core.ProviderBusinessProfile, res); err != nil {
		return nil, err
	}
	var parsed struct {
		Accounts []Account `json:"accounts"`
	}
	if err := json.Unmarshal(res.Body, &parsed); err != nil {
		return nil, core.UpstreamError(core.ProviderBusinessProfile, res.StatusCode, "unparseable accounts payload")
	}
	p.listings.set("accounts", parsed.Accounts)
	return parsed.Accounts, nil
}

// ListLocations returns an account's locations, cached per account.
func (p *Provider) ListLocations(ctx context.Context, accessToken string, accountName string) ([]Location, error) {
	accountName = strings.TrimSpace(accountName)
	cacheKey := "locations::" + accountName
	if cached, ok := p.listings.get(cacheKey); ok {
		return cached.([]Location), nil
	}
	res, err := p.Transport.Do(ctx, core.TransportRequest{
		Method:  "GET",
		URL:     strings.TrimRight(p.InfoEndpoint, "/") + "/v1/" + accountName + "/locations",
		Query:   map[string]string{"readMask": "name,title"},
		Headers: google.BearerHeaders(accessToken),
	})
	if err != nil {
		return nil, err
	}
	if err := google.ClassifyResponse(core.ProviderBusinessProfile, res); err != nil {
		return nil, err
	}
	var parsed struct {
		Locations []Location `json:"locations"`
	}
	if err := json.Unmarshal(res.Body, &parsed); err != nil {
		return nil, core.UpstreamError(core.ProviderBusinessProfile, res.StatusCode, "unparseable locations payload")
	}
	p.listings.set(cacheKey, parsed.Locations)
	return parsed.Locations, nil
}

func addDateParams(query url.Values, prefix string, isoDate string) {
	parts := strings.SplitN(strings.TrimSpace(isoDate), "-", 3)
	if len(parts) != 3 {
		return
	}
	query.Set(prefix+".year", strings.TrimLeft(parts[0], "0"))
	query.Set(prefix+".month", strings.TrimLeft(parts[1], "0"))
	query.Set(prefix+".day", strings.TrimLeft(parts[2], "0"))
}

// listingCache is a tiny TTL map for the account/location listings. It is
// owned by one provider instance and never shared.
type listingCache struct {
	mu      sync.Mutex
	entries map[string]listingEntry
	ttl     time.Duration
	now     func() time.Time
}

type listingEntry struct {
	value     any
	expiresAt time.Time
}

func newListingCache(ttl time.Duration, now func() time.Time) *listingCache {
	if ttl <= 0 {
		ttl = defaultListingTTL
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &listingCache{entries: map[string]listingEntry{}, ttl: ttl, now: now}
}

func (c *listingCache) get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok || !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.value, true
}

func (c *listingCache) set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = listingEntry{value: value, expiresAt: c.now().Add(c.ttl)}
}

var _ core.ReportProvider = (*Provider)(nil)
