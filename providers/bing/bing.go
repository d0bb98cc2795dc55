// Package bing queries the Bing Webmaster Tools JSON API with a per-site
// API key carried in the query string.
package bing

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/goliatone/go-seo-reports/core"
)

const defaultEndpoint = "https://ssl.bing.com/webmaster/api.svc/json"

const (
	KindQueryStats = "query_stats"
	KindPageStats  = "page_stats"
)

// APIKeyConfigKey is the integration config key holding the user's Bing
// Webmaster API key.
const APIKeyConfigKey = "api_key"

type Provider struct {
	Transport core.TransportAdapter
	Endpoint  string
}

func New(transport core.TransportAdapter) *Provider {
	return &Provider{Transport: transport, Endpoint: defaultEndpoint}
}

func (*Provider) ID() string {
	return core.ProviderBingWebmaster
}

func (*Provider) AuthKind() string {
	return core.AuthKindAPIKey
}

func (*Provider) Kinds() []string {
	return []string{KindQueryStats, KindPageStats}
}

type statsResponse struct {
	D []struct {
		Query            string  `json:"Query"`
		Page             string  `json:"Page"`
		Clicks           float64 `json:"Clicks"`
		Impressions      float64 `json:"Impressions"`
		AvgClickPosition float64 `json:"AvgClickPosition"`
	} `json:"d"`
}

func (p *Provider) Fetch(ctx context.Context, req core.ReportRequest) (core.ReportResult, error) {
	apiKey := req.Integration.ResourceSelector(APIKeyConfigKey)
	if apiKey == "" {
		return core.ReportResult{}, core.NotConnectedError(req.Provider)
	}
	if req.TargetDomain == "" {
		return core.ReportResult{}, core.ResourceNotSelectedError(req.Provider, "the site has no domain configured")
	}

	operation := "GetQueryStats"
	if req.Kind == KindPageStats {
		operation = "GetPageStats"
	}

	res, err := p.Transport.Do(ctx, core.TransportRequest{
		Method: "GET",
		URL:    p.endpoint() + "/" + operation,
		Query: map[string]string{
			"apikey":  apiKey,
			"siteUrl": "https://" + req.TargetDomain + "/",
		},
		Headers: map[string]string{"Accept": "application/json"},
	})
	if err != nil {
		return core.ReportResult{}, err
	}
	if err := classifyResponse(req.Provider, res); err != nil {
		return core.ReportResult{}, err
	}

	var parsed statsResponse
	if err := json.Unmarshal(res.Body, &parsed); err != nil {
		return core.ReportResult{}, core.UpstreamError(req.Provider, res.StatusCode, "unparseable stats payload")
	}

	result := core.ReportResult{Rows: make([]core.ReportRow, 0, len(parsed.D)), Totals: map[string]float64{}}
	for _, entry := range parsed.D {
		key := entry.Query
		if key == "" {
			key = entry.Page
		}
		result.Rows = append(result.Rows, core.ReportRow{
			DimensionKey: key,
			Metrics: map[string]float64{
				"clicks":       entry.Clicks,
				"impressions":  entry.Impressions,
				"avg_position": entry.AvgClickPosition,
			},
		})
		result.Totals["clicks"] += entry.Clicks
		result.Totals["impressions"] += entry.Impressions
		if req.Limit > 0 && len(result.Rows) >= req.Limit {
			break
		}
	}
	return result, nil
}

func classifyResponse(provider string, res core.TransportResponse) error {
	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
		return nil
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return core.PermissionDeniedError(provider, "verify the API key and that the site is verified in Bing Webmaster Tools")
	case res.StatusCode == http.StatusTooManyRequests:
		return core.RateLimitedError(provider)
	default:
		return core.UpstreamError(provider, res.StatusCode, string(res.Body))
	}
}

func (p *Provider) endpoint() string {
	if strings.TrimSpace(p.Endpoint) != "" {
		return strings.TrimRight(strings.TrimSpace(p.Endpoint), "/")
	}
	return defaultEndpoint
}

var _ core.ReportProvider = (*Provider)(nil)
