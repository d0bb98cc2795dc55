// Package pagespeed runs Lighthouse audits through the PageSpeed Insights
// API and exposes the category scores as percentages.
package pagespeed

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-seo-reports/core"
)

const defaultEndpoint = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"

// PSI audits are slow; a fixed timeout bounds worst-case request latency.
const requestTimeout = 45 * time.Second

const KindLighthouse = "lighthouse"

var categories = []string{"performance", "accessibility", "best-practices", "seo"}

type Provider struct {
	Transport core.TransportAdapter
	Endpoint  string
	// APIKey is the operator-level key; requests work unauthenticated at a
	// much lower quota.
	APIKey string
}

func New(transport core.TransportAdapter, apiKey string) *Provider {
	return &Provider{Transport: transport, Endpoint: defaultEndpoint, APIKey: apiKey}
}

func (*Provider) ID() string {
	return core.ProviderPageSpeed
}

func (*Provider) AuthKind() string {
	return core.AuthKindNone
}

func (*Provider) Kinds() []string {
	return []string{KindLighthouse}
}

type psiResponse struct {
	LighthouseResult struct {
		Categories map[string]struct {
			Score float64 `json:"score"`
		} `json:"categories"`
		Audits map[string]struct {
			NumericValue float64 `json:"numericValue"`
		} `json:"audits"`
	} `json:"lighthouseResult"`
}

func (p *Provider) Fetch(ctx context.Context, req core.ReportRequest) (core.ReportResult, error) {
	if req.TargetDomain == "" {
		return core.ReportResult{}, core.ResourceNotSelectedError(req.Provider, "the site has no domain configured")
	}

	target := "https://" + req.TargetDomain + "/"
	if page := strings.TrimSpace(req.Params["url"]); page != "" {
		target = page
	}
	strategy := strings.TrimSpace(req.Params["strategy"])
	if strategy == "" {
		strategy = "mobile"
	}

	query := map[string]string{"url": target, "strategy": strategy}
	if strings.TrimSpace(p.APIKey) != "" {
		query["key"] = p.APIKey
	}

	endpoint := p.Endpoint
	if strings.TrimSpace(endpoint) == "" {
		endpoint = defaultEndpoint
	}
	// The query map holds single values, so the repeated category params are
	// baked into the URL.
	endpoint += "?category=" + strings.Join(categories, "&category=")

	res, err := p.Transport.Do(ctx, core.TransportRequest{
		Method:  "GET",
		URL:     endpoint,
		Query:   query,
		Timeout: requestTimeout,
	})
	if err != nil {
		return core.ReportResult{}, err
	}
	if err := classifyResponse(req.Provider, res); err != nil {
		return core.ReportResult{}, err
	}

	var parsed psiResponse
	if err := json.Unmarshal(res.Body, &parsed); err != nil {
		return core.ReportResult{}, core.UpstreamError(req.Provider, res.StatusCode, "unparseable lighthouse payload")
	}

	metrics := map[string]float64{}
	for _, category := range categories {
		score := 0.0
		if entry, ok := parsed.LighthouseResult.Categories[category]; ok {
			score = core.RateToPercent(entry.Score)
		}
		metrics[strings.ReplaceAll(category, "-", "_")] = score
	}
	for _, audit := range []string{"largest-contentful-paint", "cumulative-layout-shift", "total-blocking-time"} {
		if entry, ok := parsed.LighthouseResult.Audits[audit]; ok {
			metrics[strings.ReplaceAll(audit, "-", "_")] = entry.NumericValue
		}
	}

	return core.ReportResult{
		Rows:   []core.ReportRow{{DimensionKey: target, Metrics: metrics}},
		Totals: metrics,
		Metadata: map[string]any{
			"strategy": strategy,
		},
	}, nil
}

func classifyResponse(provider string, res core.TransportResponse) error {
	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
		return nil
	case res.StatusCode == http.StatusTooManyRequests:
		return core.RateLimitedError(provider)
	case res.StatusCode == http.StatusForbidden:
		return core.PermissionDeniedError(provider, "verify the PageSpeed API key quota")
	default:
		return core.UpstreamError(provider, res.StatusCode, string(res.Body))
	}
}

var _ core.ReportProvider = (*Provider)(nil)
