// Package searchconsole queries the Search Console Search Analytics API.
package searchconsole

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-seo-reports/core"
	"github.com/goliatone/go-seo-reports/providers/google"
)

const defaultEndpoint = "https://searchconsole.googleapis.com"

const (
	KindQueries = "queries"
	KindPages   = "pages"
)

// SelectorKey is the integration config key holding the verified site URL.
// When unset the provider falls back to the domain property derived from the
// site's own domain.
const SelectorKey = "gsc_site_url"

type Provider struct {
	Transport core.TransportAdapter
	Endpoint  string
}

func New(transport core.TransportAdapter) *Provider {
	return &Provider{Transport: transport, Endpoint: defaultEndpoint}
}

func (*Provider) ID() string {
	return core.ProviderSearchConsole
}

func (*Provider) AuthKind() string {
	return core.AuthKindOAuth
}

func (*Provider) Kinds() []string {
	return []string{KindQueries, KindPages}
}

type queryRequest struct {
	StartDate  string   `json:"startDate"`
	EndDate    string   `json:"endDate"`
	Dimensions []string `json:"dimensions"`
	RowLimit   int      `json:"rowLimit,omitempty"`
}

type queryResponse struct {
	Rows []struct {
		Keys        []string `json:"keys"`
		Clicks      float64  `json:"clicks"`
		Impressions float64  `json:"impressions"`
		CTR         float64  `json:"ctr"`
		Position    float64  `json:"position"`
	} `json:"rows"`
}

func (p *Provider) Fetch(ctx context.Context, req core.ReportRequest) (core.ReportResult, error) {
	siteURL := req.Integration.ResourceSelector(SelectorKey)
	if siteURL == "" {
		if req.TargetDomain == "" {
			return core.ReportResult{}, core.ResourceNotSelectedError(
				req.Provider,
				"choose a verified Search Console property on the integration settings page first",
			)
		}
		siteURL = "sc-domain:" + req.TargetDomain
	}

	dimension := "query"
	if req.Kind == KindPages {
		dimension = "page"
	}
	if strings.TrimSpace(req.Dimension) != "" {
		dimension = strings.TrimSpace(req.Dimension)
	}

	payload, err := json.Marshal(queryRequest{
		StartDate:  req.Range.Start,
		EndDate:    req.Range.End,
		Dimensions: []string{dimension},
		RowLimit:   req.Limit,
	})
	if err != nil {
		return core.ReportResult{}, fmt.Errorf("searchconsole: encode query: %w", err)
	}

	res, err := p.Transport.Do(ctx, core.TransportRequest{
		Method: "POST",
		URL: p.endpoint() + "/webmasters/v3/sites/" +
			url.PathEscape(siteURL) + "/searchAnalytics/query",
		Headers: headersWithJSON(req.AccessToken),
		Body:    payload,
	})
	if err != nil {
		return core.ReportResult{}, err
	}
	if err := google.ClassifyResponse(req.Provider, res); err != nil {
		return core.ReportResult{}, err
	}

	var parsed queryResponse
	if err := json.Unmarshal(res.Body, &parsed); err != nil {
		return core.ReportResult{}, core.UpstreamError(req.Provider, res.StatusCode, "unparseable query payload")
	}

	result := core.ReportResult{
		Rows:   make([]core.ReportRow, 0, len(parsed.Rows)),
		Totals: map[string]float64{},
	}
	for _, row := range parsed.Rows {
		shaped := core.ReportRow{Metrics: map[string]float64{
			"clicks":      row.Clicks,
			"impressions": row.Impressions,
			"ctr":         core.RateToPercent(row.CTR),
			"position":    row.Position,
		}}
		if len(row.Keys) > 0 {
			shaped.DimensionKey = row.Keys[0]
		}
		result.Rows = append(result.Rows, shaped)
		result.Totals["clicks"] += row.Clicks
		result.Totals["impressions"] += row.Impressions
	}
	return result, nil
}

func headersWithJSON(accessToken string) map[string]string {
	headers := google.BearerHeaders(accessToken)
	headers["Content-Type"] = "application/json"
	return headers
}

func (p *Provider) endpoint() string {
	if strings.TrimSpace(p.Endpoint) != "" {
		return strings.TrimRight(strings.TrimSpace(p.Endpoint), "/")
	}
	return defaultEndpoint
}

var _ core.ReportProvider = (*Provider)(nil)
