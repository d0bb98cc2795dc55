// Package analytics fetches GA4 reports through the Analytics Data API and
// folds them into the normalized report row shape.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-seo-reports/core"
	"github.com/goliatone/go-seo-reports/providers/google"
)

const defaultEndpoint = "https://analyticsdata.googleapis.com"

const (
	KindOverview = "overview"
	KindPages    = "pages"
	KindSources  = "sources"
)

// SelectorKey is the integration config key holding the GA4 property id.
const SelectorKey = "analytics_property_id"

type Provider struct {
	Transport core.TransportAdapter
	Endpoint  string
}

func New(transport core.TransportAdapter) *Provider {
	return &Provider{Transport: transport, Endpoint: defaultEndpoint}
}

func (*Provider) ID() string {
	return core.ProviderGoogleAnalytics
}

func (*Provider) AuthKind() string {
	return core.AuthKindOAuth
}

func (*Provider) Kinds() []string {
	return []string{KindOverview, KindPages, KindSources}
}

type runReportRequest struct {
	DateRanges []dateRange  `json:"dateRanges"`
	Dimensions []namedField `json:"dimensions"`
	Metrics    []namedField `json:"metrics"`
	Limit      int          `json:"limit,omitempty"`
	OrderBys   []orderBy    `json:"orderBys,omitempty"`
}

type dateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type namedField struct {
	Name string `json:"name"`
}

type orderBy struct {
	Metric namedField `json:"metric"`
	Desc   bool       `json:"desc"`
}

type runReportResponse struct {
	Rows []reportRow `json:"rows"`
	// Totals carries one row per requested date range.
	Totals []reportRow `json:"totals"`
}

type reportRow struct {
	DimensionValues []fieldValue `json:"dimensionValues"`
	MetricValues    []fieldValue `json:"metricValues"`
}

type fieldValue struct {
	Value string `json:"value"`
}

func (p *Provider) Fetch(ctx context.Context, req core.ReportRequest) (core.ReportResult, error) {
	property := req.Integration.ResourceSelector(SelectorKey)
	if property == "" {
		return core.ReportResult{}, core.ResourceNotSelectedError(
			req.Provider,
			"choose an Analytics property on the integration settings page first",
		)
	}

	dimension, metrics := p.shape(req)
	payload, err := json.Marshal(runReportRequest{
		DateRanges: []dateRange{{StartDate: req.Range.Start, EndDate: req.Range.End}},
		Dimensions: []namedField{{Name: dimension}},
		Metrics:    metricFields(metrics),
		Limit:      req.Limit,
		OrderBys:   orderBys(req.OrderBy, metrics),
	})
	if err != nil {
		return core.ReportResult{}, fmt.Errorf("analytics: encode report request: %w", err)
	}

	res, err := p.Transport.Do(ctx, core.TransportRequest{
		Method:  "POST",
		URL:     p.endpoint() + "/v1beta/properties/" + property + ":runReport",
		Headers: withContentType(google.BearerHeaders(req.AccessToken)),
		Body:    payload,
	})
	if err != nil {
		return core.ReportResult{}, err
	}
	if err := google.ClassifyResponse(req.Provider, res); err != nil {
		return core.ReportResult{}, err
	}

	var parsed runReportResponse
	if err := json.Unmarshal(res.Body, &parsed); err != nil {
		return core.ReportResult{}, core.UpstreamError(req.Provider, res.StatusCode, "unparseable report payload")
	}
	return shapeResult(parsed, metrics), nil
}

// shape maps a report kind to its GA4 dimension and metric set. An explicit
// request dimension overrides the kind default.
func (p *Provider) shape(req core.ReportRequest) (string, []string) {
	var dimension string
	var metrics []string
	switch req.Kind {
	case KindPages:
		dimension = "pagePath"
		metrics = []string{"screenPageViews", "activeUsers", "engagementRate"}
	case KindSources:
		dimension = "sessionDefaultChannelGroup"
		metrics = []string{"sessions", "activeUsers", "engagementRate"}
	default:
		dimension = "date"
		metrics = []string{"sessions", "activeUsers", "screenPageViews", "engagementRate"}
	}
	if strings.TrimSpace(req.Dimension) != "" {
		dimension = strings.TrimSpace(req.Dimension)
	}
	return dimension, metrics
}

func shapeResult(parsed runReportResponse, metrics []string) core.ReportResult {
	result := core.ReportResult{
		Rows:   make([]core.ReportRow, 0, len(parsed.Rows)),
		Totals: map[string]float64{},
	}
	for _, row := range parsed.Rows {
		result.Rows = append(result.Rows, shapeRow(row, metrics))
	}
	if len(parsed.Totals) > 0 {
		result.Totals = shapeRow(parsed.Totals[0], metrics).Metrics
	} else {
		for _, row := range result.Rows {
			for name, value := range row.Metrics {
				result.Totals[name] += value
			}
		}
	}
	return result
}

func shapeRow(row reportRow, metrics []string) core.ReportRow {
	shaped := core.ReportRow{Metrics: make(map[string]float64, len(metrics))}
	if len(row.DimensionValues) > 0 {
		shaped.DimensionKey = row.DimensionValues[0].Value
	}
	for i, name := range metrics {
		value := 0.0
		if i < len(row.MetricValues) {
			value, _ = strconv.ParseFloat(row.MetricValues[i].Value, 64)
		}
		if name == "engagementRate" {
			value = core.RateToPercent(value)
		}
		shaped.Metrics[name] = value
	}
	return shaped
}

func metricFields(names []string) []namedField {
	fields := make([]namedField, 0, len(names))
	for _, name := range names {
		fields = append(fields, namedField{Name: name})
	}
	return fields
}

func orderBys(requested string, metrics []string) []orderBy {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return nil
	}
	for _, name := range metrics {
		if name == requested {
			return []orderBy{{Metric: namedField{Name: name}, Desc: true}}
		}
	}
	return nil
}

func withContentType(headers map[string]string) map[string]string {
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
