// Package woocommerce reads sales reports from a store's WooCommerce REST
// API using consumer key/secret basic auth.
package woocommerce

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/goliatone/go-seo-reports/auth"
	"github.com/goliatone/go-seo-reports/core"
)

const (
	KindSales      = "sales"
	KindTopSellers = "top_sellers"
)

// Integration config keys. StoreURLConfigKey overrides the default
// https://<site domain> base when the shop lives elsewhere.
const (
	ConsumerKeyConfigKey    = "consumer_key"
	ConsumerSecretConfigKey = "consumer_secret"
	StoreURLConfigKey       = "store_url"
)

type Provider struct {
	Transport core.TransportAdapter
}

func New(transport core.TransportAdapter) *Provider {
	return &Provider{Transport: transport}
}

func (*Provider) ID() string {
	return core.ProviderWooCommerce
}

func (*Provider) AuthKind() string {
	return core.AuthKindBasic
}

func (*Provider) Kinds() []string {
	return []string{KindSales, KindTopSellers}
}

type salesReport struct {
	TotalSales  string `json:"total_sales"`
	NetSales    string `json:"net_sales"`
	TotalOrders int    `json:"total_orders"`
	TotalItems  int    `json:"total_items"`
	Totals      map[string]struct {
		Sales  string `json:"sales"`
		Orders int    `json:"orders"`
		Items  int    `json:"items"`
	} `json:"totals"`
}

type topSeller struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

func (p *Provider) Fetch(ctx context.Context, req core.ReportRequest) (core.ReportResult, error) {
	key := req.Integration.ResourceSelector(ConsumerKeyConfigKey)
	secret := req.Integration.ResourceSelector(ConsumerSecretConfigKey)
	if key == "" || secret == "" {
		return core.ReportResult{}, core.NotConnectedError(req.Provider)
	}
	baseURL := req.Integration.ResourceSelector(StoreURLConfigKey)
	if baseURL == "" {
		if req.TargetDomain == "" {
			return core.ReportResult{}, core.ResourceNotSelectedError(req.Provider, "the site has no domain configured")
		}
		baseURL = "https://" + req.TargetDomain
	}
	baseURL = strings.TrimRight(baseURL, "/")

	path := "/wp-json/wc/v3/reports/sales"
	if req.Kind == KindTopSellers {
		path = "/wp-json/wc/v3/reports/top_sellers"
	}

	res, err := p.Transport.Do(ctx, core.TransportRequest{
		Method: "GET",
		URL:    baseURL + path,
		Query: map[string]string{
			"date_min": req.Range.Start,
			"date_max": req.Range.End,
		},
		Headers: map[string]string{
			"Authorization": auth.BasicAuthHeader(key, secret),
			"Accept":        "application/json",
		},
	})
	if err != nil {
		return core.ReportResult{}, err
	}
	if err := classifyResponse(req.Provider, res); err != nil {
		return core.ReportResult{}, err
	}

	if req.Kind == KindTopSellers {
		return shapeTopSellers(req.Provider, res)
	}
	return shapeSales(req.Provider, res)
}

func shapeSales(provider string, res core.TransportResponse) (core.ReportResult, error) {
	var reports []salesReport
	if err := json.Unmarshal(res.Body, &reports); err != nil {
		return core.ReportResult{}, core.UpstreamError(provider, res.StatusCode, "unparseable sales payload")
	}
	result := core.ReportResult{Rows: []core.ReportRow{}, Totals: map[string]float64{}}
	if len(reports) == 0 {
		return result, nil
	}
	report := reports[0]
	result.Totals["total_sales"] = parseMoney(report.TotalSales)
	result.Totals["net_sales"] = parseMoney(report.NetSales)
	result.Totals["orders"] = float64(report.TotalOrders)
	result.Totals["items"] = float64(report.TotalItems)
	for day, totals := range report.Totals {
		result.Rows = append(result.Rows, core.ReportRow{
			DimensionKey: day,
			Metrics: map[string]float64{
				"sales":  parseMoney(totals.Sales),
				"orders": float64(totals.Orders),
				"items":  float64(totals.Items),
			},
		})
	}
	return result, nil
}

func shapeTopSellers(provider string, res core.TransportResponse) (core.ReportResult, error) {
	var sellers []topSeller
	if err := json.Unmarshal(res.Body, &sellers); err != nil {
		return core.ReportResult{}, core.UpstreamError(provider, res.StatusCode, "unparseable top sellers payload")
	}
	result := core.ReportResult{Rows: make([]core.ReportRow, 0, len(sellers)), Totals: map[string]float64{}}
	for _, seller := range sellers {
		result.Rows = append(result.Rows, core.ReportRow{
			DimensionKey: seller.Name,
			Metrics:      map[string]float64{"quantity": float64(seller.Quantity)},
		})
		result.Totals["quantity"] += float64(seller.Quantity)
	}
	return result, nil
}

func classifyResponse(provider string, res core.TransportResponse) error {
	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
		return nil
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return core.PermissionDeniedError(provider, "verify the consumer key and secret have read access to reports")
	case res.StatusCode == http.StatusTooManyRequests:
		return core.RateLimitedError(provider)
	default:
		return core.UpstreamError(provider, res.StatusCode, string(res.Body))
	}
}

// parseMoney tolerates WooCommerce's string-encoded decimal amounts.
func parseMoney(value string) float64 {
	parsed, _ := strconv.ParseFloat(strings.TrimSpace(value), 64)
	return parsed
}

var _ core.ReportProvider = (*Provider)(nil)
