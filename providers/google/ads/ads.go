// Package ads runs GAQL reports through the Google Ads searchStream API.
package ads

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-seo-reports/core"
	"github.com/goliatone/go-seo-reports/providers/google"
)

const defaultEndpoint = "https://googleads.googleapis.com"
const apiVersion = "v16"

const (
	KindCampaigns = "campaigns"
	KindKeywords  = "keywords"
)

// SelectorKey is the integration config key holding the Ads customer id.
// LoginCustomerKey optionally names the MCC the call is issued under.
const (
	SelectorKey      = "ads_customer_id"
	LoginCustomerKey = "ads_login_customer_id"
)

type Provider struct {
	Transport      core.TransportAdapter
	Endpoint       string
	DeveloperToken string
}

func New(transport core.TransportAdapter, developerToken string) *Provider {
	return &Provider{
		Transport:      transport,
		Endpoint:       defaultEndpoint,
		DeveloperToken: developerToken,
	}
}

func (*Provider) ID() string {
	return core.ProviderGoogleAds
}

func (*Provider) AuthKind() string {
	return core.AuthKindOAuth
}

func (*Provider) Kinds() []string {
	return []string{KindCampaigns, KindKeywords}
}

type searchStreamChunk struct {
	Results []struct {
		Campaign struct {
			Name string `json:"name"`
		} `json:"campaign"`
		AdGroupCriterion struct {
			Keyword struct {
				Text string `json:"text"`
			} `json:"keyword"`
		} `json:"adGroupCriterion"`
		Metrics struct {
			Clicks      int64   `json:"clicks,string"`
			Impressions int64   `json:"impressions,string"`
			CostMicros  int64   `json:"costMicros,string"`
			CTR         float64 `json:"ctr"`
			Conversions float64 `json:"conversions"`
		} `json:"metrics"`
	} `json:"results"`
}

func (p *Provider) Fetch(ctx context.Context, req core.ReportRequest) (core.ReportResult, error) {
	if strings.TrimSpace(p.DeveloperToken) == "" {
		return core.ReportResult{}, core.NotConfiguredError("google ads developer token")
	}
	customerID := sanitizeCustomerID(req.Integration.ResourceSelector(SelectorKey))
	if customerID == "" {
		return core.ReportResult{}, core.ResourceNotSelectedError(
			req.Provider,
			"choose a Google Ads account on the integration settings page first",
		)
	}

	payload, err := json.Marshal(map[string]string{"query": p.query(req)})
	if err != nil {
		return core.ReportResult{}, fmt.Errorf("ads: encode search request: %w", err)
	}

	headers := google.BearerHeaders(req.AccessToken)
	headers["Content-Type"] = "application/json"
	headers["developer-token"] = p.DeveloperToken
	if login := sanitizeCustomerID(req.Integration.ResourceSelector(LoginCustomerKey)); login != "" {
		headers["login-customer-id"] = login
	}

	res, err := p.Transport.Do(ctx, core.TransportRequest{
		Method:  "POST",
		URL:     p.endpoint() + "/" + apiVersion + "/customers/" + customerID + "/googleAds:searchStream",
		Headers: headers,
		Body:    payload,
	})
	if err != nil {
		return core.ReportResult{}, err
	}
	if err := classifyAdsResponse(req.Provider, res); err != nil {
		return core.ReportResult{}, err
	}

	var chunks []searchStreamChunk
	if err := json.Unmarshal(res.Body, &chunks); err != nil {
		return core.ReportResult{}, core.UpstreamError(req.Provider, res.StatusCode, "unparseable searchStream payload")
	}
	return shapeResult(req.Kind, chunks), nil
}

func (p *Provider) query(req core.ReportRequest) string {
	during := fmt.Sprintf("segments.date BETWEEN '%s' AND '%s'", req.Range.Start, req.Range.End)
	limit := ""
	if req.Limit > 0 {
		limit = fmt.Sprintf(" LIMIT %d", req.Limit)
	}
	if req.Kind == KindKeywords {
		return "SELECT ad_group_criterion.keyword.text, metrics.clicks, metrics.impressions, " +
			"metrics.cost_micros, metrics.ctr, metrics.conversions " +
			"FROM keyword_view WHERE " + during + limit
	}
	return "SELECT campaign.name, metrics.clicks, metrics.impressions, " +
		"metrics.cost_micros, metrics.ctr, metrics.conversions " +
		"FROM campaign WHERE " + during + limit
}

func shapeResult(kind string, chunks []searchStreamChunk) core.ReportResult {
	result := core.ReportResult{Rows: []core.ReportRow{}, Totals: map[string]float64{}}
	for _, chunk := range chunks {
		for _, entry := range chunk.Results {
			key := entry.Campaign.Name
			if kind == KindKeywords {
				key = entry.AdGroupCriterion.Keyword.Text
			}
			row := core.ReportRow{
				DimensionKey: key,
				Metrics: map[string]float64{
					"clicks":      float64(entry.Metrics.Clicks),
					"impressions": float64(entry.Metrics.Impressions),
					"cost":        core.FromMicros(entry.Metrics.CostMicros),
					"ctr":         core.RateToPercent(entry.Metrics.CTR),
					"conversions": entry.Metrics.Conversions,
				},
			}
			result.Rows = append(result.Rows, row)
			for name, value := range row.Metrics {
				if name == "ctr" {
					continue
				}
				result.Totals[name] += value
			}
		}
	}
	return result
}

// classifyAdsResponse handles the Ads-specific failure modes before handing
// off to the shared Google classifier. Manager-account detection prefers the
// structured requestError reason; matching on the message text is fragile
// (Google rewords these messages) and only used when the reason is absent.
func classifyAdsResponse(provider string, res core.TransportResponse) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}
	if reason, message, ok := adsErrorReason(res.Body); ok {
		if reason == "REQUESTED_METRICS_FOR_MANAGER" ||
			strings.Contains(strings.ToLower(message), "metrics request made to a manager account") {
			return core.ResourceNotSelectedError(
				provider,
				"the selected account is a manager account; choose a client account instead",
			)
		}
	}
	return google.ClassifyResponse(provider, res)
}

func adsErrorReason(body []byte) (string, string, bool) {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
			Details []struct {
				Errors []struct {
					ErrorCode map[string]string `json:"errorCode"`
					Message   string            `json:"message"`
				} `json:"errors"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", "", false
	}
	for _, detail := range envelope.Error.Details {
		for _, entry := range detail.Errors {
			for _, code := range entry.ErrorCode {
				return code, entry.Message, true
			}
		}
	}
	if envelope.Error.Message != "" {
		return "", envelope.Error.Message, true
	}
	return "", "", false
}

func sanitizeCustomerID(id string) string {
	return strings.ReplaceAll(strings.TrimSpace(id), "-", "")
}

func (p *Provider) endpoint() string {
	if strings.TrimSpace(p.Endpoint) != "" {
		return strings.TrimRight(strings.TrimSpace(p.Endpoint), "/")
	}
	return defaultEndpoint
}

var _ core.ReportProvider = (*Provider)(nil)
