// Package serp resolves keyword ranking positions through a DataForSEO-style
// live SERP API, feeding the rank tracking loop.
package serp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-seo-reports/auth"
	"github.com/goliatone/go-seo-reports/core"
)

const defaultEndpoint = "https://api.dataforseo.com"

type Provider struct {
	Transport core.TransportAdapter
	Endpoint  string
	Login     string
	Password  string
	// Location and Language default to US English SERPs.
	Location string
	Language string
}

func New(transport core.TransportAdapter, login, password string) *Provider {
	return &Provider{
		Transport: transport,
		Endpoint:  defaultEndpoint,
		Login:     login,
		Password:  password,
		Location:  "United States",
		Language:  "en",
	}
}

type taskRequest struct {
	Keyword      string `json:"keyword"`
	LocationName string `json:"location_name"`
	LanguageCode string `json:"language_code"`
	Depth        int    `json:"depth"`
}

type liveResponse struct {
	StatusCode int `json:"status_code"`
	Tasks      []struct {
		StatusCode int `json:"status_code"`
		Result     []struct {
			Items []struct {
				Type         string `json:"type"`
				RankGroup    int    `json:"rank_group"`
				RankAbsolute int    `json:"rank_absolute"`
				Domain       string `json:"domain"`
				URL          string `json:"url"`
				Title        string `json:"title"`
				Description  string `json:"description"`
			} `json:"items"`
		} `json:"result"`
	} `json:"tasks"`
}

// FetchRank returns the first organic result whose domain matches the query
// domain. A keyword that does not rank yields a zero position, not an error.
func (p *Provider) FetchRank(ctx context.Context, query core.RankQuery) (core.RankResult, error) {
	if strings.TrimSpace(p.Login) == "" || strings.TrimSpace(p.Password) == "" {
		return core.RankResult{}, core.NotConfiguredError("serp provider credentials")
	}
	keyword := strings.TrimSpace(query.Keyword)
	if keyword == "" {
		return core.RankResult{}, fmt.Errorf("serp: keyword is required")
	}

	payload, err := json.Marshal([]taskRequest{{
		Keyword:      keyword,
		LocationName: p.Location,
		LanguageCode: p.Language,
		Depth:        100,
	}})
	if err != nil {
		return core.RankResult{}, fmt.Errorf("serp: encode task: %w", err)
	}

	endpoint := p.Endpoint
	if strings.TrimSpace(endpoint) == "" {
		endpoint = defaultEndpoint
	}
	res, err := p.Transport.Do(ctx, core.TransportRequest{
		Method: "POST",
		URL:    strings.TrimRight(endpoint, "/") + "/v3/serp/google/organic/live/regular",
		Headers: map[string]string{
			"Authorization": auth.BasicAuthHeader(p.Login, p.Password),
			"Content-Type":  "application/json",
		},
		Body: payload,
	})
	if err != nil {
		return core.RankResult{}, err
	}
	if res.StatusCode == http.StatusTooManyRequests {
		return core.RankResult{}, core.RateLimitedError(core.ProviderSerp)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return core.RankResult{}, core.UpstreamError(core.ProviderSerp, res.StatusCode, string(res.Body))
	}

	var parsed liveResponse
	if err := json.Unmarshal(res.Body, &parsed); err != nil {
		return core.RankResult{}, core.UpstreamError(core.ProviderSerp, res.StatusCode, "unparseable serp payload")
	}
	if len(parsed.Tasks) == 0 || parsed.Tasks[0].StatusCode >= 40000 {
		return core.RankResult{}, core.UpstreamError(core.ProviderSerp, res.StatusCode, "serp task failed")
	}

	target := core.NormalizeDomain(query.Domain)
	for _, result := range parsed.Tasks[0].Result {
		for _, item := range result.Items {
			if item.Type != "organic" {
				continue
			}
			if !domainMatches(item.Domain, target) {
				continue
			}
			return core.RankResult{
				Position:     item.RankGroup,
				RankAbsolute: item.RankAbsolute,
				URL:          item.URL,
				Title:        item.Title,
				Description:  item.Description,
			}, nil
		}
	}
	return core.RankResult{}, nil
}

func domainMatches(candidate, target string) bool {
	candidate = core.NormalizeDomain(candidate)
	if candidate == "" || target == "" {
		return false
	}
	return candidate == target || strings.HasSuffix(candidate, "."+target)
}

var _ core.RankProvider = (*Provider)(nil)
