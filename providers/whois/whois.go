// Package whois looks up domain registration data over RDAP.
package whois

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-seo-reports/core"
)

const defaultEndpoint = "https://rdap.org"

// RDAP registries can be slow; the lookup is bounded so a report page never
// hangs on it.
const requestTimeout = 10 * time.Second

const KindDomainInfo = "domain_info"

type Provider struct {
	Transport core.TransportAdapter
	Endpoint  string
}

func New(transport core.TransportAdapter) *Provider {
	return &Provider{Transport: transport, Endpoint: defaultEndpoint}
}

func (*Provider) ID() string {
	return core.ProviderWhois
}

func (*Provider) AuthKind() string {
	return core.AuthKindNone
}

func (*Provider) Kinds() []string {
	return []string{KindDomainInfo}
}

type rdapResponse struct {
	Handle string `json:"handle"`
	Events []struct {
		EventAction string `json:"eventAction"`
		EventDate   string `json:"eventDate"`
	} `json:"events"`
	Entities []struct {
		Roles      []string `json:"roles"`
		VCardArray []any    `json:"vcardArray"`
	} `json:"entities"`
	Status      []string `json:"status"`
	Nameservers []struct {
		LDHName string `json:"ldhName"`
	} `json:"nameservers"`
}

func (p *Provider) Fetch(ctx context.Context, req core.ReportRequest) (core.ReportResult, error) {
	if req.TargetDomain == "" {
		return core.ReportResult{}, core.ResourceNotSelectedError(req.Provider, "the site has no domain configured")
	}

	endpoint := p.Endpoint
	if strings.TrimSpace(endpoint) == "" {
		endpoint = defaultEndpoint
	}

	res, err := p.Transport.Do(ctx, core.TransportRequest{
		Method:  "GET",
		URL:     strings.TrimRight(endpoint, "/") + "/domain/" + req.TargetDomain,
		Headers: map[string]string{"Accept": "application/rdap+json"},
		Timeout: requestTimeout,
	})
	if err != nil {
		return core.ReportResult{}, err
	}
	if res.StatusCode == http.StatusNotFound {
		return core.ReportResult{}, core.UpstreamError(req.Provider, res.StatusCode, "domain not found in RDAP")
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return core.ReportResult{}, core.UpstreamError(req.Provider, res.StatusCode, string(res.Body))
	}

	var parsed rdapResponse
	if err := json.Unmarshal(res.Body, &parsed); err != nil {
		return core.ReportResult{}, core.UpstreamError(req.Provider, res.StatusCode, "unparseable rdap payload")
	}

	metadata := map[string]any{
		"domain":    req.TargetDomain,
		"registrar": registrarName(parsed),
		"status":    strings.Join(parsed.Status, ","),
	}
	metrics := map[string]float64{"days_to_expiry": 0}
	for _, event := range parsed.Events {
		switch event.EventAction {
		case "expiration":
			metadata["expires_at"] = event.EventDate
			if expiry, err := time.Parse(time.RFC3339, event.EventDate); err == nil {
				days := time.Until(expiry).Hours() / 24
				if days < 0 {
					days = 0
				}
				metrics["days_to_expiry"] = float64(int(days))
			}
		case "registration":
			metadata["registered_at"] = event.EventDate
		}
	}

	var nameservers []string
	for _, ns := range parsed.Nameservers {
		nameservers = append(nameservers, strings.ToLower(ns.LDHName))
	}
	metadata["nameservers"] = nameservers

	return core.ReportResult{
		Rows:     []core.ReportRow{{DimensionKey: req.TargetDomain, Metrics: metrics}},
		Totals:   metrics,
		Metadata: metadata,
	}, nil
}

// registrarName digs the registrar's display name out of the vCard entity.
// RDAP vCards are position-dependent arrays; anything unexpected yields the
// entity handle or an empty string rather than an error.
func registrarName(parsed rdapResponse) string {
	for _, entity := range parsed.Entities {
		if !hasRole(entity.Roles, "registrar") {
			continue
		}
		if len(entity.VCardArray) < 2 {
			continue
		}
		properties, ok := entity.VCardArray[1].([]any)
		if !ok {
			continue
		}
		for _, property := range properties {
			fields, ok := property.([]any)
			if !ok || len(fields) < 4 {
				continue
			}
			if name, _ := fields[0].(string); name != "fn" {
				continue
			}
			if value, ok := fields[3].(string); ok && strings.TrimSpace(value) != "" {
				return strings.TrimSpace(value)
			}
		}
	}
	return ""
}

func hasRole(roles []string, wanted string) bool {
	for _, role := range roles {
		if strings.EqualFold(role, wanted) {
			return true
		}
	}
	return false
}

var _ core.ReportProvider = (*Provider)(nil)
