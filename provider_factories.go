package seoreports

import (
	"github.com/goliatone/go-seo-reports/core"
	"github.com/goliatone/go-seo-reports/providers/bing"
	"github.com/goliatone/go-seo-reports/providers/google/ads"
	"github.com/goliatone/go-seo-reports/providers/google/analytics"
	"github.com/goliatone/go-seo-reports/providers/google/business"
	"github.com/goliatone/go-seo-reports/providers/google/searchconsole"
	"github.com/goliatone/go-seo-reports/providers/pagespeed"
	"github.com/goliatone/go-seo-reports/providers/serp"
	"github.com/goliatone/go-seo-reports/providers/siteaudit"
	"github.com/goliatone/go-seo-reports/providers/whois"
	"github.com/goliatone/go-seo-reports/providers/woocommerce"
)

func GoogleAnalyticsProvider(transport core.TransportAdapter) core.ReportProvider {
	return analytics.New(transport)
}

func GoogleSearchConsoleProvider(transport core.TransportAdapter) core.ReportProvider {
	return searchconsole.New(transport)
}

func GoogleAdsProvider(transport core.TransportAdapter, developerToken string) core.ReportProvider {
	return ads.New(transport, developerToken)
}

func GoogleBusinessProvider(transport core.TransportAdapter) core.ReportProvider {
	return business.New(transport)
}

func BingWebmasterProvider(transport core.TransportAdapter) core.ReportProvider {
	return bing.New(transport)
}

func WooCommerceProvider(transport core.TransportAdapter) core.ReportProvider {
	return woocommerce.New(transport)
}

func PageSpeedProvider(transport core.TransportAdapter, apiKey string) core.ReportProvider {
	return pagespeed.New(transport, apiKey)
}

func WhoisProvider(transport core.TransportAdapter) core.ReportProvider {
	return whois.New(transport)
}

func SiteAuditProvider(transport core.TransportAdapter) core.ReportProvider {
	return siteaudit.New(transport)
}

// SerpProvider builds the rank-tracking SERP client. It feeds rank.Tracker
// rather than the report registry.
func SerpProvider(transport core.TransportAdapter, login, password string) core.RankProvider {
	return serp.New(transport, login, password)
}

// ProviderCredentials carries the operator-supplied secrets the non-OAuth
// providers need at construction time.
type ProviderCredentials struct {
	GoogleAdsDeveloperToken string
	PageSpeedAPIKey         string
}

// RegisterBuiltinProviders registers every built-in report provider on the
// registry, all riding the same transport adapter.
func RegisterBuiltinProviders(registry core.Registry, transport core.TransportAdapter, creds ProviderCredentials) error {
	providers := []core.ReportProvider{
		GoogleAnalyticsProvider(transport),
		GoogleSearchConsoleProvider(transport),
		GoogleAdsProvider(transport, creds.GoogleAdsDeveloperToken),
		GoogleBusinessProvider(transport),
		BingWebmasterProvider(transport),
		WooCommerceProvider(transport),
		PageSpeedProvider(transport, creds.PageSpeedAPIKey),
		WhoisProvider(transport),
		SiteAuditProvider(transport),
	}
	for _, provider := range providers {
		if err := registry.Register(provider); err != nil {
			return err
		}
	}
	return nil
}
