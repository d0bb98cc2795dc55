package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidIntegrationStatusTransition = errors.New("core: invalid integration status transition")
	ErrInvalidProviderID                  = errors.New("core: invalid provider id")
	ErrInvalidSiteDomain                  = errors.New("core: invalid site domain")
)

// Provider identifiers for the built-in upstream integrations.
const (
	ProviderGoogleAnalytics = "google_analytics"
	ProviderSearchConsole   = "google_search_console"
	ProviderGoogleAds       = "google_ads"
	ProviderBusinessProfile = "google_business_profile"
	ProviderBingWebmaster   = "bing_webmaster"
	ProviderWooCommerce     = "woocommerce"
	ProviderPageSpeed       = "pagespeed"
	ProviderWhois           = "whois"
	ProviderSiteAudit       = "site_audit"
	ProviderSerp            = "serp"
)

func KnownProviders() []string {
	return []string{
		ProviderGoogleAnalytics,
		ProviderSearchConsole,
		ProviderGoogleAds,
		ProviderBusinessProfile,
		ProviderBingWebmaster,
		ProviderWooCommerce,
		ProviderPageSpeed,
		ProviderWhois,
		ProviderSiteAudit,
		ProviderSerp,
	}
}

func NormalizeProviderID(value string) (string, error) {
	normalized := strings.TrimSpace(strings.ToLower(value))
	if normalized == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidProviderID)
	}
	return normalized, nil
}

// NormalizeDomain lower-cases a free-text domain and strips scheme, path,
// query, and trailing dots so the result is usable as a lookup key.
func NormalizeDomain(raw string) string {
	domain := strings.TrimSpace(strings.ToLower(raw))
	if domain == "" {
		return ""
	}
	if idx := strings.Index(domain, "://"); idx >= 0 {
		domain = domain[idx+3:]
	}
	if idx := strings.IndexAny(domain, "/?#"); idx >= 0 {
		domain = domain[:idx]
	}
	domain = strings.TrimSuffix(domain, ".")
	return domain
}

type Site struct {
	ID          string
	OwnerUserID string
	Name        string
	Domain      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type IntegrationStatus string

const (
	IntegrationStatusDisconnected IntegrationStatus = "disconnected"
	IntegrationStatusPending      IntegrationStatus = "pending"
	IntegrationStatusConnected    IntegrationStatus = "connected"
	IntegrationStatusError        IntegrationStatus = "error"
)

// TokenSet is the OAuth/API credential payload attached to an integration.
// Providers do not always reissue a refresh token; updates preserve the
// previous one when the response omits it.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
	Scope        string
	Email        string
	LastError    string
}

func (t TokenSet) HasAccessToken() bool {
	return strings.TrimSpace(t.AccessToken) != ""
}

func (t TokenSet) HasRefreshToken() bool {
	return strings.TrimSpace(t.RefreshToken) != ""
}

// CredentialSource distinguishes integrations that physically hold a token
// set from integrations that borrow an anchor provider's token at call time.
type CredentialSource interface {
	credentialSource()
}

// OwnedCredential marks the anchor integration that stores the token set
// shared across sibling providers under the same consent.
type OwnedCredential struct {
	Tokens TokenSet
}

func (OwnedCredential) credentialSource() {}

// LinkedCredential is a back-reference to the anchor provider whose token
// set this integration borrows.
type LinkedCredential struct {
	AnchorProvider string
}

func (LinkedCredential) credentialSource() {}

type Integration struct {
	ID          string
	SiteID      string
	Provider    string
	Status      IntegrationStatus
	ConnectedAt *time.Time
	Source      CredentialSource
	Config      map[string]any
	LastError   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Tokens returns the owned token set, or false for linked/absent sources.
func (i Integration) Tokens() (TokenSet, bool) {
	owned, ok := i.Source.(OwnedCredential)
	if !ok {
		return TokenSet{}, false
	}
	return owned.Tokens, true
}

// ResourceSelector reads a provider-specific selector (property id, customer
// id, site URL, location id) from the integration config.
func (i Integration) ResourceSelector(key string) string {
	if len(i.Config) == 0 {
		return ""
	}
	value, ok := i.Config[key]
	if !ok || value == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

func (i *Integration) TransitionTo(status IntegrationStatus, reason string, now time.Time) error {
	if i == nil {
		return nil
	}
	if i.Status == status {
		i.UpdatedAt = now
		if strings.TrimSpace(reason) != "" {
			i.LastError = strings.TrimSpace(reason)
		}
		return nil
	}
	if !integrationTransitionAllowed(i.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidIntegrationStatusTransition, i.Status, status)
	}
	i.Status = status
	i.UpdatedAt = now
	if strings.TrimSpace(reason) != "" {
		i.LastError = strings.TrimSpace(reason)
	}
	if status == IntegrationStatusConnected {
		i.LastError = ""
		connectedAt := now
		i.ConnectedAt = &connectedAt
	}
	return nil
}

func integrationTransitionAllowed(current, next IntegrationStatus) bool {
	allowed := map[IntegrationStatus]map[IntegrationStatus]struct{}{
		IntegrationStatusDisconnected: {
			IntegrationStatusPending:   {},
			IntegrationStatusConnected: {},
		},
		IntegrationStatusPending: {
			IntegrationStatusConnected:    {},
			IntegrationStatusError:        {},
			IntegrationStatusDisconnected: {},
		},
		IntegrationStatusConnected: {
			IntegrationStatusDisconnected: {},
			IntegrationStatusError:        {},
		},
		IntegrationStatusError: {
			IntegrationStatusPending:      {},
			IntegrationStatusConnected:    {},
			IntegrationStatusDisconnected: {},
		},
	}
	_, ok := allowed[current][next]
	return ok
}

type Keyword struct {
	ID        string
	SiteID    string
	Phrase    string
	Ranking   *KeywordRanking
	CreatedAt time.Time
	UpdatedAt time.Time
}

// KeywordRanking is the last-known rank-tracking result for a keyword. Only
// current state is kept; each run overwrites the previous result, and failed
// fetches persist zeroed positions with Error set so the UI never shows
// silently stale data.
type KeywordRanking struct {
	Position     int
	RankAbsolute int
	URL          string
	Title        string
	Description  string
	Domain       string
	FetchedAt    time.Time
	Error        string
}

type LeadForm struct {
	ID        string
	SiteID    string
	Name      string
	Fields    []string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type LeadSubmission struct {
	ID        string
	FormID    string
	SiteID    string
	Fields    map[string]string
	ClientIP  string
	CreatedAt time.Time
}

// OAuthApp holds the operator-level OAuth client settings for a provider.
// Missing settings are an operator problem, not a user problem, and surface
// as "not configured" rather than "reconnect".
type OAuthApp struct {
	Provider     string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	TokenURL     string
	AuthURL      string
}

func (a OAuthApp) Configured() bool {
	return strings.TrimSpace(a.ClientID) != "" && strings.TrimSpace(a.ClientSecret) != ""
}
