package core

import (
	"context"
	"errors"
	"strings"
	"time"
)

// TokenGateway is the single path to a usable bearer token. Every upstream
// call goes through EnsureBearer so refresh, persistence, and error
// classification happen in one place instead of per provider.
type TokenGateway struct {
	integrations IntegrationStore
	oauthApps    OAuthAppStore
	refresher    TokenRefresher
	anchors      AnchorResolver
	margin       time.Duration
	fallbackTTL  time.Duration
	logger       Logger
	metrics      MetricsRecorder
	now          func() time.Time
}

type TokenGatewayDeps struct {
	Integrations IntegrationStore
	OAuthApps    OAuthAppStore
	Refresher    TokenRefresher
	Anchors      AnchorResolver
	Margin       time.Duration
	FallbackTTL  time.Duration
	Logger       Logger
	Metrics      MetricsRecorder
	Now          func() time.Time
}

func NewTokenGateway(deps TokenGatewayDeps) *TokenGateway {
	defaults := DefaultConfig().Refresh
	if deps.Margin <= 0 {
		deps.Margin = defaults.Margin()
	}
	if deps.FallbackTTL <= 0 {
		deps.FallbackTTL = defaults.FallbackTTL()
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	if deps.Metrics == nil {
		deps.Metrics = NopMetricsRecorder{}
	}
	return &TokenGateway{
		integrations: deps.Integrations,
		oauthApps:    deps.OAuthApps,
		refresher:    deps.Refresher,
		anchors:      deps.Anchors,
		margin:       deps.Margin,
		fallbackTTL:  deps.FallbackTTL,
		logger:       deps.Logger,
		metrics:      deps.Metrics,
		now:          deps.Now,
	}
}

// EnsureBearer resolves the anchor integration for (site, provider), refreshes
// its token set when the access token is absent or inside the expiry margin,
// persists the refreshed payload, and returns a bearer ready for one upstream
// call.
func (g *TokenGateway) EnsureBearer(ctx context.Context, siteID, provider string) (BearerGrant, error) {
	if g == nil {
		return BearerGrant{}, NotConfiguredError("token gateway")
	}
	provider = strings.TrimSpace(provider)

	anchor, err := g.anchors.ResolveAnchor(ctx, siteID, provider)
	if err != nil {
		if errors.Is(err, ErrIntegrationNotFound) {
			return BearerGrant{}, NotConnectedError(provider)
		}
		return BearerGrant{}, err
	}
	if anchor.Status != IntegrationStatusConnected {
		return BearerGrant{}, NotConnectedError(provider)
	}

	tokens, ok := anchor.Tokens()
	if !ok {
		return BearerGrant{}, NotConnectedError(provider)
	}

	if tokens.HasAccessToken() && g.tokenFresh(tokens) {
		return BearerGrant{AccessToken: tokens.AccessToken, Integration: anchor}, nil
	}

	if !tokens.HasRefreshToken() {
		return BearerGrant{}, TokenMissingError(provider)
	}

	refreshed, err := g.refreshTokens(ctx, anchor, tokens)
	if err != nil {
		return BearerGrant{}, err
	}
	anchor.Source = OwnedCredential{Tokens: refreshed}
	anchor.LastError = ""
	return BearerGrant{AccessToken: refreshed.AccessToken, Integration: anchor}, nil
}

// tokenFresh reports whether the access token outlives the refresh margin. A
// missing expiry is treated as expired so unknown tokens always refresh.
func (g *TokenGateway) tokenFresh(tokens TokenSet) bool {
	if tokens.ExpiresAt == nil {
		return false
	}
	return g.now().Add(g.margin).Before(*tokens.ExpiresAt)
}

func (g *TokenGateway) refreshTokens(ctx context.Context, anchor Integration, current TokenSet) (TokenSet, error) {
	app, err := g.oauthApps.Get(ctx, OAuthAppKeyFor(anchor.Provider))
	if err != nil {
		if errors.Is(err, ErrOAuthAppNotFound) {
			return TokenSet{}, NotConfiguredError("oauth client for provider " + anchor.Provider)
		}
		return TokenSet{}, err
	}
	if !app.Configured() {
		return TokenSet{}, NotConfiguredError("oauth client for provider " + anchor.Provider)
	}

	payload, err := g.refresher.RefreshToken(ctx, app, current.RefreshToken)
	if err != nil {
		g.recordRefreshFailure(ctx, anchor, err)
		return TokenSet{}, RefreshFailedError(anchor.Provider, err)
	}

	next := TokenSet{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		Scope:        payload.Scope,
		Email:        current.Email,
	}
	// Providers routinely omit the refresh token on renewal; dropping it here
	// would force a full reconnect on the next refresh.
	if !next.HasRefreshToken() {
		next.RefreshToken = current.RefreshToken
	}
	if strings.TrimSpace(next.Scope) == "" {
		next.Scope = current.Scope
	}
	ttl := g.fallbackTTL
	if payload.ExpiresIn > 0 {
		ttl = time.Duration(payload.ExpiresIn) * time.Second
	}
	expiresAt := g.now().Add(ttl)
	next.ExpiresAt = &expiresAt

	if err := g.integrations.SaveTokens(ctx, anchor.ID, next); err != nil {
		return TokenSet{}, err
	}
	g.metrics.IncCounter(ctx, "reports.token.refresh", 1, cloneTags(map[string]string{
		"provider": anchor.Provider,
	}))
	if g.logger != nil {
		g.logger.Debug("token refreshed",
			"provider", anchor.Provider,
			"site_id", anchor.SiteID,
			"integration_id", anchor.ID,
		)
	}
	return next, nil
}

func (g *TokenGateway) recordRefreshFailure(ctx context.Context, anchor Integration, cause error) {
	reason := truncateDetail(cause.Error())
	if err := g.integrations.UpdateStatus(ctx, anchor.ID, IntegrationStatusError, reason); err != nil && g.logger != nil {
		g.logger.Warn("failed to persist refresh error",
			"provider", anchor.Provider,
			"integration_id", anchor.ID,
			"error", err,
		)
	}
	g.metrics.IncCounter(ctx, "reports.token.refresh_failed", 1, cloneTags(map[string]string{
		"provider": anchor.Provider,
	}))
	if g.logger != nil {
		g.logger.Warn("token refresh failed",
			"provider", anchor.Provider,
			"site_id", anchor.SiteID,
			"integration_id", anchor.ID,
			"error", reason,
		)
	}
}

// OAuthAppKeyFor collapses sibling providers onto the OAuth client they share.
// All Google surfaces ride one consent, so one app row serves them all.
func OAuthAppKeyFor(provider string) string {
	switch strings.TrimSpace(provider) {
	case ProviderGoogleAnalytics, ProviderSearchConsole, ProviderGoogleAds, ProviderBusinessProfile:
		return "google"
	case ProviderBingWebmaster:
		return "bing"
	default:
		return strings.TrimSpace(provider)
	}
}
