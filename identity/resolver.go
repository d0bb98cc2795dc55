// Package identity resolves the account behind a freshly issued bearer token
// so the dashboard can show which Google or Microsoft account an integration
// is connected as.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-seo-reports/core"
)

const (
	defaultRequestTimeout   = 10 * time.Second
	maxProfileResponseBytes = 1 << 20 // 1 MiB
	googleUserInfoURL       = "https://openidconnect.googleapis.com/v1/userinfo"
	microsoftUserInfoURL    = "https://graph.microsoft.com/oidc/userinfo"
)

var ErrProfileNotFound = errors.New("identity: profile not found")

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ProviderUserInfoConfig points one OAuth app family at its userinfo endpoint.
type ProviderUserInfoConfig struct {
	URL string
}

type Config struct {
	HTTPClient       HTTPDoer
	RequestTimeout   time.Duration
	ProviderUserInfo map[string]ProviderUserInfoConfig
}

type Resolver struct {
	httpClient       HTTPDoer
	requestTimeout   time.Duration
	providerUserInfo map[string]ProviderUserInfoConfig
}

func NewResolver(cfg Config) *Resolver {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}

	providerUserInfo := defaultProviderUserInfoConfigs()
	for key, value := range cfg.ProviderUserInfo {
		appKey := strings.TrimSpace(strings.ToLower(key))
		if appKey == "" {
			continue
		}
		providerUserInfo[appKey] = ProviderUserInfoConfig{URL: strings.TrimSpace(value.URL)}
	}

	return &Resolver{
		httpClient:       httpClient,
		requestTimeout:   requestTimeout,
		providerUserInfo: providerUserInfo,
	}
}

func DefaultResolver() *Resolver {
	return NewResolver(Config{})
}

// ResolveProfile fetches the userinfo document for the provider's OAuth app
// family. Providers without a known endpoint resolve to ErrProfileNotFound.
func (r *Resolver) ResolveProfile(ctx context.Context, provider string, accessToken string) (core.UserProfile, error) {
	if r == nil {
		return core.UserProfile{}, ErrProfileNotFound
	}
	if ctx == nil {
		ctx = context.Background()
	}
	endpoint, ok := r.providerUserInfo[core.OAuthAppKeyFor(provider)]
	if !ok || strings.TrimSpace(endpoint.URL) == "" {
		return core.UserProfile{}, ErrProfileNotFound
	}

	payload, err := r.fetchUserInfo(ctx, endpoint.URL, strings.TrimSpace(accessToken))
	if err != nil {
		return core.UserProfile{}, fmt.Errorf("%w: %v", ErrProfileNotFound, err)
	}

	profile := core.UserProfile{
		Subject: readString(payload["sub"]),
		Email:   readString(payload["email"]),
		Name:    readString(payload["name"]),
	}
	if profile.Subject == "" && profile.Email == "" {
		return core.UserProfile{}, ErrProfileNotFound
	}
	return profile, nil
}

func defaultProviderUserInfoConfigs() map[string]ProviderUserInfoConfig {
	return map[string]ProviderUserInfoConfig{
		"google": {URL: googleUserInfoURL},
		"bing":   {URL: microsoftUserInfoURL},
	}
}

func (r *Resolver) fetchUserInfo(ctx context.Context, endpoint string, accessToken string) (map[string]any, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("identity: access token is required")
	}
	requestCtx := ctx
	cancel := func() {}
	if r.requestTimeout > 0 {
		requestCtx, cancel = context.WithTimeout(ctx, r.requestTimeout)
	}
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	res, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	body, readErr := io.ReadAll(io.LimitReader(res.Body, maxProfileResponseBytes+1))
	if readErr != nil {
		return nil, fmt.Errorf("identity: read profile response: %w", readErr)
	}
	if int64(len(body)) > maxProfileResponseBytes {
		return nil, fmt.Errorf("identity: profile response exceeds %d bytes", maxProfileResponseBytes)
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("identity: profile endpoint returned status %d", res.StatusCode)
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("identity: decode profile response: %w", err)
	}
	return payload, nil
}

func readString(value any) string {
	typed, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(typed)
}

var _ core.ProfileResolver = (*Resolver)(nil)
