package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-seo-reports/core"
)

const oauthAppCacheKeyPrefix = "seo-reports::oauth_app::v1"

// CachedOAuthAppStore wraps an OAuth app store with read-through caching.
// App registrations change rarely but are read on every token refresh, so
// they are the hottest lookup in the gateway path.
type CachedOAuthAppStore struct {
	base  core.OAuthAppStore
	cache repositorycache.CacheService
}

func NewCachedOAuthAppStore(base core.OAuthAppStore, cacheService repositorycache.CacheService) (*CachedOAuthAppStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base oauth app store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: oauth app cache service is required")
	}
	return &CachedOAuthAppStore{base: base, cache: cacheService}, nil
}

// OAuthAppCacheKey returns the deterministic cache key contract for OAuth
// app reads: seo-reports::oauth_app::v1::<provider> with the provider
// segment URL-path escaped.
func OAuthAppCacheKey(provider string) (string, error) {
	trimmed := strings.TrimSpace(provider)
	if trimmed == "" {
		return "", fmt.Errorf("sqlstore: oauth app provider is required")
	}
	return strings.Join([]string{oauthAppCacheKeyPrefix, url.PathEscape(trimmed)}, "::"), nil
}

func (s *CachedOAuthAppStore) Get(ctx context.Context, provider string) (core.OAuthApp, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.OAuthApp{}, fmt.Errorf("sqlstore: cached oauth app store is not configured")
	}
	trimmed := strings.TrimSpace(provider)
	cacheKey, err := OAuthAppCacheKey(trimmed)
	if err != nil {
		return core.OAuthApp{}, err
	}

	app, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.OAuthApp, error) {
		fetched, fetchErr := s.base.Get(ctx, trimmed)
		if fetchErr != nil {
			return core.OAuthApp{}, fetchErr
		}
		return cloneOAuthApp(fetched), nil
	})
	if err != nil {
		return core.OAuthApp{}, err
	}
	return cloneOAuthApp(app), nil
}

// Invalidate drops the cached registration for a provider. Call it after an
// operator rotates client credentials.
func (s *CachedOAuthAppStore) Invalidate(ctx context.Context, provider string) error {
	if s == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached oauth app store is not configured")
	}
	cacheKey, err := OAuthAppCacheKey(provider)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}

func cloneOAuthApp(app core.OAuthApp) core.OAuthApp {
	cloned := app
	cloned.Scopes = append([]string(nil), app.Scopes...)
	return cloned
}

var _ core.OAuthAppStore = (*CachedOAuthAppStore)(nil)
