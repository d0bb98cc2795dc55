package sqlstore

import (
	"context"
	"fmt"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-seo-reports/core"
	"github.com/uptrace/bun"
)

// OAuthAppStore reads the per-provider OAuth client registrations. Rows are
// seeded by operators, so the store only exposes lookups.
type OAuthAppStore struct {
	db   *bun.DB
	repo repository.Repository[*oauthAppRecord]
}

func (s *OAuthAppStore) Get(ctx context.Context, provider string) (core.OAuthApp, error) {
	if s == nil || s.repo == nil {
		return core.OAuthApp{}, fmt.Errorf("sqlstore: oauth app store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("provider", "=", strings.TrimSpace(provider)),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.OAuthApp{}, err
	}
	if len(records) == 0 {
		return core.OAuthApp{}, core.ErrOAuthAppNotFound
	}
	return records[0].toDomain(), nil
}
