package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-seo-reports/core"
	"github.com/uptrace/bun"
)

type SiteStore struct {
	db   *bun.DB
	repo repository.Repository[*siteRecord]
}

func (s *SiteStore) Create(ctx context.Context, in core.CreateSiteInput) (core.Site, error) {
	if s == nil || s.repo == nil {
		return core.Site{}, fmt.Errorf("sqlstore: site store is not configured")
	}
	if strings.TrimSpace(in.OwnerUserID) == "" {
		return core.Site{}, fmt.Errorf("sqlstore: owner user id is required")
	}
	if strings.TrimSpace(in.Domain) == "" {
		return core.Site{}, fmt.Errorf("sqlstore: site domain is required")
	}

	created, err := s.repo.Create(ctx, newSiteRecord(in, time.Now().UTC()))
	if err != nil {
		return core.Site{}, err
	}
	return created.toDomain(), nil
}

func (s *SiteStore) Get(ctx context.Context, id string) (core.Site, error) {
	if s == nil || s.repo == nil {
		return core.Site{}, fmt.Errorf("sqlstore: site store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("id", "=", strings.TrimSpace(id)),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.Site{}, err
	}
	if len(records) == 0 {
		return core.Site{}, core.ErrSiteNotFound
	}
	return records[0].toDomain(), nil
}

func (s *SiteStore) ListByOwner(ctx context.Context, ownerUserID string) ([]core.Site, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: site store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("owner_user_id", "=", strings.TrimSpace(ownerUserID)),
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return nil, err
	}
	sites := make([]core.Site, 0, len(records))
	for _, record := range records {
		sites = append(sites, record.toDomain())
	}
	return sites, nil
}
