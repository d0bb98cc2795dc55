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

type KeywordStore struct {
	db   *bun.DB
	repo repository.Repository[*keywordRecord]
}

func (s *KeywordStore) Create(ctx context.Context, in core.CreateKeywordInput) (core.Keyword, error) {
	if s == nil || s.repo == nil {
		return core.Keyword{}, fmt.Errorf("sqlstore: keyword store is not configured")
	}
	siteID := strings.TrimSpace(in.SiteID)
	phrase := strings.TrimSpace(in.Phrase)
	if siteID == "" {
		return core.Keyword{}, fmt.Errorf("sqlstore: keyword site id is required")
	}
	if phrase == "" {
		return core.Keyword{}, fmt.Errorf("sqlstore: keyword phrase is required")
	}
	now := time.Now().UTC()

	created, err := s.repo.Create(ctx, &keywordRecord{
		SiteID:    siteID,
		Phrase:    phrase,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return core.Keyword{}, err
	}
	return created.toDomain(), nil
}

func (s *KeywordStore) ListBySite(ctx context.Context, siteID string) ([]core.Keyword, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: keyword store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("site_id", "=", strings.TrimSpace(siteID)),
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return nil, err
	}
	keywords := make([]core.Keyword, 0, len(records))
	for _, record := range records {
		keywords = append(keywords, record.toDomain())
	}
	return keywords, nil
}

func (s *KeywordStore) SaveRanking(ctx context.Context, keywordID string, ranking core.KeywordRanking) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: keyword store is not configured")
	}
	trimmedID := strings.TrimSpace(keywordID)
	if trimmedID == "" {
		return fmt.Errorf("sqlstore: keyword id is required")
	}
	fetchedAt := ranking.FetchedAt.UTC()

	result, err := s.db.NewUpdate().
		Model((*keywordRecord)(nil)).
		Set("position = ?", ranking.Position).
		Set("rank_absolute = ?", ranking.RankAbsolute).
		Set("rank_url = ?", ranking.URL).
		Set("rank_title = ?", ranking.Title).
		Set("rank_description = ?", ranking.Description).
		Set("rank_domain = ?", ranking.Domain).
		Set("rank_fetched_at = ?", fetchedAt).
		Set("rank_error = ?", ranking.Error).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", trimmedID).
		Exec(ctx)
	if err != nil {
		return err
	}
	if rows, rowsErr := result.RowsAffected(); rowsErr == nil && rows == 0 {
		return core.ErrKeywordNotFound
	}
	return nil
}

func (s *KeywordStore) Delete(ctx context.Context, keywordID string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: keyword store is not configured")
	}
	trimmedID := strings.TrimSpace(keywordID)
	if trimmedID == "" {
		return fmt.Errorf("sqlstore: keyword id is required")
	}
	result, err := s.db.NewDelete().
		Model((*keywordRecord)(nil)).
		Where("id = ?", trimmedID).
		Exec(ctx)
	if err != nil {
		return err
	}
	if rows, rowsErr := result.RowsAffected(); rowsErr == nil && rows == 0 {
		return core.ErrKeywordNotFound
	}
	return nil
}
