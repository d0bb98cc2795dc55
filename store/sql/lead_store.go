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

type LeadFormStore struct {
	db   *bun.DB
	repo repository.Repository[*leadFormRecord]
}

func (s *LeadFormStore) Get(ctx context.Context, id string) (core.LeadForm, error) {
	if s == nil || s.repo == nil {
		return core.LeadForm{}, fmt.Errorf("sqlstore: lead form store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("id", "=", strings.TrimSpace(id)),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.LeadForm{}, err
	}
	if len(records) == 0 {
		return core.LeadForm{}, core.ErrLeadFormNotFound
	}
	return records[0].toDomain(), nil
}

func (s *LeadFormStore) ListBySite(ctx context.Context, siteID string) ([]core.LeadForm, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: lead form store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("site_id", "=", strings.TrimSpace(siteID)),
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return nil, err
	}
	forms := make([]core.LeadForm, 0, len(records))
	for _, record := range records {
		forms = append(forms, record.toDomain())
	}
	return forms, nil
}

type LeadSubmissionStore struct {
	db   *bun.DB
	repo repository.Repository[*leadSubmissionRecord]
}

func (s *LeadSubmissionStore) Create(ctx context.Context, in core.CreateLeadSubmissionInput) (core.LeadSubmission, error) {
	if s == nil || s.repo == nil {
		return core.LeadSubmission{}, fmt.Errorf("sqlstore: lead submission store is not configured")
	}
	formID := strings.TrimSpace(in.FormID)
	siteID := strings.TrimSpace(in.SiteID)
	if formID == "" || siteID == "" {
		return core.LeadSubmission{}, fmt.Errorf("sqlstore: submission form id and site id are required")
	}
	fields := make(map[string]string, len(in.Fields))
	for key, value := range in.Fields {
		fields[key] = value
	}

	created, err := s.repo.Create(ctx, &leadSubmissionRecord{
		FormID:    formID,
		SiteID:    siteID,
		Fields:    fields,
		ClientIP:  strings.TrimSpace(in.ClientIP),
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return core.LeadSubmission{}, err
	}
	return created.toDomain(), nil
}

func (s *LeadSubmissionStore) ListByForm(ctx context.Context, formID string, limit int) ([]core.LeadSubmission, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: lead submission store is not configured")
	}
	if limit <= 0 {
		limit = 50
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("form_id", "=", strings.TrimSpace(formID)),
		repository.OrderBy("created_at DESC"),
		repository.SelectPaginate(limit, 0),
	)
	if err != nil {
		return nil, err
	}
	submissions := make([]core.LeadSubmission, 0, len(records))
	for _, record := range records {
		submissions = append(submissions, record.toDomain())
	}
	return submissions, nil
}
