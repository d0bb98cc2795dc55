package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-seo-reports/core"
	"github.com/uptrace/bun"
)

// IntegrationStore persists per-site provider connections. Token payloads go
// through the secret provider before touching the database.
type IntegrationStore struct {
	db      *bun.DB
	repo    repository.Repository[*integrationRecord]
	secrets core.SecretProvider
}

func (s *IntegrationStore) Upsert(ctx context.Context, in core.UpsertIntegrationInput) (core.Integration, error) {
	if s == nil || s.repo == nil {
		return core.Integration{}, fmt.Errorf("sqlstore: integration store is not configured")
	}
	siteID := strings.TrimSpace(in.SiteID)
	provider := strings.TrimSpace(in.Provider)
	if siteID == "" || provider == "" {
		return core.Integration{}, fmt.Errorf("sqlstore: site id and provider are required")
	}
	now := time.Now().UTC()

	existing, err := s.findRecord(ctx, siteID, provider)
	if err != nil && !errors.Is(err, core.ErrIntegrationNotFound) {
		return core.Integration{}, err
	}

	if existing == nil {
		record := &integrationRecord{
			SiteID:    siteID,
			Provider:  provider,
			Status:    string(in.Status),
			Config:    copyAnyMap(in.Config),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if in.Status == core.IntegrationStatusConnected {
			record.ConnectedAt = &now
		}
		if err := record.applySource(ctx, s.secrets, in.Source); err != nil {
			return core.Integration{}, err
		}
		created, createErr := s.repo.Create(ctx, record)
		if createErr != nil {
			if IsUniqueViolation(createErr) {
				// A concurrent connect inserted the row between the lookup
				// and the insert; take the update path instead.
				return s.Upsert(ctx, in)
			}
			return core.Integration{}, createErr
		}
		return created.toDomain(ctx, s.secrets)
	}

	existing.Status = string(in.Status)
	if in.Status == core.IntegrationStatusConnected && existing.ConnectedAt == nil {
		existing.ConnectedAt = &now
	}
	if in.Status == core.IntegrationStatusConnected {
		existing.LastError = ""
	}
	if in.Config != nil {
		existing.Config = copyAnyMap(in.Config)
	}
	if in.Source != nil {
		if err := existing.applySource(ctx, s.secrets, in.Source); err != nil {
			return core.Integration{}, err
		}
	}
	existing.UpdatedAt = now

	updated, err := s.repo.Update(ctx, existing, repository.UpdateByID(existing.ID))
	if err != nil {
		return core.Integration{}, err
	}
	return updated.toDomain(ctx, s.secrets)
}

func (s *IntegrationStore) Get(ctx context.Context, id string) (core.Integration, error) {
	if s == nil || s.repo == nil {
		return core.Integration{}, fmt.Errorf("sqlstore: integration store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("id", "=", strings.TrimSpace(id)),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.Integration{}, err
	}
	if len(records) == 0 {
		return core.Integration{}, core.ErrIntegrationNotFound
	}
	return records[0].toDomain(ctx, s.secrets)
}

func (s *IntegrationStore) FindBySiteProvider(ctx context.Context, siteID string, provider string) (core.Integration, error) {
	if s == nil || s.repo == nil {
		return core.Integration{}, fmt.Errorf("sqlstore: integration store is not configured")
	}
	record, err := s.findRecord(ctx, strings.TrimSpace(siteID), strings.TrimSpace(provider))
	if err != nil {
		return core.Integration{}, err
	}
	return record.toDomain(ctx, s.secrets)
}

func (s *IntegrationStore) ListBySite(ctx context.Context, siteID string) ([]core.Integration, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: integration store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("site_id", "=", strings.TrimSpace(siteID)),
		repository.OrderBy("provider ASC"),
	)
	if err != nil {
		return nil, err
	}
	integrations := make([]core.Integration, 0, len(records))
	for _, record := range records {
		integration, convErr := record.toDomain(ctx, s.secrets)
		if convErr != nil {
			return nil, convErr
		}
		integrations = append(integrations, integration)
	}
	return integrations, nil
}

func (s *IntegrationStore) UpdateStatus(ctx context.Context, id string, status core.IntegrationStatus, reason string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: integration store is not configured")
	}
	trimmedID := strings.TrimSpace(id)
	if trimmedID == "" {
		return fmt.Errorf("sqlstore: integration id is required")
	}
	now := time.Now().UTC()

	query := s.db.NewUpdate().
		Model((*integrationRecord)(nil)).
		Set("status = ?", string(status)).
		Set("last_error = ?", strings.TrimSpace(reason)).
		Set("updated_at = ?", now).
		Where("id = ?", trimmedID)
	if status == core.IntegrationStatusConnected {
		query = query.Set("connected_at = ?", now)
	}
	result, err := query.Exec(ctx)
	if err != nil {
		return err
	}
	if rows, rowsErr := result.RowsAffected(); rowsErr == nil && rows == 0 {
		return core.ErrIntegrationNotFound
	}
	return nil
}

func (s *IntegrationStore) SaveTokens(ctx context.Context, id string, tokens core.TokenSet) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: integration store is not configured")
	}
	trimmedID := strings.TrimSpace(id)
	if trimmedID == "" {
		return fmt.Errorf("sqlstore: integration id is required")
	}
	encrypted, err := encodeTokenSet(ctx, s.secrets, tokens)
	if err != nil {
		return err
	}

	result, err := s.db.NewUpdate().
		Model((*integrationRecord)(nil)).
		Set("source_kind = ?", sourceKindOwned).
		Set("anchor_provider = ?", "").
		Set("encrypted_tokens = ?", encrypted).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", trimmedID).
		Exec(ctx)
	if err != nil {
		return err
	}
	if rows, rowsErr := result.RowsAffected(); rowsErr == nil && rows == 0 {
		return core.ErrIntegrationNotFound
	}
	return nil
}

func (s *IntegrationStore) ClearTokens(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: integration store is not configured")
	}
	trimmedID := strings.TrimSpace(id)
	if trimmedID == "" {
		return fmt.Errorf("sqlstore: integration id is required")
	}
	// The row survives a disconnect; only the payload is dropped.
	result, err := s.db.NewUpdate().
		Model((*integrationRecord)(nil)).
		Set("encrypted_tokens = NULL").
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", trimmedID).
		Exec(ctx)
	if err != nil {
		return err
	}
	if rows, rowsErr := result.RowsAffected(); rowsErr == nil && rows == 0 {
		return core.ErrIntegrationNotFound
	}
	return nil
}

func (s *IntegrationStore) SaveConfig(ctx context.Context, id string, config map[string]any) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: integration store is not configured")
	}
	trimmedID := strings.TrimSpace(id)
	if trimmedID == "" {
		return fmt.Errorf("sqlstore: integration id is required")
	}
	result, err := s.db.NewUpdate().
		Model((*integrationRecord)(nil)).
		Set("config = ?", copyAnyMap(config)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", trimmedID).
		Exec(ctx)
	if err != nil {
		return err
	}
	if rows, rowsErr := result.RowsAffected(); rowsErr == nil && rows == 0 {
		return core.ErrIntegrationNotFound
	}
	return nil
}

func (s *IntegrationStore) findRecord(ctx context.Context, siteID string, provider string) (*integrationRecord, error) {
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("site_id", "=", siteID),
		repository.SelectBy("provider", "=", provider),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, core.ErrIntegrationNotFound
	}
	return records[0], nil
}
