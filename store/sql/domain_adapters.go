package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/goliatone/go-seo-reports/core"
)

const (
	sourceKindOwned  = "owned"
	sourceKindLinked = "linked"
)

func newSiteRecord(in core.CreateSiteInput, now time.Time) *siteRecord {
	return &siteRecord{
		OwnerUserID: in.OwnerUserID,
		Name:        in.Name,
		Domain:      core.NormalizeDomain(in.Domain),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (r *siteRecord) toDomain() core.Site {
	if r == nil {
		return core.Site{}
	}
	return core.Site{
		ID:          r.ID,
		OwnerUserID: r.OwnerUserID,
		Name:        r.Name,
		Domain:      r.Domain,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// tokenPayload is the serialized form of a TokenSet before encryption.
type tokenPayload struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Scope        string     `json:"scope,omitempty"`
	Email        string     `json:"email,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
}

func encodeTokenSet(ctx context.Context, secrets core.SecretProvider, tokens core.TokenSet) ([]byte, error) {
	payload, err := json.Marshal(tokenPayload{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    cloneTime(tokens.ExpiresAt),
		Scope:        tokens.Scope,
		Email:        tokens.Email,
		LastError:    tokens.LastError,
	})
	if err != nil {
		return nil, fmt.Errorf("sqlstore: encode token payload: %w", err)
	}
	if secrets == nil {
		return payload, nil
	}
	return secrets.Encrypt(ctx, payload)
}

func decodeTokenSet(ctx context.Context, secrets core.SecretProvider, encrypted []byte) (core.TokenSet, error) {
	if len(encrypted) == 0 {
		return core.TokenSet{}, nil
	}
	payload := encrypted
	if secrets != nil {
		decrypted, err := secrets.Decrypt(ctx, encrypted)
		if err != nil {
			return core.TokenSet{}, err
		}
		payload = decrypted
	}
	var parsed tokenPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return core.TokenSet{}, fmt.Errorf("sqlstore: decode token payload: %w", err)
	}
	return core.TokenSet{
		AccessToken:  parsed.AccessToken,
		RefreshToken: parsed.RefreshToken,
		ExpiresAt:    cloneTime(parsed.ExpiresAt),
		Scope:        parsed.Scope,
		Email:        parsed.Email,
		LastError:    parsed.LastError,
	}, nil
}

func (r *integrationRecord) toDomain(ctx context.Context, secrets core.SecretProvider) (core.Integration, error) {
	if r == nil {
		return core.Integration{}, nil
	}
	integration := core.Integration{
		ID:          r.ID,
		SiteID:      r.SiteID,
		Provider:    r.Provider,
		Status:      core.IntegrationStatus(r.Status),
		ConnectedAt: cloneTime(r.ConnectedAt),
		Config:      copyAnyMap(r.Config),
		LastError:   r.LastError,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	switch r.SourceKind {
	case sourceKindOwned:
		tokens, err := decodeTokenSet(ctx, secrets, r.EncryptedTokens)
		if err != nil {
			return core.Integration{}, err
		}
		integration.Source = core.OwnedCredential{Tokens: tokens}
	case sourceKindLinked:
		integration.Source = core.LinkedCredential{AnchorProvider: r.AnchorProvider}
	}
	return integration, nil
}

// applySource writes a credential source onto the record's flattened columns.
func (r *integrationRecord) applySource(ctx context.Context, secrets core.SecretProvider, source core.CredentialSource) error {
	switch typed := source.(type) {
	case core.OwnedCredential:
		encrypted, err := encodeTokenSet(ctx, secrets, typed.Tokens)
		if err != nil {
			return err
		}
		r.SourceKind = sourceKindOwned
		r.AnchorProvider = ""
		r.EncryptedTokens = encrypted
	case core.LinkedCredential:
		r.SourceKind = sourceKindLinked
		r.AnchorProvider = typed.AnchorProvider
		r.EncryptedTokens = nil
	case nil:
		r.SourceKind = ""
		r.AnchorProvider = ""
		r.EncryptedTokens = nil
	default:
		return fmt.Errorf("sqlstore: unsupported credential source %T", source)
	}
	return nil
}

func (r *keywordRecord) toDomain() core.Keyword {
	if r == nil {
		return core.Keyword{}
	}
	keyword := core.Keyword{
		ID:        r.ID,
		SiteID:    r.SiteID,
		Phrase:    r.Phrase,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.RankFetchedAt != nil {
		keyword.Ranking = &core.KeywordRanking{
			Position:     r.Position,
			RankAbsolute: r.RankAbsolute,
			URL:          r.RankURL,
			Title:        r.RankTitle,
			Description:  r.RankDescription,
			Domain:       r.RankDomain,
			FetchedAt:    *r.RankFetchedAt,
			Error:        r.RankError,
		}
	}
	return keyword
}

func (r *leadFormRecord) toDomain() core.LeadForm {
	if r == nil {
		return core.LeadForm{}
	}
	return core.LeadForm{
		ID:        r.ID,
		SiteID:    r.SiteID,
		Name:      r.Name,
		Fields:    append([]string(nil), r.Fields...),
		Active:    r.Active,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (r *leadSubmissionRecord) toDomain() core.LeadSubmission {
	if r == nil {
		return core.LeadSubmission{}
	}
	fields := make(map[string]string, len(r.Fields))
	for key, value := range r.Fields {
		fields[key] = value
	}
	return core.LeadSubmission{
		ID:        r.ID,
		FormID:    r.FormID,
		SiteID:    r.SiteID,
		Fields:    fields,
		ClientIP:  r.ClientIP,
		CreatedAt: r.CreatedAt,
	}
}

func (r *oauthAppRecord) toDomain() core.OAuthApp {
	if r == nil {
		return core.OAuthApp{}
	}
	return core.OAuthApp{
		Provider:     r.Provider,
		ClientID:     r.ClientID,
		ClientSecret: r.ClientSecret,
		RedirectURI:  r.RedirectURI,
		Scopes:       append([]string(nil), r.Scopes...),
		TokenURL:     r.TokenURL,
		AuthURL:      r.AuthURL,
	}
}

func cloneTime(input *time.Time) *time.Time {
	if input == nil {
		return nil
	}
	value := input.UTC()
	return &value
}

func copyAnyMap(input map[string]any) map[string]any {
	if input == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(input))
	for key, value := range input {
		out[key] = value
	}
	return out
}
