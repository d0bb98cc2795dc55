package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type siteRecord struct {
	bun.BaseModel `bun:"table:seo_sites,alias:st"`

	ID          string    `bun:"id,pk"`
	OwnerUserID string    `bun:"owner_user_id,notnull"`
	Name        string    `bun:"name,notnull"`
	Domain      string    `bun:"domain,notnull"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// integrationRecord flattens the credential source union: source_kind is
// "owned" or "linked"; owned rows carry the encrypted token payload, linked
// rows carry the anchor provider id.
type integrationRecord struct {
	bun.BaseModel `bun:"table:seo_integrations,alias:it"`

	ID              string         `bun:"id,pk"`
	SiteID          string         `bun:"site_id,notnull"`
	Provider        string         `bun:"provider,notnull"`
	Status          string         `bun:"status,notnull"`
	ConnectedAt     *time.Time     `bun:"connected_at,nullzero"`
	SourceKind      string         `bun:"source_kind,notnull"`
	AnchorProvider  string         `bun:"anchor_provider"`
	EncryptedTokens []byte         `bun:"encrypted_tokens"`
	Config          map[string]any `bun:"config,type:jsonb,notnull"`
	LastError       string         `bun:"last_error"`
	CreatedAt       time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt       time.Time      `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type keywordRecord struct {
	bun.BaseModel `bun:"table:seo_keywords,alias:kw"`

	ID              string     `bun:"id,pk"`
	SiteID          string     `bun:"site_id,notnull"`
	Phrase          string     `bun:"phrase,notnull"`
	Position        int        `bun:"position,notnull"`
	RankAbsolute    int        `bun:"rank_absolute,notnull"`
	RankURL         string     `bun:"rank_url"`
	RankTitle       string     `bun:"rank_title"`
	RankDescription string     `bun:"rank_description"`
	RankDomain      string     `bun:"rank_domain"`
	RankFetchedAt   *time.Time `bun:"rank_fetched_at,nullzero"`
	RankError       string     `bun:"rank_error"`
	CreatedAt       time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt       time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type leadFormRecord struct {
	bun.BaseModel `bun:"table:seo_lead_forms,alias:lf"`

	ID        string    `bun:"id,pk"`
	SiteID    string    `bun:"site_id,notnull"`
	Name      string    `bun:"name,notnull"`
	Fields    []string  `bun:"fields,type:jsonb,notnull"`
	Active    bool      `bun:"active,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type leadSubmissionRecord struct {
	bun.BaseModel `bun:"table:seo_lead_submissions,alias:ls"`

	ID        string            `bun:"id,pk"`
	FormID    string            `bun:"form_id,notnull"`
	SiteID    string            `bun:"site_id,notnull"`
	Fields    map[string]string `bun:"fields,type:jsonb,notnull"`
	ClientIP  string            `bun:"client_ip"`
	CreatedAt time.Time         `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type oauthAppRecord struct {
	bun.BaseModel `bun:"table:seo_oauth_apps,alias:oa"`

	ID           string    `bun:"id,pk"`
	Provider     string    `bun:"provider,notnull,unique"`
	ClientID     string    `bun:"client_id,notnull"`
	ClientSecret string    `bun:"client_secret,notnull"`
	RedirectURI  string    `bun:"redirect_uri,notnull"`
	Scopes       []string  `bun:"scopes,type:jsonb,notnull"`
	TokenURL     string    `bun:"token_url"`
	AuthURL      string    `bun:"auth_url"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
