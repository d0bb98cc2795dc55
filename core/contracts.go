package core

import (
	"context"
	"errors"
	"net/http"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

var (
	ErrSiteNotFound        = errors.New("core: site not found")
	ErrIntegrationNotFound = errors.New("core: integration not found")
	ErrKeywordNotFound     = errors.New("core: keyword not found")
	ErrLeadFormNotFound    = errors.New("core: lead form not found")
	ErrOAuthAppNotFound    = errors.New("core: oauth app not found")
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Caller identifies the authenticated user on whose behalf a request runs.
type Caller struct {
	UserID string
	Admin  bool
}

type DateRange struct {
	Start string
	End   string
}

// ReportRequest describes one internal report request. Credential and
// Integration are resolved by the service before the provider fetch runs;
// providers never load credentials themselves.
type ReportRequest struct {
	SiteID       string
	Provider     string
	Kind         string
	Range        DateRange
	Dimension    string
	Limit        int
	OrderBy      string
	Params       map[string]string
	AccessToken  string
	Integration  Integration
	TargetDomain string
}

// ReportRow is the normalized row shape consumed by the UI. Missing metric
// values default to 0, never null, so downstream deltas and sums stay finite.
type ReportRow struct {
	DimensionKey string
	Metrics      map[string]float64
}

type ReportResult struct {
	Rows        []ReportRow
	Totals      map[string]float64
	RateLimited bool
	Metadata    map[string]any
}

type ReportProvider interface {
	ID() string
	AuthKind() string
	Kinds() []string
	Fetch(ctx context.Context, req ReportRequest) (ReportResult, error)
}

type Registry interface {
	Register(provider ReportProvider) error
	Get(providerID string) (ReportProvider, bool)
	List() []ReportProvider
}

// TokenPayload is the parsed provider token-endpoint response.
type TokenPayload struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Scope        string
	ExpiresIn    int64
}

// TokenRefresher exchanges a refresh token at the provider's token endpoint.
type TokenRefresher interface {
	RefreshToken(ctx context.Context, app OAuthApp, refreshToken string) (TokenPayload, error)
}

// CodeExchanger trades an authorization code for the initial token payload
// during the OAuth callback.
type CodeExchanger interface {
	ExchangeCode(ctx context.Context, app OAuthApp, code string) (TokenPayload, error)
}

// UserProfile is the subset of the provider userinfo payload the dashboard
// shows next to a connected integration.
type UserProfile struct {
	Subject string
	Email   string
	Name    string
}

// ProfileResolver fetches the account identity behind a bearer token.
// Resolution is best effort; a failed lookup never fails the connect flow.
type ProfileResolver interface {
	ResolveProfile(ctx context.Context, provider string, accessToken string) (UserProfile, error)
}

/// BearerGrant is the token gateway output: a bearer usable for one upstream
// call plus the integration row so callers can read sibling config fields
// without a second fetch.
type BearerGrant struct {
	AccessToken string
	Integration Integration
}

// AnchorResolver maps a (site, provider) pair to the integration that
// physically stores the token set, following LinkedCredential references.
type AnchorResolver interface {
	ResolveAnchor(ctx context.Context, siteID string, provider string) (Integration, error)
}

type RankQuery struct {
	Keyword string
	Domain  string
}

type RankResult struct {
	Position     int
	RankAbsolute int
	URL          string
	Title        string
	Description  string
}

type RankProvider interface {
	FetchRank(ctx context.Context, query RankQuery) (RankResult, error)
}

type TransportRequest struct {
	Method               string
	URL                  string
	Headers              map[string]string
	Query                map[string]string
	Body                 []byte
	Metadata             map[string]any
	Timeout              time.Duration
	MaxResponseBodyBytes int64
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

type CreateSiteInput struct {
	OwnerUserID string
	Name        string
	Domain      string
}

type SiteStore interface {
	Create(ctx context.Context, in CreateSiteInput) (Site, error)
	Get(ctx context.Context, id string) (Site, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]Site, error)
}

type UpsertIntegrationInput struct {
	SiteID   string
	Provider string
	Status   IntegrationStatus
	Source   CredentialSource
	Config   map[string]any
}

type IntegrationStore interface {
	Upsert(ctx context.Context, in UpsertIntegrationInput) (Integration, error)
	Get(ctx context.Context, id string) (Integration, error)
	FindBySiteProvider(ctx context.Context, siteID string, provider string) (Integration, error)
	ListBySite(ctx context.Context, siteID string) ([]Integration, error)
	UpdateStatus(ctx context.Context, id string, status IntegrationStatus, reason string) error
	SaveTokens(ctx context.Context, id string, tokens TokenSet) error
	ClearTokens(ctx context.Context, id string) error
	SaveConfig(ctx context.Context, id string, config map[string]any) error
}

type CreateKeywordInput struct {
	SiteID string
	Phrase string
}

type KeywordStore interface {
	Create(ctx context.Context, in CreateKeywordInput) (Keyword, error)
	ListBySite(ctx context.Context, siteID string) ([]Keyword, error)
	SaveRanking(ctx context.Context, keywordID string, ranking KeywordRanking) error
	Delete(ctx context.Context, keywordID string) error
}

type LeadFormStore interface {
	Get(ctx context.Context, id string) (LeadForm, error)
	ListBySite(ctx context.Context, siteID string) ([]LeadForm, error)
}

type CreateLeadSubmissionInput struct {
	FormID   string
	SiteID   string
	Fields   map[string]string
	ClientIP string
}

type LeadSubmissionStore interface {
	Create(ctx context.Context, in CreateLeadSubmissionInput) (LeadSubmission, error)
	ListByForm(ctx context.Context, formID string, limit int) ([]LeadSubmission, error)
}

type OAuthAppStore interface {
	Get(ctx context.Context, provider string) (OAuthApp, error)
}

type SecretProvider interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

type StoreProvider interface {
	SiteStore() SiteStore
	IntegrationStore() IntegrationStore
	KeywordStore() KeywordStore
	LeadFormStore() LeadFormStore
	LeadSubmissionStore() LeadSubmissionStore
	OAuthAppStore() OAuthAppStore
}

type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (StoreProvider, error)
}

type JobExecutionMessage struct {
	JobID          string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}

type JobWorkerEvent struct {
	Message   *JobExecutionMessage
	Attempt   int
	Delay     time.Duration
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

// JobWorkerHook observes worker lifecycle events for scheduled report and
// rank-tracking jobs.
type JobWorkerHook interface {
	OnStart(ctx context.Context, event JobWorkerEvent)
	OnSuccess(ctx context.Context, event JobWorkerEvent)
	OnFailure(ctx context.Context, event JobWorkerEvent)
	OnRetry(ctx context.Context, event JobWorkerEvent)
}

type InboundRequest struct {
	Surface  string
	SiteID   string
	FormID   string
	ClientIP string
	Headers  map[string]string
	Fields   map[string]string
	Metadata map[string]any
}

type InboundResult struct {
	Accepted   bool
	StatusCode int
	Metadata   map[string]any
}

type InboundHandler interface {
	Surface() string
	Handle(ctx context.Context, req InboundRequest) (InboundResult, error)
}
