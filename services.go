package seoreports

import "github.com/goliatone/go-seo-reports/core"

type Config = core.Config

type CacheConfig = core.CacheConfig
type RefreshConfig = core.RefreshConfig
type RankConfig = core.RankConfig
type LeadsConfig = core.LeadsConfig

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies
type Registry = core.Registry
type ReportProvider = core.ReportProvider
type ReportCache = core.ReportCache
type TransportAdapter = core.TransportAdapter
type TokenRefresher = core.TokenRefresher
type CodeExchanger = core.CodeExchanger
type ProfileResolver = core.ProfileResolver
type AnchorResolver = core.AnchorResolver
type OAuthStateStore = core.OAuthStateStore
type SiteStore = core.SiteStore
type IntegrationStore = core.IntegrationStore
type KeywordStore = core.KeywordStore
type LeadFormStore = core.LeadFormStore
type LeadSubmissionStore = core.LeadSubmissionStore
type OAuthAppStore = core.OAuthAppStore

type Caller = core.Caller
type Site = core.Site
type Integration = core.Integration
type Keyword = core.Keyword
type LeadForm = core.LeadForm
type LeadSubmission = core.LeadSubmission
type OAuthApp = core.OAuthApp
type TokenSet = core.TokenSet

type ReportRequest = core.ReportRequest
type ReportResult = core.ReportResult
type ConnectBegin = core.ConnectBegin
type CompleteCallbackRequest = core.CompleteCallbackRequest

var (
	WithConfig              = core.WithConfig
	WithLogger              = core.WithLogger
	WithLoggerProvider      = core.WithLoggerProvider
	WithMetricsRecorder     = core.WithMetricsRecorder
	WithErrorFactory        = core.WithErrorFactory
	WithErrorMapper         = core.WithErrorMapper
	WithPersistenceClient   = core.WithPersistenceClient
	WithRepositoryFactory   = core.WithRepositoryFactory
	WithConfigProvider      = core.WithConfigProvider
	WithOptionsResolver     = core.WithOptionsResolver
	WithOAuthStateStore     = core.WithOAuthStateStore
	WithRegistry            = core.WithRegistry
	WithReportCache         = core.WithReportCache
	WithTokenRefresher      = core.WithTokenRefresher
	WithCodeExchanger       = core.WithCodeExchanger
	WithProfileResolver     = core.WithProfileResolver
	WithAnchorResolver      = core.WithAnchorResolver
	WithSiteStore           = core.WithSiteStore
	WithIntegrationStore    = core.WithIntegrationStore
	WithKeywordStore        = core.WithKeywordStore
	WithLeadFormStore       = core.WithLeadFormStore
	WithLeadSubmissionStore = core.WithLeadSubmissionStore
	WithOAuthAppStore       = core.WithOAuthAppStore
	WithNow                 = core.WithNow
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}
