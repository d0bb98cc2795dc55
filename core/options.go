package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
)

type ErrorFactory func(message string, category ...goerrors.Category) *goerrors.Error

type ErrorMapper func(err error) *goerrors.Error

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type serviceBuilder struct {
	runtimeConfig       Config
	logger              Logger
	loggerProvider      LoggerProvider
	metricsRecorder     MetricsRecorder
	errorFactory        ErrorFactory
	errorMapper         ErrorMapper
	persistenceClient   any
	repositoryFactory   any
	configProvider      ConfigProvider
	optionsResolver     OptionsResolver
	registry            Registry
	reportCache         ReportCache
	tokenRefresher      TokenRefresher
	codeExchanger       CodeExchanger
	oauthStateStore     OAuthStateStore
	profileResolver     ProfileResolver
	anchorResolver      AnchorResolver
	siteStore           SiteStore
	integrationStore    IntegrationStore
	keywordStore        KeywordStore
	leadFormStore       LeadFormStore
	leadSubmissionStore LeadSubmissionStore
	oauthAppStore       OAuthAppStore
	nowFn               func() time.Time
}

type Option func(*serviceBuilder)

// WithConfig supplies runtime overrides that win over loaded configuration.
func WithConfig(cfg Config) Option {
	return func(b *serviceBuilder) {
		b.runtimeConfig = cfg
	}
}

func WithCodeExchanger(exchanger CodeExchanger) Option {
	return func(b *serviceBuilder) {
		b.codeExchanger = exchanger
	}
}

func WithLogger(logger Logger) Option {
	return func(b *serviceBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *serviceBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *serviceBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithErrorFactory(factory ErrorFactory) Option {
	return func(b *serviceBuilder) {
		b.errorFactory = factory
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *serviceBuilder) {
		b.errorMapper = mapper
	}
}

func WithPersistenceClient(client any) Option {
	return func(b *serviceBuilder) {
		b.persistenceClient = client
	}
}

func WithRepositoryFactory(factory any) Option {
	return func(b *serviceBuilder) {
		b.repositoryFactory = factory
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *serviceBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *serviceBuilder) {
		b.optionsResolver = resolver
	}
}

func WithRegistry(registry Registry) Option {
	return func(b *serviceBuilder) {
		b.registry = registry
	}
}

func WithReportCache(cache ReportCache) Option {
	return func(b *serviceBuilder) {
		b.reportCache = cache
	}
}

func WithProfileResolver(resolver ProfileResolver) Option {
	return func(b *serviceBuilder) {
		b.profileResolver = resolver
	}
}

func WithOAuthStateStore(store OAuthStateStore) Option {
	return func(b *serviceBuilder) {
		b.oauthStateStore = store
	}
}

func WithTokenRefresher(refresher TokenRefresher) Option {
	return func(b *serviceBuilder) {
		b.tokenRefresher = refresher
	}
}

func WithAnchorResolver(resolver AnchorResolver) Option {
	return func(b *serviceBuilder) {
		b.anchorResolver = resolver
	}
}

func WithSiteStore(store SiteStore) Option {
	return func(b *serviceBuilder) {
		b.siteStore = store
	}
}

func WithIntegrationStore(store IntegrationStore) Option {
	return func(b *serviceBuilder) {
		b.integrationStore = store
	}
}

func WithKeywordStore(store KeywordStore) Option {
	return func(b *serviceBuilder) {
		b.keywordStore = store
	}
}

func WithLeadFormStore(store LeadFormStore) Option {
	return func(b *serviceBuilder) {
		b.leadFormStore = store
	}
}

func WithLeadSubmissionStore(store LeadSubmissionStore) Option {
	return func(b *serviceBuilder) {
		b.leadSubmissionStore = store
	}
}

func WithOAuthAppStore(store OAuthAppStore) Option {
	return func(b *serviceBuilder) {
		b.oauthAppStore = store
	}
}

// WithNow overrides the service clock; tests use it to control freshness
// windows and cache expiry.
func WithNow(now func() time.Time) Option {
	return func(b *serviceBuilder) {
		b.nowFn = now
	}
}

func defaultServiceBuilder(runtime Config) serviceBuilder {
	loggerProvider, logger := glog.Resolve("seo-reports", nil, nil)
	return serviceBuilder{
		runtimeConfig:   runtime,
		loggerProvider:  loggerProvider,
		logger:          logger,
		metricsRecorder: NopMetricsRecorder{},
		errorFactory:    goerrors.New,
		errorMapper:     defaultErrorMapper,
		configProvider:  NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
		registry:        NewReportProviderRegistry(),
		nowFn:           func() time.Time { return time.Now().UTC() },
	}
}

func defaultErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	return reportsErrorMapper(err)
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}
	if includeZero || cfg.Cache.TTLSeconds > 0 {
		layer["cache"] = map[string]any{
			"ttl_seconds": cfg.Cache.TTLSeconds,
		}
	}
	if includeZero || cfg.Refresh.MarginSeconds > 0 || cfg.Refresh.FallbackTTLSeconds > 0 {
		layer["refresh"] = map[string]any{
			"margin_seconds":       cfg.Refresh.MarginSeconds,
			"fallback_ttl_seconds": cfg.Refresh.FallbackTTLSeconds,
		}
	}
	if includeZero || cfg.Rank.DelayMillis > 0 {
		layer["rank"] = map[string]any{
			"delay_millis": cfg.Rank.DelayMillis,
		}
	}
	if includeZero || cfg.Leads.WindowLimit > 0 || cfg.Leads.MinFillMillis > 0 {
		layer["leads"] = map[string]any{
			"min_fill_millis": cfg.Leads.MinFillMillis,
			"window_seconds":  cfg.Leads.WindowSeconds,
			"window_limit":    cfg.Leads.WindowLimit,
		}
	}
	return layer
}
