package core

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

var ErrProviderNotRegistered = errors.New("core: provider not registered")

// Auth kinds a report provider can declare. The service resolves credentials
// before Fetch according to this kind; providers never touch stores.
const (
	AuthKindOAuth  = "oauth"
	AuthKindAPIKey = "api_key"
	AuthKindBasic  = "basic"
	AuthKindNone   = "none"
)

type Service struct {
	config              Config
	logger              Logger
	loggerProvider      LoggerProvider
	metricsRecorder     MetricsRecorder
	errorFactory        ErrorFactory
	errorMapper         ErrorMapper
	persistenceClient   any
	repositoryFactory   any
	configProvider      ConfigProvider
	optionsResolver     OptionsResolver
	oauthStateStore     OAuthStateStore
	profileResolver     ProfileResolver
	registry            Registry
	reportCache         ReportCache
	gateway             *TokenGateway
	tokenRefresher      TokenRefresher
	codeExchanger       CodeExchanger
	anchorResolver      AnchorResolver
	siteStore           SiteStore
	integrationStore    IntegrationStore
	keywordStore        KeywordStore
	leadFormStore       LeadFormStore
	leadSubmissionStore LeadSubmissionStore
	oauthAppStore       OAuthAppStore
	now                 func() time.Time
}

// ServiceDependencies exposes the resolved wiring so adapters and the facade
// can reuse the same stores and collaborators the service runs on.
type ServiceDependencies struct {
	Logger              Logger
	LoggerProvider      LoggerProvider
	MetricsRecorder     MetricsRecorder
	ErrorFactory        ErrorFactory
	ErrorMapper         ErrorMapper
	PersistenceClient   any
	RepositoryFactory   any
	ConfigProvider      ConfigProvider
	OptionsResolver     OptionsResolver
	OAuthStateStore     OAuthStateStore
	ProfileResolver     ProfileResolver
	Registry            Registry
	ReportCache         ReportCache
	TokenGateway        *TokenGateway
	TokenRefresher      TokenRefresher
	CodeExchanger       CodeExchanger
	AnchorResolver      AnchorResolver
	SiteStore           SiteStore
	IntegrationStore    IntegrationStore
	KeywordStore        KeywordStore
	LeadFormStore       LeadFormStore
	LeadSubmissionStore LeadSubmissionStore
	OAuthAppStore       OAuthAppStore
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("seo-reports", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("seo-reports"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.registry == nil {
		builder.registry = NewReportProviderRegistry()
	}
	if builder.oauthStateStore == nil {
		builder.oauthStateStore = NewMemoryOAuthStateStore(defaultOAuthStateTTL)
	}
	if builder.nowFn == nil {
		builder.nowFn = func() time.Time { return time.Now().UTC() }
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if builder.repositoryFactory != nil && missingStores(&builder) {
		if storeFactory, ok := builder.repositoryFactory.(RepositoryStoreFactory); ok {
			storeProvider, buildErr := storeFactory.BuildStores(builder.persistenceClient)
			if buildErr != nil {
				return nil, mapBuildError(builder.errorMapper, buildErr)
			}
			adoptStores(&builder, storeProvider)
		} else if storeProvider, ok := builder.repositoryFactory.(StoreProvider); ok {
			adoptStores(&builder, storeProvider)
		}
	}

	if builder.reportCache == nil {
		builder.reportCache = NewMemoryReportCache(finalConfig.Cache.TTL(), builder.nowFn)
	}
	if builder.anchorResolver == nil {
		builder.anchorResolver = storeAnchorResolver{store: builder.integrationStore}
	}

	gateway := NewTokenGateway(TokenGatewayDeps{
		Integrations: builder.integrationStore,
		OAuthApps:    builder.oauthAppStore,
		Refresher:    builder.tokenRefresher,
		Anchors:      builder.anchorResolver,
		Margin:       finalConfig.Refresh.Margin(),
		FallbackTTL:  finalConfig.Refresh.FallbackTTL(),
		Logger:       logger,
		Metrics:      builder.metricsRecorder,
		Now:          builder.nowFn,
	})

	return &Service{
		config:              finalConfig,
		logger:              logger,
		loggerProvider:      provider,
		metricsRecorder:     builder.metricsRecorder,
		errorFactory:        builder.errorFactory,
		errorMapper:         builder.errorMapper,
		persistenceClient:   builder.persistenceClient,
		repositoryFactory:   builder.repositoryFactory,
		configProvider:      builder.configProvider,
		optionsResolver:     builder.optionsResolver,
		oauthStateStore:     builder.oauthStateStore,
		profileResolver:     builder.profileResolver,
		registry:            builder.registry,
		reportCache:         builder.reportCache,
		gateway:             gateway,
		tokenRefresher:      builder.tokenRefresher,
		codeExchanger:       builder.codeExchanger,
		anchorResolver:      builder.anchorResolver,
		siteStore:           builder.siteStore,
		integrationStore:    builder.integrationStore,
		keywordStore:        builder.keywordStore,
		leadFormStore:       builder.leadFormStore,
		leadSubmissionStore: builder.leadSubmissionStore,
		oauthAppStore:       builder.oauthAppStore,
		now:                 builder.nowFn,
	}, nil
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return NewService(cfg, opts...)
}

func missingStores(builder *serviceBuilder) bool {
	return builder.siteStore == nil ||
		builder.integrationStore == nil ||
		builder.keywordStore == nil ||
		builder.leadFormStore == nil ||
		builder.leadSubmissionStore == nil ||
		builder.oauthAppStore == nil
}

func adoptStores(builder *serviceBuilder, provider StoreProvider) {
	if provider == nil {
		return
	}
	if builder.siteStore == nil {
		builder.siteStore = provider.SiteStore()
	}
	if builder.integrationStore == nil {
		builder.integrationStore = provider.IntegrationStore()
	}
	if builder.keywordStore == nil {
		builder.keywordStore = provider.KeywordStore()
	}
	if builder.leadFormStore == nil {
		builder.leadFormStore = provider.LeadFormStore()
	}
	if builder.leadSubmissionStore == nil {
		builder.leadSubmissionStore = provider.LeadSubmissionStore()
	}
	if builder.oauthAppStore == nil {
		builder.oauthAppStore = provider.OAuthAppStore()
	}
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:              s.logger,
		LoggerProvider:      s.loggerProvider,
		MetricsRecorder:     s.metricsRecorder,
		ErrorFactory:        s.errorFactory,
		ErrorMapper:         s.errorMapper,
		PersistenceClient:   s.persistenceClient,
		RepositoryFactory:   s.repositoryFactory,
		ConfigProvider:      s.configProvider,
		OptionsResolver:     s.optionsResolver,
		OAuthStateStore:     s.oauthStateStore,
		ProfileResolver:     s.profileResolver,
		Registry:            s.registry,
		ReportCache:         s.reportCache,
		TokenGateway:        s.gateway,
		TokenRefresher:      s.tokenRefresher,
		CodeExchanger:       s.codeExchanger,
		AnchorResolver:      s.anchorResolver,
		SiteStore:           s.siteStore,
		IntegrationStore:    s.integrationStore,
		KeywordStore:        s.keywordStore,
		LeadFormStore:       s.leadFormStore,
		LeadSubmissionStore: s.leadSubmissionStore,
		OAuthAppStore:       s.oauthAppStore,
	}
}

// AuthorizeSiteAccess loads the site and enforces ownership. Every
// user-facing operation funnels through this check.
func (s *Service) AuthorizeSiteAccess(ctx context.Context, caller Caller, siteID string) (Site, error) {
	if strings.TrimSpace(caller.UserID) == "" {
		return Site{}, UnauthorizedError()
	}
	if s.siteStore == nil {
		return Site{}, s.mapError(fmt.Errorf("core: site store unavailable"))
	}
	site, err := s.siteStore.Get(ctx, strings.TrimSpace(siteID))
	if err != nil {
		if errors.Is(err, ErrSiteNotFound) {
			return Site{}, newReportsError("site not found", goerrors.CategoryNotFound, ReportsErrorSiteNotFound)
		}
		return Site{}, s.mapError(err)
	}
	if !caller.Admin && site.OwnerUserID != caller.UserID {
		return Site{}, ForbiddenError("site belongs to another account")
	}
	return site, nil
}

func (s *Service) CreateSite(ctx context.Context, caller Caller, name, domain string) (site Site, err error) {
	startedAt := s.now()
	fields := map[string]any{"domain": NormalizeDomain(domain)}
	defer func() {
		s.observeOperation(ctx, startedAt, "create_site", err, fields)
	}()

	if strings.TrimSpace(caller.UserID) == "" {
		return Site{}, UnauthorizedError()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		err = newReportsError("site name is required", goerrors.CategoryBadInput, ReportsErrorBadInput)
		return Site{}, err
	}
	normalized := NormalizeDomain(domain)
	if normalized == "" {
		err = newReportsError("site domain is required", goerrors.CategoryBadInput, ReportsErrorBadInput)
		return Site{}, err
	}
	site, err = s.siteStore.Create(ctx, CreateSiteInput{
		OwnerUserID: caller.UserID,
		Name:        name,
		Domain:      normalized,
	})
	if err != nil {
		err = s.mapError(err)
		return Site{}, err
	}
	fields["site_id"] = site.ID
	return site, nil
}

func (s *Service) GetSite(ctx context.Context, caller Caller, siteID string) (Site, error) {
	return s.AuthorizeSiteAccess(ctx, caller, siteID)
}

func (s *Service) ListSites(ctx context.Context, caller Caller) ([]Site, error) {
	if strings.TrimSpace(caller.UserID) == "" {
		return nil, UnauthorizedError()
	}
	sites, err := s.siteStore.ListByOwner(ctx, caller.UserID)
	if err != nil {
		return nil, s.mapError(err)
	}
	return sites, nil
}

// ConnectBegin is the first half of the OAuth dance: the URL to redirect the
// user to plus the state the callback must echo back.
type ConnectBegin struct {
	AuthorizeURL string
	State        string
}

func (s *Service) Connect(ctx context.Context, caller Caller, siteID, providerID string) (begin ConnectBegin, err error) {
	startedAt := s.now()
	fields := map[string]any{"provider": providerID, "site_id": siteID}
	defer func() {
		s.observeOperation(ctx, startedAt, "connect", err, fields)
	}()

	if _, err = s.AuthorizeSiteAccess(ctx, caller, siteID); err != nil {
		return ConnectBegin{}, err
	}
	providerID, err = NormalizeProviderID(providerID)
	if err != nil {
		err = s.mapError(err)
		return ConnectBegin{}, err
	}
	provider, err := s.resolveProvider(providerID)
	if err != nil {
		return ConnectBegin{}, err
	}
	if provider.AuthKind() != AuthKindOAuth {
		err = newReportsError(
			"provider "+providerID+" does not use OAuth; configure it from site settings",
			goerrors.CategoryBadInput, ReportsErrorBadInput,
		)
		return ConnectBegin{}, err
	}

	app, err := s.oauthApp(ctx, providerID)
	if err != nil {
		return ConnectBegin{}, err
	}

	state, err := generateOAuthState()
	if err != nil {
		err = s.mapError(err)
		return ConnectBegin{}, err
	}

	if _, err = s.integrationStore.Upsert(ctx, UpsertIntegrationInput{
		SiteID:   siteID,
		Provider: providerID,
		Status:   IntegrationStatusPending,
	}); err != nil {
		err = s.mapError(err)
		return ConnectBegin{}, err
	}

	if err = s.oauthStateStore.Save(ctx, OAuthStateRecord{
		State:       state,
		SiteID:      siteID,
		Provider:    providerID,
		RedirectURI: app.RedirectURI,
		CreatedAt:   s.now(),
	}); err != nil {
		err = s.mapError(err)
		return ConnectBegin{}, err
	}

	return ConnectBegin{
		AuthorizeURL: buildAuthorizeURL(app, state),
		State:        state,
	}, nil
}

// CompleteCallbackRequest carries the OAuth redirect parameters back into the
// service. ErrorCode is the provider's error query parameter, set when the
// user denied consent.
type CompleteCallbackRequest struct {
	State     string
	Code      string
	ErrorCode string
}

func (s *Service) CompleteCallback(ctx context.Context, req CompleteCallbackRequest) (integration Integration, err error) {
	startedAt := s.now()
	fields := map[string]any{}
	defer func() {
		s.observeOperation(ctx, startedAt, "complete_callback", err, fields)
	}()

	record, stateErr := s.oauthStateStore.Consume(ctx, req.State)
	if stateErr != nil {
		err = newReportsError("oauth state is invalid or expired", goerrors.CategoryBadInput, ReportsErrorBadInput)
		return Integration{}, err
	}
	fields["provider"] = record.Provider
	fields["site_id"] = record.SiteID

	if strings.TrimSpace(req.ErrorCode) != "" {
		existing, findErr := s.integrationStore.FindBySiteProvider(ctx, record.SiteID, record.Provider)
		if findErr == nil {
			_ = s.integrationStore.UpdateStatus(ctx, existing.ID, IntegrationStatusError, "consent denied: "+strings.TrimSpace(req.ErrorCode))
		}
		err = newReportsError(
			"provider consent was denied: "+strings.TrimSpace(req.ErrorCode),
			goerrors.CategoryBadInput, ReportsErrorBadInput,
		)
		return Integration{}, err
	}
	if strings.TrimSpace(req.Code) == "" {
		err = newReportsError("authorization code is required", goerrors.CategoryBadInput, ReportsErrorBadInput)
		return Integration{}, err
	}

	app, err := s.oauthApp(ctx, record.Provider)
	if err != nil {
		return Integration{}, err
	}
	if s.codeExchanger == nil {
		err = NotConfiguredError("oauth code exchanger")
		return Integration{}, err
	}

	payload, exchangeErr := s.codeExchanger.ExchangeCode(ctx, app, req.Code)
	if exchangeErr != nil {
		existing, findErr := s.integrationStore.FindBySiteProvider(ctx, record.SiteID, record.Provider)
		if findErr == nil {
			_ = s.integrationStore.UpdateStatus(ctx, existing.ID, IntegrationStatusError, truncateDetail(exchangeErr.Error()))
		}
		err = UpstreamError(record.Provider, 0, "oauth code exchange failed: "+exchangeErr.Error())
		return Integration{}, err
	}

	tokens := s.tokenSetFromPayload(payload)
	if s.profileResolver != nil {
		profile, profileErr := s.profileResolver.ResolveProfile(ctx, record.Provider, tokens.AccessToken)
		if profileErr != nil {
			s.logWithLevel(ctx, "info", "profile lookup skipped", map[string]any{
				"provider": record.Provider,
				"site_id":  record.SiteID,
				"error":    profileErr.Error(),
			})
		} else {
			tokens.Email = profile.Email
		}
	}
	integration, err = s.persistCallbackTokens(ctx, record.SiteID, record.Provider, tokens)
	if err != nil {
		return Integration{}, err
	}
	fields["integration_id"] = integration.ID

	if s.reportCache != nil {
		s.reportCache.InvalidateSite(record.SiteID)
	}
	return integration, nil
}

func (s *Service) tokenSetFromPayload(payload TokenPayload) TokenSet {
	tokens := TokenSet{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		Scope:        payload.Scope,
	}
	ttl := s.config.Refresh.FallbackTTL()
	if payload.ExpiresIn > 0 {
		ttl = time.Duration(payload.ExpiresIn) * time.Second
	}
	expiresAt := s.now().Add(ttl)
	tokens.ExpiresAt = &expiresAt
	return tokens
}

// persistCallbackTokens stores the fresh token set. Sibling providers sharing
// one consent collapse onto an anchor: the first sibling owns the tokens and
// later siblings link to it.
func (s *Service) persistCallbackTokens(ctx context.Context, siteID, providerID string, tokens TokenSet) (Integration, error) {
	anchor, found, err := s.findSiblingAnchor(ctx, siteID, providerID)
	if err != nil {
		return Integration{}, s.mapError(err)
	}
	if found {
		if err := s.integrationStore.SaveTokens(ctx, anchor.ID, tokens); err != nil {
			return Integration{}, s.mapError(err)
		}
		integration, err := s.integrationStore.Upsert(ctx, UpsertIntegrationInput{
			SiteID:   siteID,
			Provider: providerID,
			Status:   IntegrationStatusConnected,
			Source:   LinkedCredential{AnchorProvider: anchor.Provider},
		})
		if err != nil {
			return Integration{}, s.mapError(err)
		}
		return integration, nil
	}
	integration, err := s.integrationStore.Upsert(ctx, UpsertIntegrationInput{
		SiteID:   siteID,
		Provider: providerID,
		Status:   IntegrationStatusConnected,
		Source:   OwnedCredential{Tokens: tokens},
	})
	if err != nil {
		return Integration{}, s.mapError(err)
	}
	return integration, nil
}

// findSiblingAnchor looks for an already-connected integration that shares the
// same OAuth client and owns a token set.
func (s *Service) findSiblingAnchor(ctx context.Context, siteID, providerID string) (Integration, bool, error) {
	appKey := OAuthAppKeyFor(providerID)
	integrations, err := s.integrationStore.ListBySite(ctx, siteID)
	if err != nil {
		return Integration{}, false, err
	}
	for _, candidate := range integrations {
		if candidate.Provider == providerID {
			continue
		}
		if OAuthAppKeyFor(candidate.Provider) != appKey {
			continue
		}
		if candidate.Status != IntegrationStatusConnected {
			continue
		}
		if _, owned := candidate.Tokens(); !owned {
			continue
		}
		return candidate, true, nil
	}
	return Integration{}, false, nil
}

func (s *Service) Disconnect(ctx context.Context, caller Caller, siteID, providerID string) (err error) {
	startedAt := s.now()
	fields := map[string]any{"provider": providerID, "site_id": siteID}
	defer func() {
		s.observeOperation(ctx, startedAt, "disconnect", err, fields)
	}()

	if _, err = s.AuthorizeSiteAccess(ctx, caller, siteID); err != nil {
		return err
	}
	providerID, err = NormalizeProviderID(providerID)
	if err != nil {
		return s.mapError(err)
	}
	integration, findErr := s.integrationStore.FindBySiteProvider(ctx, siteID, providerID)
	if findErr != nil {
		if errors.Is(findErr, ErrIntegrationNotFound) {
			err = NotConnectedError(providerID)
			return err
		}
		err = s.mapError(findErr)
		return err
	}
	fields["integration_id"] = integration.ID

	if err = s.integrationStore.ClearTokens(ctx, integration.ID); err != nil {
		err = s.mapError(err)
		return err
	}
	if err = s.integrationStore.UpdateStatus(ctx, integration.ID, IntegrationStatusDisconnected, ""); err != nil {
		err = s.mapError(err)
		return err
	}
	if s.reportCache != nil {
		s.reportCache.InvalidateSite(siteID)
	}
	return nil
}

// SelectResource records the provider-specific resource choice (GA4 property,
// Ads customer id, Search Console site URL, Business Profile location).
func (s *Service) SelectResource(ctx context.Context, caller Caller, siteID, providerID, key, value string) (err error) {
	startedAt := s.now()
	fields := map[string]any{"provider": providerID, "site_id": siteID}
	defer func() {
		s.observeOperation(ctx, startedAt, "select_resource", err, fields)
	}()

	if _, err = s.AuthorizeSiteAccess(ctx, caller, siteID); err != nil {
		return err
	}
	providerID, err = NormalizeProviderID(providerID)
	if err != nil {
		return s.mapError(err)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		err = newReportsError("resource key is required", goerrors.CategoryBadInput, ReportsErrorBadInput)
		return err
	}
	integration, findErr := s.integrationStore.FindBySiteProvider(ctx, siteID, providerID)
	if findErr != nil {
		if errors.Is(findErr, ErrIntegrationNotFound) {
			err = NotConnectedError(providerID)
			return err
		}
		err = s.mapError(findErr)
		return err
	}
	fields["integration_id"] = integration.ID

	config := copyAnyMap(integration.Config)
	config[key] = strings.TrimSpace(value)
	if err = s.integrationStore.SaveConfig(ctx, integration.ID, config); err != nil {
		err = s.mapError(err)
		return err
	}
	if s.reportCache != nil {
		s.reportCache.InvalidateSite(siteID)
	}
	return nil
}

func (s *Service) ListIntegrations(ctx context.Context, caller Caller, siteID string) ([]Integration, error) {
	if _, err := s.AuthorizeSiteAccess(ctx, caller, siteID); err != nil {
		return nil, err
	}
	integrations, err := s.integrationStore.ListBySite(ctx, siteID)
	if err != nil {
		return nil, s.mapError(err)
	}
	return integrations, nil
}

func (s *Service) FetchReport(ctx context.Context, caller Caller, req ReportRequest) (result ReportResult, err error) {
	startedAt := s.now()
	fields := map[string]any{
		"provider":    req.Provider,
		"site_id":     req.SiteID,
		"report_kind": req.Kind,
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "fetch_report", err, fields)
	}()

	site, err := s.AuthorizeSiteAccess(ctx, caller, req.SiteID)
	if err != nil {
		return ReportResult{}, err
	}
	req.Provider, err = NormalizeProviderID(req.Provider)
	if err != nil {
		err = s.mapError(err)
		return ReportResult{}, err
	}
	provider, err := s.resolveProvider(req.Provider)
	if err != nil {
		return ReportResult{}, err
	}
	if err = validateReportKind(provider, req.Kind); err != nil {
		err = s.mapError(err)
		return ReportResult{}, err
	}
	req.TargetDomain = NormalizeDomain(site.Domain)

	cacheKey := BuildReportCacheKey(req.SiteID, req.Provider, req.Kind, reportCacheParams(req))
	if s.reportCache != nil {
		if cached, ok := s.reportCache.Get(cacheKey); ok {
			return cached, nil
		}
	}

	req, err = s.resolveReportCredential(ctx, provider, req)
	if err != nil {
		return ReportResult{}, err
	}

	result, fetchErr := provider.Fetch(ctx, req)
	if fetchErr != nil {
		mapped := s.mapError(fetchErr)
		if isRateLimited(mapped) {
			if stale, ok := s.staleReport(cacheKey); ok {
				stale.RateLimited = true
				return stale, nil
			}
		}
		err = mapped
		return ReportResult{}, err
	}

	if s.reportCache != nil {
		s.reportCache.Set(cacheKey, result)
	}
	return result, nil
}

func (s *Service) resolveReportCredential(ctx context.Context, provider ReportProvider, req ReportRequest) (ReportRequest, error) {
	switch provider.AuthKind() {
	case AuthKindOAuth:
		grant, err := s.gateway.EnsureBearer(ctx, req.SiteID, req.Provider)
		if err != nil {
			return req, err
		}
		req.AccessToken = grant.AccessToken
		req.Integration = grant.Integration
		return req, nil
	case AuthKindAPIKey, AuthKindBasic:
		integration, err := s.integrationStore.FindBySiteProvider(ctx, req.SiteID, req.Provider)
		if err != nil {
			if errors.Is(err, ErrIntegrationNotFound) {
				return req, NotConnectedError(req.Provider)
			}
			return req, s.mapError(err)
		}
		if integration.Status != IntegrationStatusConnected {
			return req, NotConnectedError(req.Provider)
		}
		req.Integration = integration
		return req, nil
	default:
		integration, err := s.integrationStore.FindBySiteProvider(ctx, req.SiteID, req.Provider)
		if err == nil {
			req.Integration = integration
		} else if !errors.Is(err, ErrIntegrationNotFound) {
			return req, s.mapError(err)
		}
		return req, nil
	}
}

func (s *Service) staleReport(cacheKey string) (ReportResult, bool) {
	type staleReader interface {
		GetStale(key string) (ReportResult, bool)
	}
	reader, ok := s.reportCache.(staleReader)
	if !ok {
		return ReportResult{}, false
	}
	return reader.GetStale(cacheKey)
}

func (s *Service) AddKeyword(ctx context.Context, caller Caller, siteID, phrase string) (keyword Keyword, err error) {
	startedAt := s.now()
	fields := map[string]any{"site_id": siteID}
	defer func() {
		s.observeOperation(ctx, startedAt, "add_keyword", err, fields)
	}()

	if _, err = s.AuthorizeSiteAccess(ctx, caller, siteID); err != nil {
		return Keyword{}, err
	}
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		err = newReportsError("keyword phrase is required", goerrors.CategoryBadInput, ReportsErrorBadInput)
		return Keyword{}, err
	}
	keyword, err = s.keywordStore.Create(ctx, CreateKeywordInput{SiteID: siteID, Phrase: phrase})
	if err != nil {
		err = s.mapError(err)
		return Keyword{}, err
	}
	fields["keyword_id"] = keyword.ID
	return keyword, nil
}

func (s *Service) ListKeywords(ctx context.Context, caller Caller, siteID string) ([]Keyword, error) {
	if _, err := s.AuthorizeSiteAccess(ctx, caller, siteID); err != nil {
		return nil, err
	}
	keywords, err := s.keywordStore.ListBySite(ctx, siteID)
	if err != nil {
		return nil, s.mapError(err)
	}
	return keywords, nil
}

func (s *Service) DeleteKeyword(ctx context.Context, caller Caller, siteID, keywordID string) error {
	if _, err := s.AuthorizeSiteAccess(ctx, caller, siteID); err != nil {
		return err
	}
	keywords, err := s.keywordStore.ListBySite(ctx, siteID)
	if err != nil {
		return s.mapError(err)
	}
	for _, keyword := range keywords {
		if keyword.ID == strings.TrimSpace(keywordID) {
			if err := s.keywordStore.Delete(ctx, keyword.ID); err != nil {
				return s.mapError(err)
			}
			return nil
		}
	}
	return s.mapError(ErrKeywordNotFound)
}

func (s *Service) oauthApp(ctx context.Context, providerID string) (OAuthApp, error) {
	app, err := s.oauthAppStore.Get(ctx, OAuthAppKeyFor(providerID))
	if err != nil {
		if errors.Is(err, ErrOAuthAppNotFound) {
			return OAuthApp{}, NotConfiguredError("oauth client for provider " + providerID)
		}
		return OAuthApp{}, s.mapError(err)
	}
	if !app.Configured() {
		return OAuthApp{}, NotConfiguredError("oauth client for provider " + providerID)
	}
	return app, nil
}

func (s *Service) resolveProvider(providerID string) (ReportProvider, error) {
	if s == nil || s.registry == nil {
		return nil, s.mapError(fmt.Errorf("core: registry unavailable"))
	}
	providerID = strings.TrimSpace(providerID)
	provider, ok := s.registry.Get(providerID)
	if ok {
		return provider, nil
	}
	wrapped := s.errorFactory(
		fmt.Sprintf("provider %q is not registered", providerID),
		goerrors.CategoryNotFound,
	).WithTextCode(ReportsErrorProviderNotFound)
	return nil, wrapped.WithMetadata(map[string]any{"provider": providerID})
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func validateReportKind(provider ReportProvider, kind string) error {
	kinds := provider.Kinds()
	if len(kinds) == 0 {
		return nil
	}
	kind = strings.TrimSpace(kind)
	for _, candidate := range kinds {
		if strings.EqualFold(candidate, kind) {
			return nil
		}
	}
	return fmt.Errorf("core: invalid report kind %q for provider %s", kind, provider.ID())
}

func reportCacheParams(req ReportRequest) map[string]string {
	params := map[string]string{}
	for key, value := range req.Params {
		params[key] = value
	}
	if req.Range.Start != "" {
		params["start"] = req.Range.Start
	}
	if req.Range.End != "" {
		params["end"] = req.Range.End
	}
	if req.Dimension != "" {
		params["dimension"] = req.Dimension
	}
	if req.Limit > 0 {
		params["limit"] = fmt.Sprint(req.Limit)
	}
	if req.OrderBy != "" {
		params["order_by"] = req.OrderBy
	}
	return params
}

func isRateLimited(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.Category == goerrors.CategoryRateLimit
}

func buildAuthorizeURL(app OAuthApp, state string) string {
	query := url.Values{}
	query.Set("client_id", app.ClientID)
	query.Set("redirect_uri", app.RedirectURI)
	query.Set("response_type", "code")
	query.Set("state", state)
	if len(app.Scopes) > 0 {
		query.Set("scope", strings.Join(app.Scopes, " "))
	}
	// Offline access keeps a refresh token coming back on every consent.
	query.Set("access_type", "offline")
	query.Set("prompt", "consent")
	separator := "?"
	if strings.Contains(app.AuthURL, "?") {
		separator = "&"
	}
	return app.AuthURL + separator + query.Encode()
}

// storeAnchorResolver is the built-in anchor lookup: find the integration,
// follow a linked source one hop to the provider that owns the tokens.
type storeAnchorResolver struct {
	store IntegrationStore
}

func (r storeAnchorResolver) ResolveAnchor(ctx context.Context, siteID, providerID string) (Integration, error) {
	if r.store == nil {
		return Integration{}, fmt.Errorf("core: integration store unavailable")
	}
	integration, err := r.store.FindBySiteProvider(ctx, siteID, strings.TrimSpace(providerID))
	if err != nil {
		return Integration{}, err
	}
	linked, ok := integration.Source.(LinkedCredential)
	if !ok {
		return integration, nil
	}
	// A disconnected link must not borrow its anchor's credential.
	if integration.Status != IntegrationStatusConnected {
		return integration, nil
	}
	anchorProvider := strings.TrimSpace(linked.AnchorProvider)
	if anchorProvider == "" || anchorProvider == integration.Provider {
		return Integration{}, ErrIntegrationNotFound
	}
	anchor, err := r.store.FindBySiteProvider(ctx, siteID, anchorProvider)
	if err != nil {
		return Integration{}, err
	}
	if _, owned := anchor.Tokens(); !owned {
		// A linked chain deeper than one hop means a corrupt graph.
		return Integration{}, ErrIntegrationNotFound
	}
	return anchor, nil
}

var _ AnchorResolver = storeAnchorResolver{}
