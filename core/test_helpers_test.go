package core

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memSiteStore struct {
	mu    sync.Mutex
	sites map[string]Site
	now   func() time.Time
}

func newMemSiteStore(now func() time.Time) *memSiteStore {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &memSiteStore{sites: map[string]Site{}, now: now}
}

func (s *memSiteStore) Create(_ context.Context, in CreateSiteInput) (Site, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	site := Site{
		ID:          uuid.NewString(),
		OwnerUserID: in.OwnerUserID,
		Name:        in.Name,
		Domain:      in.Domain,
		CreatedAt:   s.now(),
		UpdatedAt:   s.now(),
	}
	s.sites[site.ID] = site
	return site, nil
}

func (s *memSiteStore) Get(_ context.Context, id string) (Site, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	site, ok := s.sites[strings.TrimSpace(id)]
	if !ok {
		return Site{}, ErrSiteNotFound
	}
	return site, nil
}

func (s *memSiteStore) ListByOwner(_ context.Context, ownerUserID string) ([]Site, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sites []Site
	for _, site := range s.sites {
		if site.OwnerUserID == ownerUserID {
			sites = append(sites, site)
		}
	}
	return sites, nil
}

func (s *memSiteStore) seed(site Site) Site {
	s.mu.Lock()
	defer s.mu.Unlock()
	if site.ID == "" {
		site.ID = uuid.NewString()
	}
	s.sites[site.ID] = site
	return site
}

type memIntegrationStore struct {
	mu           sync.Mutex
	integrations map[string]Integration
	now          func() time.Time

	saveTokensCalls  int
	updateStatusLog  []IntegrationStatus
	lastStatusReason string
}

func newMemIntegrationStore(now func() time.Time) *memIntegrationStore {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &memIntegrationStore{integrations: map[string]Integration{}, now: now}
}

func (s *memIntegrationStore) Upsert(_ context.Context, in UpsertIntegrationInput) (Integration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.integrations {
		if existing.SiteID == in.SiteID && existing.Provider == in.Provider {
			existing.Status = in.Status
			if in.Source != nil {
				existing.Source = in.Source
			}
			if in.Config != nil {
				existing.Config = in.Config
			}
			existing.UpdatedAt = s.now()
			if in.Status == IntegrationStatusConnected {
				connectedAt := s.now()
				existing.ConnectedAt = &connectedAt
				existing.LastError = ""
			}
			s.integrations[id] = existing
			return existing, nil
		}
	}
	integration := Integration{
		ID:        uuid.NewString(),
		SiteID:    in.SiteID,
		Provider:  in.Provider,
		Status:    in.Status,
		Source:    in.Source,
		Config:    in.Config,
		CreatedAt: s.now(),
		UpdatedAt: s.now(),
	}
	if in.Status == IntegrationStatusConnected {
		connectedAt := s.now()
		integration.ConnectedAt = &connectedAt
	}
	s.integrations[integration.ID] = integration
	return integration, nil
}

func (s *memIntegrationStore) Get(_ context.Context, id string) (Integration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	integration, ok := s.integrations[strings.TrimSpace(id)]
	if !ok {
		return Integration{}, ErrIntegrationNotFound
	}
	return integration, nil
}

func (s *memIntegrationStore) FindBySiteProvider(_ context.Context, siteID, provider string) (Integration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, integration := range s.integrations {
		if integration.SiteID == siteID && integration.Provider == provider {
			return integration, nil
		}
	}
	return Integration{}, ErrIntegrationNotFound
}

func (s *memIntegrationStore) ListBySite(_ context.Context, siteID string) ([]Integration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var integrations []Integration
	for _, integration := range s.integrations {
		if integration.SiteID == siteID {
			integrations = append(integrations, integration)
		}
	}
	return integrations, nil
}

func (s *memIntegrationStore) UpdateStatus(_ context.Context, id string, status IntegrationStatus, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	integration, ok := s.integrations[strings.TrimSpace(id)]
	if !ok {
		return ErrIntegrationNotFound
	}
	integration.Status = status
	integration.LastError = reason
	integration.UpdatedAt = s.now()
	s.integrations[id] = integration
	s.updateStatusLog = append(s.updateStatusLog, status)
	s.lastStatusReason = reason
	return nil
}

func (s *memIntegrationStore) SaveTokens(_ context.Context, id string, tokens TokenSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	integration, ok := s.integrations[strings.TrimSpace(id)]
	if !ok {
		return ErrIntegrationNotFound
	}
	integration.Source = OwnedCredential{Tokens: tokens}
	integration.UpdatedAt = s.now()
	s.integrations[id] = integration
	s.saveTokensCalls++
	return nil
}

func (s *memIntegrationStore) ClearTokens(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	integration, ok := s.integrations[strings.TrimSpace(id)]
	if !ok {
		return ErrIntegrationNotFound
	}
	integration.Source = nil
	integration.UpdatedAt = s.now()
	s.integrations[id] = integration
	return nil
}

func (s *memIntegrationStore) SaveConfig(_ context.Context, id string, config map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	integration, ok := s.integrations[strings.TrimSpace(id)]
	if !ok {
		return ErrIntegrationNotFound
	}
	integration.Config = config
	integration.UpdatedAt = s.now()
	s.integrations[id] = integration
	return nil
}

func (s *memIntegrationStore) seed(integration Integration) Integration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if integration.ID == "" {
		integration.ID = uuid.NewString()
	}
	s.integrations[integration.ID] = integration
	return integration
}

type memKeywordStore struct {
	mu       sync.Mutex
	keywords map[string]Keyword
	now      func() time.Time
}

func newMemKeywordStore(now func() time.Time) *memKeywordStore {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &memKeywordStore{keywords: map[string]Keyword{}, now: now}
}

func (s *memKeywordStore) Create(_ context.Context, in CreateKeywordInput) (Keyword, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keyword := Keyword{
		ID:        uuid.NewString(),
		SiteID:    in.SiteID,
		Phrase:    in.Phrase,
		CreatedAt: s.now(),
		UpdatedAt: s.now(),
	}
	s.keywords[keyword.ID] = keyword
	return keyword, nil
}

func (s *memKeywordStore) ListBySite(_ context.Context, siteID string) ([]Keyword, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keywords []Keyword
	for _, keyword := range s.keywords {
		if keyword.SiteID == siteID {
			keywords = append(keywords, keyword)
		}
	}
	return keywords, nil
}

func (s *memKeywordStore) SaveRanking(_ context.Context, keywordID string, ranking KeywordRanking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	keyword, ok := s.keywords[strings.TrimSpace(keywordID)]
	if !ok {
		return ErrKeywordNotFound
	}
	keyword.Ranking = &ranking
	keyword.UpdatedAt = s.now()
	s.keywords[keywordID] = keyword
	return nil
}

func (s *memKeywordStore) Delete(_ context.Context, keywordID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keywords[strings.TrimSpace(keywordID)]; !ok {
		return ErrKeywordNotFound
	}
	delete(s.keywords, keywordID)
	return nil
}

type memLeadFormStore struct {
	mu    sync.Mutex
	forms map[string]LeadForm
}

func newMemLeadFormStore() *memLeadFormStore {
	return &memLeadFormStore{forms: map[string]LeadForm{}}
}

func (s *memLeadFormStore) Get(_ context.Context, id string) (LeadForm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	form, ok := s.forms[strings.TrimSpace(id)]
	if !ok {
		return LeadForm{}, ErrLeadFormNotFound
	}
	return form, nil
}

func (s *memLeadFormStore) ListBySite(_ context.Context, siteID string) ([]LeadForm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var forms []LeadForm
	for _, form := range s.forms {
		if form.SiteID == siteID {
			forms = append(forms, form)
		}
	}
	return forms, nil
}

type memLeadSubmissionStore struct {
	mu          sync.Mutex
	submissions []LeadSubmission
	now         func() time.Time
}

func newMemLeadSubmissionStore(now func() time.Time) *memLeadSubmissionStore {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &memLeadSubmissionStore{now: now}
}

func (s *memLeadSubmissionStore) Create(_ context.Context, in CreateLeadSubmissionInput) (LeadSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	submission := LeadSubmission{
		ID:        uuid.NewString(),
		FormID:    in.FormID,
		SiteID:    in.SiteID,
		Fields:    in.Fields,
		ClientIP:  in.ClientIP,
		CreatedAt: s.now(),
	}
	s.submissions = append(s.submissions, submission)
	return submission, nil
}

func (s *memLeadSubmissionStore) ListByForm(_ context.Context, formID string, limit int) ([]LeadSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var submissions []LeadSubmission
	for _, submission := range s.submissions {
		if submission.FormID == formID {
			submissions = append(submissions, submission)
		}
	}
	if limit > 0 && len(submissions) > limit {
		submissions = submissions[:limit]
	}
	return submissions, nil
}

type memOAuthAppStore struct {
	mu   sync.Mutex
	apps map[string]OAuthApp
}

func newMemOAuthAppStore(apps ...OAuthApp) *memOAuthAppStore {
	store := &memOAuthAppStore{apps: map[string]OAuthApp{}}
	for _, app := range apps {
		store.apps[app.Provider] = app
	}
	return store
}

func (s *memOAuthAppStore) Get(_ context.Context, provider string) (OAuthApp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[strings.TrimSpace(provider)]
	if !ok {
		return OAuthApp{}, ErrOAuthAppNotFound
	}
	return app, nil
}

type stubRefresher struct {
	payload TokenPayload
	err     error
	calls   int
	lastRT  string
}

func (r *stubRefresher) RefreshToken(_ context.Context, _ OAuthApp, refreshToken string) (TokenPayload, error) {
	r.calls++
	r.lastRT = refreshToken
	if r.err != nil {
		return TokenPayload{}, r.err
	}
	return r.payload, nil
}

type stubExchanger struct {
	payload TokenPayload
	err     error
	calls   int
}

func (e *stubExchanger) ExchangeCode(context.Context, OAuthApp, string) (TokenPayload, error) {
	e.calls++
	if e.err != nil {
		return TokenPayload{}, e.err
	}
	return e.payload, nil
}

type stubReportProvider struct {
	id       string
	authKind string
	kinds    []string
	fetch    func(ctx context.Context, req ReportRequest) (ReportResult, error)
	calls    int
	lastReq  ReportRequest
}

func (p *stubReportProvider) ID() string       { return p.id }
func (p *stubReportProvider) AuthKind() string { return p.authKind }
func (p *stubReportProvider) Kinds() []string  { return p.kinds }

func (p *stubReportProvider) Fetch(ctx context.Context, req ReportRequest) (ReportResult, error) {
	p.calls++
	p.lastReq = req
	if p.fetch != nil {
		return p.fetch(ctx, req)
	}
	return ReportResult{}, nil
}

func timePtr(t time.Time) *time.Time {
	return &t
}
