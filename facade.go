package seoreports

import (
	"context"
	"fmt"

	reportscommand "github.com/goliatone/go-seo-reports/command"
	"github.com/goliatone/go-seo-reports/core"
	reportsquery "github.com/goliatone/go-seo-reports/query"
)

type CommandQueryService interface {
	reportscommand.MutatingService
	reportsquery.ReportReader
}

type Commands struct {
	CreateSite       *reportscommand.CreateSiteCommand
	Connect          *reportscommand.ConnectCommand
	CompleteCallback *reportscommand.CompleteCallbackCommand
	Disconnect       *reportscommand.DisconnectCommand
	SelectResource   *reportscommand.SelectResourceCommand
	AddKeyword       *reportscommand.AddKeywordCommand
	DeleteKeyword    *reportscommand.DeleteKeywordCommand
	SubmitLead       *reportscommand.SubmitLeadCommand
	TrackRankings    *reportscommand.TrackRankingsCommand
}

type Queries struct {
	FetchReport         *reportsquery.FetchReportQuery
	GetSite             *reportsquery.GetSiteQuery
	ListSites           *reportsquery.ListSitesQuery
	ListIntegrations    *reportsquery.ListIntegrationsQuery
	ListKeywords        *reportsquery.ListKeywordsQuery
	ListLeadSubmissions *reportsquery.ListLeadSubmissionsQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	submissionReader reportsquery.LeadSubmissionReader
	leadSubmitter    reportscommand.LeadSubmitter
	rankRunner       reportscommand.RankRunner
}

// WithLeadSubmissionReader overrides the reader the lead submission query
// runs on. Without it the facade falls back to the service's own store.
func WithLeadSubmissionReader(reader reportsquery.LeadSubmissionReader) FacadeOption {
	return func(options *facadeOptions) {
		options.submissionReader = reader
	}
}

func WithLeadSubmitter(submitter reportscommand.LeadSubmitter) FacadeOption {
	return func(options *facadeOptions) {
		options.leadSubmitter = submitter
	}
}

func WithRankRunner(runner reportscommand.RankRunner) FacadeOption {
	return func(options *facadeOptions) {
		options.rankRunner = runner
	}
}

func NewFacade(service CommandQueryService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("seoreports: command/query service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	reader := cfg.submissionReader
	if reader == nil {
		reader = resolveSubmissionReader(service)
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		CreateSite:       reportscommand.NewCreateSiteCommand(service),
		Connect:          reportscommand.NewConnectCommand(service),
		CompleteCallback: reportscommand.NewCompleteCallbackCommand(service),
		Disconnect:       reportscommand.NewDisconnectCommand(service),
		SelectResource:   reportscommand.NewSelectResourceCommand(service),
		AddKeyword:       reportscommand.NewAddKeywordCommand(service),
		DeleteKeyword:    reportscommand.NewDeleteKeywordCommand(service),
		SubmitLead:       reportscommand.NewSubmitLeadCommand(cfg.leadSubmitter),
		TrackRankings:    reportscommand.NewTrackRankingsCommand(cfg.rankRunner),
	}
	facade.queries = Queries{
		FetchReport:         reportsquery.NewFetchReportQuery(service),
		GetSite:             reportsquery.NewGetSiteQuery(service),
		ListSites:           reportsquery.NewListSitesQuery(service),
		ListIntegrations:    reportsquery.NewListIntegrationsQuery(service),
		ListKeywords:        reportsquery.NewListKeywordsQuery(service),
		ListLeadSubmissions: reportsquery.NewListLeadSubmissionsQuery(reader),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}

// resolveSubmissionReader finds a lead submission source on the service: the
// service itself when it reads submissions, otherwise the submission store
// surfaced by its resolved dependencies.
func resolveSubmissionReader(service CommandQueryService) reportsquery.LeadSubmissionReader {
	if service == nil {
		return nil
	}
	if reader, ok := service.(reportsquery.LeadSubmissionReader); ok {
		return reader
	}
	provider, ok := service.(interface {
		Dependencies() core.ServiceDependencies
	})
	if !ok {
		return nil
	}
	deps := provider.Dependencies()
	if deps.LeadSubmissionStore == nil {
		return nil
	}
	return storeSubmissionReader{store: deps.LeadSubmissionStore}
}

type storeSubmissionReader struct {
	store core.LeadSubmissionStore
}

func (r storeSubmissionReader) ListSubmissions(ctx context.Context, formID string, limit int) ([]core.LeadSubmission, error) {
	return r.store.ListByForm(ctx, formID, limit)
}
