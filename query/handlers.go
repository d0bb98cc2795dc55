package query

import (
	"context"

	"github.com/goliatone/go-seo-reports/core"
)

// ReportReader is the read-side slice of the reporting facade.
type ReportReader interface {
	FetchReport(ctx context.Context, caller core.Caller, req core.ReportRequest) (core.ReportResult, error)
	GetSite(ctx context.Context, caller core.Caller, siteID string) (core.Site, error)
	ListSites(ctx context.Context, caller core.Caller) ([]core.Site, error)
	ListIntegrations(ctx context.Context, caller core.Caller, siteID string) ([]core.Integration, error)
	ListKeywords(ctx context.Context, caller core.Caller, siteID string) ([]core.Keyword, error)
}

type LeadSubmissionReader interface {
	ListSubmissions(ctx context.Context, formID string, limit int) ([]core.LeadSubmission, error)
}

type FetchReportQuery struct {
	reader ReportReader
}

func NewFetchReportQuery(reader ReportReader) *FetchReportQuery {
	return &FetchReportQuery{reader: reader}
}

func (q *FetchReportQuery) Query(ctx context.Context, msg FetchReportMessage) (core.ReportResult, error) {
	if q == nil || q.reader == nil {
		return core.ReportResult{}, queryDependencyError("query: report reader is required")
	}
	return q.reader.FetchReport(ctx, msg.Caller, msg.Request)
}

type GetSiteQuery struct {
	reader ReportReader
}

func NewGetSiteQuery(reader ReportReader) *GetSiteQuery {
	return &GetSiteQuery{reader: reader}
}

func (q *GetSiteQuery) Query(ctx context.Context, msg GetSiteMessage) (core.Site, error) {
	if q == nil || q.reader == nil {
		return core.Site{}, queryDependencyError("query: site reader is required")
	}
	return q.reader.GetSite(ctx, msg.Caller, msg.SiteID)
}

type ListSitesQuery struct {
	reader ReportReader
}

func NewListSitesQuery(reader ReportReader) *ListSitesQuery {
	return &ListSitesQuery{reader: reader}
}

func (q *ListSitesQuery) Query(ctx context.Context, msg ListSitesMessage) ([]core.Site, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: site reader is required")
	}
	return q.reader.ListSites(ctx, msg.Caller)
}

type ListIntegrationsQuery struct {
	reader ReportReader
}

func NewListIntegrationsQuery(reader ReportReader) *ListIntegrationsQuery {
	return &ListIntegrationsQuery{reader: reader}
}

func (q *ListIntegrationsQuery) Query(ctx context.Context, msg ListIntegrationsMessage) ([]core.Integration, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: integration reader is required")
	}
	return q.reader.ListIntegrations(ctx, msg.Caller, msg.SiteID)
}

type ListKeywordsQuery struct {
	reader ReportReader
}

func NewListKeywordsQuery(reader ReportReader) *ListKeywordsQuery {
	return &ListKeywordsQuery{reader: reader}
}

func (q *ListKeywordsQuery) Query(ctx context.Context, msg ListKeywordsMessage) ([]core.Keyword, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: keyword reader is required")
	}
	return q.reader.ListKeywords(ctx, msg.Caller, msg.SiteID)
}

type ListLeadSubmissionsQuery struct {
	reader LeadSubmissionReader
}

func NewListLeadSubmissionsQuery(reader LeadSubmissionReader) *ListLeadSubmissionsQuery {
	return &ListLeadSubmissionsQuery{reader: reader}
}

func (q *ListLeadSubmissionsQuery) Query(ctx context.Context, msg ListLeadSubmissionsMessage) ([]core.LeadSubmission, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: lead submission reader is required")
	}
	return q.reader.ListSubmissions(ctx, msg.FormID, msg.Limit)
}
