package query

import (
	"strings"

	"github.com/goliatone/go-seo-reports/core"
)

const (
	TypeFetchReport         = "reports.query.report.fetch"
	TypeGetSite             = "reports.query.site.get"
	TypeListSites           = "reports.query.site.list"
	TypeListIntegrations    = "reports.query.integration.list"
	TypeListKeywords        = "reports.query.keyword.list"
	TypeListLeadSubmissions = "reports.query.lead.submissions"
)

type FetchReportMessage struct {
	Caller  core.Caller
	Request core.ReportRequest
}

func (FetchReportMessage) Type() string { return TypeFetchReport }

func (m FetchReportMessage) Validate() error {
	if strings.TrimSpace(m.Request.SiteID) == "" {
		return queryValidationError("site_id", "site id is required")
	}
	if strings.TrimSpace(m.Request.Provider) == "" {
		return queryValidationError("provider", "provider is required")
	}
	return nil
}

type GetSiteMessage struct {
	Caller core.Caller
	SiteID string
}

func (GetSiteMessage) Type() string { return TypeGetSite }

func (m GetSiteMessage) Validate() error {
	if strings.TrimSpace(m.SiteID) == "" {
		return queryValidationError("site_id", "site id is required")
	}
	return nil
}

type ListSitesMessage struct {
	Caller core.Caller
}

func (ListSitesMessage) Type() string { return TypeListSites }

func (m ListSitesMessage) Validate() error {
	if strings.TrimSpace(m.Caller.UserID) == "" {
		return queryValidationError("user_id", "caller user id is required")
	}
	return nil
}

type ListIntegrationsMessage struct {
	Caller core.Caller
	SiteID string
}

func (ListIntegrationsMessage) Type() string { return TypeListIntegrations }

func (m ListIntegrationsMessage) Validate() error {
	if strings.TrimSpace(m.SiteID) == "" {
		return queryValidationError("site_id", "site id is required")
	}
	return nil
}

type ListKeywordsMessage struct {
	Caller core.Caller
	SiteID string
}

func (ListKeywordsMessage) Type() string { return TypeListKeywords }

func (m ListKeywordsMessage) Validate() error {
	if strings.TrimSpace(m.SiteID) == "" {
		return queryValidationError("site_id", "site id is required")
	}
	return nil
}

type ListLeadSubmissionsMessage struct {
	FormID string
	Limit  int
}

func (ListLeadSubmissionsMessage) Type() string { return TypeListLeadSubmissions }

func (m ListLeadSubmissionsMessage) Validate() error {
	if strings.TrimSpace(m.FormID) == "" {
		return queryValidationError("form_id", "form id is required")
	}
	return nil
}
