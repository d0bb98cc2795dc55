package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-seo-reports/core"
)

var (
	_ gocmd.Querier[FetchReportMessage, core.ReportResult]                 = (*FetchReportQuery)(nil)
	_ gocmd.Querier[GetSiteMessage, core.Site]                             = (*GetSiteQuery)(nil)
	_ gocmd.Querier[ListSitesMessage, []core.Site]                         = (*ListSitesQuery)(nil)
	_ gocmd.Querier[ListIntegrationsMessage, []core.Integration]           = (*ListIntegrationsQuery)(nil)
	_ gocmd.Querier[ListKeywordsMessage, []core.Keyword]                   = (*ListKeywordsQuery)(nil)
	_ gocmd.Querier[ListLeadSubmissionsMessage, []core.LeadSubmission]     = (*ListLeadSubmissionsQuery)(nil)
)
