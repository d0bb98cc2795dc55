package command

import (
	"strings"

	"github.com/goliatone/go-seo-reports/core"
	"github.com/goliatone/go-seo-reports/leads"
)

const (
	TypeCreateSite       = "reports.command.site.create"
	TypeConnect          = "reports.command.connect"
	TypeCompleteCallback = "reports.command.callback.complete"
	TypeDisconnect       = "reports.command.disconnect"
	TypeSelectResource   = "reports.command.resource.select"
	TypeAddKeyword       = "reports.command.keyword.add"
	TypeDeleteKeyword    = "reports.command.keyword.delete"
	TypeSubmitLead       = "reports.command.lead.submit"
	TypeTrackRankings    = "reports.command.rank.track"
)

type CreateSiteMessage struct {
	Caller core.Caller
	Name   string
	Domain string
}

func (CreateSiteMessage) Type() string { return TypeCreateSite }

func (m CreateSiteMessage) Validate() error {
	if strings.TrimSpace(m.Caller.UserID) == "" {
		return commandValidationError("user_id", "caller user id is required")
	}
	if strings.TrimSpace(m.Domain) == "" {
		return commandValidationError("domain", "site domain is required")
	}
	return nil
}

type ConnectMessage struct {
	Caller   core.Caller
	SiteID   string
	Provider string
}

func (ConnectMessage) Type() string { return TypeConnect }

func (m ConnectMessage) Validate() error {
	if strings.TrimSpace(m.SiteID) == "" {
		return commandValidationError("site_id", "site id is required")
	}
	if strings.TrimSpace(m.Provider) == "" {
		return commandValidationError("provider", "provider is required")
	}
	return nil
}

type CompleteCallbackMessage struct {
	Request core.CompleteCallbackRequest
}

func (CompleteCallbackMessage) Type() string { return TypeCompleteCallback }

func (m CompleteCallbackMessage) Validate() error {
	if strings.TrimSpace(m.Request.State) == "" {
		return commandValidationError("state", "callback state is required")
	}
	return nil
}

type DisconnectMessage struct {
	Caller   core.Caller
	SiteID   string
	Provider string
}

func (DisconnectMessage) Type() string { return TypeDisconnect }

func (m DisconnectMessage) Validate() error {
	if strings.TrimSpace(m.SiteID) == "" {
		return commandValidationError("site_id", "site id is required")
	}
	if strings.TrimSpace(m.Provider) == "" {
		return commandValidationError("provider", "provider is required")
	}
	return nil
}

type SelectResourceMessage struct {
	Caller   core.Caller
	SiteID   string
	Provider string
	Key      string
	Value    string
}

func (SelectResourceMessage) Type() string { return TypeSelectResource }

func (m SelectResourceMessage) Validate() error {
	if strings.TrimSpace(m.SiteID) == "" {
		return commandValidationError("site_id", "site id is required")
	}
	if strings.TrimSpace(m.Provider) == "" {
		return commandValidationError("provider", "provider is required")
	}
	if strings.TrimSpace(m.Key) == "" {
		return commandValidationError("key", "resource selector key is required")
	}
	return nil
}

type AddKeywordMessage struct {
	Caller core.Caller
	SiteID string
	Phrase string
}

func (AddKeywordMessage) Type() string { return TypeAddKeyword }

func (m AddKeywordMessage) Validate() error {
	if strings.TrimSpace(m.SiteID) == "" {
		return commandValidationError("site_id", "site id is required")
	}
	if strings.TrimSpace(m.Phrase) == "" {
		return commandValidationError("phrase", "keyword phrase is required")
	}
	return nil
}

type DeleteKeywordMessage struct {
	Caller    core.Caller
	SiteID    string
	KeywordID string
}

func (DeleteKeywordMessage) Type() string { return TypeDeleteKeyword }

func (m DeleteKeywordMessage) Validate() error {
	if strings.TrimSpace(m.SiteID) == "" {
		return commandValidationError("site_id", "site id is required")
	}
	if strings.TrimSpace(m.KeywordID) == "" {
		return commandValidationError("keyword_id", "keyword id is required")
	}
	return nil
}

type SubmitLeadMessage struct {
	Input leads.SubmitInput
}

func (SubmitLeadMessage) Type() string { return TypeSubmitLead }

func (m SubmitLeadMessage) Validate() error {
	if strings.TrimSpace(m.Input.FormID) == "" {
		return commandValidationError("form_id", "form id is required")
	}
	return nil
}

type TrackRankingsMessage struct {
	SiteID string
}

func (TrackRankingsMessage) Type() string { return TypeTrackRankings }

func (m TrackRankingsMessage) Validate() error {
	if strings.TrimSpace(m.SiteID) == "" {
		return commandValidationError("site_id", "site id is required")
	}
	return nil
}
