package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-seo-reports/core"
	"github.com/goliatone/go-seo-reports/leads"
	"github.com/goliatone/go-seo-reports/rank"
)

// MutatingService is the slice of the reporting facade the command handlers
// drive. Reads live in the query package.
type MutatingService interface {
	CreateSite(ctx context.Context, caller core.Caller, name, domain string) (core.Site, error)
	Connect(ctx context.Context, caller core.Caller, siteID, providerID string) (core.ConnectBegin, error)
	CompleteCallback(ctx context.Context, req core.CompleteCallbackRequest) (core.Integration, error)
	Disconnect(ctx context.Context, caller core.Caller, siteID, providerID string) error
	SelectResource(ctx context.Context, caller core.Caller, siteID, providerID, key, value string) error
	AddKeyword(ctx context.Context, caller core.Caller, siteID, phrase string) (core.Keyword, error)
	DeleteKeyword(ctx context.Context, caller core.Caller, siteID, keywordID string) error
}

type LeadSubmitter interface {
	Submit(ctx context.Context, in leads.SubmitInput) (leads.SubmitResult, error)
}

type RankRunner interface {
	TrackSite(ctx context.Context, siteID string) (rank.RunReport, error)
}

type CreateSiteCommand struct {
	service MutatingService
}

func NewCreateSiteCommand(service MutatingService) *CreateSiteCommand {
	return &CreateSiteCommand{service: service}
}

func (c *CreateSiteCommand) Execute(ctx context.Context, msg CreateSiteMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: site service is required")
	}
	out, err := c.service.CreateSite(ctx, msg.Caller, msg.Name, msg.Domain)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ConnectCommand struct {
	service MutatingService
}

func NewConnectCommand(service MutatingService) *ConnectCommand {
	return &ConnectCommand{service: service}
}

func (c *ConnectCommand) Execute(ctx context.Context, msg ConnectMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: connect service is required")
	}
	out, err := c.service.Connect(ctx, msg.Caller, msg.SiteID, msg.Provider)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type CompleteCallbackCommand struct {
	service MutatingService
}

func NewCompleteCallbackCommand(service MutatingService) *CompleteCallbackCommand {
	return &CompleteCallbackCommand{service: service}
}

func (c *CompleteCallbackCommand) Execute(ctx context.Context, msg CompleteCallbackMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: callback service is required")
	}
	out, err := c.service.CompleteCallback(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DisconnectCommand struct {
	service MutatingService
}

func NewDisconnectCommand(service MutatingService) *DisconnectCommand {
	return &DisconnectCommand{service: service}
}

func (c *DisconnectCommand) Execute(ctx context.Context, msg DisconnectMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: disconnect service is required")
	}
	return c.service.Disconnect(ctx, msg.Caller, msg.SiteID, msg.Provider)
}

type SelectResourceCommand struct {
	service MutatingService
}

func NewSelectResourceCommand(service MutatingService) *SelectResourceCommand {
	return &SelectResourceCommand{service: service}
}

func (c *SelectResourceCommand) Execute(ctx context.Context, msg SelectResourceMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: resource selection service is required")
	}
	return c.service.SelectResource(ctx, msg.Caller, msg.SiteID, msg.Provider, msg.Key, msg.Value)
}

type AddKeywordCommand struct {
	service MutatingService
}

func NewAddKeywordCommand(service MutatingService) *AddKeywordCommand {
	return &AddKeywordCommand{service: service}
}

func (c *AddKeywordCommand) Execute(ctx context.Context, msg AddKeywordMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: keyword service is required")
	}
	out, err := c.service.AddKeyword(ctx, msg.Caller, msg.SiteID, msg.Phrase)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DeleteKeywordCommand struct {
	service MutatingService
}

func NewDeleteKeywordCommand(service MutatingService) *DeleteKeywordCommand {
	return &DeleteKeywordCommand{service: service}
}

func (c *DeleteKeywordCommand) Execute(ctx context.Context, msg DeleteKeywordMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: keyword service is required")
	}
	return c.service.DeleteKeyword(ctx, msg.Caller, msg.SiteID, msg.KeywordID)
}

type SubmitLeadCommand struct {
	service LeadSubmitter
}

func NewSubmitLeadCommand(service LeadSubmitter) *SubmitLeadCommand {
	return &SubmitLeadCommand{service: service}
}

func (c *SubmitLeadCommand) Execute(ctx context.Context, msg SubmitLeadMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: lead service is required")
	}
	out, err := c.service.Submit(ctx, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type TrackRankingsCommand struct {
	tracker RankRunner
}

func NewTrackRankingsCommand(tracker RankRunner) *TrackRankingsCommand {
	return &TrackRankingsCommand{tracker: tracker}
}

func (c *TrackRankingsCommand) Execute(ctx context.Context, msg TrackRankingsMessage) error {
	if c == nil || c.tracker == nil {
		return commandDependencyError("command: rank tracker is required")
	}
	out, err := c.tracker.TrackSite(ctx, msg.SiteID)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
