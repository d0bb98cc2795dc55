package command

import (
	gocmd "github.com/goliatone/go-command"
)

var (
	_ gocmd.Commander[CreateSiteMessage]       = (*CreateSiteCommand)(nil)
	_ gocmd.Commander[ConnectMessage]          = (*ConnectCommand)(nil)
	_ gocmd.Commander[CompleteCallbackMessage] = (*CompleteCallbackCommand)(nil)
	_ gocmd.Commander[DisconnectMessage]       = (*DisconnectCommand)(nil)
	_ gocmd.Commander[SelectResourceMessage]   = (*SelectResourceCommand)(nil)
	_ gocmd.Commander[AddKeywordMessage]       = (*AddKeywordCommand)(nil)
	_ gocmd.Commander[DeleteKeywordMessage]    = (*DeleteKeywordCommand)(nil)
	_ gocmd.Commander[SubmitLeadMessage]       = (*SubmitLeadCommand)(nil)
	_ gocmd.Commander[TrackRankingsMessage]    = (*TrackRankingsCommand)(nil)
)
