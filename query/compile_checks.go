package query

import (
	"github.com/goliatone/go-accountlink/core"
	gocmd "github.com/goliatone/go-command"
)

var (
	_ gocmd.Querier[LookupAccountMessage, core.AccountView]           = (*LookupAccountQuery)(nil)
	_ gocmd.Querier[LookupByProviderAccountMessage, core.AccountView] = (*LookupByProviderAccountQuery)(nil)
	_ gocmd.Querier[ListAccountsMessage, []core.AccountView]          = (*ListAccountsQuery)(nil)
	_ gocmd.Querier[MemberRolesMessage, []string]                     = (*MemberRolesQuery)(nil)
	_ gocmd.Querier[FlagGrantedMessage, bool]                         = (*FlagGrantedQuery)(nil)
)
