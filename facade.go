package accountlink

import (
	"fmt"

	linkcommand "github.com/goliatone/go-accountlink/command"
	linkquery "github.com/goliatone/go-accountlink/query"
)

// CommandQueryService is the service surface the facade dispatches against.
type CommandQueryService interface {
	linkcommand.MutatingService
	linkquery.AccountReader
	linkquery.FlagReader
}

type Commands struct {
	BeginLink    *linkcommand.BeginLinkCommand
	CompleteLink *linkcommand.CompleteLinkCommand
	Refresh      *linkcommand.RefreshCommand
	SetFlag      *linkcommand.SetFlagCommand
	ResetFlags   *linkcommand.ResetFlagsCommand
	Unlink       *linkcommand.UnlinkCommand
}

type Queries struct {
	LookupAccount           *linkquery.LookupAccountQuery
	LookupByProviderAccount *linkquery.LookupByProviderAccountQuery
	ListAccounts            *linkquery.ListAccountsQuery
	MemberRoles             *linkquery.MemberRolesQuery
	FlagGranted             *linkquery.FlagGrantedQuery
}

// Facade bundles the command and query handlers over one service instance so
// hosts can register them with their dispatcher in one place.
type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("accountlink: command/query service is required")
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		BeginLink:    linkcommand.NewBeginLinkCommand(service),
		CompleteLink: linkcommand.NewCompleteLinkCommand(service),
		Refresh:      linkcommand.NewRefreshCommand(service),
		SetFlag:      linkcommand.NewSetFlagCommand(service),
		ResetFlags:   linkcommand.NewResetFlagsCommand(service),
		Unlink:       linkcommand.NewUnlinkCommand(service),
	}
	facade.queries = Queries{
		LookupAccount:           linkquery.NewLookupAccountQuery(service),
		LookupByProviderAccount: linkquery.NewLookupByProviderAccountQuery(service),
		ListAccounts:            linkquery.NewListAccountsQuery(service),
		MemberRoles:             linkquery.NewMemberRolesQuery(service),
		FlagGranted:             linkquery.NewFlagGrantedQuery(service),
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
