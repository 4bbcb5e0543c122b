package query

import (
	"context"

	"github.com/goliatone/go-accountlink/core"
)

// AccountReader is the read-side slice of the core service.
type AccountReader interface {
	Lookup(ctx context.Context, externalID string) (core.AccountView, error)
	LookupByProviderAccount(ctx context.Context, providerAccountID string) (core.AccountView, error)
	ListAccounts(ctx context.Context) ([]core.AccountView, error)
	MemberRoles(ctx context.Context, externalID string, groupID string) ([]string, error)
}

type FlagReader interface {
	FlagGranted(ctx context.Context, kind core.AccountKeyKind, id string) (bool, error)
}

type LookupAccountQuery struct {
	reader AccountReader
}

func NewLookupAccountQuery(reader AccountReader) *LookupAccountQuery {
	return &LookupAccountQuery{reader: reader}
}

func (q *LookupAccountQuery) Query(ctx context.Context, msg LookupAccountMessage) (core.AccountView, error) {
	if q == nil || q.reader == nil {
		return core.AccountView{}, queryDependencyError("query: account reader is required")
	}
	return q.reader.Lookup(ctx, msg.ExternalID)
}

type LookupByProviderAccountQuery struct {
	reader AccountReader
}

func NewLookupByProviderAccountQuery(reader AccountReader) *LookupByProviderAccountQuery {
	return &LookupByProviderAccountQuery{reader: reader}
}

func (q *LookupByProviderAccountQuery) Query(ctx context.Context, msg LookupByProviderAccountMessage) (core.AccountView, error) {
	if q == nil || q.reader == nil {
		return core.AccountView{}, queryDependencyError("query: account reader is required")
	}
	return q.reader.LookupByProviderAccount(ctx, msg.ProviderAccountID)
}

type ListAccountsQuery struct {
	reader AccountReader
}

func NewListAccountsQuery(reader AccountReader) *ListAccountsQuery {
	return &ListAccountsQuery{reader: reader}
}

func (q *ListAccountsQuery) Query(ctx context.Context, msg ListAccountsMessage) ([]core.AccountView, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: account reader is required")
	}
	return q.reader.ListAccounts(ctx)
}

type MemberRolesQuery struct {
	reader AccountReader
}

func NewMemberRolesQuery(reader AccountReader) *MemberRolesQuery {
	return &MemberRolesQuery{reader: reader}
}

func (q *MemberRolesQuery) Query(ctx context.Context, msg MemberRolesMessage) ([]string, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: account reader is required")
	}
	return q.reader.MemberRoles(ctx, msg.ExternalID, msg.GroupID)
}

type FlagGrantedQuery struct {
	reader FlagReader
}

func NewFlagGrantedQuery(reader FlagReader) *FlagGrantedQuery {
	return &FlagGrantedQuery{reader: reader}
}

func (q *FlagGrantedQuery) Query(ctx context.Context, msg FlagGrantedMessage) (bool, error) {
	if q == nil || q.reader == nil {
		return false, queryDependencyError("query: flag reader is required")
	}
	return q.reader.FlagGranted(ctx, msg.Kind, msg.ID)
}
