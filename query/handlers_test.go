package query

import (
	"context"
	"testing"

	"github.com/goliatone/go-accountlink/core"
	goerrors "github.com/goliatone/go-errors"
)

type stubAccountReader struct {
	lookupFn           func(ctx context.Context, externalID string) (core.AccountView, error)
	lookupByProviderFn func(ctx context.Context, providerAccountID string) (core.AccountView, error)
	listFn             func(ctx context.Context) ([]core.AccountView, error)
	memberRolesFn      func(ctx context.Context, externalID string, groupID string) ([]string, error)
}

func (s stubAccountReader) Lookup(ctx context.Context, externalID string) (core.AccountView, error) {
	if s.lookupFn == nil {
		return core.AccountView{}, nil
	}
	return s.lookupFn(ctx, externalID)
}

func (s stubAccountReader) LookupByProviderAccount(ctx context.Context, providerAccountID string) (core.AccountView, error) {
	if s.lookupByProviderFn == nil {
		return core.AccountView{}, nil
	}
	return s.lookupByProviderFn(ctx, providerAccountID)
}

func (s stubAccountReader) ListAccounts(ctx context.Context) ([]core.AccountView, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx)
}

func (s stubAccountReader) MemberRoles(ctx context.Context, externalID string, groupID string) ([]string, error) {
	if s.memberRolesFn == nil {
		return nil, nil
	}
	return s.memberRolesFn(ctx, externalID, groupID)
}

type stubFlagReader struct {
	flagGrantedFn func(ctx context.Context, kind core.AccountKeyKind, id string) (bool, error)
}

func (s stubFlagReader) FlagGranted(ctx context.Context, kind core.AccountKeyKind, id string) (bool, error) {
	if s.flagGrantedFn == nil {
		return false, nil
	}
	return s.flagGrantedFn(ctx, kind, id)
}

func TestQueries_DelegateToReaders(t *testing.T) {
	t.Run("lookup", func(t *testing.T) {
		reader := stubAccountReader{
			lookupFn: func(_ context.Context, externalID string) (core.AccountView, error) {
				if externalID != "ext_1" {
					t.Fatalf("expected external id ext_1, got %q", externalID)
				}
				return core.AccountView{ExternalID: externalID, ProviderUsername: "captain"}, nil
			},
		}
		view, err := NewLookupAccountQuery(reader).Query(context.Background(), LookupAccountMessage{ExternalID: "ext_1"})
		if err != nil {
			t.Fatalf("lookup query: %v", err)
		}
		if view.ProviderUsername != "captain" {
			t.Fatalf("unexpected view: %#v", view)
		}
	})

	t.Run("lookup by provider", func(t *testing.T) {
		reader := stubAccountReader{
			lookupByProviderFn: func(_ context.Context, providerAccountID string) (core.AccountView, error) {
				if providerAccountID != "prov_1" {
					t.Fatalf("expected provider account id prov_1, got %q", providerAccountID)
				}
				return core.AccountView{ProviderAccountID: providerAccountID}, nil
			},
		}
		view, err := NewLookupByProviderAccountQuery(reader).Query(
			context.Background(),
			LookupByProviderAccountMessage{ProviderAccountID: "prov_1"},
		)
		if err != nil {
			t.Fatalf("lookup by provider query: %v", err)
		}
		if view.ProviderAccountID != "prov_1" {
			t.Fatalf("unexpected view: %#v", view)
		}
	})

	t.Run("list", func(t *testing.T) {
		reader := stubAccountReader{
			listFn: func(_ context.Context) ([]core.AccountView, error) {
				return []core.AccountView{{ExternalID: "ext_1"}, {ExternalID: "ext_2"}}, nil
			},
		}
		views, err := NewListAccountsQuery(reader).Query(context.Background(), ListAccountsMessage{})
		if err != nil {
			t.Fatalf("list query: %v", err)
		}
		if len(views) != 2 {
			t.Fatalf("expected 2 views, got %d", len(views))
		}
	})

	t.Run("member roles", func(t *testing.T) {
		reader := stubAccountReader{
			memberRolesFn: func(_ context.Context, externalID string, groupID string) ([]string, error) {
				if externalID != "ext_1" || groupID != "guild_1" {
					t.Fatalf("unexpected member roles payload: %q %q", externalID, groupID)
				}
				return []string{"role_a"}, nil
			},
		}
		roles, err := NewMemberRolesQuery(reader).Query(
			context.Background(),
			MemberRolesMessage{ExternalID: "ext_1", GroupID: "guild_1"},
		)
		if err != nil {
			t.Fatalf("member roles query: %v", err)
		}
		if len(roles) != 1 || roles[0] != "role_a" {
			t.Fatalf("unexpected roles: %v", roles)
		}
	})

	t.Run("flag granted", func(t *testing.T) {
		reader := stubFlagReader{
			flagGrantedFn: func(_ context.Context, kind core.AccountKeyKind, id string) (bool, error) {
				if kind != core.KeyProviderAccount || id != "prov_1" {
					t.Fatalf("unexpected flag payload: %q %q", kind, id)
				}
				return true, nil
			},
		}
		granted, err := NewFlagGrantedQuery(reader).Query(
			context.Background(),
			FlagGrantedMessage{Kind: core.KeyProviderAccount, ID: "prov_1"},
		)
		if err != nil {
			t.Fatalf("flag granted query: %v", err)
		}
		if !granted {
			t.Fatalf("expected granted flag")
		}
	})
}

func TestQueryMessages_ValidateReturnRichErrors(t *testing.T) {
	cases := []struct {
		name string
		msg  interface{ Validate() error }
	}{
		{"lookup", LookupAccountMessage{}},
		{"lookup by provider", LookupByProviderAccountMessage{}},
		{"member roles", MemberRolesMessage{}},
		{"flag granted", FlagGrantedMessage{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.msg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			var rich *goerrors.Error
			if !goerrors.As(err, &rich) {
				t.Fatalf("expected go-errors envelope, got %T", err)
			}
			if rich.TextCode != core.ServiceErrorBadInput {
				t.Fatalf("expected %q text code, got %q", core.ServiceErrorBadInput, rich.TextCode)
			}
		})
	}

	if err := (ListAccountsMessage{}).Validate(); err != nil {
		t.Fatalf("expected list message to validate, got %v", err)
	}
}

func TestQueries_NilReaderReturnsRichError(t *testing.T) {
	var q *LookupAccountQuery
	_, err := q.Query(context.Background(), LookupAccountMessage{ExternalID: "ext_1"})
	if err == nil {
		t.Fatalf("expected query dependency error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal category, got %q", rich.Category)
	}
}
