// Package query exposes the read-side account-linking operations as
// go-command query messages.
package query

import (
	"strings"

	"github.com/goliatone/go-accountlink/core"
)

const (
	TypeLookupAccount           = "accountlink.query.account.lookup"
	TypeLookupByProviderAccount = "accountlink.query.account.lookup_by_provider"
	TypeListAccounts            = "accountlink.query.account.list"
	TypeMemberRoles             = "accountlink.query.member_roles"
	TypeFlagGranted             = "accountlink.query.flag.granted"
)

type LookupAccountMessage struct {
	ExternalID string
}

func (LookupAccountMessage) Type() string { return TypeLookupAccount }

func (m LookupAccountMessage) Validate() error {
	if strings.TrimSpace(m.ExternalID) == "" {
		return queryValidationError("external_id", "external id is required")
	}
	return nil
}

type LookupByProviderAccountMessage struct {
	ProviderAccountID string
}

func (LookupByProviderAccountMessage) Type() string { return TypeLookupByProviderAccount }

func (m LookupByProviderAccountMessage) Validate() error {
	if strings.TrimSpace(m.ProviderAccountID) == "" {
		return queryValidationError("provider_account_id", "provider account id is required")
	}
	return nil
}

type ListAccountsMessage struct{}

func (ListAccountsMessage) Type() string { return TypeListAccounts }

func (ListAccountsMessage) Validate() error { return nil }

type MemberRolesMessage struct {
	ExternalID string
	GroupID    string
}

func (MemberRolesMessage) Type() string { return TypeMemberRoles }

func (m MemberRolesMessage) Validate() error {
	if strings.TrimSpace(m.ExternalID) == "" {
		return queryValidationError("external_id", "external id is required")
	}
	if strings.TrimSpace(m.GroupID) == "" {
		return queryValidationError("group_id", "group id is required")
	}
	return nil
}

type FlagGrantedMessage struct {
	Kind core.AccountKeyKind
	ID   string
}

func (FlagGrantedMessage) Type() string { return TypeFlagGranted }

func (m FlagGrantedMessage) Validate() error {
	if err := m.Kind.Validate(); err != nil {
		return queryValidationError("kind", err.Error())
	}
	if strings.TrimSpace(m.ID) == "" {
		return queryValidationError("id", "account identifier is required")
	}
	return nil
}
