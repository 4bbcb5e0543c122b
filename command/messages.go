// Package command exposes the mutating account-linking operations as
// go-command messages so hosts can route them through their own dispatchers.
package command

import (
	"strings"

	"github.com/goliatone/go-accountlink/core"
)

const (
	TypeBeginLink    = "accountlink.command.link.begin"
	TypeCompleteLink = "accountlink.command.link.complete"
	TypeRefresh      = "accountlink.command.refresh"
	TypeSetFlag      = "accountlink.command.flag.set"
	TypeResetFlags   = "accountlink.command.flag.reset_all"
	TypeUnlink       = "accountlink.command.unlink"
)

type BeginLinkMessage struct {
	ExternalID string
}

func (BeginLinkMessage) Type() string { return TypeBeginLink }

func (m BeginLinkMessage) Validate() error {
	if strings.TrimSpace(m.ExternalID) == "" {
		return commandValidationError("external_id", "external id is required")
	}
	return nil
}

type CompleteLinkMessage struct {
	Request core.CompleteLinkRequest
}

func (CompleteLinkMessage) Type() string { return TypeCompleteLink }

func (m CompleteLinkMessage) Validate() error {
	if strings.TrimSpace(m.Request.State) == "" {
		return commandValidationError("state", "state is required")
	}
	if strings.TrimSpace(m.Request.Code) == "" {
		return commandValidationError("code", "authorization code is required")
	}
	return nil
}

type RefreshMessage struct {
	Request core.EnsureFreshRequest
}

func (RefreshMessage) Type() string { return TypeRefresh }

func (m RefreshMessage) Validate() error {
	if strings.TrimSpace(m.Request.ExternalID) == "" {
		return commandValidationError("external_id", "external id is required")
	}
	return nil
}

type SetFlagMessage struct {
	Kind    core.AccountKeyKind
	ID      string
	Granted bool
}

func (SetFlagMessage) Type() string { return TypeSetFlag }

func (m SetFlagMessage) Validate() error {
	if err := m.Kind.Validate(); err != nil {
		return commandValidationError("kind", err.Error())
	}
	if strings.TrimSpace(m.ID) == "" {
		return commandValidationError("id", "account identifier is required")
	}
	return nil
}

type ResetFlagsMessage struct{}

func (ResetFlagsMessage) Type() string { return TypeResetFlags }

func (ResetFlagsMessage) Validate() error { return nil }

type UnlinkMessage struct {
	Kind core.AccountKeyKind
	ID   string
}

func (UnlinkMessage) Type() string { return TypeUnlink }

func (m UnlinkMessage) Validate() error {
	if err := m.Kind.Validate(); err != nil {
		return commandValidationError("kind", err.Error())
	}
	if strings.TrimSpace(m.ID) == "" {
		return commandValidationError("id", "account identifier is required")
	}
	return nil
}
