package command

import (
	"context"

	"github.com/goliatone/go-accountlink/core"
	gocmd "github.com/goliatone/go-command"
)

// MutatingService is the slice of the core service the commands mutate
// through.
type MutatingService interface {
	BeginLink(ctx context.Context, externalID string) (core.BeginLinkResult, error)
	CompleteLink(ctx context.Context, req core.CompleteLinkRequest) (core.CompleteLinkResult, error)
	EnsureFresh(ctx context.Context, req core.EnsureFreshRequest) (core.EnsureFreshResult, error)
	SetFlag(ctx context.Context, kind core.AccountKeyKind, id string, granted bool) error
	ResetAllFlags(ctx context.Context) error
	Unlink(ctx context.Context, kind core.AccountKeyKind, id string) error
}

type BeginLinkCommand struct {
	service MutatingService
}

func NewBeginLinkCommand(service MutatingService) *BeginLinkCommand {
	return &BeginLinkCommand{service: service}
}

func (c *BeginLinkCommand) Execute(ctx context.Context, msg BeginLinkMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: begin link service is required")
	}
	out, err := c.service.BeginLink(ctx, msg.ExternalID)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type CompleteLinkCommand struct {
	service MutatingService
}

func NewCompleteLinkCommand(service MutatingService) *CompleteLinkCommand {
	return &CompleteLinkCommand{service: service}
}

func (c *CompleteLinkCommand) Execute(ctx context.Context, msg CompleteLinkMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: complete link service is required")
	}
	out, err := c.service.CompleteLink(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RefreshCommand struct {
	service MutatingService
}

func NewRefreshCommand(service MutatingService) *RefreshCommand {
	return &RefreshCommand{service: service}
}

func (c *RefreshCommand) Execute(ctx context.Context, msg RefreshMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: refresh service is required")
	}
	out, err := c.service.EnsureFresh(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type SetFlagCommand struct {
	service MutatingService
}

func NewSetFlagCommand(service MutatingService) *SetFlagCommand {
	return &SetFlagCommand{service: service}
}

func (c *SetFlagCommand) Execute(ctx context.Context, msg SetFlagMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: flag service is required")
	}
	return c.service.SetFlag(ctx, msg.Kind, msg.ID, msg.Granted)
}

type ResetFlagsCommand struct {
	service MutatingService
}

func NewResetFlagsCommand(service MutatingService) *ResetFlagsCommand {
	return &ResetFlagsCommand{service: service}
}

func (c *ResetFlagsCommand) Execute(ctx context.Context, msg ResetFlagsMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: flag service is required")
	}
	return c.service.ResetAllFlags(ctx)
}

type UnlinkCommand struct {
	service MutatingService
}

func NewUnlinkCommand(service MutatingService) *UnlinkCommand {
	return &UnlinkCommand{service: service}
}

func (c *UnlinkCommand) Execute(ctx context.Context, msg UnlinkMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: unlink service is required")
	}
	return c.service.Unlink(ctx, msg.Kind, msg.ID)
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
