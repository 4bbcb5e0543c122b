package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// BeginLinkResult carries the authorization URL the user must visit and the
// single-use state bound to their external account.
type BeginLinkResult struct {
	URL   string
	State string
}

// BeginLink issues an authorization URL for the given external account. The
// state token is opaque and single-use; the external account id travels
// server-side in the state store, never inside the state value itself.
func (s *Service) BeginLink(ctx context.Context, externalID string) (result BeginLinkResult, err error) {
	if s == nil {
		return BeginLinkResult{}, fmt.Errorf("core: service is nil")
	}
	startedAt := time.Now().UTC()
	fields := map[string]any{"external_id": externalID}
	defer func() {
		s.observeOperation(ctx, startedAt, "begin_link", err, fields)
	}()

	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		err = s.mapError(fmt.Errorf("core: external id is required"))
		return BeginLinkResult{}, err
	}
	if s.provider == nil {
		err = s.mapError(fmt.Errorf("core: identity provider is not configured"))
		return BeginLinkResult{}, err
	}

	state, generateErr := generateLinkState()
	if generateErr != nil {
		err = s.mapError(generateErr)
		return BeginLinkResult{}, err
	}

	if s.linkStateStore != nil {
		saveErr := s.linkStateStore.Save(ctx, LinkStateRecord{
			State:      state,
			ExternalID: externalID,
			CreatedAt:  time.Now().UTC(),
		})
		if saveErr != nil {
			err = s.mapError(saveErr)
			return BeginLinkResult{}, err
		}
	}

	result = BeginLinkResult{
		URL:   s.provider.AuthorizationURL(state),
		State: state,
	}
	return result, nil
}

// CompleteLinkRequest finishes the linking workflow from an authorization
// callback.
type CompleteLinkRequest struct {
	State string
	Code  string
}

// CompleteLinkResult reports the created link.
type CompleteLinkResult struct {
	Account AccountView
}

// CompleteLink converts an authorization code into a durable LinkedAccount
// exactly once per identifier pair: consume state, exchange the code, resolve
// the provider identity, then insert the account row (and the distribution
// flag row when the feature is enabled) in one store transaction. Uniqueness
// lives in the store's constraints; a constraint violation surfaces as the
// Conflict outcome with zero rows written.
func (s *Service) CompleteLink(ctx context.Context, req CompleteLinkRequest) (result CompleteLinkResult, err error) {
	if s == nil {
		return CompleteLinkResult{}, fmt.Errorf("core: service is nil")
	}
	startedAt := time.Now().UTC()
	fields := map[string]any{}
	defer func() {
		s.observeOperation(ctx, startedAt, "complete_link", err, fields)
	}()

	if strings.TrimSpace(req.Code) == "" {
		err = s.mapError(fmt.Errorf("core: authorization code is required"))
		return CompleteLinkResult{}, err
	}
	if s.provider == nil {
		err = s.mapError(fmt.Errorf("core: identity provider is not configured"))
		return CompleteLinkResult{}, err
	}
	if s.accountStore == nil {
		err = s.mapError(fmt.Errorf("core: account store is not configured"))
		return CompleteLinkResult{}, err
	}
	if s.linkStateStore == nil {
		err = s.mapError(fmt.Errorf("core: link state store is not configured"))
		return CompleteLinkResult{}, err
	}

	stateRecord, stateErr := s.linkStateStore.Consume(ctx, req.State)
	if stateErr != nil {
		err = s.mapError(stateErr)
		return CompleteLinkResult{}, err
	}
	fields["external_id"] = stateRecord.ExternalID

	pair, exchangeErr := s.provider.ExchangeCode(ctx, req.Code)
	if exchangeErr != nil {
		err = s.mapError(exchangeErr)
		return CompleteLinkResult{}, err
	}
	if validateErr := pair.Validate(); validateErr != nil {
		err = s.mapError(UpstreamError("provider returned malformed token payload: " + validateErr.Error()))
		return CompleteLinkResult{}, err
	}

	identity, identityErr := s.provider.FetchIdentity(ctx, pair.AccessToken)
	if identityErr != nil {
		err = s.mapError(identityErr)
		return CompleteLinkResult{}, err
	}
	if validateErr := identity.Validate(); validateErr != nil {
		err = s.mapError(UpstreamError("provider returned no resolvable identity: " + validateErr.Error()))
		return CompleteLinkResult{}, err
	}
	fields["provider_account_id"] = identity.ProviderAccountID

	account := LinkedAccount{
		ExternalID:        stateRecord.ExternalID,
		ProviderAccountID: identity.ProviderAccountID,
		ProviderUsername:  identity.Username,
		RefreshToken:      pair.RefreshToken,
		AccessToken:       pair.AccessToken,
		LastRefreshedAt:   time.Now().UTC(),
	}

	var flag *DistributionFlag
	if s.config.Features.DistributionFlags {
		flag = &DistributionFlag{
			ProviderAccountID: identity.ProviderAccountID,
			ExternalID:        stateRecord.ExternalID,
			Granted:           false,
		}
	}

	created, createErr := s.accountStore.Create(ctx, account, flag)
	if createErr != nil {
		err = s.mapError(createErr)
		return CompleteLinkResult{}, err
	}

	if s.cache != nil {
		s.cache.Set(created.ExternalID, created.Redacted())
	}

	result = CompleteLinkResult{Account: created.Redacted()}
	return result, nil
}
