package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Lookup returns the sanitized record for an external account id, consulting
// the bounded cache first. A hit may be stale up to the cache invalidation
// interval; the store remains the single source of truth.
func (s *Service) Lookup(ctx context.Context, externalID string) (view AccountView, err error) {
	if s == nil {
		return AccountView{}, fmt.Errorf("core: service is nil")
	}
	startedAt := time.Now().UTC()
	fields := map[string]any{"external_id": externalID}
	defer func() {
		s.observeOperation(ctx, startedAt, "lookup", err, fields)
	}()

	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		err = s.mapError(fmt.Errorf("core: external id is required"))
		return AccountView{}, err
	}

	if s.cache != nil {
		if cached, ok := s.cache.Get(externalID); ok {
			fields["cache_hit"] = true
			return cached, nil
		}
	}

	if s.accountStore == nil {
		err = s.mapError(fmt.Errorf("core: account store is not configured"))
		return AccountView{}, err
	}
	account, loadErr := s.accountStore.GetByExternalID(ctx, externalID)
	if loadErr != nil {
		err = s.mapError(loadErr)
		return AccountView{}, err
	}

	view = account.Redacted()
	if s.cache != nil {
		s.cache.Set(externalID, view)
	}
	return view, nil
}

// LookupByProviderAccount resolves a link by the provider-side account id.
// This path is uncached: it serves admin-style reverse lookups, not the
// read-heavy identity checks the cache exists for.
func (s *Service) LookupByProviderAccount(ctx context.Context, providerAccountID string) (view AccountView, err error) {
	if s == nil {
		return AccountView{}, fmt.Errorf("core: service is nil")
	}
	startedAt := time.Now().UTC()
	fields := map[string]any{"provider_account_id": providerAccountID}
	defer func() {
		s.observeOperation(ctx, startedAt, "lookup_provider", err, fields)
	}()

	providerAccountID = strings.TrimSpace(providerAccountID)
	if providerAccountID == "" {
		err = s.mapError(fmt.Errorf("core: provider account id is required"))
		return AccountView{}, err
	}
	if s.accountStore == nil {
		err = s.mapError(fmt.Errorf("core: account store is not configured"))
		return AccountView{}, err
	}

	account, loadErr := s.accountStore.GetByProviderAccountID(ctx, providerAccountID)
	if loadErr != nil {
		err = s.mapError(loadErr)
		return AccountView{}, err
	}
	view = account.Redacted()
	return view, nil
}

// ListAccounts returns the sanitized view of every linked account, straight
// from the store.
func (s *Service) ListAccounts(ctx context.Context) (views []AccountView, err error) {
	if s == nil {
		return nil, fmt.Errorf("core: service is nil")
	}
	startedAt := time.Now().UTC()
	defer func() {
		s.observeOperation(ctx, startedAt, "list_accounts", err, nil)
	}()

	if s.accountStore == nil {
		err = s.mapError(fmt.Errorf("core: account store is not configured"))
		return nil, err
	}
	accounts, loadErr := s.accountStore.GetAll(ctx)
	if loadErr != nil {
		err = s.mapError(loadErr)
		return nil, err
	}
	views = make([]AccountView, 0, len(accounts))
	for _, account := range accounts {
		views = append(views, account.Redacted())
	}
	return views, nil
}

// MemberRoles fetches the linked user's roles within a provider group, going
// through the freshness gate first.
func (s *Service) MemberRoles(ctx context.Context, externalID string, groupID string) (roles []string, err error) {
	if s == nil {
		return nil, fmt.Errorf("core: service is nil")
	}
	startedAt := time.Now().UTC()
	fields := map[string]any{"external_id": externalID, "group_id": groupID}
	defer func() {
		s.observeOperation(ctx, startedAt, "member_roles", err, fields)
	}()

	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		err = s.mapError(fmt.Errorf("core: group id is required"))
		return nil, err
	}
	if s.provider == nil {
		err = s.mapError(fmt.Errorf("core: identity provider is not configured"))
		return nil, err
	}

	err = s.CallOnBehalf(ctx, externalID, func(ctx context.Context, accessToken string) error {
		fetched, fetchErr := s.provider.FetchGroupMembership(ctx, accessToken, groupID)
		if fetchErr != nil {
			return fetchErr
		}
		roles = fetched
		return nil
	})
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}
	return roles, nil
}

// Unlink removes a linked account (and its distribution flag, when the flag
// feature is on) by either identifier. Deletion must be enabled in config.
// Safe to call concurrently with reads: the cache entry is dropped and later
// lookups fall through to the store.
func (s *Service) Unlink(ctx context.Context, kind AccountKeyKind, id string) (err error) {
	if s == nil {
		return fmt.Errorf("core: service is nil")
	}
	startedAt := time.Now().UTC()
	fields := map[string]any{"kind": string(kind), "id": id}
	defer func() {
		s.observeOperation(ctx, startedAt, "unlink", err, fields)
	}()

	if !s.config.Features.Deletion {
		err = FeatureDisabledError("core: deletion is disabled")
		return err
	}
	if validateErr := kind.Validate(); validateErr != nil {
		err = s.mapError(validateErr)
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		err = s.mapError(fmt.Errorf("core: account id is required"))
		return err
	}
	if s.accountStore == nil {
		err = s.mapError(fmt.Errorf("core: account store is not configured"))
		return err
	}

	// Resolve first so the cache key (external id) is known for either kind.
	var account LinkedAccount
	var loadErr error
	switch kind {
	case KeyExternal:
		account, loadErr = s.accountStore.GetByExternalID(ctx, id)
	case KeyProviderAccount:
		account, loadErr = s.accountStore.GetByProviderAccountID(ctx, id)
	}
	if loadErr != nil {
		err = s.mapError(loadErr)
		return err
	}

	if deleteErr := s.accountStore.Delete(ctx, kind, id); deleteErr != nil {
		err = s.mapError(deleteErr)
		return err
	}
	if s.config.Features.DistributionFlags && s.flagStore != nil {
		if deleteErr := s.flagStore.Delete(ctx, kind, id); deleteErr != nil {
			err = s.mapError(deleteErr)
			return err
		}
	}
	if s.cache != nil {
		s.cache.Delete(account.ExternalID)
	}
	return nil
}
