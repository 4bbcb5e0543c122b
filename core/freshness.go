package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// TokenAge reports how long ago the account's token pair was last refreshed.
func TokenAge(now time.Time, account LinkedAccount) time.Duration {
	if now.IsZero() {
		now = time.Now().UTC()
	} else {
		now = now.UTC()
	}
	if account.LastRefreshedAt.IsZero() {
		return now.Sub(time.Time{})
	}
	return now.Sub(account.LastRefreshedAt.UTC())
}

// IsTokenStale reports whether the pair has aged past the staleness
// threshold. The comparison is a plain duration against wall-clock time, not
// a calendar boundary.
func IsTokenStale(now time.Time, account LinkedAccount, threshold time.Duration) bool {
	if threshold <= 0 {
		threshold = DefaultStalenessThreshold
	}
	return TokenAge(now, account) >= threshold
}

// EnsureFreshRequest gates a provider call behind a freshness check.
type EnsureFreshRequest struct {
	ExternalID string
	Force      bool
	LockTTL    time.Duration
}

// EnsureFreshResult reports the resolved account and whether a refresh
// round-trip actually happened.
type EnsureFreshResult struct {
	Account          LinkedAccount
	RefreshAttempted bool
	Refreshed        bool
}

// EnsureFresh loads the linked account and transparently refreshes its token
// pair when the staleness threshold has elapsed or Force is set. A fresh pair
// is persisted before return; on provider failure the stored record is left
// untouched and a typed failure is returned. Concurrent calls for the same
// account collapse behind a per-account lock into a single round-trip.
func (s *Service) EnsureFresh(ctx context.Context, req EnsureFreshRequest) (result EnsureFreshResult, err error) {
	if s == nil {
		return EnsureFreshResult{}, fmt.Errorf("core: service is nil")
	}
	startedAt := time.Now().UTC()
	fields := map[string]any{"external_id": req.ExternalID, "force": req.Force}
	defer func() {
		s.observeOperation(ctx, startedAt, "ensure_fresh", err, fields)
	}()

	externalID := strings.TrimSpace(req.ExternalID)
	if externalID == "" {
		err = s.mapError(fmt.Errorf("core: external id is required"))
		return EnsureFreshResult{}, err
	}
	if s.accountStore == nil {
		err = s.mapError(fmt.Errorf("core: account store is not configured"))
		return EnsureFreshResult{}, err
	}

	account, loadErr := s.accountStore.GetByExternalID(ctx, externalID)
	if loadErr != nil {
		err = s.mapError(loadErr)
		return EnsureFreshResult{}, err
	}

	now := time.Now().UTC()
	threshold := s.config.stalenessThreshold()
	if !req.Force && !IsTokenStale(now, account, threshold) {
		result = EnsureFreshResult{Account: account}
		return result, nil
	}

	unlock := func() {}
	if s.accountLocker != nil {
		lockTTL := req.LockTTL
		if lockTTL <= 0 {
			lockTTL = defaultRefreshLockTTL
		}
		handle, lockErr := s.accountLocker.Acquire(ctx, externalID, lockTTL)
		if lockErr != nil {
			err = s.mapError(lockErr)
			return EnsureFreshResult{}, err
		}
		unlock = func() {
			_ = handle.Unlock(ctx)
		}
	}
	defer unlock()

	// Re-read under the lock: a concurrent caller may have finished the
	// refresh while this one waited for the lock.
	account, loadErr = s.accountStore.GetByExternalID(ctx, externalID)
	if loadErr != nil {
		err = s.mapError(loadErr)
		return EnsureFreshResult{}, err
	}
	if !req.Force && !IsTokenStale(time.Now().UTC(), account, threshold) {
		result = EnsureFreshResult{Account: account}
		return result, nil
	}

	result.RefreshAttempted = true
	refreshed, refreshErr := s.refreshAccount(ctx, account)
	if refreshErr != nil {
		err = refreshErr
		return result, err
	}
	result.Account = refreshed
	result.Refreshed = true
	return result, nil
}

// refreshAccount performs exactly one refresh exchange and persists the
// result. The stored record is only written after the provider reports
// success, so a failed exchange leaves the old pair valid.
func (s *Service) refreshAccount(ctx context.Context, account LinkedAccount) (LinkedAccount, error) {
	if s.provider == nil {
		return LinkedAccount{}, s.mapError(fmt.Errorf("core: identity provider is not configured"))
	}

	pair, err := s.provider.RefreshTokenPair(ctx, account.RefreshToken)
	if err != nil {
		return LinkedAccount{}, s.mapError(err)
	}
	if err := pair.Validate(); err != nil {
		return LinkedAccount{}, s.mapError(UpstreamError("provider returned malformed token payload: " + err.Error()))
	}

	updated, err := s.accountStore.UpdateTokens(ctx, account.ID, pair, time.Now().UTC())
	if err != nil {
		return LinkedAccount{}, s.mapError(err)
	}
	if s.cache != nil {
		s.cache.Set(updated.ExternalID, updated.Redacted())
	}
	return updated, nil
}

// OnBehalfAction receives a fresh access token for a provider call made on
// behalf of the linked user.
type OnBehalfAction func(ctx context.Context, accessToken string) error

// CallOnBehalf ensures token freshness and then invokes action with the
// (possibly just-rotated) access token. A failed freshness check propagates
// without invoking action.
func (s *Service) CallOnBehalf(ctx context.Context, externalID string, action OnBehalfAction) error {
	if s == nil {
		return fmt.Errorf("core: service is nil")
	}
	if action == nil {
		return s.mapError(fmt.Errorf("core: action is required"))
	}
	result, err := s.EnsureFresh(ctx, EnsureFreshRequest{ExternalID: externalID})
	if err != nil {
		return err
	}
	return action(ctx, result.Account.AccessToken)
}
