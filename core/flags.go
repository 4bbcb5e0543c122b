package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SetFlag records whether the one-time benefit was granted for a linked pair,
// addressed by either identifier.
func (s *Service) SetFlag(ctx context.Context, kind AccountKeyKind, id string, granted bool) (err error) {
	if s == nil {
		return fmt.Errorf("core: service is nil")
	}
	startedAt := time.Now().UTC()
	fields := map[string]any{"kind": string(kind), "id": id, "granted": granted}
	defer func() {
		s.observeOperation(ctx, startedAt, "set_flag", err, fields)
	}()

	if err = s.requireFlagFeature(); err != nil {
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

	flag, resolveErr := s.resolveFlagIdentifiers(ctx, kind, id)
	if resolveErr != nil {
		err = s.mapError(resolveErr)
		return err
	}
	flag.Granted = granted
	flag.UpdatedAt = time.Now().UTC()

	if setErr := s.flagStore.Set(ctx, flag); setErr != nil {
		err = s.mapError(setErr)
		return err
	}
	return nil
}

// FlagGranted reports whether the benefit was already granted. A missing flag
// row reads as granted: callers treat an absent record as already-consumed
// rather than handing out a second benefit.
func (s *Service) FlagGranted(ctx context.Context, kind AccountKeyKind, id string) (granted bool, err error) {
	if s == nil {
		return false, fmt.Errorf("core: service is nil")
	}
	startedAt := time.Now().UTC()
	fields := map[string]any{"kind": string(kind), "id": id}
	defer func() {
		s.observeOperation(ctx, startedAt, "flag_granted", err, fields)
	}()

	if err = s.requireFlagFeature(); err != nil {
		return false, err
	}
	if validateErr := kind.Validate(); validateErr != nil {
		err = s.mapError(validateErr)
		return false, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		err = s.mapError(fmt.Errorf("core: account id is required"))
		return false, err
	}

	flag, getErr := s.flagStore.Get(ctx, kind, id)
	if getErr != nil {
		if errors.Is(getErr, ErrFlagNotFound) {
			s.logError(ctx, "distribution flag missing, defaulting to granted", cloneFields(fields))
			return true, nil
		}
		err = s.mapError(getErr)
		return false, err
	}
	return flag.Granted, nil
}

// ResetAllFlags clears every distribution flag to false in one bulk write.
func (s *Service) ResetAllFlags(ctx context.Context) (err error) {
	if s == nil {
		return fmt.Errorf("core: service is nil")
	}
	startedAt := time.Now().UTC()
	defer func() {
		s.observeOperation(ctx, startedAt, "reset_flags", err, nil)
	}()

	if err = s.requireFlagFeature(); err != nil {
		return err
	}
	if resetErr := s.flagStore.ResetAll(ctx); resetErr != nil {
		err = s.mapError(resetErr)
		return err
	}
	return nil
}

func (s *Service) requireFlagFeature() error {
	if !s.config.Features.DistributionFlags {
		return FeatureDisabledError("core: distribution flags are disabled")
	}
	if s.flagStore == nil {
		return s.mapError(fmt.Errorf("core: flag store is not configured"))
	}
	return nil
}

// resolveFlagIdentifiers fills both identifiers for a flag write so the row
// stays addressable by either key.
func (s *Service) resolveFlagIdentifiers(ctx context.Context, kind AccountKeyKind, id string) (DistributionFlag, error) {
	if s.accountStore == nil {
		return DistributionFlag{}, fmt.Errorf("core: account store is not configured")
	}
	var account LinkedAccount
	var err error
	switch kind {
	case KeyExternal:
		account, err = s.accountStore.GetByExternalID(ctx, id)
	case KeyProviderAccount:
		account, err = s.accountStore.GetByProviderAccountID(ctx, id)
	default:
		return DistributionFlag{}, fmt.Errorf("core: invalid account key kind %q", kind)
	}
	if err != nil {
		return DistributionFlag{}, err
	}
	return DistributionFlag{
		ProviderAccountID: account.ProviderAccountID,
		ExternalID:        account.ExternalID,
	}, nil
}
