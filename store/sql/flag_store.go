package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-accountlink/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// FlagStore persists distribution flags, one row per provider account id.
type FlagStore struct {
	db   *bun.DB
	repo repository.Repository[*distributionFlagRecord]
}

func (s *FlagStore) Set(ctx context.Context, flag core.DistributionFlag) error {
	if s == nil || s.repo == nil || s.db == nil {
		return fmt.Errorf("sqlstore: flag store is not configured")
	}
	flag.ProviderAccountID = strings.TrimSpace(flag.ProviderAccountID)
	flag.ExternalID = strings.TrimSpace(flag.ExternalID)
	if flag.ProviderAccountID == "" {
		return fmt.Errorf("sqlstore: provider account id is required")
	}

	now := time.Now().UTC()
	result, err := s.db.NewUpdate().
		Model((*distributionFlagRecord)(nil)).
		Set("granted = ?", flag.Granted).
		Set("updated_at = ?", now).
		Where("provider_account_id = ?", flag.ProviderAccountID).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	record := newDistributionFlagRecord(flag, now)
	if _, err := s.repo.Create(ctx, record); err != nil {
		return err
	}
	return nil
}

func (s *FlagStore) Get(ctx context.Context, kind core.AccountKeyKind, id string) (core.DistributionFlag, error) {
	if s == nil || s.repo == nil {
		return core.DistributionFlag{}, fmt.Errorf("sqlstore: flag store is not configured")
	}
	if err := kind.Validate(); err != nil {
		return core.DistributionFlag{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return core.DistributionFlag{}, fmt.Errorf("sqlstore: flag identifier is required")
	}

	records, _, err := s.repo.List(ctx,
		repository.SelectBy(flagKeyColumn(kind), "=", id),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.DistributionFlag{}, err
	}
	if len(records) == 0 {
		return core.DistributionFlag{}, fmt.Errorf("%w: %s %q", core.ErrFlagNotFound, string(kind), id)
	}
	return records[0].toDomain(), nil
}

// ResetAll clears every flag back to not granted.
func (s *FlagStore) ResetAll(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: flag store is not configured")
	}
	_, err := s.db.NewUpdate().
		Model((*distributionFlagRecord)(nil)).
		Set("granted = ?", false).
		Set("updated_at = ?", time.Now().UTC()).
		Where("granted = ?", true).
		Exec(ctx)
	return err
}

func (s *FlagStore) Delete(ctx context.Context, kind core.AccountKeyKind, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: flag store is not configured")
	}
	if err := kind.Validate(); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("sqlstore: flag identifier is required")
	}

	_, err := s.db.NewDelete().
		Model((*distributionFlagRecord)(nil)).
		Where(flagKeyColumn(kind)+" = ?", id).
		Exec(ctx)
	return err
}

func flagKeyColumn(kind core.AccountKeyKind) string {
	if kind == core.KeyExternal {
		return "external_id"
	}
	return "provider_account_id"
}
