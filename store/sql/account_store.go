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

// AccountStore persists linked accounts. Uniqueness of external id, provider
// account id, and token values is enforced by the schema; a violated
// constraint surfaces as core.ErrLinkConflict and that signal, not any
// pre-insert probe, decides duplicate links.
type AccountStore struct {
	db       *bun.DB
	repo     repository.Repository[*linkedAccountRecord]
	flagRepo repository.Repository[*distributionFlagRecord]
}

func (s *AccountStore) Create(ctx context.Context, account core.LinkedAccount, flag *core.DistributionFlag) (core.LinkedAccount, error) {
	if s == nil || s.repo == nil || s.db == nil {
		return core.LinkedAccount{}, fmt.Errorf("sqlstore: account store is not configured")
	}
	if strings.TrimSpace(account.ExternalID) == "" {
		return core.LinkedAccount{}, fmt.Errorf("sqlstore: external id is required")
	}
	if strings.TrimSpace(account.ProviderAccountID) == "" {
		return core.LinkedAccount{}, fmt.Errorf("sqlstore: provider account id is required")
	}

	now := time.Now().UTC()
	var created core.LinkedAccount
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record := newLinkedAccountRecord(account, now)
		inserted, createErr := s.repo.CreateTx(ctx, tx, record)
		if createErr != nil {
			return createErr
		}
		if flag != nil {
			flagRecord := newDistributionFlagRecord(*flag, now)
			flagRecord.ExternalID = inserted.ExternalID
			if flagRecord.ProviderAccountID == "" {
				flagRecord.ProviderAccountID = inserted.ProviderAccountID
			}
			if _, flagErr := s.flagRepo.CreateTx(ctx, tx, flagRecord); flagErr != nil {
				return flagErr
			}
		}
		created = inserted.toDomain()
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return core.LinkedAccount{}, fmt.Errorf("%w: %s", core.ErrLinkConflict, err.Error())
		}
		return core.LinkedAccount{}, err
	}
	return created, nil
}

func (s *AccountStore) GetByExternalID(ctx context.Context, externalID string) (core.LinkedAccount, error) {
	return s.getByColumn(ctx, "external_id", externalID)
}

func (s *AccountStore) GetByProviderAccountID(ctx context.Context, providerAccountID string) (core.LinkedAccount, error) {
	return s.getByColumn(ctx, "provider_account_id", providerAccountID)
}

func (s *AccountStore) GetByID(ctx context.Context, id string) (core.LinkedAccount, error) {
	if s == nil || s.repo == nil {
		return core.LinkedAccount{}, fmt.Errorf("sqlstore: account store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return core.LinkedAccount{}, fmt.Errorf("sqlstore: account id is required")
	}
	record, err := s.repo.GetByID(ctx, id)
	if err != nil || record == nil {
		return core.LinkedAccount{}, fmt.Errorf("%w: id %q", core.ErrAccountNotFound, id)
	}
	return record.toDomain(), nil
}

func (s *AccountStore) GetAll(ctx context.Context) ([]core.LinkedAccount, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: account store is not configured")
	}
	records, _, err := s.repo.List(ctx, repository.OrderBy("created_at ASC"))
	if err != nil {
		return nil, err
	}
	accounts := make([]core.LinkedAccount, 0, len(records))
	for _, record := range records {
		accounts = append(accounts, record.toDomain())
	}
	return accounts, nil
}

// UpdateTokens overwrites the token pair. The timestamp guard in the WHERE
// clause keeps LastRefreshedAt monotonic: a refresh result arriving after a
// newer one landed updates zero rows and is rejected.
func (s *AccountStore) UpdateTokens(ctx context.Context, id string, pair core.TokenPair, refreshedAt time.Time) (core.LinkedAccount, error) {
	if s == nil || s.repo == nil || s.db == nil {
		return core.LinkedAccount{}, fmt.Errorf("sqlstore: account store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return core.LinkedAccount{}, fmt.Errorf("sqlstore: account id is required")
	}
	if err := pair.Validate(); err != nil {
		return core.LinkedAccount{}, err
	}

	refreshedAt = refreshedAt.UTC()
	result, err := s.db.NewUpdate().
		Model((*linkedAccountRecord)(nil)).
		Set("access_token = ?", pair.AccessToken).
		Set("refresh_token = ?", pair.RefreshToken).
		Set("last_refreshed_at = ?", refreshedAt).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Where("last_refreshed_at <= ?", refreshedAt).
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return core.LinkedAccount{}, fmt.Errorf("%w: %s", core.ErrLinkConflict, err.Error())
		}
		return core.LinkedAccount{}, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return core.LinkedAccount{}, err
	}
	if affected == 0 {
		current, getErr := s.repo.GetByID(ctx, id)
		if getErr != nil || current == nil {
			return core.LinkedAccount{}, fmt.Errorf("%w: id %q", core.ErrAccountNotFound, id)
		}
		return core.LinkedAccount{}, fmt.Errorf(
			"sqlstore: refresh timestamp %s is older than stored %s for account %q",
			refreshedAt.Format(time.RFC3339),
			current.LastRefreshedAt.Format(time.RFC3339),
			id,
		)
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return core.LinkedAccount{}, err
	}
	return updated.toDomain(), nil
}

func (s *AccountStore) Delete(ctx context.Context, kind core.AccountKeyKind, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: account store is not configured")
	}
	if err := kind.Validate(); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("sqlstore: account identifier is required")
	}

	result, err := s.db.NewDelete().
		Model((*linkedAccountRecord)(nil)).
		Where(accountKeyColumn(kind)+" = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s %q", core.ErrAccountNotFound, string(kind), id)
	}
	return nil
}

func (s *AccountStore) getByColumn(ctx context.Context, column string, value string) (core.LinkedAccount, error) {
	if s == nil || s.repo == nil {
		return core.LinkedAccount{}, fmt.Errorf("sqlstore: account store is not configured")
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return core.LinkedAccount{}, fmt.Errorf("sqlstore: account identifier is required")
	}

	records, _, err := s.repo.List(ctx,
		repository.SelectBy(column, "=", value),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.LinkedAccount{}, err
	}
	if len(records) == 0 {
		return core.LinkedAccount{}, fmt.Errorf("%w: %s %q", core.ErrAccountNotFound, column, value)
	}
	return records[0].toDomain(), nil
}

func accountKeyColumn(kind core.AccountKeyKind) string {
	if kind == core.KeyProviderAccount {
		return "provider_account_id"
	}
	return "external_id"
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed") ||
		strings.Contains(message, "duplicate key value violates unique constraint")
}
