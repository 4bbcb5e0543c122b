package sqlstore

import (
	"strings"
	"time"

	"github.com/goliatone/go-accountlink/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type linkedAccountRecord struct {
	bun.BaseModel `bun:"table:linked_accounts,alias:la"`

	ID                string    `bun:"id,pk"`
	ExternalID        string    `bun:"external_id,notnull,unique"`
	ProviderAccountID string    `bun:"provider_account_id,notnull,unique"`
	ProviderUsername  string    `bun:"provider_username"`
	RefreshToken      string    `bun:"refresh_token,notnull,unique"`
	AccessToken       string    `bun:"access_token,notnull,unique"`
	LastRefreshedAt   time.Time `bun:"last_refreshed_at,notnull"`
	CreatedAt         time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt         time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func newLinkedAccountRecord(account core.LinkedAccount, now time.Time) *linkedAccountRecord {
	id := strings.TrimSpace(account.ID)
	if id == "" {
		id = uuid.NewString()
	}
	return &linkedAccountRecord{
		ID:                id,
		ExternalID:        strings.TrimSpace(account.ExternalID),
		ProviderAccountID: strings.TrimSpace(account.ProviderAccountID),
		ProviderUsername:  strings.TrimSpace(account.ProviderUsername),
		RefreshToken:      account.RefreshToken,
		AccessToken:       account.AccessToken,
		LastRefreshedAt:   account.LastRefreshedAt.UTC(),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func (r *linkedAccountRecord) toDomain() core.LinkedAccount {
	if r == nil {
		return core.LinkedAccount{}
	}
	return core.LinkedAccount{
		ID:                r.ID,
		ExternalID:        r.ExternalID,
		ProviderAccountID: r.ProviderAccountID,
		ProviderUsername:  r.ProviderUsername,
		RefreshToken:      r.RefreshToken,
		AccessToken:       r.AccessToken,
		LastRefreshedAt:   r.LastRefreshedAt,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

type distributionFlagRecord struct {
	bun.BaseModel `bun:"table:distribution_flags,alias:df"`

	ID                string    `bun:"id,pk"`
	ProviderAccountID string    `bun:"provider_account_id,notnull,unique"`
	ExternalID        string    `bun:"external_id,notnull"`
	Granted           bool      `bun:"granted,notnull"`
	CreatedAt         time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt         time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func newDistributionFlagRecord(flag core.DistributionFlag, now time.Time) *distributionFlagRecord {
	return &distributionFlagRecord{
		ID:                uuid.NewString(),
		ProviderAccountID: strings.TrimSpace(flag.ProviderAccountID),
		ExternalID:        strings.TrimSpace(flag.ExternalID),
		Granted:           flag.Granted,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func (r *distributionFlagRecord) toDomain() core.DistributionFlag {
	if r == nil {
		return core.DistributionFlag{}
	}
	return core.DistributionFlag{
		ProviderAccountID: r.ProviderAccountID,
		ExternalID:        r.ExternalID,
		Granted:           r.Granted,
		UpdatedAt:         r.UpdatedAt,
	}
}
