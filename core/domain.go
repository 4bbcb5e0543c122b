package core

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrAccountNotFound = errors.New("core: linked account not found")
	ErrLinkConflict    = errors.New("core: account already linked")
	ErrFlagNotFound    = errors.New("core: distribution flag not found")
)

// LinkedAccount is one completed link between an external-system account and
// an identity-provider account. ExternalID and ProviderAccountID are each
// unique across all records; token values are unique at rest.
// LastRefreshedAt never moves backwards for a given record.
type LinkedAccount struct {
	ID                string
	ExternalID        string
	ProviderAccountID string
	ProviderUsername  string
	RefreshToken      string
	AccessToken       string
	LastRefreshedAt   time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Redacted strips secrets and the surrogate id for read surfaces.
func (a LinkedAccount) Redacted() AccountView {
	return AccountView{
		ExternalID:        strings.TrimSpace(a.ExternalID),
		ProviderAccountID: strings.TrimSpace(a.ProviderAccountID),
		ProviderUsername:  strings.TrimSpace(a.ProviderUsername),
		LastRefreshedAt:   a.LastRefreshedAt,
	}
}

// AccountView is the sanitized shape returned by lookups. It never carries
// token values or the surrogate id.
type AccountView struct {
	ExternalID        string
	ProviderAccountID string
	ProviderUsername  string
	LastRefreshedAt   time.Time
}

// TokenPair is the access/refresh pair returned by the provider's token
// endpoint.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

func (p TokenPair) Validate() error {
	if strings.TrimSpace(p.AccessToken) == "" {
		return errors.New("core: access token is required")
	}
	if strings.TrimSpace(p.RefreshToken) == "" {
		return errors.New("core: refresh token is required")
	}
	return nil
}

// Identity is the provider-side account identity resolved after an exchange.
type Identity struct {
	ProviderAccountID string
	Username          string
}

func (i Identity) Validate() error {
	if strings.TrimSpace(i.ProviderAccountID) == "" {
		return errors.New("core: provider account id is required")
	}
	return nil
}

// DistributionFlag marks whether a one-time benefit has been granted to a
// linked pair. Unique per provider account id.
type DistributionFlag struct {
	ProviderAccountID string
	ExternalID        string
	Granted           bool
	UpdatedAt         time.Time
}

// AccountKeyKind selects which identifier a lookup or deletion addresses.
type AccountKeyKind string

const (
	KeyExternal        AccountKeyKind = "external"
	KeyProviderAccount AccountKeyKind = "provider"
)

func (k AccountKeyKind) Validate() error {
	switch k {
	case KeyExternal, KeyProviderAccount:
		return nil
	}
	return errors.New("core: invalid account key kind " + strings.TrimSpace(string(k)))
}
