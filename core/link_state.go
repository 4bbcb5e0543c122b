package core

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"
)

const defaultLinkStateTTL = 15 * time.Minute

// LinkStateRecord binds a single-use authorization state to the external
// account that initiated the link.
type LinkStateRecord struct {
	State      string
	ExternalID string
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

type MemoryLinkStateStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]LinkStateRecord
}

func NewMemoryLinkStateStore(ttl time.Duration) *MemoryLinkStateStore {
	if ttl <= 0 {
		ttl = defaultLinkStateTTL
	}
	return &MemoryLinkStateStore{
		ttl:     ttl,
		entries: map[string]LinkStateRecord{},
	}
}

func (s *MemoryLinkStateStore) Save(_ context.Context, record LinkStateRecord) error {
	if s == nil {
		return fmt.Errorf("core: link state store is not configured")
	}
	state := strings.TrimSpace(record.State)
	if state == "" {
		return fmt.Errorf("core: link state is required")
	}

	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.ExpiresAt.IsZero() {
		record.ExpiresAt = record.CreatedAt.Add(s.ttl)
	}

	s.mu.Lock()
	s.entries[state] = record
	s.mu.Unlock()

	return nil
}

func (s *MemoryLinkStateStore) Consume(_ context.Context, state string) (LinkStateRecord, error) {
	if s == nil {
		return LinkStateRecord{}, fmt.Errorf("core: link state store is not configured")
	}
	state = strings.TrimSpace(state)
	if state == "" {
		return LinkStateRecord{}, fmt.Errorf("core: link state is required")
	}

	s.mu.Lock()
	record, ok := s.entries[state]
	if ok {
		delete(s.entries, state)
	}
	s.mu.Unlock()

	if !ok {
		return LinkStateRecord{}, fmt.Errorf("core: link state not found")
	}
	if !record.ExpiresAt.IsZero() && time.Now().UTC().After(record.ExpiresAt) {
		return LinkStateRecord{}, fmt.Errorf("core: link state expired")
	}

	return record, nil
}

func generateLinkState() (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("core: generate link state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

var _ LinkStateStore = (*MemoryLinkStateStore)(nil)
