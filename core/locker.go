package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

const defaultRefreshLockTTL = 30 * time.Second

// MemoryAccountLocker is an in-process per-account lock with TTL expiry.
// Acquire blocks while another holder owns the key and returns once the
// holder unlocks or its TTL lapses, so concurrent refreshes for one account
// serialize instead of failing; other keys never contend. The TTL is the
// deadlock bound: a holder that never unlocks stalls waiters for at most
// one TTL.
type MemoryAccountLocker struct {
	mu    sync.Mutex
	locks map[string]*memoryLock
	nowFn func() time.Time
}

type memoryLock struct {
	expiresAt time.Time
	released  chan struct{}
}

func NewMemoryAccountLocker() *MemoryAccountLocker {
	return &MemoryAccountLocker{
		locks: make(map[string]*memoryLock),
		nowFn: func() time.Time { return time.Now().UTC() },
	}
}

func (l *MemoryAccountLocker) Acquire(ctx context.Context, accountKey string, ttl time.Duration) (LockHandle, error) {
	if l == nil {
		return nil, fmt.Errorf("core: account locker is not configured")
	}
	accountKey = strings.TrimSpace(accountKey)
	if accountKey == "" {
		return nil, fmt.Errorf("core: account key is required for lock acquisition")
	}
	if ttl <= 0 {
		ttl = defaultRefreshLockTTL
	}
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		l.mu.Lock()
		now := l.nowFn()
		current, held := l.locks[accountKey]
		if held && now.Before(current.expiresAt) {
			released := current.released
			remaining := current.expiresAt.Sub(now)
			l.mu.Unlock()

			timer := time.NewTimer(remaining)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, fmt.Errorf("core: refresh lock wait for account %q: %w", accountKey, ctx.Err())
			case <-released:
				timer.Stop()
			case <-timer.C:
			}
			continue
		}

		next := &memoryLock{
			expiresAt: now.Add(ttl),
			released:  make(chan struct{}),
		}
		l.locks[accountKey] = next
		l.mu.Unlock()
		return &memoryLockHandle{locker: l, accountKey: accountKey, entry: next}, nil
	}
}

type memoryLockHandle struct {
	locker     *MemoryAccountLocker
	accountKey string
	entry      *memoryLock
	once       sync.Once
}

// Unlock releases the lock and wakes waiters. A stale handle whose TTL
// already lapsed and whose key was taken over never releases the successor.
func (h *memoryLockHandle) Unlock(_ context.Context) error {
	if h == nil || h.locker == nil || h.entry == nil {
		return nil
	}
	h.once.Do(func() {
		h.locker.mu.Lock()
		if current, ok := h.locker.locks[h.accountKey]; ok && current == h.entry {
			delete(h.locker.locks, h.accountKey)
		}
		close(h.entry.released)
		h.locker.mu.Unlock()
	})
	return nil
}

var _ AccountLocker = (*MemoryAccountLocker)(nil)
