package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// Clearer is the slice of the cache the janitor needs.
type Clearer interface {
	Clear()
}

// Janitor fully invalidates a cache on a fixed interval. The clear is an
// atomic state swap inside the cache, so readers either see the old content
// or an empty cache, never something in between. A cached value can
// therefore be served for up to one interval after the backing record
// changed elsewhere; that window is the design tradeoff, not a bug.
type Janitor struct {
	interval time.Duration
	target   Clearer
	logger   glog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type JanitorOption func(*Janitor)

func WithLogger(logger glog.Logger) JanitorOption {
	return func(j *Janitor) {
		j.logger = logger
	}
}

func NewJanitor(target Clearer, interval time.Duration, opts ...JanitorOption) (*Janitor, error) {
	if target == nil {
		return nil, fmt.Errorf("cache: janitor target is required")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("cache: janitor interval must be positive, got %s", interval)
	}
	janitor := &Janitor{
		interval: interval,
		target:   target,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(janitor)
	}
	janitor.logger = glog.Ensure(janitor.logger)
	return janitor, nil
}

// Start launches the invalidation loop. The loop stops when ctx is cancelled
// or Stop is called. Calling Start on a running janitor is a no-op.
func (j *Janitor) Start(ctx context.Context) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cancel != nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	loopCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	done := make(chan struct{})
	j.done = done

	go func() {
		defer close(done)
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				j.target.Clear()
				j.logger.Info("cache invalidated", "interval", j.interval.String())
			}
		}
	}()
}

// Stop halts the loop and waits for it to exit. Safe to call twice.
func (j *Janitor) Stop() {
	if j == nil {
		return
	}
	j.mu.Lock()
	cancel := j.cancel
	done := j.done
	j.cancel = nil
	j.done = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}
