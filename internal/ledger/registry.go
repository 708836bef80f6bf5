package ledger

import (
	"context"
	"sync"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/storage"
)

// Registry keeps at most one open Ledger per account so that every caller
// shares the same per-account lock. Idle ledgers are evicted LRU.
type Registry struct {
	mu    sync.Mutex
	store storage.Store
	opts  Options
	cache *cache.LRU[string, *Ledger]
}

// NewRegistry holds up to size ledgers. A positive idleTTL lets
// CleanExpired drop ledgers unused for that long.
func NewRegistry(store storage.Store, size int, idleTTL time.Duration, opts Options) *Registry {
	return &Registry{
		store: store,
		opts:  opts,
		cache: cache.NewLRU[string, *Ledger](size, idleTTL, nil),
	}
}

// With runs fn against the ledger of accountID, opening it on first use.
// The ledger stays cached at least until fn returns.
func (r *Registry) With(ctx context.Context, accountID string, fn func(*Ledger) error) error {
	l, err := r.acquire(ctx, accountID)
	if err != nil {
		return err
	}
	defer r.cache.Unpin(accountID)
	return fn(l)
}

// Create makes a new account and caches its ledger.
func (r *Registry) Create(ctx context.Context, na NewAccount) (*Ledger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, err := Create(ctx, r.store, na, r.opts)
	if err != nil {
		return nil, err
	}
	r.cache.Set(l.ID(), l)
	return l, nil
}

func (r *Registry) Len() int { return r.cache.Size() }

// CleanExpired lets a cache.Manager expire idle ledgers.
func (r *Registry) CleanExpired() int { return r.cache.CleanExpired() }

func (r *Registry) acquire(ctx context.Context, accountID string) (*Ledger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.cache.Pin(accountID); ok {
		return l, nil
	}
	l, err := Open(ctx, r.store, accountID, r.opts)
	if err != nil {
		return nil, err
	}
	r.cache.SetPinned(accountID, l)
	return l, nil
}
