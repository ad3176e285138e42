// Package store maps user identities to their in-memory wallets and moves
// them to and from a Persister.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"finwallet/internal/core"
	applog "finwallet/internal/log"
	"finwallet/internal/wallet"
)

// Persister is the storage capability the store needs. Load must return an
// empty snapshot, not an error, for a user that was never saved.
type Persister interface {
	Load(ctx context.Context, userID string) (core.Snapshot, error)
	Save(ctx context.Context, userID string, snap core.Snapshot) error
}

// LoadPolicy decides what Load does with records already in memory.
type LoadPolicy string

const (
	// Replace clears the wallet and adopts the persisted records.
	Replace LoadPolicy = "replace"
	// Merge appends persisted records that have no identical in-memory counterpart.
	Merge LoadPolicy = "merge"
)

func (p LoadPolicy) IsValid() bool {
	return p == Replace || p == Merge
}

type Store struct {
	persister Persister
	policy    LoadPolicy
	logger    *applog.Logger

	mu      sync.Mutex
	wallets map[string]*wallet.Wallet
	locks   map[string]*sync.Mutex
	loaded  map[string]bool
}

func New(persister Persister, policy LoadPolicy, logger *applog.Logger) *Store {
	if !policy.IsValid() {
		policy = Replace
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Store{
		persister: persister,
		policy:    policy,
		logger:    logger.WithComponent(applog.ComponentStorage),
		wallets:   make(map[string]*wallet.Wallet),
		locks:     make(map[string]*sync.Mutex),
		loaded:    make(map[string]bool),
	}
}

func (s *Store) Policy() LoadPolicy {
	return s.policy
}

// GetOrCreate returns the wallet registered for userID, creating an empty one
// on first access. Wallets are never removed.
func (s *Store) GetOrCreate(userID string) *wallet.Wallet {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[userID]
	if !ok {
		w = wallet.New()
		s.wallets[userID] = w
	}
	return w
}

// Lock acquires the per-user locks of every given identity and returns the
// function releasing them. Identities are locked in sorted order and
// duplicates collapsed, so two callers locking the same pair cannot deadlock.
// Callers hold the lock for a whole load-mutate-save cycle.
func (s *Store) Lock(userIDs ...string) (unlock func()) {
	ids := append([]string(nil), userIDs...)
	sort.Strings(ids)

	var held []*sync.Mutex
	for i, id := range ids {
		if i > 0 && ids[i-1] == id {
			continue
		}
		m := s.userLock(id)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

func (s *Store) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		s.locks[userID] = m
	}
	return m
}

// Load reads the user's persisted records into their wallet according to the
// store's policy. On error the in-memory wallet is left untouched.
func (s *Store) Load(ctx context.Context, userID string) error {
	snap, err := s.persister.Load(applog.WithContext(ctx, s.logger), userID)
	if err != nil {
		return &core.StorageError{Op: applog.OpLoad, User: userID, Err: err}
	}

	w := s.GetOrCreate(userID)
	switch s.policy {
	case Merge:
		added := w.Merge(snap)
		s.logger.DebugContext(ctx, "Wallet merged from storage",
			applog.FieldUser, userID,
			applog.FieldOperation, applog.OpLoad,
			"added", added)
	default:
		w.Replace(snap)
		s.logger.DebugContext(ctx, "Wallet loaded from storage",
			applog.FieldUser, userID,
			applog.FieldOperation, applog.OpLoad,
			"entries", len(snap.Entries),
			"budgets", len(snap.Budgets))
	}
	s.markLoaded(userID)
	return nil
}

// EnsureLoaded loads the user's wallet unless this store already did so.
// It never overwrites in-memory state that may not have reached storage.
func (s *Store) EnsureLoaded(ctx context.Context, userID string) error {
	if s.isLoaded(userID) {
		return nil
	}
	return s.Load(ctx, userID)
}

func (s *Store) isLoaded(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded[userID]
}

func (s *Store) markLoaded(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded[userID] = true
}

// Save overwrites the user's persisted records with the in-memory wallet.
func (s *Store) Save(ctx context.Context, userID string) error {
	snap := s.GetOrCreate(userID).Snapshot()
	if err := s.persister.Save(applog.WithContext(ctx, s.logger), userID, snap); err != nil {
		return &core.StorageError{Op: applog.OpSave, User: userID, Err: err}
	}
	return nil
}

// Users lists every identity with a wallet in memory, sorted.
func (s *Store) Users() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.wallets))
	for id := range s.wallets {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// SaveAll persists every known wallet concurrently, each under its own
// user lock. All saves are attempted; the first error is returned.
func (s *Store) SaveAll(ctx context.Context) error {
	var g errgroup.Group
	for _, id := range s.Users() {
		id := id
		g.Go(func() error {
			unlock := s.Lock(id)
			defer unlock()
			if err := s.Save(ctx, id); err != nil {
				s.logger.ErrorContext(ctx, "Failed to save wallet",
					applog.NewFields().WithUser(id).WithOperation(applog.OpSave).WithError(err).ToSlice()...)
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("save all wallets: %w", err)
	}
	return nil
}
