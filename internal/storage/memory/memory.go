// Package memory is a process-local wallet persister, used by tests and by
// DATA_BACKEND=memory for throwaway sessions.
package memory

import (
	"context"
	"sync"

	"finwallet/internal/core"
)

type Store struct {
	mu      sync.Mutex
	wallets map[string]core.Snapshot
}

func New() *Store {
	return &Store{wallets: make(map[string]core.Snapshot)}
}

// Load returns a copy of the saved snapshot, or an empty one.
func (s *Store) Load(_ context.Context, userID string) (core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.wallets[userID]), nil
}

// Save replaces whatever was stored for userID.
func (s *Store) Save(_ context.Context, userID string, snap core.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallets[userID] = clone(snap)
	return nil
}

func clone(s core.Snapshot) core.Snapshot {
	return core.Snapshot{
		Entries: append([]core.Entry(nil), s.Entries...),
		Budgets: append([]core.Budget(nil), s.Budgets...),
	}
}
