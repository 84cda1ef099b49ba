// Package memstore is an in-process implementation of interfaces.Store.
//
// All data lives in maps guarded by a mutex. A transaction works on a deep
// copy of the whole state and swaps it in on success, so rollback is simply
// dropping the copy. Transactions and single writes are serialized.
package memstore

import (
	"context"
	"sync"
	"time"

	"cyoa-server/internal/interfaces"

	"go.uber.org/zap"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ interfaces.Store = (*Store)(nil)

// Store is an in-memory interfaces.Store.
type Store struct {
	writeMu sync.Mutex   // serializes writers and transactions
	mu      sync.RWMutex // guards st
	st      *state
	now     func() time.Time
	logger  *zap.Logger
}

// New creates an empty store.
func New(logger *zap.Logger) *Store {
	return &Store{
		st:     newState(),
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger.Named("MemStore"),
	}
}

// Repos returns repositories operating directly on the shared state.
func (s *Store) Repos() interfaces.Repositories {
	return newRepositories(&binding{store: s})
}

// WithinTx runs fn against a private copy of the state. The copy replaces the
// shared state only if fn returns nil.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos interfaces.Repositories) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	tx := s.st.clone()
	s.mu.RUnlock()

	if err := fn(ctx, newRepositories(&binding{store: s, tx: tx})); err != nil {
		s.logger.Debug("Transaction rolled back", zap.Error(err))
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.st = tx
	s.mu.Unlock()
	return nil
}

// binding routes repository calls either to a transaction's private state or
// to the shared state under the appropriate lock.
type binding struct {
	store *Store
	tx    *state
}

func (b *binding) read(fn func(st *state) error) error {
	if b.tx != nil {
		return fn(b.tx)
	}
	b.store.mu.RLock()
	defer b.store.mu.RUnlock()
	return fn(b.store.st)
}

func (b *binding) write(fn func(st *state) error) error {
	if b.tx != nil {
		return fn(b.tx)
	}
	b.store.writeMu.Lock()
	defer b.store.writeMu.Unlock()
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	return fn(b.store.st)
}

func newRepositories(b *binding) interfaces.Repositories {
	return interfaces.Repositories{
		Images:       &imageRecords{b: b},
		Nodes:        &storyNodes{b: b},
		Choices:      &storyChoices{b: b},
		Progress:     &userProgress{b: b},
		Achievements: &achievements{b: b},
	}
}
