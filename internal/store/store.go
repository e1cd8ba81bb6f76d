// Package store holds the latest known service and wallet state. It is
// the single owner of those collections: the refresher loops write, every
// other consumer reads snapshots. Collections are replaced wholesale on
// refresh, never patched in place.
package store

import (
	"sync"

	"github.com/vietddude/agentboard/internal/core/domain"
)

// Snapshot is a read-only view of the store at one point in time.
type Snapshot struct {
	Services         []domain.Service        `json:"services"`
	Wallets          []domain.Wallet         `json:"wallets"`
	Status           domain.DeploymentStatus `json:"status"`
	HasInitialLoaded bool                    `json:"has_initial_loaded"`
}

// Store is the service/wallet state store.
type Store struct {
	mu               sync.RWMutex
	services         []domain.Service
	wallets          []domain.Wallet
	status           domain.DeploymentStatus
	hasInitialLoaded bool
	subs             []chan struct{}
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// ReplaceServices swaps in a new service list. The first successful
// replacement flips the initial-load flag that gates dependent loops.
func (s *Store) ReplaceServices(services []domain.Service) {
	s.mu.Lock()
	s.services = services
	s.hasInitialLoaded = true
	s.mu.Unlock()
	s.notify()
}

// ReplaceWallets swaps in a new wallet list.
func (s *Store) ReplaceWallets(wallets []domain.Wallet) {
	s.mu.Lock()
	s.wallets = wallets
	s.mu.Unlock()
	s.notify()
}

// SetStatus updates the current deployment status. Last value wins, no
// history is retained.
func (s *Store) SetStatus(status domain.DeploymentStatus) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
	s.notify()
}

// Services returns a copy of the current service list.
func (s *Store) Services() []domain.Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Service, len(s.services))
	copy(out, s.services)
	return out
}

// Wallets returns a copy of the current wallet list.
func (s *Store) Wallets() []domain.Wallet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Wallet, len(s.wallets))
	copy(out, s.wallets)
	return out
}

// HasInitialLoaded reports whether the first service-list fetch succeeded.
func (s *Store) HasInitialLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasInitialLoaded
}

// Snapshot returns a consistent view of all fields.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	services := make([]domain.Service, len(s.services))
	copy(services, s.services)
	wallets := make([]domain.Wallet, len(s.wallets))
	copy(wallets, s.wallets)

	return Snapshot{
		Services:         services,
		Wallets:          wallets,
		Status:           s.status,
		HasInitialLoaded: s.hasInitialLoaded,
	}
}

// Subscribe returns a channel that signals after each state change.
// Signals are coalesced: a slow subscriber sees at least one signal for
// any number of intervening changes.
func (s *Store) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

func (s *Store) notify() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
