// Package poller runs the balance refresh cycle: it derives the monitored
// address set from the state store, reads balances through the multicall
// client, and republishes the aggregate as an observable snapshot.
package poller

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	logger "log/slog"

	"github.com/vietddude/agentboard/internal/collector"
	"github.com/vietddude/agentboard/internal/core/domain"
	"github.com/vietddude/agentboard/internal/infra/chain/evm"
	"github.com/vietddude/agentboard/internal/metrics"
	"github.com/vietddude/agentboard/internal/notify"
	"github.com/vietddude/agentboard/internal/store"
)

// Mode selects the failure granularity of a refresh cycle.
type Mode string

const (
	// ModeMulticall reads all balances in one atomic aggregator call:
	// any failure discards the whole tick.
	ModeMulticall Mode = "multicall"
	// ModeIndependent reads each balance as its own call: failures are
	// isolated per address and the aggregate is best-effort.
	ModeIndependent Mode = "independent"
)

// DefaultPollInterval is the balance refresh cadence.
const DefaultPollInterval = 5 * time.Second

// BalanceSource is the chain read surface the poller consumes.
type BalanceSource interface {
	NativeBalances(ctx context.Context, addrs []domain.Address) (domain.BalanceMap, error)
	IndependentBalances(ctx context.Context, addrs []domain.Address) map[domain.Address]evm.CallResult
}

// Snapshot is the observable balance state. Initial state carries no
// balance (Valid=false); after the first successful refresh the previous
// snapshot is always retained until a newer one replaces it.
type Snapshot struct {
	Wallets   []domain.Wallet   `json:"wallets"`
	Balances  domain.BalanceMap `json:"balances"`
	Aggregate float64           `json:"aggregate"`
	Valid     bool              `json:"valid"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Poller owns the balance refresh loop and the published snapshot.
type Poller struct {
	store    *store.Store
	source   BalanceSource
	notifier notify.Notifier
	interval time.Duration
	mode     Mode
	log      *logger.Logger

	running atomic.Bool
	stop    chan struct{}

	mu       sync.RWMutex
	snapshot Snapshot
}

// New creates a poller. Interval defaults to DefaultPollInterval, mode to
// ModeMulticall.
func New(s *store.Store, source BalanceSource, notifier notify.Notifier, interval time.Duration, mode Mode) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if mode == "" {
		mode = ModeMulticall
	}
	return &Poller{
		store:    s,
		source:   source,
		notifier: notifier,
		interval: interval,
		mode:     mode,
		log:      logger.Default(),
		stop:     make(chan struct{}),
	}
}

// Run starts the refresh loop and blocks until the context is cancelled
// or Stop is called.
//
// The timer is armed only while the monitored set is non-empty: an empty
// set disables polling entirely rather than issuing no-op RPC calls. Store
// change signals only wake the loop so it can re-evaluate the set; an
// already-armed timer keeps its deadline, so a busy store refresher can
// never push the next balance refresh out past the interval.
// Each refresh runs synchronously inside the loop and the timer re-arms
// only after it settles, so cycles never overlap; a hung RPC call stalls
// the loop rather than piling up requests.
func (p *Poller) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return fmt.Errorf("poller already running")
	}
	defer p.running.Store(false)

	changed := p.store.Subscribe()

	var timer *time.Timer
	var tick <-chan time.Time

	for {
		addrs := p.monitoredSet()
		metrics.MonitoredAddresses.Set(float64(addrs.Len()))

		if addrs.Len() == 0 {
			if timer != nil {
				timer.Stop()
				timer, tick = nil, nil
			}
		} else if timer == nil {
			timer = time.NewTimer(p.interval)
			tick = timer.C
		}

		select {
		case <-ctx.Done():
			stopTimer(timer)
			return nil
		case <-p.stop:
			stopTimer(timer)
			return nil
		case <-changed:
			// Re-evaluate the set; the armed deadline stays put.
		case <-tick:
			p.refresh(ctx)
			timer, tick = nil, nil
		}
	}
}

// Stop stops the loop.
func (p *Poller) Stop() {
	if p.running.Load() {
		close(p.stop)
	}
}

// Snapshot returns the current published balance state.
func (p *Poller) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	snap := p.snapshot
	snap.Balances = p.snapshot.Balances.Clone()
	wallets := make([]domain.Wallet, len(p.snapshot.Wallets))
	copy(wallets, p.snapshot.Wallets)
	snap.Wallets = wallets
	return snap
}

func (p *Poller) monitoredSet() domain.AddressSet {
	snap := p.store.Snapshot()
	return collector.Collect(snap.Services).Union(collector.FromWallets(snap.Wallets))
}

// refresh executes one balance cycle. On failure the previous snapshot is
// retained and the failure goes to the notification channel; errors never
// escape the loop.
func (p *Poller) refresh(ctx context.Context) {
	snap := p.store.Snapshot()
	addrs := collector.Collect(snap.Services).Union(collector.FromWallets(snap.Wallets))
	if addrs.Len() == 0 {
		return
	}
	list := addrs.List()

	var balances domain.BalanceMap
	switch p.mode {
	case ModeIndependent:
		results := p.source.IndependentBalances(ctx, list)
		balances = make(domain.BalanceMap, len(results))
		failed := 0
		for addr, res := range results {
			if res.Err != nil {
				failed++
				continue
			}
			balances[addr] = res.Amount
		}
		if failed == len(results) {
			// Nothing succeeded, treat it like a failed atomic tick.
			metrics.BalancePollsTotal.WithLabelValues("error").Inc()
			p.notifier.Notify(notify.LevelError, "poller",
				fmt.Sprintf("balance refresh failed for all %d addresses", len(results)))
			return
		}
		if failed > 0 {
			metrics.BalancePollsTotal.WithLabelValues("partial").Inc()
			p.notifier.Notify(notify.LevelWarn, "poller",
				fmt.Sprintf("balance refresh partial: %d of %d address reads failed", failed, len(results)))
		} else {
			metrics.BalancePollsTotal.WithLabelValues("success").Inc()
		}

	default:
		var err error
		balances, err = p.source.NativeBalances(ctx, list)
		if err != nil {
			metrics.BalancePollsTotal.WithLabelValues("error").Inc()
			p.notifier.Notify(notify.LevelError, "poller",
				fmt.Sprintf("balance refresh failed: %v", err))
			return
		}
		metrics.BalancePollsTotal.WithLabelValues("success").Inc()
	}

	aggregate := balances.Total()
	metrics.AggregateBalance.Set(aggregate)

	p.mu.Lock()
	p.snapshot = Snapshot{
		Wallets:   snap.Wallets,
		Balances:  balances,
		Aggregate: aggregate,
		Valid:     true,
		UpdatedAt: time.Now(),
	}
	p.mu.Unlock()

	p.log.Debug("balance refreshed", "addresses", len(list), "aggregate", aggregate)
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}
