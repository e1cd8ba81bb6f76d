package store

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	logger "log/slog"

	"github.com/vietddude/agentboard/internal/core/domain"
	"github.com/vietddude/agentboard/internal/metrics"
	"github.com/vietddude/agentboard/internal/notify"
)

// BackendClient is the read-only backend surface the refresher consumes.
type BackendClient interface {
	ListServices(ctx context.Context) ([]domain.Service, error)
	GetDeploymentStatus(ctx context.Context, serviceHash string) (domain.DeploymentStatus, error)
	ListWallets(ctx context.Context) ([]domain.Wallet, error)
}

// DefaultRefreshInterval is the cadence for both refresh loops.
const DefaultRefreshInterval = 5 * time.Second

// Refresher keeps the store in sync with the backend via two independent
// timer loops: the service/wallet list refresh and the deployment-status
// refresh. Each tick runs synchronously inside its loop, so a slow backend
// call delays the next tick rather than overlapping it.
type Refresher struct {
	backend  BackendClient
	store    *Store
	notifier notify.Notifier
	interval time.Duration
	log      *logger.Logger
	running  atomic.Bool
	stop     chan struct{}
}

// NewRefresher creates a refresher with the given tick interval.
func NewRefresher(backend BackendClient, s *Store, notifier notify.Notifier, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Refresher{
		backend:  backend,
		store:    s,
		notifier: notifier,
		interval: interval,
		log:      logger.Default(),
		stop:     make(chan struct{}),
	}
}

// Run starts both refresh loops and blocks until the context is cancelled
// or Stop is called.
func (r *Refresher) Run(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return fmt.Errorf("refresher already running")
	}
	defer r.running.Store(false)

	go r.runStatusLoop(ctx)
	r.runListLoop(ctx)
	return nil
}

// Stop stops both loops.
func (r *Refresher) Stop() {
	if r.running.Load() {
		close(r.stop)
	}
}

func (r *Refresher) runListLoop(ctx context.Context) {
	// Immediate first fetch so dependent consumers are not stuck waiting
	// a full interval for the initial-load gate to open.
	r.refreshLists(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stop:
			return
		case <-ticker.C:
			r.refreshLists(ctx)
		}
	}
}

func (r *Refresher) runStatusLoop(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stop:
			return
		case <-ticker.C:
			r.refreshStatus(ctx)
		}
	}
}

// refreshLists fetches the full service and wallet lists and replaces both
// wholesale. On failure the previous lists are retained and the error goes
// to the notification channel.
func (r *Refresher) refreshLists(ctx context.Context) {
	services, err := r.backend.ListServices(ctx)
	if err != nil {
		metrics.ServiceRefreshTotal.WithLabelValues("error").Inc()
		r.notifier.Notify(notify.LevelError, "store", fmt.Sprintf("service list refresh failed: %v", err))
		return
	}
	r.store.ReplaceServices(services)

	wallets, err := r.backend.ListWallets(ctx)
	if err != nil {
		metrics.ServiceRefreshTotal.WithLabelValues("error").Inc()
		r.notifier.Notify(notify.LevelError, "store", fmt.Sprintf("wallet list refresh failed: %v", err))
		return
	}
	r.store.ReplaceWallets(wallets)

	metrics.ServiceRefreshTotal.WithLabelValues("success").Inc()
	r.log.Debug("service state refreshed", "services", len(services), "wallets", len(wallets))
}

// refreshStatus polls the deployment status of the first service. The
// emptiness guard runs every tick: the service list can shrink to empty
// between ticks, so gating on the initial load alone is not enough.
func (r *Refresher) refreshStatus(ctx context.Context) {
	if !r.store.HasInitialLoaded() {
		return
	}
	services := r.store.Services()
	if len(services) == 0 {
		return
	}

	status, err := r.backend.GetDeploymentStatus(ctx, services[0].Hash)
	if err != nil {
		metrics.StatusRefreshTotal.WithLabelValues("error").Inc()
		r.notifier.Notify(notify.LevelError, "store", fmt.Sprintf("deployment status refresh failed: %v", err))
		return
	}

	metrics.StatusRefreshTotal.WithLabelValues("success").Inc()
	r.store.SetStatus(status)
}
