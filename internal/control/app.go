// Package control wires the application together and manages its lifecycle.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/vietddude/agentboard/internal/api"
	"github.com/vietddude/agentboard/internal/core/config"
	"github.com/vietddude/agentboard/internal/core/domain"
	"github.com/vietddude/agentboard/internal/infra/backend"
	"github.com/vietddude/agentboard/internal/infra/chain/evm"
	redisclient "github.com/vietddude/agentboard/internal/infra/redis"
	"github.com/vietddude/agentboard/internal/infra/rpc"
	"github.com/vietddude/agentboard/internal/notify"
	"github.com/vietddude/agentboard/internal/poller"
	"github.com/vietddude/agentboard/internal/store"
)

// App is the main application struct that manages component lifecycle.
type App struct {
	cfg       *config.AppConfig
	provider  *rpc.HTTPProvider
	multicall *evm.Multicall
	backend   *backend.Client
	store     *store.Store
	refresher *store.Refresher
	poller    *poller.Poller
	recorder  *notify.Recorder
	redis     *redisclient.Publisher
	server    *api.Server
	log       *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewApp builds the application from configuration. Redis is optional: when
// no URL is configured, notifications stay local to the in-memory recorder.
func NewApp(cfg *config.AppConfig) (*App, error) {
	recorder := notify.NewRecorder(100)

	var redisPub *redisclient.Publisher
	if cfg.Redis.URL != "" {
		pub, err := redisclient.NewPublisher(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		redisPub = pub
		recorder.SetPublisher(pub)
	}

	provider := rpc.NewHTTPProvider("chain", cfg.Chain.RPCURL, cfg.Backend.Timeout)
	multicall := evm.NewMulticall(provider, cfg.Chain.ChainID, domain.Address(cfg.Chain.MulticallAddress))

	backendClient := backend.NewClient(cfg.Backend.URL, cfg.Backend.Timeout)

	st := store.New()
	refresher := store.NewRefresher(backendClient, st, recorder, cfg.Backend.RefreshInterval)
	p := poller.New(st, multicall, recorder, cfg.Chain.PollInterval, poller.Mode(cfg.Chain.BalanceMode))

	server := api.NewServer(cfg.Server.Port, st, p, recorder, provider)

	return &App{
		cfg:       cfg,
		provider:  provider,
		multicall: multicall,
		backend:   backendClient,
		store:     st,
		refresher: refresher,
		poller:    p,
		recorder:  recorder,
		redis:     redisPub,
		server:    server,
		log:       slog.Default(),
	}, nil
}

// Start verifies the chain connection and launches the refresh loops and
// the HTTP server. It returns once everything is running.
func (a *App) Start(ctx context.Context) error {
	// A chain-id mismatch means balance reads target the wrong network.
	// Degrade instead of aborting: backend state is still worth serving and
	// the endpoint may recover, so surface the problem as a notification.
	if err := a.multicall.VerifyChainID(ctx); err != nil {
		a.log.Warn("Chain ID verification failed, continuing with configured chain", "error", err)
		a.recorder.Notify(notify.LevelWarn, "control", fmt.Sprintf("chain verification failed: %v", err))
	}

	runCtx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		if err := a.refresher.Run(runCtx); err != nil {
			a.log.Error("Refresher exited", "error", err)
		}
	}()
	go func() {
		defer a.wg.Done()
		if err := a.poller.Run(runCtx); err != nil {
			a.log.Error("Poller exited", "error", err)
		}
	}()

	go func() {
		if err := a.server.Start(); err != nil && err != http.ErrServerClosed {
			a.log.Error("API server exited", "error", err)
		}
	}()

	a.log.Info("Application started",
		"port", a.cfg.Server.Port,
		"chain", a.cfg.Chain.ChainID,
		"balance_mode", a.cfg.Chain.BalanceMode)
	return nil
}

// Stop shuts down the HTTP server and the polling loops.
func (a *App) Stop(ctx context.Context) error {
	if err := a.server.Stop(ctx); err != nil {
		a.log.Warn("API server shutdown error", "error", err)
	}

	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("Redis close error", "error", err)
		}
	}
	if err := a.provider.Close(); err != nil {
		a.log.Warn("RPC provider close error", "error", err)
	}

	a.log.Info("Application stopped")
	return nil
}
