// Package api exposes the dashboard's read-only HTTP surface: service and
// wallet state, the aggregated balance snapshot, notifications, health, and
// prometheus metrics.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/agentboard/internal/infra/rpc"
	"github.com/vietddude/agentboard/internal/notify"
	"github.com/vietddude/agentboard/internal/poller"
	"github.com/vietddude/agentboard/internal/store"
)

// StateSource serves the service/wallet state snapshot.
type StateSource interface {
	Snapshot() store.Snapshot
}

// BalanceSource serves the published balance snapshot.
type BalanceSource interface {
	Snapshot() poller.Snapshot
}

// NotificationSource serves recent notifications.
type NotificationSource interface {
	Recent() []notify.Notification
}

// HealthSource reports RPC provider health.
type HealthSource interface {
	GetHealth() rpc.HealthStatus
}

// Server provides the dashboard HTTP endpoints.
type Server struct {
	state         StateSource
	balances      BalanceSource
	notifications NotificationSource
	rpcHealth     HealthSource
	server        *http.Server
}

// NewServer creates the API server on the given port.
func NewServer(port int, state StateSource, balances BalanceSource, notifications NotificationSource, rpcHealth HealthSource) *Server {
	mux := http.NewServeMux()
	s := &Server{
		state:         state,
		balances:      balances,
		notifications: notifications,
		rpcHealth:     rpcHealth,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/services", s.handleServices)
	mux.HandleFunc("/api/wallets", s.handleWallets)
	mux.HandleFunc("/api/balance", s.handleBalance)
	mux.HandleFunc("/api/notifications", s.handleNotifications)

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the underlying handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	state := s.state.Snapshot()

	status := "healthy"
	code := http.StatusOK
	switch {
	case !state.HasInitialLoaded:
		status = "starting"
		code = http.StatusServiceUnavailable
	case !s.rpcHealth.GetHealth().Available:
		status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

func (s *Server) handleServices(w http.ResponseWriter, r *http.Request) {
	snap := s.state.Snapshot()
	writeJSON(w, map[string]any{
		"services":          snap.Services,
		"deployment_status": snap.Status,
	})
}

func (s *Server) handleWallets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.state.Snapshot().Wallets)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	snap := s.balances.Snapshot()
	if !snap.Valid {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"error": "balance not yet available"})
		return
	}
	writeJSON(w, snap)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	notifications := s.notifications.Recent()
	if notifications == nil {
		notifications = []notify.Notification{}
	}
	writeJSON(w, notifications)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
