package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vietddude/agentboard/internal/core/domain"
	"github.com/vietddude/agentboard/internal/infra/rpc"
	"github.com/vietddude/agentboard/internal/notify"
	"github.com/vietddude/agentboard/internal/poller"
	"github.com/vietddude/agentboard/internal/store"
)

type mockState struct {
	snap store.Snapshot
}

func (m *mockState) Snapshot() store.Snapshot { return m.snap }

type mockBalances struct {
	snap poller.Snapshot
}

func (m *mockBalances) Snapshot() poller.Snapshot { return m.snap }

type mockHealth struct {
	health rpc.HealthStatus
}

func (m *mockHealth) GetHealth() rpc.HealthStatus { return m.health }

func newTestServer(state *mockState, balances *mockBalances, health *mockHealth) *httptest.Server {
	if state == nil {
		state = &mockState{}
	}
	if balances == nil {
		balances = &mockBalances{}
	}
	if health == nil {
		health = &mockHealth{health: rpc.HealthStatus{Available: true}}
	}
	s := NewServer(0, state, balances, notify.NewRecorder(10), health)
	return httptest.NewServer(s.Handler())
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
	}
	return resp.StatusCode
}

func TestServer_HealthStarting(t *testing.T) {
	ts := newTestServer(&mockState{}, nil, nil)
	defer ts.Close()

	var body map[string]string
	if code := getJSON(t, ts.URL+"/health", &body); code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 before initial load, got %d", code)
	}
	if body["status"] != "starting" {
		t.Errorf("expected starting, got %q", body["status"])
	}
}

func TestServer_HealthHealthy(t *testing.T) {
	ts := newTestServer(&mockState{snap: store.Snapshot{HasInitialLoaded: true}}, nil, nil)
	defer ts.Close()

	var body map[string]string
	if code := getJSON(t, ts.URL+"/health", &body); code != http.StatusOK {
		t.Errorf("expected 200, got %d", code)
	}
	if body["status"] != "healthy" {
		t.Errorf("expected healthy, got %q", body["status"])
	}
}

func TestServer_HealthDegradedOnRPCFailure(t *testing.T) {
	ts := newTestServer(
		&mockState{snap: store.Snapshot{HasInitialLoaded: true}},
		nil,
		&mockHealth{health: rpc.HealthStatus{Available: false, ErrorRate: 0.9}},
	)
	defer ts.Close()

	var body map[string]string
	if code := getJSON(t, ts.URL+"/health", &body); code != http.StatusOK {
		t.Errorf("degraded still serves 200, got %d", code)
	}
	if body["status"] != "degraded" {
		t.Errorf("expected degraded, got %q", body["status"])
	}
}

func TestServer_BalanceUnavailableBeforeFirstPoll(t *testing.T) {
	ts := newTestServer(nil, &mockBalances{}, nil)
	defer ts.Close()

	if code := getJSON(t, ts.URL+"/api/balance", nil); code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 before first successful poll, got %d", code)
	}
}

func TestServer_BalanceServed(t *testing.T) {
	balances := &mockBalances{snap: poller.Snapshot{
		Balances:  domain.BalanceMap{"0x1111111111111111111111111111111111111111": 1.5},
		Aggregate: 1.5,
		Valid:     true,
		UpdatedAt: time.Now(),
	}}
	ts := newTestServer(nil, balances, nil)
	defer ts.Close()

	var body poller.Snapshot
	if code := getJSON(t, ts.URL+"/api/balance", &body); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body.Aggregate != 1.5 || !body.Valid {
		t.Errorf("unexpected balance payload: %+v", body)
	}
}

func TestServer_Services(t *testing.T) {
	state := &mockState{snap: store.Snapshot{
		Services:         []domain.Service{{Hash: "0xA", Name: "trader"}},
		Status:           domain.DeploymentDeployed,
		HasInitialLoaded: true,
	}}
	ts := newTestServer(state, nil, nil)
	defer ts.Close()

	var body struct {
		Services         []domain.Service        `json:"services"`
		DeploymentStatus domain.DeploymentStatus `json:"deployment_status"`
	}
	if code := getJSON(t, ts.URL+"/api/services", &body); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(body.Services) != 1 || body.Services[0].Name != "trader" {
		t.Errorf("unexpected services payload: %+v", body.Services)
	}
	if body.DeploymentStatus != domain.DeploymentDeployed {
		t.Errorf("expected deployed, got %q", body.DeploymentStatus)
	}
}

func TestServer_NotificationsEmptyArray(t *testing.T) {
	ts := newTestServer(nil, nil, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/notifications")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	var body []notify.Notification
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("expected JSON array even when empty: %v", err)
	}
	if body == nil || len(body) != 0 {
		t.Errorf("expected empty array, got %v", body)
	}
}
