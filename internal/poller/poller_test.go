package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vietddude/agentboard/internal/core/domain"
	"github.com/vietddude/agentboard/internal/infra/chain/evm"
	"github.com/vietddude/agentboard/internal/notify"
	"github.com/vietddude/agentboard/internal/store"
)

type mockSource struct {
	NativeBalancesFunc      func(ctx context.Context, addrs []domain.Address) (domain.BalanceMap, error)
	IndependentBalancesFunc func(ctx context.Context, addrs []domain.Address) map[domain.Address]evm.CallResult

	calls atomic.Int64
}

func (m *mockSource) NativeBalances(ctx context.Context, addrs []domain.Address) (domain.BalanceMap, error) {
	m.calls.Add(1)
	if m.NativeBalancesFunc != nil {
		return m.NativeBalancesFunc(ctx, addrs)
	}
	return domain.BalanceMap{}, nil
}

func (m *mockSource) IndependentBalances(ctx context.Context, addrs []domain.Address) map[domain.Address]evm.CallResult {
	m.calls.Add(1)
	if m.IndependentBalancesFunc != nil {
		return m.IndependentBalancesFunc(ctx, addrs)
	}
	return map[domain.Address]evm.CallResult{}
}

const (
	addr1 = domain.Address("0x1111111111111111111111111111111111111111")
	addr2 = domain.Address("0x2222222222222222222222222222222222222222")
)

func storeWithWallets(addrs ...domain.Address) *store.Store {
	s := store.New()
	wallets := make([]domain.Wallet, 0, len(addrs))
	for _, a := range addrs {
		wallets = append(wallets, domain.Wallet{Address: string(a)})
	}
	s.ReplaceWallets(wallets)
	return s
}

func TestPoller_EmptySetDisablesPolling(t *testing.T) {
	source := &mockSource{}
	p := New(store.New(), source, notify.NewRecorder(10), 10*time.Millisecond, ModeMulticall)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	time.Sleep(60 * time.Millisecond)
	cancel()
	<-done

	if got := source.calls.Load(); got != 0 {
		t.Errorf("no RPC calls may be issued while the monitored set is empty, got %d", got)
	}
}

func TestPoller_ResumesWhenAddressesAppear(t *testing.T) {
	source := &mockSource{
		NativeBalancesFunc: func(ctx context.Context, addrs []domain.Address) (domain.BalanceMap, error) {
			return domain.BalanceMap{addr1: 1.5}, nil
		},
	}
	s := store.New()
	p := New(s, source, notify.NewRecorder(10), 10*time.Millisecond, ModeMulticall)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	if got := source.calls.Load(); got != 0 {
		t.Fatalf("expected no calls before addresses appear, got %d", got)
	}

	s.ReplaceWallets([]domain.Wallet{{Address: string(addr1)}})
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if source.calls.Load() == 0 {
		t.Error("expected polling to resume after addresses appeared")
	}
	snap := p.Snapshot()
	if !snap.Valid || snap.Aggregate != 1.5 {
		t.Errorf("expected valid snapshot with aggregate 1.5, got %+v", snap)
	}
}

func TestPoller_BusyStoreDoesNotStarvePolling(t *testing.T) {
	source := &mockSource{
		NativeBalancesFunc: func(ctx context.Context, addrs []domain.Address) (domain.BalanceMap, error) {
			return domain.BalanceMap{addr1: 1.5}, nil
		},
	}
	s := storeWithWallets(addr1)
	p := New(s, source, notify.NewRecorder(10), 50*time.Millisecond, ModeMulticall)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	// Replace state faster than the poll interval, as the refresher does on
	// every tick. The armed deadline must survive these wakeups.
	spamDone := make(chan struct{})
	go func() {
		defer close(spamDone)
		for i := 0; i < 15; i++ {
			s.ReplaceWallets([]domain.Wallet{{Address: string(addr1)}})
			time.Sleep(20 * time.Millisecond)
		}
	}()

	<-spamDone
	cancel()
	<-done

	// ~300ms window at a 50ms interval; require well above one refresh.
	if got := source.calls.Load(); got < 3 {
		t.Errorf("change signals must not reset the poll deadline, got %d refreshes in ~300ms", got)
	}
}

func TestPoller_RefreshPublishesSnapshot(t *testing.T) {
	source := &mockSource{
		NativeBalancesFunc: func(ctx context.Context, addrs []domain.Address) (domain.BalanceMap, error) {
			return domain.BalanceMap{addr1: 1.5, addr2: 2.5}, nil
		},
	}
	p := New(storeWithWallets(addr1, addr2), source, notify.NewRecorder(10), 0, ModeMulticall)

	if p.Snapshot().Valid {
		t.Fatal("snapshot must start invalid")
	}

	p.refresh(context.Background())

	snap := p.Snapshot()
	if !snap.Valid {
		t.Fatal("expected valid snapshot after refresh")
	}
	if snap.Aggregate != 4.0 {
		t.Errorf("expected aggregate 4.0, got %v", snap.Aggregate)
	}
	if len(snap.Wallets) != 2 {
		t.Errorf("expected 2 wallets in snapshot, got %d", len(snap.Wallets))
	}
	if snap.UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt to be set")
	}
}

func TestPoller_RefreshIsIdempotent(t *testing.T) {
	source := &mockSource{
		NativeBalancesFunc: func(ctx context.Context, addrs []domain.Address) (domain.BalanceMap, error) {
			return domain.BalanceMap{addr1: 1.5}, nil
		},
	}
	p := New(storeWithWallets(addr1), source, notify.NewRecorder(10), 0, ModeMulticall)

	p.refresh(context.Background())
	first := p.Snapshot()
	p.refresh(context.Background())
	second := p.Snapshot()

	if first.Aggregate != second.Aggregate || len(first.Balances) != len(second.Balances) {
		t.Errorf("repeated refresh over unchanged chain state must yield the same result: %+v vs %+v", first, second)
	}
}

func TestPoller_FailureRetainsPreviousSnapshot(t *testing.T) {
	var failing atomic.Bool
	source := &mockSource{
		NativeBalancesFunc: func(ctx context.Context, addrs []domain.Address) (domain.BalanceMap, error) {
			if failing.Load() {
				return nil, errors.New("rpc unreachable")
			}
			return domain.BalanceMap{addr1: 1.5}, nil
		},
	}
	recorder := notify.NewRecorder(10)
	p := New(storeWithWallets(addr1), source, recorder, 0, ModeMulticall)

	p.refresh(context.Background())
	failing.Store(true)
	p.refresh(context.Background())

	snap := p.Snapshot()
	if !snap.Valid || snap.Aggregate != 1.5 {
		t.Errorf("previous balances must be retained across a failed refresh, got %+v", snap)
	}

	foundError := false
	for _, n := range recorder.Recent() {
		if n.Level == notify.LevelError {
			foundError = true
		}
	}
	if !foundError {
		t.Error("expected failure notification")
	}
}

func TestPoller_IndependentModeIsolatesFailures(t *testing.T) {
	source := &mockSource{
		IndependentBalancesFunc: func(ctx context.Context, addrs []domain.Address) map[domain.Address]evm.CallResult {
			return map[domain.Address]evm.CallResult{
				addr1: {Amount: 1.5},
				addr2: {Err: errors.New("timeout")},
			}
		},
	}
	recorder := notify.NewRecorder(10)
	p := New(storeWithWallets(addr1, addr2), source, recorder, 0, ModeIndependent)

	p.refresh(context.Background())

	snap := p.Snapshot()
	if !snap.Valid {
		t.Fatal("partial success must still publish a snapshot")
	}
	if snap.Aggregate != 1.5 {
		t.Errorf("failed addresses must not contribute to the aggregate, got %v", snap.Aggregate)
	}
	if _, ok := snap.Balances[addr2]; ok {
		t.Error("failed address must be absent from the balance map")
	}

	foundWarn := false
	for _, n := range recorder.Recent() {
		if n.Level == notify.LevelWarn {
			foundWarn = true
		}
	}
	if !foundWarn {
		t.Error("expected partial-failure notification")
	}
}

func TestPoller_IndependentModeAllFailedRetainsState(t *testing.T) {
	var failing atomic.Bool
	source := &mockSource{
		IndependentBalancesFunc: func(ctx context.Context, addrs []domain.Address) map[domain.Address]evm.CallResult {
			if failing.Load() {
				return map[domain.Address]evm.CallResult{addr1: {Err: errors.New("timeout")}}
			}
			return map[domain.Address]evm.CallResult{addr1: {Amount: 1.5}}
		},
	}
	recorder := notify.NewRecorder(10)
	p := New(storeWithWallets(addr1), source, recorder, 0, ModeIndependent)

	p.refresh(context.Background())
	failing.Store(true)
	p.refresh(context.Background())

	snap := p.Snapshot()
	if !snap.Valid || snap.Aggregate != 1.5 {
		t.Errorf("all-failed refresh must retain the previous snapshot, got %+v", snap)
	}

	foundError := false
	for _, n := range recorder.Recent() {
		if n.Level == notify.LevelError {
			foundError = true
		}
	}
	if !foundError {
		t.Error("expected failure notification")
	}
}
