// Package evm reads native and token balances from an EVM chain through
// the Multicall aggregator contract, collapsing N address reads into a
// single eth_call round-trip.
package evm

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"sync"

	logger "log/slog"

	"github.com/vietddude/agentboard/internal/core/domain"
	"github.com/vietddude/agentboard/internal/infra/rpc"
	"golang.org/x/sync/errgroup"
)

const (
	// independentBatchSize caps the number of eth_getBalance entries sent
	// in one JSON-RPC batch request.
	independentBatchSize = 20
	// independentConcurrency bounds parallel batch requests to keep RPC
	// usage predictable.
	independentConcurrency = 5
)

// CallResult is the outcome of one per-address balance read in
// independent-call mode. A failed address carries Err and contributes
// nothing to an aggregate.
type CallResult struct {
	Amount float64
	Err    error
}

// Multicall batches balance reads against the aggregator contract.
type Multicall struct {
	client   rpc.Provider
	chainID  domain.ChainID
	contract domain.Address
	retry    rpc.RetryConfig
	log      *logger.Logger
}

// NewMulticall creates a client bound to one chain and aggregator address.
func NewMulticall(client rpc.Provider, chainID domain.ChainID, contract domain.Address) *Multicall {
	if contract == "" {
		contract = domain.MulticallAddress
	}
	return &Multicall{
		client:   client,
		chainID:  chainID,
		contract: contract,
		retry:    rpc.DefaultRetryConfig,
		log:      logger.Default(),
	}
}

// VerifyChainID checks that the endpoint serves the configured chain.
func (m *Multicall) VerifyChainID(ctx context.Context) error {
	result, err := rpc.CallWithRetry(ctx, m.client, "eth_chainId", nil, m.retry)
	if err != nil {
		return fmt.Errorf("eth_chainId failed: %w", err)
	}
	hexID, ok := result.(string)
	if !ok {
		return fmt.Errorf("invalid eth_chainId response")
	}
	id, err := parseHexBig(hexID)
	if err != nil {
		return fmt.Errorf("parse chain id: %w", err)
	}
	if id.String() != string(m.chainID) {
		return fmt.Errorf("endpoint serves chain %s, configured for %s", id, m.chainID)
	}
	return nil
}

// NativeBalances fetches native-currency balances for all addresses in one
// aggregated eth_call. The aggregator call is atomic: any transport or
// decode failure fails the whole batch and no partial result is returned.
func (m *Multicall) NativeBalances(ctx context.Context, addrs []domain.Address) (domain.BalanceMap, error) {
	calls := make([]aggregateCall, len(addrs))
	for i, addr := range addrs {
		calls[i] = aggregateCall{
			target:   m.contract,
			callData: balanceCallData(selectorGetEthBalance, addr),
		}
	}
	return m.aggregate(ctx, addrs, calls)
}

// TokenBalances fetches ERC-20 balances for all addresses against a token
// contract in one aggregated eth_call. Amounts are decoded with an
// 18-decimal default; tokens with other decimals are scaled incorrectly.
func (m *Multicall) TokenBalances(ctx context.Context, token domain.Address, addrs []domain.Address) (domain.BalanceMap, error) {
	calls := make([]aggregateCall, len(addrs))
	for i, addr := range addrs {
		calls[i] = aggregateCall{
			target:   token,
			callData: balanceCallData(selectorBalanceOf, addr),
		}
	}
	return m.aggregate(ctx, addrs, calls)
}

func (m *Multicall) aggregate(ctx context.Context, addrs []domain.Address, calls []aggregateCall) (domain.BalanceMap, error) {
	if len(calls) == 0 {
		return domain.BalanceMap{}, nil
	}

	calldata := "0x" + hex.EncodeToString(encodeAggregate(calls))
	params := []any{
		map[string]any{"to": string(m.contract), "data": calldata},
		"latest",
	}

	result, err := rpc.CallWithRetry(ctx, m.client, "eth_call", params, m.retry)
	if err != nil {
		return nil, fmt.Errorf("multicall aggregate failed: %w", err)
	}

	hexData, ok := result.(string)
	if !ok {
		return nil, fmt.Errorf("invalid eth_call response type %T", result)
	}
	raw, err := decodeHexData(hexData)
	if err != nil {
		return nil, fmt.Errorf("decode eth_call response: %w", err)
	}

	_, returns, err := decodeAggregateReturn(raw, len(calls))
	if err != nil {
		return nil, fmt.Errorf("decode aggregate return: %w", err)
	}

	balances := make(domain.BalanceMap, len(addrs))
	for i, ret := range returns {
		if len(ret) < wordSize {
			return nil, fmt.Errorf("sub-call %d returned %d bytes, want %d", i, len(ret), wordSize)
		}
		wei := new(big.Int).SetBytes(ret[:wordSize])
		balances[addrs[i]] = weiToNative(wei)
	}
	return balances, nil
}

// IndependentBalances fetches native balances with one eth_getBalance
// entry per address, batched into JSON-RPC batch requests. Unlike the
// aggregated path, each entry's failure is isolated: failed addresses
// carry an Err in their CallResult while the rest still return amounts.
// A transport failure fails only the addresses of its batch.
func (m *Multicall) IndependentBalances(ctx context.Context, addrs []domain.Address) map[domain.Address]CallResult {
	results := make(map[domain.Address]CallResult, len(addrs))
	if len(addrs) == 0 {
		return results
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(independentConcurrency)

	for start := 0; start < len(addrs); start += independentBatchSize {
		chunk := addrs[start:min(start+independentBatchSize, len(addrs))]
		g.Go(func() error {
			requests := make([]rpc.BatchRequest, len(chunk))
			for i, addr := range chunk {
				requests[i] = rpc.BatchRequest{
					Method: "eth_getBalance",
					Params: []any{string(addr), "latest"},
				}
			}

			responses, err := m.client.BatchCall(ctx, requests)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				m.log.Warn("balance batch failed", "addresses", len(chunk), "error", err)
				for _, addr := range chunk {
					results[addr] = CallResult{Err: err}
				}
				return nil
			}
			for i, addr := range chunk {
				results[addr] = m.decodeBalanceEntry(addr, responses[i])
			}
			return nil
		})
	}
	g.Wait()

	return results
}

func (m *Multicall) decodeBalanceEntry(addr domain.Address, resp rpc.BatchResponse) CallResult {
	if resp.Error != nil {
		m.log.Warn("balance fetch failed", "address", addr, "error", resp.Error)
		return CallResult{Err: resp.Error}
	}
	hexBal, ok := resp.Result.(string)
	if !ok {
		return CallResult{Err: fmt.Errorf("invalid eth_getBalance response type %T", resp.Result)}
	}
	wei, err := parseHexBig(hexBal)
	if err != nil {
		return CallResult{Err: fmt.Errorf("parse balance: %w", err)}
	}
	return CallResult{Amount: weiToNative(wei)}
}
