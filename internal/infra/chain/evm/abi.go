package evm

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/vietddude/agentboard/internal/core/domain"
)

// Function selectors (first four bytes of the keccak-256 of the signature).
var (
	// aggregate((address,bytes)[])
	selectorAggregate = []byte{0x25, 0x2d, 0xba, 0x42}
	// getEthBalance(address)
	selectorGetEthBalance = []byte{0x4d, 0x23, 0x01, 0xcc}
	// balanceOf(address)
	selectorBalanceOf = []byte{0x70, 0xa0, 0x82, 0x31}
)

const wordSize = 32

// aggregateCall is one (target, callData) entry of a multicall batch.
type aggregateCall struct {
	target   domain.Address
	callData []byte
}

// encodeAggregate builds the calldata for Multicall's
// aggregate((address,bytes)[]) from a list of sub-calls.
func encodeAggregate(calls []aggregateCall) []byte {
	tuples := make([][]byte, len(calls))
	for i, c := range calls {
		tuples[i] = encodeCallTuple(c)
	}

	out := make([]byte, 0, 4+wordSize*2+len(calls)*wordSize)
	out = append(out, selectorAggregate...)
	out = append(out, encodeUint(0x20)...)            // offset to the array argument
	out = append(out, encodeUint(uint64(len(calls)))...) // array length

	// Element offsets are relative to the start of the element area,
	// which begins right after the length word.
	offset := uint64(len(calls) * wordSize)
	for _, tuple := range tuples {
		out = append(out, encodeUint(offset)...)
		offset += uint64(len(tuple))
	}
	for _, tuple := range tuples {
		out = append(out, tuple...)
	}
	return out
}

// encodeCallTuple encodes one (address target, bytes callData) tuple.
func encodeCallTuple(c aggregateCall) []byte {
	padded := padRight(c.callData)
	out := make([]byte, 0, wordSize*3+len(padded))
	out = append(out, encodeAddress(c.target)...)
	out = append(out, encodeUint(0x40)...) // offset to callData within the tuple
	out = append(out, encodeUint(uint64(len(c.callData)))...)
	out = append(out, padded...)
	return out
}

// balanceCallData builds the inner calldata selector(address) used by both
// getEthBalance and balanceOf.
func balanceCallData(selector []byte, addr domain.Address) []byte {
	out := make([]byte, 0, 4+wordSize)
	out = append(out, selector...)
	out = append(out, encodeAddress(addr)...)
	return out
}

// decodeAggregateReturn parses the (uint256 blockNumber, bytes[] returnData)
// return value of aggregate. Each returned entry is the raw return data of
// the corresponding sub-call.
func decodeAggregateReturn(data []byte, expected int) (blockNumber uint64, returns [][]byte, err error) {
	if len(data) < wordSize*3 {
		return 0, nil, fmt.Errorf("aggregate return too short: %d bytes", len(data))
	}

	blockNumber = decodeUintWord(data[:wordSize])
	limit := uint64(len(data))

	// Offset and length words come from the wire; each one is range-checked
	// against the payload before any arithmetic so oversized values cannot
	// wrap the bounds checks below.
	arrayOffset, ok := decodeOffsetWord(data[wordSize:wordSize*2], limit)
	if !ok || arrayOffset+wordSize > limit {
		return 0, nil, fmt.Errorf("invalid array offset")
	}

	count := decodeUintWord(data[arrayOffset : arrayOffset+wordSize])
	if count != uint64(expected) {
		return 0, nil, fmt.Errorf("expected %d return entries, got %d", expected, count)
	}

	// Element offsets are relative to the first byte after the length word.
	elemBase := arrayOffset + wordSize
	returns = make([][]byte, count)
	for i := uint64(0); i < count; i++ {
		offsetPos := elemBase + i*wordSize
		if offsetPos+wordSize > limit {
			return 0, nil, fmt.Errorf("truncated element offset at index %d", i)
		}
		relOffset, ok := decodeOffsetWord(data[offsetPos:offsetPos+wordSize], limit)
		if !ok {
			return 0, nil, fmt.Errorf("invalid element offset at index %d", i)
		}
		elemOffset := elemBase + relOffset
		if elemOffset+wordSize > limit {
			return 0, nil, fmt.Errorf("truncated element at index %d", i)
		}
		length, ok := decodeOffsetWord(data[elemOffset:elemOffset+wordSize], limit)
		if !ok {
			return 0, nil, fmt.Errorf("invalid element length at index %d", i)
		}
		start := elemOffset + wordSize
		if start+length > limit {
			return 0, nil, fmt.Errorf("element %d overruns return data", i)
		}
		returns[i] = data[start : start+length]
	}

	return blockNumber, returns, nil
}

// decodeOffsetWord decodes a word used for indexing into the payload.
// Values that exceed the payload length (including ones wider than 64
// bits) are rejected, so callers can add small constants without risking
// uint64 wraparound.
func decodeOffsetWord(word []byte, limit uint64) (uint64, bool) {
	n := new(big.Int).SetBytes(word)
	if !n.IsUint64() {
		return 0, false
	}
	v := n.Uint64()
	if v > limit {
		return 0, false
	}
	return v, true
}

func encodeUint(v uint64) []byte {
	word := make([]byte, wordSize)
	big.NewInt(0).SetUint64(v).FillBytes(word)
	return word
}

func encodeAddress(addr domain.Address) []byte {
	word := make([]byte, wordSize)
	raw, _ := hex.DecodeString(strings.TrimPrefix(string(addr), "0x"))
	copy(word[wordSize-len(raw):], raw)
	return word
}

func decodeUintWord(word []byte) uint64 {
	return new(big.Int).SetBytes(word).Uint64()
}

func padRight(data []byte) []byte {
	rem := len(data) % wordSize
	if rem == 0 {
		return data
	}
	padded := make([]byte, len(data)+wordSize-rem)
	copy(padded, data)
	return padded
}

func decodeHexData(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s)%2 != 0 {
		s = "0" + s
	}
	return hex.DecodeString(s)
}

// weiToNative converts a wei amount to whole native units (18 decimals).
func weiToNative(wei *big.Int) float64 {
	f := new(big.Float).SetInt(wei)
	f.Quo(f, big.NewFloat(1e18))
	out, _ := f.Float64()
	return out
}

func parseHexBig(hexStr string) (*big.Int, error) {
	n := new(big.Int)
	if _, ok := n.SetString(strings.TrimPrefix(hexStr, "0x"), 16); !ok {
		return nil, fmt.Errorf("invalid hex: %s", hexStr)
	}
	return n, nil
}
