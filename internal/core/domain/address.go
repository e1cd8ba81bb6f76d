package domain

import (
	"sort"
	"strings"
)

// Address is a validated, lowercase-normalized EVM address.
type Address string

const addressHexLen = 40

// ParseAddress validates and normalizes an address string.
// Malformed input returns ok=false; it never errors, callers are expected
// to drop invalid addresses silently.
func ParseAddress(s string) (Address, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return "", false
	}
	hexPart := s[2:]
	if len(hexPart) != addressHexLen {
		return "", false
	}
	for i := 0; i < len(hexPart); i++ {
		c := hexPart[i]
		isHex := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
		if !isHex {
			return "", false
		}
	}
	return Address("0x" + strings.ToLower(hexPart)), true
}

// AddressSet is a deduplicated set of validated addresses. A zero-value
// set is not usable; construct with NewAddressSet. Sets are built fresh
// on each recomputation and never mutated after being handed out.
type AddressSet struct {
	members map[Address]struct{}
}

// NewAddressSet creates a set from zero or more already-validated addresses.
func NewAddressSet(addrs ...Address) AddressSet {
	s := AddressSet{members: make(map[Address]struct{}, len(addrs))}
	for _, a := range addrs {
		s.members[a] = struct{}{}
	}
	return s
}

// AddString validates raw input and adds it on success.
// Invalid values are skipped.
func (s AddressSet) AddString(raw string) {
	if addr, ok := ParseAddress(raw); ok {
		s.members[addr] = struct{}{}
	}
}

// Add inserts a validated address.
func (s AddressSet) Add(a Address) {
	s.members[a] = struct{}{}
}

// Has reports membership.
func (s AddressSet) Has(a Address) bool {
	_, ok := s.members[a]
	return ok
}

// Len returns the number of addresses in the set.
func (s AddressSet) Len() int {
	return len(s.members)
}

// List returns the members in sorted order for deterministic iteration.
func (s AddressSet) List() []Address {
	out := make([]Address, 0, len(s.members))
	for a := range s.members {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Union returns a new set containing members of both sets.
func (s AddressSet) Union(other AddressSet) AddressSet {
	u := AddressSet{members: make(map[Address]struct{}, len(s.members)+len(other.members))}
	for a := range s.members {
		u.members[a] = struct{}{}
	}
	for a := range other.members {
		u.members[a] = struct{}{}
	}
	return u
}
