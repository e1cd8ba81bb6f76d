package domain

// BalanceMap maps an address to its native-currency balance in whole units
// (not wei). Each poll cycle produces a fresh map; maps are never mutated
// after publication.
type BalanceMap map[Address]float64

// Total sums all balances in the map.
func (m BalanceMap) Total() float64 {
	var total float64
	for _, v := range m {
		total += v
	}
	return total
}

// Clone returns an independent copy of the map.
func (m BalanceMap) Clone() BalanceMap {
	out := make(BalanceMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
