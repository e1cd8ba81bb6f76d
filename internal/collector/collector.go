// Package collector derives the set of monitored addresses from current
// service and wallet state. All functions are pure: no internal state, no
// side effects, safe to call on every state-store refresh.
package collector

import (
	"github.com/vietddude/agentboard/internal/core/domain"
)

// Collect returns the validated, deduplicated set of on-chain addresses for
// a list of service records: every instance address plus the multisig when
// present. Malformed values are dropped silently; services with no chain
// data contribute nothing.
func Collect(services []domain.Service) domain.AddressSet {
	set := domain.NewAddressSet()
	for _, svc := range services {
		for _, instance := range svc.ChainData.Instances {
			set.AddString(instance)
		}
		if svc.ChainData.Multisig != "" {
			set.AddString(svc.ChainData.Multisig)
		}
	}
	return set
}

// FromWallets returns the address set contributed by user wallets: the
// wallet address itself plus its safe when one exists. Validation rules
// match Collect.
func FromWallets(wallets []domain.Wallet) domain.AddressSet {
	set := domain.NewAddressSet()
	for _, w := range wallets {
		set.AddString(w.Address)
		if w.Safe != "" {
			set.AddString(w.Safe)
		}
	}
	return set
}
