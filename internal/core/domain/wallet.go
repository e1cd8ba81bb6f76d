package domain

import "time"

// Wallet represents a user-held wallet tracked for balance monitoring.
// The Safe field is the wallet's multisig safe address when one exists.
type Wallet struct {
	Address    string     `json:"address"`
	LedgerType LedgerType `json:"ledger_type"`
	Safe       string     `json:"safe,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type LedgerType string

const (
	LedgerEthereum LedgerType = "ethereum"
	LedgerSolana   LedgerType = "solana"
)
