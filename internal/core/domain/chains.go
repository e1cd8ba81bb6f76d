package domain

type ChainID string

const (
	// Chain IDs
	ChainIDEthereum ChainID = "1"
	ChainIDGnosis   ChainID = "100"
	ChainIDGoerli   ChainID = "5"

	// Multicall3 is deployed at the same address on every supported chain.
	MulticallAddress Address = "0xca11bde05977b3631167028862be2a173976ca11"
)

// DefaultRPCs maps each chain to a public RPC endpoint.
var DefaultRPCs = map[ChainID]string{
	ChainIDEthereum: "https://ethereum.publicnode.com",
	ChainIDGnosis:   "https://rpc.gnosischain.com",
	ChainIDGoerli:   "https://ethereum-goerli.publicnode.com",
}

// CurrencyDenoms maps each chain to its native currency denomination.
var CurrencyDenoms = map[ChainID]string{
	ChainIDEthereum: "ETH",
	ChainIDGnosis:   "xDAI",
	ChainIDGoerli:   "GoerliETH",
}

// DefaultRPC returns the public RPC for a chain, falling back to Ethereum.
func DefaultRPC(chain ChainID) string {
	if rpc, ok := DefaultRPCs[chain]; ok {
		return rpc
	}
	return DefaultRPCs[ChainIDEthereum]
}

// CurrencyDenom returns the native currency symbol for a chain.
func CurrencyDenom(chain ChainID) string {
	if d, ok := CurrencyDenoms[chain]; ok {
		return d
	}
	return "ETH"
}
