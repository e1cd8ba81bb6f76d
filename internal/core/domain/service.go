package domain

// OnChainState tracks a service through the registry's on-chain lifecycle.
type OnChainState int

const (
	StateNotMinted OnChainState = iota
	StateMinted
	StateActivated
	StateRegistered
	StateDeployed
	StateTerminated
	StateUnbonded
)

func (s OnChainState) String() string {
	switch s {
	case StateNotMinted:
		return "not_minted"
	case StateMinted:
		return "minted"
	case StateActivated:
		return "activated"
	case StateRegistered:
		return "registered"
	case StateDeployed:
		return "deployed"
	case StateTerminated:
		return "terminated"
	case StateUnbonded:
		return "unbonded"
	default:
		return "unknown"
	}
}

// DeploymentStatus is the local deployment state reported by the backend.
type DeploymentStatus string

const (
	DeploymentCreated   DeploymentStatus = "created"
	DeploymentBuilt     DeploymentStatus = "built"
	DeploymentDeploying DeploymentStatus = "deploying"
	DeploymentDeployed  DeploymentStatus = "deployed"
	DeploymentStopping  DeploymentStatus = "stopping"
	DeploymentStopped   DeploymentStatus = "stopped"
	DeploymentDeleted   DeploymentStatus = "deleted"
)

// ChainData holds a service's on-chain footprint. Instances and Multisig
// may be empty or malformed for services that are not fully deployed;
// consumers validate before use.
type ChainData struct {
	Token     int64        `json:"token"`
	Instances []string     `json:"instances"`
	Multisig  string       `json:"multisig"`
	State     OnChainState `json:"on_chain_state"`
}

// Service is a deployable agent service record as served by the backend.
// Records are replaced wholesale on each refresh, never patched.
type Service struct {
	Hash      string           `json:"hash"`
	Name      string           `json:"name"`
	Status    DeploymentStatus `json:"status"`
	ChainData ChainData        `json:"chain_data"`
}
