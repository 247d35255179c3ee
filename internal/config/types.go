package config

// Config holds all trexctl configuration.
type Config struct {
	DefaultNetwork  string             `json:"default_network"`
	Networks        map[string]Network `json:"networks"`
	ArtifactsDir    string             `json:"artifacts_dir"`
	DeploymentsDir  string             `json:"deployments_dir,omitempty"` // default: <config dir>/deployments
	Token           TokenConfig        `json:"token"`
	Claim           ClaimConfig        `json:"claim"`
	DeployerCountry uint16             `json:"deployer_country"`
	DeployerMint    string             `json:"deployer_mint"`
	Investors       []Investor         `json:"investors"`
	RecoveryWallet  string             `json:"recovery_wallet"` // roster name of the wallet used for recovery

	// internal: config dir path used for Save()
	configDir string
}

// Network is one RPC profile.
type Network struct {
	RPCs         []string `json:"rpcs"`
	Accounts     string   `json:"accounts"`                // "node" | "keystore"
	ChainID      int64    `json:"chain_id,omitempty"`      // 0 = ask the node
	RPCAlgorithm string   `json:"rpc_algorithm,omitempty"` // "fastest" | "round-robin" | "failover"
	RateLimit    float64  `json:"rate_limit,omitempty"`    // requests per second, 0 = unlimited
	Confirm      bool     `json:"confirm,omitempty"`       // ask before broadcasting a deployment
}

// TokenConfig holds the constructor values of the token.
type TokenConfig struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// ClaimConfig describes the single claim every holder receives.
type ClaimConfig struct {
	Topic  string `json:"topic"`
	Scheme uint64 `json:"scheme"`
	Data   string `json:"data"`
}

// Investor is a token holder registered in the identity registry.
type Investor struct {
	Name    string `json:"name"`
	Country uint16 `json:"country"`
	Mint    string `json:"mint"` // base units
}
