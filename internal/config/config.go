package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultNetwork   = "localhost"
	defaultAlgorithm = "fastest"
	defaultLocalRPC  = "http://localhost:8545"

	configFile     = "config.json"
	deploymentsDir = "deployments"

	// EnvRPCURL overrides the RPC list of the active network.
	EnvRPCURL = "TREXCTL_RPC_URL"
	// EnvAmoyRPC supplies the endpoint of the built-in amoy profile.
	EnvAmoyRPC = "TREXCTL_AMOY_RPC"
)

// Load reads config from dir (or creates defaults). dir defaults to ~/.trexctl.
func Load(dir string) (*Config, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".trexctl")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg := defaults(dir)

	path := filepath.Join(dir, configFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.configDir = dir
	if cfg.Networks == nil {
		cfg.Networks = defaultNetworks()
	}

	return cfg, cfg.Validate()
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir, configFile), data, 0o600)
}

// Validate reports configuration that would break a deployment half-way.
func (c *Config) Validate() error {
	seen := map[string]bool{"deployer": true}
	for _, inv := range c.Investors {
		name := strings.ToLower(inv.Name)
		if name == "" {
			return fmt.Errorf("investor with empty name")
		}
		if seen[name] {
			return fmt.Errorf("duplicate holder name %q", inv.Name)
		}
		seen[name] = true
	}
	if c.Token.Name == "" || c.Token.Symbol == "" {
		return fmt.Errorf("token name and symbol are required")
	}
	if c.Claim.Topic == "" {
		return fmt.Errorf("claim topic is required")
	}
	for name, n := range c.Networks {
		if n.Accounts != AccountsNode && n.Accounts != AccountsKeystore {
			return fmt.Errorf("network %s: accounts must be %q or %q, got %q", name, AccountsNode, AccountsKeystore, n.Accounts)
		}
	}
	return nil
}

// Network returns the profile called name (default network when empty).
// The TREXCTL_RPC_URL env var replaces its RPC list.
func (c *Config) Network(name string) (string, Network, error) {
	if name == "" {
		name = c.DefaultNetwork
	}
	n, ok := c.Networks[name]
	if !ok {
		return "", Network{}, fmt.Errorf("unknown network %q", name)
	}
	if env := os.Getenv(EnvRPCURL); env != "" {
		n.RPCs = []string{env}
	}
	if name == "amoy" && len(n.RPCs) == 0 {
		if env := os.Getenv(EnvAmoyRPC); env != "" {
			n.RPCs = []string{env}
		}
	}
	if len(n.RPCs) == 0 {
		return "", Network{}, fmt.Errorf("network %s has no RPC endpoint configured", name)
	}
	if n.RPCAlgorithm == "" {
		n.RPCAlgorithm = defaultAlgorithm
	}
	return name, n, nil
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// DeploymentPath returns the deployment record file for a network.
func (c *Config) DeploymentPath(network string) string {
	dir := c.DeploymentsDir
	if dir == "" {
		dir = filepath.Join(c.configDir, deploymentsDir)
	}
	return filepath.Join(dir, network+".json")
}

// HolderNames returns the deployer followed by every investor, in registration order.
func (c *Config) HolderNames() []string {
	names := []string{"deployer"}
	for _, inv := range c.Investors {
		names = append(names, strings.ToLower(inv.Name))
	}
	return names
}

// --- helpers ---

func defaults(dir string) *Config {
	return &Config{
		DefaultNetwork: defaultNetwork,
		Networks:       defaultNetworks(),
		ArtifactsDir:   "artifacts",
		Token: TokenConfig{
			Name:     "ERC-3643",
			Symbol:   "TREX",
			Decimals: 6,
		},
		Claim: ClaimConfig{
			Topic:  "CLAIM_TOPIC",
			Scheme: 1,
			Data:   "Some claim public data.",
		},
		DeployerCountry: 300,
		DeployerMint:    "100000",
		Investors: []Investor{
			{Name: "alice", Country: 42, Mint: "1000"},
			{Name: "bob", Country: 666, Mint: "2000"},
			{Name: "charlie", Country: 304, Mint: "5000"},
			{Name: "david", Country: 201, Mint: "2000"},
		},
		RecoveryWallet: "another",
		configDir:      dir,
	}
}

func defaultNetworks() map[string]Network {
	return map[string]Network{
		"localhost": {
			RPCs:     []string{defaultLocalRPC},
			Accounts: AccountsNode,
		},
		"amoy": {
			Accounts:     AccountsKeystore,
			ChainID:      80002,
			RPCAlgorithm: "failover",
			RateLimit:    10,
			Confirm:      true,
		},
	}
}
