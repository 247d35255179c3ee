package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Mohsinsiddi/trexctl/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.DefaultNetwork)
	assert.Equal(t, "ERC-3643", cfg.Token.Name)
	assert.Equal(t, "TREX", cfg.Token.Symbol)
	assert.Equal(t, uint8(6), cfg.Token.Decimals)
	assert.Equal(t, "CLAIM_TOPIC", cfg.Claim.Topic)
	assert.Equal(t, uint64(1), cfg.Claim.Scheme)
	assert.Equal(t, uint16(300), cfg.DeployerCountry)
	require.Len(t, cfg.Investors, 4)
	assert.Equal(t, "alice", cfg.Investors[0].Name)
	assert.Equal(t, uint16(42), cfg.Investors[0].Country)
	assert.Equal(t, "another", cfg.RecoveryWallet)
}

func TestHolderNamesStartWithDeployer(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, []string{"deployer", "alice", "bob", "charlie", "david"}, cfg.HolderNames())
}

func TestSaveAndReloadConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	cfg.DefaultNetwork = "amoy"
	cfg.Token.Symbol = "RPTR"
	cfg.Investors = []config.Investor{{Name: "adam", Country: 42, Mint: "10"}}
	require.NoError(t, cfg.Save())

	reloaded, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "amoy", reloaded.DefaultNetwork)
	assert.Equal(t, "RPTR", reloaded.Token.Symbol)
	require.Len(t, reloaded.Investors, 1)
	assert.Equal(t, "adam", reloaded.Investors[0].Name)
}

func TestLoadKeepsBuiltinNetworksWhenPartiallyOverridden(t *testing.T) {
	dir := t.TempDir()
	raw := `{"networks": {"anvil": {"rpcs": ["http://127.0.0.1:8546"], "accounts": "node"}}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(raw), 0o600))

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Contains(t, cfg.Networks, "localhost")
	assert.Contains(t, cfg.Networks, "anvil")
}

func TestLoadRejectsUnknownAccountSource(t *testing.T) {
	dir := t.TempDir()
	raw := `{"networks": {"bad": {"rpcs": ["http://x"], "accounts": "ledger"}}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(raw), 0o600))

	_, err := config.Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accounts must be")
}

func TestLoadRejectsDuplicateInvestor(t *testing.T) {
	dir := t.TempDir()
	raw := `{"investors": [{"name": "bob"}, {"name": "Bob"}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(raw), 0o600))

	_, err := config.Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate holder")
}

func TestLoadInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte("{nope"), 0o600))
	_, err := config.Load(dir)
	assert.Error(t, err)
}

func TestNetworkDefaultsAndEnvOverride(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	name, n, err := cfg.Network("")
	require.NoError(t, err)
	assert.Equal(t, "localhost", name)
	assert.Equal(t, []string{"http://localhost:8545"}, n.RPCs)
	assert.Equal(t, config.AccountsNode, n.Accounts)
	assert.Equal(t, "fastest", n.RPCAlgorithm)

	t.Setenv(config.EnvRPCURL, "http://10.0.0.1:8545")
	_, n, err = cfg.Network("localhost")
	require.NoError(t, err)
	assert.Equal(t, []string{"http://10.0.0.1:8545"}, n.RPCs)
}

func TestNetworkAmoyNeedsEndpoint(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	t.Setenv(config.EnvAmoyRPC, "")
	_, _, err = cfg.Network("amoy")
	require.Error(t, err)

	t.Setenv(config.EnvAmoyRPC, "https://rpc-amoy.example")
	_, n, err := cfg.Network("amoy")
	require.NoError(t, err)
	assert.Equal(t, config.AccountsKeystore, n.Accounts)
	assert.Equal(t, "failover", n.RPCAlgorithm)
	assert.Equal(t, int64(80002), n.ChainID)
}

func TestNetworkUnknown(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	_, _, err = cfg.Network("mainnet")
	assert.Error(t, err)
}

func TestDeploymentPath(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "deployments", "localhost.json"), cfg.DeploymentPath("localhost"))

	cfg.DeploymentsDir = "/tmp/deps"
	assert.Equal(t, filepath.Join("/tmp/deps", "amoy.json"), cfg.DeploymentPath("amoy"))
}
