package cmd

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/trexctl/internal/chain"
	"github.com/Mohsinsiddi/trexctl/internal/config"
	"github.com/Mohsinsiddi/trexctl/internal/contract"
	"github.com/Mohsinsiddi/trexctl/internal/scenario"
	"github.com/Mohsinsiddi/trexctl/internal/trex"
	"github.com/Mohsinsiddi/trexctl/internal/wallet"
	"github.com/Mohsinsiddi/trexctl/test/fixtures"
)

// harness runs commands against an in-memory chain and keystore.
type harness struct {
	t     *testing.T
	dir   string
	b     *fixtures.Backend
	model *fixtures.Suite
	ks    *wallet.InMemoryKeystore
	stdin string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	b := fixtures.NewBackend(t, 10)
	h := &harness{
		t:     t,
		dir:   t.TempDir(),
		b:     b,
		model: fixtures.InstallSuite(b),
		ks:    wallet.NewInMemoryKeystore(),
	}
	prevDial, prevKeystore := dialBackend, openKeystore
	dialBackend = func(context.Context, config.Network) (chain.Backend, error) { return b, nil }
	openKeystore = func(string) wallet.KeystoreBackend { return h.ks }
	t.Cleanup(func() {
		dialBackend, openKeystore = prevDial, prevKeystore
	})
	return h
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(h.stdin))
	rootCmd.SetArgs(append([]string{"--config", h.dir, "--artifacts", fixtures.ArtifactsDir()}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) record(network string) contract.Record {
	h.t.Helper()
	reg := contract.NewRegistry(filepath.Join(h.dir, "deployments", network+".json"))
	require.True(h.t, reg.Exists())
	require.NoError(h.t, reg.Load())
	return reg.Record()
}

func (h *harness) balance(rec contract.Record, holder string) *big.Int {
	h.t.Helper()
	var token common.Address
	for _, e := range rec.Contracts {
		if e.Name == trex.NameToken {
			token = common.HexToAddress(e.Address)
		}
	}
	return h.model.Balance(token, common.HexToAddress(rec.Roster[holder]))
}

// resetFlags restores every flag to its default between runs; cobra keeps
// parsed values on the package-level command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func TestDeployIssueVerifyStatus(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("deploy", "--issue")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Suite deployed")
	assert.Contains(t, out, "Minted to 5 holders")

	rec := h.record("localhost")
	assert.Equal(t, "localhost", rec.Network)
	assert.Equal(t, int64(31337), rec.ChainID)
	assert.True(t, rec.Issued)
	assert.Len(t, rec.Identities, 5)
	assert.Equal(t, "2000", h.balance(rec, "bob").String())

	out, err = h.run("verify")
	require.NoError(t, err, out)
	assert.Contains(t, out, "0 failed")

	out, err = h.run("status")
	require.NoError(t, err, out)
	assert.Contains(t, out, "ERC-3643")
	assert.Contains(t, out, "0.11 TREX")
	assert.Contains(t, out, rec.Roster["alice"])
}

func TestDeployWithScenario(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("deploy", "--scenario")
	require.NoError(t, err, out)
	assert.Contains(t, out, "token-operations: 37 steps, 0 failed")

	rec := h.record("localhost")
	for holder, want := range map[string]string{
		"deployer": "94000", "alice": "2000", "bob": "0",
		"charlie": "7500", "david": "3500", "another": "4500",
	} {
		assert.Equal(t, want, h.balance(rec, holder).String(), holder)
	}

	// balances no longer match the initial allocation
	out, err = h.run("verify")
	assert.ErrorIs(t, err, errVerifyFailed)
	assert.Contains(t, out, "balance: bob")
}

func TestAbortedDeployKeepsAddresses(t *testing.T) {
	h := newHarness(t)
	h.b.OnDeploy(func(d fixtures.Deployment, c *fixtures.Contract) {
		if d.Name == "ClaimIssuer" {
			c.Methods["addKey"] = func(common.Address, []interface{}) ([]interface{}, error) {
				return nil, errors.New("boom")
			}
		}
	})

	out, err := h.run("deploy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, out, "Deployment aborted after 10 contracts")

	rec := h.record("localhost")
	assert.Contains(t, rec.Incomplete, "step 16")
	require.Len(t, rec.Contracts, 10)
	assert.Equal(t, trex.NameClaimIssuer, rec.Contracts[9].Name)

	_, err = h.run("status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "was aborted")
}

func TestCommandsNeedDeployment(t *testing.T) {
	h := newHarness(t)
	for _, args := range [][]string{{"issue"}, {"status"}, {"verify"}, {"scenario", "run"}} {
		_, err := h.run(args...)
		require.Error(t, err, args)
		assert.Contains(t, err.Error(), "run `trexctl deploy` first", args)
	}
}

func TestIssueTwiceNeedsForce(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("deploy", "--issue")
	require.NoError(t, err)

	out, err := h.run("issue")
	require.NoError(t, err)
	assert.Contains(t, out, "already minted")
	rec := h.record("localhost")
	assert.Equal(t, "1000", h.balance(rec, "alice").String())

	_, err = h.run("issue", "--force")
	require.NoError(t, err)
	assert.Equal(t, "2000", h.balance(rec, "alice").String())
}

func TestScenarioRunReportsFailures(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("deploy", "--issue")
	require.NoError(t, err)

	path := fixtures.WriteFile(t, t.TempDir(), "check.yaml", `
name: check
steps:
  - name: mint to alice
    call: mint
    args: [alice, 5]
    expect:
      - {view: balanceOf, of: alice, equals: 1000}
  - name: pause
    call: pause
`)
	out, err := h.run("scenario", "run", path)
	assert.ErrorIs(t, err, scenario.ErrExpectationFailed)
	assert.Contains(t, out, "token.balanceOf(alice) = 1005, want 1000")
	assert.Contains(t, out, "1 not run")

	out, err = h.run("scenario", "run", path, "--keep-going")
	assert.ErrorIs(t, err, scenario.ErrExpectationFailed)
	assert.Contains(t, out, "check: 2 steps, 1 failed")
}

func TestScenarioList(t *testing.T) {
	h := newHarness(t)
	out, err := h.run("scenario", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "token-operations")
	assert.Contains(t, out, "37 steps")
	assert.Contains(t, out, "(reverts)")
}

func TestAccounts(t *testing.T) {
	h := newHarness(t)
	out, err := h.run("accounts")
	require.NoError(t, err, out)
	deployer := crypto.PubkeyToAddress(h.b.Key(0).PublicKey)
	assert.Contains(t, out, deployer.Hex())
	assert.Contains(t, out, wallet.KeyClaimSigning)
	assert.Contains(t, out, "another")
}

func TestChainIDMismatch(t *testing.T) {
	h := newHarness(t)
	t.Setenv(config.EnvAmoyRPC, "https://rpc-amoy.example")
	_, err := h.run("accounts", "--network", "amoy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expects chain id 80002, node reports 31337")
}

func writeKeystoreNetwork(t *testing.T, dir string) {
	t.Helper()
	fixtures.WriteFile(t, dir, "config.json", `{
  "networks": {
    "devkeys": {"rpcs": ["http://fixture"], "accounts": "keystore"}
  }
}`)
}

func TestDeployFromKeystore(t *testing.T) {
	h := newHarness(t)
	writeKeystoreNetwork(t, h.dir)

	_, err := h.run("deploy", "--network", "devkeys")
	require.Error(t, err)
	assert.ErrorIs(t, err, wallet.ErrKeyNotFound)

	order := []string{"deployer", "tokenIssuer", "tokenAgent", "tokenAdmin", "claimIssuer", "alice", "bob", "charlie", "david", "another"}
	for i, role := range order {
		require.NoError(t, h.ks.Store(role, hex.EncodeToString(crypto.FromECDSA(h.b.Key(i)))))
	}
	out, err := h.run("deploy", "--network", "devkeys", "--issue")
	require.NoError(t, err, out)

	rec := h.record("devkeys")
	assert.Equal(t, crypto.PubkeyToAddress(h.b.Key(2).PublicKey).Hex(), rec.Roster["tokenAgent"])
	assert.Equal(t, "5000", h.balance(rec, "charlie").String())
}

func TestWalletImportListRemove(t *testing.T) {
	h := newHarness(t)
	key := "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

	out, err := h.run("wallet", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No role keys stored")

	out, err = h.run("wallet", "import", "deployer", key)
	require.NoError(t, err, out)
	assert.Contains(t, out, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

	h.stdin = key + "\n"
	_, err = h.run("wallet", "import", "alice")
	require.NoError(t, err)
	h.stdin = ""

	out, err = h.run("wallet", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "deployer")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "2 key(s) stored")

	_, err = h.run("wallet", "import", "mallory", key)
	assert.ErrorIs(t, err, wallet.ErrRoleNotFound)
	_, err = h.run("wallet", "import", "bob", "0x1234")
	assert.Error(t, err)

	_, err = h.run("wallet", "remove", "alice", "--yes")
	require.NoError(t, err)
	roles, err := h.ks.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"deployer"}, roles)
}

func TestClaimSignAndVerify(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ks.Store("claimIssuer", "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"))
	identity := "0x5FbDB2315678afecb367f032d93F642f64180aa3"

	out, err := h.run("claim", "sign", "--identity", identity, "--key", "claimIssuer")
	require.NoError(t, err, out)
	sig := regexp.MustCompile(`0x[0-9a-f]{130}`).FindString(out)
	require.NotEmpty(t, sig, out)

	out, err = h.run("claim", "verify", "--identity", identity, "--signature", sig)
	require.NoError(t, err, out)
	assert.Contains(t, out, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	assert.Contains(t, out, "CLAIM")

	_, err = h.run("claim", "verify", "--identity", "nope", "--signature", sig)
	assert.ErrorContains(t, err, "invalid --identity")
	_, err = h.run("claim", "sign")
	assert.Error(t, err)
}

func TestParseTopic(t *testing.T) {
	assert.Equal(t, big.NewInt(7), parseTopic("7"))
	assert.Equal(t, crypto.Keccak256Hash([]byte("CLAIM_TOPIC")).Big(), parseTopic("CLAIM_TOPIC"))
}

func TestRosterDrift(t *testing.T) {
	roster, err := wallet.NewRoster([]string{"alice"}, "")
	require.NoError(t, err)
	a, b := common.HexToAddress("0x01"), common.HexToAddress("0x02")
	roster.Bind("deployer", wallet.NewNodeSigner(a))
	roster.Bind("alice", wallet.NewNodeSigner(a))

	reg := contract.NewRegistry(filepath.Join(t.TempDir(), "r.json"))
	reg.SetRoster(map[string]common.Address{
		"deployer":             a,
		"alice":                b,
		wallet.KeyClaimSigning: b,
		"gone":                 b,
	})
	assert.Equal(t, []string{"alice"}, rosterDrift(reg, roster))
}

func TestInitAndNetworkUse(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("init")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(h.dir, "config.json"))

	out, err := h.run("network", "use", "amoy")
	require.NoError(t, err, out)
	data, err := os.ReadFile(filepath.Join(h.dir, "config.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"default_network": "amoy"`)

	out, err = h.run("network", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "localhost")
}
