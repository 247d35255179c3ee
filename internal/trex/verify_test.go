package trex_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/trexctl/internal/trex"
	"github.com/Mohsinsiddi/trexctl/internal/wallet"
)

func statusByName(checks []trex.Check) map[string]string {
	out := make(map[string]string, len(checks))
	for _, c := range checks {
		out[c.Name] = c.Status
	}
	return out
}

func TestVerifyPassesAfterIssue(t *testing.T) {
	e := newEnv(t)
	s := e.deploy(t)
	_, err := trex.Issue(context.Background(), s, e.roster, e.cfg, nil)
	require.NoError(t, err)

	checks, err := trex.NewVerifier(e.b, s, e.roster, e.cfg, nil).Verify(context.Background())
	require.NoError(t, err)
	assert.False(t, trex.Failed(checks), "%+v", checks)

	st := statusByName(checks)
	assert.Equal(t, trex.StatusPass, st["roster: distinct addresses"])
	assert.Equal(t, trex.StatusPass, st["code: token"])
	assert.Equal(t, trex.StatusPass, st["identity: alice"])
	assert.Equal(t, trex.StatusPass, st["balance: deployer"])
	// 1 roster + 10 contracts + 5 identities + 5 balances
	assert.Len(t, checks, 21)
}

func TestVerifySkipsBalancesBeforeIssue(t *testing.T) {
	e := newEnv(t)
	s := e.deploy(t)

	checks, err := trex.NewVerifier(e.b, s, e.roster, e.cfg, nil).Verify(context.Background())
	require.NoError(t, err)
	assert.False(t, trex.Failed(checks))
	assert.Equal(t, trex.StatusSkip, statusByName(checks)["balance: alice"])
}

func TestVerifyReportsBalanceMismatch(t *testing.T) {
	e := newEnv(t)
	s := e.deploy(t)
	_, err := trex.Issue(context.Background(), s, e.roster, e.cfg, nil)
	require.NoError(t, err)

	agent, err := e.roster.Signer(wallet.RoleTokenAgent)
	require.NoError(t, err)
	_, err = s.Token().Transact(context.Background(), agent, "mint", e.addr(t, "bob"), 1)
	require.NoError(t, err)

	checks, err := trex.NewVerifier(e.b, s, e.roster, e.cfg, nil).Verify(context.Background())
	require.NoError(t, err)
	assert.True(t, trex.Failed(checks))
	for _, c := range checks {
		if c.Name == "balance: bob" {
			assert.Equal(t, trex.StatusFail, c.Status)
			assert.Equal(t, "balance 2001, want 2000", c.Detail)
		}
	}
}

func TestHolderStates(t *testing.T) {
	e := newEnv(t)
	s := e.deploy(t)
	_, err := trex.Issue(context.Background(), s, e.roster, e.cfg, nil)
	require.NoError(t, err)

	agent, _ := e.roster.Signer(wallet.RoleTokenAgent)
	ctx := context.Background()
	_, err = s.Token().Transact(ctx, agent, "freezePartialTokens", e.addr(t, "alice"), 400)
	require.NoError(t, err)
	_, err = s.Token().Transact(ctx, agent, "setAddressFrozen", e.addr(t, "david"), true)
	require.NoError(t, err)

	names := []string{"alice", "bob", "david"}
	states, err := s.Token().HolderStates(ctx, names, e.roster.Addresses())
	require.NoError(t, err)
	require.Len(t, states, 3)

	assert.Equal(t, "alice", states[0].Name)
	assert.Equal(t, big.NewInt(1000), states[0].Balance)
	assert.Equal(t, big.NewInt(400), states[0].Frozen)
	assert.False(t, states[0].IsFrozen)
	assert.Equal(t, big.NewInt(2000), states[1].Balance)
	assert.True(t, states[2].IsFrozen)

	_, err = s.Token().HolderStates(ctx, []string{"nobody"}, e.roster.Addresses())
	assert.ErrorContains(t, err, "no address for nobody")
}
