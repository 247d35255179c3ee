package wallet_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/trexctl/internal/artifact"
	"github.com/Mohsinsiddi/trexctl/internal/chain"
	"github.com/Mohsinsiddi/trexctl/internal/wallet"
	"github.com/Mohsinsiddi/trexctl/test/fixtures"
)

func TestKeySignerFromHex(t *testing.T) {
	s, err := wallet.KeySignerFromHex("0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), s.Address())

	_, err = wallet.KeySignerFromHex("zz")
	assert.ErrorIs(t, err, wallet.ErrInvalidKey)
}

func TestKeySignerSendsSequentialNonces(t *testing.T) {
	b := fixtures.NewBackend(t, 1)
	s := wallet.NewKeySigner(b.Key(0))
	ctx := context.Background()
	to := common.HexToAddress("0x1234")

	for i := 0; i < 3; i++ {
		receipt, err := s.Send(ctx, b, &to, nil)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), receipt.Status)
	}
	nonce, err := b.PendingNonce(ctx, s.Address())
	require.NoError(t, err)
	assert.Equal(t, uint64(3), nonce)
}

func TestKeySignerDeploysContract(t *testing.T) {
	b := fixtures.NewBackend(t, 1)
	s := wallet.NewKeySigner(b.Key(0))

	// ClaimTopicsRegistry takes no constructor args, so its bytecode alone deploys.
	art, err := artifact.Load(filepath.Join(fixtures.ArtifactsDir(), "contracts", "ClaimTopicsRegistry.json"))
	require.NoError(t, err)
	receipt, err := s.Send(context.Background(), b, nil, art.Bytecode)
	require.NoError(t, err)
	assert.Equal(t, crypto.CreateAddress(s.Address(), 0), receipt.ContractAddress)
}

func TestKeySignerRevertReturnsReceipt(t *testing.T) {
	b := fixtures.NewBackend(t, 1)
	s := wallet.NewKeySigner(b.Key(0))

	// unknown init code fails the creation
	receipt, err := s.Send(context.Background(), b, nil, []byte{0xde, 0xad})
	require.Error(t, err)
	assert.ErrorIs(t, err, chain.ErrTxReverted)
	require.NotNil(t, receipt)
	assert.Equal(t, uint64(0), receipt.Status)
}

func TestNodeSignerSends(t *testing.T) {
	b := fixtures.NewBackend(t, 2)
	accounts, err := b.Accounts(context.Background())
	require.NoError(t, err)

	s := wallet.NewNodeSigner(accounts[1])
	to := accounts[0]
	receipt, err := s.Send(context.Background(), b, &to, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), receipt.Status)
	assert.Equal(t, accounts[1], s.Address())
}
