package contract_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/trexctl/internal/contract"
)

func TestNewRegistryEmpty(t *testing.T) {
	reg := contract.NewRegistry(filepath.Join(t.TempDir(), "localhost.json"))
	assert.Empty(t, reg.All())
	assert.False(t, reg.Exists())
}

func TestRegistryAddAndGet(t *testing.T) {
	reg := contract.NewRegistry(filepath.Join(t.TempDir(), "localhost.json"))
	reg.Add(contract.Entry{Name: "token", Artifact: "Token", Kind: contract.KindSuite, Address: "0x5FbDB2315678afecb367f032d93F642f64180aa3"})

	got, err := reg.Get("token")
	require.NoError(t, err)
	assert.Equal(t, "Token", got.Artifact)
	assert.Equal(t, "0x5FbDB2315678afecb367f032d93F642f64180aa3", got.Address)
}

func TestRegistryGetNotFound(t *testing.T) {
	reg := contract.NewRegistry(filepath.Join(t.TempDir(), "localhost.json"))
	_, err := reg.Get("nonexistent")
	assert.ErrorIs(t, err, contract.ErrContractNotFound)

	_, err = reg.Identity("alice")
	assert.ErrorIs(t, err, contract.ErrContractNotFound)
}

func TestRegistryAddOverwritesKeepsOrder(t *testing.T) {
	reg := contract.NewRegistry(filepath.Join(t.TempDir(), "localhost.json"))
	reg.Add(contract.Entry{Name: "a", Address: "0x01"})
	reg.Add(contract.Entry{Name: "b", Address: "0x02"})
	reg.Add(contract.Entry{Name: "a", Address: "0x03"})

	all := reg.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Name)
	assert.Equal(t, "0x03", all[0].Address)
}

func TestRegistrySaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deployments", "localhost.json")
	reg := contract.NewRegistry(path)
	reg.Reset("localhost", 31337)
	reg.Add(contract.Entry{Name: "token", Artifact: "Token", Address: "0x5FbDB2315678afecb367f032d93F642f64180aa3"})
	alice := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	reg.SetRoster(map[string]common.Address{"alice": alice})
	reg.SetIdentity("alice", common.HexToAddress("0x01"))
	reg.MarkIssued()
	require.NoError(t, reg.Save())

	loaded := contract.NewRegistry(path)
	require.NoError(t, loaded.Load())
	assert.True(t, loaded.Exists())

	rec := loaded.Record()
	assert.Equal(t, "localhost", rec.Network)
	assert.Equal(t, int64(31337), rec.ChainID)
	assert.True(t, rec.Issued)

	names, roster := loaded.Roster()
	assert.Equal(t, []string{"alice"}, names)
	assert.Equal(t, alice, roster["alice"])

	id, err := loaded.Identity("alice")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x01"), id)
}

func TestRegistryMarkIncomplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "localhost.json")
	reg := contract.NewRegistry(path)
	reg.Reset("localhost", 31337)
	reg.Add(contract.Entry{Name: "token", Address: "0x5FbDB2315678afecb367f032d93F642f64180aa3"})
	reg.MarkIncomplete(errors.New("step 16: boom"))
	require.NoError(t, reg.Save())

	loaded := contract.NewRegistry(path)
	require.NoError(t, loaded.Load())
	assert.Equal(t, "step 16: boom", loaded.Record().Incomplete)
	assert.Len(t, loaded.All(), 1)

	loaded.Reset("localhost", 31337)
	assert.Empty(t, loaded.Record().Incomplete)
}

func TestRegistryLoadMissingFileIsEmpty(t *testing.T) {
	reg := contract.NewRegistry(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, reg.Load())
	assert.Empty(t, reg.All())
}

func TestRegistryLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	assert.Error(t, contract.NewRegistry(path).Load())
}
