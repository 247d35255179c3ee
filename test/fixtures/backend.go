package fixtures

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/trexctl/internal/chain"
)

// Method implements one contract function in Go. Returning an error reverts.
type Method func(from common.Address, args []interface{}) ([]interface{}, error)

// Contract is a deployed fake contract.
type Contract struct {
	Name    string
	Address common.Address
	ABI     abi.ABI
	Methods map[string]Method
	code    []byte
}

// Deployment describes a contract creation seen by the backend.
type Deployment struct {
	Name    string
	Address common.Address
	From    common.Address
	Args    []interface{}
}

// Sent is a transaction executed against a contract.
type Sent struct {
	From     common.Address
	To       common.Address
	Contract string
	Method   string
	Args     []interface{}
	Reverted bool
}

// Backend is an in-memory chain.Backend. Contract creations are recognised by
// the fixture artifact bytecode they start with; calls dispatch to Go methods
// installed through OnDeploy. Functions without a Go implementation succeed
// as no-ops and read as zero values.
type Backend struct {
	mu        sync.Mutex
	chainID   *big.Int
	keys      []*ecdsa.PrivateKey
	artifacts []fixtureArtifact
	nonces    map[common.Address]uint64
	contracts map[common.Address]*Contract
	receipts  map[common.Hash]*chain.Receipt
	reasons   map[common.Hash]string
	onDeploy  []func(d Deployment, c *Contract)
	block     uint64

	Deployments []Deployment
	Sent        []Sent
}

var _ chain.Backend = (*Backend)(nil)

// NewBackend returns a backend with n deterministic funded accounts.
func NewBackend(t *testing.T, n int) *Backend {
	t.Helper()
	arts, err := loadArtifacts()
	require.NoError(t, err)

	b := &Backend{
		chainID:   big.NewInt(31337),
		artifacts: arts,
		nonces:    make(map[common.Address]uint64),
		contracts: make(map[common.Address]*Contract),
		receipts:  make(map[common.Hash]*chain.Receipt),
		reasons:   make(map[common.Hash]string),
	}
	for i := 0; i < n; i++ {
		seed := crypto.Keccak256([]byte(fmt.Sprintf("trexctl fixture account %d", i)))
		key, err := crypto.ToECDSA(seed)
		require.NoError(t, err)
		b.keys = append(b.keys, key)
	}
	return b
}

// Key returns the private key of account i.
func (b *Backend) Key(i int) *ecdsa.PrivateKey { return b.keys[i] }

// OnDeploy registers a hook run for every contract creation.
func (b *Backend) OnDeploy(fn func(d Deployment, c *Contract)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onDeploy = append(b.onDeploy, fn)
}

// ContractAt returns the fake contract at addr, or nil.
func (b *Backend) ContractAt(addr common.Address) *Contract {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.contracts[addr]
}

// Calls returns the sent transactions whose method matches, in order.
func (b *Backend) Calls(method string) []Sent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Sent
	for _, s := range b.Sent {
		if s.Method == method {
			out = append(out, s)
		}
	}
	return out
}

func (b *Backend) Accounts(context.Context) ([]common.Address, error) {
	out := make([]common.Address, len(b.keys))
	for i, k := range b.keys {
		out[i] = crypto.PubkeyToAddress(k.PublicKey)
	}
	return out, nil
}

func (b *Backend) ChainID(context.Context) (*big.Int, error) { return new(big.Int).Set(b.chainID), nil }

func (b *Backend) PendingNonce(_ context.Context, addr common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nonces[addr], nil
}

func (b *Backend) GasPrice(context.Context) (*big.Int, error) { return big.NewInt(1_000_000_000), nil }

func (b *Backend) EstimateGas(context.Context, chain.CallMsg) (uint64, error) { return 100_000, nil }

func (b *Backend) GetCode(_ context.Context, addr common.Address) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok := b.contracts[addr]; ok {
		return c.code, nil
	}
	return nil, nil
}

func (b *Backend) Call(_ context.Context, msg chain.CallMsg) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if msg.To == nil {
		return nil, errors.New("fake: eth_call without target")
	}
	out, _, err := b.exec(msg.From, *msg.To, msg.Data, true)
	if err != nil {
		return nil, &chain.RevertError{Reason: err.Error()}
	}
	return out, nil
}

func (b *Backend) SendTransaction(_ context.Context, msg chain.CallMsg) (common.Hash, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	nonce := b.nonces[msg.From]
	hash := syntheticHash(msg.From, nonce)
	b.apply(hash, msg.From, nonce, msg.To, msg.Data)
	return hash, nil
}

func (b *Backend) SendRawTransaction(_ context.Context, tx *types.Transaction) (common.Hash, error) {
	from, err := types.Sender(types.LatestSignerForChainID(b.chainID), tx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("fake: invalid sender: %w", err)
	}
	if tx.ChainId().Cmp(b.chainID) != 0 {
		return common.Hash{}, fmt.Errorf("fake: wrong chain id %s", tx.ChainId())
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if want := b.nonces[from]; tx.Nonce() != want {
		return common.Hash{}, fmt.Errorf("fake: nonce %d, want %d", tx.Nonce(), want)
	}
	b.apply(tx.Hash(), from, tx.Nonce(), tx.To(), tx.Data())
	return tx.Hash(), nil
}

func (b *Backend) WaitForReceipt(_ context.Context, hash common.Hash) (*chain.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.receipts[hash]
	if !ok {
		return nil, fmt.Errorf("fake: unknown transaction %s", hash.Hex())
	}
	if r.Status == 0 {
		return r, &chain.RevertError{Hash: hash, Reason: b.reasons[hash]}
	}
	return r, nil
}

func syntheticHash(from common.Address, nonce uint64) common.Hash {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], nonce)
	return crypto.Keccak256Hash(from.Bytes(), n[:])
}

// apply executes a transaction and stores its receipt. Must hold b.mu.
func (b *Backend) apply(hash common.Hash, from common.Address, nonce uint64, to *common.Address, data []byte) {
	b.nonces[from] = nonce + 1
	b.block++
	receipt := &chain.Receipt{Hash: hash, Status: 1, BlockNumber: b.block, GasUsed: 21_000}

	if to == nil {
		addr, err := b.create(from, nonce, data)
		if err != nil {
			receipt.Status = 0
			b.reasons[hash] = err.Error()
		} else {
			receipt.ContractAddress = addr
		}
	} else if _, _, err := b.exec(from, *to, data, false); err != nil {
		receipt.Status = 0
		b.reasons[hash] = err.Error()
	}
	b.receipts[hash] = receipt
}

func (b *Backend) create(from common.Address, nonce uint64, initCode []byte) (common.Address, error) {
	for _, a := range b.artifacts {
		if !bytes.HasPrefix(initCode, a.code) {
			continue
		}
		args, err := a.abi.Constructor.Inputs.Unpack(initCode[len(a.code):])
		if err != nil {
			return common.Address{}, fmt.Errorf("fake: bad constructor args for %s: %w", a.name, err)
		}
		addr := crypto.CreateAddress(from, nonce)
		c := &Contract{Name: a.name, Address: addr, ABI: a.abi, Methods: map[string]Method{}, code: a.code}
		d := Deployment{Name: a.name, Address: addr, From: from, Args: args}
		b.contracts[addr] = c
		b.Deployments = append(b.Deployments, d)
		for _, hook := range b.onDeploy {
			hook(d, c)
		}
		return addr, nil
	}
	return common.Address{}, errors.New("fake: unknown init code")
}

// exec dispatches input to the contract at to. Must hold b.mu.
func (b *Backend) exec(from, to common.Address, input []byte, static bool) ([]byte, *abi.Method, error) {
	c, ok := b.contracts[to]
	if !ok {
		if len(input) == 0 && !static {
			return nil, nil, nil // plain value transfer
		}
		return nil, nil, fmt.Errorf("no contract at %s", to.Hex())
	}
	if len(input) < 4 {
		return nil, nil, errors.New("missing selector")
	}
	m, err := c.ABI.MethodById(input[:4])
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", c.Name, err)
	}
	args, err := m.Inputs.Unpack(input[4:])
	if err != nil {
		return nil, m, fmt.Errorf("%s.%s: %w", c.Name, m.Name, err)
	}

	var out []interface{}
	if fn, ok := c.Methods[m.Name]; ok {
		out, err = fn(from, args)
	} else {
		out = zeroOutputs(m)
	}
	if !static {
		b.Sent = append(b.Sent, Sent{From: from, To: to, Contract: c.Name, Method: m.Name, Args: args, Reverted: err != nil})
	}
	if err != nil {
		return nil, m, err
	}
	if len(out) == 0 && len(m.Outputs) > 0 {
		out = zeroOutputs(m)
	}
	packed, err := m.Outputs.Pack(out...)
	if err != nil {
		return nil, m, fmt.Errorf("%s.%s: packing outputs: %w", c.Name, m.Name, err)
	}
	return packed, m, nil
}

func zeroOutputs(m *abi.Method) []interface{} {
	out := make([]interface{}, len(m.Outputs))
	for i, o := range m.Outputs {
		if o.Type.T == abi.IntTy || o.Type.T == abi.UintTy {
			if o.Type.Size > 64 {
				out[i] = new(big.Int)
				continue
			}
		}
		out[i] = reflect.Zero(o.Type.GetType()).Interface()
	}
	return out
}
