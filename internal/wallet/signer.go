package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/Mohsinsiddi/trexctl/internal/chain"
	"github.com/Mohsinsiddi/trexctl/internal/config"
)

// Signer sends transactions on behalf of one account.
type Signer interface {
	Address() common.Address
	// Send submits data to `to` (nil = contract creation) and waits for the receipt.
	Send(ctx context.Context, b chain.Backend, to *common.Address, data []byte) (*chain.Receipt, error)
}

// gasFor pads an estimate by 20%. Estimation failures that are not reverts fall
// back to the configured limits.
func gasFor(ctx context.Context, b chain.Backend, msg chain.CallMsg) (uint64, error) {
	est, err := b.EstimateGas(ctx, msg)
	if err == nil {
		return est * 12 / 10, nil
	}
	if errors.Is(err, chain.ErrTxReverted) {
		return 0, err
	}
	if msg.To == nil {
		return config.GasLimitDeploy, nil
	}
	return config.GasLimitContractCall, nil
}

// KeySigner signs EIP-1559 transactions locally with a private key.
type KeySigner struct {
	key  *ecdsa.PrivateKey
	addr common.Address
	mu   sync.Mutex // serialises nonce use
}

// NewKeySigner wraps a private key.
func NewKeySigner(key *ecdsa.PrivateKey) *KeySigner {
	return &KeySigner{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}
}

// KeySignerFromHex parses a hex private key (with or without 0x).
func KeySignerFromHex(hexKey string) (*KeySigner, error) {
	key, err := crypto.HexToECDSA(normaliseHexKey(hexKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return NewKeySigner(key), nil
}

// Address returns the signer's address.
func (s *KeySigner) Address() common.Address { return s.addr }

// Key exposes the private key (claim signing needs it).
func (s *KeySigner) Key() *ecdsa.PrivateKey { return s.key }

func (s *KeySigner) Send(ctx context.Context, b chain.Backend, to *common.Address, data []byte) (*chain.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chainID, err := b.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting chain id: %w", err)
	}
	nonce, err := b.PendingNonce(ctx, s.addr)
	if err != nil {
		return nil, fmt.Errorf("getting nonce: %w", err)
	}
	gasPrice, err := b.GasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting gas price: %w", err)
	}
	gas, err := gasFor(ctx, b, chain.CallMsg{From: s.addr, To: to, Data: data})
	if err != nil {
		return nil, err
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: gasPrice,
		GasFeeCap: new(big.Int).Mul(gasPrice, big.NewInt(2)),
		Gas:       gas,
		To:        to,
		Value:     new(big.Int),
		Data:      data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}

	hash, err := b.SendRawTransaction(ctx, signed)
	if err != nil {
		return nil, err
	}
	return b.WaitForReceipt(ctx, hash)
}

// NodeSigner sends through eth_sendTransaction; the node holds the key.
type NodeSigner struct {
	addr common.Address
}

// NewNodeSigner binds a node-managed account.
func NewNodeSigner(addr common.Address) *NodeSigner {
	return &NodeSigner{addr: addr}
}

func (s *NodeSigner) Address() common.Address { return s.addr }

func (s *NodeSigner) Send(ctx context.Context, b chain.Backend, to *common.Address, data []byte) (*chain.Receipt, error) {
	msg := chain.CallMsg{From: s.addr, To: to, Data: data}
	gas, err := gasFor(ctx, b, msg)
	if err != nil {
		return nil, err
	}
	msg.Gas = gas

	hash, err := b.SendTransaction(ctx, msg)
	if err != nil {
		return nil, err
	}
	return b.WaitForReceipt(ctx, hash)
}
