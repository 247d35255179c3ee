package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// ErrTxReverted is wrapped by every RevertError.
var ErrTxReverted = errors.New("transaction reverted")

// RevertError reports a call or transaction rejected by the EVM.
type RevertError struct {
	Hash   common.Hash // zero when the revert was detected before broadcasting
	Reason string
}

func (e *RevertError) Error() string {
	var sb strings.Builder
	sb.WriteString(ErrTxReverted.Error())
	if e.Hash != (common.Hash{}) {
		sb.WriteString(" (hash: " + e.Hash.Hex() + ")")
	}
	if e.Reason != "" {
		sb.WriteString(": " + e.Reason)
	}
	return sb.String()
}

func (e *RevertError) Unwrap() error { return ErrTxReverted }

// Receipt holds the on-chain receipt of a mined transaction.
type Receipt struct {
	Hash            common.Hash
	Status          uint64 // 1 = success, 0 = reverted
	BlockNumber     uint64
	GasUsed         uint64
	ContractAddress common.Address // non-zero when a contract was deployed
}

type rpcReceipt struct {
	TransactionHash common.Hash     `json:"transactionHash"`
	Status          hexutil.Uint64  `json:"status"`
	BlockNumber     hexutil.Uint64  `json:"blockNumber"`
	GasUsed         hexutil.Uint64  `json:"gasUsed"`
	ContractAddress *common.Address `json:"contractAddress"`
}

// Receipt fetches the receipt for hash. Returns nil, nil while the transaction is pending.
func (c *Client) Receipt(ctx context.Context, hash common.Hash) (*Receipt, error) {
	var r *rpcReceipt
	if err := c.call(ctx, &r, "eth_getTransactionReceipt", hash); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, nil // still pending
	}
	receipt := &Receipt{
		Hash:        hash,
		Status:      uint64(r.Status),
		BlockNumber: uint64(r.BlockNumber),
		GasUsed:     uint64(r.GasUsed),
	}
	if r.ContractAddress != nil {
		receipt.ContractAddress = *r.ContractAddress
	}
	return receipt, nil
}

// WaitForReceipt polls until the transaction is mined or the receipt timeout
// expires. A mined transaction with status 0 returns the receipt together with
// a *RevertError.
func (c *Client) WaitForReceipt(ctx context.Context, hash common.Hash) (*Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()

	for {
		receipt, err := c.Receipt(ctx, hash)
		if err != nil && ctx.Err() == nil {
			return nil, err
		}
		if receipt != nil {
			if receipt.Status == 0 {
				return receipt, &RevertError{Hash: hash}
			}
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("transaction %s not mined within %s: %w", hash.Hex(), c.timeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

// AsRevert converts an RPC error that carries revert information into a *RevertError.
func AsRevert(err error) (*RevertError, bool) {
	if err == nil {
		return nil, false
	}
	var rev *RevertError
	if errors.As(err, &rev) {
		return rev, true
	}
	var de rpc.DataError
	if errors.As(err, &de) {
		if s, ok := de.ErrorData().(string); ok {
			if data, derr := hexutil.Decode(s); derr == nil {
				if reason, uerr := abi.UnpackRevert(data); uerr == nil {
					return &RevertError{Reason: reason}, true
				}
			}
		}
	}
	msg := err.Error()
	if strings.Contains(strings.ToLower(msg), "revert") {
		return &RevertError{Reason: extractRevertReason(msg)}, true
	}
	return nil, false
}

// extractRevertReason tries to pull the revert reason out of an RPC error message.
func extractRevertReason(errMsg string) string {
	// Hardhat: "... reverted with reason string 'X'"
	if idx := strings.Index(errMsg, "reverted with reason string '"); idx >= 0 {
		rest := errMsg[idx+len("reverted with reason string '"):]
		return strings.TrimSuffix(strings.TrimSpace(rest), "'")
	}
	if idx := strings.Index(errMsg, "execution reverted:"); idx >= 0 {
		return strings.TrimSpace(errMsg[idx+len("execution reverted:"):])
	}
	if idx := strings.Index(errMsg, "revert"); idx >= 0 {
		return strings.TrimSpace(errMsg[idx:])
	}
	return errMsg
}
