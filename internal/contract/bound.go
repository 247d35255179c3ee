package contract

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/trexctl/internal/chain"
	"github.com/Mohsinsiddi/trexctl/internal/wallet"
)

// ErrUnknownMethod is returned when a method is not in the contract's ABI.
var ErrUnknownMethod = errors.New("method not in ABI")

// Bound is a deployed contract bound to its ABI and a backend.
type Bound struct {
	Name    string
	Address common.Address
	ABI     abi.ABI

	backend chain.Backend
	log     *zap.Logger
}

// NewBound binds addr to parsed. A nil logger discards output.
func NewBound(name string, addr common.Address, parsed abi.ABI, b chain.Backend, log *zap.Logger) *Bound {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bound{Name: name, Address: addr, ABI: parsed, backend: b, log: log}
}

// At returns a copy bound to another address, keeping the ABI.
func (c *Bound) At(name string, addr common.Address) *Bound {
	return NewBound(name, addr, c.ABI, c.backend, c.log)
}

// Method looks a function up by name. Overloads resolve to the first match
// on the Solidity name.
func (c *Bound) Method(name string) (abi.Method, error) {
	if m, ok := c.ABI.Methods[name]; ok {
		return m, nil
	}
	for _, m := range c.ABI.Methods {
		if m.RawName == name {
			return m, nil
		}
	}
	return abi.Method{}, fmt.Errorf("%w: %s.%s", ErrUnknownMethod, c.Name, name)
}

// Has reports whether the ABI exposes the named function.
func (c *Bound) Has(name string) bool {
	_, err := c.Method(name)
	return err == nil
}

// Pack coerces args to the method's input types and encodes the calldata.
func (c *Bound) Pack(method string, args ...interface{}) ([]byte, error) {
	m, err := c.Method(method)
	if err != nil {
		return nil, err
	}
	coerced, err := CoerceArgs(m.Inputs, args)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", c.Name, method, err)
	}
	packed, err := m.Inputs.Pack(coerced...)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: encoding: %w", c.Name, method, err)
	}
	return append(append([]byte{}, m.ID...), packed...), nil
}

// Call executes a read-only call and decodes the outputs.
func (c *Bound) Call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	m, err := c.Method(method)
	if err != nil {
		return nil, err
	}
	data, err := c.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	out, err := c.backend.Call(ctx, chain.CallMsg{To: &c.Address, Data: data})
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", c.Name, method, err)
	}
	if len(out) == 0 && len(m.Outputs) > 0 {
		return nil, fmt.Errorf("%s.%s: empty result (no contract code at %s?)", c.Name, method, c.Address.Hex())
	}
	values, err := m.Outputs.Unpack(out)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: decoding result: %w", c.Name, method, err)
	}
	return values, nil
}

// Transact sends a state-changing call as s and waits for the receipt.
func (c *Bound) Transact(ctx context.Context, s wallet.Signer, method string, args ...interface{}) (*chain.Receipt, error) {
	data, err := c.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	receipt, err := s.Send(ctx, c.backend, &c.Address, data)
	if err != nil {
		c.log.Warn("transaction failed",
			zap.String("contract", c.Name),
			zap.String("method", method),
			zap.Stringer("from", s.Address()),
			zap.Error(err))
		return receipt, fmt.Errorf("%s.%s as %s: %w", c.Name, method, s.Address().Hex(), err)
	}
	c.log.Debug("transaction mined",
		zap.String("contract", c.Name),
		zap.String("method", method),
		zap.Stringer("from", s.Address()),
		zap.Stringer("tx", receipt.Hash),
		zap.Uint64("block", receipt.BlockNumber),
		zap.Uint64("gas_used", receipt.GasUsed))
	return receipt, nil
}
