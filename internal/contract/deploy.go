package contract

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/trexctl/internal/artifact"
	"github.com/Mohsinsiddi/trexctl/internal/chain"
	"github.com/Mohsinsiddi/trexctl/internal/wallet"
)

// Deploy creates art with constructor args as s and binds the new contract.
func Deploy(ctx context.Context, b chain.Backend, s wallet.Signer, art *artifact.Artifact, log *zap.Logger, args ...interface{}) (*Bound, *chain.Receipt, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if !art.Deployable() {
		return nil, nil, fmt.Errorf("artifact %s has no bytecode: cannot deploy an interface or abstract contract", art.Name)
	}

	coerced, err := CoerceArgs(art.ABI.Constructor.Inputs, args)
	if err != nil {
		return nil, nil, fmt.Errorf("%s constructor: %w", art.Name, err)
	}
	packed, err := art.ABI.Pack("", coerced...)
	if err != nil {
		return nil, nil, fmt.Errorf("%s constructor: encoding: %w", art.Name, err)
	}
	data := append(append([]byte{}, art.Bytecode...), packed...)

	receipt, err := s.Send(ctx, b, nil, data)
	if err != nil {
		return nil, receipt, fmt.Errorf("deploying %s as %s: %w", art.Name, s.Address().Hex(), err)
	}
	if receipt.ContractAddress == (common.Address{}) {
		return nil, receipt, fmt.Errorf("deploying %s: receipt %s has no contract address", art.Name, receipt.Hash.Hex())
	}

	log.Info("contract deployed",
		zap.String("contract", art.Name),
		zap.Stringer("address", receipt.ContractAddress),
		zap.Stringer("from", s.Address()),
		zap.Stringer("tx", receipt.Hash),
		zap.Uint64("gas_used", receipt.GasUsed))
	return NewBound(art.Name, receipt.ContractAddress, art.ABI, b, log), receipt, nil
}
