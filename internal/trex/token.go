package trex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/Mohsinsiddi/trexctl/internal/contract"
)

// maxParallelReads bounds concurrent eth_calls against one node.
const maxParallelReads = 8

// Token wraps the token contract with typed views.
type Token struct {
	*contract.Bound
}

// TokenInfo is the token-wide state.
type TokenInfo struct {
	Name        string
	Symbol      string
	Decimals    uint8
	TotalSupply *big.Int
	Paused      bool
}

// HolderState is the per-holder token state.
type HolderState struct {
	Name     string
	Address  common.Address
	Balance  *big.Int
	Frozen   *big.Int
	IsFrozen bool
}

func (t *Token) bigView(ctx context.Context, method string, args ...interface{}) (*big.Int, error) {
	out, err := t.Call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected result type %T", method, out[0])
	}
	return v, nil
}

func (t *Token) boolView(ctx context.Context, method string, args ...interface{}) (bool, error) {
	out, err := t.Call(ctx, method, args...)
	if err != nil {
		return false, err
	}
	v, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("%s: unexpected result type %T", method, out[0])
	}
	return v, nil
}

func (t *Token) BalanceOf(ctx context.Context, who common.Address) (*big.Int, error) {
	return t.bigView(ctx, "balanceOf", who)
}

func (t *Token) FrozenTokens(ctx context.Context, who common.Address) (*big.Int, error) {
	return t.bigView(ctx, "getFrozenTokens", who)
}

func (t *Token) IsFrozen(ctx context.Context, who common.Address) (bool, error) {
	return t.boolView(ctx, "isFrozen", who)
}

func (t *Token) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	return t.bigView(ctx, "allowance", owner, spender)
}

func (t *Token) TotalSupply(ctx context.Context) (*big.Int, error) {
	return t.bigView(ctx, "totalSupply")
}

func (t *Token) Paused(ctx context.Context) (bool, error) {
	return t.boolView(ctx, "paused")
}

// Info reads name, symbol, decimals, total supply and the paused flag.
func (t *Token) Info(ctx context.Context) (*TokenInfo, error) {
	info := &TokenInfo{}
	out, err := t.Call(ctx, "name")
	if err != nil {
		return nil, err
	}
	info.Name, _ = out[0].(string)
	if out, err = t.Call(ctx, "symbol"); err != nil {
		return nil, err
	}
	info.Symbol, _ = out[0].(string)
	if out, err = t.Call(ctx, "decimals"); err != nil {
		return nil, err
	}
	info.Decimals, _ = out[0].(uint8)
	if info.TotalSupply, err = t.TotalSupply(ctx); err != nil {
		return nil, err
	}
	if info.Paused, err = t.Paused(ctx); err != nil {
		return nil, err
	}
	return info, nil
}

// HolderStates reads balance, frozen amount and frozen flag of every holder
// in parallel. Results keep the order of names.
func (t *Token) HolderStates(ctx context.Context, names []string, addrs map[string]common.Address) ([]HolderState, error) {
	out := make([]HolderState, len(names))
	for i, name := range names {
		addr, ok := addrs[name]
		if !ok {
			return nil, fmt.Errorf("no address for %s", name)
		}
		out[i] = HolderState{Name: name, Address: addr}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelReads)
	for i := range out {
		i := i
		name, addr := out[i].Name, out[i].Address
		g.Go(func() error {
			bal, err := t.BalanceOf(ctx, addr)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			frozen, err := t.FrozenTokens(ctx, addr)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			isFrozen, err := t.IsFrozen(ctx, addr)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			out[i].Balance, out[i].Frozen, out[i].IsFrozen = bal, frozen, isFrozen
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
