package trex

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/trexctl/internal/config"
	"github.com/Mohsinsiddi/trexctl/internal/wallet"
)

// Allocation is the initial amount minted to one holder.
type Allocation struct {
	Holder string
	Amount *big.Int
}

func normalizeName(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Allocations returns the configured mints: investors in order, then the
// deployer. Zero and empty amounts are left out.
func Allocations(cfg *config.Config) ([]Allocation, error) {
	var out []Allocation
	add := func(holder, amount string) error {
		if strings.TrimSpace(amount) == "" {
			return nil
		}
		n, ok := new(big.Int).SetString(strings.TrimSpace(amount), 10)
		if !ok || n.Sign() < 0 {
			return fmt.Errorf("invalid mint amount %q for %s", amount, holder)
		}
		if n.Sign() > 0 {
			out = append(out, Allocation{Holder: holder, Amount: n})
		}
		return nil
	}
	for _, inv := range cfg.Investors {
		if err := add(normalizeName(inv.Name), inv.Mint); err != nil {
			return nil, err
		}
	}
	if err := add(wallet.RoleDeployer, cfg.DeployerMint); err != nil {
		return nil, err
	}
	return out, nil
}

// Issue mints the configured amounts as the token agent and marks the suite
// issued.
func Issue(ctx context.Context, s *Suite, roster *wallet.Roster, cfg *config.Config, log *zap.Logger) ([]Allocation, error) {
	if log == nil {
		log = zap.NewNop()
	}
	allocs, err := Allocations(cfg)
	if err != nil {
		return nil, err
	}
	agent, err := roster.Signer(wallet.RoleTokenAgent)
	if err != nil {
		return nil, err
	}
	token := s.Token()
	for _, a := range allocs {
		to, err := roster.Address(a.Holder)
		if err != nil {
			return nil, err
		}
		if _, err := token.Transact(ctx, agent, "mint", to, a.Amount); err != nil {
			return nil, fmt.Errorf("minting %s to %s: %w", a.Amount, a.Holder, err)
		}
		log.Info("minted", zap.String("holder", a.Holder), zap.Stringer("to", to), zap.Stringer("amount", a.Amount))
	}
	s.Issued = true
	return allocs, nil
}

// expectedBalances returns the minted holders in order with their configured
// amounts and addresses.
func expectedBalances(cfg *config.Config, roster *wallet.Roster) ([]string, map[string]*big.Int, map[string]common.Address, error) {
	allocs, err := Allocations(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	names := make([]string, 0, len(allocs))
	amounts := make(map[string]*big.Int, len(allocs))
	addrs := make(map[string]common.Address, len(allocs))
	for _, a := range allocs {
		addr, err := roster.Address(a.Holder)
		if err != nil {
			return nil, nil, nil, err
		}
		names = append(names, a.Holder)
		amounts[a.Holder] = a.Amount
		addrs[a.Holder] = addr
	}
	return names, amounts, addrs, nil
}
