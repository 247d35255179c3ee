package cmd

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/trexctl/internal/chain"
	"github.com/Mohsinsiddi/trexctl/internal/ui"
	"github.com/Mohsinsiddi/trexctl/internal/wallet"
)

// balancer is implemented by backends that can read native balances.
type balancer interface {
	Balance(ctx context.Context, addr common.Address) (*big.Int, error)
}

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Show the role and holder addresses of the active network",
	Long: `Resolve the roster the way deploy does: node accounts in order on node
networks, stored keys on keystore networks. The claim signing key and the
action key are generated per run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		s, err := connect(ctx, false)
		if err != nil {
			return err
		}
		defer s.close()

		bal, hasBalance := s.backend.(balancer)
		cols := []ui.Column{{Title: "Name"}, {Title: "Address"}, {Title: "Source"}}
		if hasBalance {
			cols = append(cols, ui.Column{Title: "Balance"})
		}
		t := ui.NewTable(cols)
		addrs := s.roster.Addresses()
		shared := s.roster.Shared()
		for _, name := range s.roster.Names() {
			source := s.net.Accounts
			if from, ok := shared[name]; ok {
				source = "key of " + from
			}
			row := ui.Row{name, addrs[name].Hex(), source}
			if hasBalance {
				wei, err := bal.Balance(ctx, addrs[name])
				if err != nil {
					return fmt.Errorf("balance of %s: %w", name, err)
				}
				row = append(row, chain.WeiToETH(wei))
			}
			t.AddRow(row)
		}
		for _, name := range []string{wallet.KeyClaimSigning, wallet.KeyAction} {
			t.AddRow(ui.Row{name, addrs[name].Hex(), "generated"})
		}

		fmt.Fprintln(out, ui.Info(fmt.Sprintf("%s on %s", ui.Name(s.network), s.chainLabel())))
		fmt.Fprintln(out, t.Render())
		if a, b, ok := s.roster.Distinct(); !ok {
			fmt.Fprintln(out, ui.Warn(fmt.Sprintf("%s and %s share an address; deploy will refuse this roster", a, b)))
		}
		return nil
	},
}
