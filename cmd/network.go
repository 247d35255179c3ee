package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/trexctl/internal/config"
	"github.com/Mohsinsiddi/trexctl/internal/ui"
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Manage network profiles",
}

var networkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the configured network profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		names := make([]string, 0, len(cfg.Networks))
		for name := range cfg.Networks {
			names = append(names, name)
		}
		sort.Strings(names)

		t := ui.NewTable([]ui.Column{
			{Title: "Default", Width: 7}, {Title: "Name"}, {Title: "Accounts"}, {Title: "Chain ID"},
			{Title: "RPC"}, {Title: "Algorithm"}, {Title: "Rate limit"}, {Title: "Deployed"},
		})
		for _, name := range names {
			n := cfg.Networks[name]
			def := ""
			if name == cfg.DefaultNetwork {
				def = "✓"
			}
			chainID := "node"
			if n.ChainID != 0 {
				chainID = strconv.FormatInt(n.ChainID, 10)
			}
			rpcs, algo := "unset", n.RPCAlgorithm
			if _, resolved, err := cfg.Network(name); err == nil {
				rpcs, algo = strings.Join(resolved.RPCs, ", "), resolved.RPCAlgorithm
			}
			limit := "-"
			if n.RateLimit > 0 {
				limit = strconv.FormatFloat(n.RateLimit, 'f', -1, 64) + "/s"
			}
			deployed := ""
			if fileExists(cfg.DeploymentPath(name)) {
				deployed = "yes"
			}
			t.AddRow(ui.Row{def, name, n.Accounts, chainID, rpcs, algo, limit, deployed})
		}
		fmt.Fprintln(out, t.Render())
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("RPC override: %s", config.EnvRPCURL)))
		return nil
	},
}

var networkUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the default network profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		name := args[0]
		if _, ok := cfg.Networks[name]; !ok {
			return fmt.Errorf("unknown network %q", name)
		}
		cfg.DefaultNetwork = name
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintln(out, ui.Success("Default network set to "+name))
		return nil
	},
}

func init() {
	networkCmd.AddCommand(networkListCmd, networkUseCmd)
}
