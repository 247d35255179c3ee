package cmd

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/trexctl/internal/ui"
)

var artifactsCmd = &cobra.Command{
	Use:   "artifacts [contract]",
	Short: "List the compiled contracts the suite is built from",
	Long: `Without an argument, list every required artifact with its function
count and bytecode size. With a contract name, list its functions and
selectors.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		for name, paths := range cat.Shadowed() {
			fmt.Fprintln(out, ui.Warn(fmt.Sprintf("%s also found at %s", name, strings.Join(paths, ", "))))
		}

		if len(args) == 1 {
			a, err := cat.Get(args[0])
			if err != nil {
				return err
			}
			t := ui.NewTable([]ui.Column{{Title: "Selector"}, {Title: "Signature"}, {Title: "Mutability"}})
			for _, f := range a.Functions() {
				t.AddRow(ui.Row{f.Selector, f.Signature, f.Mutability})
			}
			fmt.Fprintln(out, ui.StyleTitle.Render(a.Name))
			fmt.Fprintln(out, t.Render())
			fmt.Fprintln(out, ui.Meta(a.Path))
			return nil
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Contract"}, {Title: "Functions"}, {Title: "Views"}, {Title: "Bytecode"}, {Title: "File"},
		})
		for _, a := range cat.All() {
			views := 0
			fns := a.Functions()
			for _, f := range fns {
				if f.ReadOnly() {
					views++
				}
			}
			size := "interface"
			if a.Deployable() {
				size = strconv.Itoa(len(a.Bytecode)) + " B"
			}
			rel, err := filepath.Rel(cat.Dir(), a.Path)
			if err != nil {
				rel = a.Path
			}
			t.AddRow(ui.Row{a.Name, strconv.Itoa(len(fns)), strconv.Itoa(views), size, rel})
		}
		fmt.Fprintln(out, t.Render())
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d artifacts from %s", len(cat.All()), cat.Dir())))
		return nil
	},
}
