package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/elementx/pkg/chem"
	"github.com/spf13/cobra"
)

func newElementsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "elements [name-or-symbol]",
		Short: "List the periodic table, or look one element up",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			elements := chem.Elements()
			if len(args) == 1 {
				symbol := chem.Normalize(args[0])
				el, ok := chem.Lookup(symbol)
				if !ok {
					return &chem.Error{Err: chem.ErrUnknownElement, Symbol: args[0]}
				}
				elements = []chem.Element{el}
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(elements)
			}

			var b strings.Builder
			b.WriteString("| # | Symbol | Name | Atomic Mass |\n|---:|---|---|---:|\n")
			for _, el := range elements {
				fmt.Fprintf(&b, "| %d | %s | %s | %.3f |\n", el.Number, el.Symbol, el.Name, el.Mass)
			}
			return printMarkdown(cmd, b.String())
		},
	}
	cmd.Flags().Bool("json", false, "Print as JSON")
	return cmd
}
