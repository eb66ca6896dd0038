package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/elementx"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of elementx",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "elementx version %s\n", strings.TrimSpace(elementx.Version))
		},
	}
}
