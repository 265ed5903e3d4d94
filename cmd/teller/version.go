package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/teller"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of teller",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "teller version %s\n", strings.TrimSpace(teller.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
