package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/reschema"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of reschema",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "reschema version %s\n", strings.TrimSpace(reschema.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
