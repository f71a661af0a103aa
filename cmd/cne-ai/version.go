package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of cne-ai",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cne-ai %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
