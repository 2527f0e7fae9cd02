package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/rolo"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of rolo",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("rolo version %s\n", strings.TrimSpace(rolo.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
