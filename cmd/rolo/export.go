package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [file.vcf]",
	Short: "Export contacts as vCard records",
	Long:  `Export writes every contact carrying a UID as a vCard record. Without an argument, records go to stdout.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var out io.Writer = os.Stdout
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Create(args[0])
			if err != nil {
				fatal("Error creating output", err)
			}
			defer f.Close()
			out = f
		}

		service, err := openService()
		if err != nil {
			fatal("Error opening vault", err)
		}

		n, err := service.ExportVCF(context.Background(), out)
		if err != nil {
			fatal("Error exporting contacts", err)
		}
		fmt.Fprintf(os.Stderr, "Exported %d contact(s)\n", n)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
