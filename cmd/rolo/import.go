package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file.vcf>",
	Short: "Import contacts from a vCard file",
	Long:  `Import reads vCard records and saves each as a contact document. Use "-" to read from stdin.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var in io.Reader = os.Stdin
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				fatal("Error opening input", err)
			}
			defer f.Close()
			in = f
		}

		service, err := openService()
		if err != nil {
			fatal("Error opening vault", err)
		}

		n, err := service.ImportVCF(context.Background(), in)
		if err != nil {
			fatal("Error importing contacts", err)
		}
		fmt.Printf("Imported %d contact(s)\n", n)
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
