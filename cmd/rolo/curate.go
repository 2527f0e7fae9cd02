package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/rolo"
)

var (
	curateMaxIterations int
	curateVCFDir        string
)

var curateCmd = &cobra.Command{
	Use:   "curate",
	Short: "Run the curation pipeline until the vault converges",
	Long: `Curate repeatedly applies the standard rules (UID assignment,
relationship sync between body list and metadata, gender inference)
until a full pass produces no changes, then optionally mirrors the
vault to vCard records.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		service, err := openService(
			rolo.WithMaxIterations(curateMaxIterations),
			rolo.WithVCFDir(curateVCFDir),
		)
		if err != nil {
			fatal("Error opening vault", err)
		}

		outcome, err := service.Curate(context.Background())
		if err != nil {
			fatal("Error curating vault", err)
		}

		for _, ch := range outcome.Changes {
			fmt.Printf("%s: %s (%s)\n", ch.Rule, ch.ID, ch.Detail)
		}
		if outcome.Converged {
			fmt.Printf("Converged after %d iteration(s), %d change(s)\n",
				outcome.Iterations, len(outcome.Changes))
		} else {
			fmt.Printf("Stopped at iteration cap (%d) with %d change(s); rerun to continue\n",
				outcome.Iterations, len(outcome.Changes))
		}
	},
}

func init() {
	rootCmd.AddCommand(curateCmd)
	curateCmd.Flags().IntVar(&curateMaxIterations, "max-iterations", 0, "Cap on curation passes (0 = default)")
	curateCmd.Flags().StringVar(&curateVCFDir, "vcf-dir", "", "Directory to mirror contacts as .vcf files (empty = off)")
}
