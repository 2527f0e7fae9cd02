package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/rolo"
)

var (
	verbose   bool
	vaultPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rolo",
	Short: "A personal contacts database stored as Markdown files",
	Long: `Rolo treats a folder of Markdown files as a contacts database.
Each contact is one document; typed relationships live both in the
metadata block and in a human-readable "## Related" list, and the
curator keeps the two in sync.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// openService builds a Service on the vault selected by --vault, with the
// default logger attached.
func openService(extra ...rolo.Option) (*rolo.Service, error) {
	opts := []rolo.Option{
		rolo.WithMustExist(true),
		rolo.WithLogger(slog.Default()),
	}
	opts = append(opts, extra...)
	return rolo.New(vaultPath, opts...)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&vaultPath, "vault", ".", "Path to the contacts vault")
}
