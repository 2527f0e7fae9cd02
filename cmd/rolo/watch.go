package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var watchPattern string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the vault for changes",
	Long: `Watch first reconciles changes made while no watcher was running,
then streams filesystem events until interrupted.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		service, err := openService()
		if err != nil {
			fatal("Error opening vault", err)
		}

		missed, err := service.Reconcile(ctx)
		if err != nil {
			fatal("Error reconciling vault", err)
		}
		for _, e := range missed {
			fmt.Printf("[reconciled] %s %s\n", e.Type, e.ID)
		}

		events, err := service.Watch(ctx, watchPattern)
		if err != nil {
			fatal("Error starting watcher", err)
		}

		fmt.Println("Watching for changes (Ctrl+C to stop)...")
		for e := range events {
			fmt.Printf("%s %s\n", e.Type, e.ID)
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchPattern, "pattern", "", "Doublestar pattern to filter watched files (e.g. \"family/**\")")
}
