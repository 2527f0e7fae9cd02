package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var listJSON bool

type listEntry struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	UID    string `json:"uid,omitempty"`
	Gender string `json:"gender,omitempty"`
	Rev    string `json:"rev,omitempty"`
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all contacts in the vault",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		service, err := openService()
		if err != nil {
			fatal("Error opening vault", err)
		}

		contacts, err := service.ListContacts(context.Background())
		if err != nil {
			fatal("Error listing contacts", err)
		}

		if listJSON {
			entries := make([]listEntry, 0, len(contacts))
			for _, c := range contacts {
				entries = append(entries, listEntry{
					ID:     c.ID(),
					Name:   c.Name(),
					UID:    c.UID(),
					Gender: c.Gender().String(),
					Rev:    c.Rev(),
				})
			}
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(entries); err != nil {
				fatal("Error encoding JSON", err)
			}
			return
		}

		for _, c := range contacts {
			fmt.Printf("%s - %s\n", c.ID(), c.Name())
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
}
