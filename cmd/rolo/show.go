package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single contact",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		service, err := openService()
		if err != nil {
			fatal("Error opening vault", err)
		}

		c, err := service.GetContact(context.Background(), args[0])
		if err != nil {
			fatal("Error reading contact", err)
		}

		fmt.Printf("ID:     %s\n", c.ID())
		fmt.Printf("Name:   %s\n", c.Name())
		if uid := c.UID(); uid != "" {
			fmt.Printf("UID:    %s\n", uid)
		}
		if g := c.Gender().String(); g != "" {
			fmt.Printf("Gender: %s\n", g)
		}
		if rev := c.Rev(); rev != "" {
			fmt.Printf("Rev:    %s\n", rev)
		}

		rels := c.Relationships()
		if rels.Size() > 0 {
			fmt.Println("Related:")
			for _, e := range rels.Entries() {
				fmt.Printf("  %s: %s\n", e.Type, e.Target.String())
			}
		}

		fmt.Println()
		fmt.Println(c.Doc.Content)
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
