package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var doneCmd = &cobra.Command{
	Use:   "done <todo-page> <done-page>",
	Short: "Move DONE blocks, with their children, to another page",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, svc, err := openGraph(cmd)
		if err != nil {
			return err
		}
		n, err := svc.MoveDone(context.Background(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Moved %d blocks from %s to %s\n", n, args[0], args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doneCmd)
}
