package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [pattern]",
	Short: "Verify that every page of the graph survives a parse/render round trip",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pattern := "**"
		if len(args) == 1 {
			pattern = args[0]
		}
		_, svc, err := openGraph(cmd)
		if err != nil {
			return err
		}
		results, err := svc.CheckPages(context.Background(), pattern)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		failed := 0
		for _, res := range results {
			if res.OK() {
				fmt.Fprintf(out, "ok   %s\n", res.ID)
				continue
			}
			failed++
			fmt.Fprintf(out, "FAIL %s: %v\n", res.ID, res.Err)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d pages failed", failed, len(results))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
