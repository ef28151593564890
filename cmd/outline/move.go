package main

import (
	"context"
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/aretw0/outline/pkg/core"
)

var (
	movePattern string
	moveOrder   string
	moveSep     string
)

var moveCmd = &cobra.Command{
	Use:   "move <input-page> <output-page>",
	Short: "Move every block of a page under a block of another page",
	Long: `Move every block of <input-page> under the single block of <output-page>
whose text starts with --pattern. Moved blocks go before or after the existing
children, separated from them by --sep (empty for none).`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if movePattern == "" {
			return fmt.Errorf("%w: --pattern is required", core.ErrInvalidInput)
		}
		pattern, err := regexp.Compile(movePattern)
		if err != nil {
			return fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
		}
		order, err := core.ParseOrder(moveOrder)
		if err != nil {
			return err
		}

		_, svc, err := openGraph(cmd)
		if err != nil {
			return err
		}
		n, err := svc.MoveBlocks(context.Background(), args[0], args[1], core.MoveOptions{
			Pattern:   pattern,
			Order:     order,
			Separator: moveSep,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Moved %d blocks from %s to %s\n", n, args[0], args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(moveCmd)
	moveCmd.Flags().StringVarP(&movePattern, "pattern", "p", "", "Regular expression matching the start of the target block")
	moveCmd.Flags().StringVar(&moveOrder, "order", "after", "Place moved blocks before or after the existing children")
	moveCmd.Flags().StringVar(&moveSep, "sep", core.DefaultSeparator, "Separator block between old and new children")
}
