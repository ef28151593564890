package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/outline"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create a graph directory (and a git repository unless --versioning=false)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			graphDir = args[0]
		}
		dir, err := resolveGraph()
		if err != nil {
			return err
		}
		if readOnly {
			return fmt.Errorf("cannot initialize a graph in read-only mode")
		}
		if _, err := outline.Init(dir, graphOptions(cmd, outline.WithAutoInit(true))...); err != nil {
			return fmt.Errorf("initialize graph: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Initialized outline graph in", dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
