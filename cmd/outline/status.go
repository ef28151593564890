package main

import (
	"encoding/json"

	"github.com/aretw0/introspection"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the graph repository and service state as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, svc, err := openGraph(cmd)
		if err != nil {
			return err
		}

		state := map[string]any{
			svc.ComponentType(): svc.State(),
		}
		if comp, ok := repo.(introspection.Component); ok {
			if in, ok := repo.(introspection.Introspectable); ok {
				state[comp.ComponentType()] = in.State()
			}
		}

		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(state)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
