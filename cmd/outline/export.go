package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aretw0/outline"
	"github.com/aretw0/outline/pkg/core"
)

var (
	exportOutput     string
	exportOverwrite  bool
	exportAllowEmpty bool
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Parse a document and write it back normalized",
	Long: `Parse a document, validate the round trip and write the normalized text
(tab indentation, "- " bullets) to --output, or back to the input file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, err := outline.ParseFile(args[0],
			outline.WithStrict(true),
			outline.WithParseLogger(slog.Default()),
		)
		if err != nil {
			return err
		}

		target := exportOutput
		overwrite := exportOverwrite
		if target == "" {
			target, overwrite = args[0], true
		}
		if err := page.Export(target,
			core.WithOverwrite(overwrite),
			core.WithAllowEmpty(exportAllowEmpty),
		); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d blocks to %s\n", page.Len(), target)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Destination file (default: rewrite the input)")
	exportCmd.Flags().BoolVar(&exportOverwrite, "overwrite", false, "Replace the destination if it exists")
	exportCmd.Flags().BoolVar(&exportAllowEmpty, "allow-empty", false, "Write the file even if the page has no content")
}
