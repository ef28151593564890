package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/outline"
	"github.com/aretw0/outline/pkg/core"
)

var (
	parseFormat string
	parseCheck  bool
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse an outline document and print it",
	Long: `Parse an outline document (stdin when no file is given) and print it as
tab-indented text, or as a JSON, YAML or TOML snapshot of its blocks.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := core.ParseFormat(parseFormat)
		if err != nil {
			return err
		}

		var in io.Reader = cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}

		page, err := outline.Parse(in,
			outline.WithStrict(parseCheck),
			outline.WithParseLogger(slog.Default()),
		)
		if err != nil {
			return err
		}

		out, err := page.Render(format)
		if err != nil {
			return err
		}
		if format == core.FormatText && len(out) > 0 {
			out = append(out, '\n')
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringVarP(&parseFormat, "format", "f", "text", "Output format: text, json, yaml or toml")
	parseCmd.Flags().BoolVar(&parseCheck, "check", false, "Fail unless the document renders back to its source")
}
