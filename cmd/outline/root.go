package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/outline"
	"github.com/aretw0/outline/pkg/core"
)

var (
	verbose    bool
	graphDir   string
	versioning bool
	readOnly   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "outline",
	Short: "Parse, validate and reorganize Logseq-style outline pages",
	Long: `outline reads markdown outlines made of "- " bullets with key:: value
properties and TODO/DOING/NOW/LATER/DONE keywords. It renders them as text,
JSON, YAML or TOML, checks that pages survive a parse/render round trip and
moves blocks between the pages of a graph.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&graphDir, "graph", "g", "", "Graph directory (default: nearest graph root above the working directory)")
	rootCmd.PersistentFlags().BoolVar(&versioning, "versioning", false, "Commit every change with git (default: on when the graph is a git repository)")
	rootCmd.PersistentFlags().BoolVar(&readOnly, "read-only", false, "Reject every write to the graph")
}

// resolveGraph picks --graph, then the nearest graph root, then the working directory.
func resolveGraph() (string, error) {
	if graphDir != "" {
		return graphDir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	if root, err := outline.FindGraphRoot(wd); err == nil {
		return root, nil
	}
	return wd, nil
}

// graphOptions turns the global flags into graph options.
func graphOptions(cmd *cobra.Command, extra ...outline.Option) []outline.Option {
	opts := []outline.Option{
		outline.WithLogger(slog.Default()),
		outline.WithReadOnly(readOnly),
	}
	if cmd.Flags().Changed("versioning") {
		opts = append(opts, outline.WithVersioning(versioning))
	}
	return append(opts, extra...)
}

// openGraph opens the graph selected by the global flags.
func openGraph(cmd *cobra.Command, extra ...outline.Option) (core.Repository, *core.Service, error) {
	dir, err := resolveGraph()
	if err != nil {
		return nil, nil, err
	}
	repo, err := outline.Init(dir, graphOptions(cmd, extra...)...)
	if err != nil {
		return nil, nil, fmt.Errorf("open graph %s: %w", dir, err)
	}
	slog.Debug("opened graph", "path", dir)
	return repo, core.NewService(repo, slog.Default()), nil
}
