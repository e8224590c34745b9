package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"untangle/internal/analysis"
	"untangle/internal/config"
	"untangle/internal/discover"
	"untangle/internal/langfrontend"
	"untangle/internal/uerrors"
)

var graphCmd = &cobra.Command{
	Use:   "graph <path>",
	Short: "Emit the raw dependency graph for a source tree",
	Args:  cobra.ExactArgs(1),
	RunE:  runGraph,
}

func init() {
	rootCmd.AddCommand(graphCmd)
}

func runGraph(cmd *cobra.Command, args []string) error {
	root := args[0]

	overrides, err := buildCliOverrides(cmd)
	if err != nil {
		return err
	}
	cfg, err := config.Resolve(root, overrides)
	if err != nil {
		return err
	}

	lang, err := resolveLanguage(cfg, func() (langfrontend.Language, bool) {
		return discover.DetectLanguage(root)
	})
	if err != nil {
		return err
	}

	logger := newLoggerFactory(cfg).AnalysisLogger()
	result, err := analysis.AnalyzeTree(context.Background(), root, lang, cfg, logger)
	if err != nil {
		return err
	}
	if result.Summary.NodeCount == 0 {
		return uerrors.New(uerrors.NoFilesFound,
			fmt.Sprintf("no %s source files found under %s", lang, root), nil)
	}

	report := &GraphReport{
		Path:     root,
		Language: lang,
		Nodes:    result.Graph.Nodes(),
		Edges:    result.Graph.Edges(),
	}

	format, err := resolveFormat(cfg)
	if err != nil {
		return err
	}
	out, err := renderReport(report, format)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, out)
	return nil
}
