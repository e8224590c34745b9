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

var analyzeCmd = &cobra.Command{
	Use:   "analyze <path>",
	Short: "Analyze the dependency structure of a source tree",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
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

	top := 0
	if cfg.HasTop {
		top = cfg.Top
	}
	report := &AnalyzeReport{
		Path:              root,
		Language:          lang,
		Summary:           result.Summary,
		FilesSkipped:      result.FilesSkipped,
		UnresolvedImports: result.UnresolvedImports,
		TopFanOut:         rankedFanOut(result.Graph, top),
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

func resolveFormat(cfg *config.ResolvedConfig) (OutputFormat, error) {
	f := cfg.Format
	if f == "" {
		f = "json"
	}
	return parseOutputFormat(f)
}
