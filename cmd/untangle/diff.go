package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"untangle/internal/analysis"
	"untangle/internal/config"
	"untangle/internal/diffengine"
	"untangle/internal/discover"
	"untangle/internal/langfrontend"
	"untangle/internal/revreader"
)

var (
	diffBase string
	diffHead string
)

var diffCmd = &cobra.Command{
	Use:   "diff [path]",
	Short: "Compare dependency-graph structure between two revisions",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDiff,
}

func init() {
	diffCmd.Flags().StringVar(&diffBase, "base", "", "Base revision (required)")
	diffCmd.Flags().StringVar(&diffHead, "head", "HEAD", "Head revision")
	diffCmd.MarkFlagRequired("base")
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	overrides, err := buildCliOverrides(cmd)
	if err != nil {
		return err
	}
	cfg, err := config.Resolve(root, overrides)
	if err != nil {
		return err
	}

	loggers := newLoggerFactory(cfg)

	reader, err := revreader.NewGitReader(root, loggers.GitLogger())
	if err != nil {
		return err
	}

	lang, err := resolveLanguage(cfg, func() (langfrontend.Language, bool) {
		return discover.DetectLanguage(root)
	})
	if err != nil {
		return err
	}

	outcome, err := analysis.DiffRevisions(context.Background(), reader, diffBase, diffHead, lang, cfg, loggers.AnalysisLogger())
	if err != nil {
		return err
	}

	format, err := resolveFormat(cfg)
	if err != nil {
		return err
	}
	out, err := renderReport(&outcome.Result, format)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, out)

	if outcome.Result.Verdict == diffengine.Fail {
		exitCode = 1
	}
	return nil
}
