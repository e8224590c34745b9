package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"untangle/internal/config"
	"untangle/internal/langfrontend"
	"untangle/internal/obslog"
)

// exitCode carries the process exit status out of a command's RunE.
// Cobra's own error path always exits 1; a diff policy failure is not a
// Go error (the result envelope is still printed in full), so commands
// set this directly instead of returning an error for that case.
var exitCode int

var (
	flagLang            string
	flagFormat          string
	flagInclude         []string
	flagExclude         []string
	flagIncludeTests    bool
	flagQuiet           bool
	flagTop             int
	flagThresholdFanout int
	flagFailOn          string
)

var rootCmd = &cobra.Command{
	Use:     "untangle",
	Short:   "Untangle - dependency-structure analysis and CI gating",
	Version: "0.1.0",
}

func init() {
	rootCmd.SetVersionTemplate("untangle version {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagLang, "lang", "", "Source language: python, ruby, go, or rust (auto-detect if omitted)")
	pf.StringVar(&flagFormat, "format", "", "Output format: json, text, dot, or sarif")
	pf.StringArrayVar(&flagInclude, "include", nil, "Glob of files to include (repeatable)")
	pf.StringArrayVar(&flagExclude, "exclude", nil, "Glob of files to exclude (repeatable)")
	pf.BoolVar(&flagIncludeTests, "include-tests", false, "Include test files in analysis")
	pf.BoolVar(&flagQuiet, "quiet", false, "Suppress non-essential output")
	pf.IntVar(&flagTop, "top", 0, "Limit ranked output to the top N entries")
	pf.IntVar(&flagThresholdFanout, "threshold-fanout", 0, "Override rules.high_fanout.min_fanout")
	pf.StringVar(&flagFailOn, "fail-on", "", "Comma-separated diff failure conditions")

	viper.SetEnvPrefix("UNTANGLE")
	viper.AutomaticEnv()
}

// parseLangFlag returns the requested language, or false if none was
// given (leaving auto-detection to the caller).
func parseLangFlag() (langfrontend.Language, bool, error) {
	if flagLang == "" {
		return "", false, nil
	}
	lang, err := langfrontend.ParseLanguage(flagLang)
	if err != nil {
		return "", false, err
	}
	return lang, true, nil
}

// newLoggerFactory builds the slog factory used for every subcommand's
// diagnostics. --quiet silences warnings entirely; everything else writes
// structured lines to stderr, text or JSON according to the resolved
// output format so machine-readable runs get machine-readable logs too.
func newLoggerFactory(cfg *config.ResolvedConfig) *obslog.Factory {
	level := slog.LevelInfo
	if cfg.Quiet {
		level = slog.LevelError
	}
	format := obslog.FormatText
	if cfg.Format == "json" {
		format = obslog.FormatJSON
	}
	return obslog.New(os.Stderr, format, level)
}

func failOnConditions() []string {
	if flagFailOn == "" {
		return nil
	}
	parts := strings.Split(flagFailOn, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
