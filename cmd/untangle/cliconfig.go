package main

import (
	"github.com/spf13/cobra"

	"untangle/internal/config"
	"untangle/internal/langfrontend"
	"untangle/internal/uerrors"
)

// buildCliOverrides collects the highest-priority configuration layer
// from persistent flags, leaving unset fields nil/zero so the resolver's
// lower layers are left untouched.
func buildCliOverrides(cmd *cobra.Command) (config.CliOverrides, error) {
	var overrides config.CliOverrides

	if cmd.Flags().Changed("lang") {
		lang, ok, err := parseLangFlag()
		if err != nil {
			return overrides, err
		}
		if ok {
			overrides.Lang = &lang
		}
	}
	if cmd.Flags().Changed("format") {
		f := flagFormat
		overrides.Format = &f
	}
	if cmd.Flags().Changed("top") {
		t := flagTop
		overrides.Top = &t
	}
	if cmd.Flags().Changed("threshold-fanout") {
		t := flagThresholdFanout
		overrides.ThresholdFanout = &t
	}

	overrides.Quiet = flagQuiet
	overrides.IncludeTests = flagIncludeTests
	overrides.Include = flagInclude
	overrides.Exclude = flagExclude
	overrides.FailOn = failOnConditions()

	return overrides, nil
}

// resolveLanguage picks the analysis language: the resolved config's
// value (which already accounts for --lang) if set, else whatever
// autoDetect reports, else a fatal UnsupportedLanguage error.
func resolveLanguage(cfg *config.ResolvedConfig, autoDetect func() (langfrontend.Language, bool)) (langfrontend.Language, error) {
	if cfg.HasLang {
		return cfg.Lang, nil
	}
	if lang, ok := autoDetect(); ok {
		return lang, nil
	}
	return "", uerrors.New(uerrors.UnsupportedLanguage,
		"could not auto-detect a source language; pass --lang explicitly", nil)
}
