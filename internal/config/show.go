package config

import (
	"fmt"
	"io"
	"strconv"

	toml "github.com/pelletier/go-toml/v2"
)

// RenderShow writes the `config show` report: loaded files followed by
// every resolved setting and the layer that set it.
func RenderShow(w io.Writer, cfg *ResolvedConfig) error {
	if len(cfg.LoadedFiles) == 0 {
		fmt.Fprintln(w, "Loaded config files: (none)")
	} else {
		fmt.Fprintln(w, "Loaded config files:")
		for i, p := range cfg.LoadedFiles {
			fmt.Fprintf(w, "  %d. %s\n", i+1, p)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Resolved settings:")
	for _, entry := range cfg.Provenance.SortedEntries() {
		value := valueForKey(cfg, entry.Key)
		fmt.Fprintf(w, "  %s: %s <- %s\n", entry.Key, value, entry.Source.String())
	}
	return nil
}

// RenderExplain writes the `config explain <category>` report: every
// resolved key under rules.<category>., or an unknown-category notice.
func RenderExplain(w io.Writer, cfg *ResolvedConfig, category string) error {
	prefix := "rules." + category + "."
	entries := cfg.Provenance.EntriesWithPrefix(prefix)

	if len(entries) == 0 {
		fmt.Fprintf(w, "Unknown rule category: %s\n", category)
		fmt.Fprintln(w, "Available categories: high_fanout, god_module, circular_dependency, deep_chain, high_entropy")
		return nil
	}

	fmt.Fprintf(w, "Rule: %s\n\n", category)
	for _, entry := range entries {
		value := valueForKey(cfg, entry.Key)
		fmt.Fprintf(w, "  %s: %s <- %s\n", entry.Key, value, entry.Source.String())
	}
	return nil
}

// RenderExplainModule writes the `config explain <category> --module
// <path>` report: the rule values actually in effect for one module,
// rather than the project-wide ones, and whether an override or the
// project layer supplied them (spec.md section 8 scenario 7).
func RenderExplainModule(w io.Writer, cfg *ResolvedConfig, category, modulePath string) error {
	prefix := "rules." + category + "."
	entries := cfg.Provenance.EntriesWithPrefix(prefix)

	if len(entries) == 0 {
		fmt.Fprintf(w, "Unknown rule category: %s\n", category)
		fmt.Fprintln(w, "Available categories: high_fanout, god_module, circular_dependency, deep_chain, high_entropy")
		return nil
	}

	effective, enabled, source := ApplyOverrides(modulePath, cfg.Rules, cfg.Overrides)
	matched, _ := FindMatchingOverride(modulePath, cfg.Overrides)
	rulesReplaced := source.Kind == SourceOverride && matched.Entry.Rules != nil

	fmt.Fprintf(w, "Rule: %s (module %s)\n\n", category, modulePath)
	fmt.Fprintf(w, "  enabled: %s <- %s\n", strconv.FormatBool(enabled), source.String())
	for _, entry := range entries {
		value, _ := ruleValueForKey(effective, entry.Key)
		fieldSource := entry.Source
		if rulesReplaced {
			fieldSource = source
		}
		fmt.Fprintf(w, "  %s: %s <- %s\n", entry.Key, value, fieldSource.String())
	}
	return nil
}

func valueForKey(cfg *ResolvedConfig, key string) string {
	switch key {
	case "defaults.lang":
		if !cfg.HasLang {
			return "(auto-detect)"
		}
		return string(cfg.Lang)
	case "defaults.format":
		return cfg.Format
	case "defaults.quiet":
		return strconv.FormatBool(cfg.Quiet)
	case "defaults.top":
		if !cfg.HasTop {
			return "(all)"
		}
		return strconv.Itoa(cfg.Top)
	case "defaults.include_tests":
		return strconv.FormatBool(cfg.IncludeTests)
	case "defaults.no_insights":
		return strconv.FormatBool(cfg.NoInsights)
	case "go.exclude_stdlib":
		return strconv.FormatBool(cfg.Go.ExcludeStdlib)
	case "python.resolve_relative":
		return strconv.FormatBool(cfg.Python.ResolveRelative)
	case "ruby.zeitwerk":
		return strconv.FormatBool(cfg.Ruby.Zeitwerk)
	case "ruby.load_path":
		return fmt.Sprintf("%v", cfg.Ruby.LoadPath)
	case "targeting.include":
		return fmt.Sprintf("%v", cfg.Include)
	case "targeting.exclude":
		return fmt.Sprintf("%v", cfg.Exclude)
	case "targeting.ignore_file":
		return fmt.Sprintf("%v", cfg.IgnorePatterns)
	case "fail_on.conditions":
		return fmt.Sprintf("%v", cfg.FailOn)
	default:
		if value, ok := ruleValueForKey(cfg.Rules, key); ok {
			return value
		}
		return "(unknown)"
	}
}

// ruleValueForKey renders one rules.<category>.<field> key against an
// arbitrary ResolvedRules, so the same formatting logic serves both the
// project-wide report and a single module's effective rules.
func ruleValueForKey(rules ResolvedRules, key string) (string, bool) {
	switch key {
	case "rules.high_fanout.enabled":
		return strconv.FormatBool(rules.HighFanout.Enabled), true
	case "rules.high_fanout.min_fanout":
		return strconv.Itoa(rules.HighFanout.MinFanout), true
	case "rules.high_fanout.relative_to_p90":
		return strconv.FormatBool(rules.HighFanout.RelativeToP90), true
	case "rules.high_fanout.warning_multiplier":
		return strconv.Itoa(rules.HighFanout.WarningMultiplier), true
	case "rules.god_module.enabled":
		return strconv.FormatBool(rules.GodModule.Enabled), true
	case "rules.god_module.min_fanout":
		return strconv.Itoa(rules.GodModule.MinFanout), true
	case "rules.god_module.min_fanin":
		return strconv.Itoa(rules.GodModule.MinFanin), true
	case "rules.god_module.relative_to_p90":
		return strconv.FormatBool(rules.GodModule.RelativeToP90), true
	case "rules.circular_dependency.enabled":
		return strconv.FormatBool(rules.CircularDependency.Enabled), true
	case "rules.circular_dependency.warning_min_size":
		return strconv.Itoa(rules.CircularDependency.WarningMinSize), true
	case "rules.deep_chain.enabled":
		return strconv.FormatBool(rules.DeepChain.Enabled), true
	case "rules.deep_chain.absolute_depth":
		return strconv.Itoa(rules.DeepChain.AbsoluteDepth), true
	case "rules.deep_chain.relative_multiplier":
		return strconv.FormatFloat(rules.DeepChain.RelativeMultiplier, 'g', -1, 64), true
	case "rules.deep_chain.relative_min_depth":
		return strconv.Itoa(rules.DeepChain.RelativeMinDepth), true
	case "rules.high_entropy.enabled":
		return strconv.FormatBool(rules.HighEntropy.Enabled), true
	case "rules.high_entropy.min_entropy":
		return strconv.FormatFloat(rules.HighEntropy.MinEntropy, 'g', -1, 64), true
	case "rules.high_entropy.min_fanout":
		return strconv.Itoa(rules.HighEntropy.MinFanout), true
	default:
		return "", false
	}
}

// DumpRawTree parses raw TOML content into a generic tree for debugging
// unrecognized keys in a config file, independent of the FileConfig
// struct's known fields.
func DumpRawTree(content []byte) (map[string]interface{}, error) {
	var tree map[string]interface{}
	if err := toml.Unmarshal(content, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}
