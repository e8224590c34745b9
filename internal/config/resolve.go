package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"untangle/internal/langfrontend"
	"untangle/internal/uerrors"
)

// CliOverrides carries the explicit flags a user passed on the command
// line; these form the highest-priority configuration layer.
type CliOverrides struct {
	Lang            *langfrontend.Language
	Format          *string
	Quiet           bool
	Top             *int
	IncludeTests    bool
	NoInsights      bool
	Include         []string
	Exclude         []string
	FailOn          []string
	ThresholdFanout *int
}

// Resolve merges configuration layers bottom-up: built-in defaults, user
// config (~/.config/untangle/config.toml), project config (nearest
// .untangle.toml walking up from workingDir), environment variables
// (UNTANGLE_* prefix), then CLI overrides.
func Resolve(workingDir string, cli CliOverrides) (*ResolvedConfig, error) {
	prov := NewProvenanceMap()
	cfg := defaultConfig()
	setDefaultProvenance(prov)

	var loadedFiles []string

	if userPath, ok := findUserConfig(); ok {
		fc, err := loadFileConfig(userPath)
		if err != nil {
			return nil, uerrors.New(uerrors.InvalidConfig, "could not read user config: "+userPath, err)
		}
		applyFileConfig(cfg, fc, Source{Kind: SourceUserConfig, Path: userPath}, prov)
		loadedFiles = append(loadedFiles, userPath)
	}

	if projectPath, ok := findProjectConfig(workingDir); ok {
		fc, err := loadFileConfig(projectPath)
		if err != nil {
			return nil, uerrors.New(uerrors.InvalidConfig, "could not read project config: "+projectPath, err)
		}
		applyFileConfig(cfg, fc, Source{Kind: SourceProjectConfig, Path: projectPath}, prov)
		loadedFiles = append(loadedFiles, projectPath)
	}

	applyEnvVars(cfg, prov)
	applyCliOverrides(cfg, cli, prov)

	// The ignore file is applied last so its patterns are appended onto
	// whatever exclude list the layers above already produced (spec.md
	// section 4.2), and its own attribution is always the project layer
	// (spec.md section 4.7) regardless of which layer set targeting.exclude.
	cfg.IgnorePatterns = LoadUntangleIgnore(workingDir)
	if len(cfg.IgnorePatterns) > 0 {
		cfg.Exclude = append(cfg.Exclude, cfg.IgnorePatterns...)
		ignorePath, _ := IgnoreFilePath(workingDir)
		prov.Set("targeting.ignore_file", Source{Kind: SourceProjectConfig, Path: ignorePath})
	}
	cfg.Provenance = prov
	cfg.LoadedFiles = loadedFiles

	return cfg, nil
}

func loadFileConfig(path string) (*FileConfig, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fc FileConfig
	if _, err := toml.Decode(string(content), &fc); err != nil {
		return nil, err
	}
	fc.MigrateLegacy()
	return &fc, nil
}

func findUserConfig() (string, bool) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}
	path := filepath.Join(home, ".config", "untangle", "config.toml")
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

func findProjectConfig(start string) (string, bool) {
	dir := start
	for {
		candidate := filepath.Join(dir, ".untangle.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func setDefaultProvenance(prov *ProvenanceMap) {
	defaults := Source{Kind: SourceDefault}
	for _, key := range []string{
		"defaults.format", "defaults.quiet", "defaults.include_tests", "defaults.no_insights",
		"targeting.include", "targeting.exclude",
		"rules.high_fanout.enabled", "rules.high_fanout.min_fanout", "rules.high_fanout.relative_to_p90", "rules.high_fanout.warning_multiplier",
		"rules.god_module.enabled", "rules.god_module.min_fanout", "rules.god_module.min_fanin", "rules.god_module.relative_to_p90",
		"rules.circular_dependency.enabled", "rules.circular_dependency.warning_min_size",
		"rules.deep_chain.enabled", "rules.deep_chain.absolute_depth", "rules.deep_chain.relative_multiplier", "rules.deep_chain.relative_min_depth",
		"rules.high_entropy.enabled", "rules.high_entropy.min_entropy", "rules.high_entropy.min_fanout",
		"fail_on.conditions",
		"go.exclude_stdlib", "python.resolve_relative", "ruby.zeitwerk", "ruby.load_path",
	} {
		prov.Set(key, defaults)
	}
}

// applyFileConfig merges a parsed file layer into cfg, recording
// provenance only for fields the file actually set.
func applyFileConfig(cfg *ResolvedConfig, fc *FileConfig, source Source, prov *ProvenanceMap) {
	set := func(key string) { prov.Set(key, source) }

	if fc.Defaults.Lang != nil {
		if lang, err := langfrontend.ParseLanguage(*fc.Defaults.Lang); err == nil {
			cfg.Lang, cfg.HasLang = lang, true
			set("defaults.lang")
		}
	}
	if fc.Defaults.Format != nil {
		cfg.Format = *fc.Defaults.Format
		set("defaults.format")
	}
	if fc.Defaults.Quiet != nil {
		cfg.Quiet = *fc.Defaults.Quiet
		set("defaults.quiet")
	}
	if fc.Defaults.Top != nil {
		cfg.Top, cfg.HasTop = *fc.Defaults.Top, true
		set("defaults.top")
	}
	if fc.Defaults.IncludeTests != nil {
		cfg.IncludeTests = *fc.Defaults.IncludeTests
		set("defaults.include_tests")
	}
	if fc.Defaults.NoInsights != nil {
		cfg.NoInsights = *fc.Defaults.NoInsights
		set("defaults.no_insights")
	}

	if len(fc.Targeting.Include) > 0 {
		cfg.Include = fc.Targeting.Include
		set("targeting.include")
	}
	if len(fc.Targeting.Exclude) > 0 {
		cfg.Exclude = fc.Targeting.Exclude
		set("targeting.exclude")
	}

	mergeRules(&cfg.Rules, fc.Rules, source, prov)

	if len(fc.FailOn.Conditions) > 0 {
		cfg.FailOn = fc.FailOn.Conditions
		set("fail_on.conditions")
	}

	if fc.Go.ExcludeStdlib != nil {
		cfg.Go.ExcludeStdlib = *fc.Go.ExcludeStdlib
		set("go.exclude_stdlib")
	}
	if fc.Python.ResolveRelative != nil {
		cfg.Python.ResolveRelative = *fc.Python.ResolveRelative
		set("python.resolve_relative")
	}
	if fc.Ruby.Zeitwerk != nil {
		cfg.Ruby.Zeitwerk = *fc.Ruby.Zeitwerk
		set("ruby.zeitwerk")
	}
	if len(fc.Ruby.LoadPath) > 0 {
		cfg.Ruby.LoadPath = fc.Ruby.LoadPath
		set("ruby.load_path")
	}

	for glob, entry := range fc.Overrides {
		compiled := CompiledOverride{Glob: glob, Entry: OverrideEntry{Enabled: true}}
		if entry.Enabled != nil {
			compiled.Entry.Enabled = *entry.Enabled
		}
		if entry.Rules != nil {
			rules := defaultRules()
			mergeRules(&rules, *entry.Rules, source, NewProvenanceMap())
			compiled.Entry.Rules = &rules
		}
		cfg.Overrides = append(cfg.Overrides, compiled)
	}
}

func mergeRules(rules *ResolvedRules, fc RulesFileConfig, source Source, prov *ProvenanceMap) {
	if fc.HighFanout != nil {
		r := fc.HighFanout
		if r.Enabled != nil {
			rules.HighFanout.Enabled = *r.Enabled
			prov.Set("rules.high_fanout.enabled", source)
		}
		if r.MinFanout != nil {
			rules.HighFanout.MinFanout = *r.MinFanout
			prov.Set("rules.high_fanout.min_fanout", source)
		}
		if r.RelativeToP90 != nil {
			rules.HighFanout.RelativeToP90 = *r.RelativeToP90
			prov.Set("rules.high_fanout.relative_to_p90", source)
		}
		if r.WarningMultiplier != nil {
			rules.HighFanout.WarningMultiplier = *r.WarningMultiplier
			prov.Set("rules.high_fanout.warning_multiplier", source)
		}
	}
	if fc.GodModule != nil {
		r := fc.GodModule
		if r.Enabled != nil {
			rules.GodModule.Enabled = *r.Enabled
			prov.Set("rules.god_module.enabled", source)
		}
		if r.MinFanout != nil {
			rules.GodModule.MinFanout = *r.MinFanout
			prov.Set("rules.god_module.min_fanout", source)
		}
		if r.MinFanin != nil {
			rules.GodModule.MinFanin = *r.MinFanin
			prov.Set("rules.god_module.min_fanin", source)
		}
		if r.RelativeToP90 != nil {
			rules.GodModule.RelativeToP90 = *r.RelativeToP90
			prov.Set("rules.god_module.relative_to_p90", source)
		}
	}
	if fc.CircularDependency != nil {
		r := fc.CircularDependency
		if r.Enabled != nil {
			rules.CircularDependency.Enabled = *r.Enabled
			prov.Set("rules.circular_dependency.enabled", source)
		}
		if r.WarningMinSize != nil {
			rules.CircularDependency.WarningMinSize = *r.WarningMinSize
			prov.Set("rules.circular_dependency.warning_min_size", source)
		}
	}
	if fc.DeepChain != nil {
		r := fc.DeepChain
		if r.Enabled != nil {
			rules.DeepChain.Enabled = *r.Enabled
			prov.Set("rules.deep_chain.enabled", source)
		}
		if r.AbsoluteDepth != nil {
			rules.DeepChain.AbsoluteDepth = *r.AbsoluteDepth
			prov.Set("rules.deep_chain.absolute_depth", source)
		}
		if r.RelativeMultiplier != nil {
			rules.DeepChain.RelativeMultiplier = *r.RelativeMultiplier
			prov.Set("rules.deep_chain.relative_multiplier", source)
		}
		if r.RelativeMinDepth != nil {
			rules.DeepChain.RelativeMinDepth = *r.RelativeMinDepth
			prov.Set("rules.deep_chain.relative_min_depth", source)
		}
	}
	if fc.HighEntropy != nil {
		r := fc.HighEntropy
		if r.Enabled != nil {
			rules.HighEntropy.Enabled = *r.Enabled
			prov.Set("rules.high_entropy.enabled", source)
		}
		if r.MinEntropy != nil {
			rules.HighEntropy.MinEntropy = *r.MinEntropy
			prov.Set("rules.high_entropy.min_entropy", source)
		}
		if r.MinFanout != nil {
			rules.HighEntropy.MinFanout = *r.MinFanout
			prov.Set("rules.high_entropy.min_fanout", source)
		}
	}
}

const envPrefix = "UNTANGLE_"

func applyEnvVars(cfg *ResolvedConfig, prov *ProvenanceMap) {
	env := func(name string) (string, bool) {
		return os.LookupEnv(envPrefix + name)
	}
	set := func(key, envName string) { prov.Set(key, Source{Kind: SourceEnvVar, Path: envPrefix + envName}) }

	if v, ok := env("FORMAT"); ok {
		cfg.Format = v
		set("defaults.format", "FORMAT")
	}
	if v, ok := env("LANG"); ok {
		if lang, err := langfrontend.ParseLanguage(v); err == nil {
			cfg.Lang, cfg.HasLang = lang, true
			set("defaults.lang", "LANG")
		}
	}
	if v, ok := env("QUIET"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Quiet = b
			set("defaults.quiet", "QUIET")
		}
	}
	if v, ok := env("TOP"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Top, cfg.HasTop = n, true
			set("defaults.top", "TOP")
		}
	}
	if v, ok := env("INCLUDE_TESTS"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.IncludeTests = b
			set("defaults.include_tests", "INCLUDE_TESTS")
		}
	}
	if v, ok := env("FAIL_ON"); ok && v != "" {
		cfg.FailOn = strings.Split(v, ",")
		set("fail_on.conditions", "FAIL_ON")
	}
}

func applyCliOverrides(cfg *ResolvedConfig, cli CliOverrides, prov *ProvenanceMap) {
	set := func(key, flag string) { prov.Set(key, Source{Kind: SourceCliFlag, Path: flag}) }

	if cli.Lang != nil {
		cfg.Lang, cfg.HasLang = *cli.Lang, true
		set("defaults.lang", "--lang")
	}
	if cli.Format != nil {
		cfg.Format = *cli.Format
		set("defaults.format", "--format")
	}
	if cli.Quiet {
		cfg.Quiet = true
		set("defaults.quiet", "--quiet")
	}
	if cli.Top != nil {
		cfg.Top, cfg.HasTop = *cli.Top, true
		set("defaults.top", "--top")
	}
	if cli.IncludeTests {
		cfg.IncludeTests = true
		set("defaults.include_tests", "--include-tests")
	}
	if cli.NoInsights {
		cfg.NoInsights = true
		set("defaults.no_insights", "--no-insights")
	}
	if len(cli.Include) > 0 {
		cfg.Include = cli.Include
		set("targeting.include", "--include")
	}
	if len(cli.Exclude) > 0 {
		cfg.Exclude = cli.Exclude
		set("targeting.exclude", "--exclude")
	}
	if len(cli.FailOn) > 0 {
		cfg.FailOn = cli.FailOn
		set("fail_on.conditions", "--fail-on")
	}
	if cli.ThresholdFanout != nil {
		cfg.Rules.HighFanout.MinFanout = *cli.ThresholdFanout
		cfg.Rules.HighFanout.RelativeToP90 = false
		set("rules.high_fanout.min_fanout", "--threshold-fanout")
	}
}

// FormatError wraps a config parse error with the offending file path.
func FormatError(path string, err error) error {
	return fmt.Errorf("%s: %w", path, err)
}
