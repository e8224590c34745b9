// Package config resolves Untangle's layered configuration: built-in
// defaults, user config, project config, environment variables, and CLI
// overrides, merged in that order with full provenance tracking.
package config

// FileConfig is the TOML-decodable shape of a configuration file. Every
// field is a pointer or zero-value-defaultable so layered merging can
// tell "unset" apart from "explicitly zero".
type FileConfig struct {
	Defaults  DefaultsFileConfig            `toml:"defaults"`
	Targeting TargetingFileConfig           `toml:"targeting"`
	Rules     RulesFileConfig               `toml:"rules"`
	FailOn    FailOnFileConfig              `toml:"fail_on"`
	Go        GoFileConfig                  `toml:"go"`
	Python    PythonFileConfig              `toml:"python"`
	Ruby      RubyFileConfig                `toml:"ruby"`
	Overrides map[string]OverrideFileConfig `toml:"overrides"`

	// Thresholds is the legacy pre-rules configuration section, migrated
	// forward by MigrateLegacy.
	Thresholds *LegacyThresholdsConfig `toml:"thresholds"`
}

type DefaultsFileConfig struct {
	Lang         *string  `toml:"lang"`
	Format       *string  `toml:"format"`
	Quiet        *bool    `toml:"quiet"`
	Top          *int     `toml:"top"`
	IncludeTests *bool    `toml:"include_tests"`
	NoInsights   *bool    `toml:"no_insights"`
	Exclude      []string `toml:"exclude"`
}

type TargetingFileConfig struct {
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
}

type RulesFileConfig struct {
	HighFanout         *HighFanoutRuleConfig         `toml:"high_fanout"`
	GodModule          *GodModuleRuleConfig          `toml:"god_module"`
	CircularDependency *CircularDependencyRuleConfig `toml:"circular_dependency"`
	DeepChain          *DeepChainRuleConfig          `toml:"deep_chain"`
	HighEntropy        *HighEntropyRuleConfig        `toml:"high_entropy"`
}

type HighFanoutRuleConfig struct {
	Enabled           *bool `toml:"enabled"`
	MinFanout         *int  `toml:"min_fanout"`
	RelativeToP90     *bool `toml:"relative_to_p90"`
	WarningMultiplier *int  `toml:"warning_multiplier"`
}

type GodModuleRuleConfig struct {
	Enabled       *bool `toml:"enabled"`
	MinFanout     *int  `toml:"min_fanout"`
	MinFanin      *int  `toml:"min_fanin"`
	RelativeToP90 *bool `toml:"relative_to_p90"`
}

type CircularDependencyRuleConfig struct {
	Enabled        *bool `toml:"enabled"`
	WarningMinSize *int  `toml:"warning_min_size"`
}

type DeepChainRuleConfig struct {
	Enabled            *bool    `toml:"enabled"`
	AbsoluteDepth      *int     `toml:"absolute_depth"`
	RelativeMultiplier *float64 `toml:"relative_multiplier"`
	RelativeMinDepth   *int     `toml:"relative_min_depth"`
}

type HighEntropyRuleConfig struct {
	Enabled    *bool    `toml:"enabled"`
	MinEntropy *float64 `toml:"min_entropy"`
	MinFanout  *int     `toml:"min_fanout"`
}

type FailOnFileConfig struct {
	Conditions []string `toml:"conditions"`
}

type GoFileConfig struct {
	ExcludeStdlib *bool `toml:"exclude_stdlib"`
}

type PythonFileConfig struct {
	ResolveRelative *bool `toml:"resolve_relative"`
}

type RubyFileConfig struct {
	Zeitwerk  *bool    `toml:"zeitwerk"`
	LoadPath  []string `toml:"load_path"`
}

type OverrideFileConfig struct {
	Enabled *bool            `toml:"enabled"`
	Rules   *RulesFileConfig `toml:"rules"`
}

// LegacyThresholdsConfig is the pre-rules [thresholds] section.
type LegacyThresholdsConfig struct {
	MaxFanout   *int `toml:"max_fanout"`
	MaxSCCSize  *int `toml:"max_scc_size"`
}

// MigrateLegacy folds [thresholds] and [defaults].exclude into their
// current homes, only where the current field was left unset.
func (c *FileConfig) MigrateLegacy() {
	if len(c.Targeting.Exclude) == 0 && len(c.Defaults.Exclude) > 0 {
		c.Targeting.Exclude = c.Defaults.Exclude
	}

	if c.Thresholds == nil {
		return
	}
	if c.Thresholds.MaxFanout != nil {
		if c.Rules.HighFanout == nil {
			c.Rules.HighFanout = &HighFanoutRuleConfig{}
		}
		if c.Rules.HighFanout.MinFanout == nil {
			c.Rules.HighFanout.MinFanout = c.Thresholds.MaxFanout
		}
	}
	if c.Thresholds.MaxSCCSize != nil {
		if c.Rules.CircularDependency == nil {
			c.Rules.CircularDependency = &CircularDependencyRuleConfig{}
		}
		if c.Rules.CircularDependency.WarningMinSize == nil {
			c.Rules.CircularDependency.WarningMinSize = c.Thresholds.MaxSCCSize
		}
	}
}
