package config

import (
	"untangle/internal/langfrontend"
)

// ResolvedConfig is the fully merged, Option-free configuration used by
// every downstream component.
type ResolvedConfig struct {
	Lang         langfrontend.Language
	HasLang      bool
	Format       string
	Quiet        bool
	Top          int
	HasTop       bool
	IncludeTests bool
	NoInsights   bool

	Include        []string
	Exclude        []string
	IgnorePatterns []string

	Rules ResolvedRules

	FailOn []string

	Go     ResolvedGoConfig
	Python ResolvedPythonConfig
	Ruby   ResolvedRubyConfig

	Overrides []CompiledOverride

	Provenance  *ProvenanceMap
	LoadedFiles []string
}

// CompiledOverride pairs a glob pattern with its override entry.
type CompiledOverride struct {
	Glob  string
	Entry OverrideEntry
}

// OverrideEntry is one [overrides."<glob>"] block.
type OverrideEntry struct {
	Enabled bool
	Rules   *ResolvedRules
}

// ResolvedRules is the full set of structural rules, each with its
// built-in defaults.
type ResolvedRules struct {
	HighFanout         HighFanoutRule
	GodModule          GodModuleRule
	CircularDependency CircularDependencyRule
	DeepChain          DeepChainRule
	HighEntropy        HighEntropyRule
}

func defaultRules() ResolvedRules {
	return ResolvedRules{
		HighFanout:         HighFanoutRule{Enabled: true, MinFanout: 5, RelativeToP90: true, WarningMultiplier: 2},
		GodModule:          GodModuleRule{Enabled: true, MinFanout: 3, MinFanin: 3, RelativeToP90: true},
		CircularDependency: CircularDependencyRule{Enabled: true, WarningMinSize: 4},
		DeepChain:          DeepChainRule{Enabled: true, AbsoluteDepth: 8, RelativeMultiplier: 2.0, RelativeMinDepth: 5},
		HighEntropy:        HighEntropyRule{Enabled: true, MinEntropy: 2.5, MinFanout: 5},
	}
}

type HighFanoutRule struct {
	Enabled           bool
	MinFanout         int
	RelativeToP90     bool
	WarningMultiplier int
}

type GodModuleRule struct {
	Enabled       bool
	MinFanout     int
	MinFanin      int
	RelativeToP90 bool
}

type CircularDependencyRule struct {
	Enabled        bool
	WarningMinSize int
}

type DeepChainRule struct {
	Enabled            bool
	AbsoluteDepth      int
	RelativeMultiplier float64
	RelativeMinDepth   int
}

type HighEntropyRule struct {
	Enabled    bool
	MinEntropy float64
	MinFanout  int
}

// ResolvedGoConfig is the resolved [go] section.
type ResolvedGoConfig struct {
	ExcludeStdlib bool
}

func defaultGoConfig() ResolvedGoConfig { return ResolvedGoConfig{ExcludeStdlib: true} }

// ResolvedPythonConfig is the resolved [python] section.
type ResolvedPythonConfig struct {
	ResolveRelative bool
}

func defaultPythonConfig() ResolvedPythonConfig { return ResolvedPythonConfig{ResolveRelative: true} }

// ResolvedRubyConfig is the resolved [ruby] section.
type ResolvedRubyConfig struct {
	Zeitwerk bool
	LoadPath []string
}

func defaultRubyConfig() ResolvedRubyConfig {
	return ResolvedRubyConfig{Zeitwerk: false, LoadPath: []string{"lib", "app"}}
}

func defaultConfig() *ResolvedConfig {
	return &ResolvedConfig{
		Format: "json",
		Rules:  defaultRules(),
		Go:     defaultGoConfig(),
		Python: defaultPythonConfig(),
		Ruby:   defaultRubyConfig(),
	}
}
