package config

import "github.com/bmatcuk/doublestar/v4"

// FindMatchingOverride returns the first configured override whose glob
// matches modulePath, first-match-wins in configured order.
func FindMatchingOverride(modulePath string, overrides []CompiledOverride) (CompiledOverride, bool) {
	for _, o := range overrides {
		matched, err := doublestar.Match(o.Glob, modulePath)
		if err != nil || !matched {
			continue
		}
		return o, true
	}
	return CompiledOverride{}, false
}

// ApplyOverrides finds the first configured override glob matching
// modulePath and applies it: an override that disables the module short-
// circuits (rules is meaningless in that case); a match with a rules
// block replaces the entire ruleset (unspecified fields fall back to
// built-in defaults, not to the caller's base rules); a match with no
// rules block keeps baseRules as-is. No match passes baseRules through
// unchanged and enabled. The returned Source attributes the decision to
// the matching override's glob, or to the project layer when nothing
// matched (spec.md section 8 scenario 7).
func ApplyOverrides(modulePath string, baseRules ResolvedRules, overrides []CompiledOverride) (ResolvedRules, bool, Source) {
	o, ok := FindMatchingOverride(modulePath, overrides)
	if !ok {
		return baseRules, true, Source{Kind: SourceProjectConfig}
	}
	source := Source{Kind: SourceOverride, Path: o.Glob}
	if !o.Entry.Enabled {
		return baseRules, false, source
	}
	if o.Entry.Rules != nil {
		return *o.Entry.Rules, true, source
	}
	return baseRules, true, source
}
