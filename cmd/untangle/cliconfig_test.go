package main

import (
	"errors"
	"testing"

	"untangle/internal/config"
	"untangle/internal/langfrontend"
	"untangle/internal/uerrors"
)

func TestBuildCliOverridesOnlyChangedFlagsSet(t *testing.T) {
	if err := rootCmd.ParseFlags([]string{"--lang=ruby", "--top=5"}); err != nil {
		t.Fatal(err)
	}
	defer rootCmd.ParseFlags([]string{"--lang=", "--top=0"})

	overrides, err := buildCliOverrides(rootCmd)
	if err != nil {
		t.Fatal(err)
	}
	if overrides.Lang == nil || *overrides.Lang != langfrontend.Ruby {
		t.Errorf("Lang = %v, want ruby", overrides.Lang)
	}
	if overrides.Top == nil || *overrides.Top != 5 {
		t.Errorf("Top = %v, want 5", overrides.Top)
	}
	if overrides.Format != nil {
		t.Errorf("Format = %v, want nil (flag not changed)", overrides.Format)
	}
	if overrides.ThresholdFanout != nil {
		t.Errorf("ThresholdFanout = %v, want nil (flag not changed)", overrides.ThresholdFanout)
	}
}

func TestResolveLanguagePrefersResolvedConfig(t *testing.T) {
	cfg := &config.ResolvedConfig{HasLang: true, Lang: langfrontend.Go}
	lang, err := resolveLanguage(cfg, func() (langfrontend.Language, bool) {
		t.Fatal("autoDetect should not be called when HasLang is true")
		return "", false
	})
	if err != nil {
		t.Fatal(err)
	}
	if lang != langfrontend.Go {
		t.Errorf("resolveLanguage() = %s, want go", lang)
	}
}

func TestResolveLanguageFallsBackToAutoDetect(t *testing.T) {
	cfg := &config.ResolvedConfig{}
	lang, err := resolveLanguage(cfg, func() (langfrontend.Language, bool) {
		return langfrontend.Python, true
	})
	if err != nil {
		t.Fatal(err)
	}
	if lang != langfrontend.Python {
		t.Errorf("resolveLanguage() = %s, want python", lang)
	}
}

func TestResolveLanguageErrorsWhenUndetected(t *testing.T) {
	cfg := &config.ResolvedConfig{}
	_, err := resolveLanguage(cfg, func() (langfrontend.Language, bool) {
		return "", false
	})
	if err == nil {
		t.Fatal("expected an error when no language can be determined")
	}
	var uerr *uerrors.UntangleError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected a *uerrors.UntangleError, got %T", err)
	}
	if uerr.Code != uerrors.UnsupportedLanguage {
		t.Errorf("Code = %s, want %s", uerr.Code, uerrors.UnsupportedLanguage)
	}
}
