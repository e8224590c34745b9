package langfrontend

import "testing"

func TestParseLanguageAliases(t *testing.T) {
	cases := map[string]Language{
		"python": Python, "py": Python,
		"ruby": Ruby, "rb": Ruby,
		"go":   Go,
		"rust": Rust, "rs": Rust,
	}
	for in, want := range cases {
		got, err := ParseLanguage(in)
		if err != nil {
			t.Errorf("ParseLanguage(%q) returned error: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseLanguage(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestParseLanguageUnsupported(t *testing.T) {
	if _, err := ParseLanguage("cobol"); err == nil {
		t.Error("expected an error for an unsupported language")
	}
}

func TestExtensions(t *testing.T) {
	if got := Python.Extensions(); len(got) != 1 || got[0] != "py" {
		t.Errorf("Python.Extensions() = %v", got)
	}
	if got := Language("cobol").Extensions(); got != nil {
		t.Errorf("expected nil extensions for an unknown language, got %v", got)
	}
}

func TestDefaultTestExcludesOnlyForGo(t *testing.T) {
	if got := Go.DefaultTestExcludes(); len(got) == 0 {
		t.Error("expected Go to have default test excludes")
	}
	if got := Python.DefaultTestExcludes(); got != nil {
		t.Errorf("expected no default test excludes for Python, got %v", got)
	}
}
