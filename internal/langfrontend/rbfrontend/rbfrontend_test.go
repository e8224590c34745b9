package rbfrontend

import (
	"testing"

	"untangle/internal/parsecommon"
)

func TestExtractImportsRequireForms(t *testing.T) {
	source := `require "json"
require_relative "helper"
autoload :Widget, "widgets/widget"
`
	f := New(nil)
	imports := f.ExtractImports([]byte(source), "app/main.rb")

	if len(imports) != 3 {
		t.Fatalf("expected 3 imports, got %d: %+v", len(imports), imports)
	}
	if imports[0].RawPath != "json" || imports[0].Kind.Kind != parsecommon.KindDirect {
		t.Errorf("import[0] = %+v", imports[0])
	}
	if imports[1].RawPath != "helper" || imports[1].Kind.Kind != parsecommon.KindRequireRelative {
		t.Errorf("import[1] = %+v", imports[1])
	}
	if imports[2].RawPath != "widgets/widget" || imports[2].Kind.Kind != parsecommon.KindAutoload || imports[2].Kind.Constant != "Widget" {
		t.Errorf("import[2] = %+v", imports[2])
	}
}

func TestExtractImportsZeitwerkConstants(t *testing.T) {
	source := "class Foo\n  def bar\n    Widgets::Widget.new\n  end\nend\n"
	f := New(nil)
	f.Zeitwerk = true

	imports := f.ExtractImports([]byte(source), "app/foo.rb")
	found := false
	for _, imp := range imports {
		if imp.Kind.Kind == parsecommon.KindZeitwerkConstant && imp.RawPath == "widgets/widget" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a zeitwerk_constant import for widgets/widget, got %+v", imports)
	}
}

func TestExtractImportsZeitwerkExcludesStdlibAndOwnDefinition(t *testing.T) {
	source := "class Foo\n  def bar\n    Time.now\n    Foo.new\n  end\nend\n"
	f := New(nil)
	f.Zeitwerk = true

	imports := f.ExtractImports([]byte(source), "app/foo.rb")
	for _, imp := range imports {
		if imp.Kind.Kind != parsecommon.KindZeitwerkConstant {
			continue
		}
		if imp.RawPath == "time" {
			t.Error("expected Time (stdlib constant) to be excluded")
		}
		if imp.RawPath == "foo" {
			t.Error("expected Foo (its own class definition) to be excluded")
		}
	}
}

func TestResolveRequireRelative(t *testing.T) {
	f := New(nil)
	raw := parsecommon.RawImport{RawPath: "helper", SourceFile: "app/main.rb", Kind: parsecommon.ImportKind{Kind: parsecommon.KindRequireRelative}}

	canonical, ok := f.Resolve(raw, "", []string{"app/helper.rb"})
	if !ok || canonical != "app/helper.rb" {
		t.Errorf("Resolve() = (%q, %v), want (app/helper.rb, true)", canonical, ok)
	}
}

func TestResolveDirectAgainstLoadPaths(t *testing.T) {
	f := New([]string{"lib", "app"})
	raw := parsecommon.RawImport{RawPath: "widgets/widget", Kind: parsecommon.ImportKind{Kind: parsecommon.KindDirect}}

	canonical, ok := f.Resolve(raw, "", []string{"app/widgets/widget.rb"})
	if !ok || canonical != "app/widgets/widget.rb" {
		t.Errorf("Resolve() = (%q, %v), want (app/widgets/widget.rb, true)", canonical, ok)
	}
}

func TestResolveDefaultLoadPaths(t *testing.T) {
	f := New(nil)
	if len(f.LoadPaths) != 2 || f.LoadPaths[0] != "lib" || f.LoadPaths[1] != "app" {
		t.Errorf("New(nil).LoadPaths = %v, want [lib app]", f.LoadPaths)
	}
}

func TestCamelToSnake(t *testing.T) {
	cases := map[string]string{
		"Widget":     "widget",
		"HTMLParser": "html_parser",
		"UserID":     "user_id",
	}
	for in, want := range cases {
		if got := CamelToSnake(in); got != want {
			t.Errorf("CamelToSnake(%q) = %q, want %q", in, got, want)
		}
	}
}
