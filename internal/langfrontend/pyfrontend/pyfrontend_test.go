package pyfrontend

import (
	"testing"

	"untangle/internal/parsecommon"
)

func TestExtractImportsDirectAndFrom(t *testing.T) {
	source := `import pkg.util
from pkg import helper
`
	f := New()
	imports := f.ExtractImports([]byte(source), "app/main.py")

	if len(imports) != 2 {
		t.Fatalf("expected 2 imports, got %d: %+v", len(imports), imports)
	}
	if imports[0].RawPath != "pkg.util" || imports[0].Kind.Kind != parsecommon.KindDirect {
		t.Errorf("import[0] = %+v, want direct import of pkg.util", imports[0])
	}
	if imports[1].RawPath != "pkg" || imports[1].Kind.Kind != parsecommon.KindFromImport {
		t.Errorf("import[1] = %+v, want from-import of pkg", imports[1])
	}
}

func TestExtractImportsRelative(t *testing.T) {
	source := "from . import sibling\n"
	f := New()
	imports := f.ExtractImports([]byte(source), "pkg/mod.py")

	if len(imports) != 1 {
		t.Fatalf("expected 1 relative import, got %d: %+v", len(imports), imports)
	}
	if imports[0].Kind.Kind != parsecommon.KindRelativeImport || imports[0].Kind.Level != 1 {
		t.Errorf("import[0] = %+v, want a level-1 relative import", imports[0])
	}
}

func TestResolveDottedModuleFile(t *testing.T) {
	f := New()
	raw := parsecommon.RawImport{RawPath: "pkg.util", Kind: parsecommon.ImportKind{Kind: parsecommon.KindDirect}}
	files := []string{"pkg/util.py", "pkg/__init__.py"}

	canonical, ok := f.Resolve(raw, "", files)
	if !ok || canonical != "pkg/util.py" {
		t.Errorf("Resolve() = (%q, %v), want (pkg/util.py, true)", canonical, ok)
	}
}

func TestResolveDottedPackage(t *testing.T) {
	f := New()
	raw := parsecommon.RawImport{RawPath: "pkg", Kind: parsecommon.ImportKind{Kind: parsecommon.KindDirect}}
	files := []string{"pkg/__init__.py"}

	canonical, ok := f.Resolve(raw, "", files)
	if !ok || canonical != "pkg/__init__.py" {
		t.Errorf("Resolve() = (%q, %v), want (pkg/__init__.py, true)", canonical, ok)
	}
}

func TestResolveRelativeImportWalksUpLevels(t *testing.T) {
	f := New()
	raw := parsecommon.RawImport{
		SourceFile: "pkg/sub/mod.py",
		Kind:       parsecommon.ImportKind{Kind: parsecommon.KindRelativeImport, Level: 2, Module: "sibling"},
	}
	files := []string{"pkg/sibling.py"}

	canonical, ok := f.Resolve(raw, "", files)
	if !ok || canonical != "pkg/sibling.py" {
		t.Errorf("Resolve() = (%q, %v), want (pkg/sibling.py, true)", canonical, ok)
	}
}

func TestResolveRelativeImportDisabled(t *testing.T) {
	f := New()
	f.ResolveRelative = false
	raw := parsecommon.RawImport{
		SourceFile: "pkg/mod.py",
		Kind:       parsecommon.ImportKind{Kind: parsecommon.KindRelativeImport, Level: 1},
	}

	if _, ok := f.Resolve(raw, "", []string{"pkg/__init__.py"}); ok {
		t.Error("expected Resolve to reject relative imports when ResolveRelative is false")
	}
}

func TestResolveUnresolvableReturnsFalse(t *testing.T) {
	f := New()
	raw := parsecommon.RawImport{RawPath: "nope.nowhere", Kind: parsecommon.ImportKind{Kind: parsecommon.KindDirect}}

	if _, ok := f.Resolve(raw, "", []string{"pkg/util.py"}); ok {
		t.Error("expected Resolve to fail for a path with no matching file")
	}
}
