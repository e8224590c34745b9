package gofrontend

import (
	"os"
	"testing"

	"untangle/internal/parsecommon"
)

// fakeManifestSource serves go.mod content from an in-memory map, keyed
// by project-relative path, for exercising nested-manifest resolution
// without touching disk.
type fakeManifestSource map[string]string

func (f fakeManifestSource) ReadFile(relPath string) ([]byte, error) {
	content, ok := f[relPath]
	if !ok {
		return nil, os.ErrNotExist
	}
	return []byte(content), nil
}

// countingSource wraps another ManifestSource and counts every ReadFile
// call, to verify the per-directory manifest cache avoids repeated reads.
type countingSource struct {
	base  fakeManifestSource
	count *int
}

func (c countingSource) ReadFile(relPath string) ([]byte, error) {
	*c.count++
	return c.base.ReadFile(relPath)
}

const sampleSource = `package foo

import (
	"fmt"
	"example.com/proj/internal/bar"
	"github.com/pkg/errors"
)

func main() {
	fmt.Println(bar.Name, errors.New(""))
}
`

func TestExtractImportsClassifiesEachPath(t *testing.T) {
	f := New("example.com/proj")
	imports := f.ExtractImports([]byte(sampleSource), "main.go")

	got := map[string]parsecommon.Confidence{}
	for _, imp := range imports {
		got[imp.RawPath] = imp.Confidence
	}

	if got["fmt"] != parsecommon.External {
		t.Errorf(`"fmt" classified as %s, want external (stdlib excluded by default)`, got["fmt"])
	}
	if got["example.com/proj/internal/bar"] != parsecommon.Resolved {
		t.Errorf("internal import classified as %s, want resolved", got["example.com/proj/internal/bar"])
	}
	if got["github.com/pkg/errors"] != parsecommon.External {
		t.Errorf("third-party import classified as %s, want external", got["github.com/pkg/errors"])
	}
}

func TestExtractImportsStdlibNotExcluded(t *testing.T) {
	f := New("example.com/proj")
	f.ExcludeStdlib = false

	imports := f.ExtractImports([]byte(sampleSource), "main.go")
	for _, imp := range imports {
		if imp.RawPath == "fmt" && imp.Confidence != parsecommon.Resolved {
			t.Errorf(`"fmt" classified as %s with ExcludeStdlib=false, want resolved`, imp.Confidence)
		}
	}
}

func TestResolveTrimsModulePrefix(t *testing.T) {
	f := New("example.com/proj")
	raw := parsecommon.RawImport{RawPath: "example.com/proj/internal/bar", Confidence: parsecommon.Resolved}

	canonical, ok := f.Resolve(raw, "", nil)
	if !ok || canonical != "internal/bar" {
		t.Errorf("Resolve() = (%q, %v), want (internal/bar, true)", canonical, ok)
	}
}

func TestResolveRejectsNonResolvedConfidence(t *testing.T) {
	f := New("example.com/proj")
	raw := parsecommon.RawImport{RawPath: "fmt", Confidence: parsecommon.External}

	if _, ok := f.Resolve(raw, "", nil); ok {
		t.Error("expected Resolve to reject a non-resolved-confidence import")
	}
}

func TestResolveRejectsExactModuleRootImport(t *testing.T) {
	f := New("example.com/proj")
	raw := parsecommon.RawImport{RawPath: "example.com/proj", Confidence: parsecommon.Resolved}

	if _, ok := f.Resolve(raw, "", nil); ok {
		t.Error("expected Resolve to reject the module root itself (empty relative path)")
	}
}

func TestParseGoModModule(t *testing.T) {
	content := "module example.com/proj\n\ngo 1.21\n"
	mod, ok := ParseGoModModule(content)
	if !ok || mod != "example.com/proj" {
		t.Errorf("ParseGoModModule() = (%q, %v), want (example.com/proj, true)", mod, ok)
	}
}

func TestParseGoModModuleMissing(t *testing.T) {
	if _, ok := ParseGoModModule("go 1.21\n"); ok {
		t.Error("expected ok=false when there is no module directive")
	}
}

func TestNestedModuleResolvesAgainstItsOwnManifest(t *testing.T) {
	src := fakeManifestSource{
		"go.mod":             "module example.com/root\n",
		"vendor/sub/go.mod":  "module example.com/sub\n",
	}
	f := NewWithManifests("example.com/root", src)

	rootImports := f.ExtractImports([]byte(`package main

import "example.com/root/internal/pkg"
`), "main.go")
	if len(rootImports) != 1 || rootImports[0].Confidence != parsecommon.Resolved {
		t.Fatalf("expected the root file's import to resolve against the root module, got %+v", rootImports)
	}

	nestedImports := f.ExtractImports([]byte(`package sub

import (
	"example.com/sub/helper"
	"example.com/root/internal/pkg"
)
`), "vendor/sub/main.go")
	got := map[string]parsecommon.Confidence{}
	for _, imp := range nestedImports {
		got[imp.RawPath] = imp.Confidence
	}
	if got["example.com/sub/helper"] != parsecommon.Resolved {
		t.Errorf("nested module's own-prefix import classified as %s, want resolved", got["example.com/sub/helper"])
	}
	if got["example.com/root/internal/pkg"] != parsecommon.External {
		t.Errorf("root-module import from inside the nested module classified as %s, want external (not its nearest manifest)", got["example.com/root/internal/pkg"])
	}
}

func TestNestedModuleResolveUsesOwnManifestPrefix(t *testing.T) {
	src := fakeManifestSource{
		"go.mod":             "module example.com/root\n",
		"vendor/sub/go.mod":  "module example.com/sub\n",
	}
	f := NewWithManifests("example.com/root", src)
	raw := parsecommon.RawImport{
		RawPath:    "example.com/sub/helper",
		SourceFile: "vendor/sub/main.go",
		Confidence: parsecommon.Resolved,
	}

	// The within-module-relative remainder ("helper") is re-anchored under
	// the nested manifest's own directory to stay project-root-relative,
	// matching how discovery keys nodes by project-relative path.
	canonical, ok := f.Resolve(raw, "", nil)
	if !ok || canonical != "vendor/sub/helper" {
		t.Errorf("Resolve() = (%q, %v), want (vendor/sub/helper, true)", canonical, ok)
	}
}

func TestManifestLookupCachesPerDirectory(t *testing.T) {
	reads := 0
	src := countingSource{base: fakeManifestSource{"go.mod": "module example.com/root\n"}, count: &reads}
	f := NewWithManifests("example.com/root", src)

	f.ExtractImports([]byte("package a\n\nimport \"fmt\"\n"), "pkg/a.go")
	f.ExtractImports([]byte("package a\n\nimport \"fmt\"\n"), "pkg/b.go")

	if reads != 2 {
		t.Errorf("expected exactly 2 manifest reads (pkg/go.mod miss + go.mod hit, cached after that), got %d", reads)
	}
}

func TestIsTestFile(t *testing.T) {
	if !IsTestFile("foo_test.go") {
		t.Error("expected foo_test.go to be recognized as a test file")
	}
	if IsTestFile("foo.go") {
		t.Error("expected foo.go to not be recognized as a test file")
	}
}
