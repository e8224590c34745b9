// Package gofrontend implements the Go language frontend: import
// extraction via a tree-sitter query and module-path based resolution.
package gofrontend

import (
	"path"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"untangle/internal/parsecommon"
)

// importQuery captures the string literal path of every import spec.
const importQuery = `(import_spec path: (interpreted_string_literal) @import_path)`

// ManifestSource lets the frontend read go.mod files anywhere in the
// project tree, so it can resolve a nested Go module's own import prefix
// instead of only the project root's.
type ManifestSource interface {
	ReadFile(relPath string) ([]byte, error)
}

// Frontend is the Go language frontend.
type Frontend struct {
	// ModulePath is read from the project root's go.mod (e.g.
	// "github.com/user/project"). It is the fallback used for files with
	// no nearer manifest, and the only module path consulted when src is
	// nil.
	ModulePath string
	// ExcludeStdlib controls whether dotless import paths classify as external.
	ExcludeStdlib bool

	src           ManifestSource
	mu            sync.Mutex
	manifestCache map[string]string

	parser *sitter.Parser
	query  *sitter.Query
}

// New creates a Go frontend with stdlib exclusion enabled by default. It
// resolves every file against the single given module path; use
// NewWithManifests for a tree containing nested go.mod files.
func New(modulePath string) *Frontend {
	return &Frontend{ModulePath: modulePath, ExcludeStdlib: true}
}

// NewWithManifests creates a Go frontend that resolves each source file
// against its nearest enclosing go.mod rather than a single project-wide
// module path. rootModulePath is the fallback for files with no go.mod
// between them and the project root.
func NewWithManifests(rootModulePath string, src ManifestSource) *Frontend {
	return &Frontend{
		ModulePath:    rootModulePath,
		ExcludeStdlib: true,
		src:           src,
		manifestCache: map[string]string{},
	}
}

// ParseGoModModule extracts the `module` directive from go.mod content.
func ParseGoModModule(content string) (string, bool) {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "module "); ok {
			return strings.TrimSpace(rest), true
		}
	}
	return "", false
}

// IsTestFile reports whether path is a Go test file.
func IsTestFile(path string) bool {
	return strings.HasSuffix(path, "_test.go")
}

func (f *Frontend) ensureParser() error {
	if f.parser != nil {
		return nil
	}
	p := sitter.NewParser()
	p.SetLanguage(golang.GetLanguage())
	q, err := sitter.NewQuery([]byte(importQuery), golang.GetLanguage())
	if err != nil {
		return err
	}
	f.parser = p
	f.query = q
	return nil
}

func (f *Frontend) classify(importPath, filePath string) parsecommon.Confidence {
	modulePath := f.nearestManifest(filePath).modulePath
	if modulePath != "" && strings.HasPrefix(importPath, modulePath) {
		return parsecommon.Resolved
	}
	if !strings.Contains(importPath, ".") {
		if f.ExcludeStdlib {
			return parsecommon.External
		}
		return parsecommon.Resolved
	}
	return parsecommon.External
}

// manifest is the nearest go.mod found above a source file: its module
// path, and the project-relative directory it lives in (needed to turn a
// within-module-relative import path back into a project-relative one).
type manifest struct {
	modulePath string
	dir        string
}

// nearestManifest walks up from filePath's directory looking for the
// nearest go.mod, caching each directory probed so a tree with many files
// per module only pays for one read per directory. Falls back to the
// project root's module path, including when src is nil (the
// single-module case New constructs).
func (f *Frontend) nearestManifest(filePath string) manifest {
	if f.src == nil {
		return manifest{modulePath: f.ModulePath, dir: "."}
	}
	dir := path.Dir(filePath)
	for {
		if modulePath, ok := f.manifestAt(dir); ok {
			return manifest{modulePath: modulePath, dir: dir}
		}
		if dir == "." {
			break
		}
		dir = path.Dir(dir)
	}
	return manifest{modulePath: f.ModulePath, dir: "."}
}

func (f *Frontend) manifestAt(dir string) (string, bool) {
	f.mu.Lock()
	if cached, ok := f.manifestCache[dir]; ok {
		f.mu.Unlock()
		return cached, cached != ""
	}
	f.mu.Unlock()

	modulePath := ""
	if content, err := f.src.ReadFile(path.Join(dir, "go.mod")); err == nil {
		if mp, ok := ParseGoModModule(string(content)); ok {
			modulePath = mp
		}
	}

	f.mu.Lock()
	f.manifestCache[dir] = modulePath
	f.mu.Unlock()
	return modulePath, modulePath != ""
}

// ExtractImports parses source and returns every import spec's raw path.
func (f *Frontend) ExtractImports(source []byte, filePath string) []parsecommon.RawImport {
	if err := f.ensureParser(); err != nil {
		return nil
	}
	tree, err := f.parser.ParseCtx(nil, nil, source)
	if err != nil || tree == nil {
		return nil
	}

	cursor := sitter.NewQueryCursor()
	cursor.Exec(f.query, tree.RootNode())

	var imports []parsecommon.RawImport
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		for _, capture := range match.Captures {
			node := capture.Node
			text := strings.Trim(node.Content(source), `"`)
			if text == "" {
				continue
			}
			col := int(node.StartPoint().Column)
			imports = append(imports, parsecommon.RawImport{
				RawPath:    text,
				SourceFile: filePath,
				Line:       int(node.StartPoint().Row) + 1,
				Column:     &col,
				Kind:       parsecommon.ImportKind{Kind: parsecommon.KindDirect},
				Confidence: f.classify(text, filePath),
			})
		}
	}
	return imports
}

// Resolve maps a resolved-confidence import to the package directory,
// project-root-relative, by trimming its nearest enclosing module's path
// and then re-anchoring the remainder under that manifest's own
// directory (a no-op at the project root, where the manifest dir is ".").
func (f *Frontend) Resolve(raw parsecommon.RawImport, projectRoot string, projectFiles []string) (string, bool) {
	if raw.Confidence != parsecommon.Resolved {
		return "", false
	}
	m := f.nearestManifest(raw.SourceFile)
	if m.modulePath == "" {
		return "", false
	}
	relative := strings.TrimPrefix(raw.RawPath, m.modulePath)
	relative = strings.TrimPrefix(relative, "/")
	if relative == "" {
		return "", false
	}
	if m.dir != "." {
		relative = path.Join(m.dir, relative)
	}
	return relative, true
}
