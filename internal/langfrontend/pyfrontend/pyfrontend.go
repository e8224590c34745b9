// Package pyfrontend implements the Python language frontend: import and
// from-import extraction via tree-sitter queries, plus relative-import
// resolution by walking up from the importing file.
package pyfrontend

import (
	"os"
	"path"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"untangle/internal/parsecommon"
)

const directImportQuery = `(import_statement name: (dotted_name) @module)`

const fromImportQuery = `
(import_from_statement
  module_name: (dotted_name) @module
  name: (dotted_name) @name)
`

// Frontend is the Python language frontend.
type Frontend struct {
	ResolveRelative bool

	parser          *sitter.Parser
	directQuery     *sitter.Query
	fromImportQuery *sitter.Query
}

// New creates a Python frontend with relative-import resolution enabled.
func New() *Frontend {
	return &Frontend{ResolveRelative: true}
}

func (f *Frontend) ensureParser() error {
	if f.parser != nil {
		return nil
	}
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	dq, err := sitter.NewQuery([]byte(directImportQuery), python.GetLanguage())
	if err != nil {
		return err
	}
	fq, err := sitter.NewQuery([]byte(fromImportQuery), python.GetLanguage())
	if err != nil {
		return err
	}
	f.parser = p
	f.directQuery = dq
	f.fromImportQuery = fq
	return nil
}

// ExtractImports parses source for `import X` and `from X import Y` forms,
// plus `from . import foo` / `from ..pkg import foo` relative forms found
// by walking relative_import nodes directly.
func (f *Frontend) ExtractImports(source []byte, filePath string) []parsecommon.RawImport {
	if err := f.ensureParser(); err != nil {
		return nil
	}
	tree, err := f.parser.ParseCtx(nil, nil, source)
	if err != nil || tree == nil {
		return nil
	}
	root := tree.RootNode()

	var imports []parsecommon.RawImport

	cursor := sitter.NewQueryCursor()
	cursor.Exec(f.directQuery, root)
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		for _, capture := range match.Captures {
			node := capture.Node
			modulePath := node.Content(source)
			col := int(node.StartPoint().Column)
			imports = append(imports, parsecommon.RawImport{
				RawPath:    modulePath,
				SourceFile: filePath,
				Line:       int(node.StartPoint().Row) + 1,
				Column:     &col,
				Kind:       parsecommon.ImportKind{Kind: parsecommon.KindDirect},
				Confidence: parsecommon.Resolved,
			})
		}
	}

	fromCursor := sitter.NewQueryCursor()
	fromCursor.Exec(f.fromImportQuery, root)
	for {
		match, ok := fromCursor.NextMatch()
		if !ok {
			break
		}
		var moduleNode, nameNode *sitter.Node
		for _, capture := range match.Captures {
			switch f.fromImportQuery.CaptureNameForId(capture.Index) {
			case "module":
				moduleNode = capture.Node
			case "name":
				nameNode = capture.Node
			}
		}
		if moduleNode == nil {
			continue
		}
		modulePath := moduleNode.Content(source)
		var names []string
		if nameNode != nil {
			names = []string{nameNode.Content(source)}
		}
		col := int(moduleNode.StartPoint().Column)
		imports = append(imports, parsecommon.RawImport{
			RawPath:    modulePath,
			SourceFile: filePath,
			Line:       int(moduleNode.StartPoint().Row) + 1,
			Column:     &col,
			Kind:       parsecommon.ImportKind{Kind: parsecommon.KindFromImport, Module: modulePath, Names: names},
			Confidence: parsecommon.Resolved,
		})
	}

	imports = append(imports, walkForRelativeImports(root, source, filePath)...)

	return imports
}

// walkForRelativeImports recursively walks the tree for relative_import
// nodes (`from . import foo`, `from ..pkg import foo`).
func walkForRelativeImports(node *sitter.Node, source []byte, filePath string) []parsecommon.RawImport {
	var out []parsecommon.RawImport
	if node == nil {
		return out
	}
	if node.Type() == "import_from_statement" {
		var relNode *sitter.Node
		var nameNodes []*sitter.Node
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			if child == nil {
				continue
			}
			if child.Type() == "relative_import" {
				c := child
				relNode = c
			}
			if child.Type() == "dotted_name" && relNode != nil {
				c := child
				nameNodes = append(nameNodes, c)
			}
		}
		if relNode != nil {
			text := relNode.Content(source)
			level := 0
			for level < len(text) && text[level] == '.' {
				level++
			}
			module := strings.TrimLeft(text, ".")
			var names []string
			for _, n := range nameNodes {
				names = append(names, n.Content(source))
			}
			var moduleField string
			if module != "" {
				moduleField = module
			}
			col := int(relNode.StartPoint().Column)
			out = append(out, parsecommon.RawImport{
				RawPath:    text,
				SourceFile: filePath,
				Line:       int(relNode.StartPoint().Row) + 1,
				Column:     &col,
				Kind: parsecommon.ImportKind{
					Kind:   parsecommon.KindRelativeImport,
					Level:  level,
					Module: moduleField,
					Names:  names,
				},
				Confidence: parsecommon.Resolved,
			})
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		out = append(out, walkForRelativeImports(node.Child(i), source, filePath)...)
	}
	return out
}

// Resolve maps a raw import to a project-internal file, testing package
// (__init__.py) then module (.py) forms at each dotted-path prefix, and
// walking up `level` directories for relative imports.
func (f *Frontend) Resolve(raw parsecommon.RawImport, projectRoot string, projectFiles []string) (string, bool) {
	fileSet := make(map[string]bool, len(projectFiles))
	for _, p := range projectFiles {
		fileSet[p] = true
	}

	if raw.Kind.Kind == parsecommon.KindRelativeImport {
		if !f.ResolveRelative {
			return "", false
		}
		dir := path.Dir(raw.SourceFile)
		for i := 1; i < raw.Kind.Level; i++ {
			dir = path.Dir(dir)
		}
		if raw.Kind.Module == "" {
			return resolvePackage(dir, fileSet)
		}
		segments := strings.Split(raw.Kind.Module, ".")
		return resolveDotted(dir, segments, fileSet)
	}

	segments := strings.Split(raw.RawPath, ".")
	return resolveDotted(".", segments, fileSet)
}

func resolveDotted(base string, segments []string, fileSet map[string]bool) (string, bool) {
	for n := len(segments); n >= 1; n-- {
		candidate := base
		for _, seg := range segments[:n] {
			candidate = path.Join(candidate, seg)
		}
		if canonical, ok := resolvePackage(candidate, fileSet); ok {
			return canonical, true
		}
		moduleFile := candidate + ".py"
		if fileSet[moduleFile] {
			return moduleFile, true
		}
	}
	return "", false
}

func resolvePackage(dir string, fileSet map[string]bool) (string, bool) {
	initFile := path.Join(dir, "__init__.py")
	if fileSet[initFile] {
		return initFile, true
	}
	return "", false
}

// IsPythonPackage reports whether dir contains an __init__.py marker.
func IsPythonPackage(dir string) bool {
	_, err := os.Stat(path.Join(dir, "__init__.py"))
	return err == nil
}
