// Package rsfrontend implements the Rust language frontend: use_declaration
// tree-walk import extraction and crate/super/self path resolution.
package rsfrontend

import (
	"path"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"

	"untangle/internal/parsecommon"
)

const useQuery = `(use_declaration argument: (_) @arg)`

// Frontend is the Rust language frontend.
type Frontend struct {
	CrateName string

	parser *sitter.Parser
	query  *sitter.Query
}

// New creates a Rust frontend with no known crate name.
func New() *Frontend {
	return &Frontend{}
}

// WithCrateName creates a Rust frontend that treats imports of the given
// crate name (dashes normalized to underscores) as project-internal.
func WithCrateName(name string) *Frontend {
	return &Frontend{CrateName: name}
}

// ParseCrateName extracts [package].name from Cargo.toml content.
// A minimal line scanner suffices since only that one key is needed.
func ParseCrateName(content string) (string, bool) {
	inPackage := false
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") {
			inPackage = trimmed == "[package]"
			continue
		}
		if !inPackage {
			continue
		}
		if rest, ok := strings.CutPrefix(trimmed, "name"); ok {
			rest = strings.TrimSpace(rest)
			if val, ok := strings.CutPrefix(rest, "="); ok {
				val = strings.TrimSpace(val)
				val = strings.Trim(val, `"`)
				if val != "" {
					return val, true
				}
			}
		}
	}
	return "", false
}

func (f *Frontend) ensureParser() error {
	if f.parser != nil {
		return nil
	}
	p := sitter.NewParser()
	p.SetLanguage(rust.GetLanguage())
	q, err := sitter.NewQuery([]byte(useQuery), rust.GetLanguage())
	if err != nil {
		return err
	}
	f.parser = p
	f.query = q
	return nil
}

func (f *Frontend) classify(importPath string) parsecommon.Confidence {
	firstSegment, _, _ := strings.Cut(importPath, "::")
	switch firstSegment {
	case "crate", "super", "self":
		return parsecommon.Resolved
	case "std", "core", "alloc":
		return parsecommon.External
	default:
		if f.CrateName != "" {
			normalizedCrate := strings.ReplaceAll(f.CrateName, "-", "_")
			normalizedSegment := strings.ReplaceAll(firstSegment, "-", "_")
			if normalizedCrate == normalizedSegment {
				return parsecommon.Resolved
			}
		}
		return parsecommon.External
	}
}

// ExtractImports parses source for use_declaration statements and flattens
// scoped use lists, wildcards, and as-clauses into individual raw paths.
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
			line := int(node.StartPoint().Row) + 1
			col := int(node.StartPoint().Column)

			var paths []string
			collectPaths(node, source, "", &paths)

			for _, p := range paths {
				if p == "" {
					continue
				}
				imports = append(imports, parsecommon.RawImport{
					RawPath:    p,
					SourceFile: filePath,
					Line:       line,
					Column:     &col,
					Kind:       parsecommon.ImportKind{Kind: parsecommon.KindDirect},
					Confidence: f.classify(p),
				})
			}
		}
	}
	return imports
}

// collectPaths recursively walks a use_declaration argument subtree and
// flattens it into fully-qualified `::`-joined import path strings.
func collectPaths(node *sitter.Node, source []byte, prefix string, out *[]string) {
	if node == nil {
		return
	}
	join := func(text string) string {
		if prefix == "" {
			return text
		}
		return prefix + "::" + text
	}

	switch node.Type() {
	case "scoped_identifier":
		*out = append(*out, join(node.Content(source)))

	case "scoped_use_list":
		var pathPrefix string
		var useList *sitter.Node
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			if child == nil {
				continue
			}
			switch child.Type() {
			case "use_list":
				useList = child
			case "::", "{", "}":
			default:
				text := child.Content(source)
				if text != "" {
					pathPrefix = join(text)
				}
			}
		}
		if useList != nil {
			for i := 0; i < int(useList.ChildCount()); i++ {
				item := useList.Child(i)
				if item == nil || item.Type() == "," {
					continue
				}
				collectPaths(item, source, pathPrefix, out)
			}
		}

	case "use_as_clause":
		if node.ChildCount() > 0 {
			collectPaths(node.Child(0), source, prefix, out)
		}

	case "use_wildcard":
		*out = append(*out, join(node.Content(source)))

	case "use_list":
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			if child != nil && child.IsNamed() {
				collectPaths(child, source, prefix, out)
			}
		}

	case "identifier", "self", "super", "crate":
		*out = append(*out, join(node.Content(source)))

	default:
		if node.IsNamed() {
			text := node.Content(source)
			if text != "" {
				*out = append(*out, join(text))
			}
		}
	}
}

// Resolve maps crate::/super::/self::/own-crate-name paths to a project file
// by progressively shortening the candidate path and testing `<path>.rs`
// then `<path>/mod.rs`.
func (f *Frontend) Resolve(raw parsecommon.RawImport, projectRoot string, projectFiles []string) (string, bool) {
	if raw.Confidence != parsecommon.Resolved {
		return "", false
	}

	importPath := strings.TrimSuffix(raw.RawPath, "::*")
	firstSegment, _, _ := strings.Cut(importPath, "::")

	fileSet := make(map[string]bool, len(projectFiles))
	for _, p := range projectFiles {
		fileSet[p] = true
	}

	relativeSource := raw.SourceFile

	switch firstSegment {
	case "crate":
		rest := strings.TrimPrefix(importPath, "crate::")
		candidate := path.Join("src", strings.ReplaceAll(rest, "::", "/"))
		return findModuleFile(candidate, fileSet)

	case "super":
		sourceDir := path.Dir(relativeSource)
		baseDir := path.Dir(sourceDir)
		rest := strings.TrimPrefix(importPath, "super::")
		candidate := path.Join(baseDir, strings.ReplaceAll(rest, "::", "/"))
		return findModuleFile(candidate, fileSet)

	case "self":
		sourceDir := path.Dir(relativeSource)
		rest := strings.TrimPrefix(importPath, "self::")
		candidate := path.Join(sourceDir, strings.ReplaceAll(rest, "::", "/"))
		return findModuleFile(candidate, fileSet)

	default:
		if f.CrateName != "" {
			normalizedCrate := strings.ReplaceAll(f.CrateName, "-", "_")
			normalizedSegment := strings.ReplaceAll(firstSegment, "-", "_")
			if normalizedCrate == normalizedSegment {
				rest := strings.TrimPrefix(importPath, firstSegment)
				rest = strings.TrimPrefix(rest, "::")
				candidate := path.Join("src", strings.ReplaceAll(rest, "::", "/"))
				return findModuleFile(candidate, fileSet)
			}
		}
		return "", false
	}
}

// findModuleFile tries candidate.rs, then candidate/mod.rs, then walks up
// one path component at a time (to skip a trailing type/function name)
// until it reaches src/.
func findModuleFile(candidate string, fileSet map[string]bool) (string, bool) {
	p := candidate
	for {
		rsFile := p + ".rs"
		if fileSet[rsFile] {
			return rsFile, true
		}
		modFile := path.Join(p, "mod.rs")
		if fileSet[modFile] {
			return modFile, true
		}

		parent := path.Dir(p)
		if parent == p || parent == "." || parent == "src" || path.Base(parent) == "" {
			break
		}
		p = parent
	}
	return "", false
}
