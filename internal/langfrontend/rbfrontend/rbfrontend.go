// Package rbfrontend implements the Ruby language frontend: require /
// require_relative / autoload extraction via a tree-walk over `call`
// nodes, plus optional Zeitwerk-convention constant-reference extraction.
package rbfrontend

import (
	"path"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/ruby"

	"untangle/internal/parsecommon"
)

// stdlibConstants excludes well-known Ruby standard-library/core constants
// from Zeitwerk constant-reference extraction so they never spuriously
// resolve to a project file.
var stdlibConstants = map[string]bool{
	"Object": true, "Kernel": true, "Module": true, "Class": true,
	"String": true, "Symbol": true, "Integer": true, "Float": true,
	"Numeric": true, "Array": true, "Hash": true, "Range": true,
	"Regexp": true, "MatchData": true, "Proc": true, "Method": true,
	"NilClass": true, "TrueClass": true, "FalseClass": true, "Comparable": true,
	"Enumerable": true, "Enumerator": true, "Struct": true, "Time": true,
	"Exception": true, "StandardError": true, "RuntimeError": true,
	"ArgumentError": true, "TypeError": true, "NameError": true,
	"NoMethodError": true, "IndexError": true, "KeyError": true,
	"RangeError": true, "ZeroDivisionError": true, "NotImplementedError": true,
	"IOError": true, "EOFError": true, "LoadError": true, "SyntaxError": true,
	"SystemExit": true, "Interrupt": true, "ScriptError": true,
	"SecurityError": true, "SystemStackError": true, "ThreadError": true,
	"FiberError": true, "EncodingError": true, "FrozenError": true,
	"File": true, "Dir": true, "IO": true, "Process": true, "Thread": true,
	"Fiber": true, "Mutex": true, "Queue": true, "Marshal": true,
	"ObjectSpace": true, "GC": true, "Math": true, "Random": true,
	"Encoding": true, "Rational": true, "Complex": true, "Set": true,
	"Data": true, "Warning": true, "Binding": true, "UnboundMethod": true,
}

// CamelToSnake converts a CamelCase constant name to snake_case following
// the Zeitwerk inflection convention (HTMLParser -> html_parser).
func CamelToSnake(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prevLower := unicode.IsLower(runes[i-1])
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if prevLower || (i > 1 && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Frontend is the Ruby language frontend.
type Frontend struct {
	Zeitwerk  bool
	LoadPaths []string

	parser *sitter.Parser
}

// New creates a Ruby frontend with the given load paths and Zeitwerk mode off.
func New(loadPaths []string) *Frontend {
	if len(loadPaths) == 0 {
		loadPaths = []string{"lib", "app"}
	}
	return &Frontend{LoadPaths: loadPaths}
}

func (f *Frontend) ensureParser() {
	if f.parser == nil {
		p := sitter.NewParser()
		p.SetLanguage(ruby.GetLanguage())
		f.parser = p
	}
}

// ExtractImports walks the tree for require/require_relative/autoload
// calls, and (if Zeitwerk is enabled) constant references.
func (f *Frontend) ExtractImports(source []byte, filePath string) []parsecommon.RawImport {
	f.ensureParser()
	tree, err := f.parser.ParseCtx(nil, nil, source)
	if err != nil || tree == nil {
		return nil
	}
	root := tree.RootNode()

	imports := walkForRequires(root, source, filePath)
	if f.Zeitwerk {
		imports = append(imports, extractZeitwerkConstants(root, source, filePath)...)
	}
	return imports
}

func walkForRequires(node *sitter.Node, source []byte, filePath string) []parsecommon.RawImport {
	var out []parsecommon.RawImport
	if node == nil {
		return out
	}
	if node.Type() == "call" {
		method := node.ChildByFieldName("method")
		args := node.ChildByFieldName("arguments")
		if method != nil && args != nil {
			name := method.Content(source)
			switch name {
			case "require":
				if s, ok := firstStringArg(args, source); ok {
					out = append(out, rawImport(filePath, s, args, parsecommon.KindDirect, parsecommon.Resolved, ""))
				}
			case "require_relative":
				if s, ok := firstStringArg(args, source); ok {
					out = append(out, rawImport(filePath, s, args, parsecommon.KindRequireRelative, parsecommon.Resolved, ""))
				}
			case "autoload":
				constant, s, ok := autoloadArgs(args, source)
				if ok {
					out = append(out, rawImport(filePath, s, args, parsecommon.KindAutoload, parsecommon.Resolved, constant))
				}
			}
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		out = append(out, walkForRequires(node.Child(i), source, filePath)...)
	}
	return out
}

func rawImport(filePath, s string, posNode *sitter.Node, kindTag parsecommon.ImportKindTag, confidence parsecommon.Confidence, constant string) parsecommon.RawImport {
	col := int(posNode.StartPoint().Column)
	kind := parsecommon.ImportKind{Kind: kindTag}
	if kindTag == parsecommon.KindAutoload {
		kind.Constant = constant
	}
	return parsecommon.RawImport{
		RawPath:    s,
		SourceFile: filePath,
		Line:       int(posNode.StartPoint().Row) + 1,
		Column:     &col,
		Kind:       kind,
		Confidence: confidence,
	}
}

func firstStringArg(args *sitter.Node, source []byte) (string, bool) {
	for i := 0; i < int(args.ChildCount()); i++ {
		child := args.Child(i)
		if child == nil {
			continue
		}
		if child.Type() == "string" {
			return stripQuotes(child.Content(source)), true
		}
		if child.Type() == "string_interpolation" || (child.Type() == "string" && hasInterpolation(child)) {
			return "", false
		}
	}
	return "", false
}

func hasInterpolation(node *sitter.Node) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == "interpolation" {
			return true
		}
	}
	return false
}

func autoloadArgs(args *sitter.Node, source []byte) (constant string, target string, ok bool) {
	var sym, str string
	for i := 0; i < int(args.ChildCount()); i++ {
		child := args.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "simple_symbol":
			sym = strings.TrimPrefix(child.Content(source), ":")
		case "string":
			str = stripQuotes(child.Content(source))
		}
	}
	if sym == "" || str == "" {
		return "", "", false
	}
	return sym, str, true
}

func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		return s[1 : len(s)-1]
	}
	return s
}

// extractZeitwerkConstants walks scope_resolution/constant nodes, excluding
// class/module definition names and known stdlib constants.
func extractZeitwerkConstants(root *sitter.Node, source []byte, filePath string) []parsecommon.RawImport {
	definitionNames := collectDefinitionNames(root, source)
	seen := map[string]bool{}
	var out []parsecommon.RawImport
	walkForConstants(root, source, filePath, definitionNames, seen, &out)
	return out
}

func collectDefinitionNames(node *sitter.Node, source []byte) map[string]bool {
	names := map[string]bool{}
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "class" || n.Type() == "module" {
			nameNode := n.ChildByFieldName("name")
			if nameNode != nil {
				names[nameNode.Content(source)] = true
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(node)
	return names
}

func walkForConstants(node *sitter.Node, source []byte, filePath string, defs map[string]bool, seen map[string]bool, out *[]parsecommon.RawImport) {
	if node == nil {
		return
	}
	if node.Type() == "constant" || node.Type() == "scope_resolution" {
		text := node.Content(source)
		lastSeg := text
		if idx := strings.LastIndex(text, "::"); idx >= 0 {
			lastSeg = text[idx+2:]
		}
		if !defs[lastSeg] && !stdlibConstants[lastSeg] && !seen[text] {
			seen[text] = true
			snakePath := zeitwerkPath(text)
			col := int(node.StartPoint().Column)
			*out = append(*out, parsecommon.RawImport{
				RawPath:    snakePath,
				SourceFile: filePath,
				Line:       int(node.StartPoint().Row) + 1,
				Column:     &col,
				Kind:       parsecommon.ImportKind{Kind: parsecommon.KindZeitwerkConstant},
				Confidence: parsecommon.Resolved,
			})
		}
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		walkForConstants(node.Child(i), source, filePath, defs, seen, out)
	}
}

func zeitwerkPath(constantPath string) string {
	segments := strings.Split(constantPath, "::")
	parts := make([]string, len(segments))
	for i, s := range segments {
		parts[i] = CamelToSnake(s)
	}
	return strings.Join(parts, "/")
}

// Resolve maps a raw import to a project-internal file per its kind:
// require_relative is resolved relative to the importing file; require
// and autoload/zeitwerk targets are tried against each configured load
// path root.
func (f *Frontend) Resolve(raw parsecommon.RawImport, projectRoot string, projectFiles []string) (string, bool) {
	fileSet := make(map[string]bool, len(projectFiles))
	for _, p := range projectFiles {
		fileSet[p] = true
	}

	switch raw.Kind.Kind {
	case parsecommon.KindRequireRelative:
		dir := path.Dir(raw.SourceFile)
		candidate := path.Join(dir, raw.RawPath) + ".rb"
		if fileSet[candidate] {
			return candidate, true
		}
		return "", false
	case parsecommon.KindDirect, parsecommon.KindAutoload, parsecommon.KindZeitwerkConstant:
		for _, lp := range f.LoadPaths {
			candidate := path.Join(lp, raw.RawPath) + ".rb"
			if fileSet[candidate] {
				return candidate, true
			}
		}
		return "", false
	default:
		return "", false
	}
}
