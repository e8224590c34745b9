// Package langfrontend defines the per-language frontend contract used by
// discovery and the graph builder to turn file bytes into resolved imports.
package langfrontend

import (
	"fmt"

	"untangle/internal/parsecommon"
)

// Language identifies one of the four supported source languages.
type Language string

const (
	Python Language = "python"
	Ruby   Language = "ruby"
	Go     Language = "go"
	Rust   Language = "rust"
)

// Extensions returns the file extensions recognized for a language.
func (l Language) Extensions() []string {
	switch l {
	case Python:
		return []string{"py"}
	case Ruby:
		return []string{"rb"}
	case Go:
		return []string{"go"}
	case Rust:
		return []string{"rs"}
	default:
		return nil
	}
}

// DefaultTestExcludes returns glob patterns excluded by default unless
// include_tests is set.
func (l Language) DefaultTestExcludes() []string {
	if l == Go {
		return []string{"**/*_test.go", "*_test.go"}
	}
	return nil
}

// ParseLanguage parses a user-supplied or config string into a Language.
func ParseLanguage(s string) (Language, error) {
	switch s {
	case "python", "py":
		return Python, nil
	case "ruby", "rb":
		return Ruby, nil
	case "go":
		return Go, nil
	case "rust", "rs":
		return Rust, nil
	default:
		return "", fmt.Errorf("unsupported language: %s", s)
	}
}

// Frontend is the capability set every language implementation exposes.
// Implementations must be safe to instantiate per worker but must not
// share mutable state across goroutines once created.
type Frontend interface {
	// ExtractImports parses source bytes and returns the raw imports found.
	// A parse failure or empty root returns nil; it is not an error.
	ExtractImports(source []byte, filePath string) []parsecommon.RawImport

	// Resolve maps a raw import to a project-internal canonical path, or
	// reports that it could not be resolved. projectFiles is the full set
	// of discovered project-relative file paths for this analysis.
	Resolve(raw parsecommon.RawImport, projectRoot string, projectFiles []string) (canonical string, ok bool)
}
