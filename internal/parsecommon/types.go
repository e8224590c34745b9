// Package parsecommon holds the data shapes produced by every language
// frontend: raw import occurrences and their source locations.
package parsecommon

// SourceLocation identifies where an import statement appears.
type SourceLocation struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column *int   `json:"column,omitempty"`
}

// ImportKindTag discriminates the shape of an import occurrence.
type ImportKindTag string

const (
	// KindDirect covers `import foo`, `require "foo"`, Go/Rust `import`/`use`.
	KindDirect ImportKindTag = "direct"
	// KindFromImport covers Python `from X import a, b`.
	KindFromImport ImportKindTag = "from_import"
	// KindRelativeImport covers Python `from . import foo`.
	KindRelativeImport ImportKindTag = "relative_import"
	// KindRequireRelative covers Ruby `require_relative`.
	KindRequireRelative ImportKindTag = "require_relative"
	// KindAutoload covers Ruby `autoload :Foo, "path"`.
	KindAutoload ImportKindTag = "autoload"
	// KindZeitwerkConstant covers a Ruby constant reference resolved by convention.
	KindZeitwerkConstant ImportKindTag = "zeitwerk_constant"
)

// ImportKind carries the discriminator plus the fields specific to it.
// Only the fields relevant to Kind are populated.
type ImportKind struct {
	Kind ImportKindTag

	// FromImport / RelativeImport
	Module string
	Names  []string

	// RelativeImport
	Level int

	// Autoload
	Constant string
}

// Confidence classifies how likely an import is to be a project-internal edge.
type Confidence string

const (
	// Resolved means the import maps to a project-internal target.
	Resolved Confidence = "resolved"
	// External means the import is a third-party or standard-library dependency.
	External Confidence = "external"
	// Dynamic means the import path is computed at runtime and unresolvable statically.
	Dynamic Confidence = "dynamic"
	// Unresolvable means the frontend could not classify the import at all.
	Unresolvable Confidence = "unresolvable"
)

// RawImport is a single import occurrence extracted from one source file.
type RawImport struct {
	RawPath    string
	SourceFile string
	Line       int
	Column     *int
	Kind       ImportKind
	Confidence Confidence
}

// Location projects a RawImport's position into a SourceLocation.
func (r RawImport) Location() SourceLocation {
	return SourceLocation{File: r.SourceFile, Line: r.Line, Column: r.Column}
}

// ResolvedImport pairs a RawImport with its resolution outcome: either a
// canonical project-internal target path, or the classification that
// caused it to be dropped.
type ResolvedImport struct {
	Raw            RawImport
	CanonicalPath  string // non-empty iff Confidence == Resolved and resolution succeeded
	FailedToLink   bool   // Confidence == Resolved but no project file matched
}

// IsEdge reports whether this resolved import should contribute a graph edge.
func (r ResolvedImport) IsEdge() bool {
	return r.Raw.Confidence == Resolved && !r.FailedToLink && r.CanonicalPath != ""
}
