// Package analysis orchestrates a single end-to-end pass: discovery,
// bounded-parallel parsing, per-file resolution, graph assembly, and
// metrics computation. It is the shared core used by both a live
// working-tree analysis and each side of a revision diff.
package analysis

import (
	"context"
	"io"
	"log/slog"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"untangle/internal/config"
	"untangle/internal/depgraph"
	"untangle/internal/langfrontend"
	"untangle/internal/langfrontend/gofrontend"
	"untangle/internal/langfrontend/pyfrontend"
	"untangle/internal/langfrontend/rbfrontend"
	"untangle/internal/langfrontend/rsfrontend"
	"untangle/internal/metrics"
	"untangle/internal/parsecommon"
	"untangle/internal/uerrors"
)

// FileSource abstracts reading file bytes, so the same pipeline can run
// against a live working tree or a fixed VCS revision.
type FileSource interface {
	ReadFile(relPath string) ([]byte, error)
}

// Result is everything a single analysis pass produces.
type Result struct {
	Graph             *depgraph.Graph
	Summary           metrics.Summary
	FilesSkipped      int
	UnresolvedImports int
	Language          langfrontend.Language
}

// defaultConcurrency bounds the parse worker pool when concurrency is unset.
const defaultConcurrency = 8

// Run executes parsing-through-metrics for the given already-discovered
// file list (it does no discovery of its own), reading each file's bytes
// from src. A nil logger discards
// diagnostics; callers that want spec section 7's "warn and continue"
// behavior on stderr should pass one built from internal/obslog.
func Run(ctx context.Context, files []string, src FileSource, lang langfrontend.Language, rules config.ResolvedConfig, concurrency int, logger *slog.Logger) (*Result, error) {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	frontend, moduleContext, err := buildFrontend(lang, files, src, rules)
	if err != nil {
		return nil, err
	}

	type parsedFile struct {
		path    string
		raws    []parsecommon.RawImport
		skipped bool
	}

	results := make([]parsedFile, len(files))
	// Each worker leases a frontend of its own from the pool, so parser
	// state is never shared between goroutines.
	pool := make(chan langfrontend.Frontend, concurrency)
	pool <- frontend
	for i := 1; i < concurrency && i < len(files); i++ {
		fe, _, err := buildFrontend(lang, files, src, rules)
		if err != nil {
			return nil, err
		}
		pool <- fe
	}
	g, gctx := errgroup.WithContext(ctx)

	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			var fe langfrontend.Frontend
			select {
			case fe = <-pool:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { pool <- fe }()

			content, readErr := src.ReadFile(f)
			if readErr != nil {
				logger.Warn("skipping file: read failed", "path", f, "error", readErr)
				results[i] = parsedFile{path: f, skipped: true}
				return nil
			}
			raws := fe.ExtractImports(content, f)
			results[i] = parsedFile{path: f, raws: raws}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	builder := depgraph.NewBuilder()
	for _, f := range files {
		builder.AddFile(canonicalNodePath(lang, f), displayName(lang, f), lang)
	}

	filesSkipped := 0
	unresolvedImports := 0

	for _, pf := range results {
		if pf.skipped {
			filesSkipped++
			continue
		}
		for _, raw := range pf.raws {
			resolved := resolveOne(frontend, raw, moduleContext, files)
			if resolved.IsEdge() {
				builder.AddResolvedImport(canonicalNodePath(lang, pf.path), resolved)
			} else if raw.Confidence == parsecommon.Resolved && resolved.FailedToLink {
				unresolvedImports++
				logger.Debug("import did not resolve to a project-internal node",
					"path", pf.path, "raw", raw.RawPath)
			}
		}
	}

	graph := builder.Build()
	summary := metrics.FromGraph(graph)

	logger.Info("analysis complete",
		"language", lang,
		"nodes", summary.NodeCount,
		"edges", summary.EdgeCount,
		"files_skipped", filesSkipped,
		"unresolved_imports", unresolvedImports)

	return &Result{
		Graph:             graph,
		Summary:           summary,
		FilesSkipped:      filesSkipped,
		UnresolvedImports: unresolvedImports,
		Language:          lang,
	}, nil
}

func resolveOne(frontend langfrontend.Frontend, raw parsecommon.RawImport, projectRoot string, files []string) parsecommon.ResolvedImport {
	if raw.Confidence != parsecommon.Resolved {
		return parsecommon.ResolvedImport{Raw: raw}
	}
	canonical, ok := frontend.Resolve(raw, projectRoot, files)
	if !ok {
		return parsecommon.ResolvedImport{Raw: raw, FailedToLink: true}
	}
	return parsecommon.ResolvedImport{Raw: raw, CanonicalPath: canonical}
}

func displayName(lang langfrontend.Language, filePath string) string {
	trimmed := strings.TrimSuffix(filePath, path.Ext(filePath))
	switch lang {
	case langfrontend.Go:
		return path.Dir(filePath)
	default:
		return strings.ReplaceAll(trimmed, "/", ".")
	}
}

// canonicalNodePath returns the graph identity for a source file (spec.md
// section 3: file for Python/Ruby/Rust, directory for Go packages, since a
// Go package's import graph is keyed on its directory regardless of how
// many files it's split across).
func canonicalNodePath(lang langfrontend.Language, filePath string) string {
	if lang == langfrontend.Go {
		return path.Dir(filePath)
	}
	return filePath
}

// buildFrontend constructs the per-language frontend. For Go it reads the
// root go.mod and also lets each file resolve against its nearest go.mod;
// for Rust it reads only the root Cargo.toml, so a crate in a nested
// Cargo.toml is resolved with the root crate's name. It returns the "module context" string each frontend's Resolve treats as
// project root (always "." here — file paths passed in are already
// project-relative).
func buildFrontend(lang langfrontend.Language, files []string, src FileSource, rules config.ResolvedConfig) (langfrontend.Frontend, string, error) {
	switch lang {
	case langfrontend.Go:
		modulePath := ""
		if content, err := src.ReadFile("go.mod"); err == nil {
			if mp, ok := gofrontend.ParseGoModModule(string(content)); ok {
				modulePath = mp
			}
		}
		// src also serves as the ManifestSource: nested modules under a
		// monorepo root resolve against their own go.mod (spec.md
		// section 4.1), not the root one read above.
		fe := gofrontend.NewWithManifests(modulePath, src)
		fe.ExcludeStdlib = rules.Go.ExcludeStdlib
		return fe, ".", nil

	case langfrontend.Python:
		fe := pyfrontend.New()
		fe.ResolveRelative = rules.Python.ResolveRelative
		return fe, ".", nil

	case langfrontend.Ruby:
		fe := rbfrontend.New(rules.Ruby.LoadPath)
		fe.Zeitwerk = rules.Ruby.Zeitwerk
		return fe, ".", nil

	case langfrontend.Rust:
		crateName := ""
		if content, err := src.ReadFile("Cargo.toml"); err == nil {
			if name, ok := rsfrontend.ParseCrateName(string(content)); ok {
				crateName = name
			}
		}
		fe := rsfrontend.WithCrateName(crateName)
		return fe, ".", nil

	default:
		return nil, "", uerrors.New(uerrors.UnsupportedLanguage, "unsupported language: "+string(lang), nil)
	}
}
