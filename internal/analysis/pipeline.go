package analysis

import (
	"context"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"untangle/internal/config"
	"untangle/internal/diffengine"
	"untangle/internal/discover"
	"untangle/internal/langfrontend"
	"untangle/internal/revreader"
)

// workingTreeSource reads files relative to a directory on disk.
type workingTreeSource struct {
	root string
}

func (s workingTreeSource) ReadFile(relPath string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.root, relPath))
}

// revisionSource reads files as they existed at a fixed VCS revision.
type revisionSource struct {
	ctx      context.Context
	reader   revreader.Reader
	revision string
}

func (s revisionSource) ReadFile(relPath string) ([]byte, error) {
	return s.reader.ReadFileAt(s.ctx, s.revision, relPath)
}

// AnalyzeTree runs discovery and a full analysis pass against a live
// working-tree directory. A nil logger discards diagnostics.
func AnalyzeTree(ctx context.Context, root string, lang langfrontend.Language, cfg *config.ResolvedConfig, logger *slog.Logger) (*Result, error) {
	files, err := discover.Files(root, lang, discover.Options{
		Include:      cfg.Include,
		Exclude:      cfg.Exclude,
		IncludeTests: cfg.IncludeTests,
	})
	if err != nil {
		return nil, err
	}
	return Run(ctx, files, workingTreeSource{root: root}, lang, *cfg, 0, logger)
}

// AnalyzeRevision runs a full analysis pass against a fixed VCS revision,
// filtering the revision's tracked files the same way discover.Files
// would filter a working tree (extension, include/exclude, default test
// excludes) since a bare git listing cannot walk a working directory.
func AnalyzeRevision(ctx context.Context, reader revreader.Reader, revision string, lang langfrontend.Language, cfg *config.ResolvedConfig, logger *slog.Logger) (*Result, error) {
	all, err := reader.ListFilesAt(ctx, revision)
	if err != nil {
		return nil, err
	}

	files := filterRevisionFiles(all, lang, cfg)
	src := revisionSource{ctx: ctx, reader: reader, revision: revision}
	return Run(ctx, files, src, lang, *cfg, 0, logger)
}

func filterRevisionFiles(all []string, lang langfrontend.Language, cfg *config.ResolvedConfig) []string {
	extensions := lang.Extensions()
	extSet := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		extSet[e] = true
	}

	excludePatterns := append([]string{}, cfg.Exclude...)
	if !cfg.IncludeTests {
		excludePatterns = append(excludePatterns, lang.DefaultTestExcludes()...)
	}

	var files []string
	for _, f := range all {
		ext := strings.TrimPrefix(path.Ext(f), ".")
		if !extSet[ext] {
			continue
		}
		if matchesAny(excludePatterns, f) {
			continue
		}
		if len(cfg.Include) > 0 && !matchesAny(cfg.Include, f) {
			continue
		}
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

func matchesAny(patterns []string, relPath string) bool {
	base := path.Base(relPath)
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// DiffOutcome pairs the computed structural diff with the two underlying
// graphs, so callers needing the raw graphs (e.g. `graph` rendering of
// either side) don't have to re-run analysis.
type DiffOutcome struct {
	Base   *Result
	Head   *Result
	Result diffengine.DiffResult
}

// DiffRevisions runs an analysis at baseRef and at headRef, computes the
// structural diff between them, and evaluates the configured fail-on
// conditions against it.
func DiffRevisions(ctx context.Context, reader revreader.Reader, baseRef, headRef string, lang langfrontend.Language, cfg *config.ResolvedConfig, logger *slog.Logger) (*DiffOutcome, error) {
	start := time.Now()

	baseResult, err := AnalyzeRevision(ctx, reader, baseRef, lang, cfg, logger)
	if err != nil {
		return nil, err
	}
	headResult, err := AnalyzeRevision(ctx, reader, headRef, lang, cfg, logger)
	if err != nil {
		return nil, err
	}

	diff := diffengine.Compute(baseResult.Graph, headResult.Graph, baseRef, headRef)
	diff.ElapsedMS = time.Since(start).Milliseconds()
	diff = diffengine.EvaluatePolicy(diff, cfg.FailOn, headResult.Graph)

	total := headResult.Graph.NodeCount()
	if elapsedSeconds := time.Since(start).Seconds(); elapsedSeconds > 0 {
		diff.ModulesPerSecond = round2ModulesPerSecond(float64(total) / elapsedSeconds)
	}

	return &DiffOutcome{Base: baseResult, Head: headResult, Result: diff}, nil
}

func round2ModulesPerSecond(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
