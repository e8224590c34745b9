// Package discover walks a project tree to find source files for a
// language, applying gitignore-style excludes, include/exclude glob
// overrides, and default test-file exclusion.
package discover

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"untangle/internal/langfrontend"
	"untangle/internal/paths"
)

// Options configures a discovery run.
type Options struct {
	Include      []string
	Exclude      []string
	IncludeTests bool
}

// Files discovers source files for lang under root, returning
// root-relative, forward-slash paths in sorted order.
func Files(root string, lang langfrontend.Language, opts Options) ([]string, error) {
	extensions := lang.Extensions()
	extSet := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		extSet[e] = true
	}

	excludePatterns := append([]string{}, opts.Exclude...)
	if !opts.IncludeTests {
		excludePatterns = append(excludePatterns, lang.DefaultTestExcludes()...)
	}

	ignorePatterns := loadGitignore(root)

	var files []string
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return nil
		}
		rel = paths.NormalizePath(rel)
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			if isHiddenVCSDir(d.Name()) {
				return filepath.SkipDir
			}
			if matchesAny(ignorePatterns, rel, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		ext := strings.TrimPrefix(path.Ext(rel), ".")
		if !extSet[ext] {
			return nil
		}
		if matchesAny(ignorePatterns, rel, d.Name()) {
			return nil
		}
		if matchesAny(excludePatterns, rel, d.Name()) {
			return nil
		}
		if len(opts.Include) > 0 && !matchesAny(opts.Include, rel, d.Name()) {
			return nil
		}

		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

func matchesAny(patterns []string, relPath, fileName string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, fileName); ok {
			return true
		}
	}
	return false
}

func isHiddenVCSDir(name string) bool {
	return name == ".git" || name == ".hg" || name == ".svn"
}

// loadGitignore reads .gitignore at root, if present, into glob patterns.
// This is a pragmatic subset of gitignore syntax (blank/comment lines
// skipped, leading `/` anchors dropped, trailing `/` dropped) sufficient
// for the common exclude cases; it is not a full gitignore implementation.
func loadGitignore(root string) []string {
	f, err := os.Open(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		line = strings.TrimPrefix(line, "/")
		line = strings.TrimSuffix(line, "/")
		if !strings.Contains(line, "/") {
			line = "**/" + line
		}
		if !strings.HasSuffix(line, "**") {
			line = line + "/**"
			patterns = append(patterns, strings.TrimSuffix(line, "/**"))
		}
		patterns = append(patterns, line)
	}
	return patterns
}

// DetectLanguage counts files by extension under root and returns the
// language with the most matches, or false if none are found.
func DetectLanguage(root string) (langfrontend.Language, bool) {
	langs := DetectLanguages(root)
	if len(langs) == 0 {
		return "", false
	}
	return langs[0], true
}

// DetectLanguages returns every language present under root, sorted by
// file count descending.
func DetectLanguages(root string) []langfrontend.Language {
	counts := map[langfrontend.Language]int{}
	extToLang := map[string]langfrontend.Language{
		"py": langfrontend.Python,
		"rb": langfrontend.Ruby,
		"go": langfrontend.Go,
		"rs": langfrontend.Rust,
	}

	_ = filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if isHiddenVCSDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.TrimPrefix(path.Ext(p), ".")
		if lang, ok := extToLang[ext]; ok {
			counts[lang]++
		}
		return nil
	})

	var langs []langfrontend.Language
	for l := range counts {
		langs = append(langs, l)
	}
	sort.Slice(langs, func(i, j int) bool {
		if counts[langs[i]] != counts[langs[j]] {
			return counts[langs[i]] > counts[langs[j]]
		}
		return langs[i] < langs[j]
	})
	return langs
}
