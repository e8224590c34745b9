package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// LoadUntangleIgnore walks upward from startDir looking for the nearest
// .untangleignore file and returns its non-blank, non-comment lines as
// glob patterns. Returns nil if none is found.
func LoadUntangleIgnore(startDir string) []string {
	path, ok := IgnoreFilePath(startDir)
	if !ok {
		return nil
	}
	patterns, _ := parseIgnoreFile(path)
	return patterns
}

// IgnoreFilePath walks upward from startDir and returns the path of the
// nearest .untangleignore file, for callers (the config resolver's
// provenance tracking) that need to know where the patterns came from.
func IgnoreFilePath(startDir string) (string, bool) {
	dir := startDir
	for {
		candidate := filepath.Join(dir, ".untangleignore")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func parseIgnoreFile(path string) ([]string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, true
}
