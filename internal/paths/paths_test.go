package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCanonicalizePathMakesRelativeAndForwardSlash(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "pkg", "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	f := filepath.Join(root, "pkg", "sub", "mod.py")
	if err := os.WriteFile(f, []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := CanonicalizePath(f, root)
	if err != nil {
		t.Fatal(err)
	}
	if got != "pkg/sub/mod.py" {
		t.Errorf("CanonicalizePath() = %q, want %q", got, "pkg/sub/mod.py")
	}
}

func TestCanonicalizePathToleratesNonexistentFile(t *testing.T) {
	root := t.TempDir()
	f := filepath.Join(root, "notyet.py")

	got, err := CanonicalizePath(f, root)
	if err != nil {
		t.Fatal(err)
	}
	if got != "notyet.py" {
		t.Errorf("CanonicalizePath() = %q, want %q", got, "notyet.py")
	}
}

func TestIsWithinRepoRejectsEscapingPath(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(filepath.Dir(root), "elsewhere.py")

	if IsWithinRepo(outside, root) {
		t.Error("expected a path outside root to be rejected")
	}
	if !IsWithinRepo(filepath.Join(root, "inside.py"), root) {
		t.Error("expected a path inside root to be accepted")
	}
}

func TestNormalizePathIsIdempotentOnForwardSlashes(t *testing.T) {
	if got := NormalizePath("pkg/sub/mod.py"); got != "pkg/sub/mod.py" {
		t.Errorf("NormalizePath() = %q, want pkg/sub/mod.py", got)
	}
}

func TestJoinRepoPath(t *testing.T) {
	got := JoinRepoPath("/repo", "pkg/sub/mod.py")
	want := filepath.Join("/repo", "pkg", "sub", "mod.py")
	if got != want {
		t.Errorf("JoinRepoPath() = %q, want %q", got, want)
	}
}
