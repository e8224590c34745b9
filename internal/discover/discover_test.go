package discover

import (
	"os"
	"path/filepath"
	"testing"

	"untangle/internal/langfrontend"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFilesFindsMatchingExtensionsSorted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.py", "")
	writeFile(t, root, "a.py", "")
	writeFile(t, root, "notes.txt", "")

	files, err := Files(root, langfrontend.Python, Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a.py", "b.py"}
	if len(files) != len(want) {
		t.Fatalf("got %v, want %v", files, want)
	}
	for i, f := range files {
		if f != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, f, want[i])
		}
	}
}

func TestFilesExcludesDefaultGoTestFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "")
	writeFile(t, root, "main_test.go", "")

	files, err := Files(root, langfrontend.Go, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0] != "main.go" {
		t.Errorf("got %v, want [main.go]", files)
	}
}

func TestFilesIncludeTestsKeepsTestFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "")
	writeFile(t, root, "main_test.go", "")

	files, err := Files(root, langfrontend.Go, Options{IncludeTests: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Errorf("got %v, want both files with IncludeTests", files)
	}
}

func TestFilesSkipsHiddenVCSDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "")
	writeFile(t, root, ".git/objects/x.py", "")

	files, err := Files(root, langfrontend.Python, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0] != "a.py" {
		t.Errorf("got %v, want [a.py] (.git contents skipped)", files)
	}
}

func TestFilesRespectsExcludeGlob(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/a.py", "")
	writeFile(t, root, "vendor/b.py", "")

	files, err := Files(root, langfrontend.Python, Options{Exclude: []string{"vendor/**"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0] != "src/a.py" {
		t.Errorf("got %v, want [src/a.py]", files)
	}
}

func TestFilesRespectsIncludeGlob(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/a.py", "")
	writeFile(t, root, "tools/b.py", "")

	files, err := Files(root, langfrontend.Python, Options{Include: []string{"src/**"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0] != "src/a.py" {
		t.Errorf("got %v, want [src/a.py]", files)
	}
}

func TestFilesRespectsGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "")
	writeFile(t, root, "build/b.py", "")
	writeFile(t, root, ".gitignore", "build/\n")

	files, err := Files(root, langfrontend.Python, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0] != "a.py" {
		t.Errorf("got %v, want [a.py] (build/ ignored)", files)
	}
}

func TestDetectLanguagePicksMostCommonExtension(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "")
	writeFile(t, root, "b.py", "")
	writeFile(t, root, "c.rb", "")

	lang, ok := DetectLanguage(root)
	if !ok || lang != langfrontend.Python {
		t.Errorf("DetectLanguage() = (%s, %v), want (python, true)", lang, ok)
	}
}

func TestDetectLanguageNoSourceFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "README.md", "")

	if _, ok := DetectLanguage(root); ok {
		t.Error("expected DetectLanguage to report false with no recognized source files")
	}
}

func TestDetectLanguagesSortedByCountThenName(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.rb", "")
	writeFile(t, root, "b.go", "")
	writeFile(t, root, "c.go", "")

	langs := DetectLanguages(root)
	if len(langs) != 2 || langs[0] != langfrontend.Go || langs[1] != langfrontend.Ruby {
		t.Errorf("DetectLanguages() = %v, want [go ruby]", langs)
	}
}
