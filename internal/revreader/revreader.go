// Package revreader reads project files as they existed at a specific
// VCS revision, shelling out to the git CLI the way the rest of this
// codebase talks to git.
package revreader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"untangle/internal/uerrors"
)

// Reader reads file contents and listings at a fixed revision.
type Reader interface {
	ListFilesAt(ctx context.Context, revision string) ([]string, error)
	ReadFileAt(ctx context.Context, revision, path string) ([]byte, error)
}

// GitReader reads a revision of a git working tree via the git CLI.
// Per spec.md section 5, reads against one revision are single-threaded;
// callers must not issue concurrent calls against the same GitReader.
type GitReader struct {
	repoRoot     string
	queryTimeout time.Duration
	logger       *slog.Logger
}

// NewGitReader validates that repoRoot is a readable git repository and
// returns a reader scoped to it. A nil logger discards diagnostics.
func NewGitReader(repoRoot string, logger *slog.Logger) (*GitReader, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := &GitReader{repoRoot: repoRoot, queryTimeout: 30 * time.Second, logger: logger}

	ctx, cancel := context.WithTimeout(context.Background(), r.queryTimeout)
	defer cancel()

	if _, err := r.run(ctx, "rev-parse", "--is-inside-work-tree"); err != nil {
		return nil, uerrors.New(
			uerrors.UnreadableRepository,
			fmt.Sprintf("%s is not a readable git repository", repoRoot),
			err,
			uerrors.FixAction{Type: uerrors.RunCommand, Command: "git status"},
			uerrors.FixAction{Type: uerrors.RunCommand, Command: "git init"},
		)
	}
	return r, nil
}

// ListFilesAt lists every file tracked at revision. It applies no
// extension or glob filtering; every tracked path is returned.
func (r *GitReader) ListFilesAt(ctx context.Context, revision string) ([]string, error) {
	out, err := r.run(ctx, "ls-tree", "-r", "--name-only", revision)
	if err != nil {
		return nil, uerrors.New(
			uerrors.InvalidRevision,
			fmt.Sprintf("cannot list files at revision %q", revision),
			err,
			uerrors.FixAction{Type: uerrors.RunCommand, Command: "git rev-parse " + revision},
		)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	var files []string
	for _, l := range lines {
		if l != "" {
			files = append(files, l)
		}
	}
	return files, nil
}

// ReadFileAt returns the content of path as it existed at revision.
// A path absent from the tree at revision is reported with an error the
// caller is expected to treat as "file not present", not as a fatal
// failure (spec.md section 4.5); the revision itself being invalid is
// the only fatal case here.
func (r *GitReader) ReadFileAt(ctx context.Context, revision, path string) ([]byte, error) {
	out, err := r.runBytes(ctx, "show", revision+":"+path)
	if err != nil {
		if strings.Contains(err.Error(), "does not exist") || strings.Contains(err.Error(), "exists on disk, but not") {
			r.logger.Warn("path not present at revision", "path", path, "revision", revision)
			return nil, fmt.Errorf("%s not present at revision %q: %w", path, revision, err)
		}
		return nil, uerrors.New(
			uerrors.InvalidRevision,
			fmt.Sprintf("cannot read %s at revision %q", path, revision),
			err,
		)
	}
	return out, nil
}

func (r *GitReader) run(ctx context.Context, args ...string) (string, error) {
	out, err := r.runBytes(ctx, args...)
	return string(out), err
}

func (r *GitReader) runBytes(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	r.logger.Debug("git command", "args", args)

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.repoRoot

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("git %s timed out after %s", strings.Join(args, " "), r.queryTimeout)
		}
		return nil, fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
