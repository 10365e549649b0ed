// Package fileassoc decides which files on disk are Kconfig sources worth
// handing to the rest of the server: the root Kconfig, every file it (or a
// file it sources) might source via a glob, and arch/board variants that
// follow the kernel tree's Kconfig.<arch> naming convention.
package fileassoc

import (
	"context"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

// DefaultPatterns matches the file names a Linux kernel tree's Kconfig
// graph is built from: the bare entry point, per-arch/per-subsystem
// variants, and files carrying an explicit .kconfig extension.
var DefaultPatterns = []string{
	"Kconfig",
	"Kconfig.*",
	"*.kconfig",
}

// FileInfo is one located Kconfig source file and its content, read once up
// front so callers (bulk lint, workspace indexing) don't reopen it.
type FileInfo struct {
	Path    string
	Content []byte
}

// Finder locates Kconfig source files under a root directory.
type Finder interface {
	Find(ctx context.Context, root string, patterns []string) ([]FileInfo, error)
}

// DefaultFinder walks an afero.Fs (the OS filesystem in production, an
// in-memory one in tests) matching file names against patterns with
// doublestar, which — unlike filepath.Match — understands the `**` and
// brace-expansion syntax Kconfig's own `source` directive glob values use.
type DefaultFinder struct {
	FS afero.Fs
}

// NewDefaultFinder returns a DefaultFinder rooted at the real filesystem.
func NewDefaultFinder() *DefaultFinder {
	return &DefaultFinder{FS: afero.NewOsFs()}
}

// Find walks root, collecting every regular file whose base name matches
// one of patterns (DefaultPatterns if patterns is empty). Patterns are
// matched against the file's base name, not its full path, matching how
// Kconfig's own `source` directive resolves relative to each file's own
// directory rather than the workspace root.
func (f *DefaultFinder) Find(ctx context.Context, root string, patterns []string) ([]FileInfo, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}

	var out []FileInfo
	err := afero.Walk(f.FS, root, func(path string, info os.FileInfo, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		matched, err := matchesAny(info.Name(), patterns)
		if err != nil {
			return errors.Errorf("matching %q against patterns: %w", path, err)
		}
		if !matched {
			return nil
		}
		content, err := afero.ReadFile(f.FS, path)
		if err != nil {
			return errors.Errorf("reading %q: %w", path, err)
		}
		out = append(out, FileInfo{Path: path, Content: content})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func matchesAny(name string, patterns []string) (bool, error) {
	for _, p := range patterns {
		ok, err := doublestar.Match(p, name)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// ResolveSource resolves a Kconfig `source`/`source "..."` path expression
// relative to the sourcing file's directory, the convention every Kconfig
// implementation uses: a bare relative path is relative to the directory
// containing the file that names it, never the process's working
// directory or the tree root.
func ResolveSource(sourcingFile, sourcedPath string) string {
	if filepath.IsAbs(sourcedPath) {
		return sourcedPath
	}
	return filepath.Join(filepath.Dir(sourcingFile), sourcedPath)
}

// ExpandGlob expands a `source` path that itself contains glob metacharacters
// (kernel trees occasionally source "Kconfig.*" wildcards), relative to dir.
func ExpandGlob(dir, pattern string) ([]string, error) {
	full := filepath.Join(dir, pattern)
	matches, err := doublestar.FilepathGlob(full)
	if err != nil {
		return nil, errors.Errorf("expanding glob %q: %w", full, err)
	}
	return matches, nil
}
