// Package walker performs the gitignore-aware directory scan that
// populates a project's FileTree.
package walker

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/codeindexd/codeindexd/internal/errs"
	"github.com/codeindexd/codeindexd/internal/lang"
	"github.com/codeindexd/codeindexd/internal/model"
)

// additionalIgnoreDirs are VCS/build junk excluded regardless of
// .gitignore content; at minimum this must cover .git itself.
var additionalIgnoreDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	".venv":        true,
	"venv":         true,
	"__pycache__":  true,
	".tox":         true,
	".mypy_cache":  true,
	".pytest_cache": true,
	"target":       true,
	"dist":         true,
	"build":        true,
	"vendor":       true,
	".idea":        true,
	".vscode":      true,
}

// Options configures a scan.
type Options struct {
	// MaxFileSize is the per-file byte budget; files over this size are
	// recorded with their size but produce no symbols (spec §3 FileEntry
	// invariant). 0 means use the package default (1 MiB, per spec §9's
	// resolution of the open question between 1_000_000 and 1_048_576).
	MaxFileSize int64
	// ExtraIgnore is an additional user-supplied ignore list, honored in
	// addition to the layered gitignore discipline (spec §4.2).
	ExtraIgnore []string
}

// DefaultMaxFileSize is the size (in bytes) at which a file is recorded
// but not parsed for symbols.
const DefaultMaxFileSize = 1 << 20 // 1 MiB

// Scan walks root, honoring .gitignore / .git/info/exclude / a global
// gitignore / ExtraIgnore, and returns one FileEntry per included regular
// file keyed by its forward-slash relative path.
func Scan(ctx context.Context, root string, opts Options) (map[string]*model.FileEntry, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, errs.Wrap(errs.BadArgument, "resolve root", err)
	}
	root, err = filepath.EvalSymlinks(root)
	if err != nil {
		return nil, errs.Wrap(errs.BadArgument, "resolve root symlinks", err)
	}

	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	rootPatterns := rootGitignorePatterns(root, opts.ExtraIgnore)

	out := make(map[string]*model.FileEntry)
	seenDirs := map[string]bool{}

	var walk func(dir string, relSegs []string, inherited []gitignore.Pattern) error
	walk = func(dir string, relSegs []string, inherited []gitignore.Pattern) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		// Guard against symlink cycles: resolve and dedupe real paths.
		real, err := filepath.EvalSymlinks(dir)
		if err != nil {
			return nil // unreadable/broken symlink: skip silently
		}
		if seenDirs[real] {
			return nil
		}
		seenDirs[real] = true

		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil
		}

		// Layer any .gitignore found in this directory on top of the
		// inherited matcher for this subtree (deeper patterns matched
		// last, so they take precedence per git's own discipline).
		localPatterns := readGitignoreFile(filepath.Join(dir, ".gitignore"), relSegs)
		patterns := inherited
		if len(localPatterns) > 0 {
			patterns = append(append([]gitignore.Pattern{}, inherited...), localPatterns...)
		}
		localMatcher := gitignore.NewMatcher(patterns)

		for _, e := range entries {
			if err := ctx.Err(); err != nil {
				return err
			}
			name := e.Name()
			segs := append(append([]string{}, relSegs...), name)

			if e.IsDir() {
				if name == ".git" || additionalIgnoreDirs[name] {
					continue
				}
				if localMatcher.Match(segs, true) {
					continue
				}
				if err := walk(filepath.Join(dir, name), segs, patterns); err != nil {
					return err
				}
				continue
			}

			if localMatcher.Match(segs, false) {
				continue
			}

			info, err := e.Info()
			if err != nil {
				continue // io error on a single file: skip, never abort the walk
			}
			if info.Mode()&os.ModeSymlink != 0 {
				target, err := filepath.EvalSymlinks(filepath.Join(dir, name))
				if err != nil || !strings.HasPrefix(target, root) {
					continue // broken or escapes the root: don't follow
				}
			}

			relPath := filepath.ToSlash(filepath.Join(relSegs...))
			if relPath == "." || relPath == "" {
				relPath = name
			} else {
				relPath = relPath + "/" + name
			}

			l, known := lang.ForExtensionTag(fileExt(name))
			entry := &model.FileEntry{
				RelPath:  relPath,
				Size:     info.Size(),
				Language: l,
			}
			if !known {
				entry.Language = lang.Unknown
			}
			if info.Size() > maxSize {
				entry.Oversize = true
			}
			out[relPath] = entry
		}
		return nil
	}

	if err := walk(root, nil, rootPatterns); err != nil {
		return nil, err
	}
	return out, nil
}

// DefaultIgnore builds a matcher from root's layered gitignore patterns
// (root .gitignore, .git/info/exclude, global gitignore, opts.ExtraIgnore,
// dotfile default) for callers that need a one-shot ignore predicate
// outside of Scan — namely the watcher, which decides whether to
// recurse into a newly created directory. Unlike Scan, it does not layer
// per-subdirectory .gitignore files: a subdirectory's own .gitignore
// only takes effect on the next full rescan.
func DefaultIgnore(root string, opts Options) (func(relPath string, isDir bool) bool, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, errs.Wrap(errs.BadArgument, "resolve root", err)
	}
	patterns := rootGitignorePatterns(root, opts.ExtraIgnore)
	matcher := gitignore.NewMatcher(patterns)
	return func(relPath string, isDir bool) bool {
		if relPath == "" {
			return false
		}
		name := filepath.Base(relPath)
		if name == ".git" || additionalIgnoreDirs[name] {
			return true
		}
		segs := strings.Split(relPath, "/")
		return matcher.Match(segs, isDir)
	}, nil
}

func fileExt(name string) string {
	ext := filepath.Ext(name)
	return strings.ToLower(ext)
}

// rootGitignorePatterns builds the dotfile default, then loads
// .git/info/exclude, a process-global gitignore (~/.config/git/ignore,
// git's default core.excludesFile location), the caller-supplied
// ExtraIgnore list, and finally the root .gitignore.
func rootGitignorePatterns(root string, extra []string) []gitignore.Pattern {
	// Dotfiles are excluded by default (spec §4.2); this is listed first
	// so a later, more specific pattern — including a literal "!name" in
	// an actual .gitignore — takes precedence over it.
	patterns := []gitignore.Pattern{gitignore.ParsePattern(".*", nil)}
	patterns = append(patterns, readGitignoreFile(filepath.Join(root, ".git", "info", "exclude"), nil)...)

	if home, err := os.UserHomeDir(); err == nil {
		patterns = append(patterns, readGitignoreFile(filepath.Join(home, ".config", "git", "ignore"), nil)...)
	}

	for _, p := range extra {
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(p, nil))
	}

	patterns = append(patterns, readGitignoreFile(filepath.Join(root, ".gitignore"), nil)...)
	return patterns
}

func readGitignoreFile(path string, domain []string) []gitignore.Pattern {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var patterns []gitignore.Pattern
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " ")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, domain))
	}
	return patterns
}
