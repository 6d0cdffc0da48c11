// Package discover finds analyzable source files under a root directory.
package discover

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/jward/sqlsift/internal/parse"
)

// Options controls discovery.
type Options struct {
	// Exclude holds glob patterns matched against root-relative,
	// slash-separated paths. "*" stays within one path segment, "**"
	// crosses segments.
	Exclude []string
	// NoGit disables git ls-files even when root is a work tree.
	NoGit bool
}

var skipDirs = map[string]struct{}{
	"bin":          {},
	"obj":          {},
	"node_modules": {},
	"packages":     {},
}

// CompileGlobs compiles exclude patterns with '/' as the separator.
func CompileGlobs(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(filepath.ToSlash(p), '/')
		if err != nil {
			return nil, fmt.Errorf("discover: invalid exclude pattern %q: %w", p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// Files returns the sorted absolute paths of supported source files under
// root. Inside a git work tree the listing comes from git ls-files, which
// honors every ignore source git knows. Otherwise the tree is walked,
// skipping hidden directories and build output, and root's .gitignore is
// applied.
func Files(root string, opts Options) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("discover: %s is not a directory", root)
	}

	excludes, err := CompileGlobs(opts.Exclude)
	if err != nil {
		return nil, err
	}

	var rels []string
	if !opts.NoGit {
		rels = gitLsFiles(abs)
	}
	if rels == nil {
		rels, err = walk(abs)
		if err != nil {
			return nil, err
		}
	}

	var paths []string
	for _, rel := range rels {
		if _, ok := parse.LanguageForFile(rel); !ok {
			continue
		}
		if excluded(excludes, rel) {
			continue
		}
		paths = append(paths, filepath.Join(abs, filepath.FromSlash(rel)))
	}
	sort.Strings(paths)
	return paths, nil
}

func excluded(globs []glob.Glob, rel string) bool {
	for _, g := range globs {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// walk lists files relative to root as slash paths.
func walk(root string) ([]string, error) {
	gi := loadGitignore(root)
	var rels []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		rels = append(rels, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover: walk directory: %w", err)
	}
	return rels, nil
}

// gitLsFiles returns nil when root is not the top of a git work tree or git
// is unavailable.
func gitLsFiles(root string) []string {
	info, err := os.Stat(filepath.Join(root, ".git"))
	if err != nil || !info.IsDir() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// --cached: tracked files, --others: untracked files,
	// --exclude-standard: respect .gitignore, .git/info/exclude, global excludes.
	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	files := []string{}
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			files = append(files, line)
		}
	}
	return files
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
