package parser

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"
)

// DefaultInclude matches Python sources anywhere in the tree.
var DefaultInclude = []string{"**/*.py"}

// DefaultIgnore skips VCS metadata, virtualenvs and build output.
var DefaultIgnore = []string{
	".git/**",
	"__pycache__/**",
	"**/__pycache__/**",
	"venv/**",
	".venv/**",
	"build/**",
	"dist/**",
	"node_modules/**",
	"**/node_modules/**",
	".tox/**",
	"*.egg-info/**",
}

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// FileDiscovery finds source files under a root directory.
type FileDiscovery struct {
	rootDir        string
	includes       []compiledPattern
	ignorePatterns []compiledPattern
	gitignore      *ignore.GitIgnore
}

// NewFileDiscovery compiles include and ignore globs. Empty include falls
// back to DefaultInclude. A .gitignore at the root is honoured when present.
func NewFileDiscovery(rootDir string, include, ignorePatterns []string) (*FileDiscovery, error) {
	if len(include) == 0 {
		include = DefaultInclude
	}

	fd := &FileDiscovery{rootDir: rootDir}

	var err error
	if fd.includes, err = compilePatterns(include); err != nil {
		return nil, err
	}
	if fd.ignorePatterns, err = compilePatterns(ignorePatterns); err != nil {
		return nil, err
	}

	if gi, err := ignore.CompileIgnoreFile(filepath.Join(rootDir, ".gitignore")); err == nil {
		fd.gitignore = gi
	}

	return fd, nil
}

func compilePatterns(patterns []string) ([]compiledPattern, error) {
	compiled := make([]compiledPattern, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, compiledPattern{pattern: pattern, glob: g})
	}
	return compiled, nil
}

// Discover returns matching files as sorted, root-relative, forward-slash
// paths. Symlinks are not followed.
func (fd *FileDiscovery) Discover() ([]string, error) {
	files := []string{}

	err := filepath.WalkDir(fd.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == fd.rootDir {
			return nil
		}

		relPath, err := filepath.Rel(fd.rootDir, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if fd.shouldIgnore(relPath, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&os.ModeSymlink != 0 || !d.Type().IsRegular() {
			return nil
		}

		if fd.shouldIgnore(relPath, false) {
			return nil
		}

		if matchesAnyPattern(relPath, fd.includes) {
			files = append(files, relPath)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", fd.rootDir, err)
	}

	sort.Strings(files)
	return files, nil
}

// Ignored reports whether relPath (slash-separated, relative to the root)
// is excluded by the ignore patterns or .gitignore.
func (fd *FileDiscovery) Ignored(relPath string, isDir bool) bool {
	return fd.shouldIgnore(relPath, isDir)
}

// shouldIgnore checks if a path matches any ignore pattern.
func (fd *FileDiscovery) shouldIgnore(relPath string, isDir bool) bool {
	// Always ignore the tool's own state directory
	if relPath == ".critic" || strings.HasPrefix(relPath, ".critic/") {
		return true
	}

	if fd.gitignore != nil {
		if fd.gitignore.MatchesPath(relPath) {
			return true
		}
		if isDir && fd.gitignore.MatchesPath(relPath+"/") {
			return true
		}
	}

	if matchesAnyPattern(relPath, fd.ignorePatterns) {
		return true
	}

	// "node_modules" should match pattern "node_modules/**"
	return matchesAnyPattern(relPath+"/**", fd.ignorePatterns)
}

// matchesAnyPattern checks if a path matches any of the given patterns.
func matchesAnyPattern(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
	}

	// "**/*.py" should match "setup.py" at the root as well.
	if !strings.Contains(path, "/") {
		for _, cp := range patterns {
			if !strings.HasPrefix(cp.pattern, "**/") {
				continue
			}
			if g, err := glob.Compile(strings.TrimPrefix(cp.pattern, "**/"), '/'); err == nil && g.Match(path) {
				return true
			}
		}
	}

	return false
}
