package indexer

import (
	"fmt"
	"os"
	"path/filepath"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/yoanbernabeu/docdex/extract"
)

// IgnoreMatcher combines patterns from a .docdexignore file at the corpus
// root with the config-level ignore list. Both use gitignore syntax.
type IgnoreMatcher struct {
	matcher      *ignore.GitIgnore // patterns from .docdexignore
	extraMatcher *ignore.GitIgnore // patterns from config
	extraDirs    []string
}

// NewIgnoreMatcher loads root/.docdexignore if present and compiles the
// extra patterns from config. A missing ignore file is not an error.
func NewIgnoreMatcher(root, ignoreFileName string, extraIgnore []string) (*IgnoreMatcher, error) {
	m := &IgnoreMatcher{extraDirs: extraIgnore}

	ignorePath := filepath.Join(root, ignoreFileName)
	if _, err := os.Stat(ignorePath); err == nil {
		gi, err := ignore.CompileIgnoreFile(ignorePath)
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s: %w", ignorePath, err)
		}
		m.matcher = gi
	}

	if len(extraIgnore) > 0 {
		m.extraMatcher = ignore.CompileIgnoreLines(extraIgnore...)
	}

	return m, nil
}

func (m *IgnoreMatcher) ShouldIgnore(relPath string) bool {
	normalized := filepath.ToSlash(relPath)

	base := filepath.Base(normalized)
	for _, dir := range m.extraDirs {
		if base == dir {
			return true
		}
	}

	if m.matcher != nil && (m.matcher.MatchesPath(normalized) || m.matcher.MatchesPath(normalized+"/")) {
		return true
	}
	if m.extraMatcher != nil && (m.extraMatcher.MatchesPath(normalized) || m.extraMatcher.MatchesPath(normalized+"/")) {
		return true
	}
	return false
}

// Scanner walks a corpus root and returns the relative paths of all
// supported, non-ignored document files.
type Scanner struct {
	root    string
	ignorer *IgnoreMatcher
}

func NewScanner(root string, ignorer *IgnoreMatcher) *Scanner {
	return &Scanner{root: root, ignorer: ignorer}
}

// Scan returns supported file paths relative to the root, in walk order.
func (s *Scanner) Scan() ([]string, error) {
	var paths []string

	err := filepath.Walk(s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip inaccessible paths
		}

		relPath, err := filepath.Rel(s.root, path)
		if err != nil || relPath == "." {
			return nil
		}

		if info.IsDir() {
			if s.ignorer != nil && s.ignorer.ShouldIgnore(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if !extract.Supported(path) {
			return nil
		}
		if s.ignorer != nil && s.ignorer.ShouldIgnore(relPath) {
			return nil
		}

		paths = append(paths, filepath.ToSlash(relPath))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", s.root, err)
	}

	return paths, nil
}
