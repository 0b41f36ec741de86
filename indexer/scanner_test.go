package indexer

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestScanner_SupportedExtensionsOnly(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "x")
	writeFile(t, root, "b.txt", "x")
	writeFile(t, root, "c.go", "x")
	writeFile(t, root, "docs/d.pdf", "x")

	scanner := NewScanner(root, nil)
	paths, err := scanner.Scan()
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(paths) != 3 {
		t.Fatalf("expected 3 paths, got %v", paths)
	}
	for _, p := range paths {
		if p == "c.go" {
			t.Error("unsupported extension should be excluded")
		}
	}
}

func TestScanner_IgnorePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep.md", "x")
	writeFile(t, root, "drafts/skip.md", "x")
	writeFile(t, root, "node_modules/dep.md", "x")

	writeFile(t, root, ".docdexignore", "drafts/\n")

	ignorer, err := NewIgnoreMatcher(root, ".docdexignore", []string{"node_modules"})
	if err != nil {
		t.Fatalf("NewIgnoreMatcher failed: %v", err)
	}

	paths, err := NewScanner(root, ignorer).Scan()
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(paths) != 1 || paths[0] != "keep.md" {
		t.Errorf("expected only keep.md, got %v", paths)
	}
}

func TestScanner_RelativePathsUseSlashes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "sub/dir/doc.md", "x")

	paths, err := NewScanner(root, nil).Scan()
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(paths) != 1 || paths[0] != "sub/dir/doc.md" {
		t.Errorf("expected sub/dir/doc.md, got %v", paths)
	}
}

func TestIgnoreMatcher_MissingFileIsFine(t *testing.T) {
	root := t.TempDir()
	m, err := NewIgnoreMatcher(root, ".docdexignore", nil)
	if err != nil {
		t.Fatalf("NewIgnoreMatcher failed: %v", err)
	}
	if m.ShouldIgnore("anything.md") {
		t.Error("nothing should be ignored without patterns")
	}
}
