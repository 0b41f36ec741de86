package extract

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type mockRunner struct {
	output []byte
	err    error

	gotName string
	gotArgs []string
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.gotName = name
	m.gotArgs = args
	return m.output, m.err
}

func TestText_PlainFormats(t *testing.T) {
	dir := t.TempDir()
	reg := NewRegistry(nil)

	for _, name := range []string{"notes.md", "notes.markdown", "notes.txt"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("hello world"), 0644); err != nil {
			t.Fatal(err)
		}
		got, err := reg.Text(context.Background(), path)
		if err != nil {
			t.Fatalf("Text(%s) failed: %v", name, err)
		}
		if got != "hello world" {
			t.Errorf("Text(%s) = %q, want %q", name, got, "hello world")
		}
	}
}

func TestText_UnsupportedExtension(t *testing.T) {
	reg := NewRegistry(nil)
	if _, err := reg.Text(context.Background(), "image.png"); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestText_PDF(t *testing.T) {
	runner := &mockRunner{output: []byte("extracted pdf text")}
	reg := NewRegistry(runner)

	got, err := reg.Text(context.Background(), "/docs/report.pdf")
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	if got != "extracted pdf text" {
		t.Errorf("unexpected text: %q", got)
	}
	if runner.gotName != "pdftotext" {
		t.Errorf("expected pdftotext, ran %q", runner.gotName)
	}
	want := []string{"-layout", "/docs/report.pdf", "-"}
	if len(runner.gotArgs) != len(want) {
		t.Fatalf("unexpected args: %v", runner.gotArgs)
	}
	for i, a := range want {
		if runner.gotArgs[i] != a {
			t.Errorf("arg %d = %q, want %q", i, runner.gotArgs[i], a)
		}
	}
}

func TestText_PDFCommandFailure(t *testing.T) {
	runner := &mockRunner{err: errors.New("exit status 1")}
	reg := NewRegistry(runner)

	if _, err := reg.Text(context.Background(), "/docs/broken.pdf"); err == nil {
		t.Fatal("expected error when pdftotext fails")
	}
}

func writeDocx(t *testing.T, path, documentXML string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestText_DOCX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.docx")
	writeDocx(t, path, `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph, </w:t></w:r><w:r><w:t>second run.</w:t></w:r></w:p>
    <w:p><w:r><w:t>   </w:t></w:r></w:p>
    <w:p><w:r><w:t>Second paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`)

	reg := NewRegistry(nil)
	got, err := reg.Text(context.Background(), path)
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	want := "First paragraph, second run.\nSecond paragraph."
	if got != want {
		t.Errorf("Text = %q, want %q", got, want)
	}
}

func TestText_DOCXMissingDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	reg := NewRegistry(nil)
	if _, err := reg.Text(context.Background(), path); err == nil {
		t.Fatal("expected error for docx without word/document.xml")
	}
}

func TestSupported(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"a.md", true},
		{"a.MD", true},
		{"a.markdown", true},
		{"a.txt", true},
		{"a.pdf", true},
		{"a.docx", true},
		{"a.go", false},
		{"a", false},
	}
	for _, tt := range tests {
		if got := Supported(tt.path); got != tt.want {
			t.Errorf("Supported(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
