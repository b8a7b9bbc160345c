package target

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolve_SingleFile(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "main.aivi")
	if err := os.WriteFile(f, []byte("module m\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := Resolve(f)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if r.Kind != File {
		t.Errorf("expected File kind, got %v", r.Kind)
	}
	if len(r.Files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(r.Files))
	}
}

func TestResolve_DirectoryGlob(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "pkg")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a.aivi", "pkg/b.aivi", "c.txt"} {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("module m\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	r, err := Resolve(dir + "/...")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if r.Kind != Directory {
		t.Errorf("expected Directory kind, got %v", r.Kind)
	}
	if len(r.Files) != 2 {
		t.Errorf("expected 2 .aivi files (c.txt excluded), got %d: %v", len(r.Files), r.Files)
	}
}

func TestResolve_Embedded(t *testing.T) {
	r, err := Resolve("<embedded:stdlib/list>")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if r.Kind != Embedded {
		t.Errorf("expected Embedded kind, got %v", r.Kind)
	}
	if !IsEmbedded(r.Files[0]) {
		t.Error("expected embedded path to be recognized by IsEmbedded")
	}
}

func TestResolve_NonExistent(t *testing.T) {
	if _, err := Resolve("/does/not/exist.aivi"); err == nil {
		t.Error("expected error for a nonexistent target")
	}
}

func TestResolve_DirectoryWithoutEllipsis(t *testing.T) {
	dir := t.TempDir()
	if _, err := Resolve(dir); err == nil {
		t.Error("expected error when a bare directory is passed without /...")
	}
}
