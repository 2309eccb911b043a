package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func tempRoot(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempRoot(t)
	content := []byte("package demo\n")
	n, err := s.Write("doc.go", content)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != len(content) {
		t.Errorf("bytes written = %d, want %d", n, len(content))
	}
	got, err := s.Read("doc.go")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempRoot(t)
	if _, err := s.Write("a/b/c.go", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("a/b/c.go")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestWriteRootRejected(t *testing.T) {
	s := tempRoot(t)
	if _, err := s.Write("", []byte("x")); err == nil {
		t.Error("expected error writing to root itself")
	}
}

func TestDelete(t *testing.T) {
	s := tempRoot(t)
	_, _ = s.Write("del.md", []byte("bye"))
	if err := s.Delete("del.md"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("del.md"); err == nil {
		t.Error("expected error reading deleted file")
	}
}

func TestEmpty(t *testing.T) {
	s := tempRoot(t)
	empty, err := s.Empty()
	if err != nil {
		t.Fatalf("Empty: %v", err)
	}
	if !empty {
		t.Error("fresh root should be empty")
	}

	if err := os.Mkdir(filepath.Join(s.Root(), ".hidden"), 0o755); err != nil {
		t.Fatal(err)
	}
	empty, err = s.Empty()
	if err != nil {
		t.Fatalf("Empty: %v", err)
	}
	if empty {
		t.Error("root with a hidden dir should not be empty")
	}
}

func TestEnsureFS_CreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "x", "y")
	s, err := EnsureFS(root)
	if err != nil {
		t.Fatalf("EnsureFS: %v", err)
	}
	if info, err := os.Stat(s.Root()); err != nil || !info.IsDir() {
		t.Fatalf("root not created: %v", err)
	}
}

func TestList(t *testing.T) {
	s := tempRoot(t)
	_, _ = s.Write("a.md", []byte("a"))
	_, _ = s.Write("sub/b.go", []byte("b"))
	_, _ = s.Write("readme.txt", []byte("txt"))

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("len = %d, want 3", len(items))
	}

	items, err = s.List("sub")
	if err != nil {
		t.Fatalf("List sub: %v", err)
	}
	if len(items) != 1 || items[0].Path != "sub/b.go" || items[0].Size != 1 {
		t.Errorf("items = %+v", items)
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempRoot(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if _, err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
		if _, err := s.Abs(p); err == nil {
			t.Errorf("expected error resolving %q", p)
		}
	}
}

func TestAtomicWriteNoLeftovers(t *testing.T) {
	s := tempRoot(t)
	_, _ = s.Write("atomic.md", []byte("original content"))

	updated := []byte("updated content")
	if _, err := s.Write("atomic.md", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.md")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.root, tmpPattern))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "umwelt-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}

func TestLedger(t *testing.T) {
	l := NewLedger()
	l.Record("/a", 3)
	l.Record("/b", 5)
	l.Record("/a", 4)

	if l.Len() != 2 {
		t.Fatalf("Len = %d, want 2", l.Len())
	}
	if got := l.Paths(); got[0] != "/a" || got[1] != "/b" {
		t.Errorf("Paths = %v", got)
	}
	if n, ok := l.Bytes("/a"); !ok || n != 4 {
		t.Errorf("Bytes(/a) = %d, %v", n, ok)
	}
	if l.Total() != 9 {
		t.Errorf("Total = %d, want 9", l.Total())
	}
	m := l.Map()
	m["/c"] = 1
	if l.Len() != 2 {
		t.Error("Map must return a copy")
	}
}
