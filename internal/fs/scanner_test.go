package fs

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating directory: %v", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("writing file: %v", err)
	}
}

func TestOSFilesystem_Scan(t *testing.T) {
	t.Run("records regular files with relative slash paths", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.txt"), []byte("alpha"))
		writeFile(t, filepath.Join(root, "sub", "b.txt"), []byte("beta"))

		snap, err := NewOSFilesystem().Scan(root, nil)
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}

		want := []string{"a.txt", "sub/b.txt"}
		if got := snap.Paths(); !reflect.DeepEqual(got, want) {
			t.Errorf("Paths() = %v, want %v", got, want)
		}
		if snap["a.txt"].Size != 5 {
			t.Errorf("a.txt size = %d, want 5", snap["a.txt"].Size)
		}
		if snap["sub/b.txt"].AbsPath != filepath.Join(root, "sub", "b.txt") {
			t.Errorf("AbsPath = %q", snap["sub/b.txt"].AbsPath)
		}
	})

	t.Run("excluded directories are pruned entirely", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "keep.txt"), []byte("k"))
		writeFile(t, filepath.Join(root, "__pycache__", "mod.pyc"), []byte("x"))
		writeFile(t, filepath.Join(root, "sub", "__pycache__", "deep.pyc"), []byte("x"))

		snap, err := NewOSFilesystem().Scan(root, []string{"__pycache__"})
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if got := snap.Paths(); !reflect.DeepEqual(got, []string{"keep.txt"}) {
			t.Errorf("Paths() = %v, want [keep.txt]", got)
		}
	})

	t.Run("excluded file names are skipped", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "doc.txt"), []byte("d"))
		writeFile(t, filepath.Join(root, "shop.db"), []byte("db"))
		writeFile(t, filepath.Join(root, "shop.db-wal"), []byte("wal"))
		writeFile(t, filepath.Join(root, "scratch.tmp"), []byte("t"))

		snap, err := NewOSFilesystem().Scan(root, []string{"shop.db", "shop.db-wal", "*.tmp"})
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if got := snap.Paths(); !reflect.DeepEqual(got, []string{"doc.txt"}) {
			t.Errorf("Paths() = %v, want [doc.txt]", got)
		}
	})

	t.Run("missing root yields an empty snapshot", func(t *testing.T) {
		t.Parallel()
		snap, err := NewOSFilesystem().Scan(filepath.Join(t.TempDir(), "nope"), nil)
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if len(snap) != 0 {
			t.Errorf("snapshot has %d entries, want 0", len(snap))
		}
	})
}

func TestOSFilesystem_Remove(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := filepath.Join(root, "gone.txt")
	writeFile(t, path, []byte("x"))

	fsys := NewOSFilesystem()
	if err := fsys.Remove(path); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	// Removing again must not fail.
	if err := fsys.Remove(path); err != nil {
		t.Errorf("Remove() of a missing file error = %v, want nil", err)
	}
}
