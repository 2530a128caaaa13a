package fs

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCopyFile(t *testing.T) {
	t.Run("copies content, permissions and mtime", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		src := filepath.Join(root, "src.txt")
		dst := filepath.Join(root, "dst.txt")

		writeFile(t, src, []byte("payload"))
		if err := os.Chmod(src, 0600); err != nil {
			t.Fatalf("chmod: %v", err)
		}
		mtime := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
		if err := os.Chtimes(src, mtime, mtime); err != nil {
			t.Fatalf("chtimes: %v", err)
		}

		if err := CopyFile(src, dst); err != nil {
			t.Fatalf("CopyFile() error = %v", err)
		}

		got, err := os.ReadFile(dst)
		if err != nil {
			t.Fatalf("reading target: %v", err)
		}
		if string(got) != "payload" {
			t.Errorf("target content = %q, want payload", got)
		}

		info, err := os.Stat(dst)
		if err != nil {
			t.Fatalf("stat target: %v", err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("target permissions = %o, want 0600", info.Mode().Perm())
		}
		if !info.ModTime().Equal(mtime) {
			t.Errorf("target mtime = %v, want %v", info.ModTime(), mtime)
		}
	})

	t.Run("truncates an existing target", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		src := filepath.Join(root, "src.txt")
		dst := filepath.Join(root, "dst.txt")
		writeFile(t, src, []byte("short"))
		writeFile(t, dst, []byte("a much longer pre-existing file"))

		if err := CopyFile(src, dst); err != nil {
			t.Fatalf("CopyFile() error = %v", err)
		}
		got, _ := os.ReadFile(dst)
		if string(got) != "short" {
			t.Errorf("target content = %q, want short", got)
		}
	})

	t.Run("missing source is an error", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		if err := CopyFile(filepath.Join(root, "nope"), filepath.Join(root, "dst")); err == nil {
			t.Error("CopyFile() error = nil, want error")
		}
	})
}

func TestHashFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := filepath.Join(root, "data.bin")
	writeFile(t, path, []byte("hello"))

	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile() error = %v", err)
	}
	// sha256("hello")
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got != want {
		t.Errorf("HashFile() = %q, want %q", got, want)
	}
}
