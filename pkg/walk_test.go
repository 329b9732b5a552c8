package hashengine

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/spf13/afero"
)

func collectWalk(t *testing.T, w *DirectoryWalker, root string) []string {
	t.Helper()
	var visited []string
	err := w.Walk(root, nil, func(path string) bool {
		visited = append(visited, path)
		return true
	})
	if err != nil {
		t.Fatalf("Walk(%s): %v", root, err)
	}
	return visited
}

func TestWalkOrderAndCompleteness(t *testing.T) {
	fs := afero.NewMemMapFs()
	files := []string{
		"/data/b.txt",
		"/data/a.txt",
		"/data/b/c.txt",
		"/data/b/a/deep.bin",
		"/data/z",
		"/data/A",
	}
	for _, f := range files {
		if err := afero.WriteFile(fs, f, []byte(f), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := fs.MkdirAll("/data/empty/dir", 0755); err != nil {
		t.Fatal(err)
	}

	visited := collectWalk(t, NewDirectoryWalker(fs, nil), "/data/")

	expected := append([]string(nil), files...)
	sort.Strings(expected)
	if len(visited) != len(expected) {
		t.Fatalf("visited %v, expected %v", visited, expected)
	}
	for i := range expected {
		if visited[i] != expected[i] {
			t.Errorf("position %d: visited %s, expected %s", i, visited[i], expected[i])
		}
	}
}

func TestWalkEmptyDirectory(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("/empty", 0755); err != nil {
		t.Fatal(err)
	}
	if visited := collectWalk(t, NewDirectoryWalker(fs, nil), "/empty"); len(visited) != 0 {
		t.Errorf("expected nothing, got %v", visited)
	}
}

func TestWalkStopsWhenVisitReturnsFalse(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, f := range []string{"/d/1", "/d/2", "/d/3"} {
		if err := afero.WriteFile(fs, f, nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	count := 0
	err := NewDirectoryWalker(fs, nil).Walk("/d", nil, func(string) bool {
		count++
		return count < 2
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if count != 2 {
		t.Errorf("expected walk to stop after 2 files, visited %d", count)
	}
}

func TestWalkInterrupted(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/d/f", nil, 0644); err != nil {
		t.Fatal(err)
	}
	closed := make(chan struct{})
	close(closed)

	err := NewDirectoryWalker(fs, nil).Walk("/d", closed, func(string) bool {
		t.Error("no file should be visited after shutdown")
		return true
	})
	if !errors.Is(err, errWalkInterrupted) {
		t.Fatalf("expected errWalkInterrupted, got %v", err)
	}
}

func TestWalkRootErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/file", []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	w := NewDirectoryWalker(fs, nil)

	for _, root := range []string{"/missing", "/file"} {
		t.Run(root, func(t *testing.T) {
			if err := w.Walk(root, nil, func(string) bool { return true }); err == nil {
				t.Errorf("expected error walking %s", root)
			}
		})
	}
}

func TestWalkSkipsSymlinks(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()

	mustWrite(t, filepath.Join(root, "real.txt"), "real")
	mustWrite(t, filepath.Join(outside, "target.txt"), "target")
	if err := os.Symlink(filepath.Join(outside, "target.txt"), filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.Symlink(outside, filepath.Join(root, "linkdir")); err != nil {
		t.Fatal(err)
	}

	visited := collectWalk(t, NewDirectoryWalker(afero.NewOsFs(), nil), root)
	if len(visited) != 1 || visited[0] != filepath.Join(root, "real.txt") {
		t.Errorf("expected only real.txt, got %v", visited)
	}
}

func TestWalkFollowsLinkedRoot(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "real")
	mustWrite(t, filepath.Join(target, "a.txt"), "a")
	mustWrite(t, filepath.Join(target, "sub", "b.txt"), "b")
	link := filepath.Join(base, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	// Links below the root are still ignored
	if err := os.Symlink(filepath.Join(target, "a.txt"), filepath.Join(target, "sub", "alias.txt")); err != nil {
		t.Fatal(err)
	}

	visited := collectWalk(t, NewDirectoryWalker(afero.NewOsFs(), nil), link)
	expected := []string{filepath.Join(link, "a.txt"), filepath.Join(link, "sub", "b.txt")}
	if len(visited) != len(expected) {
		t.Fatalf("visited %v, expected %v", visited, expected)
	}
	for i := range expected {
		if visited[i] != expected[i] {
			t.Errorf("position %d: visited %s, expected %s", i, visited[i], expected[i])
		}
	}
}

func TestWalkSkipsUnreadableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "ok.txt"), "ok")
	locked := filepath.Join(root, "locked")
	mustWrite(t, filepath.Join(locked, "hidden.txt"), "hidden")
	if err := os.Chmod(locked, 0000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0755) })

	var skipped []string
	w := NewDirectoryWalker(afero.NewOsFs(), func(path string, err error) {
		t.Logf("skipped %s: %v", path, err)
		skipped = append(skipped, path)
	})

	visited := collectWalk(t, w, root)
	if len(visited) != 1 || visited[0] != filepath.Join(root, "ok.txt") {
		t.Errorf("expected only ok.txt, got %v", visited)
	}
	if len(skipped) != 1 || skipped[0] != locked {
		t.Errorf("expected %s to be reported as skipped, got %v", locked, skipped)
	}
}

func TestInsertSorted(t *testing.T) {
	got := insertSorted([]string{"/a", "/c", "/e"}, []string{"/d", "/b", "/f"})
	expected := []string{"/a", "/b", "/c", "/d", "/e", "/f"}
	if len(got) != len(expected) {
		t.Fatalf("got %v, expected %v", got, expected)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("got %v, expected %v", got, expected)
		}
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
