package filesystem

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestOSTree_ExistsAndIsDirectory(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "file.txt")
	os.WriteFile(filePath, []byte("content"), 0644)

	tree := NewOSTree()

	if !tree.Exists(dir) || !tree.IsDirectory(dir) {
		t.Errorf("expected %q to exist as a directory", dir)
	}
	if !tree.Exists(filePath) || tree.IsDirectory(filePath) {
		t.Errorf("expected %q to exist as a file", filePath)
	}
	if tree.Exists(filepath.Join(dir, "nonexistent")) {
		t.Error("Exists(nonexistent) should be false")
	}
}

func TestOSTree_ReadFile(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "Foo.cls")
	expected := "public class Foo {}"
	os.WriteFile(filePath, []byte(expected), 0644)

	tree := NewOSTree()

	data, err := tree.ReadFile(filePath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != expected {
		t.Errorf("ReadFile() = %q, want %q", string(data), expected)
	}

	rc, err := tree.Stream(filePath)
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	defer rc.Close()
	streamed, _ := io.ReadAll(rc)
	if string(streamed) != expected {
		t.Errorf("Stream() = %q, want %q", string(streamed), expected)
	}
}

func TestOSTree_ReadFile_Nonexistent(t *testing.T) {
	tree := NewOSTree()

	_, err := tree.ReadFile(filepath.Join(t.TempDir(), "nope.cls"))
	if err == nil {
		t.Error("ReadFile(nonexistent) should return error")
	}
}

func TestOSTree_Stat_Nonexistent(t *testing.T) {
	tree := NewOSTree()

	_, err := tree.Stat(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Error("Stat(nonexistent) should return error")
	}
}

func TestOSTree_Walk(t *testing.T) {
	dir := t.TempDir()

	// Create a tree:
	//   dir/
	//     a.txt
	//     sub/
	//       b.txt
	sub := filepath.Join(dir, "sub")
	os.Mkdir(sub, 0755)
	os.WriteFile(filepath.Join(dir, "a.txt"), []byte("1"), 0644)
	os.WriteFile(filepath.Join(sub, "b.txt"), []byte("2"), 0644)

	files, err := Files(NewOSTree(), dir)
	if err != nil {
		t.Fatalf("Files() error = %v", err)
	}

	want := []string{filepath.Join(dir, "a.txt"), filepath.Join(sub, "b.txt")}
	if len(files) != len(want) {
		t.Fatalf("Files found %d files, want %d: %v", len(files), len(want), files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestOSTree_WriteFileCreatesParents(t *testing.T) {
	dir := t.TempDir()
	tree := NewOSTree()
	var _ WritableTree = tree

	target := filepath.Join(dir, "pkg", "classes", "Foo.cls")
	if err := tree.WriteFile(target, []byte("class")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil || string(data) != "class" {
		t.Fatalf("unexpected content %q, err %v", data, err)
	}

	if err := tree.Remove(target); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if tree.Exists(target) {
		t.Error("file still exists after Remove")
	}
}
