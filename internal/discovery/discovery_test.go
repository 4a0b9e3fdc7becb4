package discovery_test

import (
	"os"
	"path/filepath"
	"testing"

	"pixship/internal/discovery"
)

func TestFindMatchesExtensionsRecursively(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "b.JPG"), "bb")
	write(t, filepath.Join(root, "a.png"), "a")
	write(t, filepath.Join(root, "notes.txt"), "skip")
	write(t, filepath.Join(root, "trip", "c.jpeg"), "ccc")
	write(t, filepath.Join(root, ".hidden.jpg"), "skip")
	write(t, filepath.Join(root, ".thumbs", "d.jpg"), "skip")

	images, err := discovery.Find(root, []string{"jpg", "jpeg", "png", "webp"})
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}

	want := []string{"a.png", "b.JPG", "trip/c.jpeg"}
	if len(images) != len(want) {
		t.Fatalf("expected %d images, got %d: %+v", len(want), len(images), images)
	}
	for i, rel := range want {
		if images[i].Path != filepath.Join(root, filepath.FromSlash(rel)) {
			t.Fatalf("image %d: got %q want %q", i, images[i].Path, rel)
		}
	}
	if images[1].Name != "b" || images[1].Ext != "jpg" || images[1].Size != 2 {
		t.Fatalf("unexpected image metadata: %+v", images[1])
	}
	if images[2].FileName() != "c.jpeg" {
		t.Fatalf("unexpected file name %q", images[2].FileName())
	}
}

func TestFindMissingRootIsEmpty(t *testing.T) {
	images, err := discovery.Find(filepath.Join(t.TempDir(), "absent"), []string{"jpg"})
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if len(images) != 0 {
		t.Fatalf("expected no images, got %v", images)
	}
}

func TestFindRejectsFileRoot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.jpg")
	write(t, path, "x")
	if _, err := discovery.Find(path, []string{"jpg"}); err == nil {
		t.Fatal("expected error when root is a file")
	}
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
