package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsImageFile(t *testing.T) {
	yes := []string{"a.jpg", "b.JPEG", "c.png", "d.webp", "e.TIF", "f.bmp"}
	for _, name := range yes {
		if !IsImageFile(name) {
			t.Errorf("IsImageFile(%q) = false", name)
		}
	}
	no := []string{"a.txt", "b.gif", "c", "d.jpg.bak"}
	for _, name := range no {
		if IsImageFile(name) {
			t.Errorf("IsImageFile(%q) = true", name)
		}
	}
}

func TestIsEmbeddable(t *testing.T) {
	if !IsEmbeddable("car.jpg") || !IsEmbeddable("car.JPEG") {
		t.Error("JPEG files should be embeddable")
	}
	if IsEmbeddable("car.png") || IsEmbeddable("car.webp") {
		t.Error("only JPEG files are embeddable")
	}
}

func TestListImageFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"b.jpg", "a.png", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(sub, "c.jpeg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	flat, err := ListImageFiles(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(flat) != 2 {
		t.Fatalf("flat list = %v, want 2 entries", flat)
	}
	if filepath.Base(flat[0]) != "a.png" || filepath.Base(flat[1]) != "b.jpg" {
		t.Errorf("flat list not sorted: %v", flat)
	}

	deep, err := ListImageFiles(dir, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(deep) != 3 {
		t.Fatalf("recursive list = %v, want 3 entries", deep)
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	if FileExists(path) {
		t.Error("missing file reported as existing")
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if !FileExists(path) {
		t.Error("existing file not detected")
	}
	if FileExists(dir) {
		t.Error("directory should not count as a file")
	}
}
