package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestFileStoreWrite(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	key, err := store.Write(context.Background(), "./generated/images/job.png", pngHeader)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if key != "generated/images/job.png" {
		t.Fatalf("key = %q", key)
	}
	path, err := store.Path(key)
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.Equal(data, pngHeader) {
		t.Fatalf("stored bytes mismatch")
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	for _, key := range []string{"../escape.png", "a/../../escape.png", "", ".."} {
		if _, err := store.Write(context.Background(), key, pngHeader); err == nil {
			t.Fatalf("Write(%q) should fail", key)
		}
	}
}

func TestFileStoreHonorsCancelledContext(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Write(ctx, "x.png", pngHeader); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestImageKey(t *testing.T) {
	if got := ImageKey("job-1", pngHeader); got != "generated/images/job-1.png" {
		t.Fatalf("ImageKey(png) = %q", got)
	}
	jpeg := []byte{0xff, 0xd8, 0xff, 0xe0, 0, 0x10, 'J', 'F', 'I', 'F'}
	if got := ImageKey("job-2", jpeg); got != "generated/images/job-2.jpg" {
		t.Fatalf("ImageKey(jpeg) = %q", got)
	}
	if got := ImageKey("", []byte("plain")); got != "generated/images/unknown.bin" {
		t.Fatalf("ImageKey(unknown) = %q", got)
	}
}

func TestFileStoreBasePathIsAbsolute(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if got := store.BasePath(); !filepath.IsAbs(got) || got != filepath.Clean(dir) {
		t.Fatalf("BasePath = %q, want %q", got, dir)
	}
	var nilStore *FileStore
	if nilStore.BasePath() != "" {
		t.Fatalf("nil store BasePath should be empty")
	}
}
