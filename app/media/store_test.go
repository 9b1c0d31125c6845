package media

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("Failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func TestStoreFile(t *testing.T) {
	svc, root := newTestService(t, "jpg")
	data := pngBytes(t)

	file, err := svc.StoreFile("cover image.png", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("StoreFile failed: %v", err)
	}
	if file.URI != "public://thumbnails/cover_image.png" {
		t.Errorf("Unexpected URI: %s", file.URI)
	}
	if file.MimeType != "image/png" {
		t.Errorf("Expected image/png, got %s", file.MimeType)
	}
	if file.Size != int64(len(data)) {
		t.Errorf("Expected size %d, got %d", len(data), file.Size)
	}
	if _, err := os.Stat(filepath.Join(root, "files", "thumbnails", "cover_image.png")); err != nil {
		t.Errorf("Expected stored file on disk: %v", err)
	}

	second, err := svc.StoreFile("cover image.png", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("StoreFile failed: %v", err)
	}
	if second.URI != "public://thumbnails/cover_image_0.png" {
		t.Errorf("Expected renamed duplicate, got %s", second.URI)
	}
}

func TestStoreFileAddsExtension(t *testing.T) {
	svc, _ := newTestService(t, "jpg")

	file, err := svc.StoreFile("https://cdn.example.com/img/123", bytes.NewReader(pngBytes(t)))
	if err != nil {
		t.Fatalf("StoreFile failed: %v", err)
	}
	if !strings.HasSuffix(file.Filename, "123.png") {
		t.Errorf("Expected extension from sniffed type, got %s", file.Filename)
	}
}

func TestStoreFileTooLarge(t *testing.T) {
	svc, root := newTestService(t, "jpg")

	_, err := svc.StoreFile("big.bin", bytes.NewReader(make([]byte, 2<<20)))
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("Expected ErrFileTooLarge, got %v", err)
	}

	entries, _ := os.ReadDir(filepath.Join(root, "files", "thumbnails"))
	if len(entries) != 0 {
		t.Errorf("Expected no leftover files, got %d", len(entries))
	}
}
