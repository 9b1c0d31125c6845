package media

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/lysyi3m/card-thumbnails/app/config"
)

func newTestService(t *testing.T, format string) (*StyleService, string) {
	t.Helper()
	root := t.TempDir()
	svc := NewStyleService(Options{
		FilesDir:    filepath.Join(root, "files"),
		AssetsDir:   filepath.Join(root, "web"),
		PublicPath:  "/sites/default/files/",
		BaseURL:     "https://example.com/",
		MaxFileSize: 1 << 20,
		Style: config.StyleSettings{
			Name:    "card_thumbnail",
			Width:   40,
			Height:  30,
			Format:  format,
			Quality: 80,
		},
	})
	return svc, root
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create fixture: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode fixture: %v", err)
	}
}

func TestStyledLocations(t *testing.T) {
	svc, root := newTestService(t, "png")

	tests := []struct {
		uri      string
		wantURI  string
		wantURL  string
		wantPath string
	}{
		{
			uri:      "public://a.png",
			wantURI:  "public://styles/card_thumbnail/public/a.png",
			wantURL:  "https://example.com/sites/default/files/styles/card_thumbnail/public/a.png",
			wantPath: filepath.Join(root, "files", "styles", "card_thumbnail", "public", "a.png"),
		},
		{
			uri:      "/assets/images/default-thumbnail.png",
			wantURI:  "public://styles/card_thumbnail/public/assets/images/default-thumbnail.png",
			wantURL:  "https://example.com/sites/default/files/styles/card_thumbnail/public/assets/images/default-thumbnail.png",
			wantPath: filepath.Join(root, "files", "styles", "card_thumbnail", "public", "assets", "images", "default-thumbnail.png"),
		},
		{
			uri:      "public://../../etc/photo.jpg",
			wantURI:  "public://styles/card_thumbnail/public/etc/photo.jpg.png",
			wantURL:  "https://example.com/sites/default/files/styles/card_thumbnail/public/etc/photo.jpg.png",
			wantPath: filepath.Join(root, "files", "styles", "card_thumbnail", "public", "etc", "photo.jpg.png"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			if got := svc.StyledURI(tt.uri); got != tt.wantURI {
				t.Errorf("StyledURI: expected %q, got %q", tt.wantURI, got)
			}
			if got := svc.StyledURL(tt.uri); got != tt.wantURL {
				t.Errorf("StyledURL: expected %q, got %q", tt.wantURL, got)
			}
			if got := svc.StyledPath(tt.uri); got != tt.wantPath {
				t.Errorf("StyledPath: expected %q, got %q", tt.wantPath, got)
			}
		})
	}
}

func TestPublicURLAndSourcePath(t *testing.T) {
	svc, root := newTestService(t, "jpg")

	if got := svc.PublicURL("public://v.mp4"); got != "https://example.com/sites/default/files/v.mp4" {
		t.Errorf("Unexpected public URL: %s", got)
	}
	if got := svc.SourcePath("public://thumbnails/a.png"); got != filepath.Join(root, "files", "thumbnails", "a.png") {
		t.Errorf("Unexpected public source path: %s", got)
	}
	if got := svc.SourcePath("/assets/x.png"); got != filepath.Join(root, "web", "assets", "x.png") {
		t.Errorf("Unexpected asset source path: %s", got)
	}
}

func TestGenerateScalesAndCrops(t *testing.T) {
	for _, format := range []string{"jpg", "png"} {
		t.Run(format, func(t *testing.T) {
			svc, root := newTestService(t, format)
			writePNG(t, filepath.Join(root, "files", "a.png"), 200, 100)

			target := svc.StyledPath("public://a.png")
			if svc.Exists(target) {
				t.Fatal("Expected derivative to be absent before generation")
			}

			if err := svc.Generate("public://a.png", target); err != nil {
				t.Fatalf("Generate failed: %v", err)
			}
			if !svc.Exists(target) {
				t.Fatal("Expected derivative to exist after generation")
			}

			img, err := imaging.Open(target)
			if err != nil {
				t.Fatalf("Failed to open derivative: %v", err)
			}
			if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 30 {
				t.Errorf("Expected 40x30 derivative, got %dx%d", b.Dx(), b.Dy())
			}

			entries, _ := os.ReadDir(filepath.Dir(target))
			if len(entries) != 1 {
				t.Errorf("Expected only the derivative in target directory, got %d entries", len(entries))
			}
		})
	}
}

func TestGenerateFromAssets(t *testing.T) {
	svc, root := newTestService(t, "png")
	writePNG(t, filepath.Join(root, "web", "assets", "images", "default-thumbnail.png"), 64, 64)

	uri := "/assets/images/default-thumbnail.png"
	if err := svc.Generate(uri, svc.StyledPath(uri)); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !svc.Exists(svc.StyledPath(uri)) {
		t.Error("Expected default derivative to exist")
	}
}

func TestGenerateMissingSource(t *testing.T) {
	svc, _ := newTestService(t, "png")

	err := svc.Generate("public://missing.png", svc.StyledPath("public://missing.png"))
	if err == nil {
		t.Fatal("Expected error for missing source")
	}
}

func TestGenerateUndecodableSource(t *testing.T) {
	svc, root := newTestService(t, "png")
	path := filepath.Join(root, "files", "broken.png")
	os.MkdirAll(filepath.Dir(path), 0o755)
	os.WriteFile(path, []byte("not an image"), 0o644)

	target := svc.StyledPath("public://broken.png")
	if err := svc.Generate("public://broken.png", target); err == nil {
		t.Fatal("Expected decode error")
	}
	if svc.Exists(target) {
		t.Error("Expected no derivative after failed generation")
	}
}
