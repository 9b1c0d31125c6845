package media

import (
	"fmt"
	"image"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/lysyi3m/card-thumbnails/app/config"
)

const PublicScheme = "public://"

type Options struct {
	FilesDir    string // root of public:// files
	AssetsDir   string // root for scheme-less paths such as the default thumbnail
	PublicPath  string // URL path prefix files are served under
	BaseURL     string
	MaxFileSize int64
	Style       config.StyleSettings
}

// StyleService maps source URIs to styled derivatives and generates them
type StyleService struct {
	opts Options
}

func NewStyleService(opts Options) *StyleService {
	opts.PublicPath = "/" + strings.Trim(opts.PublicPath, "/")
	if opts.PublicPath == "/" {
		opts.PublicPath = ""
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &StyleService{opts: opts}
}

func (s *StyleService) StyleName() string {
	return s.opts.Style.Name
}

// StyledURI returns the public:// URI of the derivative of uri.
// "public://a.png" becomes "public://styles/<style>/public/a.png" and
// scheme-less paths are placed under the same prefix.
func (s *StyleService) StyledURI(uri string) string {
	return PublicScheme + s.styledRel(uri)
}

// StyledPath returns the filesystem location of the derivative of uri
func (s *StyleService) StyledPath(uri string) string {
	return filepath.Join(s.opts.FilesDir, filepath.FromSlash(s.styledRel(uri)))
}

// StyledURL returns the absolute URL the derivative of uri is served at
func (s *StyleService) StyledURL(uri string) string {
	return s.opts.BaseURL + s.opts.PublicPath + "/" + s.styledRel(uri)
}

// PublicURL returns the URL of the unstyled file
func (s *StyleService) PublicURL(uri string) string {
	rel, public := splitURI(uri)
	if !public {
		return s.opts.BaseURL + "/" + rel
	}
	return s.opts.BaseURL + s.opts.PublicPath + "/" + rel
}

// SourcePath returns the filesystem location of the original file
func (s *StyleService) SourcePath(uri string) string {
	rel, public := splitURI(uri)
	if public {
		return filepath.Join(s.opts.FilesDir, filepath.FromSlash(rel))
	}
	return filepath.Join(s.opts.AssetsDir, filepath.FromSlash(rel))
}

func (s *StyleService) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Generate renders the derivative of uri into path. The image is scaled and
// cropped around its center to the style dimensions and written through a
// temporary file so readers never observe a partial derivative.
func (s *StyleService) Generate(uri, path string) error {
	src, err := os.Open(s.SourcePath(uri))
	if err != nil {
		return fmt.Errorf("failed to open source image %s: %w", uri, err)
	}
	defer src.Close()

	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("failed to decode source image %s: %w", uri, err)
	}

	style := s.opts.Style
	thumb := imaging.Fill(img, style.Width, style.Height, imaging.Center, imaging.Lanczos)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create derivative directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".derivative-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary derivative: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := s.encode(tmp, thumb); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode derivative of %s: %w", uri, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write derivative of %s: %w", uri, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move derivative into place: %w", err)
	}

	return nil
}

func (s *StyleService) encode(w io.Writer, img image.Image) error {
	style := s.opts.Style
	switch style.Format {
	case "webp":
		return webp.Encode(w, img, &webp.Options{Quality: float32(style.Quality)})
	case "png":
		return imaging.Encode(w, img, imaging.PNG)
	case "jpg", "jpeg":
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(style.Quality))
	default:
		return fmt.Errorf("unsupported format: %s", style.Format)
	}
}

// styledRel is the derivative location relative to the files directory.
// A derivative whose format differs from the source keeps the source name
// and gains the style's extension.
func (s *StyleService) styledRel(uri string) string {
	rel, _ := splitURI(uri)
	rel = path.Join("styles", s.opts.Style.Name, "public", rel)
	if !sameFormat(path.Ext(rel), s.opts.Style.Format) {
		rel += "." + s.opts.Style.Format
	}
	return rel
}

// splitURI returns the cleaned path of uri relative to its root and whether
// it lives in the public:// scheme.
func splitURI(uri string) (string, bool) {
	public := strings.HasPrefix(uri, PublicScheme)
	rel := strings.TrimPrefix(uri, PublicScheme)
	// Cleaning against a rooted path drops any leading "..".
	rel = strings.TrimPrefix(path.Clean("/"+rel), "/")
	return rel, public
}

func sameFormat(ext, format string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "jpeg" {
		ext = "jpg"
	}
	if format == "jpeg" {
		format = "jpg"
	}
	return ext == format
}
