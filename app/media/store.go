package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/lysyi3m/card-thumbnails/app/database"
)

// StoredDir is the public:// directory imported files are written to
const StoredDir = "thumbnails"

var ErrFileTooLarge = errors.New("file exceeds maximum size")

// StoreFile writes r into the public file area under a name derived from
// name that does not clash with an existing file. The MIME type is sniffed
// from the content. The returned record is not yet registered.
func (s *StyleService) StoreFile(name string, r io.Reader) (*database.File, error) {
	dir := filepath.Join(s.opts.FilesDir, StoredDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create files directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	src := r
	if s.opts.MaxFileSize > 0 {
		src = io.LimitReader(r, s.opts.MaxFileSize+1)
	}
	size, err := io.Copy(tmp, src)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", name, err)
	}
	if s.opts.MaxFileSize > 0 && size > s.opts.MaxFileSize {
		return nil, fmt.Errorf("%s: %w", name, ErrFileTooLarge)
	}

	mtype, err := mimetype.DetectFile(tmp.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to detect type of %s: %w", name, err)
	}

	filename := sanitizeFilename(name)
	if path.Ext(filename) == "" {
		filename += mtype.Extension()
	}

	target, filename := uniquePath(dir, filename)
	if err := os.Rename(tmp.Name(), target); err != nil {
		return nil, fmt.Errorf("failed to store %s: %w", name, err)
	}

	mime, _, _ := strings.Cut(mtype.String(), ";")
	return &database.File{
		URI:      PublicScheme + StoredDir + "/" + filename,
		Filename: filename,
		MimeType: mime,
		Size:     size,
	}, nil
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	name = strings.TrimLeft(name, ".")
	if name == "" || name == "_" {
		name = "file"
	}
	return name
}

// uniquePath appends _0, _1, ... to the base name until it is free
func uniquePath(dir, filename string) (string, string) {
	target := filepath.Join(dir, filename)
	if _, err := os.Stat(target); errors.Is(err, os.ErrNotExist) {
		return target, filename
	}

	ext := path.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	for i := 0; ; i++ {
		candidate := base + "_" + strconv.Itoa(i) + ext
		target = filepath.Join(dir, candidate)
		if _, err := os.Stat(target); errors.Is(err, os.ErrNotExist) {
			return target, candidate
		}
	}
}
