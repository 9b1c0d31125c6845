package feed

import (
	"io"
	"time"

	"github.com/lysyi3m/card-thumbnails/app/database"
)

type Metadata struct {
	Title    string
	Link     string
	Language string
}

type Item struct {
	GUID        string
	Title       string
	Link        string
	PublishedAt *time.Time
	ImageURL    string // item image, else first image enclosure
}

type NodeCreator interface {
	Create(node *database.Node) error
}

type FileCreator interface {
	Create(file *database.File) error
}

// FileStorer writes downloaded content into the public file area
type FileStorer interface {
	StoreFile(name string, r io.Reader) (*database.File, error)
}
