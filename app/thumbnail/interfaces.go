package thumbnail

import (
	"github.com/lysyi3m/card-thumbnails/app/database"
)

type NodeStore interface {
	Load(id int64) (*database.Node, error)
	SaveTranslation(node *database.Node, langcode string, opts database.SaveOptions) error
}

type BlockStore interface {
	LatestRevisions(revisionIDs []int64, blockType string) ([]database.RevisionRef, error)
	LoadRevision(revisionID int64) (*database.Block, error)
}

type FileStore interface {
	Load(id int64) (*database.File, error)
}

// DerivativeService renders and locates styled images
type DerivativeService interface {
	StyledURI(uri string) string
	StyledURL(uri string) string
	StyledPath(uri string) string
	PublicURL(uri string) string
	Exists(path string) bool
	Generate(uri, path string) error
}
