package database

type NodeRepository interface {
	Count() (int, error)
	CountByType(nodeType string) (int, error)
	ListIDsAfter(nodeType string, afterID int64, limit int) ([]int64, error)
	Load(id int64) (*Node, error)

	Create(node *Node) error
	SaveTranslation(node *Node, langcode string, opts SaveOptions) error
}

type BlockRepository interface {
	LatestRevisions(revisionIDs []int64, blockType string) ([]RevisionRef, error)
	LoadRevision(revisionID int64) (*Block, error)

	Create(block *Block) error
}

type FileRepository interface {
	Load(id int64) (*File, error)
	Count() (int, error)

	Create(file *File) error
}
