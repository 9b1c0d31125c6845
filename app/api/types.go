package api

import (
	"github.com/lysyi3m/card-thumbnails/app/batch"
	"github.com/lysyi3m/card-thumbnails/app/database"
	"github.com/lysyi3m/card-thumbnails/app/tasks"
	"github.com/lysyi3m/card-thumbnails/app/thumbnail"
)

type NodeReader interface {
	Count() (int, error)
	Load(id int64) (*database.Node, error)
}

type FileCounter interface {
	Count() (int, error)
}

type Previewer interface {
	ResolveMarkup(node *database.Node, langcode string) (thumbnail.Resolution, error)
	DefaultPath() string
}

type RunReader interface {
	Get(id string) (batch.Run, bool)
	List() []batch.Run
}

var (
	_ Previewer = (*thumbnail.Resolver)(nil)
	_ RunReader = (*batch.Registry)(nil)
)

type Handler struct {
	nodes     NodeReader
	files     FileCounter
	previewer Previewer
	runs      RunReader
	scheduler tasks.TaskSchedulerInterface
	styleName string
	version   string
}

type createRunRequest struct {
	ContentType string `json:"content_type" binding:"required"`
}

type runResponse struct {
	batch.Run
	Items int `json:"items"`
	Built int `json:"built"`
}

type previewResponse struct {
	NodeID           int64  `json:"nid"`
	Langcode         string `json:"langcode"`
	Markup           string `json:"markup"`
	DerivativeSource string `json:"derivative_source,omitempty"`
	DerivativeURI    string `json:"derivative_uri,omitempty"`
}
