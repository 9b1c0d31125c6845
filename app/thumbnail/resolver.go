package thumbnail

import (
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/lysyi3m/card-thumbnails/app/config"
	"github.com/lysyi3m/card-thumbnails/app/database"
)

const unsavedNodeID = "N/A (new content)"

type Deps struct {
	Nodes  NodeStore
	Blocks BlockStore
	Files  FileStore
	Styles DerivativeService
	Logger *slog.Logger
}

// Resolution is the computed thumbnail of one node translation
type Resolution struct {
	Markup string
	// DerivativeSource is the URI whose styled derivative the markup
	// references, empty when no derivative is needed.
	DerivativeSource string
	DerivativeURI    string
}

type Resolver struct {
	deps        Deps
	settings    *config.Settings
	defaultPath string
}

// New creates a resolver and makes sure the derivative of the default
// thumbnail exists.
func New(deps Deps, settings *config.Settings) (*Resolver, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := &Resolver{
		deps:        deps,
		settings:    settings,
		defaultPath: "/" + strings.TrimLeft(settings.DefaultThumbnail, "/"),
	}

	if err := r.EnsureDerivative(r.defaultPath); err != nil {
		return nil, fmt.Errorf("failed to create default thumbnail derivative: %w", err)
	}

	return r, nil
}

// DefaultPath is the public path of the placeholder thumbnail
func (r *Resolver) DefaultPath() string {
	return r.defaultPath
}

// ResolveMarkup computes the thumbnail markup for one translation of node.
// A direct thumbnail wins over the first header block background; anything
// unresolvable falls back to the default thumbnail.
func (r *Resolver) ResolveMarkup(node *database.Node, langcode string) (Resolution, error) {
	tr := node.Translation(langcode)
	if tr == nil {
		return Resolution{}, fmt.Errorf("node %s has no %q translation", nodeLabel(node), langcode)
	}

	var res Resolution

	if tr.ThumbnailFileID != nil {
		file, found, err := r.lookupFile(*tr.ThumbnailFileID)
		if err != nil {
			return Resolution{}, err
		}
		if found {
			res = r.imageResolution(file.URI)
		} else {
			r.deps.Logger.Error("File does not exist for node",
				"fid", *tr.ThumbnailFileID,
				"nid", nodeLabel(node))
		}
	} else {
		header, err := r.headerBlock(node, langcode)
		if err != nil {
			return Resolution{}, err
		}
		if header != nil {
			res, err = r.headerResolution(node, header, langcode)
			if err != nil {
				return Resolution{}, err
			}
		}
	}

	if res.Markup == "" {
		res = Resolution{
			Markup:           `<img src="` + html.EscapeString(r.defaultPath) + `" />`,
			DerivativeSource: r.defaultPath,
			DerivativeURI:    r.deps.Styles.StyledURI(r.defaultPath),
		}
	}

	return res, nil
}

// EnsureDerivative generates the styled derivative of source unless it already exists
func (r *Resolver) EnsureDerivative(source string) error {
	path := r.deps.Styles.StyledPath(source)
	if r.deps.Styles.Exists(path) {
		return nil
	}

	r.deps.Logger.Debug("Generating derivative", "source", source, "path", path)
	if err := r.deps.Styles.Generate(source, path); err != nil {
		return fmt.Errorf("failed to generate derivative of %s: %w", source, err)
	}
	return nil
}

// ApplyToNode resolves the thumbnail of one translation and stores the
// markup in its computed image field. The node is not persisted.
func (r *Resolver) ApplyToNode(node *database.Node, langcode string) error {
	res, err := r.ResolveMarkup(node, langcode)
	if err != nil {
		return err
	}

	if res.DerivativeSource != "" {
		if err := r.EnsureDerivative(res.DerivativeSource); err != nil {
			return err
		}
	}

	node.Translation(langcode).ComputedImage = database.FormattedText{
		Value:  res.Markup,
		Format: r.settings.TextFormat,
	}
	return nil
}

// Build recomputes the thumbnail of every translation of a node and saves
// each one without creating a revision. It returns false when the node does
// not exist. A failing save stops the build; translations saved before it
// stay saved.
func (r *Resolver) Build(id int64) (bool, error) {
	node, err := r.deps.Nodes.Load(id)
	if err != nil {
		return false, fmt.Errorf("failed to load node %d: %w", id, err)
	}
	if node == nil {
		r.deps.Logger.Debug("Node not found, nothing to build", "nid", id)
		return false, nil
	}

	for _, langcode := range node.Langcodes() {
		if err := r.ApplyToNode(node, langcode); err != nil {
			return false, err
		}
		if err := r.deps.Nodes.SaveTranslation(node, langcode, database.SaveOptions{NewRevision: false}); err != nil {
			return false, fmt.Errorf("failed to save %s translation of node %d: %w", langcode, id, err)
		}
	}

	return true, nil
}

// headerBlock returns the first block referenced by node, at its latest
// revision, whose translation for langcode is still a header block.
func (r *Resolver) headerBlock(node *database.Node, langcode string) (*database.Block, error) {
	if len(node.Sections) == 0 {
		return nil, nil
	}

	revisionIDs := make([]int64, 0, len(node.Sections))
	for _, section := range node.Sections {
		revisionIDs = append(revisionIDs, section.RevisionID)
	}

	headerType := r.settings.HeaderBlockType
	refs, err := r.deps.Blocks.LatestRevisions(revisionIDs, headerType)
	if err != nil {
		return nil, fmt.Errorf("failed to query header blocks of node %s: %w", nodeLabel(node), err)
	}

	for _, ref := range refs {
		block, err := r.deps.Blocks.LoadRevision(ref.RevisionID)
		if err != nil {
			return nil, fmt.Errorf("failed to load block revision %d: %w", ref.RevisionID, err)
		}
		if block == nil {
			continue
		}
		if tr := block.Translation(langcode); tr != nil && tr.Type == headerType {
			return block, nil
		}
	}

	return nil, nil
}

func (r *Resolver) headerResolution(node *database.Node, header *database.Block, langcode string) (Resolution, error) {
	background := header.Translation(langcode).BackgroundFileID
	if background == nil {
		return Resolution{}, nil
	}

	file, found, err := r.lookupFile(*background)
	if err != nil {
		return Resolution{}, err
	}
	if !found {
		r.deps.Logger.Error("File does not exist for header block in node",
			"fid", *background,
			"pid", header.ID,
			"nid", nodeLabel(node))
		return Resolution{}, nil
	}

	if mediaType, _, _ := strings.Cut(file.MimeType, "/"); mediaType == "video" {
		src := html.EscapeString(r.deps.Styles.PublicURL(file.URI))
		return Resolution{
			Markup: `<video muted="" loop="" playsinline="">` +
				`<source src='` + src + `' type='video/mp4' codecs='avc1.42E01E, mp4a.40.2'>` +
				`</video>`,
		}, nil
	}

	return r.imageResolution(file.URI), nil
}

func (r *Resolver) imageResolution(uri string) Resolution {
	return Resolution{
		Markup:           `<img src='` + html.EscapeString(r.deps.Styles.StyledURL(uri)) + `'/>`,
		DerivativeSource: uri,
		DerivativeURI:    r.deps.Styles.StyledURI(uri),
	}
}

// lookupFile reports whether the file exists. Only storage failures are errors.
func (r *Resolver) lookupFile(id int64) (*database.File, bool, error) {
	file, err := r.deps.Files.Load(id)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load file %d: %w", id, err)
	}
	return file, file != nil, nil
}

func nodeLabel(node *database.Node) string {
	if node.ID == 0 {
		return unsavedNodeID
	}
	return fmt.Sprint(node.ID)
}
