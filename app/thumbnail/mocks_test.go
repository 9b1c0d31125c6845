package thumbnail

import (
	"bytes"
	"errors"
	"log/slog"

	"github.com/lysyi3m/card-thumbnails/app/config"
	"github.com/lysyi3m/card-thumbnails/app/database"
)

type mockNodeStore struct {
	nodes   map[int64]*database.Node
	saved   []string
	saveErr map[string]error
}

func (m *mockNodeStore) Load(id int64) (*database.Node, error) {
	return m.nodes[id], nil
}

func (m *mockNodeStore) SaveTranslation(node *database.Node, langcode string, opts database.SaveOptions) error {
	if opts.NewRevision {
		return errors.New("unexpected new revision")
	}
	if err := m.saveErr[langcode]; err != nil {
		return err
	}
	m.saved = append(m.saved, langcode)
	return nil
}

type mockBlockStore struct {
	blocks map[int64]*database.Block // by revision id
}

func (m *mockBlockStore) LatestRevisions(revisionIDs []int64, blockType string) ([]database.RevisionRef, error) {
	var refs []database.RevisionRef
	for _, id := range revisionIDs {
		if b, ok := m.blocks[id]; ok && b.Type == blockType {
			refs = append(refs, database.RevisionRef{RevisionID: id, BlockID: b.ID})
		}
	}
	return refs, nil
}

func (m *mockBlockStore) LoadRevision(revisionID int64) (*database.Block, error) {
	return m.blocks[revisionID], nil
}

type mockFileStore struct {
	files map[int64]*database.File
	err   error
}

func (m *mockFileStore) Load(id int64) (*database.File, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.files[id], nil
}

type mockStyles struct {
	existing  map[string]bool
	generated []string
	genErr    error
}

func (m *mockStyles) StyledURI(uri string) string  { return "public://styles/test/" + uri }
func (m *mockStyles) StyledURL(uri string) string  { return "https://cdn.test/styled/" + uri }
func (m *mockStyles) StyledPath(uri string) string { return "/derivatives/" + uri }
func (m *mockStyles) PublicURL(uri string) string  { return "https://cdn.test/raw/" + uri }
func (m *mockStyles) Exists(path string) bool      { return m.existing[path] }

func (m *mockStyles) Generate(uri, path string) error {
	if m.genErr != nil {
		return m.genErr
	}
	m.generated = append(m.generated, uri)
	if m.existing == nil {
		m.existing = map[string]bool{}
	}
	m.existing[path] = true
	return nil
}

type fixture struct {
	nodes    *mockNodeStore
	blocks   *mockBlockStore
	files    *mockFileStore
	styles   *mockStyles
	logs     *bytes.Buffer
	resolver *Resolver
}

func testSettings() *config.Settings {
	return &config.Settings{
		DefaultThumbnail: "assets/images/default-thumbnail.png",
		TextFormat:       "full_html",
		HeaderBlockType:  "header",
		PageSize:         20,
	}
}

func newFixture() (*fixture, error) {
	f := &fixture{
		nodes:  &mockNodeStore{nodes: map[int64]*database.Node{}},
		blocks: &mockBlockStore{blocks: map[int64]*database.Block{}},
		files:  &mockFileStore{files: map[int64]*database.File{}},
		styles: &mockStyles{},
		logs:   &bytes.Buffer{},
	}

	r, err := New(Deps{
		Nodes:  f.nodes,
		Blocks: f.blocks,
		Files:  f.files,
		Styles: f.styles,
		Logger: slog.New(slog.NewTextHandler(f.logs, nil)),
	}, testSettings())
	if err != nil {
		return nil, err
	}
	f.resolver = r
	f.styles.generated = nil
	return f, nil
}

func int64Ptr(v int64) *int64 {
	return &v
}

func headerBlock(id, revisionID int64, fid *int64) *database.Block {
	return &database.Block{
		ID:              id,
		RevisionID:      revisionID,
		Type:            "header",
		DefaultLangcode: "en",
		Translations: map[string]*database.BlockTranslation{
			"en": {Langcode: "en", Type: "header", BackgroundFileID: fid},
		},
	}
}
