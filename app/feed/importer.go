package feed

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"

	"golang.org/x/text/language"

	"github.com/lysyi3m/card-thumbnails/app/database"
)

const (
	fallbackLangcode   = "en"
	defaultTimeout     = 30 * time.Second
	defaultMaxFeedSize = 10 << 20
)

var ErrFeedTooLarge = errors.New("feed exceeds the maximum size")

type ImporterOptions struct {
	UserAgent   string
	Timeout     time.Duration
	MaxFeedSize int64 // bytes
}

// Importer creates content items from the entries of an RSS or Atom feed
type Importer struct {
	httpClient *http.Client
	parser     *Parser
	nodes      NodeCreator
	files      FileCreator
	storer     FileStorer
	opts       ImporterOptions
	logger     *slog.Logger
}

func NewImporter(httpClient *http.Client, nodes NodeCreator, files FileCreator, storer FileStorer, opts ImporterOptions, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxFeedSize <= 0 {
		opts.MaxFeedSize = defaultMaxFeedSize
	}
	return &Importer{
		httpClient: httpClient,
		parser:     NewParser(),
		nodes:      nodes,
		files:      files,
		storer:     storer,
		opts:       opts,
		logger:     logger,
	}
}

// Run imports every entry of feedURL as a node of contentType and returns
// the new node IDs. langcode overrides the feed language when set. Entries
// whose image cannot be fetched are imported without a thumbnail.
func (i *Importer) Run(ctx context.Context, feedURL, contentType, langcode string) ([]int64, error) {
	body, err := i.fetch(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	data, err := io.ReadAll(io.LimitReader(body, i.opts.MaxFeedSize+1))
	body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read feed: %w", err)
	}
	if int64(len(data)) > i.opts.MaxFeedSize {
		return nil, ErrFeedTooLarge
	}

	metadata, items, err := i.parser.Run(data)
	if err != nil {
		return nil, err
	}

	langcode = cmp.Or(langcode, normalizeLangcode(metadata.Language), fallbackLangcode)
	logger := i.logger.With("feed", feedURL, "type", contentType, "langcode", langcode)
	logger.Info("Importing feed", "title", metadata.Title, "items", len(items))

	ids := make([]int64, 0, len(items))
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return ids, err
		}

		tr := &database.NodeTranslation{Langcode: langcode, Title: cmp.Or(item.Title, item.Link)}
		if item.ImageURL != "" {
			fid, err := i.importImage(ctx, feedURL, item.ImageURL)
			if err != nil {
				logger.Warn("Failed to import item image", "guid", item.GUID, "image", item.ImageURL, "error", err)
			} else {
				tr.ThumbnailFileID = &fid
			}
		}

		node := &database.Node{
			Type:            contentType,
			DefaultLangcode: langcode,
			Translations:    map[string]*database.NodeTranslation{langcode: tr},
		}
		if err := i.nodes.Create(node); err != nil {
			return ids, fmt.Errorf("failed to create node for %s: %w", item.GUID, err)
		}

		logger.Debug("Imported item", "nid", node.ID, "guid", item.GUID)
		ids = append(ids, node.ID)
	}

	logger.Info("Feed imported", "nodes", len(ids))
	return ids, nil
}

func (i *Importer) importImage(ctx context.Context, feedURL, imageURL string) (int64, error) {
	resolved, err := resolveURL(feedURL, imageURL)
	if err != nil {
		return 0, err
	}

	body, err := i.fetch(ctx, resolved.String())
	if err != nil {
		return 0, err
	}
	defer body.Close()

	file, err := i.storer.StoreFile(path.Base(resolved.Path), body)
	if err != nil {
		return 0, err
	}
	if err := i.files.Create(file); err != nil {
		return 0, err
	}

	return file.ID, nil
}

func (i *Importer) fetch(ctx context.Context, target string) (io.ReadCloser, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, i.opts.Timeout)

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, target, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", i.opts.UserAgent)

	resp, err := i.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to fetch %s: %w", target, err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	return &cancelBody{ReadCloser: resp.Body, cancel: cancel}, nil
}

// cancelBody releases the request timeout when the body is closed
type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

func resolveURL(base, ref string) (*url.URL, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid feed URL: %w", err)
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("invalid image URL: %w", err)
	}
	return baseURL.ResolveReference(refURL), nil
}

// normalizeLangcode reduces a feed language such as "en-us" to its base language
func normalizeLangcode(raw string) string {
	if raw == "" {
		return ""
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return ""
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return ""
	}
	return base.String()
}
