package notebooklm

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	nlmerrors "github.com/shouta-dev/notebooklm-go/errors"
	"github.com/shouta-dev/notebooklm-go/internal/jsontree"
	"github.com/shouta-dev/notebooklm-go/internal/operations/upload"
	"github.com/shouta-dev/notebooklm-go/internal/rpcapi"
	"github.com/shouta-dev/notebooklm-go/nlmtypes"
)

// youtubePatterns match the URL forms the backend treats as YouTube sources.
// The capture group is the video id.
var youtubePatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtu\.be/([\w-]+)`),
	regexp.MustCompile(`youtube\.com/watch\?v=([\w-]+)`),
	regexp.MustCompile(`youtube\.com/shorts/([\w-]+)`),
}

// ExtractYouTubeVideoID returns the video id when the URL is one of the
// recognized YouTube forms (youtu.be, watch?v=, shorts).
func ExtractYouTubeVideoID(rawURL string) (string, bool) {
	for _, p := range youtubePatterns {
		if m := p.FindStringSubmatch(rawURL); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// AddFiles uploads local files into a notebook: one batch registration RPC,
// then parallel resumable uploads bounded by the configured concurrency.
//
// Files that fail to upload are reported through the progress observer and
// dropped from the result; an error is returned only when every file fails.
func (c *Client) AddFiles(
	ctx context.Context,
	notebookID string,
	paths []string,
	opts ...nlmtypes.UploadOption,
) ([]nlmtypes.Source, error) {
	cfg := &nlmtypes.UploadOptionConfig{Concurrency: c.concurrency}
	for _, opt := range opts {
		opt(cfg)
	}

	coord := upload.NewCoordinator(c, c, c.fs, rpcAddSource, cfg.Concurrency)
	if cfg.Progress != nil {
		coord.WithProgress(cfg.Progress)
	}
	if cfg.ContentType != "" {
		coord.WithContentType(cfg.ContentType)
	}

	sources, err := coord.UploadAll(ctx, notebookID, paths)
	if err != nil {
		return nil, nlmerrors.NewError("addFiles", err).WithNotebook(notebookID)
	}
	return sources, nil
}

// AddFile uploads a single local file into a notebook.
//
// Unlike the batch path, single-file registration responses bury the
// allocated id at varying depths, so the id is found by deep scan rather
// than position.
func (c *Client) AddFile(ctx context.Context, notebookID, path string) (nlmtypes.Source, error) {
	fail := func(err error) (nlmtypes.Source, error) {
		return nlmtypes.Source{}, nlmerrors.NewError("addFile", err).WithNotebook(notebookID).WithSource(path)
	}

	info, err := c.fs.Stat(path)
	if err != nil {
		return fail(err)
	}
	if info.IsDir() {
		return fail(fmt.Errorf("%w: is a directory", nlmerrors.ErrInvalidInput))
	}
	name := filepath.Base(path)

	result, err := c.Call(ctx, rpcAddSource, []any{[][]string{{name}}, notebookID})
	if err != nil {
		return fail(err)
	}
	sourceID, ok := jsontree.DeepString(result)
	if !ok {
		return fail(nlmerrors.ErrRegistrationFailed)
	}

	sessionURL, err := c.StartSession(ctx, &rpcapi.StartSessionRequest{
		NotebookID: notebookID,
		FileName:   name,
		SourceID:   sourceID,
		Size:       info.Size(),
	})
	if err != nil {
		return fail(err)
	}

	file, err := c.fs.Open(path)
	if err != nil {
		return fail(err)
	}
	defer file.Close()

	contentType := sniffContentType(path, file)
	if err := c.Put(ctx, sessionURL, file, info.Size(), contentType); err != nil {
		return fail(err)
	}

	return nlmtypes.Source{ID: sourceID, Title: name, Kind: nlmtypes.SourceKindFile}, nil
}

// AddURL attaches a web page or YouTube video as a source. YouTube URLs are
// detected automatically; the backend expects them in a different positional
// layout (url at index 7 with an indicator flag at 10) than plain pages
// (url at index 2).
func (c *Client) AddURL(ctx context.Context, notebookID, rawURL string) (nlmtypes.Source, error) {
	if rawURL == "" {
		return nlmtypes.Source{}, nlmerrors.NewError("addURL",
			fmt.Errorf("%w: empty url", nlmerrors.ErrInvalidInput)).WithNotebook(notebookID)
	}

	var entry []any
	kind := nlmtypes.SourceKindURL
	if _, ok := ExtractYouTubeVideoID(rawURL); ok {
		entry = []any{nil, nil, nil, nil, nil, nil, nil, []string{rawURL}, nil, nil, 1}
		kind = nlmtypes.SourceKindYouTube
	} else {
		entry = []any{nil, nil, []string{rawURL}}
	}

	result, err := c.Call(ctx, rpcAddSource, []any{[]any{entry}, notebookID})
	if err != nil {
		return nlmtypes.Source{}, nlmerrors.NewError("addURL", err).WithNotebook(notebookID).WithSource(rawURL)
	}

	id, ok := jsontree.String(result, 0, 0, 0)
	if !ok {
		id, ok = jsontree.DeepString(result)
	}
	if !ok {
		return nlmtypes.Source{}, nlmerrors.NewError("addURL",
			nlmerrors.ErrRegistrationFailed).WithNotebook(notebookID).WithSource(rawURL)
	}

	title, _ := jsontree.String(result, 0, 1)
	if title == "" {
		title = rawURL
	}
	return nlmtypes.Source{ID: id, Title: title, Kind: kind}, nil
}

// ListSources returns the sources attached to a notebook. Source entries ride
// inside the notebook payload: [[id], title, metadata, ...] with the original
// URL, when there is one, at metadata position 7.
func (c *Client) ListSources(ctx context.Context, notebookID string) ([]nlmtypes.Source, error) {
	result, err := c.Call(ctx, rpcGetNotebook, []any{notebookID})
	if err != nil {
		return nil, nlmerrors.NewError("listSources", err).WithNotebook(notebookID)
	}

	entries, _ := jsontree.At(result, 0, 1).([]any)
	sources := make([]nlmtypes.Source, 0, len(entries))
	for _, entry := range entries {
		id, ok := jsontree.String(entry, 0, 0)
		if !ok {
			continue
		}
		title, _ := jsontree.String(entry, 1)
		sources = append(sources, nlmtypes.Source{
			ID:    id,
			Title: title,
			Kind:  classifySource(jsontree.At(entry, 2)),
		})
	}
	return sources, nil
}

// classifySource maps a source's metadata array onto a kind.
func classifySource(meta any) string {
	if u, ok := jsontree.String(meta, 7, 0); ok {
		if _, yt := ExtractYouTubeVideoID(u); yt {
			return nlmtypes.SourceKindYouTube
		}
		return nlmtypes.SourceKindURL
	}
	return nlmtypes.SourceKindText
}

// DeleteSource removes one source from a notebook.
func (c *Client) DeleteSource(ctx context.Context, notebookID, sourceID string) error {
	if _, err := c.Call(ctx, rpcDeleteSource, []any{[][]string{{sourceID}}, notebookID}); err != nil {
		return nlmerrors.NewError("deleteSource", err).WithNotebook(notebookID).WithSource(sourceID)
	}
	return nil
}

// RenameSource changes a source's display title.
func (c *Client) RenameSource(ctx context.Context, notebookID, sourceID, title string) error {
	if title == "" {
		return nlmerrors.NewError("renameSource",
			fmt.Errorf("%w: empty title", nlmerrors.ErrInvalidInput)).WithNotebook(notebookID).WithSource(sourceID)
	}
	if _, err := c.Call(ctx, rpcRenameSource, []any{[]string{sourceID}, title}); err != nil {
		return nlmerrors.NewError("renameSource", err).WithNotebook(notebookID).WithSource(sourceID)
	}
	return nil
}

// RefreshSource asks the backend to re-fetch a URL-backed source.
func (c *Client) RefreshSource(ctx context.Context, notebookID, sourceID string) error {
	if _, err := c.Call(ctx, rpcRefreshSource, []any{[]string{sourceID}, notebookID}); err != nil {
		return nlmerrors.NewError("refreshSource", err).WithNotebook(notebookID).WithSource(sourceID)
	}
	return nil
}

// sniffContentType detects the content type from the file's leading bytes,
// falling back to the path extension. The file is rewound before returning.
func sniffContentType(path string, file interface {
	Read(p []byte) (int, error)
	Seek(offset int64, whence int) (int64, error)
},
) string {
	const fallback = "application/octet-stream"

	buf := make([]byte, 512)
	n, _ := file.Read(buf)
	if _, err := file.Seek(0, 0); err != nil {
		return fallback
	}
	if n > 0 {
		if mt := mimetype.Detect(buf[:n]); mt != nil && mt.String() != fallback {
			return mt.String()
		}
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			return byExt
		}
	}
	return fallback
}
