// Package upload handles the batch upload pipeline: local validation, batch
// registration, and the parallel resumable-upload data phase.
//
// Registration is one RPC for the whole batch; data transfers run under a
// concurrency limit.
package upload

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/input-output-hk/catalyst-forge-libs/fs"

	nlmerrors "github.com/shouta-dev/notebooklm-go/errors"
	"github.com/shouta-dev/notebooklm-go/internal/jsontree"
	"github.com/shouta-dev/notebooklm-go/internal/rpcapi"
	"github.com/shouta-dev/notebooklm-go/nlmtypes"
)

// DefaultContentType is used when content sniffing and extension lookup both fail.
const DefaultContentType = "application/octet-stream"

// defaultConcurrency bounds parallel data transfers when the caller does not set one.
const defaultConcurrency = 3

// Coordinator runs a batch of file uploads against one notebook: a single
// registration RPC for the whole batch, then bounded-parallel data transfers.
type Coordinator struct {
	rpc     rpcapi.API
	uploads rpcapi.UploadAPI
	fsys    fs.Filesystem

	// registerRPCID correlates the batch registration call
	registerRPCID string

	// Concurrency control
	maxConcurrency int
	semaphore      chan struct{}

	// Progress tracking
	progress nlmtypes.ProgressFunc

	// contentType, when set, overrides sniffing for every file in the batch
	contentType string
}

// NewCoordinator creates a coordinator with the specified concurrency limit.
func NewCoordinator(
	rpc rpcapi.API,
	uploads rpcapi.UploadAPI,
	fsys fs.Filesystem,
	registerRPCID string,
	maxConcurrency int,
) *Coordinator {
	if maxConcurrency <= 0 {
		maxConcurrency = defaultConcurrency
	}

	return &Coordinator{
		rpc:            rpc,
		uploads:        uploads,
		fsys:           fsys,
		registerRPCID:  registerRPCID,
		maxConcurrency: maxConcurrency,
		semaphore:      make(chan struct{}, maxConcurrency),
	}
}

// WithProgress sets the progress observer for the coordinator.
func (c *Coordinator) WithProgress(fn nlmtypes.ProgressFunc) *Coordinator {
	c.progress = fn
	return c
}

// WithContentType forces a content type for every file instead of sniffing.
func (c *Coordinator) WithContentType(contentType string) *Coordinator {
	c.contentType = contentType
	return c
}

// task is one file moving through the pipeline.
type task struct {
	path     string
	name     string
	size     int64
	sourceID string
}

// UploadAll uploads the given files into the notebook. It validates every
// path locally before touching the backend, registers the whole batch in one
// RPC, then transfers file content in parallel.
//
// Files that fail to transfer are reported through the progress observer and
// omitted from the result; the returned error is non-nil only when no file
// succeeded. An empty path list returns an empty result without any backend
// traffic.
func (c *Coordinator) UploadAll(
	ctx context.Context,
	notebookID string,
	paths []string,
) ([]nlmtypes.Source, error) {
	if len(paths) == 0 {
		return []nlmtypes.Source{}, nil
	}

	// Validate the whole batch before the first RPC so a bad path costs
	// nothing remotely.
	tasks := make([]*task, 0, len(paths))
	for _, path := range paths {
		info, err := c.fsys.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s: %w: is a directory", path, nlmerrors.ErrInvalidInput)
		}
		tasks = append(tasks, &task{
			path: path,
			name: filepath.Base(path),
			size: info.Size(),
		})
		c.report(path, nlmtypes.UploadPending)
	}

	if err := c.register(ctx, notebookID, tasks); err != nil {
		return nil, err
	}

	return c.transferAll(ctx, notebookID, tasks)
}

// register performs the single batch registration RPC and assigns the
// allocated source id to each task, positionally.
func (c *Coordinator) register(ctx context.Context, notebookID string, tasks []*task) error {
	names := make([][]string, len(tasks))
	for i, t := range tasks {
		names[i] = []string{t.name}
		c.report(t.path, nlmtypes.UploadRegistering)
	}

	result, err := c.rpc.Call(ctx, c.registerRPCID, []any{names, notebookID})
	if err != nil {
		return fmt.Errorf("register sources: %w", err)
	}

	entries, ok := jsontree.At(result, 0).([]any)
	if !ok || len(entries) != len(tasks) {
		return fmt.Errorf("%w: expected %d source entries, got %v",
			nlmerrors.ErrRegistrationFailed, len(tasks), jsontree.At(result, 0))
	}

	for i, t := range tasks {
		id, ok := jsontree.String(entries[i], 0, 0)
		if !ok || id == "" {
			return fmt.Errorf("%w: no id for %s", nlmerrors.ErrRegistrationFailed, t.name)
		}
		t.sourceID = id
		c.report(t.path, nlmtypes.UploadRegistered)
	}

	return nil
}

// transferAll runs the data phase with controlled concurrency. Results come
// back in submission order regardless of completion order.
func (c *Coordinator) transferAll(
	ctx context.Context,
	notebookID string,
	tasks []*task,
) ([]nlmtypes.Source, error) {
	var wg sync.WaitGroup
	taskErrs := make([]error, len(tasks))

	for i, t := range tasks {
		// Acquire semaphore. On cancellation, drain the transfers already
		// launched so no progress callback fires after this call returns.
		select {
		case c.semaphore <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return nil, fmt.Errorf("context cancelled during semaphore acquisition: %w", ctx.Err())
		}

		wg.Add(1)
		go func(i int, t *task) {
			defer func() {
				<-c.semaphore
				wg.Done()
			}()

			c.report(t.path, nlmtypes.UploadUploading)
			if err := c.transferOne(ctx, notebookID, t); err != nil {
				taskErrs[i] = err
				c.report(t.path, nlmtypes.UploadFailed)
				return
			}
			c.report(t.path, nlmtypes.UploadDone)
		}(i, t)
	}

	wg.Wait()

	sources := make([]nlmtypes.Source, 0, len(tasks))
	var firstErr error
	for i, t := range tasks {
		if taskErrs[i] != nil {
			if firstErr == nil {
				firstErr = taskErrs[i]
			}
			continue
		}
		sources = append(sources, nlmtypes.Source{
			ID:    t.sourceID,
			Title: t.name,
			Kind:  nlmtypes.SourceKindFile,
		})
	}

	if len(sources) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return sources, nil
}

// transferOne runs the resumable handshake and streams one file's content.
func (c *Coordinator) transferOne(ctx context.Context, notebookID string, t *task) error {
	sessionURL, err := c.uploads.StartSession(ctx, &rpcapi.StartSessionRequest{
		NotebookID: notebookID,
		FileName:   t.name,
		SourceID:   t.sourceID,
		Size:       t.size,
	})
	if err != nil {
		return fmt.Errorf("start upload session for %s: %w", t.name, err)
	}

	file, err := c.fsys.Open(t.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", t.path, err)
	}
	defer file.Close()

	contentType := c.contentType
	if contentType == "" {
		contentType = c.detectContentType(t.path, file)
	}

	if err := c.uploads.Put(ctx, sessionURL, file, t.size, contentType); err != nil {
		return fmt.Errorf("upload %s: %w", t.name, err)
	}
	return nil
}

// detectContentType sniffs the open file's leading bytes, falling back to the
// path extension. The file is rewound before returning.
func (c *Coordinator) detectContentType(path string, file fs.File) string {
	buf := make([]byte, 512)
	n, _ := file.Read(buf)
	if _, err := file.Seek(0, 0); err != nil {
		return c.detectContentTypeFromExtension(path)
	}
	if n > 0 {
		if mt := mimetype.Detect(buf[:n]); mt != nil && mt.String() != DefaultContentType {
			return mt.String()
		}
	}
	return c.detectContentTypeFromExtension(path)
}

func (c *Coordinator) detectContentTypeFromExtension(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			return byExt
		}
	}
	return DefaultContentType
}

// report notifies the progress observer when one is set.
func (c *Coordinator) report(path string, status nlmtypes.UploadStatus) {
	if c.progress != nil {
		c.progress(path, status)
	}
}
