package notebooklm

import (
	"context"
	"fmt"

	nlmerrors "github.com/shouta-dev/notebooklm-go/errors"
	"github.com/shouta-dev/notebooklm-go/internal/jsontree"
	"github.com/shouta-dev/notebooklm-go/nlmtypes"
)

// Notebook entry layout in list/get/create responses:
// [title, sources, id, emoji, null, metadata]. Only title and id are stable
// across protocol revisions; everything else is ignored.
const (
	notebookTitleIdx = 0
	notebookIDIdx    = 2
)

// ListNotebooks returns all notebooks visible to the authenticated account.
func (c *Client) ListNotebooks(ctx context.Context) ([]nlmtypes.Notebook, error) {
	result, err := c.Call(ctx, rpcListNotebooks, []any{nil, 1})
	if err != nil {
		return nil, nlmerrors.NewError("listNotebooks", err)
	}

	entries, _ := jsontree.At(result, 0).([]any)
	notebooks := make([]nlmtypes.Notebook, 0, len(entries))
	for _, entry := range entries {
		id, ok := jsontree.String(entry, notebookIDIdx)
		if !ok {
			continue
		}
		title, _ := jsontree.String(entry, notebookTitleIdx)
		notebooks = append(notebooks, nlmtypes.Notebook{ID: id, Title: title})
	}
	return notebooks, nil
}

// CreateNotebook creates an empty notebook with the given title.
func (c *Client) CreateNotebook(ctx context.Context, title string) (nlmtypes.Notebook, error) {
	if title == "" {
		return nlmtypes.Notebook{}, nlmerrors.NewError("createNotebook",
			fmt.Errorf("%w: empty title", nlmerrors.ErrInvalidInput))
	}

	result, err := c.Call(ctx, rpcCreateNotebook, []any{title, nil})
	if err != nil {
		return nlmtypes.Notebook{}, nlmerrors.NewError("createNotebook", err)
	}

	id, ok := jsontree.String(result, notebookIDIdx)
	if !ok {
		return nlmtypes.Notebook{}, nlmerrors.NewError("createNotebook",
			fmt.Errorf("no notebook id in response"))
	}
	if t, ok := jsontree.String(result, notebookTitleIdx); ok {
		title = t
	}
	return nlmtypes.Notebook{ID: id, Title: title}, nil
}

// GetNotebook fetches one notebook by id.
func (c *Client) GetNotebook(ctx context.Context, notebookID string) (nlmtypes.Notebook, error) {
	result, err := c.Call(ctx, rpcGetNotebook, []any{notebookID})
	if err != nil {
		return nlmtypes.Notebook{}, nlmerrors.NewError("getNotebook", err).WithNotebook(notebookID)
	}

	entry := jsontree.At(result, 0)
	id, ok := jsontree.String(entry, notebookIDIdx)
	if !ok {
		return nlmtypes.Notebook{}, nlmerrors.NewError("getNotebook",
			fmt.Errorf("no notebook entry in response")).WithNotebook(notebookID)
	}
	title, _ := jsontree.String(entry, notebookTitleIdx)
	return nlmtypes.Notebook{ID: id, Title: title}, nil
}

// DeleteNotebook removes a notebook and everything in it.
func (c *Client) DeleteNotebook(ctx context.Context, notebookID string) error {
	if _, err := c.Call(ctx, rpcDeleteNotebook, []any{[]string{notebookID}}); err != nil {
		return nlmerrors.NewError("deleteNotebook", err).WithNotebook(notebookID)
	}
	return nil
}

// RenameNotebook changes a notebook's title and returns the updated notebook.
func (c *Client) RenameNotebook(ctx context.Context, notebookID, title string) (nlmtypes.Notebook, error) {
	if title == "" {
		return nlmtypes.Notebook{}, nlmerrors.NewError("renameNotebook",
			fmt.Errorf("%w: empty title", nlmerrors.ErrInvalidInput)).WithNotebook(notebookID)
	}
	// The rename RPC itself answers null; fetch the notebook back for the
	// caller.
	if _, err := c.Call(ctx, rpcRenameNotebook, []any{notebookID, title}); err != nil {
		return nlmtypes.Notebook{}, nlmerrors.NewError("renameNotebook", err).WithNotebook(notebookID)
	}
	return c.GetNotebook(ctx, notebookID)
}

// NotebookSummary returns the backend-generated summary text for a notebook.
func (c *Client) NotebookSummary(ctx context.Context, notebookID string) (string, error) {
	result, err := c.Call(ctx, rpcNotebookSummary, []any{notebookID})
	if err != nil {
		return "", nlmerrors.NewError("notebookSummary", err).WithNotebook(notebookID)
	}
	summary, _ := jsontree.String(result, 0)
	return summary, nil
}
