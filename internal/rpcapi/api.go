// Package rpcapi defines the backend-facing interfaces the operation
// pipelines depend on, enabling testing and mocking.
package rpcapi

import (
	"context"
	"io"
)

// API is one authenticated RPC channel to the backend. Call encodes the
// params for the given correlation id, performs the transport exchange, and
// decodes the matching result chunk.
type API interface {
	// Call invokes the remote method identified by rpcID with the given
	// positional params and returns the decoded result payload.
	Call(ctx context.Context, rpcID string, params any) (any, error)
}

// StartSessionRequest declares one resumable upload to the backend.
type StartSessionRequest struct {
	// NotebookID is the target notebook (container) id
	NotebookID string

	// FileName is the display name for the uploaded source
	FileName string

	// SourceID is the placeholder id allocated during registration
	SourceID string

	// Size is the total upload size in bytes
	Size int64
}

// UploadAPI is the resumable-upload transport: a start handshake returning a
// session URL, then a data phase against that URL.
type UploadAPI interface {
	// StartSession opens a resumable upload and returns the session URL the
	// file content must be sent to.
	StartSession(ctx context.Context, req *StartSessionRequest) (string, error)

	// Put streams the file content to the session URL with finalize
	// semantics at offset zero.
	Put(ctx context.Context, sessionURL string, body io.Reader, size int64, contentType string) error
}
