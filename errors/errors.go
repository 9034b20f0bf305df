// Package errors provides error types and handling for NotebookLM RPC operations.
package errors

import (
	"errors"
	"fmt"
)

// Error represents a NotebookLM operation error with context about the
// operation that failed. It wraps the underlying transport or codec error
// with additional context for better debugging.
type Error struct {
	// Op is the operation that failed (e.g., "call", "addFiles", "waitForArtifact")
	Op string

	// Notebook is the notebook ID (if applicable)
	Notebook string

	// Source is the source ID or local file path (if applicable)
	Source string

	// Err is the underlying error
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	if e.Notebook != "" && e.Source != "" {
		return fmt.Sprintf("notebooklm.%s %s/%s: %v", e.Op, e.Notebook, e.Source, e.Err)
	}
	if e.Notebook != "" {
		return fmt.Sprintf("notebooklm.%s notebook %s: %v", e.Op, e.Notebook, e.Err)
	}
	if e.Source != "" {
		return fmt.Sprintf("notebooklm.%s source %s: %v", e.Op, e.Source, e.Err)
	}
	return fmt.Sprintf("notebooklm.%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithNotebook adds notebook context to an existing error.
func (e *Error) WithNotebook(notebookID string) *Error {
	e.Notebook = notebookID
	return e
}

// WithSource adds source context to an existing error.
func (e *Error) WithSource(source string) *Error {
	e.Source = source
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// RPCError is a server-reported RPC failure: the response carried an
// "er"-tagged chunk for the request's correlation id. It is generally not
// retryable without changing the request.
type RPCError struct {
	// RPCID is the correlation id of the failed call
	RPCID string

	// Message is the server's error payload when it was a string
	Message string

	// Code is the server's error payload when it was numeric (status-code-like)
	Code int
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("rpc %s: %s", e.RPCID, e.Message)
	}
	return fmt.Sprintf("rpc %s: server error code %d", e.RPCID, e.Code)
}

// Sentinel errors for NotebookLM operation failures.
// These can be used with errors.Is() for error checking.
var (
	// ErrTransport indicates a connection or HTTP-layer failure. Retryable
	// by caller policy; the client itself never retries.
	ErrTransport = errors.New("notebooklm: transport error")

	// ErrNoResult indicates that no chunk in a decoded response matched the
	// request's correlation id. A codec or protocol version mismatch.
	ErrNoResult = errors.New("notebooklm: no result found for rpc id")

	// ErrRegistrationFailed indicates that batch source registration returned
	// nothing usable; the whole upload batch aborts before any upload I/O.
	ErrRegistrationFailed = errors.New("notebooklm: source registration failed")

	// ErrUploadURLMissing indicates the resumable upload handshake response
	// did not expose an upload session URL.
	ErrUploadURLMissing = errors.New("notebooklm: upload session URL missing")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("notebooklm: invalid input")

	// ErrMissingCookies indicates the credential storage lacks the minimum
	// required Google auth cookies.
	ErrMissingCookies = errors.New("notebooklm: missing required cookies")

	// ErrTokenNotFound indicates a CSRF token or session id could not be
	// extracted from the application page.
	ErrTokenNotFound = errors.New("notebooklm: token not found")
)

// IsTransport checks if an error indicates a transport-layer failure.
// This is a convenience function that handles wrapped errors.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsNoResult checks if an error indicates that no chunk matched the rpc id.
// This is a convenience function that handles wrapped errors.
func IsNoResult(err error) bool {
	return errors.Is(err, ErrNoResult)
}

// AsRPCError extracts a server-reported RPC error from an error chain.
func AsRPCError(err error) (*RPCError, bool) {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr, true
	}
	return nil, false
}
