// Package testutil provides test utilities and mocks for backend operations.
// This package is internal and should only be used for testing within the module.
package testutil

import (
	"context"
	"io"
	"sync"

	"github.com/shouta-dev/notebooklm-go/internal/rpcapi"
)

// MockAPI is a mock implementation of the rpcapi.API interface for testing.
// It allows customization through function fields and records every call.
// Recording is mutex-guarded so mocks can be driven from concurrent pipelines.
type MockAPI struct {
	CallFunc func(ctx context.Context, rpcID string, params any) (any, error)

	mu sync.Mutex

	// Calls records the rpcID and params of each invocation, in order.
	Calls []RecordedCall
}

// RecordedCall is one recorded API invocation.
type RecordedCall struct {
	RPCID  string
	Params any
}

// Call mocks an RPC exchange.
func (m *MockAPI) Call(ctx context.Context, rpcID string, params any) (any, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, RecordedCall{RPCID: rpcID, Params: params})
	m.mu.Unlock()
	if m.CallFunc != nil {
		return m.CallFunc(ctx, rpcID, params)
	}
	return nil, nil
}

// MockUploadAPI is a mock implementation of the rpcapi.UploadAPI interface.
// The coordinator calls it from several transfer goroutines at once, so
// recording is mutex-guarded.
type MockUploadAPI struct {
	StartSessionFunc func(ctx context.Context, req *rpcapi.StartSessionRequest) (string, error)
	PutFunc          func(ctx context.Context, sessionURL string, body io.Reader, size int64, contentType string) (err error)

	mu sync.Mutex

	// StartSessions records every handshake request, in completion order.
	StartSessions []*rpcapi.StartSessionRequest

	// Puts records every data-phase call, in completion order.
	Puts []RecordedPut
}

// RecordedPut is one recorded data-phase invocation. Body content is read
// eagerly so tests can assert on it after the call returns.
type RecordedPut struct {
	SessionURL  string
	Body        []byte
	Size        int64
	ContentType string
}

// StartSession mocks the resumable upload handshake.
func (m *MockUploadAPI) StartSession(ctx context.Context, req *rpcapi.StartSessionRequest) (string, error) {
	m.mu.Lock()
	m.StartSessions = append(m.StartSessions, req)
	m.mu.Unlock()
	if m.StartSessionFunc != nil {
		return m.StartSessionFunc(ctx, req)
	}
	return "https://upload.example.com/session/" + req.SourceID, nil
}

// Put mocks the resumable upload data phase.
func (m *MockUploadAPI) Put(
	ctx context.Context,
	sessionURL string,
	body io.Reader,
	size int64,
	contentType string,
) error {
	content, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.Puts = append(m.Puts, RecordedPut{
		SessionURL:  sessionURL,
		Body:        content,
		Size:        size,
		ContentType: contentType,
	})
	m.mu.Unlock()
	if m.PutFunc != nil {
		return m.PutFunc(ctx, sessionURL, body, size, contentType)
	}
	return nil
}
