package notebooklm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nlmerrors "github.com/shouta-dev/notebooklm-go/errors"
	"github.com/shouta-dev/notebooklm-go/internal/jsontree"
	"github.com/shouta-dev/notebooklm-go/nlmtypes"
)

func TestExtractYouTubeVideoID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
		ok   bool
	}{
		{"short url", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"short url http", "http://youtu.be/abc123_XYZ", "abc123_XYZ", true},
		{"standard watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"watch url no www", "https://youtube.com/watch?v=abc123-_XY", "abc123-_XY", true},
		{"shorts url", "https://www.youtube.com/shorts/abc123DEF", "abc123DEF", true},
		{"shorts url no www", "https://youtube.com/shorts/xyz789", "xyz789", true},
		{"hyphens and underscores", "https://youtu.be/a-b_c-D_E-f", "a-b_c-D_E-f", true},
		{"non-youtube", "https://example.com/video", "", false},
		{"invalid youtube path", "https://youtube.com/invalid/format", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractYouTubeVideoID(tt.url)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddURL_YouTubeParamsLayout(t *testing.T) {
	var body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		fmt.Fprint(w, buildRPCResponse(t, rpcAddSource, []any{[]any{[]any{"src_yt"}, "YouTube Video"}}))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	source, err := client.AddURL(context.Background(), "nb_123", "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)

	assert.Equal(t, "src_yt", source.ID)
	assert.Equal(t, nlmtypes.SourceKindYouTube, source.Kind)

	params := decodeEnvelopeParams(t, body)
	// YouTube layout: url at [0][0][7], indicator 1 at [0][0][10].
	assert.Equal(t, []any{"https://youtu.be/dQw4w9WgXcQ"}, jsontree.At(params, 0, 0, 7))
	assert.Equal(t, float64(1), jsontree.At(params, 0, 0, 10))
	assert.Equal(t, "nb_123", jsontree.At(params, 1))
}

func TestAddURL_PlainURLParamsLayout(t *testing.T) {
	var body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		fmt.Fprint(w, buildRPCResponse(t, rpcAddSource, []any{[]any{[]any{"src_url"}, "Example Site"}}))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	source, err := client.AddURL(context.Background(), "nb_123", "https://example.com/article")
	require.NoError(t, err)

	assert.Equal(t, "src_url", source.ID)
	assert.Equal(t, nlmtypes.SourceKindURL, source.Kind)
	assert.Equal(t, "Example Site", source.Title)

	params := decodeEnvelopeParams(t, body)
	// Plain layout: url at [0][0][2], no YouTube indicator.
	assert.Equal(t, []any{"https://example.com/article"}, jsontree.At(params, 0, 0, 2))
}

func TestAddURL_EmptyURL(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:0")
	_, err := client.AddURL(context.Background(), "nb_123", "")
	assert.ErrorIs(t, err, nlmerrors.ErrInvalidInput)
}

// uploadBackend is an httptest handler covering the full upload pipeline:
// registration RPC, resumable handshake, and the data phase.
type uploadBackend struct {
	mu           sync.Mutex
	registration any
	uploaded     map[string][]byte
}

func newUploadBackend(registration any) *uploadBackend {
	return &uploadBackend{registration: registration, uploaded: make(map[string][]byte)}
}

func (b *uploadBackend) handler(t *testing.T, serverURL func() string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == batchExecutePath:
			fmt.Fprint(w, buildRPCResponse(t, rpcAddSource, b.registration))
		case r.URL.Path == "/upload":
			sourceID := "unknown"
			var body map[string]string
			data, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(data, &body); err == nil {
				sourceID = body["SOURCE_ID"]
			}
			w.Header().Set("x-goog-upload-url", serverURL()+"/session/"+sourceID)
		default: // data phase
			data, _ := io.ReadAll(r.Body)
			b.mu.Lock()
			b.uploaded[r.URL.Path] = data
			b.mu.Unlock()
		}
	}
}

func TestAddFiles_EndToEnd(t *testing.T) {
	backend := newUploadBackend([]any{
		[]any{
			[]any{[]any{"src_a"}, "a.md", []any{}},
			[]any{[]any{"src_b"}, "b.md", []any{}},
		},
		nil, nil,
	})

	var server *httptest.Server
	server = httptest.NewServer(backend.handler(t, func() string { return server.URL }))
	defer server.Close()

	fsys := billy.NewInMemoryFS()
	require.NoError(t, fsys.WriteFile("a.md", []byte("alpha"), 0o644))
	require.NoError(t, fsys.WriteFile("b.md", []byte("bravo"), 0o644))

	client := newTestClient(t, server.URL, WithFilesystem(fsys))
	sources, err := client.AddFiles(context.Background(), "nb_123", []string{"a.md", "b.md"})
	require.NoError(t, err)

	require.Len(t, sources, 2)
	assert.Equal(t, "src_a", sources[0].ID)
	assert.Equal(t, "a.md", sources[0].Title)
	assert.Equal(t, "src_b", sources[1].ID)

	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Equal(t, []byte("alpha"), backend.uploaded["/session/src_a"])
	assert.Equal(t, []byte("bravo"), backend.uploaded["/session/src_b"])
}

func TestAddFiles_ProgressObserved(t *testing.T) {
	backend := newUploadBackend([]any{[]any{[]any{[]any{"src_a"}, "a.md", []any{}}}, nil, nil})

	var server *httptest.Server
	server = httptest.NewServer(backend.handler(t, func() string { return server.URL }))
	defer server.Close()

	fsys := billy.NewInMemoryFS()
	require.NoError(t, fsys.WriteFile("a.md", []byte("alpha"), 0o644))

	var mu sync.Mutex
	var statuses []nlmtypes.UploadStatus
	progress := func(_ string, status nlmtypes.UploadStatus) {
		mu.Lock()
		statuses = append(statuses, status)
		mu.Unlock()
	}

	client := newTestClient(t, server.URL, WithFilesystem(fsys))
	_, err := client.AddFiles(context.Background(), "nb_123", []string{"a.md"}, WithProgress(progress))
	require.NoError(t, err)

	assert.Equal(t, []nlmtypes.UploadStatus{
		nlmtypes.UploadPending,
		nlmtypes.UploadRegistering,
		nlmtypes.UploadRegistered,
		nlmtypes.UploadUploading,
		nlmtypes.UploadDone,
	}, statuses)
}

func TestAddFile_DeepNestedRegistrationID(t *testing.T) {
	// Single-file registration buries the id several levels deep.
	backend := newUploadBackend([]any{[]any{[]any{[]any{"src_new_123"}}}})

	var server *httptest.Server
	server = httptest.NewServer(backend.handler(t, func() string { return server.URL }))
	defer server.Close()

	fsys := billy.NewInMemoryFS()
	require.NoError(t, fsys.WriteFile("test.pdf", []byte("%PDF-1.7 content"), 0o644))

	client := newTestClient(t, server.URL, WithFilesystem(fsys))
	source, err := client.AddFile(context.Background(), "nb_123", "test.pdf")
	require.NoError(t, err)

	assert.Equal(t, "src_new_123", source.ID)
	assert.Equal(t, "test.pdf", source.Title)

	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Equal(t, []byte("%PDF-1.7 content"), backend.uploaded["/session/src_new_123"])
}

func TestAddFile_MissingFile(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:0", WithFilesystem(billy.NewInMemoryFS()))
	_, err := client.AddFile(context.Background(), "nb_123", "missing.pdf")
	require.Error(t, err)
}

func TestAddFile_NonStringRegistrationID(t *testing.T) {
	backend := newUploadBackend([]any{[]any{[]any{[]any{float64(12345)}}}})

	var server *httptest.Server
	server = httptest.NewServer(backend.handler(t, func() string { return server.URL }))
	defer server.Close()

	fsys := billy.NewInMemoryFS()
	require.NoError(t, fsys.WriteFile("test.pdf", []byte("x"), 0o644))

	client := newTestClient(t, server.URL, WithFilesystem(fsys))
	_, err := client.AddFile(context.Background(), "nb_123", "test.pdf")

	assert.ErrorIs(t, err, nlmerrors.ErrRegistrationFailed)
}

func TestListSources_Classification(t *testing.T) {
	urlMeta := []any{nil, 11, []any{1704067200, 0}, nil, 5, nil, nil, []any{"https://example.com"}}
	ytMeta := []any{nil, 11, []any{1704240000, 0}, nil, 5, nil, nil, []any{"https://youtube.com/watch?v=abc"}}
	textMeta := []any{nil, 0, []any{1704153600, 0}}

	server := rpcServer(t, map[string]any{
		rpcGetNotebook: []any{notebookEntry("Test Notebook", "nb_123", []any{
			[]any{[]any{"src_001"}, "My Article", urlMeta, []any{nil, 2}},
			[]any{[]any{"src_002"}, "My Text", textMeta, []any{nil, 2}},
			[]any{[]any{"src_003"}, "YouTube Video", ytMeta, []any{nil, 2}},
		})},
	})
	defer server.Close()

	client := newTestClient(t, server.URL)
	sources, err := client.ListSources(context.Background(), "nb_123")
	require.NoError(t, err)

	require.Len(t, sources, 3)
	assert.Equal(t, "src_001", sources[0].ID)
	assert.Equal(t, nlmtypes.SourceKindURL, sources[0].Kind)
	assert.Equal(t, nlmtypes.SourceKindText, sources[1].Kind)
	assert.Equal(t, nlmtypes.SourceKindYouTube, sources[2].Kind)
}

func TestListSources_EmptyNotebook(t *testing.T) {
	server := rpcServer(t, map[string]any{
		rpcGetNotebook: []any{notebookEntry("Empty Notebook", "nb_123", []any{})},
	})
	defer server.Close()

	client := newTestClient(t, server.URL)
	sources, err := client.ListSources(context.Background(), "nb_123")

	require.NoError(t, err)
	assert.Empty(t, sources)
}

func TestDeleteSource(t *testing.T) {
	server := rpcServer(t, map[string]any{rpcDeleteSource: []any{true}})
	defer server.Close()

	client := newTestClient(t, server.URL)
	assert.NoError(t, client.DeleteSource(context.Background(), "nb_123", "source_456"))
}

func TestRenameSource_EmptyTitle(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:0")
	err := client.RenameSource(context.Background(), "nb_123", "src_1", "")
	assert.ErrorIs(t, err, nlmerrors.ErrInvalidInput)
}
