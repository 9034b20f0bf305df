// Package notebooklm is a client for Google NotebookLM's private
// batchexecute-style RPC backend.
//
// The Client speaks the protocol's three layers: the form-encoded request
// envelope and chunked anti-XSSI response codec, the shared RPC endpoint
// routed by correlation id, and the resumable upload transport for file
// sources. Higher-level operations (notebooks, sources, artifacts) are thin
// typed wrappers over those layers.
//
// Authentication material (Google cookies, CSRF token) must be acquired
// outside this module — typically from a browser session — and supplied as
// Credentials. See LoadCredentials for the browser storage-state format.
package notebooklm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/fs"
	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"
	"golang.org/x/time/rate"

	nlmerrors "github.com/shouta-dev/notebooklm-go/errors"
	"github.com/shouta-dev/notebooklm-go/internal/batchexecute"
	"github.com/shouta-dev/notebooklm-go/internal/rpcapi"
	"github.com/shouta-dev/notebooklm-go/nlmtypes"
)

// defaultTimeout bounds one HTTP exchange. Generation RPCs can be slow.
const defaultTimeout = 2 * time.Minute

// defaultConcurrency bounds parallel upload sessions per batch.
const defaultConcurrency = 3

// Client is an authenticated connection to the NotebookLM backend.
// It is safe for concurrent use.
type Client struct {
	creds *nlmtypes.Credentials

	httpClient    *http.Client
	baseURL       string
	uploadBaseURL string
	concurrency   int

	// fs is the filesystem abstraction for file operations
	fs fs.Filesystem

	// limiter throttles RPC calls when rate limiting is enabled
	limiter *rate.Limiter

	// reqid generates the monotonically spaced _reqid values the endpoint
	// expects: a per-session base plus 100000 per subsequent request.
	reqidBase int64
	reqidSeq  atomic.Int64
}

// Compile-time checks that Client satisfies the backend interfaces the
// operation pipelines consume.
var (
	_ rpcapi.API       = (*Client)(nil)
	_ rpcapi.UploadAPI = (*Client)(nil)
)

// New creates a client with the provided credentials and options.
//
// Example:
//
//	client, err := notebooklm.New(creds,
//	    notebooklm.WithConcurrency(5),
//	    notebooklm.WithRateLimit(2, 1),
//	)
func New(creds *nlmtypes.Credentials, opts ...nlmtypes.Option) (*Client, error) {
	if creds == nil || len(creds.Cookies) == 0 {
		return nil, nlmerrors.NewError("new", nlmerrors.ErrMissingCookies)
	}

	cfg := &nlmtypes.ClientConfig{
		BaseURL:       DefaultBaseURL,
		UploadBaseURL: DefaultUploadBaseURL,
		Timeout:       defaultTimeout,
		Concurrency:   defaultConcurrency,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	filesystem := cfg.Filesystem
	if filesystem == nil {
		filesystem = billy.NewOSFS("/")
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	return &Client{
		creds:         creds,
		httpClient:    httpClient,
		baseURL:       strings.TrimSuffix(cfg.BaseURL, "/"),
		uploadBaseURL: cfg.UploadBaseURL,
		concurrency:   concurrency,
		fs:            filesystem,
		limiter:       limiter,
		reqidBase:     time.Now().UnixNano()%90000 + 10000,
	}, nil
}

// Call invokes one remote method: encode the positional params into the
// request envelope, POST it to the shared endpoint, and decode the chunk
// stream for the method's correlation id.
//
// Connection and non-2xx failures surface as ErrTransport. A server-reported
// failure for the id surfaces as *errors.RPCError, and a response with no
// matching chunk as ErrNoResult; neither is retryable without changing the
// request, so the client never retries on its own.
func (c *Client) Call(ctx context.Context, rpcID string, params any) (any, error) {
	env, err := batchexecute.Encode(rpcID, params)
	if err != nil {
		return nil, nlmerrors.NewError("call", err)
	}
	body, err := batchexecute.BuildBody([]batchexecute.Envelope{env}, c.creds.CSRFToken, c.creds.SessionID)
	if err != nil {
		return nil, nlmerrors.NewError("call", err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, nlmerrors.NewError("call", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL(rpcID), strings.NewReader(body))
	if err != nil {
		return nil, nlmerrors.NewError("call", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=UTF-8")
	req.Header.Set("Cookie", c.creds.CookieHeader())
	req.Header.Set("X-Same-Domain", "1")
	req.Header.Set("Origin", c.baseURL)
	req.Header.Set("Referer", c.baseURL+"/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nlmerrors.NewError("call", fmt.Errorf("%w: %v", nlmerrors.ErrTransport, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nlmerrors.NewError("call",
			fmt.Errorf("%w: unexpected status %d", nlmerrors.ErrTransport, resp.StatusCode))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nlmerrors.NewError("call", fmt.Errorf("%w: %v", nlmerrors.ErrTransport, err))
	}

	result, err := batchexecute.Decode(string(raw), rpcID)
	if err != nil {
		return nil, nlmerrors.NewError("call", err)
	}
	return result, nil
}

// rpcURL builds the endpoint URL for one call. The correlation id rides in
// the query string alongside the request counter.
func (c *Client) rpcURL(rpcID string) string {
	seq := c.reqidSeq.Add(1) - 1
	q := url.Values{
		"rpcids":      {rpcID},
		"source-path": {"/"},
		"_reqid":      {strconv.FormatInt(c.reqidBase+100000*seq, 10)},
		"rt":          {"c"},
	}
	return c.baseURL + batchExecutePath + "?" + q.Encode()
}

// StartSession opens a resumable upload for one registered source. The
// backend answers the handshake with the session URL in the
// x-goog-upload-url header; its absence is a hard failure for this file.
func (c *Client) StartSession(ctx context.Context, req *rpcapi.StartSessionRequest) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"PROJECT_ID":  req.NotebookID,
		"SOURCE_NAME": req.FileName,
		"SOURCE_ID":   req.SourceID,
	})
	if err != nil {
		return "", nlmerrors.NewError("startUpload", err)
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadBaseURL, bytes.NewReader(payload))
	if err != nil {
		return "", nlmerrors.NewError("startUpload", err)
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Cookie", c.creds.CookieHeader())
	hreq.Header.Set("x-goog-upload-command", "start")
	hreq.Header.Set("x-goog-upload-protocol", "resumable")
	hreq.Header.Set("x-goog-upload-header-content-length", strconv.FormatInt(req.Size, 10))

	resp, err := c.httpClient.Do(hreq)
	if err != nil {
		return "", nlmerrors.NewError("startUpload", fmt.Errorf("%w: %v", nlmerrors.ErrTransport, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", nlmerrors.NewError("startUpload",
			fmt.Errorf("%w: unexpected status %d", nlmerrors.ErrTransport, resp.StatusCode))
	}

	sessionURL := resp.Header.Get("x-goog-upload-url")
	if sessionURL == "" {
		return "", nlmerrors.NewError("startUpload", nlmerrors.ErrUploadURLMissing)
	}
	return sessionURL, nil
}

// Put streams file content to an upload session URL, finalizing in one shot
// at offset zero. The body is read incrementally, never buffered whole.
func (c *Client) Put(
	ctx context.Context,
	sessionURL string,
	body io.Reader,
	size int64,
	contentType string,
) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sessionURL, body)
	if err != nil {
		return nlmerrors.NewError("upload", err)
	}
	req.ContentLength = size
	req.Header.Set("Cookie", c.creds.CookieHeader())
	req.Header.Set("x-goog-upload-command", "upload, finalize")
	req.Header.Set("x-goog-upload-offset", "0")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nlmerrors.NewError("upload", fmt.Errorf("%w: %v", nlmerrors.ErrTransport, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nlmerrors.NewError("upload",
			fmt.Errorf("%w: unexpected status %d", nlmerrors.ErrTransport, resp.StatusCode))
	}
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// SetFilesystem replaces the filesystem implementation. Useful for tests
// that stage upload content in memory.
func (c *Client) SetFilesystem(filesystem fs.Filesystem) {
	c.fs = filesystem
}

// Close releases any resources held by the client.
// Currently a no-op but included for future extensibility.
func (c *Client) Close() error {
	return nil
}
