package notebooklm

import (
	"net/http"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/fs"

	"github.com/shouta-dev/notebooklm-go/nlmtypes"
)

// WithHTTPClient sets a custom HTTP client. Useful for proxies, custom
// transports, or test servers.
func WithHTTPClient(client *http.Client) nlmtypes.Option {
	return func(c *nlmtypes.ClientConfig) {
		c.HTTPClient = client
	}
}

// WithBaseURL overrides the RPC endpoint origin. Primarily for tests.
func WithBaseURL(baseURL string) nlmtypes.Option {
	return func(c *nlmtypes.ClientConfig) {
		c.BaseURL = baseURL
	}
}

// WithUploadBaseURL overrides the resumable-upload handshake endpoint.
func WithUploadBaseURL(uploadBaseURL string) nlmtypes.Option {
	return func(c *nlmtypes.ClientConfig) {
		c.UploadBaseURL = uploadBaseURL
	}
}

// WithTimeout sets the per-request HTTP timeout. Ignored when a custom HTTP
// client is supplied.
func WithTimeout(timeout time.Duration) nlmtypes.Option {
	return func(c *nlmtypes.ClientConfig) {
		c.Timeout = timeout
	}
}

// WithConcurrency sets the default number of parallel upload sessions for
// batch uploads. Can be overridden per call with WithUploadConcurrency.
func WithConcurrency(concurrency int) nlmtypes.Option {
	return func(c *nlmtypes.ClientConfig) {
		c.Concurrency = concurrency
	}
}

// WithFilesystem sets the filesystem implementation used for reading upload
// content and credential files. Defaults to the OS filesystem.
func WithFilesystem(filesystem fs.Filesystem) nlmtypes.Option {
	return func(c *nlmtypes.ClientConfig) {
		c.Filesystem = filesystem
	}
}

// WithRateLimit caps outgoing RPC calls at the given rate. The backend
// rate-limits aggressively; a small cap keeps long batch operations from
// tripping it. Zero disables limiting.
func WithRateLimit(callsPerSecond float64, burst int) nlmtypes.Option {
	return func(c *nlmtypes.ClientConfig) {
		c.RateLimit = callsPerSecond
		c.RateBurst = burst
	}
}

// WithUploadConcurrency overrides the client's upload concurrency for one
// batch call.
func WithUploadConcurrency(concurrency int) nlmtypes.UploadOption {
	return func(c *nlmtypes.UploadOptionConfig) {
		c.Concurrency = concurrency
	}
}

// WithProgress registers an observer for upload status transitions.
func WithProgress(fn nlmtypes.ProgressFunc) nlmtypes.UploadOption {
	return func(c *nlmtypes.UploadOptionConfig) {
		c.Progress = fn
	}
}

// WithContentType forces the content type for every file in the batch
// instead of sniffing it from content.
func WithContentType(contentType string) nlmtypes.UploadOption {
	return func(c *nlmtypes.UploadOptionConfig) {
		c.ContentType = contentType
	}
}

// WithPollInterval sets the delay between artifact status checks.
func WithPollInterval(interval time.Duration) nlmtypes.PollOption {
	return func(c *nlmtypes.PollOptionConfig) {
		c.Interval = interval
	}
}

// WithPollTimeout sets the wall-clock deadline for an artifact wait. When it
// elapses the wait returns a timed-out status rather than an error.
func WithPollTimeout(timeout time.Duration) nlmtypes.PollOption {
	return func(c *nlmtypes.PollOptionConfig) {
		c.Timeout = timeout
	}
}
