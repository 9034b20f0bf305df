// Package nlmtypes provides shared type definitions for the NotebookLM module.
package nlmtypes

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/fs"
)

// Notebook represents a NotebookLM notebook (a "project" in the backend's terms).
type Notebook struct {
	// ID is the opaque notebook identifier assigned by the backend
	ID string

	// Title is the user-visible notebook title
	Title string
}

// Source represents a content source attached to a notebook.
type Source struct {
	// ID is the opaque source identifier assigned by the backend
	ID string

	// Title is the source title (for uploads, the file name)
	Title string

	// Kind describes the source type as reported by the backend.
	// Freshly uploaded files are reported as "unknown" until indexing completes.
	Kind string
}

// Source kinds.
const (
	// SourceKindFile is an uploaded local file.
	SourceKindFile = "file"

	// SourceKindURL is a plain web page source.
	SourceKindURL = "url"

	// SourceKindYouTube is a YouTube video source.
	SourceKindYouTube = "youtube"

	// SourceKindText is a pasted text source.
	SourceKindText = "text"
)

// UploadStatus is the lifecycle state of one file inside an upload batch.
type UploadStatus string

// Upload lifecycle states, in transition order.
const (
	// UploadPending means the file has been accepted into the batch but
	// registration has not started yet.
	UploadPending UploadStatus = "pending"

	// UploadRegistering means the batch registration RPC is in flight.
	UploadRegistering UploadStatus = "registering"

	// UploadRegistered means the backend allocated a source ID for the file.
	UploadRegistered UploadStatus = "registered"

	// UploadUploading means the resumable upload session is transferring bytes.
	UploadUploading UploadStatus = "uploading"

	// UploadDone is the terminal success state.
	UploadDone UploadStatus = "done"

	// UploadFailed is the terminal failure state.
	UploadFailed UploadStatus = "failed"
)

// ProgressFunc observes upload status transitions. It is invoked once per
// transition with the local file path and the new status, including terminal
// transitions on failure. Callbacks may be invoked from multiple goroutines
// and must be safe for concurrent use.
type ProgressFunc func(path string, status UploadStatus)

// ArtifactState is the lifecycle state of an asynchronously generated artifact.
type ArtifactState string

// Artifact lifecycle states.
const (
	// ArtifactPending means the generation task has been accepted but not started.
	ArtifactPending ArtifactState = "pending"

	// ArtifactProcessing means the backend is generating the artifact.
	ArtifactProcessing ArtifactState = "processing"

	// ArtifactCompleted is the terminal success state.
	ArtifactCompleted ArtifactState = "completed"

	// ArtifactFailed is the terminal failure state reported by the backend.
	ArtifactFailed ArtifactState = "failed"

	// ArtifactTimedOut means the local wait deadline elapsed before the task
	// reached a terminal state. The backend task may still be running; a fresh
	// wait call remains meaningful.
	ArtifactTimedOut ArtifactState = "timed_out"
)

// Terminal reports whether the state ends a wait loop.
func (s ArtifactState) Terminal() bool {
	return s == ArtifactCompleted || s == ArtifactFailed || s == ArtifactTimedOut
}

// ArtifactStatus is the observed status of one artifact generation task.
type ArtifactStatus struct {
	// TaskID identifies the generation task at the backend
	TaskID string

	// State is the current lifecycle state
	State ArtifactState

	// URL is the artifact download URL, set once the task completes
	URL string

	// Message carries the backend's error description for failed tasks
	Message string
}

// Credentials carries the authentication material for one backend session.
// Acquisition and refresh (browser login) are outside this module; callers
// supply a populated Credentials and own its lifetime.
type Credentials struct {
	// Cookies are the Google auth cookies keyed by cookie name
	Cookies map[string]string

	// CSRFToken is the anti-forgery token ("SNlM0e") extracted from the app page
	CSRFToken string

	// SessionID is the per-page session identifier ("FdrFJe"), optional
	SessionID string
}

// CookieHeader renders the cookies as a Cookie header value. Names are
// emitted in sorted order so the output is deterministic.
func (c *Credentials) CookieHeader() string {
	names := make([]string, 0, len(c.Cookies))
	for name := range c.Cookies {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+c.Cookies[name])
	}
	return strings.Join(pairs, "; ")
}

// Configuration types for functional options

// ClientConfig holds configuration for the NotebookLM client.
type ClientConfig struct {
	BaseURL       string
	UploadBaseURL string
	Timeout       time.Duration
	Concurrency   int
	HTTPClient    *http.Client
	RateLimit     float64 // RPC calls per second, 0 disables limiting
	RateBurst     int
	Filesystem    fs.Filesystem // Filesystem abstraction for file operations
}

// UploadOptionConfig holds per-call configuration for upload operations.
type UploadOptionConfig struct {
	Concurrency int
	Progress    ProgressFunc
	ContentType string
}

// PollOptionConfig holds per-call configuration for artifact wait operations.
type PollOptionConfig struct {
	Interval time.Duration
	Timeout  time.Duration
}

// Option is a functional option for configuring the NotebookLM client.
type (
	Option func(*ClientConfig)
	// UploadOption is a functional option for configuring upload operations.
	UploadOption func(*UploadOptionConfig)
	// PollOption is a functional option for configuring artifact wait operations.
	PollOption func(*PollOptionConfig)
)
