// Package testutil provides test utilities for progress observation.
package testutil

import (
	"sync"

	"github.com/shouta-dev/notebooklm-go/nlmtypes"
)

// ProgressRecorder records upload status transitions for assertions.
// It is safe for concurrent use, matching the ProgressFunc contract.
type ProgressRecorder struct {
	mu          sync.Mutex
	transitions []Transition
}

// Transition is one recorded status change.
type Transition struct {
	Path   string
	Status nlmtypes.UploadStatus
}

// Func returns a ProgressFunc that records into the recorder.
func (r *ProgressRecorder) Func() nlmtypes.ProgressFunc {
	return func(path string, status nlmtypes.UploadStatus) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.transitions = append(r.transitions, Transition{Path: path, Status: status})
	}
}

// Transitions returns a copy of all recorded transitions.
func (r *ProgressRecorder) Transitions() []Transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Transition, len(r.transitions))
	copy(out, r.transitions)
	return out
}

// StatusesFor returns the ordered statuses recorded for one path.
func (r *ProgressRecorder) StatusesFor(path string) []nlmtypes.UploadStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []nlmtypes.UploadStatus
	for _, tr := range r.transitions {
		if tr.Path == path {
			out = append(out, tr.Status)
		}
	}
	return out
}
