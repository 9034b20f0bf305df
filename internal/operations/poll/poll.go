// Package poll implements the wait loop for asynchronously generated
// artifacts: repeated status checks at a fixed interval under a local
// deadline.
package poll

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/shouta-dev/notebooklm-go/nlmtypes"
)

// Defaults for the wait loop.
const (
	DefaultInterval = 2 * time.Second
	DefaultTimeout  = 5 * time.Minute
)

// errNotReady drives the retry loop; it never escapes Wait.
var errNotReady = errors.New("artifact not ready")

// Checker fetches the current status of one generation task.
type Checker func(ctx context.Context) (nlmtypes.ArtifactStatus, error)

// Poller waits for artifact generation tasks to reach a terminal state.
type Poller struct {
	interval time.Duration
	timeout  time.Duration
}

// NewPoller creates a poller. Non-positive values fall back to the defaults.
func NewPoller(interval, timeout time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Poller{interval: interval, timeout: timeout}
}

// Wait polls check until the task completes, fails, or the deadline elapses.
//
// Elapsing the deadline is a result, not an error: the returned status
// carries the timed-out state and the backend task may still be running, so
// a fresh Wait against the same task remains meaningful. The first check
// happens immediately, and a terminal status returns without a trailing
// sleep. Errors are returned only for transport or decoding failures, or a
// cancelled context.
func (p *Poller) Wait(ctx context.Context, check Checker) (nlmtypes.ArtifactStatus, error) {
	start := time.Now()
	var last nlmtypes.ArtifactStatus

	operation := func() error {
		status, err := check(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		last = status

		switch status.State {
		case nlmtypes.ArtifactCompleted, nlmtypes.ArtifactFailed:
			return nil
		}

		if time.Since(start) >= p.timeout {
			last.State = nlmtypes.ArtifactTimedOut
			return nil
		}
		return errNotReady
	}

	policy := backoff.WithContext(backoff.NewConstantBackOff(p.interval), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nlmtypes.ArtifactStatus{}, err
	}
	return last, nil
}
