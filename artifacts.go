package notebooklm

import (
	"context"
	"fmt"

	nlmerrors "github.com/shouta-dev/notebooklm-go/errors"
	"github.com/shouta-dev/notebooklm-go/internal/jsontree"
	"github.com/shouta-dev/notebooklm-go/internal/operations/poll"
	"github.com/shouta-dev/notebooklm-go/nlmtypes"
)

// GenerateAudio starts audio overview generation for a notebook. The
// optional instructions steer the generated conversation. Generation is
// asynchronous: the returned status carries the task id to poll or wait on.
func (c *Client) GenerateAudio(ctx context.Context, notebookID, instructions string) (nlmtypes.ArtifactStatus, error) {
	return c.generateArtifact(ctx, "generateAudio", rpcGenerateAudio, notebookID, instructions)
}

// GenerateSlides starts slide deck generation for a notebook.
func (c *Client) GenerateSlides(ctx context.Context, notebookID string) (nlmtypes.ArtifactStatus, error) {
	return c.generateArtifact(ctx, "generateSlides", rpcGenerateSlides, notebookID, "")
}

func (c *Client) generateArtifact(
	ctx context.Context,
	op, rpcID, notebookID, instructions string,
) (nlmtypes.ArtifactStatus, error) {
	params := []any{notebookID}
	if instructions != "" {
		params = append(params, instructions)
	}

	result, err := c.Call(ctx, rpcID, params)
	if err != nil {
		return nlmtypes.ArtifactStatus{}, nlmerrors.NewError(op, err).WithNotebook(notebookID)
	}

	taskID, ok := jsontree.DeepString(result)
	if !ok {
		return nlmtypes.ArtifactStatus{}, nlmerrors.NewError(op,
			fmt.Errorf("no task id in response")).WithNotebook(notebookID)
	}
	return nlmtypes.ArtifactStatus{TaskID: taskID, State: nlmtypes.ArtifactPending}, nil
}

// PollArtifact fetches the current status of one generation task.
// The response is positional: [taskID, status, url, error].
func (c *Client) PollArtifact(ctx context.Context, notebookID, taskID string) (nlmtypes.ArtifactStatus, error) {
	result, err := c.Call(ctx, rpcPollArtifact, []any{notebookID, taskID})
	if err != nil {
		return nlmtypes.ArtifactStatus{}, nlmerrors.NewError("pollArtifact", err).WithNotebook(notebookID)
	}

	status := nlmtypes.ArtifactStatus{TaskID: taskID}
	raw, _ := jsontree.String(result, 1)
	status.State = mapArtifactState(raw)
	status.URL, _ = jsontree.String(result, 2)
	status.Message, _ = jsontree.String(result, 3)
	return status, nil
}

// mapArtifactState maps the backend's status string onto the closed state
// set. Unknown strings mean the task exists but is in some in-between phase,
// so they map to processing rather than failing the poll.
func mapArtifactState(raw string) nlmtypes.ArtifactState {
	switch raw {
	case "completed":
		return nlmtypes.ArtifactCompleted
	case "failed":
		return nlmtypes.ArtifactFailed
	case "pending":
		return nlmtypes.ArtifactPending
	default:
		return nlmtypes.ArtifactProcessing
	}
}

// WaitForArtifact polls a generation task until it reaches a terminal state
// or the wait deadline elapses. The deadline is a result, not an error: the
// returned status carries the timed-out state, and the backend task may
// still finish afterwards.
func (c *Client) WaitForArtifact(
	ctx context.Context,
	notebookID, taskID string,
	opts ...nlmtypes.PollOption,
) (nlmtypes.ArtifactStatus, error) {
	cfg := &nlmtypes.PollOptionConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	poller := poll.NewPoller(cfg.Interval, cfg.Timeout)
	status, err := poller.Wait(ctx, func(ctx context.Context) (nlmtypes.ArtifactStatus, error) {
		return c.PollArtifact(ctx, notebookID, taskID)
	})
	if err != nil {
		return nlmtypes.ArtifactStatus{}, nlmerrors.NewError("waitForArtifact", err).WithNotebook(notebookID)
	}
	return status, nil
}
