package jobs

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/kestrelhq/kestrel/pkg/splunkd"
)

// Transport is the collaborator that performs authenticated HTTP against
// the search service. *splunkd.Client satisfies it; tests substitute fakes.
//
// Transport owns connection pooling, timeouts, and retry policy (it has
// none). This package never retries a transport failure.
type Transport interface {
	Get(ctx context.Context, path string, params url.Values) (map[string]any, error)
	Post(ctx context.Context, path string, data url.Values) (map[string]any, error)
	Delete(ctx context.Context, path string) (map[string]any, error)
}

// Client exposes the job lifecycle operations.
//
// All control operations are fire-and-confirm: they report whether the
// server accepted the request and deliberately do not poll for the
// resulting state. Confirmation is a wait, and waits belong to WaitForJob.
type Client struct {
	transport Transport
}

// NewClient creates a lifecycle client over a transport.
func NewClient(transport Transport) *Client {
	return &Client{transport: transport}
}

// encodeSID percent-encodes a job identifier for use as a path segment.
// SIDs are opaque and may contain '/', spaces, or query metacharacters;
// a space must become %20, never +, or a decoding server looks up the
// wrong identifier.
func encodeSID(sid string) string {
	return url.PathEscape(sid)
}

func statusPath(sid string) string {
	return "/services/search/v2/jobs/" + encodeSID(sid)
}

func controlPath(sid string) string {
	return "/services/search/jobs/" + encodeSID(sid) + "/control"
}

// FetchStatus reads the job's current status.
//
// Transport errors propagate unchanged; a response that violates the
// status contract yields MalformedStatusError.
func (c *Client) FetchStatus(ctx context.Context, sid string) (*Snapshot, error) {
	sid = strings.TrimSpace(sid)
	if sid == "" {
		return nil, fmt.Errorf("sid is required")
	}

	raw, err := c.transport.Get(ctx, statusPath(sid), nil)
	if err != nil {
		return nil, err
	}

	snap, err := DecodeSnapshot(raw)
	if err != nil {
		return nil, err
	}
	if snap.SID == "" {
		snap.SID = sid
	}
	return snap, nil
}

// control posts a single control action for the job.
func (c *Client) control(ctx context.Context, sid, action string, extra url.Values) (bool, error) {
	sid = strings.TrimSpace(sid)
	if sid == "" {
		return false, fmt.Errorf("sid is required")
	}

	data := url.Values{}
	data.Set("action", action)
	for k, vs := range extra {
		for _, v := range vs {
			data.Add(k, v)
		}
	}

	if _, err := c.transport.Post(ctx, controlPath(sid), data); err != nil {
		return false, err
	}
	return true, nil
}

// Cancel requests cancellation. The job transitions toward a terminal
// state asynchronously; callers poll separately to confirm.
//
// A not-found response counts as success: cancellation that raced with
// natural completion (or an earlier cancel) achieved its goal.
func (c *Client) Cancel(ctx context.Context, sid string) (bool, error) {
	ok, err := c.control(ctx, sid, "cancel", nil)
	if err != nil && splunkd.IsNotFound(err) {
		return true, nil
	}
	return ok, err
}

// Pause asks the server to stop scheduling the job. No-op server-side if
// the job is already terminal.
func (c *Client) Pause(ctx context.Context, sid string) (bool, error) {
	return c.control(ctx, sid, "pause", nil)
}

// Unpause clears the pause flag. No-op if the job was never paused.
func (c *Client) Unpause(ctx context.Context, sid string) (bool, error) {
	return c.control(ctx, sid, "unpause", nil)
}

// Finalize stops further result computation while retaining partial
// results; the job moves through FINALIZING to DONE.
func (c *Client) Finalize(ctx context.Context, sid string) (bool, error) {
	return c.control(ctx, sid, "finalize", nil)
}

// SetTTL sets the job's inactivity time-to-live in seconds. The server may
// clamp the value; callers re-poll to confirm what took effect.
func (c *Client) SetTTL(ctx context.Context, sid string, ttlSeconds int) (bool, error) {
	if ttlSeconds < 0 {
		return false, fmt.Errorf("ttl must be non-negative, got %d", ttlSeconds)
	}
	extra := url.Values{}
	extra.Set("ttl", strconv.Itoa(ttlSeconds))
	return c.control(ctx, sid, "setttl", extra)
}

// Touch resets the job's inactivity countdown without changing its ttl.
func (c *Client) Touch(ctx context.Context, sid string) (bool, error) {
	return c.control(ctx, sid, "touch", nil)
}

// Delete removes the job immediately. A subsequent FetchStatus reports
// not-found.
func (c *Client) Delete(ctx context.Context, sid string) (bool, error) {
	sid = strings.TrimSpace(sid)
	if sid == "" {
		return false, fmt.Errorf("sid is required")
	}
	if _, err := c.transport.Delete(ctx, "/services/search/jobs/"+encodeSID(sid)); err != nil {
		return false, err
	}
	return true, nil
}

// ExecMode selects how the server runs a created job.
type ExecMode string

const (
	// ExecModeNormal returns a sid immediately; the job runs asynchronously.
	ExecModeNormal ExecMode = "normal"

	// ExecModeBlocking holds the request open until the job completes.
	ExecModeBlocking ExecMode = "blocking"
)

// CreateOptions are the optional parameters for Create.
type CreateOptions struct {
	EarliestTime string
	LatestTime   string
	ExecMode     ExecMode
	// Namespace is the app context the search runs in.
	Namespace string
}

// Create submits a new search job and returns its sid.
//
// The sid comes back either as a top-level "sid" key or, from older
// endpoints, as the name of the first entry.
func (c *Client) Create(ctx context.Context, search string, opts CreateOptions) (string, error) {
	search = strings.TrimSpace(search)
	if search == "" {
		return "", fmt.Errorf("search is required")
	}

	data := url.Values{}
	data.Set("search", search)
	mode := opts.ExecMode
	if mode == "" {
		mode = ExecModeNormal
	}
	data.Set("exec_mode", string(mode))
	if opts.EarliestTime != "" {
		data.Set("earliest_time", opts.EarliestTime)
	}
	if opts.LatestTime != "" {
		data.Set("latest_time", opts.LatestTime)
	}
	if opts.Namespace != "" {
		data.Set("namespace", opts.Namespace)
	}

	raw, err := c.transport.Post(ctx, "/services/search/v2/jobs", data)
	if err != nil {
		return "", err
	}

	if sid := asString(raw["sid"]); sid != "" {
		return sid, nil
	}
	if entries, ok := raw["entry"].([]any); ok && len(entries) > 0 {
		if entry, ok := entries[0].(map[string]any); ok {
			if name := asString(entry["name"]); name != "" {
				return name, nil
			}
			if content, ok := entry["content"].(map[string]any); ok {
				if sid := asString(content["sid"]); sid != "" {
					return sid, nil
				}
			}
		}
	}
	return "", fmt.Errorf("create job: response carries no sid")
}

// Summary fetches the field summary for a job's events.
func (c *Client) Summary(ctx context.Context, sid string) (map[string]any, error) {
	sid = strings.TrimSpace(sid)
	if sid == "" {
		return nil, fmt.Errorf("sid is required")
	}
	return c.transport.Get(ctx, statusPath(sid)+"/summary", nil)
}
