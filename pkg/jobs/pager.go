package jobs

import (
	"context"
	"net/url"
	"strconv"
)

// DefaultListCount is the page size used when the caller passes count <= 0.
const DefaultListCount = 50

// JobSummary is a lightweight row from the job listing endpoint.
//
// The listing endpoint surfaces the identifier as the entry name, while the
// status endpoint carries it under "sid" in content; both normalize here
// into the single SID field.
type JobSummary struct {
	SID           string        `json:"sid"`
	DispatchState DispatchState `json:"dispatch_state"`
	DoneProgress  float64       `json:"done_progress"`
	EventCount    int64         `json:"event_count"`
	ResultCount   int64         `json:"result_count"`
	RunDuration   float64       `json:"run_duration"`
}

// List enumerates jobs visible to the caller, newest first, one page per
// call. offset is the number of jobs to skip.
//
// Rows whose dispatch state is outside the known vocabulary are dropped
// rather than failing the page: a listing is advisory, unlike a status
// fetch that drives control flow.
func (c *Client) List(ctx context.Context, count, offset int) ([]JobSummary, error) {
	if count <= 0 {
		count = DefaultListCount
	}
	if offset < 0 {
		offset = 0
	}

	params := url.Values{}
	params.Set("count", strconv.Itoa(count))
	params.Set("offset", strconv.Itoa(offset))

	raw, err := c.transport.Get(ctx, "/services/search/jobs", params)
	if err != nil {
		return nil, err
	}

	entries, _ := raw["entry"].([]any)
	out := make([]JobSummary, 0, len(entries))
	for _, item := range entries {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		content, _ := entry["content"].(map[string]any)
		if content == nil {
			content = map[string]any{}
		}

		sid := asString(content["sid"])
		if sid == "" {
			sid = asString(entry["name"])
		}
		if sid == "" {
			continue
		}

		state, err := ParseDispatchState(asString(content["dispatchState"]))
		if err != nil {
			continue
		}

		out = append(out, JobSummary{
			SID:           sid,
			DispatchState: state,
			DoneProgress:  asFloat(content["doneProgress"]),
			EventCount:    asInt(content["eventCount"]),
			ResultCount:   asInt(content["resultCount"]),
			RunDuration:   asFloat(content["runDuration"]),
		})
	}
	return out, nil
}

// ListActive returns the first page of jobs still consuming server
// resources (queued, parsing, running, or finalizing).
func (c *Client) ListActive(ctx context.Context, count, offset int) ([]JobSummary, error) {
	all, err := c.List(ctx, count, offset)
	if err != nil {
		return nil, err
	}
	active := make([]JobSummary, 0, len(all))
	for _, j := range all {
		if j.DispatchState.IsActive() {
			active = append(active, j)
		}
	}
	return active, nil
}
