package jobs

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Message is one diagnostic message attached to a job, e.g.
// {"type": "ERROR", "text": "Search syntax error"}.
type Message struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Snapshot is one immutable point-in-time read of a job's status.
//
// A Snapshot is constructed fresh on every poll and never mutated. The raw
// isDone/isFailed/isPaused flags are preserved alongside State: during
// transient windows they can legitimately disagree with the state-derived
// booleans, and both signals matter to callers.
type Snapshot struct {
	// SID is the job identifier echoed back by the server.
	SID string `json:"sid"`

	// State is the validated dispatch state.
	State DispatchState `json:"state"`

	// DoneProgress is the completion fraction in [0, 1].
	DoneProgress float64 `json:"done_progress"`

	EventCount  int64 `json:"event_count"`
	ResultCount int64 `json:"result_count"`
	ScanCount   int64 `json:"scan_count"`

	// RunDuration is the job's run time in seconds.
	RunDuration float64 `json:"run_duration"`

	IsDone   bool `json:"is_done"`
	IsFailed bool `json:"is_failed"`
	IsPaused bool `json:"is_paused"`

	// Messages are the job's diagnostic messages in server order.
	Messages []Message `json:"messages,omitempty"`
}

// ProgressPercent returns DoneProgress scaled to 0-100.
func (s *Snapshot) ProgressPercent() float64 {
	return s.DoneProgress * 100
}

// ErrorMessage returns the first diagnostic text when the job has failed,
// or "" when there is nothing to report. Derived, not stored.
func (s *Snapshot) ErrorMessage() string {
	if !s.IsFailed && s.State != StateFailed {
		return ""
	}
	for _, m := range s.Messages {
		if m.Text != "" {
			return m.Text
		}
	}
	return ""
}

// DecodeSnapshot turns a raw status response into a Snapshot.
//
// Two response shapes are accepted without the caller knowing which came
// back: the entry envelope `{"entry": [{"name": ..., "content": {...}}]}`
// that the job status endpoint returns, and a bare content object. An
// entry envelope with no entries is malformed.
//
// Every field except dispatchState tolerates absent or mistyped input by
// coercing to a zero value: counters are advisory. The state drives control
// flow and is validated strictly.
func DecodeSnapshot(raw map[string]any) (*Snapshot, error) {
	content, err := extractContent(raw)
	if err != nil {
		return nil, err
	}

	stateVal := content["dispatchState"]
	stateRaw, ok := stateVal.(string)
	if !ok && stateVal != nil {
		// A present-but-mistyped state still names the offending value.
		return nil, &MalformedStatusError{
			Value:  fmt.Sprintf("%v", stateVal),
			Reason: "non-string dispatchState",
		}
	}
	state, err := ParseDispatchState(stateRaw)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		SID:          asString(content["sid"]),
		State:        state,
		DoneProgress: asFloat(content["doneProgress"]),
		EventCount:   asInt(content["eventCount"]),
		ResultCount:  asInt(content["resultCount"]),
		ScanCount:    asInt(content["scanCount"]),
		RunDuration:  asFloat(content["runDuration"]),
		IsDone:       asBool(content["isDone"]),
		IsFailed:     asBool(content["isFailed"]),
		IsPaused:     asBool(content["isPaused"]),
		Messages:     asMessages(content["messages"]),
	}
	return snap, nil
}

// extractContent normalizes the two accepted response shapes into one
// content map, selected by presence-checking known keys.
func extractContent(raw map[string]any) (map[string]any, error) {
	if raw == nil {
		return nil, &MalformedStatusError{Reason: "empty response"}
	}

	entries, ok := raw["entry"].([]any)
	if !ok {
		// Flat shape: the map itself is the content.
		return raw, nil
	}
	if len(entries) == 0 {
		return nil, &MalformedStatusError{Reason: "invalid job status response: no entries"}
	}

	entry, ok := entries[0].(map[string]any)
	if !ok {
		return nil, &MalformedStatusError{Reason: "invalid job status response: entry is not an object"}
	}
	content, ok := entry["content"].(map[string]any)
	if !ok {
		return nil, &MalformedStatusError{Reason: "invalid job status response: entry has no content"}
	}

	// The listing endpoint carries the sid as the entry name; prefer the
	// content sid when both are present.
	if _, hasSID := content["sid"]; !hasSID {
		if name, ok := entry["name"].(string); ok && name != "" {
			merged := make(map[string]any, len(content)+1)
			for k, v := range content {
				merged[k] = v
			}
			merged["sid"] = name
			return merged, nil
		}
	}
	return content, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// asInt coerces an int-ish value, defaulting to 0. splunkd is loose about
// numeric typing: counts arrive as numbers or numeric strings.
func asInt(v any) int64 {
	switch n := v.(type) {
	case nil:
		return 0
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return int64(f)
		}
		return 0
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return int64(f)
		}
		return 0
	default:
		return 0
	}
}

// asFloat coerces a float-ish value, defaulting to 0.
func asFloat(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f
		}
		return 0
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f
		}
		return 0
	default:
		return 0
	}
}

// asBool coerces a bool-ish value, defaulting to false. splunkd emits
// booleans as true/false, 0/1, or "0"/"1" depending on endpoint vintage.
func asBool(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case float64:
		return b != 0
	case int:
		return b != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "1", "true", "t", "yes":
			return true
		}
		return false
	default:
		return false
	}
}

func asMessages(v any) []Message {
	items, ok := v.([]any)
	if !ok || len(items) == 0 {
		return nil
	}
	out := make([]Message, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, Message{
			Type: asString(m["type"]),
			Text: asString(m["text"]),
		})
	}
	return out
}
