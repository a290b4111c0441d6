// Package jobs implements the search job lifecycle: status decoding,
// polling with timeout and cancellation, and the control operations
// (cancel, pause, unpause, finalize, ttl, touch, delete).
//
// The package talks to splunkd through the Transport interface and holds no
// state of its own; every status read produces a fresh immutable Snapshot.
package jobs

// DispatchState is the server's authoritative lifecycle label for a job.
//
// The vocabulary is closed. A value outside it is a protocol error and is
// rejected by ParseDispatchState rather than defaulted, so server-side
// changes to the state set surface immediately.
type DispatchState string

const (
	StateQueued     DispatchState = "QUEUED"
	StateParsing    DispatchState = "PARSING"
	StateRunning    DispatchState = "RUNNING"
	StateFinalizing DispatchState = "FINALIZING"
	StateDone       DispatchState = "DONE"
	StateFailed     DispatchState = "FAILED"
	StatePaused     DispatchState = "PAUSED"
)

// IsActive reports whether the job is still consuming server resources and
// has not reached an outcome.
func (s DispatchState) IsActive() bool {
	switch s {
	case StateQueued, StateParsing, StateRunning, StateFinalizing:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition will occur without
// explicit intervention. PAUSED is not terminal: a paused job resumes.
func (s DispatchState) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}

// IsSuccess reports whether the job completed successfully.
func (s DispatchState) IsSuccess() bool {
	return s == StateDone
}

// ParseDispatchState validates a raw state value against the vocabulary.
//
// Matching is exact: the server speaks uppercase, and anything else is a
// protocol change worth failing on.
func ParseDispatchState(raw string) (DispatchState, error) {
	switch DispatchState(raw) {
	case StateQueued, StateParsing, StateRunning, StateFinalizing, StateDone, StateFailed, StatePaused:
		return DispatchState(raw), nil
	}
	if raw == "" {
		return "", &MalformedStatusError{Reason: "missing dispatchState"}
	}
	return "", &MalformedStatusError{Value: raw, Reason: "invalid dispatchState"}
}
