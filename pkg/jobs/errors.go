package jobs

import (
	"errors"
	"fmt"
	"time"
)

// MalformedStatusError indicates a reachable response that violates the
// status contract: the dispatch state is missing, unrecognized, or the
// response shape carries no job at all. Never silently defaulted.
type MalformedStatusError struct {
	// Value is the offending raw value, if one was present.
	Value string

	// Reason describes the contract violation.
	Reason string
}

// Error implements the error interface.
func (e *MalformedStatusError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("malformed job status: %s: %q", e.Reason, e.Value)
	}
	return fmt.Sprintf("malformed job status: %s", e.Reason)
}

// JobFailedError indicates the remote job itself finished with a failure
// outcome. This is an expected, modeled result, not a transport problem;
// it is never retried.
type JobFailedError struct {
	// SID identifies the failed job.
	SID string

	// DispatchState is the state observed when the failure was detected.
	DispatchState DispatchState

	// Messages are the diagnostic messages collected from the final poll.
	Messages []Message
}

// Error implements the error interface.
func (e *JobFailedError) Error() string {
	for _, m := range e.Messages {
		if m.Text != "" {
			return fmt.Sprintf("job %s failed: %s", e.SID, m.Text)
		}
	}
	return fmt.Sprintf("job %s failed (state=%s)", e.SID, e.DispatchState)
}

// PollTimeoutError indicates the wait budget elapsed while the job was
// still active. The job may yet complete; callers should treat this as
// "stop waiting", not "the job failed".
type PollTimeoutError struct {
	SID     string
	Elapsed time.Duration
	Timeout time.Duration
}

// Error implements the error interface.
func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("job %s did not complete within %s (waited %s)",
		e.SID, e.Timeout, e.Elapsed.Round(time.Millisecond))
}

// IsMalformedStatus returns true if the error is a status contract violation.
func IsMalformedStatus(err error) bool {
	var target *MalformedStatusError
	return errors.As(err, &target)
}

// IsJobFailed returns true if the error reports a failed job outcome.
func IsJobFailed(err error) bool {
	var target *JobFailedError
	return errors.As(err, &target)
}

// IsPollTimeout returns true if the error reports an exhausted wait budget.
func IsPollTimeout(err error) bool {
	var target *PollTimeoutError
	return errors.As(err, &target)
}
