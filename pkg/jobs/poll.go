package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultPollInterval is the fixed cadence between status fetches.
//
// The poll loop deliberately uses a fixed interval rather than backoff:
// job state changes are not bursty, and a fixed cadence keeps completion
// latency predictable.
const DefaultPollInterval = 1 * time.Second

// ProgressFunc observes each Snapshot as the poll loop sees it.
//
// A returned error (or a panic) is logged and discarded: a misbehaving
// observer must never abort a real job wait.
type ProgressFunc func(*Snapshot) error

// Poller drives a job to a stopping point by repeated status fetches.
//
// A Poller runs one job wait at a time on the calling goroutine; waiting on
// several jobs concurrently means several independent Pollers. There is no
// shared mutable state between them.
type Poller struct {
	// Client performs the status fetches.
	Client *Client

	// Interval is the fixed delay between polls. Zero means
	// DefaultPollInterval; negative means no delay (useful in tests).
	Interval time.Duration

	// Logger receives progress-callback failures. Nil disables logging.
	Logger *zap.Logger

	// now and sleep are injectable for tests. Defaults use the runtime
	// monotonic clock, so wall-clock adjustments cannot stretch or shrink
	// the effective wait.
	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewPoller creates a Poller with default cadence and clock.
func NewPoller(client *Client) *Poller {
	return &Poller{Client: client}
}

// Wait polls the job until it reaches a stopping point, subject to timeout.
//
// Four outcomes, because callers handle each differently:
//   - the job is done or otherwise terminal: the final Snapshot is returned;
//   - the job failed: *JobFailedError with the diagnostic messages, raised
//     on the poll that observed the failure, never retried;
//   - the job is paused: the Snapshot is returned immediately — a pause is
//     a deliberate stopping point, not a hang; callers wanting to wait
//     through it unpause first;
//   - the budget elapses while the job is still active: *PollTimeoutError.
//
// Cancelling ctx aborts the wait with the context's error, distinct from
// a poll timeout.
func (p *Poller) Wait(ctx context.Context, sid string, timeout time.Duration, progress ProgressFunc) (*Snapshot, error) {
	if p.Client == nil {
		return nil, fmt.Errorf("poller has no client")
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", timeout)
	}

	interval := p.Interval
	if interval == 0 {
		interval = DefaultPollInterval
	}
	if interval < 0 {
		interval = 0
	}

	now := p.now
	if now == nil {
		now = time.Now
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	start := now()
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("wait for job %s: %w", sid, err)
		}

		snap, err := p.Client.FetchStatus(ctx, sid)
		if err != nil {
			return nil, err
		}

		if progress != nil {
			p.notify(sid, snap, progress)
		}

		if snap.IsFailed || snap.State == StateFailed {
			return nil, &JobFailedError{
				SID:           snap.SID,
				DispatchState: snap.State,
				Messages:      snap.Messages,
			}
		}
		if snap.IsDone || snap.State.IsTerminal() {
			return snap, nil
		}
		if snap.IsPaused || snap.State == StatePaused {
			return snap, nil
		}

		if elapsed := now().Sub(start); elapsed >= timeout {
			return nil, &PollTimeoutError{SID: sid, Elapsed: elapsed, Timeout: timeout}
		}

		if err := sleep(ctx, interval); err != nil {
			return nil, fmt.Errorf("wait for job %s: %w", sid, err)
		}
	}
}

// notify invokes the progress callback, containing any error or panic.
func (p *Poller) notify(sid string, snap *Snapshot, progress ProgressFunc) {
	defer func() {
		if r := recover(); r != nil && p.Logger != nil {
			p.Logger.Warn("progress callback panicked",
				zap.String("sid", sid),
				zap.Any("panic", r))
		}
	}()
	if err := progress(snap); err != nil && p.Logger != nil {
		p.Logger.Warn("progress callback failed",
			zap.String("sid", sid),
			zap.Error(err))
	}
}

// WaitForJob polls sid at the default cadence until it reaches a stopping
// point. See Poller.Wait for the outcome contract.
func (c *Client) WaitForJob(ctx context.Context, sid string, timeout time.Duration, progress ProgressFunc) (*Snapshot, error) {
	return NewPoller(c).Wait(ctx, sid, timeout, progress)
}

// sleepContext sleeps for d or until ctx is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
