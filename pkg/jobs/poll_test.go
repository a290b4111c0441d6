package jobs

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doneResponse(resultCount int) map[string]any {
	return entryWrapped(map[string]any{
		"dispatchState": "DONE",
		"isDone":        true,
		"doneProgress":  1.0,
		"resultCount":   float64(resultCount),
	})
}

// fakeClock advances a fixed step on every reading.
type fakeClock struct {
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

// newTestPoller wires a poller with no real sleeping and a counted sleep.
func newTestPoller(ft *fakeTransport, sleeps *int) *Poller {
	p := NewPoller(NewClient(ft))
	p.Interval = -1
	p.sleep = func(ctx context.Context, d time.Duration) error {
		if sleeps != nil {
			*sleeps++
		}
		return ctx.Err()
	}
	return p
}

func TestWaitReturnsImmediatelyOnDone(t *testing.T) {
	ft := &fakeTransport{responses: []map[string]any{doneResponse(7)}}
	sleeps := 0
	p := newTestPoller(ft, &sleeps)

	snap, err := p.Wait(context.Background(), "test_sid", 5*time.Second, nil)
	require.NoError(t, err)
	assert.Equal(t, StateDone, snap.State)
	assert.True(t, snap.IsDone)
	assert.Len(t, ft.calls, 1)
	assert.Zero(t, sleeps, "done on first poll must not sleep")
}

func TestWaitRaisesJobFailedOnFirstPoll(t *testing.T) {
	ft := &fakeTransport{responses: []map[string]any{
		entryWrapped(map[string]any{
			"dispatchState": "FAILED",
			"isFailed":      true,
			"messages": []any{
				map[string]any{"type": "ERROR", "text": "Search error"},
				map[string]any{"type": "WARN", "text": "Partial results discarded"},
			},
		}),
	}}
	p := newTestPoller(ft, nil)

	_, err := p.Wait(context.Background(), "test_sid", 5*time.Second, nil)
	require.Error(t, err)

	var failed *JobFailedError
	require.True(t, errors.As(err, &failed))
	assert.Equal(t, "test_sid", failed.SID)
	assert.Equal(t, StateFailed, failed.DispatchState)
	assert.Len(t, failed.Messages, 2)
	assert.Contains(t, failed.Error(), "Search error")
	assert.Len(t, ft.calls, 1, "failure is terminal on the first observing poll")
}

func TestWaitRaisesJobFailedOnFlagAlone(t *testing.T) {
	// The raw isFailed flag triggers failure even before the state flips.
	ft := &fakeTransport{responses: []map[string]any{
		entryWrapped(map[string]any{"dispatchState": "RUNNING", "isFailed": true}),
	}}
	p := newTestPoller(ft, nil)

	_, err := p.Wait(context.Background(), "test_sid", 5*time.Second, nil)
	require.True(t, IsJobFailed(err))
}

func TestWaitReturnsOnPaused(t *testing.T) {
	ft := &fakeTransport{responses: []map[string]any{
		entryWrapped(map[string]any{
			"dispatchState": "PAUSED",
			"isPaused":      true,
			"doneProgress":  0.5,
		}),
	}}
	p := newTestPoller(ft, nil)

	snap, err := p.Wait(context.Background(), "test_sid", 5*time.Second, nil)
	require.NoError(t, err)
	assert.True(t, snap.IsPaused)
	assert.Equal(t, StatePaused, snap.State)
	assert.Len(t, ft.calls, 1)
}

func TestWaitTimesOutWhileStillRunning(t *testing.T) {
	ft := &fakeTransport{responses: []map[string]any{runningResponse(0.5)}}
	p := newTestPoller(ft, nil)

	// Clock advances 400ms per reading; with a 1s budget the elapsed check
	// crosses the line on the third loop, not the first.
	p.now = (&fakeClock{now: time.Unix(1700000000, 0), step: 400 * time.Millisecond}).Now

	_, err := p.Wait(context.Background(), "test_sid", time.Second, nil)
	require.Error(t, err)

	var timeout *PollTimeoutError
	require.True(t, errors.As(err, &timeout))
	assert.Equal(t, "test_sid", timeout.SID)
	assert.Equal(t, time.Second, timeout.Timeout)
	assert.GreaterOrEqual(t, timeout.Elapsed, timeout.Timeout)
	assert.Greater(t, len(ft.calls), 1, "timeout must not fire before the budget elapses")
}

func TestWaitRejectsNonPositiveTimeout(t *testing.T) {
	ft := &fakeTransport{}
	p := newTestPoller(ft, nil)

	_, err := p.Wait(context.Background(), "test_sid", 0, nil)
	require.Error(t, err)
	assert.Empty(t, ft.calls)
}

func TestWaitContextCancellation(t *testing.T) {
	ft := &fakeTransport{responses: []map[string]any{runningResponse(0.1)}}
	p := NewPoller(NewClient(ft))
	p.Interval = -1

	ctx, cancel := context.WithCancel(context.Background())
	p.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	_, err := p.Wait(ctx, "test_sid", time.Minute, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, IsPollTimeout(err), "cancellation is distinct from a poll timeout")
}

func TestWaitInvokesProgressCallback(t *testing.T) {
	ft := &fakeTransport{responses: []map[string]any{
		runningResponse(0.5),
		doneResponse(100),
	}}
	p := newTestPoller(ft, nil)

	var seen []float64
	snap, err := p.Wait(context.Background(), "test_sid", 10*time.Second, func(s *Snapshot) error {
		seen = append(seen, s.DoneProgress)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 1.0}, seen)
	assert.Equal(t, StateDone, snap.State)
}

func TestWaitSwallowsCallbackErrors(t *testing.T) {
	ft := &fakeTransport{responses: []map[string]any{
		runningResponse(0.3),
		doneResponse(1),
	}}
	p := newTestPoller(ft, nil)

	snap, err := p.Wait(context.Background(), "test_sid", 10*time.Second, func(*Snapshot) error {
		return fmt.Errorf("observer exploded")
	})
	require.NoError(t, err)
	assert.Equal(t, StateDone, snap.State)
}

func TestWaitSwallowsCallbackPanics(t *testing.T) {
	ft := &fakeTransport{responses: []map[string]any{doneResponse(1)}}
	p := newTestPoller(ft, nil)

	snap, err := p.Wait(context.Background(), "test_sid", 10*time.Second, func(*Snapshot) error {
		panic("observer panicked")
	})
	require.NoError(t, err)
	assert.Equal(t, StateDone, snap.State)
}

func TestWaitEndToEndSequence(t *testing.T) {
	// Running(10%) -> Running(55%) -> Done(100%, 42 results): exactly three
	// fetches, final snapshot carries the count.
	ft := &fakeTransport{responses: []map[string]any{
		runningResponse(0.10),
		runningResponse(0.55),
		doneResponse(42),
	}}
	sleeps := 0
	p := newTestPoller(ft, &sleeps)

	snap, err := p.Wait(context.Background(), "test_sid", time.Minute, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(42), snap.ResultCount)
	assert.Equal(t, 100.0, snap.ProgressPercent())
	assert.Len(t, ft.calls, 3)
	assert.Equal(t, 2, sleeps)
}

func TestWaitPropagatesTransportError(t *testing.T) {
	wantErr := errors.New("connection refused")
	ft := &fakeTransport{errs: []error{wantErr}}
	p := newTestPoller(ft, nil)

	_, err := p.Wait(context.Background(), "test_sid", time.Second, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
}

func TestClientWaitForJobDelegates(t *testing.T) {
	ft := &fakeTransport{responses: []map[string]any{doneResponse(3)}}
	client := NewClient(ft)

	snap, err := client.WaitForJob(context.Background(), "test_sid", time.Second, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), snap.ResultCount)
}
