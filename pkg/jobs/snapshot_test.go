package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// entryWrapped builds the envelope shape the status endpoint returns.
func entryWrapped(content map[string]any) map[string]any {
	return map[string]any{
		"entry": []any{
			map[string]any{"content": content},
		},
	}
}

func TestDecodeSnapshotBasic(t *testing.T) {
	content := map[string]any{
		"sid":           "1234567890.12345",
		"dispatchState": "RUNNING",
		"doneProgress":  0.5,
		"eventCount":    float64(1000),
		"resultCount":   float64(500),
		"scanCount":     float64(10000),
		"runDuration":   5.25,
	}

	snap, err := DecodeSnapshot(entryWrapped(content))
	require.NoError(t, err)

	assert.Equal(t, "1234567890.12345", snap.SID)
	assert.Equal(t, StateRunning, snap.State)
	assert.Equal(t, 0.5, snap.DoneProgress)
	assert.Equal(t, 50.0, snap.ProgressPercent())
	assert.Equal(t, int64(1000), snap.EventCount)
	assert.Equal(t, int64(500), snap.ResultCount)
	assert.Equal(t, int64(10000), snap.ScanCount)
	assert.Equal(t, 5.25, snap.RunDuration)
}

func TestDecodeSnapshotFlatShape(t *testing.T) {
	// The decoder accepts bare content without the entry envelope.
	snap, err := DecodeSnapshot(map[string]any{
		"dispatchState": "DONE",
		"isDone":        true,
		"doneProgress":  1.0,
	})
	require.NoError(t, err)
	assert.Equal(t, StateDone, snap.State)
	assert.True(t, snap.IsDone)
}

func TestDecodeSnapshotStateRoundTrip(t *testing.T) {
	for _, raw := range []string{"QUEUED", "PARSING", "RUNNING", "FINALIZING", "DONE", "FAILED", "PAUSED"} {
		snap, err := DecodeSnapshot(entryWrapped(map[string]any{"dispatchState": raw}))
		require.NoError(t, err, raw)
		assert.Equal(t, DispatchState(raw), snap.State)
	}
}

func TestDecodeSnapshotMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
	}{
		{"missing state", entryWrapped(map[string]any{"doneProgress": 0.5})},
		{"invalid state", entryWrapped(map[string]any{"dispatchState": "INVALID_STATE"})},
		{"state wrong type", entryWrapped(map[string]any{"dispatchState": 7.0})},
		{"empty entry array", map[string]any{"entry": []any{}}},
		{"entry without content", map[string]any{"entry": []any{map[string]any{"name": "x"}}}},
		{"nil response", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSnapshot(tt.raw)
			require.Error(t, err)
			assert.True(t, IsMalformedStatus(err))
		})
	}
}

func TestDecodeSnapshotNamesMistypedState(t *testing.T) {
	// A present-but-non-string state reports the offending value, not
	// "missing".
	_, err := DecodeSnapshot(entryWrapped(map[string]any{"dispatchState": 7.0}))
	require.Error(t, err)

	var malformed *MalformedStatusError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "7", malformed.Value)
	assert.NotContains(t, malformed.Reason, "missing")
	assert.Contains(t, err.Error(), "7")
}

func TestDecodeSnapshotSafeDefaults(t *testing.T) {
	snap, err := DecodeSnapshot(entryWrapped(map[string]any{"dispatchState": "RUNNING"}))
	require.NoError(t, err)

	assert.Equal(t, "", snap.SID)
	assert.Equal(t, 0.0, snap.DoneProgress)
	assert.Equal(t, int64(0), snap.EventCount)
	assert.Equal(t, int64(0), snap.ResultCount)
	assert.Equal(t, int64(0), snap.ScanCount)
	assert.Equal(t, 0.0, snap.RunDuration)
	assert.False(t, snap.IsDone)
	assert.False(t, snap.IsFailed)
	assert.False(t, snap.IsPaused)
	assert.Empty(t, snap.Messages)
}

func TestDecodeSnapshotCoercion(t *testing.T) {
	// One garbage field defaults alone; the rest decode normally.
	snap, err := DecodeSnapshot(entryWrapped(map[string]any{
		"dispatchState": "RUNNING",
		"eventCount":    "not_a_number",
		"resultCount":   "500",
		"scanCount":     10.9,
		"doneProgress":  "0.5",
		"runDuration":   "garbage",
		"isDone":        "0",
		"isPaused":      "1",
		"isFailed":      float64(0),
	}))
	require.NoError(t, err)

	assert.Equal(t, int64(0), snap.EventCount)
	assert.Equal(t, int64(500), snap.ResultCount)
	assert.Equal(t, int64(10), snap.ScanCount)
	assert.Equal(t, 0.5, snap.DoneProgress)
	assert.Equal(t, 0.0, snap.RunDuration)
	assert.False(t, snap.IsDone)
	assert.True(t, snap.IsPaused)
	assert.False(t, snap.IsFailed)
}

func TestDecodeSnapshotMessages(t *testing.T) {
	snap, err := DecodeSnapshot(entryWrapped(map[string]any{
		"dispatchState": "FAILED",
		"isFailed":      true,
		"messages": []any{
			map[string]any{"type": "ERROR", "text": "Search syntax error"},
			map[string]any{"type": "INFO", "text": "Some info"},
		},
	}))
	require.NoError(t, err)

	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "ERROR", snap.Messages[0].Type)
	assert.Equal(t, "Search syntax error", snap.ErrorMessage())
}

func TestErrorMessage(t *testing.T) {
	t.Run("empty when not failed", func(t *testing.T) {
		snap, err := DecodeSnapshot(entryWrapped(map[string]any{
			"dispatchState": "DONE",
			"isDone":        true,
			"messages": []any{
				map[string]any{"type": "INFO", "text": "finished"},
			},
		}))
		require.NoError(t, err)
		assert.Equal(t, "", snap.ErrorMessage())
	})

	t.Run("empty when failed without messages", func(t *testing.T) {
		snap, err := DecodeSnapshot(entryWrapped(map[string]any{
			"dispatchState": "FAILED",
			"isFailed":      true,
		}))
		require.NoError(t, err)
		assert.Equal(t, "", snap.ErrorMessage())
	})
}

func TestDecodeSnapshotSIDFromEntryName(t *testing.T) {
	// Listing-style entries carry the sid as the entry name.
	snap, err := DecodeSnapshot(map[string]any{
		"entry": []any{
			map[string]any{
				"name":    "scheduler__job__42",
				"content": map[string]any{"dispatchState": "RUNNING"},
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "scheduler__job__42", snap.SID)
}

func TestRawFlagsPreservedAgainstState(t *testing.T) {
	// Transient windows where flags disagree with the state must keep both.
	snap, err := DecodeSnapshot(entryWrapped(map[string]any{
		"dispatchState": "RUNNING",
		"isDone":        true,
	}))
	require.NoError(t, err)
	assert.Equal(t, StateRunning, snap.State)
	assert.False(t, snap.State.IsTerminal())
	assert.True(t, snap.IsDone)
}
