// Package mocksplunk is an in-process stand-in for the splunkd search job
// API, for tests and local development.
//
// All state lives in an explicitly constructed JobStore that is injected
// into the handler. There are no package-level registries, so concurrent
// test runs cannot interfere with each other.
package mocksplunk

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kestrelhq/kestrel/pkg/jobs"
)

// JobRecord is the mutable server-side state of one mock job.
type JobRecord struct {
	SID          string
	State        jobs.DispatchState
	DoneProgress float64
	EventCount   int64
	ResultCount  int64
	ScanCount    int64
	RunDuration  float64
	Messages     []jobs.Message
	TTL          int
	Search       string
	CreatedAt    time.Time

	// Script, when non-empty, is a queue of states the job steps through:
	// each status read consumes one step. When exhausted the job stays in
	// its final state.
	Script []ScriptStep
}

// ScriptStep is one scripted status frame.
type ScriptStep struct {
	State        jobs.DispatchState
	DoneProgress float64
	ResultCount  int64
	Messages     []jobs.Message
}

// JobStore holds mock jobs keyed by sid. Safe for concurrent use.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*JobRecord
}

// NewJobStore creates an empty store.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*JobRecord)}
}

// Create registers a new queued job and returns its sid.
func (s *JobStore) Create(search string) *JobRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := &JobRecord{
		SID:       fmt.Sprintf("%d.%s", time.Now().Unix(), uuid.New().String()[:8]),
		State:     jobs.StateQueued,
		Search:    search,
		TTL:       600,
		CreatedAt: time.Now().UTC(),
	}
	s.jobs[rec.SID] = rec
	return rec
}

// Put seeds a job record, overwriting any existing record with the same sid.
func (s *JobStore) Put(rec *JobRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.jobs[rec.SID] = rec
}

// Get returns the record for sid, or nil.
func (s *JobStore) Get(sid string) *JobRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[sid]
}

// Delete removes sid and reports whether it existed.
func (s *JobStore) Delete(sid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[sid]; !ok {
		return false
	}
	delete(s.jobs, sid)
	return true
}

// ListContent renders every record as status-endpoint content, newest
// first. Rendering happens under the lock: records are mutated in place by
// Observe and Control, so handing out live pointers would race with a
// concurrent poll.
func (s *JobStore) ListContent() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := make([]*JobRecord, 0, len(s.jobs))
	for _, rec := range s.jobs {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].SID > recs[j].SID
		}
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})

	out := make([]map[string]any, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.content())
	}
	return out
}

// step advances a job one observation: scripted jobs consume a frame,
// finalizing jobs complete. Called with the lock held by observe.
func (rec *JobRecord) step() {
	if len(rec.Script) > 0 {
		frame := rec.Script[0]
		rec.Script = rec.Script[1:]
		rec.State = frame.State
		rec.DoneProgress = frame.DoneProgress
		if frame.ResultCount != 0 {
			rec.ResultCount = frame.ResultCount
		}
		if frame.Messages != nil {
			rec.Messages = frame.Messages
		}
		return
	}
	if rec.State == jobs.StateFinalizing {
		rec.State = jobs.StateDone
		rec.DoneProgress = 1.0
	}
}

// Observe returns the job's current status content and then advances it,
// so successive polls see the scripted progression.
func (s *JobStore) Observe(sid string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.jobs[sid]
	if !ok {
		return nil, false
	}
	content := rec.content()
	rec.step()
	return content, true
}

// content renders the record as status-endpoint content.
func (rec *JobRecord) content() map[string]any {
	messages := make([]any, 0, len(rec.Messages))
	for _, m := range rec.Messages {
		messages = append(messages, map[string]any{"type": m.Type, "text": m.Text})
	}
	return map[string]any{
		"sid":           rec.SID,
		"dispatchState": string(rec.State),
		"doneProgress":  rec.DoneProgress,
		"eventCount":    rec.EventCount,
		"resultCount":   rec.ResultCount,
		"scanCount":     rec.ScanCount,
		"runDuration":   rec.RunDuration,
		"isDone":        rec.State == jobs.StateDone,
		"isFailed":      rec.State == jobs.StateFailed,
		"isPaused":      rec.State == jobs.StatePaused,
		"ttl":           rec.TTL,
		"messages":      messages,
	}
}

// Control applies a control action to sid. It reports whether the job
// exists and whether the action was recognized.
func (s *JobStore) Control(sid, action string, ttl int) (found bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.jobs[sid]
	if !exists {
		return false, false
	}

	switch action {
	case "cancel":
		// Cancel removes the artifact; subsequent reads see not-found.
		delete(s.jobs, sid)
	case "pause":
		if !rec.State.IsTerminal() {
			rec.State = jobs.StatePaused
		}
	case "unpause":
		if rec.State == jobs.StatePaused {
			rec.State = jobs.StateRunning
		}
	case "finalize":
		if rec.State.IsActive() {
			rec.State = jobs.StateFinalizing
		}
	case "setttl":
		if ttl >= 0 {
			rec.TTL = ttl
		}
	case "touch":
		// Resets the inactivity countdown; no visible state change.
	default:
		return true, false
	}
	return true, true
}
