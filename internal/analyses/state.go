package analyses

import (
	"fmt"
	"sync"
	"time"

	"resume-tailor/internal/shared/apperr"
)

// State is a step of the analysis state machine.
type State string

const (
	StateIdle       State = "idle"
	StateExtracting State = "extracting"
	StateAnalyzing  State = "analyzing"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// maxTrackedSessions caps the tracker; idle-equivalent entries are pruned first.
const maxTrackedSessions = 10000

var transitions = map[State][]State{
	StateIdle:       {StateExtracting},
	StateExtracting: {StateAnalyzing, StateFailed},
	StateAnalyzing:  {StateSucceeded, StateFailed},
	StateSucceeded:  {StateExtracting},
	StateFailed:     {StateExtracting},
}

// InFlight reports whether an invocation is outstanding in this state.
func (s State) InFlight() bool {
	return s == StateExtracting || s == StateAnalyzing
}

func (s State) canMoveTo(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Status is the observable state of one session.
type Status struct {
	State     State       `json:"state"`
	ErrorKind apperr.Kind `json:"errorKind,omitempty"`
	RunID     string      `json:"runId,omitempty"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Busy mirrors the single busy flag consumers render.
func (s Status) Busy() bool {
	return s.State.InFlight()
}

// Tracker holds the state machine of every session and enforces that a session
// has at most one invocation in flight. Safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	sessions map[string]Status
	now      func() time.Time
}

// NewTracker constructs an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		sessions: make(map[string]Status),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the session status, Idle when the session is unknown.
func (t *Tracker) Get(session string) Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.sessions[session]
	if !ok {
		return Status{State: StateIdle}
	}
	return st
}

// Begin moves a session into Extracting. It fails with Busy when an invocation
// is already outstanding for the session.
func (t *Tracker) Begin(session, runID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	current, ok := t.sessions[session]
	if !ok {
		current = Status{State: StateIdle}
		t.pruneLocked()
	}
	if current.State.InFlight() {
		return apperr.New(apperr.Busy, "analyses.begin", fmt.Sprintf("run %s is %s", current.RunID, current.State))
	}
	t.sessions[session] = Status{State: StateExtracting, RunID: runID, UpdatedAt: t.now()}
	return nil
}

// Advance moves the session's current run to next. Runs other than the current
// one and disallowed transitions are rejected.
func (t *Tracker) Advance(session, runID string, next State) error {
	return t.move(session, runID, next, "")
}

// Fail moves the session's current run to Failed with the error's kind.
func (t *Tracker) Fail(session, runID string, err error) error {
	return t.move(session, runID, StateFailed, apperr.KindOf(err))
}

func (t *Tracker) move(session, runID string, next State, kind apperr.Kind) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	current, ok := t.sessions[session]
	if !ok || current.RunID != runID {
		return fmt.Errorf("run %s is not current for session", runID)
	}
	if !current.State.canMoveTo(next) {
		return fmt.Errorf("invalid transition %s->%s", current.State, next)
	}
	t.sessions[session] = Status{State: next, ErrorKind: kind, RunID: runID, UpdatedAt: t.now()}
	return nil
}

// pruneLocked drops finished sessions once the tracker is full.
func (t *Tracker) pruneLocked() {
	if len(t.sessions) < maxTrackedSessions {
		return
	}
	for key, st := range t.sessions {
		if !st.State.InFlight() {
			delete(t.sessions, key)
		}
	}
}
