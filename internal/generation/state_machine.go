package generation

import (
	"fmt"
	"sync"
	"time"

	"ai-forge/internal/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RunState represents the discrete states of one pipeline run.
type RunState string

const (
	StateIdle           RunState = "idle"
	StatePlanning       RunState = "planning"
	StateCodeGenerating RunState = "code_generating"
	StateMaterializing  RunState = "materializing"
	StateDone           RunState = "done"
	StateFailed         RunState = "failed"
)

// RunEvent represents events that trigger state transitions.
type RunEvent string

const (
	EventStart        RunEvent = "start"
	EventPlanReady    RunEvent = "plan_ready"
	EventFilesReady   RunEvent = "files_ready"
	EventMaterialized RunEvent = "materialized"
	EventFatalError   RunEvent = "fatal_error"
)

// transition defines a valid (from, event) → to mapping.
type transition struct {
	From  RunState
	Event RunEvent
	To    RunState
}

// validTransitions is the canonical run transition table.
// Failed is absorbing and reachable only from the three working states.
var validTransitions = []transition{
	{StateIdle, EventStart, StatePlanning},
	{StatePlanning, EventPlanReady, StateCodeGenerating},
	{StateCodeGenerating, EventFilesReady, StateMaterializing},
	{StateMaterializing, EventMaterialized, StateDone},

	{StatePlanning, EventFatalError, StateFailed},
	{StateCodeGenerating, EventFatalError, StateFailed},
	{StateMaterializing, EventFatalError, StateFailed},
}

// StateTransition is emitted on every state change. Subscribe to receive these
// for WebSocket streaming.
type StateTransition struct {
	ID           string    `json:"id"`
	RunID        string    `json:"run_id"`
	FromState    RunState  `json:"from_state"`
	ToState      RunState  `json:"to_state"`
	Event        RunEvent  `json:"event"`
	Timestamp    time.Time `json:"timestamp"`
	DurationMs   int64     `json:"duration_ms"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// RunFSM tracks the state of a single generation run.
type RunFSM struct {
	mu sync.RWMutex

	RunID       string
	state       RunState
	startTime   time.Time
	lastTransAt time.Time
	errorMsg    string

	subscribers []chan<- StateTransition
	history     []StateTransition
}

// NewRunFSM creates a new FSM in the Idle state.
func NewRunFSM(runID string) *RunFSM {
	now := time.Now()
	return &RunFSM{
		RunID:       runID,
		state:       StateIdle,
		startTime:   now,
		lastTransAt: now,
		history:     make([]StateTransition, 0, 8),
	}
}

// Subscribe registers a channel that receives every subsequent transition.
// Sends never block; a full channel drops the record.
func (fsm *RunFSM) Subscribe(ch chan<- StateTransition) {
	fsm.mu.Lock()
	defer fsm.mu.Unlock()
	fsm.subscribers = append(fsm.subscribers, ch)
}

// CurrentState returns the current state (thread-safe).
func (fsm *RunFSM) CurrentState() RunState {
	fsm.mu.RLock()
	defer fsm.mu.RUnlock()
	return fsm.state
}

// IsTerminal returns true if the run has finished.
func (fsm *RunFSM) IsTerminal() bool {
	fsm.mu.RLock()
	defer fsm.mu.RUnlock()
	return fsm.state == StateDone || fsm.state == StateFailed
}

// ElapsedMs returns milliseconds since the FSM was created.
func (fsm *RunFSM) ElapsedMs() int64 {
	return time.Since(fsm.startTime).Milliseconds()
}

// History returns a copy of all recorded transitions.
func (fsm *RunFSM) History() []StateTransition {
	fsm.mu.RLock()
	defer fsm.mu.RUnlock()
	out := make([]StateTransition, len(fsm.history))
	copy(out, fsm.history)
	return out
}

// Transition moves the FSM via event, or returns an error if the
// transition is not in the table.
func (fsm *RunFSM) Transition(event RunEvent) error {
	return fsm.transition(event, "")
}

// Fail moves the FSM into Failed, recording cause.
func (fsm *RunFSM) Fail(cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return fsm.transition(EventFatalError, msg)
}

func (fsm *RunFSM) transition(event RunEvent, errorMsg string) error {
	fsm.mu.Lock()
	defer fsm.mu.Unlock()

	fromState := fsm.state

	var targetState RunState
	found := false
	for _, t := range validTransitions {
		if t.From == fromState && t.Event == event {
			targetState = t.To
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("invalid transition: state=%s event=%s", fromState, event)
	}

	now := time.Now()
	duration := now.Sub(fsm.lastTransAt).Milliseconds()
	if errorMsg != "" {
		fsm.errorMsg = errorMsg
	}

	record := StateTransition{
		ID:           uuid.New().String(),
		RunID:        fsm.RunID,
		FromState:    fromState,
		ToState:      targetState,
		Event:        event,
		Timestamp:    now,
		DurationMs:   duration,
		ErrorMessage: errorMsg,
	}

	fsm.state = targetState
	fsm.lastTransAt = now
	fsm.history = append(fsm.history, record)

	for _, ch := range fsm.subscribers {
		select {
		case ch <- record:
		default:
		}
	}

	logging.L().Debug("run state transition",
		zap.String("run_id", fsm.RunID),
		zap.String("from", string(fromState)),
		zap.String("event", string(event)),
		zap.String("to", string(targetState)),
		zap.Int64("elapsed_ms", duration),
	)

	return nil
}
