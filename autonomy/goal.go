package autonomy

import (
	"sync"

	"github.com/2lambda123/Boeing-modular-navigation/msgs"
	"github.com/google/uuid"
)

// GoalState is the lifecycle state of one navigation goal.
type GoalState int

// Goal lifecycle states.
const (
	GoalIdle GoalState = iota
	GoalAccepted
	GoalPlanning
	GoalExecuting
	GoalSucceeded
	GoalAborted
	GoalPreempted
)

func (s GoalState) String() string {
	switch s {
	case GoalIdle:
		return "idle"
	case GoalAccepted:
		return "accepted"
	case GoalPlanning:
		return "planning"
	case GoalExecuting:
		return "executing"
	case GoalSucceeded:
		return "succeeded"
	case GoalAborted:
		return "aborted"
	case GoalPreempted:
		return "preempted"
	}
	return "unknown"
}

// terminal reports whether the state ends the goal.
func (s GoalState) terminal() bool {
	return s == GoalSucceeded || s == GoalAborted || s == GoalPreempted
}

// GoalHandle is the supervisor's view of one requested goal; the client polls
// State or waits on Done.
type GoalHandle struct {
	ID     string
	Target msgs.PoseStamped

	mu     sync.Mutex
	state  GoalState
	reason string
	done   chan struct{}
	cancel chan struct{}
}

func newGoalHandle(target msgs.PoseStamped) *GoalHandle {
	return &GoalHandle{
		ID:     uuid.New().String(),
		Target: target,
		state:  GoalAccepted,
		done:   make(chan struct{}),
		cancel: make(chan struct{}),
	}
}

// State returns the goal state and, for terminal states, the reason string.
func (h *GoalHandle) State() (GoalState, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state, h.reason
}

// Done is closed when the goal reaches a terminal state.
func (h *GoalHandle) Done() <-chan struct{} {
	return h.done
}

// Cancel asks the supervisor to preempt the goal. Cancellation takes effect
// within one controller tick.
func (h *GoalHandle) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	select {
	case <-h.cancel:
	default:
		close(h.cancel)
	}
}

func (h *GoalHandle) cancelRequested() <-chan struct{} {
	return h.cancel
}

// setState advances the lifecycle; terminal states close Done. A handle that
// is already terminal stays terminal.
func (h *GoalHandle) setState(state GoalState, reason string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state.terminal() {
		return false
	}
	h.state = state
	h.reason = reason
	if state.terminal() {
		close(h.done)
	}
	return true
}
