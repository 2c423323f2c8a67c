// Package modal holds the details and edit dialogs: the open/close transition
// machine, the per-session edit guard and the dialog shell component.
package modal

import (
	"fmt"
	"sync"
	"time"
)

// Default transition timings.
const (
	DefaultOpenDelay  = 10 * time.Millisecond
	DefaultCloseDelay = 250 * time.Millisecond
)

// Phase is a step of the open/close transition.
type Phase int

const (
	Closed Phase = iota
	Opening
	Open
	Closing
)

func (p Phase) String() string {
	switch p {
	case Closed:
		return "closed"
	case Opening:
		return "opening"
	case Open:
		return "open"
	case Closing:
		return "closing"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Timings are the two delays of a transition. OpenDelay passes between
// showing the dialog and adding its active class; CloseDelay passes between
// removing the class and hiding the dialog.
type Timings struct {
	OpenDelay  time.Duration
	CloseDelay time.Duration
}

// DefaultTimings returns the standard 10ms/250ms transition.
func DefaultTimings() Timings {
	return Timings{OpenDelay: DefaultOpenDelay, CloseDelay: DefaultCloseDelay}
}

// Validate checks that the delays are usable.
func (t Timings) Validate() error {
	if t.OpenDelay < 0 || t.OpenDelay > time.Second {
		return fmt.Errorf("open delay must be between 0 and 1s, got %v", t.OpenDelay)
	}
	if t.CloseDelay < 0 || t.CloseDelay > 5*time.Second {
		return fmt.Errorf("close delay must be between 0 and 5s, got %v", t.CloseDelay)
	}
	return nil
}

// Timer is a pending scheduled call.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type clock struct{}

func (clock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealScheduler schedules on the runtime timer.
var RealScheduler Scheduler = clock{}

// Snapshot is the observable state of a dialog.
type Snapshot struct {
	Phase     Phase
	Displayed bool // laid out (display:flex)
	Active    bool // transition class applied
}

// Machine drives one dialog through closed → opening → open → closing → closed.
// It is safe for concurrent use.
type Machine struct {
	mu       sync.Mutex
	timings  Timings
	sched    Scheduler
	state    Snapshot
	pending  Timer
	seq      uint64
	onChange func(Snapshot)
}

// NewMachine returns a closed dialog. A nil scheduler uses RealScheduler.
func NewMachine(t Timings, s Scheduler) *Machine {
	if s == nil {
		s = RealScheduler
	}
	return &Machine{timings: t, sched: s}
}

// OnChange registers a callback invoked after every state change.
func (m *Machine) OnChange(fn func(Snapshot)) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

// Timings returns the machine's delays.
func (m *Machine) Timings() Timings {
	return m.timings
}

// State returns the current snapshot.
func (m *Machine) State() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Open shows the dialog and applies the active class after OpenDelay.
// Opening an open or opening dialog does nothing; opening a closing dialog
// cancels the pending hide.
func (m *Machine) Open() {
	m.mu.Lock()
	if m.state.Phase == Open || m.state.Phase == Opening {
		m.mu.Unlock()
		return
	}
	m.cancelLocked()
	m.state = Snapshot{Phase: Opening, Displayed: true}
	seq := m.seq
	m.pending = m.sched.AfterFunc(m.timings.OpenDelay, func() {
		m.finish(seq, Snapshot{Phase: Open, Displayed: true, Active: true})
	})
	m.notifyLocked()
}

// Close removes the active class and hides the dialog after CloseDelay.
// Closing a closed or closing dialog does nothing.
func (m *Machine) Close() {
	m.mu.Lock()
	if m.state.Phase == Closed || m.state.Phase == Closing {
		m.mu.Unlock()
		return
	}
	m.cancelLocked()
	m.state = Snapshot{Phase: Closing, Displayed: true}
	seq := m.seq
	m.pending = m.sched.AfterFunc(m.timings.CloseDelay, func() {
		m.finish(seq, Snapshot{Phase: Closed})
	})
	m.notifyLocked()
}

// finish applies the end of a transition unless a newer one replaced it.
func (m *Machine) finish(seq uint64, next Snapshot) {
	m.mu.Lock()
	if seq != m.seq {
		m.mu.Unlock()
		return
	}
	m.pending = nil
	m.state = next
	m.notifyLocked()
}

// cancelLocked stops the pending transition. The sequence bump covers a timer
// that already fired and is waiting on the lock.
func (m *Machine) cancelLocked() {
	if m.pending != nil {
		m.pending.Stop()
		m.pending = nil
	}
	m.seq++
}

// notifyLocked releases the lock and reports the new state.
func (m *Machine) notifyLocked() {
	fn, s := m.onChange, m.state
	m.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}
