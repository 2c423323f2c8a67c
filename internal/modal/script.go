package modal

import (
	"fmt"
	"strings"
	"time"
)

// Step is one state change of a transition, taken After the previous one.
type Step struct {
	After time.Duration
	State Snapshot
}

// recorder is a Scheduler that holds calls until run drains them in order.
type recorder struct {
	queue []*recordedCall
}

type recordedCall struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (c *recordedCall) Stop() bool {
	was := !c.stopped
	c.stopped = true
	return was
}

func (r *recorder) AfterFunc(d time.Duration, f func()) Timer {
	c := &recordedCall{d: d, f: f}
	r.queue = append(r.queue, c)
	return c
}

// run fires pending calls one at a time and reports the delay of each.
func (r *recorder) run(fired func(time.Duration)) {
	for len(r.queue) > 0 {
		c := r.queue[0]
		r.queue = r.queue[1:]
		if c.stopped {
			continue
		}
		fired(c.d)
		c.f()
	}
}

// Transitions replays Open and Close on a Machine and returns the steps each
// produces. The dialog script is generated from them.
func Transitions(t Timings) (open, close []Step) {
	rec := &recorder{}
	m := NewMachine(t, rec)

	var (
		steps []Step
		after time.Duration
	)
	m.OnChange(func(s Snapshot) {
		steps = append(steps, Step{After: after, State: s})
		after = 0
	})
	play := func(action func()) []Step {
		steps, after = nil, 0
		action()
		rec.run(func(d time.Duration) { after = d })
		return steps
	}
	open = play(m.Open)
	close = play(m.Close)
	return open, close
}

// alpineState is the x-data of a dialog. open() and close() walk the steps
// of Transitions; set() mirrors a Snapshot into the component.
func alpineState(t Timings) string {
	open, close := Transitions(t)
	return "{ shown: false, active: false, phase: '" + Closed.String() + "', " +
		"set(phase, shown, active) { this.phase = phase; this.shown = shown; this.active = active }, " +
		"open() { " + stepScript(open) + " }, " +
		"close() { " + stepScript(close) + " } }"
}

// stepScript chains steps with setTimeout. A step that hides the dialog also
// removes it from the page.
func stepScript(steps []Step) string {
	if len(steps) == 0 {
		return ""
	}
	s := steps[0].State
	var b strings.Builder
	fmt.Fprintf(&b, "this.set('%s', %t, %t)", s.Phase, s.Displayed, s.Active)
	if s.Phase == Closed && !s.Displayed {
		b.WriteString("; this.$root.remove()")
	}
	if rest := steps[1:]; len(rest) > 0 {
		fmt.Fprintf(&b, "; setTimeout(() => { %s }, %d)", stepScript(rest), rest[0].After.Milliseconds())
	}
	return b.String()
}
