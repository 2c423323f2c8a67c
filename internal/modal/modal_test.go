package modal

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DukeRupert/tradedesk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeScheduler runs scheduled calls only when the test advances time.
type fakeScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	calls []*fakeTimer
}

type fakeTimer struct {
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{at: s.now + d, f: f}
	s.calls = append(s.calls, t)
	return t
}

func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due []*fakeTimer
	for _, t := range s.calls {
		if !t.stopped && !t.fired && t.at <= s.now {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()
	sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.f()
	}
}

func TestMachine_OpenClose(t *testing.T) {
	s := &fakeScheduler{}
	m := NewMachine(DefaultTimings(), s)
	assert.Equal(t, Snapshot{Phase: Closed}, m.State())

	m.Open()
	assert.Equal(t, Snapshot{Phase: Opening, Displayed: true}, m.State())

	s.Advance(5 * time.Millisecond)
	assert.Equal(t, Opening, m.State().Phase)

	s.Advance(5 * time.Millisecond)
	assert.Equal(t, Snapshot{Phase: Open, Displayed: true, Active: true}, m.State())

	m.Close()
	assert.Equal(t, Snapshot{Phase: Closing, Displayed: true}, m.State())

	s.Advance(249 * time.Millisecond)
	assert.True(t, m.State().Displayed)

	s.Advance(time.Millisecond)
	assert.Equal(t, Snapshot{Phase: Closed}, m.State())
}

func TestMachine_ReopenWhileClosingCancelsHide(t *testing.T) {
	s := &fakeScheduler{}
	m := NewMachine(DefaultTimings(), s)
	m.Open()
	s.Advance(DefaultOpenDelay)
	m.Close()
	s.Advance(100 * time.Millisecond)

	m.Open()
	s.Advance(time.Second)

	assert.Equal(t, Snapshot{Phase: Open, Displayed: true, Active: true}, m.State())
}

func TestMachine_CloseWhileOpening(t *testing.T) {
	s := &fakeScheduler{}
	m := NewMachine(DefaultTimings(), s)
	m.Open()
	m.Close()
	s.Advance(time.Second)
	assert.Equal(t, Snapshot{Phase: Closed}, m.State())
}

func TestMachine_RepeatedCallsAreIgnored(t *testing.T) {
	s := &fakeScheduler{}
	m := NewMachine(DefaultTimings(), s)

	var phases []Phase
	m.OnChange(func(s Snapshot) { phases = append(phases, s.Phase) })

	m.Close()
	m.Open()
	m.Open()
	s.Advance(DefaultOpenDelay)
	m.Close()
	m.Close()
	s.Advance(DefaultCloseDelay)

	assert.Equal(t, []Phase{Opening, Open, Closing, Closed}, phases)
}

func TestTimings_Validate(t *testing.T) {
	assert.NoError(t, DefaultTimings().Validate())
	assert.Error(t, Timings{OpenDelay: -time.Millisecond}.Validate())
	assert.Error(t, Timings{CloseDelay: 10 * time.Second}.Validate())
}

func TestEditGuard(t *testing.T) {
	var g EditGuard
	assert.True(t, g.Begin("1/phone"))
	assert.True(t, g.Begin("1/phone"))
	assert.False(t, g.Begin("1/email"))
	assert.Equal(t, "1/phone", g.Current())

	g.End("1/email")
	assert.Equal(t, "1/phone", g.Current())

	g.End("1/phone")
	assert.Equal(t, "", g.Current())
	assert.True(t, g.Begin("1/email"))
}

func TestGuardRegistry(t *testing.T) {
	r := NewGuardRegistry()
	a := r.For("a")
	assert.Same(t, a, r.For("a"))
	assert.NotSame(t, a, r.For("b"))

	a.Begin("x")
	assert.Equal(t, 0, r.Prune(), "first pass only marks b idle")
	assert.Equal(t, 1, r.Prune())
	assert.Same(t, a, r.For("a"))

	r.Forget("a")
	assert.Equal(t, "", r.For("a").Current())
}

func TestGuardRegistry_BeginAndEnd(t *testing.T) {
	r := NewGuardRegistry()
	assert.True(t, r.Begin("ns", "clients/7/2"))
	assert.False(t, r.Begin("ns", "clients/7/1"))
	assert.True(t, r.Begin("other", "clients/7/1"))

	r.End("ns", "clients/7/1")
	assert.Equal(t, "clients/7/2", r.Current("ns"))

	r.EndPrefix("ns", "clients/8/")
	assert.Equal(t, "clients/7/2", r.Current("ns"))
	r.EndPrefix("ns", "clients/7/")
	assert.Equal(t, "", r.Current("ns"))

	r.Begin("ns", "stock/1/4")
	r.EndPrefix("ns", "")
	assert.Equal(t, "", r.Current("ns"))
	assert.Equal(t, "", r.Current("missing"))
}

func TestGuardRegistry_PruneKeepsRecentlyUsedGuard(t *testing.T) {
	r := NewGuardRegistry()
	r.For("ns")
	assert.Equal(t, 0, r.Prune())

	// used between passes: the pending claim must land on the registered guard
	g := r.For("ns")
	assert.Equal(t, 0, r.Prune())
	assert.True(t, g.Begin("clients/7/2"))
	assert.Equal(t, "clients/7/2", r.Current("ns"))
	assert.Equal(t, 0, r.Prune())

	g.End("clients/7/2")
	assert.Equal(t, 0, r.Prune())
	assert.Equal(t, 1, r.Prune())
	assert.Equal(t, "", r.Current("ns"))
}

func TestGuardRegistry_ConcurrentBeginAndPrune(t *testing.T) {
	r := NewGuardRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				r.Prune()
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if r.Begin("ns", "clients/7/2") {
					r.End("ns", "clients/7/2")
				}
			}
		}()
	}
	wg.Wait()

	require.True(t, r.Begin("ns", "clients/7/2"))
	r.Prune()
	r.Prune()
	assert.Equal(t, "clients/7/2", r.Current("ns"), "a held guard is never pruned")
}

func TestTransitions(t *testing.T) {
	open, close := Transitions(DefaultTimings())

	assert.Equal(t, []Step{
		{After: 0, State: Snapshot{Phase: Opening, Displayed: true}},
		{After: 10 * time.Millisecond, State: Snapshot{Phase: Open, Displayed: true, Active: true}},
	}, open)
	assert.Equal(t, []Step{
		{After: 0, State: Snapshot{Phase: Closing, Displayed: true}},
		{After: 250 * time.Millisecond, State: Snapshot{Phase: Closed}},
	}, close)
}

func TestTransitions_FollowTimings(t *testing.T) {
	open, close := Transitions(Timings{OpenDelay: 0, CloseDelay: time.Second})

	require.Len(t, open, 2)
	assert.Zero(t, open[1].After)
	require.Len(t, close, 2)
	assert.Equal(t, time.Second, close[1].After)
	assert.Contains(t, alpineState(Timings{CloseDelay: time.Second}), "}, 1000) }")
}

func TestComponent(t *testing.T) {
	body := Details(
		[]FieldRow{{Label: "Manager", Lines: []string{"Olena"}}},
		[]FieldRow{
			{FieldID: 4, Label: "Phone", Lines: []string{"+380501", "+380502"}, EditURL: "/clients/records/9/fields/4/edit"},
			{FieldID: 5, Label: "Note"},
		},
	)
	var buf bytes.Buffer
	require.NoError(t, Component(Shell{ID: "details", Title: "Acme", Body: body}, DefaultTimings()).Render(context.Background(), &buf))
	html := buf.String()

	assert.Contains(t, html, "open() { this.set(&#39;opening&#39;, true, false); setTimeout(() =&gt; { this.set(&#39;open&#39;, true, true) }, 10) }")
	assert.Contains(t, html, "this.set(&#39;closed&#39;, false, false); this.$root.remove() }, 250)")
	assert.Contains(t, html, `x-bind:data-phase="phase"`)
	assert.Contains(t, html, `data-close-delay="250"`)
	assert.Contains(t, html, `id="field-4"`)
	assert.Contains(t, html, "+380501<br>+380502")
	assert.Contains(t, html, `hx-get="/clients/records/9/fields/4/edit"`)
	assert.Contains(t, html, domain.EmptyCell)
}

func TestFieldInput(t *testing.T) {
	list := domain.FieldDefinition{ID: 7, Label: "Segment", Type: domain.FieldTypeList,
		ListValues: []domain.ListValue{{ID: 1, Value: "Retail"}, {ID: 2, Value: "Wholesale"}}}

	var buf bytes.Buffer
	require.NoError(t, FieldInput(Editor{Field: list, Values: []string{"2"}, SaveURL: "/save", CancelURL: "/cancel"}).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), `<option value="2" selected>Wholesale</option>`)
	assert.Contains(t, buf.String(), `hx-patch="/save"`)

	date := domain.FieldDefinition{ID: 8, Label: "Due", Type: domain.FieldTypeDate, Required: true}
	buf.Reset()
	require.NoError(t, FieldInput(Editor{Field: date, Values: []string{"2024-03-09"}, Error: "Due must be a date"}).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), `type="date"`)
	assert.Contains(t, buf.String(), `value="2024-03-09"`)
	assert.Contains(t, buf.String(), " required")
	assert.Contains(t, buf.String(), "Due must be a date")
}
