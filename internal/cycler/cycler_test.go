package cycler

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type scheduled struct {
	after time.Duration
	msg   tea.Msg
}

type fakeClock struct {
	pending []scheduled
}

func (c *fakeClock) schedule(d time.Duration, msg tea.Msg) tea.Cmd {
	c.pending = append(c.pending, scheduled{after: d, msg: msg})
	return func() tea.Msg { return msg }
}

// fire delivers the oldest scheduled tick and returns how long it waited.
func (c *fakeClock) fire(t *testing.T, m *Model) time.Duration {
	t.Helper()
	if len(c.pending) == 0 {
		t.Fatal("no tick scheduled")
	}
	next := c.pending[0]
	c.pending = c.pending[1:]
	m.Update(next.msg)
	return next.after
}

func newTestCycler(phrases ...string) (*Model, *fakeClock) {
	clock := &fakeClock{}
	m := New(phrases, WithScheduler(clock.schedule))
	return &m, clock
}

func TestTwoPhaseCycle(t *testing.T) {
	m, clock := newTestCycler("a napkin sketch", "a chaotic whiteboard")
	if cmd := m.Start(); cmd == nil {
		t.Fatal("start should schedule the first dwell")
	}
	if m.Index() != 0 || !m.Visible() || m.Phrase() != "a napkin sketch" {
		t.Fatalf("unexpected mount state: index=%d visible=%v", m.Index(), m.Visible())
	}

	elapsed := clock.fire(t, m)
	if elapsed != DefaultDwell {
		t.Fatalf("dwell mismatch: got %s want %s", elapsed, DefaultDwell)
	}
	if m.Visible() || m.Index() != 0 {
		t.Fatalf("phrase 0 should be fading at 3s (index=%d visible=%v)", m.Index(), m.Visible())
	}

	elapsed += clock.fire(t, m)
	if elapsed != 3500*time.Millisecond {
		t.Fatalf("fade should end at 3.5s, got %s", elapsed)
	}
	if !m.Visible() || m.Phrase() != "a chaotic whiteboard" {
		t.Fatalf("phrase 1 should be visible at 3.5s, got %q visible=%v", m.Phrase(), m.Visible())
	}
}

func TestCycleVisitsEveryPhraseInOrderAndWraps(t *testing.T) {
	phrases := []string{"one", "two", "three"}
	m, clock := newTestCycler(phrases...)
	m.Start()

	var seen []string
	for i := 0; i < len(phrases)*2; i++ {
		seen = append(seen, m.Phrase())
		clock.fire(t, m)
		clock.fire(t, m)
	}
	for i, got := range seen {
		if want := phrases[i%len(phrases)]; got != want {
			t.Fatalf("step %d: got %q want %q", i, got, want)
		}
	}
}

func TestStopDropsPendingTicks(t *testing.T) {
	m, clock := newTestCycler("a", "b")
	m.Start()
	clock.fire(t, m)
	m.Stop()

	if cmd := m.Update(clock.pending[0].msg); cmd != nil {
		t.Fatal("stopped cycler must not schedule more ticks")
	}
	if m.Index() != 0 || m.Visible() {
		t.Fatalf("stopped cycler changed state: index=%d visible=%v", m.Index(), m.Visible())
	}
	if m.Running() {
		t.Fatal("cycler should report stopped")
	}
}

func TestRestartBeginsAtFirstPhrase(t *testing.T) {
	m, clock := newTestCycler("a", "b", "c")
	m.Start()
	clock.fire(t, m)
	clock.fire(t, m)
	stale := clock.pending[0].msg
	clock.pending = nil

	m.Stop()
	m.Start()
	if m.Index() != 0 || !m.Visible() {
		t.Fatalf("restart should begin at index 0, got %d", m.Index())
	}
	if cmd := m.Update(stale); cmd != nil {
		t.Fatal("tick from previous run must be ignored")
	}
	if m.Index() != 0 || !m.Visible() {
		t.Fatal("stale tick changed state")
	}
}

func TestForeignTicksIgnored(t *testing.T) {
	a, clockA := newTestCycler("x", "y")
	b, _ := newTestCycler("x", "y")
	a.Start()
	b.Start()

	if cmd := b.Update(clockA.pending[0].msg); cmd != nil {
		t.Fatal("tick for another cycler should be ignored")
	}
	if !b.Visible() {
		t.Fatal("foreign tick changed visibility")
	}
	if cmd := b.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Fatal("non-tick messages should be ignored")
	}
}

func TestTimeline(t *testing.T) {
	m := New([]string{"a napkin sketch", "a chaotic whiteboard"})
	tests := []struct {
		at      time.Duration
		index   int
		visible bool
	}{
		{0, 0, true},
		{2999 * time.Millisecond, 0, true},
		{3 * time.Second, 0, false},
		{3499 * time.Millisecond, 0, false},
		{3500 * time.Millisecond, 1, true},
		{6500 * time.Millisecond, 1, false},
		{7 * time.Second, 0, true},
	}
	for _, tt := range tests {
		index, visible := m.Timeline(tt.at)
		if index != tt.index || visible != tt.visible {
			t.Fatalf("Timeline(%s) = (%d, %v), want (%d, %v)", tt.at, index, visible, tt.index, tt.visible)
		}
	}
}

func TestWithTiming(t *testing.T) {
	clock := &fakeClock{}
	m := New(nil, WithTiming(time.Second, 100*time.Millisecond), WithScheduler(clock.schedule))
	if len(m.Phrases()) != len(DefaultPhrases) {
		t.Fatal("empty phrase list should fall back to defaults")
	}
	m.Start()
	if got := clock.fire(t, &m); got != time.Second {
		t.Fatalf("dwell override ignored: %s", got)
	}
	if got := clock.fire(t, &m); got != 100*time.Millisecond {
		t.Fatalf("fade override ignored: %s", got)
	}
}
