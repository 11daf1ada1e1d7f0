// Package cycler rotates placeholder phrases on a dwell/fade timer.
//
// Each phrase is visible for Dwell, then fades for Fade; when the fade expires
// the next phrase (wrapping) becomes visible. Ticks carry the model ID and a run
// tag, so stopping or restarting invalidates every tick already in flight.
package cycler

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	DefaultDwell = 3 * time.Second
	DefaultFade  = 500 * time.Millisecond
)

// DefaultPhrases suggest the kinds of input the prompt accepts.
var DefaultPhrases = []string{
	"a napkin sketch",
	"a chaotic whiteboard",
	"a screenshot of an app you love",
	"a hand-drawn wireframe",
	"a product requirements PDF",
	"a landing page for a bakery",
}

var lastID int64

func nextID() int {
	return int(atomic.AddInt64(&lastID, 1))
}

type phase int

const (
	phaseVisible phase = iota
	phaseFading
)

// TickMsg drives the cycler. It is only meaningful to the Model that
// scheduled it.
type TickMsg struct {
	ID    int
	tag   int
	phase phase
}

// Scheduler delivers msg after d. The default wraps tea.Tick.
type Scheduler func(d time.Duration, msg tea.Msg) tea.Cmd

func tickScheduler(d time.Duration, msg tea.Msg) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return msg })
}

// Option configures a Model.
type Option func(*Model)

// WithTiming overrides the dwell and fade durations.
func WithTiming(dwell, fade time.Duration) Option {
	return func(m *Model) {
		if dwell > 0 {
			m.Dwell = dwell
		}
		if fade > 0 {
			m.Fade = fade
		}
	}
}

// WithScheduler replaces tea.Tick, mostly for tests.
func WithScheduler(s Scheduler) Option {
	return func(m *Model) {
		if s != nil {
			m.schedule = s
		}
	}
}

// Model is the placeholder animation state.
type Model struct {
	Dwell time.Duration
	Fade  time.Duration

	id       int
	tag      int
	phrases  []string
	index    int
	visible  bool
	running  bool
	schedule Scheduler
}

// New returns a stopped cycler over phrases. An empty list falls back to
// DefaultPhrases.
func New(phrases []string, opts ...Option) Model {
	if len(phrases) == 0 {
		phrases = DefaultPhrases
	}
	m := Model{
		Dwell:    DefaultDwell,
		Fade:     DefaultFade,
		id:       nextID(),
		phrases:  append([]string(nil), phrases...),
		visible:  true,
		schedule: tickScheduler,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Start (re)mounts the animation at the first phrase and schedules its dwell.
func (m *Model) Start() tea.Cmd {
	m.tag++
	m.index = 0
	m.visible = true
	m.running = true
	return m.schedule(m.Dwell, TickMsg{ID: m.id, tag: m.tag, phase: phaseVisible})
}

// Stop tears the animation down. Ticks already scheduled become no-ops.
func (m *Model) Stop() {
	m.tag++
	m.running = false
}

// Update advances the animation on its own ticks and ignores everything else.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	tick, ok := msg.(TickMsg)
	if !ok || !m.running || tick.ID != m.id || tick.tag != m.tag {
		return nil
	}
	switch tick.phase {
	case phaseVisible:
		m.visible = false
		return m.schedule(m.Fade, TickMsg{ID: m.id, tag: m.tag, phase: phaseFading})
	case phaseFading:
		m.index = (m.index + 1) % len(m.phrases)
		m.visible = true
		return m.schedule(m.Dwell, TickMsg{ID: m.id, tag: m.tag, phase: phaseVisible})
	}
	return nil
}

// ID identifies this cycler's ticks.
func (m Model) ID() int { return m.id }

func (m Model) Index() int { return m.index }

// Visible is false while the current phrase is fading out.
func (m Model) Visible() bool { return m.visible }

func (m Model) Running() bool { return m.running }

func (m Model) Phrases() []string {
	return append([]string(nil), m.phrases...)
}

// Phrase returns the phrase at the current index.
func (m Model) Phrase() string {
	return m.phrases[m.index]
}

// Timeline reports the index and visibility the animation has after running
// for elapsed since Start. It matches the tick-driven state exactly: a phrase
// is visible on [0, Dwell) of its cycle and fading on [Dwell, Dwell+Fade).
func (m Model) Timeline(elapsed time.Duration) (index int, visible bool) {
	if elapsed < 0 {
		elapsed = 0
	}
	period := m.Dwell + m.Fade
	cycles := int(elapsed / period)
	offset := elapsed % period
	return cycles % len(m.phrases), offset < m.Dwell
}
