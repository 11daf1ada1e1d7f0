// Package promptbox is the prompt input widget: a text field with a submit
// button, a drop target and a file picker for images and PDFs, and a cycling
// placeholder. Every interaction funnels into one OnGenerate call.
//
// The host owns the generating and disabled flags and pushes them in with
// SetGenerating and SetDisabled. While either is set the widget refuses new
// submissions.
package promptbox

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/csheth/napkin/internal/cycler"
	"github.com/csheth/napkin/internal/media"
)

const (
	defaultWidth  = 70
	promptCharCap = 2000
	pickerHeight  = 8
	fetchTimeout  = 2 * time.Minute
)

// GenerateFunc receives a submission. file is nil for text-only submissions.
// The returned command is handed back to the Bubble Tea runtime.
type GenerateFunc func(prompt string, file *media.File) tea.Cmd

// Fetcher turns a dropped URL into a local file.
type Fetcher interface {
	Load(ctx context.Context, rawURL string) (media.File, error)
}

// Config wires the widget to its host.
type Config struct {
	OnGenerate GenerateFunc
	Phrases    []string
	// PickerDir is where the file picker opens. Defaults to the working directory.
	PickerDir string
	// Fetcher downloads dropped URLs. URL drops are ignored when nil.
	Fetcher      Fetcher
	Logger       *log.Logger
	CycleOptions []cycler.Option
}

type focusTarget int

const (
	focusField focusTarget = iota
	focusSubmit
)

// DragEnterMsg reports a file entering the drop target.
type DragEnterMsg struct{}

// DragOverMsg reports a file hovering over the drop target.
type DragOverMsg struct{}

// DragLeaveMsg reports a hovering file leaving the drop target.
type DragLeaveMsg struct{}

// DropMsg delivers dropped files. Only the first one is used.
type DropMsg struct {
	Files []media.File
}

type fetchedMsg struct {
	url  string
	file media.File
	err  error
}

// Model is the widget state. Use New; the zero value is not usable.
type Model struct {
	config Config
	logger *log.Logger
	keys   keyMap
	help   help.Model

	input       textinput.Model
	picker      filepicker.Model
	placeholder cycler.Model

	focus      focusTarget
	pickerOpen bool
	dragging   bool
	fetching   string
	generating bool
	disabled   bool
	mounted    bool
	notice     error
	width      int
}

// New builds an unmounted widget. Call Mount to start the placeholder.
func New(config Config) *Model {
	logger := config.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	input := textinput.New()
	input.Prompt = "› "
	input.CharLimit = promptCharCap
	input.Width = defaultWidth
	input.Focus()

	picker := filepicker.New()
	picker.AllowedTypes = media.PickerExtensions()
	picker.AutoHeight = false
	picker.Height = pickerHeight
	if config.PickerDir != "" {
		picker.CurrentDirectory = config.PickerDir
	}

	m := &Model{
		config:      config,
		logger:      logger.WithPrefix("promptbox"),
		keys:        defaultKeyMap(),
		help:        help.New(),
		input:       input,
		picker:      picker,
		placeholder: cycler.New(config.Phrases, config.CycleOptions...),
		focus:       focusField,
		width:       defaultWidth,
	}
	m.syncPlaceholder()
	return m
}

// Mount starts the cursor blink and restarts the placeholder cycle at its
// first phrase.
func (m *Model) Mount() tea.Cmd {
	m.mounted = true
	cmd := m.placeholder.Start()
	m.syncPlaceholder()
	return tea.Batch(textinput.Blink, cmd)
}

// Unmount stops the placeholder and abandons any download in flight. No
// phrase changes after this returns.
func (m *Model) Unmount() {
	m.mounted = false
	m.pickerOpen = false
	m.dragging = false
	m.fetching = ""
	m.placeholder.Stop()
}

// Reset clears the prompt text, drag state, and any notice. A download in
// flight is abandoned.
func (m *Model) Reset() {
	m.input.Reset()
	m.dragging = false
	m.fetching = ""
	m.notice = nil
	m.focus = focusField
	if !m.gated() {
		m.input.Focus()
	}
}

// SetGenerating records the host's busy flag.
func (m *Model) SetGenerating(generating bool) tea.Cmd {
	m.generating = generating
	return m.syncGate()
}

// SetDisabled records the host's disabled flag.
func (m *Model) SetDisabled(disabled bool) tea.Cmd {
	m.disabled = disabled
	return m.syncGate()
}

// SetWidth fits the text field into width columns.
func (m *Model) SetWidth(width int) {
	m.width = width
	inner := width - len([]rune(m.input.Prompt)) - len([]rune(submitLabel)) - 8
	if inner < 10 {
		inner = 10
	}
	m.input.Width = inner
	m.help.Width = width
}

// SetValue replaces the prompt text.
func (m *Model) SetValue(value string) {
	m.input.SetValue(value)
}

func (m *Model) Value() string { return m.input.Value() }

// Dragging reports whether a file is hovering over the drop target.
func (m *Model) Dragging() bool { return m.dragging }

// Fetching returns the dropped URL being downloaded, if any.
func (m *Model) Fetching() string { return m.fetching }

func (m *Model) Generating() bool { return m.generating }

func (m *Model) Disabled() bool { return m.disabled }

func (m *Model) PickerOpen() bool { return m.pickerOpen }

func (m *Model) Mounted() bool { return m.mounted }

func (m *Model) SubmitFocused() bool { return m.focus == focusSubmit }

// Notice returns the error shown in the blocking notice, if any.
func (m *Model) Notice() error { return m.notice }

// Placeholder returns the current placeholder phrase and whether it is fully
// visible (false while fading).
func (m *Model) Placeholder() (string, bool) {
	return m.placeholder.Phrase(), m.placeholder.Visible()
}

// CanSubmit is the submit button's enabled state.
func (m *Model) CanSubmit() bool {
	return strings.TrimSpace(m.input.Value()) != "" && !m.gated()
}

func (m *Model) gated() bool {
	return m.generating || m.disabled
}

// Update handles widget messages. Drag and drop messages are always consumed
// here and never reach the text field.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case cycler.TickMsg:
		cmd := m.placeholder.Update(msg)
		m.syncPlaceholder()
		return cmd
	case DragEnterMsg, DragOverMsg:
		m.dragEnter()
		return nil
	case DragLeaveMsg:
		m.dragging = false
		return nil
	case DropMsg:
		return m.drop(msg.Files)
	case fetchedMsg:
		return m.fetched(msg)
	case tea.WindowSizeMsg:
		m.SetWidth(msg.Width)
		return nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var inputCmd, pickerCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	m.picker, pickerCmd = m.picker.Update(msg)
	return tea.Batch(inputCmd, pickerCmd)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.notice != nil {
		if key.Matches(msg, m.keys.Dismiss) {
			m.notice = nil
		}
		return nil
	}
	if msg.Paste {
		if files, err := media.LoadDropped(string(msg.Runes)); err == nil {
			m.dragEnter()
			return m.drop(files)
		}
		if rawURL, ok := media.DroppedURL(string(msg.Runes)); ok && m.config.Fetcher != nil {
			return m.fetch(rawURL)
		}
	}
	if m.pickerOpen {
		return m.updatePicker(msg)
	}

	switch {
	case key.Matches(msg, m.keys.OpenPicker):
		return m.openPicker()
	case key.Matches(msg, m.keys.NextFocus):
		return m.toggleFocus()
	case m.focus == focusSubmit && key.Matches(msg, m.keys.Activate):
		return m.Submit()
	case m.focus == focusField && key.Matches(msg, m.keys.Submit):
		return m.Submit()
	}

	if m.focus != focusField || m.gated() {
		return nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// Submit is the text path: it calls OnGenerate with the prompt and no file
// when CanSubmit allows it.
func (m *Model) Submit() tea.Cmd {
	if !m.CanSubmit() {
		return nil
	}
	return m.emit(m.input.Value(), nil)
}

func (m *Model) dragEnter() {
	if m.gated() {
		return
	}
	m.dragging = true
}

func (m *Model) drop(files []media.File) tea.Cmd {
	m.dragging = false
	if m.gated() {
		m.logger.Debug("drop ignored while busy", "generating", m.generating, "disabled", m.disabled)
		return nil
	}
	if len(files) == 0 {
		return nil
	}
	if len(files) > 1 {
		m.logger.Debug("extra dropped files ignored", "count", len(files)-1)
	}
	return m.acquire(files[0])
}

// fetch starts downloading a dropped URL. The drop completes when the
// download arrives, and is refused then if the widget has become busy.
func (m *Model) fetch(rawURL string) tea.Cmd {
	if m.gated() || m.fetching != "" {
		return nil
	}
	m.dragEnter()
	m.fetching = rawURL
	m.logger.Debug("fetching dropped url", "url", rawURL)
	fetcher := m.config.Fetcher
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		file, err := fetcher.Load(ctx, rawURL)
		return fetchedMsg{url: rawURL, file: file, err: err}
	}
}

func (m *Model) fetched(msg fetchedMsg) tea.Cmd {
	if msg.url != m.fetching {
		return nil
	}
	m.fetching = ""
	if msg.err != nil {
		m.dragging = false
		m.reject(msg.err)
		return nil
	}
	return m.drop([]media.File{msg.file})
}

// pick is the picker path. It loads path and shares the drop path's checks.
func (m *Model) pick(path string) tea.Cmd {
	if m.gated() {
		return nil
	}
	file, err := media.Load(path)
	if err != nil {
		m.reject(err)
		return nil
	}
	return m.acquire(file)
}

func (m *Model) acquire(file media.File) tea.Cmd {
	if err := media.Check(file); err != nil {
		m.reject(err)
		return nil
	}
	return m.emit(m.input.Value(), &file)
}

func (m *Model) reject(err error) {
	m.logger.Warn("file rejected", "err", err)
	m.notice = err
}

func (m *Model) emit(prompt string, file *media.File) tea.Cmd {
	if file != nil {
		m.logger.Info("submit", "chars", len(prompt), "file", file.Name, "type", file.MediaType)
	} else {
		m.logger.Info("submit", "chars", len(prompt))
	}
	if m.config.OnGenerate == nil {
		return nil
	}
	return m.config.OnGenerate(prompt, file)
}

func (m *Model) openPicker() tea.Cmd {
	if m.gated() {
		return nil
	}
	m.pickerOpen = true
	return m.picker.Init()
}

func (m *Model) updatePicker(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.ClosePicker) {
		m.pickerOpen = false
		return nil
	}
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.pickerOpen = false
		return tea.Batch(cmd, m.pick(path))
	}
	// The extension filter is advisory; the same type check still runs.
	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		m.pickerOpen = false
		return tea.Batch(cmd, m.pick(path))
	}
	return cmd
}

func (m *Model) toggleFocus() tea.Cmd {
	if m.focus == focusField {
		m.focus = focusSubmit
		m.input.Blur()
		return nil
	}
	m.focus = focusField
	if m.gated() {
		return nil
	}
	return m.input.Focus()
}

func (m *Model) syncGate() tea.Cmd {
	if m.gated() {
		m.pickerOpen = false
		m.input.Blur()
		return nil
	}
	if m.focus == focusField && !m.input.Focused() {
		return m.input.Focus()
	}
	return nil
}

func (m *Model) syncPlaceholder() {
	phrase, visible := m.Placeholder()
	m.input.Placeholder = "Describe " + phrase
	if visible {
		m.input.PlaceholderStyle = placeholderStyle
	} else {
		m.input.PlaceholderStyle = placeholderFadingStyle
	}
}
