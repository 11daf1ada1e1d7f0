package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/csheth/napkin/internal/generate"
	"github.com/csheth/napkin/internal/media"
	"github.com/csheth/napkin/internal/promptbox"
)

// Config controls the host program.
type Config struct {
	// Generator is nil when no backend could be configured; the prompt is
	// then mounted disabled and SetupError explains why.
	Generator   generate.Client
	SetupError  string
	HistoryPath string
	Phrases     []string
	PickerDir   string
	// OutputDir receives an HTML page per successful generation; empty
	// disables saving.
	OutputDir string
	// Fetcher downloads dropped URLs; nil leaves URL drops as plain text.
	Fetcher promptbox.Fetcher
	Logger  *log.Logger
}

type model struct {
	config   Config
	logger   *log.Logger
	jobs     *jobBus
	prompt   *promptbox.Model
	spinner  spinner.Model
	viewport viewport.Model
	layout   pageLayout

	transcript    []transcriptEntry
	viewportDirty bool

	generating   bool
	historyCount int
	runningJobs  map[string]jobSnapshot

	infoMessage  string
	errorMessage string
}

// New builds the host model around a freshly mounted prompt widget.
func New(config Config) tea.Model {
	return newModel(config)
}

func newModel(config Config) *model {
	logger := config.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	m := &model{
		config:      config,
		logger:      logger.WithPrefix("tui"),
		jobs:        newJobBus(logger),
		spinner:     sp,
		layout:      newPageLayout(),
		runningJobs: map[string]jobSnapshot{},
	}
	m.viewport = viewport.New(m.layout.viewportWidth, m.layout.viewportHeight)
	m.prompt = m.newPrompt()
	m.prompt.SetWidth(m.layout.viewportWidth)

	if config.Generator == nil {
		m.prompt.SetDisabled(true)
		m.errorMessage = strings.TrimSpace("No generation backend. " + config.SetupError)
	} else {
		m.infoMessage = fmt.Sprintf("Connected to %s.", config.Generator.Name())
	}
	m.viewportDirty = true
	return m
}

func (m *model) newPrompt() *promptbox.Model {
	return promptbox.New(promptbox.Config{
		OnGenerate: m.startGeneration,
		Phrases:    m.config.Phrases,
		PickerDir:  m.config.PickerDir,
		Fetcher:    m.config.Fetcher,
		Logger:     m.config.Logger,
	})
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(m.prompt.Mount(), loadHistoryCmd(m.config.HistoryPath))
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout.Update(msg.Width, msg.Height)
		m.viewport.Width = m.layout.viewportWidth
		m.viewport.Height = m.layout.viewportHeight
		m.prompt.SetWidth(m.layout.viewportWidth)
		m.viewportDirty = true
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case spinner.TickMsg:
		if !m.generating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case jobSignalMsg:
		m.runningJobs[msg.Snapshot.ID] = msg.Snapshot
		return m, nil
	case jobResultEnvelope:
		delete(m.runningJobs, msg.Snapshot.ID)
		return m, m.handleJobPayload(msg.Payload)
	case historyLoadedMsg:
		return m, m.handleHistoryLoaded(msg)
	default:
		return m, m.prompt.Update(msg)
	}
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		m.prompt.Unmount()
		m.logger.Debug("quitting")
		return tea.Quit
	case "ctrl+r":
		return m.remount()
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
	return m.prompt.Update(msg)
}

// remount tears the prompt down and mounts a fresh one, restarting the
// placeholder at its first phrase. Gate flags carry over.
func (m *model) remount() tea.Cmd {
	m.prompt.Unmount()
	m.prompt = m.newPrompt()
	m.prompt.SetWidth(m.layout.viewportWidth)
	cmds := []tea.Cmd{
		m.prompt.SetGenerating(m.generating),
		m.prompt.SetDisabled(m.config.Generator == nil),
		m.prompt.Mount(),
	}
	m.transcript = nil
	m.viewportDirty = true
	m.errorMessage = ""
	m.infoMessage = "Cleared."
	m.logger.Debug("prompt remounted")
	return tea.Batch(cmds...)
}

// startGeneration is the prompt's OnGenerate callback. The widget is gated
// before this returns so a second submit cannot slip through.
func (m *model) startGeneration(prompt string, file *media.File) tea.Cmd {
	if m.config.Generator == nil {
		return nil
	}
	req := generate.Request{Prompt: prompt, Attachment: file}
	m.generating = true
	gateCmd := m.prompt.SetGenerating(true)
	m.appendTranscript(entryKindPrompt, describeRequest(req))
	m.errorMessage = ""
	m.infoMessage = fmt.Sprintf("Generating with %s…", m.config.Generator.Name())
	m.logger.Info("generation started", "backend", m.config.Generator.Name(), "attachment", file != nil)
	return tea.Batch(gateCmd, m.spinner.Tick, m.jobs.Start(jobKindGenerate, generateJob(m.config.Generator, req)))
}

func (m *model) handleJobPayload(payload tea.Msg) tea.Cmd {
	switch msg := payload.(type) {
	case generationResultMsg:
		return m.handleGenerationResult(msg)
	case historySavedMsg:
		if msg.err != nil {
			m.logger.Error("history save failed", "path", m.config.HistoryPath, "err", msg.err)
			m.errorMessage = fmt.Sprintf("History not saved: %v", msg.err)
			return nil
		}
		m.historyCount++
	case artifactSavedMsg:
		if msg.err != nil {
			m.logger.Error("artifact save failed", "dir", m.config.OutputDir, "err", msg.err)
			m.errorMessage = fmt.Sprintf("Page not saved: %v", msg.err)
			return nil
		}
		m.logger.Info("artifact saved", "path", msg.path, "source", msg.source)
		m.appendTranscript(entryKindArtifact, msg.path)
	}
	return nil
}

func (m *model) handleGenerationResult(msg generationResultMsg) tea.Cmd {
	m.generating = false
	cmds := []tea.Cmd{m.prompt.SetGenerating(false)}
	if msg.err != nil {
		m.logger.Error("generation failed", "backend", msg.backend, "err", msg.err)
		m.appendTranscript(entryKindError, msg.err.Error())
		m.errorMessage = "Generation failed. Edit the prompt and try again."
		m.infoMessage = ""
	} else {
		m.logger.Info("generation finished", "backend", msg.backend, "duration", msg.duration)
		m.appendTranscript(entryKindOutput, msg.output)
		m.prompt.Reset()
		m.errorMessage = ""
		m.infoMessage = fmt.Sprintf("Done in %s.", msg.duration.Round(100*time.Millisecond))
		if m.config.OutputDir != "" {
			cmds = append(cmds, m.jobs.Start(jobKindArtifact, saveArtifactJob(m.config.OutputDir, msg)))
		}
	}
	if m.config.HistoryPath != "" {
		cmds = append(cmds, m.jobs.Start(jobKindHistory, saveHistoryJob(m.config.HistoryPath, historyEntry(msg))))
	}
	return tea.Batch(cmds...)
}

func (m *model) handleHistoryLoaded(msg historyLoadedMsg) tea.Cmd {
	if msg.err != nil {
		m.logger.Warn("history unreadable", "path", m.config.HistoryPath, "err", msg.err)
		m.errorMessage = fmt.Sprintf("Could not read history: %v", msg.err)
		return nil
	}
	m.historyCount = len(msg.entries)
	if summary := describeHistory(msg.entries, m.config.HistoryPath); summary != "" {
		m.appendTranscript(entryKindSystem, summary)
	}
	return nil
}

func (m *model) appendTranscript(kind, content string) {
	m.transcript = append(m.transcript, transcriptEntry{
		Kind:      kind,
		Content:   strings.TrimSpace(content),
		Timestamp: time.Now(),
	})
	m.viewportDirty = true
}
