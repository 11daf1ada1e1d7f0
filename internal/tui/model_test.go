package tui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/napkin/internal/generate"
	"github.com/csheth/napkin/internal/history"
	"github.com/csheth/napkin/internal/media"
)

type fakeGenerator struct {
	output string
	err    error
	calls  []generate.Request
}

func (f *fakeGenerator) Generate(ctx context.Context, req generate.Request) (string, error) {
	f.calls = append(f.calls, req)
	return f.output, f.err
}

func (f *fakeGenerator) Name() string { return "fake" }

func newTestModel(t *testing.T, config Config) *model {
	t.Helper()
	teaModel, ok := New(config).(*model)
	if !ok {
		t.Fatalf("expected *model, got %T", teaModel)
	}
	teaModel.Init()
	return teaModel
}

func typeText(m *model, text string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func submit(t *testing.T, m *model, text string) tea.Cmd {
	t.Helper()
	typeText(m, text)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command after submit")
	}
	return cmd
}

func TestNewWithoutGeneratorDisablesPrompt(t *testing.T) {
	m := newTestModel(t, Config{SetupError: "OPENAI_API_KEY is not set"})
	if !m.prompt.Disabled() {
		t.Fatal("prompt should be disabled without a backend")
	}
	if !strings.Contains(m.errorMessage, "OPENAI_API_KEY") {
		t.Fatalf("setup error not surfaced: %q", m.errorMessage)
	}
	typeText(m, "hello")
	if m.prompt.Value() != "" {
		t.Fatalf("disabled prompt accepted text: %q", m.prompt.Value())
	}
}

func TestSubmitStartsGenerationAndGatesPrompt(t *testing.T) {
	m := newTestModel(t, Config{Generator: &fakeGenerator{output: "<html></html>"}})
	submit(t, m, "make it dark mode")

	if !m.generating || !m.prompt.Generating() {
		t.Fatal("host and prompt should both be generating")
	}
	if len(m.transcript) != 1 || m.transcript[0].Kind != entryKindPrompt {
		t.Fatalf("expected prompt entry, got %+v", m.transcript)
	}
	if m.transcript[0].Content != "make it dark mode" {
		t.Fatalf("unexpected transcript content %q", m.transcript[0].Content)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || len(m.transcript) != 1 {
		t.Fatal("second submit should be ignored while generating")
	}
}

func TestGenerationSuccessResetsPrompt(t *testing.T) {
	m := newTestModel(t, Config{Generator: &fakeGenerator{}})
	submit(t, m, "landing page")
	m.Update(jobSignalMsg{Snapshot: jobSnapshot{ID: "generate-1", Kind: jobKindGenerate, Status: jobStatusRunning}})
	if len(m.jobStatusBadges()) != 1 {
		t.Fatalf("expected a running job badge, got %v", m.jobStatusBadges())
	}

	_, cmd := m.Update(jobResultEnvelope{
		Snapshot: jobSnapshot{ID: "generate-1", Kind: jobKindGenerate, Status: jobStatusSucceeded},
		Payload: generationResultMsg{
			request:  generate.Request{Prompt: "landing page"},
			backend:  "fake",
			output:   "<html>landing</html>",
			duration: 1500 * time.Millisecond,
		},
	})
	if cmd == nil {
		t.Fatal("expected gate command")
	}
	if m.generating || m.prompt.Generating() {
		t.Fatal("generation flags should clear")
	}
	if m.prompt.Value() != "" {
		t.Fatalf("prompt should reset after success, got %q", m.prompt.Value())
	}
	last := m.transcript[len(m.transcript)-1]
	if last.Kind != entryKindOutput || last.Content != "<html>landing</html>" {
		t.Fatalf("unexpected last entry %+v", last)
	}
	if len(m.runningJobs) != 0 {
		t.Fatalf("job should be cleared, got %v", m.runningJobs)
	}
	if m.infoMessage != "Done in 1.5s." {
		t.Fatalf("unexpected info %q", m.infoMessage)
	}
	if !strings.Contains(m.View(), "<html>landing</html>") {
		t.Fatal("view should show generated output")
	}
}

func TestGenerationFailureKeepsPrompt(t *testing.T) {
	m := newTestModel(t, Config{Generator: &fakeGenerator{}})
	submit(t, m, "pricing table")
	m.Update(jobResultEnvelope{
		Snapshot: jobSnapshot{ID: "generate-1", Kind: jobKindGenerate, Status: jobStatusFailed},
		Payload: generationResultMsg{
			request: generate.Request{Prompt: "pricing table"},
			backend: "fake",
			err:     errors.New("connection refused"),
		},
	})
	if m.generating || m.prompt.Generating() {
		t.Fatal("generation flags should clear after failure")
	}
	if m.prompt.Value() != "pricing table" {
		t.Fatalf("prompt should be kept for a retry, got %q", m.prompt.Value())
	}
	if m.errorMessage == "" {
		t.Fatal("expected an error message")
	}
	last := m.transcript[len(m.transcript)-1]
	if last.Kind != entryKindError || last.Content != "connection refused" {
		t.Fatalf("unexpected last entry %+v", last)
	}
}

func TestGenerateJobCallsClient(t *testing.T) {
	client := &fakeGenerator{output: "<html></html>"}
	req := generate.Request{Prompt: "hero section"}
	msg, err := generateJob(client, req)(context.Background())
	if err != nil {
		t.Fatalf("job failed: %v", err)
	}
	result, ok := msg.(generationResultMsg)
	if !ok {
		t.Fatalf("expected generationResultMsg, got %T", msg)
	}
	if result.output != "<html></html>" || result.backend != "fake" {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(client.calls) != 1 || client.calls[0].Prompt != "hero section" {
		t.Fatalf("client not called with request: %+v", client.calls)
	}
}

func TestHistorySaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	result := generationResultMsg{
		request:   generate.Request{Prompt: " dashboard ", Attachment: &media.File{Name: "sketch.png", MediaType: "image/png"}},
		backend:   "fake",
		err:       errors.New("timeout"),
		startedAt: time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC),
		duration:  2 * time.Second,
	}
	if _, err := saveHistoryJob(path, historyEntry(result))(context.Background()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	entries, err := history.Load(path)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one entry, got %v, %v", entries, err)
	}
	saved := entries[0]
	if saved.Prompt != "dashboard" || saved.Attachment != "sketch.png" || saved.Error != "timeout" || saved.DurationMS != 2000 {
		t.Fatalf("unexpected entry %+v", saved)
	}

	m := newTestModel(t, Config{Generator: &fakeGenerator{}, HistoryPath: path})
	m.Update(loadHistoryCmd(path)())
	if m.historyCount != 1 {
		t.Fatalf("expected history count 1, got %d", m.historyCount)
	}
	if len(m.transcript) != 1 || m.transcript[0].Kind != entryKindSystem {
		t.Fatalf("expected history summary, got %+v", m.transcript)
	}
	if loadHistoryCmd("") != nil {
		t.Fatal("empty path should not load")
	}
}

func TestRemountClearsTranscript(t *testing.T) {
	m := newTestModel(t, Config{Generator: &fakeGenerator{}})
	old := m.prompt
	m.appendTranscript(entryKindOutput, "<html></html>")
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})

	if len(m.transcript) != 0 {
		t.Fatalf("transcript should be cleared, got %+v", m.transcript)
	}
	if old.Mounted() {
		t.Fatal("old prompt should be unmounted")
	}
	if m.prompt == old || !m.prompt.Mounted() {
		t.Fatal("a fresh prompt should be mounted")
	}
}

func TestRemountKeepsGenerationGate(t *testing.T) {
	m := newTestModel(t, Config{Generator: &fakeGenerator{}})
	submit(t, m, "blog layout")
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	if !m.prompt.Generating() {
		t.Fatal("remounted prompt should stay gated while generating")
	}
}

func TestQuitUnmountsPrompt(t *testing.T) {
	m := newTestModel(t, Config{Generator: &fakeGenerator{}})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if m.prompt.Mounted() {
		t.Fatal("prompt should be unmounted on quit")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}

func TestDescribeRequest(t *testing.T) {
	got := describeRequest(generate.Request{
		Prompt:     "  use these colors ",
		Attachment: &media.File{Name: "brand.pdf", MediaType: "application/pdf", Size: 2048},
	})
	want := "use these colors\nattached brand.pdf (application/pdf, 2.0 kB)"
	if got != want {
		t.Fatalf("describeRequest = %q, want %q", got, want)
	}
	if describeRequest(generate.Request{}) != "(empty request)" {
		t.Fatal("empty request should have a placeholder")
	}
}

func TestSaveArtifactJobWritesPage(t *testing.T) {
	dir := t.TempDir()
	result := generationResultMsg{
		request:   generate.Request{Prompt: "Dark mode\nwith a sidebar"},
		output:    "Sure!\n\n```html\n<html>dark</html>\n```",
		startedAt: time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC),
	}
	msg, err := saveArtifactJob(dir, result)(context.Background())
	if err != nil {
		t.Fatalf("save artifact: %v", err)
	}
	saved, ok := msg.(artifactSavedMsg)
	if !ok {
		t.Fatalf("expected artifactSavedMsg, got %T", msg)
	}
	if filepath.Base(saved.path) != "20261019-093000-dark-mode.html" {
		t.Fatalf("unexpected path %s", saved.path)
	}

	m := newTestModel(t, Config{Generator: &fakeGenerator{}, OutputDir: dir})
	m.Update(jobResultEnvelope{Payload: saved})
	last := m.transcript[len(m.transcript)-1]
	if last.Kind != entryKindArtifact || last.Content != saved.path {
		t.Fatalf("saved path not shown: %+v", last)
	}

	m.Update(jobResultEnvelope{Payload: artifactSavedMsg{err: errors.New("disk full")}})
	if !strings.Contains(m.errorMessage, "disk full") {
		t.Fatalf("save error not surfaced: %q", m.errorMessage)
	}
}
