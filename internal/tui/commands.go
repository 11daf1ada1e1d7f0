package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/csheth/napkin/internal/artifact"
	"github.com/csheth/napkin/internal/generate"
	"github.com/csheth/napkin/internal/history"
)

const generateTimeout = 3 * time.Minute

func generateJob(client generate.Client, req generate.Request) jobRunner {
	backend := client.Name()
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, generateTimeout)
		defer cancel()
		started := time.Now()
		output, err := client.Generate(ctx, req)
		return generationResultMsg{
			request:   req,
			backend:   backend,
			output:    output,
			err:       err,
			startedAt: started,
			duration:  time.Since(started),
		}, err
	}
}

func saveHistoryJob(path string, entry history.Entry) jobRunner {
	return func(context.Context) (tea.Msg, error) {
		err := history.Append(path, entry)
		return historySavedMsg{err: err}, err
	}
}

func saveArtifactJob(dir string, result generationResultMsg) jobRunner {
	title := strings.TrimSpace(result.request.Prompt)
	if title == "" && result.request.Attachment != nil {
		title = strings.TrimSuffix(result.request.Attachment.Name, filepath.Ext(result.request.Attachment.Name))
	}
	return func(context.Context) (tea.Msg, error) {
		page, err := artifact.Extract(result.output)
		if err != nil {
			return artifactSavedMsg{err: err}, err
		}
		path, err := artifact.Save(dir, result.startedAt, firstLine(title), page)
		return artifactSavedMsg{path: path, source: page.Source, err: err}, err
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func loadHistoryCmd(path string) tea.Cmd {
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		entries, err := history.Load(path)
		return historyLoadedMsg{entries: entries, err: err}
	}
}

func historyEntry(result generationResultMsg) history.Entry {
	entry := history.Entry{
		Prompt:      strings.TrimSpace(result.request.Prompt),
		Backend:     result.backend,
		Output:      result.output,
		RequestedAt: result.startedAt.UTC(),
		DurationMS:  result.duration.Milliseconds(),
	}
	if file := result.request.Attachment; file != nil {
		entry.Attachment = file.Name
		entry.MediaType = file.MediaType
	}
	if result.err != nil {
		entry.Error = result.err.Error()
	}
	return entry
}

// describeRequest renders a submission for the transcript.
func describeRequest(req generate.Request) string {
	var lines []string
	if prompt := strings.TrimSpace(req.Prompt); prompt != "" {
		lines = append(lines, prompt)
	}
	if file := req.Attachment; file != nil {
		lines = append(lines, fmt.Sprintf("attached %s (%s, %s)", file.Name, file.MediaType, humanize.Bytes(uint64(file.Size))))
	}
	if len(lines) == 0 {
		return "(empty request)"
	}
	return strings.Join(lines, "\n")
}

func describeHistory(entries []history.Entry, path string) string {
	if len(entries) == 0 {
		return ""
	}
	last := entries[len(entries)-1]
	return fmt.Sprintf("%d earlier generation(s) in %s, last %s.", len(entries), path, humanize.Time(last.RequestedAt))
}
