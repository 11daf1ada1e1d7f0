package tui

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

type jobKind string

type jobStatus string

const (
	jobKindGenerate jobKind = "generate"
	jobKindHistory  jobKind = "history"
	jobKindArtifact jobKind = "artifact"
)

const (
	jobStatusRunning   jobStatus = "running"
	jobStatusSucceeded jobStatus = "succeeded"
	jobStatusFailed    jobStatus = "failed"
)

type jobSnapshot struct {
	ID          string
	Kind        jobKind
	Status      jobStatus
	StartedAt   time.Time
	CompletedAt time.Time
	Err         string
	Duration    time.Duration
}

type jobSignalMsg struct {
	Snapshot jobSnapshot
}

type jobResultEnvelope struct {
	Snapshot jobSnapshot
	Payload  tea.Msg
}

type jobRunner func(context.Context) (tea.Msg, error)

type jobBus struct {
	counter int64
	logger  *log.Logger
}

func newJobBus(logger *log.Logger) *jobBus {
	return &jobBus{logger: logger.WithPrefix("jobs")}
}

func (b *jobBus) nextID(kind jobKind) string {
	idx := atomic.AddInt64(&b.counter, 1)
	return fmt.Sprintf("%s-%d", kind, idx)
}

// Start emits a running snapshot, then runs the job off the update loop and
// delivers its payload wrapped in a result envelope.
func (b *jobBus) Start(kind jobKind, runner jobRunner) tea.Cmd {
	id := b.nextID(kind)
	started := time.Now()
	startSnapshot := jobSnapshot{ID: id, Kind: kind, Status: jobStatusRunning, StartedAt: started}
	startCmd := func() tea.Msg {
		return jobSignalMsg{Snapshot: startSnapshot}
	}

	runCmd := func() tea.Msg {
		payload, err := runner(context.Background())
		done := time.Now()
		snapshot := startSnapshot
		snapshot.CompletedAt = done
		snapshot.Duration = done.Sub(started)
		snapshot.Status = jobStatusSucceeded
		if err != nil {
			snapshot.Status = jobStatusFailed
			snapshot.Err = err.Error()
			b.logger.Warn("job failed", "id", id, "duration", snapshot.Duration, "err", err)
		} else {
			b.logger.Debug("job done", "id", id, "duration", snapshot.Duration)
		}
		return jobResultEnvelope{Snapshot: snapshot, Payload: payload}
	}

	return tea.Sequence(startCmd, runCmd)
}
