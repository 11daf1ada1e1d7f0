package tui

import (
	"time"

	"github.com/csheth/napkin/internal/artifact"
	"github.com/csheth/napkin/internal/generate"
	"github.com/csheth/napkin/internal/history"
)

const (
	minViewportWidth          = 40
	viewportHorizontalPadding = 4
	headerHeight              = 3
	promptHeight              = 7
	statusHeight              = 2
	minViewportHeight         = 4
)

const (
	entryKindPrompt   = "prompt"
	entryKindOutput   = "output"
	entryKindError    = "error"
	entryKindSystem   = "system"
	entryKindArtifact = "artifact"
)

type transcriptEntry struct {
	Kind      string
	Content   string
	Timestamp time.Time
}

type generationResultMsg struct {
	request   generate.Request
	backend   string
	output    string
	err       error
	startedAt time.Time
	duration  time.Duration
}

type historyLoadedMsg struct {
	entries []history.Entry
	err     error
}

type historySavedMsg struct {
	err error
}

type artifactSavedMsg struct {
	path   string
	source artifact.Source
	err    error
}
