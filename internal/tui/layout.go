package tui

import (
	"strings"

	"github.com/muesli/reflow/wordwrap"
)

type pageLayout struct {
	windowWidth    int
	windowHeight   int
	viewportWidth  int
	viewportHeight int
}

func newPageLayout() pageLayout {
	return pageLayout{
		viewportWidth:  76,
		viewportHeight: 12,
	}
}

func (l *pageLayout) Update(width, height int) {
	l.windowWidth = width
	l.windowHeight = height
	innerWidth := width - viewportHorizontalPadding
	if innerWidth < minViewportWidth {
		innerWidth = minViewportWidth
	}
	l.viewportWidth = innerWidth
	usable := height - headerHeight - promptHeight - statusHeight
	if usable < minViewportHeight {
		usable = minViewportHeight
	}
	l.viewportHeight = usable
}

func (m *model) buildTranscript() string {
	var cb strings.Builder
	if len(m.transcript) == 0 {
		cb.WriteString(sectionHeaderStyle.Render("Nothing generated yet"))
		cb.WriteRune('\n')
		cb.WriteString(helperStyle.Render("Describe a page, drop a sketch or a PDF below, then press Enter."))
		cb.WriteRune('\n')
		return cb.String()
	}
	wrap := m.wrapWidth(2)
	for idx, entry := range m.transcript {
		if idx > 0 {
			cb.WriteRune('\n')
		}
		label := transcriptLabel(entry.Kind)
		if entry.Kind == entryKindError {
			cb.WriteString(errorStyle.Render(label))
		} else {
			cb.WriteString(helperStyle.Render(label + " · " + entry.Timestamp.Format("15:04:05")))
		}
		cb.WriteRune('\n')
		cb.WriteString(indentMultiline(wordwrap.String(entry.Content, wrap), "  "))
		cb.WriteRune('\n')
	}
	return cb.String()
}

func indentMultiline(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func (m *model) wrapWidth(padding int) int {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	available := width - padding
	if available < 20 {
		available = 20
	}
	return available
}

func transcriptLabel(kind string) string {
	switch kind {
	case entryKindPrompt:
		return "You"
	case entryKindOutput:
		return "Generated"
	case entryKindSystem:
		return "History"
	case entryKindArtifact:
		return "Saved"
	case entryKindError:
		return "Error"
	default:
		return kind
	}
}
