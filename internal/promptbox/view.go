package promptbox

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

const submitLabel = "[ Generate ]"

var (
	accentColor = lipgloss.Color("#ffb703")
	mutedColor  = lipgloss.Color("244")

	placeholderStyle       = lipgloss.NewStyle().Foreground(mutedColor)
	placeholderFadingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))

	dropZoneStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(0, 2)
	dropZoneActiveStyle = dropZoneStyle.Copy().BorderStyle(lipgloss.DoubleBorder()).BorderForeground(accentColor).Foreground(accentColor).Bold(true)
	dropZoneBusyStyle   = dropZoneStyle.Copy().Foreground(mutedColor)
	noticeStyle         = lipgloss.NewStyle().Border(lipgloss.ThickBorder()).BorderForeground(lipgloss.Color("9")).Padding(0, 2)
	noticeTitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	hintStyle           = lipgloss.NewStyle().Foreground(mutedColor)

	buttonStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(accentColor).Padding(0, 1)
	buttonFocusedStyle  = buttonStyle.Copy().Underline(true).Background(lipgloss.Color("#fb8500"))
	buttonDisabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Padding(0, 1)
)

// View renders the drop target (or the open picker, or the notice), the text
// row with its button, and a help line.
func (m *Model) View() string {
	parts := []string{m.acquisitionView(), m.entryView()}
	if helpLine := m.help.ShortHelpView(m.helpBindings()); helpLine != "" {
		parts = append(parts, helpLine)
	}
	return strings.Join(parts, "\n")
}

func (m *Model) acquisitionView() string {
	width := m.width - 4
	if width < 20 {
		width = 20
	}
	switch {
	case m.notice != nil:
		body := noticeTitleStyle.Render("Cannot attach file") + "\n" +
			m.notice.Error() + "\n" +
			hintStyle.Render("enter to dismiss")
		return noticeStyle.Width(width).Render(body)
	case m.pickerOpen:
		header := hintStyle.Render(fmt.Sprintf("Pick an image or PDF · %s", m.picker.CurrentDirectory))
		return dropZoneStyle.Width(width).Render(header + "\n" + m.picker.View())
	case m.fetching != "":
		return dropZoneActiveStyle.Width(width).Render("Downloading " + m.fetching + "…")
	case m.dragging:
		return dropZoneActiveStyle.Width(width).Render("Release to attach")
	case m.generating:
		return dropZoneBusyStyle.Width(width).Render("Generating… new files are ignored until it finishes")
	case m.disabled:
		return dropZoneBusyStyle.Width(width).Render("Input disabled")
	default:
		return dropZoneStyle.Width(width).Render("Drop an image or PDF here · ctrl+o to browse")
	}
}

func (m *Model) entryView() string {
	var button string
	switch {
	case !m.CanSubmit():
		button = buttonDisabledStyle.Render(submitLabel)
	case m.focus == focusSubmit:
		button = buttonFocusedStyle.Render(submitLabel)
	default:
		button = buttonStyle.Render(submitLabel)
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, m.input.View(), "  ", button)
}

func (m *Model) helpBindings() []key.Binding {
	if m.notice != nil {
		return []key.Binding{m.keys.Dismiss}
	}
	if m.pickerOpen {
		return []key.Binding{m.keys.ClosePicker}
	}
	bindings := []key.Binding{}
	if m.CanSubmit() {
		if m.focus == focusSubmit {
			bindings = append(bindings, m.keys.Activate)
		} else {
			bindings = append(bindings, m.keys.Submit)
		}
	}
	bindings = append(bindings, m.keys.NextFocus)
	if !m.gated() {
		bindings = append(bindings, m.keys.OpenPicker)
	}
	return bindings
}
