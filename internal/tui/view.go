package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	heroAccentColor = lipgloss.Color("#ff8c42")
	heroMutedColor  = lipgloss.Color("#b8a58f")

	titleStyle         = lipgloss.NewStyle().Bold(true).Foreground(heroAccentColor)
	taglineStyle       = lipgloss.NewStyle().Foreground(heroMutedColor).Italic(true)
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helperStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	spinnerStyle       = lipgloss.NewStyle().Foreground(heroAccentColor)
	statusBarStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	appStyle           = lipgloss.NewStyle().Padding(0, 2)
)

func (m *model) View() string {
	m.refreshViewportIfDirty()
	parts := []string{
		m.heroView(),
		m.viewport.View(),
		m.messageView(),
		m.prompt.View(),
		m.statusBarView(),
	}
	return appStyle.Render(joinNonEmpty(parts))
}

func (m *model) refreshViewportIfDirty() {
	if !m.viewportDirty {
		return
	}
	m.viewport.SetContent(m.buildTranscript())
	m.viewport.GotoBottom()
	m.viewportDirty = false
}

func (m *model) heroView() string {
	return titleStyle.Render("napkin") + "\n" + taglineStyle.Render("sketch it, drop it, describe it")
}

func (m *model) messageView() string {
	var lines []string
	if m.errorMessage != "" {
		lines = append(lines, errorStyle.Render(m.errorMessage))
	}
	if m.infoMessage != "" {
		message := m.infoMessage
		if m.generating {
			message = fmt.Sprintf("%s %s", m.spinner.View(), message)
		}
		lines = append(lines, helperStyle.Render(message))
	}
	return strings.Join(lines, "\n")
}

func (m *model) statusBarView() string {
	backend := "no backend"
	if m.config.Generator != nil {
		backend = m.config.Generator.Name()
	}
	stats := []string{backend}
	if m.config.HistoryPath != "" {
		stats = append(stats, fmt.Sprintf("history %d", m.historyCount))
	}
	stats = append(stats, m.jobStatusBadges()...)
	stats = append(stats, "ctrl+r clear", "ctrl+c quit")
	return statusBarStyle.Render(strings.Join(stats, "  •  "))
}

func (m *model) jobStatusBadges() []string {
	if len(m.runningJobs) == 0 {
		return nil
	}
	ids := make([]string, 0, len(m.runningJobs))
	for id := range m.runningJobs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	badges := make([]string, 0, len(ids))
	for _, id := range ids {
		snapshot := m.runningJobs[id]
		badges = append(badges, fmt.Sprintf("%s %s", snapshot.Kind, snapshot.Status))
	}
	return badges
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}
