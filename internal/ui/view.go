package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/diamondburned/pulse/internal/durafmt"
	"github.com/diamondburned/pulse/internal/state"
)

var (
	accent = lipgloss.Color("#DFFF00")
	danger = lipgloss.Color("#FF0033")
	muted  = lipgloss.Color("#6B6B76")

	logoStyle   = lipgloss.NewStyle().Foreground(accent).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(muted).Bold(true)
	activeStyle = lipgloss.NewStyle().Foreground(accent)
	mutedStyle  = lipgloss.NewStyle().Foreground(muted)
	dangerStyle = lipgloss.NewStyle().Foreground(danger)
	barStyle    = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(lipgloss.Color("#1F1F22"))
)

func fuzzyMatch(query, name string) bool {
	return fuzzy.MatchFold(query, name)
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(logoStyle.Render("⚡ PULSE_OS"))
	b.WriteString("\n\n")

	if m.view == viewRoot {
		m.viewRootList(&b)
	} else {
		m.viewFolderList(&b)
	}

	b.WriteString("\n")
	b.WriteString(barStyle.Width(max(m.width-2, 40)).Render(m.viewPlayerBar()))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(m.viewHelp()))

	return b.String()
}

func (m *Model) viewRootList(b *strings.Builder) {
	b.WriteString(labelStyle.Render("SIGNAL_DIRECTORIES"))
	b.WriteString("\n")

	rows := []string{fmt.Sprintf("★ FAVORITES (%d)", len(m.store.Favorites()))}
	for _, f := range m.sortedFolders() {
		rows = append(rows, fmt.Sprintf("▸ %-24s %4d ↟", f.Name, f.Listeners))
	}

	for i, row := range rows {
		b.WriteString(m.renderRow(row, i == m.cursor))
		b.WriteString("\n")
	}

	if len(rows) == 1 {
		b.WriteString(mutedStyle.Render("  (no folders; import an M3U to get started)"))
		b.WriteString("\n")
	}
}

func (m *Model) viewFolderList(b *strings.Builder) {
	f, ok := m.store.SelectedFolder()
	if !ok {
		b.WriteString(mutedStyle.Render("(folder vanished)"))
		b.WriteString("\n")
		return
	}

	b.WriteString(labelStyle.Render(f.Name))
	if f.ID != state.FavoritesFolderID {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  %d listening", f.Listeners)))
	}
	b.WriteString("\n")

	if m.searching || m.search != "" {
		b.WriteString(mutedStyle.Render("FILTER_SIGNAL: " + m.search))
		if m.searching {
			b.WriteString(activeStyle.Render("▌"))
		}
		b.WriteString("\n")
	}

	stations := m.visibleStations()
	current, hasCurrent := m.store.CurrentStation()

	for i, st := range stations {
		marker := "·"
		if hasCurrent && current.ID == st.ID {
			marker = "▶"
			if m.store.IsLoading() {
				marker = m.spin.View()
			}
		}

		fav := " "
		if m.store.IsFavorite(st.ID) {
			fav = "★"
		}

		row := fmt.Sprintf("%s %s %s", marker, fav, st.Name)
		b.WriteString(m.renderRow(row, i == m.cursor))
		b.WriteString("\n")
	}

	if len(stations) == 0 {
		b.WriteString(mutedStyle.Render("  (no signals here)"))
		b.WriteString("\n")
	}
}

func (m *Model) renderRow(row string, selected bool) string {
	if selected {
		return activeStyle.Render("> " + row)
	}
	return "  " + row
}

func (m *Model) viewPlayerBar() string {
	var parts []string

	switch {
	case m.status == statusLost:
		parts = append(parts, dangerStyle.Render(m.status))
	case m.store.IsLoading():
		parts = append(parts, m.spin.View()+" "+statusSyncing)
	case m.store.IsPlaying():
		parts = append(parts, activeStyle.Render("● "+statusLive))
	default:
		parts = append(parts, mutedStyle.Render("○ "+m.status))
	}

	if current, ok := m.store.CurrentStation(); ok {
		parts = append(parts, strings.ToUpper(current.Name))

		if m.store.IsPlaying() {
			parts = append(parts, durafmt.Format(time.Since(m.startedAt)))
		}
	}

	if m.icyTitle != "" {
		parts = append(parts, mutedStyle.Render(m.icyTitle))
	}

	parts = append(parts, fmt.Sprintf("VOL %3.0f%%", m.volume*100))

	if m.recorder != nil {
		parts = append(parts, dangerStyle.Render("◉ REC"))
	}

	if m.notice != "" {
		parts = append(parts, mutedStyle.Render(m.notice))
	}

	return strings.Join(parts, "  │  ")
}

func (m *Model) viewHelp() string {
	if m.view == viewRoot {
		return "↑/↓ move · enter open · d delete · F favorites · space pause · q quit"
	}
	return "↑/↓ move · enter play · / filter · f fav · d remove · s share · r rec · esc back"
}
