package progressui

import "github.com/charmbracelet/lipgloss"

// Styles groups the lipgloss styles used by the view.
type Styles struct {
	Title   lipgloss.Style
	Stage   lipgloss.Style
	Count   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Faint   lipgloss.Style
}

func defaultStyles() Styles {
	base := lipgloss.NewStyle()
	return Styles{
		Title:   base.Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		Stage:   base.Foreground(lipgloss.Color("#22D3EE")).Width(11),
		Count:   base.Foreground(lipgloss.Color("#D1D5DB")),
		Success: base.Foreground(lipgloss.Color("#22C55E")),
		Error:   base.Foreground(lipgloss.Color("#EF4444")),
		Faint:   base.Faint(true),
	}
}
