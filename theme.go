package explorer

import "github.com/charmbracelet/lipgloss"

// Theme provides the color pairs for synthetic-row selection feedback.
// Which pair applies depends on whether the surrounding panel holds input
// focus.
type Theme struct {
	SelectedActiveBG   lipgloss.Color // panel focused
	SelectedActiveFG   lipgloss.Color
	SelectedInactiveBG lipgloss.Color // panel unfocused
	SelectedInactiveFG lipgloss.Color
	RowFG              lipgloss.Color
	IconFG             lipgloss.Color
}

// DefaultTheme matches the host application's native selection colors.
var DefaultTheme = Theme{
	SelectedActiveBG:   lipgloss.Color("#0a84ff"),
	SelectedActiveFG:   lipgloss.Color("#ffffff"),
	SelectedInactiveBG: lipgloss.Color("#d4d4d4"),
	SelectedInactiveFG: lipgloss.Color("#000000"),
	RowFG:              lipgloss.Color("#222222"),
	IconFG:             lipgloss.Color("#f5a623"),
}
