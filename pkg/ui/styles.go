package ui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true).
			MarginLeft(2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Margin(1, 0)

	cardStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("255")).
			Foreground(lipgloss.Color("0")).
			Padding(0, 1).
			Margin(0, 1).
			Border(lipgloss.RoundedBorder())

	redCardStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("255")).
			Foreground(lipgloss.Color("196")).
			Padding(0, 1).
			Margin(0, 1).
			Border(lipgloss.RoundedBorder())

	playerBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 2).
			Margin(0, 1)

	currentPlayerStyle = lipgloss.NewStyle().
				Border(lipgloss.ThickBorder()).
				BorderForeground(lipgloss.Color("46")).
				Padding(0, 2).
				Margin(0, 1).
				Background(lipgloss.Color("22"))

	youPlayerStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 2).
			Margin(0, 1).
			Background(lipgloss.Color("17"))

	foldedPlayerStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("241")).
				Foreground(lipgloss.Color("241")).
				Padding(0, 2).
				Margin(0, 1)

	potStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("22")).
			Foreground(lipgloss.Color("46")).
			Padding(0, 2).
			Margin(1, 0).
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("46")).
			Bold(true)

	actionButtonStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("17")).
				Foreground(lipgloss.Color("39")).
				Padding(0, 2).
				Margin(0, 1).
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39"))

	selectedActionStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("39")).
				Foreground(lipgloss.Color("0")).
				Padding(0, 2).
				Margin(0, 1).
				Border(lipgloss.ThickBorder()).
				BorderForeground(lipgloss.Color("46")).
				Bold(true)

	errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// cardGlyph renders a two-character card code ("Ah", "Td") with the
// red style for hearts/diamonds.
func cardGlyph(code string) string {
	if len(code) == 2 && (code[1] == 'h' || code[1] == 'd') {
		return redCardStyle.Render(code)
	}
	return cardStyle.Render(code)
}
