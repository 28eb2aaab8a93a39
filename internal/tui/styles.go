package tui

import "github.com/charmbracelet/lipgloss"

// Palette shared by all pages.
var (
	ColorCoral  = lipgloss.Color("#FF6F61")
	ColorGold   = lipgloss.Color("#FFD700")
	ColorGreen  = lipgloss.Color("#49E209")
	ColorRed    = lipgloss.Color("#FF4444")
	ColorGray   = lipgloss.Color("245")
	ColorDim    = lipgloss.Color("240")
	ColorWhite  = lipgloss.Color("#FFFFFF")
	ColorCream  = lipgloss.Color("#FFF4E6")
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(ColorCoral).
			Bold(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorCoral).
			Padding(1, 2)

	tagStyle = lipgloss.NewStyle().
			Foreground(ColorWhite).
			Background(ColorCoral).
			Padding(0, 1)

	priceStyle = lipgloss.NewStyle().
			Foreground(ColorWhite).
			Background(ColorDim).
			Padding(0, 1)

	starStyle = lipgloss.NewStyle().
			Foreground(ColorGold)

	openStyle   = lipgloss.NewStyle().Foreground(ColorGreen).Bold(true)
	closedStyle = lipgloss.NewStyle().Foreground(ColorRed).Bold(true)

	labelStyle = lipgloss.NewStyle().Foreground(ColorGray)
	errorStyle = lipgloss.NewStyle().Foreground(ColorRed)
	helpStyle  = lipgloss.NewStyle().Foreground(ColorDim)
	mutedStyle = lipgloss.NewStyle().Foreground(ColorGray).Italic(true)

	inputLabelStyle = lipgloss.NewStyle().Foreground(ColorCream).Bold(true)
)

// renderBranding renders "NomNom!" with a warm gradient, one style per
// character.
func renderBranding() string {
	colors := []string{
		"#FF6F61",
		"#FF7D54",
		"#FF8B47",
		"#FF993A",
		"#FFA72D",
		"#FFB520",
		"#FFC313",
	}
	chars := []string{"N", "o", "m", "N", "o", "m", "!"}

	var result string
	for i, ch := range chars {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(colors[i])).Bold(true)
		result += style.Render(ch)
	}
	return result
}
