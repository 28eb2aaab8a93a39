package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// renderLoadingPlaceholder renders a centered animated loading indicator
// with a message. The frame is selected from the wall clock so it
// animates on re-render.
func renderLoadingPlaceholder(width, height int, message string) string {
	frame := spinnerFrames[time.Now().UnixMilli()/120%int64(len(spinnerFrames))]
	text := mutedStyle.Render(frame + " " + message)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, text)
}

// spinnerTickMsg triggers a re-render while something is in flight.
type spinnerTickMsg struct{}

func spinnerTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}
