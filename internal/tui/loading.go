package tui

import (
	"time"

	"github.com/charmbracelet/lipgloss"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// renderLoadingPlaceholder is shown until the first poll completes.
// The frame is picked from the wall clock so it advances on every re-render.
func renderLoadingPlaceholder(width, height int, target string) string {
	frame := spinnerFrames[time.Now().UnixMilli()/120%int64(len(spinnerFrames))]

	text := frame + " Connecting"
	if target != "" {
		text += " to " + target
	}
	text += "..."

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, loadingStyle.Render(text))
}
