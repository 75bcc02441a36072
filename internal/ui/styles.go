package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/kwal/kwalctl/internal/panel"
)

// Layout constants
const (
	MinTerminalWidth = 60
	MaxContentWidth  = 100
	SliderTrackWidth = 30
)

// Color palette
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple - headers, borders
	SuccessColor = lipgloss.Color("#43BF6D") // Green - connected, active
	ErrorColor   = lipgloss.Color("#FF5555") // Red - errors, disconnected
	WarningColor = lipgloss.Color("#FFA500") // Orange - recovering
	MutedColor   = lipgloss.Color("#626262") // Gray - secondary info
	TextColor    = lipgloss.Color("#FFFFFF") // White - main content
)

// Shared styles for the watch panel
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Width(12)

	ValueStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	ActiveStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	ConnectedStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	RecoveringStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	DisconnectedStyle = lipgloss.NewStyle().
				Foreground(ErrorColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	HelpStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	TrackStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	FillStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	BoundStyle = lipgloss.NewStyle().
			Foreground(WarningColor)
)

// PanelBorderStyle returns the outer border for the watch panel.
func PanelBorderStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2).
		Padding(0, 1)
}

// GetTerminalWidth returns the current terminal width, with fallback.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < MinTerminalWidth {
		return MinTerminalWidth
	}
	if width > MaxContentWidth {
		return MaxContentWidth
	}
	return width
}

// IsTerminal reports whether stdout is attached to a terminal. The watch
// command refuses to run when piped.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// RenderSlider draws a labelled horizontal slider. The usable range the
// controller reported is marked on the track; the filled portion shows the
// current value.
func RenderSlider(label string, s panel.SliderState) string {
	track := make([]rune, SliderTrackWidth)
	fillEnd := s.Pct * SliderTrackWidth / 100
	loMark := s.LoPct * (SliderTrackWidth - 1) / 100
	hiMark := s.HiPct * (SliderTrackWidth - 1) / 100

	for i := range track {
		switch {
		case i < fillEnd:
			track[i] = '█'
		default:
			track[i] = '─'
		}
	}

	var b strings.Builder
	for i, r := range track {
		cell := string(r)
		switch {
		case i == loMark || i == hiMark:
			b.WriteString(BoundStyle.Render("┃"))
		case r == '█':
			b.WriteString(FillStyle.Render(cell))
		default:
			b.WriteString(TrackStyle.Render(cell))
		}
	}

	return fmt.Sprintf("%s %s %s",
		LabelStyle.Render(label),
		b.String(),
		ValueStyle.Render(fmt.Sprintf("%3d%%", s.Pct)),
	)
}
