package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kwal/kwalctl/internal/panel"
	"github.com/kwal/kwalctl/internal/stream"
)

// sliderStep is how far one key press moves a slider.
const sliderStep = 5

// StateMsg delivers a fresh reconciled device snapshot to the panel.
type StateMsg panel.DeviceState

// ConnMsg delivers a push channel state change.
type ConnMsg stream.ConnectionState

// ErrMsg surfaces a failed device write.
type ErrMsg struct{ Err error }

// Actions are the device writes the panel can issue. All calls run in
// Bubble Tea commands so the UI never blocks on the network.
type Actions struct {
	SetBrightness func(pct int) error
	SetVolume     func(pct int) error
	NextPattern   func() error
	PrevPattern   func() error
	NextColor     func() error
	PrevColor     func() error
	NextFragment  func() error
	Vote          func(delta int) error
}

type watchKeyMap struct {
	BrightnessUp   key.Binding
	BrightnessDown key.Binding
	VolumeUp       key.Binding
	VolumeDown     key.Binding
	NextPattern    key.Binding
	PrevPattern    key.Binding
	NextColor      key.Binding
	PrevColor      key.Binding
	NextFragment   key.Binding
	VoteUp         key.Binding
	VoteDown       key.Binding
	Quit           key.Binding
}

func (k watchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.BrightnessUp, k.VolumeUp, k.NextPattern, k.NextColor, k.NextFragment, k.Quit}
}

func (k watchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.BrightnessUp, k.BrightnessDown, k.VolumeUp, k.VolumeDown},
		{k.NextPattern, k.PrevPattern, k.NextColor, k.PrevColor},
		{k.NextFragment, k.VoteUp, k.VoteDown, k.Quit},
	}
}

func newWatchKeyMap() watchKeyMap {
	return watchKeyMap{
		BrightnessUp: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/↓", "brightness"),
		),
		BrightnessDown: key.NewBinding(
			key.WithKeys("down", "j"),
		),
		VolumeUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+/-", "volume"),
		),
		VolumeDown: key.NewBinding(
			key.WithKeys("-", "_"),
		),
		NextPattern: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n/p", "pattern"),
		),
		PrevPattern: key.NewBinding(
			key.WithKeys("p"),
		),
		NextColor: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N/P", "colors"),
		),
		PrevColor: key.NewBinding(
			key.WithKeys("P"),
		),
		NextFragment: key.NewBinding(
			key.WithKeys("f", " "),
			key.WithHelp("f", "next track"),
		),
		VoteUp: key.NewBinding(
			key.WithKeys("v"),
		),
		VoteDown: key.NewBinding(
			key.WithKeys("V"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// WatchModel is the live panel: reconciled device state plus the push
// channel's connection state.
type WatchModel struct {
	controller string
	state      panel.DeviceState
	conn       stream.ConnectionState
	actions    Actions
	keys       watchKeyMap
	help       help.Model
	lastErr    error
	width      int
	height     int
}

// NewWatchModel creates the panel for the named controller.
func NewWatchModel(controller string, initial panel.DeviceState, actions Actions) WatchModel {
	return WatchModel{
		controller: controller,
		state:      initial,
		conn:       stream.Connecting,
		actions:    actions,
		keys:       newWatchKeyMap(),
		help:       help.New(),
		width:      GetTerminalWidth(),
	}
}

// Init implements tea.Model.
func (m WatchModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case StateMsg:
		m.state = panel.DeviceState(msg)
		m.lastErr = nil
		return m, nil

	case ConnMsg:
		m.conn = stream.ConnectionState(msg)
		return m, nil

	case ErrMsg:
		m.lastErr = msg.Err
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m WatchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.BrightnessUp):
		pct := clampStep(m.state.Brightness.Pct + sliderStep)
		m.state.Brightness.Pct = pct
		return m, m.do(func() error { return m.actions.SetBrightness(pct) })

	case key.Matches(msg, m.keys.BrightnessDown):
		pct := clampStep(m.state.Brightness.Pct - sliderStep)
		m.state.Brightness.Pct = pct
		return m, m.do(func() error { return m.actions.SetBrightness(pct) })

	case key.Matches(msg, m.keys.VolumeUp):
		pct := clampStep(m.state.Volume.Pct + sliderStep)
		m.state.Volume.Pct = pct
		return m, m.do(func() error { return m.actions.SetVolume(pct) })

	case key.Matches(msg, m.keys.VolumeDown):
		pct := clampStep(m.state.Volume.Pct - sliderStep)
		m.state.Volume.Pct = pct
		return m, m.do(func() error { return m.actions.SetVolume(pct) })

	case key.Matches(msg, m.keys.NextPattern):
		return m, m.do(m.actions.NextPattern)
	case key.Matches(msg, m.keys.PrevPattern):
		return m, m.do(m.actions.PrevPattern)
	case key.Matches(msg, m.keys.NextColor):
		return m, m.do(m.actions.NextColor)
	case key.Matches(msg, m.keys.PrevColor):
		return m, m.do(m.actions.PrevColor)
	case key.Matches(msg, m.keys.NextFragment):
		return m, m.do(m.actions.NextFragment)
	case key.Matches(msg, m.keys.VoteUp):
		return m, m.do(func() error { return m.actions.Vote(1) })
	case key.Matches(msg, m.keys.VoteDown):
		return m, m.do(func() error { return m.actions.Vote(-1) })
	}

	return m, nil
}

func clampStep(pct int) int {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// do wraps a device write in a command, surfacing failures as ErrMsg.
func (m WatchModel) do(fn func() error) tea.Cmd {
	if fn == nil {
		return nil
	}
	return func() tea.Msg {
		if err := fn(); err != nil {
			return ErrMsg{Err: err}
		}
		return nil
	}
}

// View implements tea.Model.
func (m WatchModel) View() string {
	var b strings.Builder

	title := TitleStyle.Render("KWAL " + m.controller)
	b.WriteString(title)
	b.WriteString("  ")
	b.WriteString(m.renderConnState())
	b.WriteString("\n\n")

	b.WriteString(RenderSlider("Brightness", m.state.Brightness))
	b.WriteString("\n")
	b.WriteString(RenderSlider("Volume", m.state.Volume))
	b.WriteString("\n\n")

	b.WriteString(m.renderRow("Pattern", m.state.PatternLabel, m.state.PatternID))
	b.WriteString("\n")
	b.WriteString(m.renderRow("Colors", m.state.ColorLabel, m.state.ColorID))
	b.WriteString("\n")
	b.WriteString(m.renderFragment())
	b.WriteString("\n")

	if m.lastErr != nil {
		b.WriteString("\n")
		b.WriteString(ErrorStyle.Render("✗ " + m.lastErr.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	width := m.width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}
	return PanelBorderStyle(width).Render(b.String())
}

func (m WatchModel) renderConnState() string {
	switch m.conn {
	case stream.Connected:
		return ConnectedStyle.Render("● connected")
	case stream.Connecting:
		return RecoveringStyle.Render("● connecting")
	case stream.RecoveringViaPoll:
		return RecoveringStyle.Render("● reconnecting")
	default:
		return DisconnectedStyle.Render("● disconnected")
	}
}

func (m WatchModel) renderRow(label, value, id string) string {
	if value == "" {
		value = id
	}
	if value == "" {
		value = "-"
	}
	text := ActiveStyle.Render(value)
	if id != "" && value != id {
		text += " " + HelpStyle.Render("("+id+")")
	}
	return LabelStyle.Render(label) + " " + text
}

func (m WatchModel) renderFragment() string {
	fr := m.state.Fragment
	if fr.Dir == 0 && fr.File == 0 {
		return LabelStyle.Render("Playing") + " " + HelpStyle.Render("-")
	}
	text := fmt.Sprintf("dir %d / file %d  score %d", fr.Dir, fr.File, fr.Score)
	if fr.Duration > 0 {
		text += fmt.Sprintf("  %.1fs", fr.Duration.Seconds())
	}
	return LabelStyle.Render("Playing") + " " + ValueStyle.Render(text)
}
