// ABOUTME: Bubbletea model for the trainer TUI
// ABOUTME: Holds the last status snapshot, renders both contours and maps keys to commands
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pitchloop/pitchloop-go/internal/loop"
	"github.com/pitchloop/pitchloop-go/internal/session"
	"github.com/pitchloop/pitchloop-go/internal/version"
	"github.com/pitchloop/pitchloop-go/pkg/pitch"
)

const (
	regionStep = 0.05 // seconds
	scaleStep  = 50   // Hz
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	clipStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	takeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("111"))
	recordStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	noticeStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("245"))
	helpStyle   = lipgloss.NewStyle().Faint(true)
)

// Model represents the TUI state
type Model struct {
	// Clip
	clipName     string
	clipDuration float64
	state        loop.State
	position     float64
	regionStart  float64
	regionEnd    float64
	looping      bool
	delay        time.Duration

	// Take
	recording    bool
	takeState    session.PlaybackState
	takeLooping  bool
	takePosition float64
	takeDuration float64

	// Contours
	clipTrace pitch.Trace
	takeTrace pitch.Trace
	scale     int

	notice   string
	showHelp bool
	quitting bool

	// Dimensions
	width  int
	height int

	controls *Controls
}

// StatusMsg updates TUI state with a full trainer snapshot
type StatusMsg struct {
	ClipName     string
	ClipDuration float64
	State        loop.State
	Position     float64
	RegionStart  float64
	RegionEnd    float64
	Looping      bool
	Delay        time.Duration
	Recording    bool
	TakeState    session.PlaybackState
	TakeLooping  bool
	TakePosition float64
	TakeDuration float64
	ClipTrace    pitch.Trace
	TakeTrace    pitch.Trace
	Scale        int
	Notice       string
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString(m.renderClip())
	b.WriteString(m.renderTake())
	b.WriteString(m.renderNotice())
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) plotWidth() int {
	return max(20, m.width-2)
}

// renderHeader renders clip name and loop settings
func (m Model) renderHeader() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(version.String()))
	b.WriteString("\n\n")

	name := m.clipName
	if name == "" {
		name = "(no clip loaded)"
	}
	b.WriteString(headerStyle.Render("Clip:   "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%s  %s", truncate(name, 40), formatSeconds(m.clipDuration))))
	b.WriteString("\n")

	loopText := "off"
	if m.looping {
		loopText = fmt.Sprintf("on, %dms delay", m.delay.Milliseconds())
	}
	b.WriteString(headerStyle.Render("Loop:   "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%s → %s  (%s, %s)",
		formatSeconds(m.regionStart), formatSeconds(m.regionEnd), loopText, m.state)))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Y-axis: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d Hz", m.scale)))
	b.WriteString("\n\n")

	return b.String()
}

// renderClip renders the clip contour with the region bar and indicator
func (m Model) renderClip() string {
	width := m.plotWidth()
	grid := plotTrace(m.clipTrace, m.clipDuration, m.scale, width, plotHeight, dotClip)

	var b strings.Builder
	b.WriteString(clipStyle.Render(renderGrid(grid)))
	b.WriteString(" ")
	b.WriteString(axisBar(m.clipDuration, m.regionStart, m.regionEnd, m.position, width, m.clipDuration > 0))
	b.WriteString("\n")
	b.WriteString(valueStyle.Render(fmt.Sprintf(" %s / %s", formatSeconds(m.position), formatSeconds(m.clipDuration))))
	b.WriteString("\n\n")
	return b.String()
}

// renderTake renders the take contour and its playback state
func (m Model) renderTake() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Take:   "))
	switch {
	case m.recording:
		b.WriteString(recordStyle.Render("● recording"))
	case m.takeDuration == 0:
		b.WriteString(valueStyle.Render("none"))
	default:
		state := m.takeState.String()
		if m.takeLooping {
			state = "looping"
		}
		b.WriteString(valueStyle.Render(fmt.Sprintf("%s  %s / %s",
			state, formatSeconds(m.takePosition), formatSeconds(m.takeDuration))))
	}
	b.WriteString("\n")

	if m.takeDuration > 0 {
		width := m.plotWidth()
		grid := plotTrace(m.takeTrace, m.takeDuration, m.scale, width, plotHeight/2, dotTake)
		b.WriteString(takeStyle.Render(renderGrid(grid)))
		b.WriteString(" ")
		b.WriteString(axisBar(m.takeDuration, 0, 0, m.takePosition, width, m.takeState != session.PlaybackStopped))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderNotice() string {
	if m.notice == "" {
		return "\n"
	}
	return noticeStyle.Render(truncate(m.notice, m.plotWidth())) + "\n"
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	if !m.showHelp {
		return helpStyle.Render("space:Play/Pause  s:Stop  l:Loop  r:Record  p:Take  ?:Help  q:Quit") + "\n"
	}
	return helpStyle.Render(strings.Join([]string{
		"space  play / pause clip        s  stop clip",
		"l      loop on / off            +/-  loop delay ±50ms",
		"[ ]    move loop start          { }  move loop end",
		"c      loop whole clip          r  record / stop recording",
		"p      play / pause take        o  loop take   x  stop take",
		"↑/↓    y-axis ±50 Hz            0  y-axis from clip",
		"?      hide help                q  quit",
	}, "\n")) + "\n"
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		if m.controls != nil {
			select {
			case m.controls.Quit <- QuitMsg{}:
			default:
			}
		}
		return m, tea.Quit
	case " ":
		m.send(Command{Action: ActionTogglePlay})
	case "s":
		m.send(Command{Action: ActionStop})
	case "l":
		m.send(Command{Action: ActionToggleLoop})
	case "+", "=":
		m.send(Command{Action: ActionDelay, Delay: loop.DelayStep})
	case "-":
		m.send(Command{Action: ActionDelay, Delay: -loop.DelayStep})
	case "[":
		m.send(Command{Action: ActionNudgeRegion, Start: -regionStep})
	case "]":
		m.send(Command{Action: ActionNudgeRegion, Start: regionStep})
	case "{":
		m.send(Command{Action: ActionNudgeRegion, End: -regionStep})
	case "}":
		m.send(Command{Action: ActionNudgeRegion, End: regionStep})
	case "c":
		m.send(Command{Action: ActionClearRegion})
	case "r":
		m.send(Command{Action: ActionToggleRecord})
	case "p":
		m.send(Command{Action: ActionToggleTake})
	case "o":
		m.send(Command{Action: ActionLoopTake})
	case "x":
		m.send(Command{Action: ActionStopTake})
	case "up":
		m.send(Command{Action: ActionScale, Scale: scaleStep})
	case "down":
		m.send(Command{Action: ActionScale, Scale: -scaleStep})
	case "0":
		m.send(Command{Action: ActionResetScale})
	case "?", "h":
		m.showHelp = !m.showHelp
	}

	return m, nil
}

// send forwards a command without blocking the UI
func (m Model) send(cmd Command) {
	if m.controls == nil {
		return
	}
	select {
	case m.controls.Commands <- cmd:
	default:
	}
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	m.clipName = msg.ClipName
	m.clipDuration = msg.ClipDuration
	m.state = msg.State
	m.position = msg.Position
	m.regionStart = msg.RegionStart
	m.regionEnd = msg.RegionEnd
	m.looping = msg.Looping
	m.delay = msg.Delay
	m.recording = msg.Recording
	m.takeState = msg.TakeState
	m.takeLooping = msg.TakeLooping
	m.takePosition = msg.TakePosition
	m.takeDuration = msg.TakeDuration
	m.clipTrace = msg.ClipTrace
	m.takeTrace = msg.TakeTrace
	if msg.Scale > 0 {
		m.scale = msg.Scale
	}
	m.notice = msg.Notice
}

func formatSeconds(s float64) string {
	return fmt.Sprintf("%.2fs", s)
}

func truncate(s string, length int) string {
	r := []rune(s)
	if len(r) <= length {
		return s
	}
	if length <= 3 {
		return string(r[:length])
	}
	return string(r[:length-3]) + "..."
}
