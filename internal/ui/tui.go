// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and the channels carrying key commands to the trainer
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Action identifies a user command
type Action int

const (
	ActionTogglePlay Action = iota
	ActionStop
	ActionToggleLoop
	ActionDelay
	ActionNudgeRegion
	ActionClearRegion
	ActionToggleRecord
	ActionToggleTake
	ActionLoopTake
	ActionStopTake
	ActionScale
	ActionResetScale
)

// Command is a key press translated for the trainer
type Command struct {
	Action Action
	Start  float64       // region start offset, seconds
	End    float64       // region end offset, seconds
	Delay  time.Duration // loop delay step
	Scale  int           // y-axis step, Hz
}

// QuitMsg signals the user asked to quit
type QuitMsg struct{}

// Controls holds channels for TUI to application communication
type Controls struct {
	Commands chan Command
	Quit     chan QuitMsg
}

// NewControls creates a new control handler
func NewControls() *Controls {
	return &Controls{
		Commands: make(chan Command, 32),
		Quit:     make(chan QuitMsg, 1),
	}
}

// NewModel creates a new TUI model
func NewModel(controls *Controls) Model {
	return Model{
		scale:    500,
		controls: controls,
	}
}

// Run creates the TUI program
func Run(controls *Controls) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(controls), tea.WithAltScreen())
	return p, nil
}
