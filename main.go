// ABOUTME: Entry point for the pitchloop trainer
// ABOUTME: Parses CLI flags, layers them over saved preferences and runs the TUI
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pitchloop/pitchloop-go/internal/app"
	"github.com/pitchloop/pitchloop-go/internal/config"
	"github.com/pitchloop/pitchloop-go/internal/loop"
	"github.com/pitchloop/pitchloop-go/internal/ui"
	"github.com/pitchloop/pitchloop-go/internal/version"
	"github.com/pitchloop/pitchloop-go/pkg/audio/output"
	tea "github.com/charmbracelet/bubbletea"
)

var (
	configPath  = flag.String("config", "", "Preferences file (default: ~/.config/pitchloop/config.json)")
	workDir     = flag.String("work-dir", "", "Directory for the clip working copy and takes")
	inputDevice = flag.String("input-device", "", "Capture source name (default: system default)")
	loopDelay   = flag.String("loop-delay", "", "Pause between repeats in milliseconds (0-800)")
	looping     = flag.Bool("loop", false, "Repeat the loop region")
	margin      = flag.Float64("margin", 0.35, "Seconds kept clear before the clip end")
	maxRecord   = flag.Duration("max-record", 10*time.Second, "Longest take to record")
	outputName  = flag.String("output", "oto", "Take playback backend: oto or portaudio")
	yScale      = flag.String("y-scale", "", "Fixed contour y-axis maximum in Hz (default: follow the clip)")
	logFile     = flag.String("log-file", "pitchloop.log", "Log file path")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [clip]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	useTUI := !*noTUI

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	log.Printf("Starting %s", version.String())

	prefsPath := *configPath
	if prefsPath == "" {
		if prefsPath, err = config.DefaultPath(); err != nil {
			log.Printf("No preferences path: %v", err)
		}
	}

	cfg, err := config.Load(prefsPath)
	if err != nil {
		log.Printf("Ignoring preferences: %v", err)
		cfg = config.DefaultConfig()
	}
	applyFlags(cfg)

	dir, err := cfg.ResolveWorkDir()
	if err != nil {
		log.Fatalf("Failed to resolve work dir: %v", err)
	}

	// TUI setup
	var tuiProg *tea.Program
	var controls *ui.Controls
	tuiDone := make(chan struct{})

	if useTUI {
		controls = ui.NewControls()
		tuiProg, err = ui.Run(controls)
		if err != nil {
			log.Fatalf("Failed to start TUI: %v", err)
		}
		go func() {
			defer close(tuiDone)
			if _, err := tuiProg.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
		}()
	} else {
		close(tuiDone)
	}

	newOutput, err := output.Factory(cfg.Output)
	if err != nil {
		log.Fatalf("Invalid output: %v", err)
	}

	var lastMu sync.Mutex
	var last app.Status

	trainer, err := app.New(app.Config{
		WorkDir:      dir,
		InputDevice:  cfg.InputDevice,
		Margin:       cfg.Margin().Seconds(),
		LoopDelay:    cfg.LoopDelay(),
		Looping:      cfg.Looping,
		MaxRecording: cfg.MaxRecording(),
		YScale:       int(cfg.YScale),
		NewOutput:    newOutput,
		OnStatus: func(s app.Status) {
			lastMu.Lock()
			last = s
			lastMu.Unlock()

			if tuiProg != nil {
				tuiProg.Send(toStatusMsg(s))
			}
		},
	})
	if err != nil {
		log.Fatalf("Failed to create trainer: %v", err)
	}
	trainer.Start()

	if *yScale != "" {
		trainer.SetScale(*yScale)
	}

	if clip := flag.Arg(0); clip != "" {
		trainer.Load(clip)
	}

	if controls != nil {
		go handleControls(trainer, controls)
	}

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for quit signal from TUI or OS
	if controls != nil {
		select {
		case <-controls.Quit:
			log.Printf("Received quit signal from TUI")
		case <-sigChan:
			log.Printf("Shutdown signal received")
			tuiProg.Quit()
		}
	} else {
		<-sigChan
		log.Printf("Shutdown signal received")
	}

	if err := trainer.Close(); err != nil {
		log.Printf("Error closing trainer: %v", err)
	}
	<-tuiDone

	lastMu.Lock()
	cfg.Looping = last.Looping
	cfg.LoopDelayMs = int(last.Delay.Milliseconds())
	lastMu.Unlock()

	if prefsPath != "" {
		if err := cfg.Save(prefsPath); err != nil {
			log.Printf("Failed to save preferences: %v", err)
		}
	}

	log.Printf("Trainer stopped")
}

// applyFlags overrides preferences with flags given on the command line
func applyFlags(cfg *config.Config) {
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "work-dir":
			cfg.WorkDir = *workDir
		case "input-device":
			cfg.InputDevice = *inputDevice
		case "loop-delay":
			cfg.LoopDelayMs = int(loop.ParseDelay(*loopDelay).Milliseconds())
		case "loop":
			cfg.Looping = *looping
		case "margin":
			cfg.MarginSeconds = *margin
		case "max-record":
			cfg.MaxRecordSeconds = maxRecord.Seconds()
		case "output":
			cfg.Output = *outputName
		}
	})
}

// handleControls processes key commands from the TUI
func handleControls(trainer *app.Trainer, controls *ui.Controls) {
	for {
		select {
		case cmd := <-controls.Commands:
			switch cmd.Action {
			case ui.ActionTogglePlay:
				trainer.TogglePlay()
			case ui.ActionStop:
				trainer.Stop()
			case ui.ActionToggleLoop:
				trainer.ToggleLooping()
			case ui.ActionDelay:
				trainer.AdjustLoopDelay(cmd.Delay)
			case ui.ActionNudgeRegion:
				trainer.NudgeRegion(cmd.Start, cmd.End)
			case ui.ActionClearRegion:
				trainer.ClearRegion()
			case ui.ActionToggleRecord:
				trainer.ToggleRecording()
			case ui.ActionToggleTake:
				trainer.ToggleTake()
			case ui.ActionLoopTake:
				trainer.LoopTake()
			case ui.ActionStopTake:
				trainer.StopTake()
			case ui.ActionScale:
				trainer.AdjustScale(cmd.Scale)
			case ui.ActionResetScale:
				trainer.ResetScale()
			}
		case <-controls.Quit:
			return
		}
	}
}

func toStatusMsg(s app.Status) ui.StatusMsg {
	return ui.StatusMsg{
		ClipName:     s.ClipName,
		ClipDuration: s.ClipDuration,
		State:        s.State,
		Position:     s.Position,
		RegionStart:  s.RegionStart,
		RegionEnd:    s.RegionEnd,
		Looping:      s.Looping,
		Delay:        s.Delay,
		Recording:    s.Recording,
		TakeState:    s.TakeState,
		TakeLooping:  s.TakeLooping,
		TakePosition: s.TakePosition,
		TakeDuration: s.TakeDuration,
		ClipTrace:    s.ClipTrace,
		TakeTrace:    s.TakeTrace,
		Scale:        s.Scale,
		Notice:       s.Notice,
	}
}
