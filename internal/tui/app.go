// Package tui is the terminal visualizer: it plays recordings through an
// external player and renders either a mel spectrum or the beat component
// meters in sync with playback.
package tui

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/jmtucker/resonate/internal/engine"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/tview"
)

// Analysis is everything the visualizer needs for one file.
type Analysis struct {
	Components *engine.Components
	Spectrum   [][]float64 // mel bins x frames, dB values
	Times      []float64   // frame times for the spectrum
	Key        string
	TempoBPM   float64
}

// AnalyzeFunc loads (or computes) the analysis for an audio file.
type AnalyzeFunc func(ctx context.Context, path string) (*Analysis, error)

// Config holds TUI configuration options
type Config struct {
	RefreshRate time.Duration // How often to refresh the display
	PlayerBin   string        // External audio player (afplay by default)
}

// DefaultConfig returns the default TUI configuration
func DefaultConfig() Config {
	return Config{
		RefreshRate: 100 * time.Millisecond,
		PlayerBin:   "afplay",
	}
}

type renderMode int

const (
	modeBars renderMode = iota
	modeBeats
)

// App is the TUI application for visualizing recordings
type App struct {
	app    *tview.Application
	header *tview.TextView
	canvas *tview.TextView
	status *tview.TextView

	// Configuration
	config  Config
	files   []string
	analyze AnalyzeFunc

	// Mutex protects shared state accessed by the ticker goroutine, the
	// analysis loader goroutines, and key handlers.
	mu sync.Mutex

	// Current state (guarded by mu)
	idx        int
	mode       renderMode
	paused     bool
	startT     time.Time
	elapsed    time.Duration
	analysis   *Analysis
	loadErr    error
	playback   *exec.Cmd
	generation int // invalidates stale loader and waiter goroutines

	// Last-rendered content for change detection
	lastHeader string
	lastCanvas string

	// Context for playback and loader goroutines, set by Run
	ctx        context.Context
	cancelFunc context.CancelFunc
}

// New creates a new visualizer over the given files
func New(cfg Config, files []string, analyze AnalyzeFunc) *App {
	if cfg.RefreshRate <= 0 {
		cfg.RefreshRate = 100 * time.Millisecond
	}
	if cfg.PlayerBin == "" {
		cfg.PlayerBin = "afplay"
	}
	a := &App{
		app:     tview.NewApplication(),
		config:  cfg,
		files:   files,
		analyze: analyze,
	}
	a.setupUI()
	return a
}

// setupUI creates the UI layout
func (a *App) setupUI() {
	a.header = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	a.header.SetBorder(true)

	a.canvas = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	a.canvas.SetBorder(true)

	a.status = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetText("[gray]q:quit  space:play/pause  n:next  p:prev  v:mode[-]")

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.header, 3, 1, false).
		AddItem(a.canvas, 0, 1, false).
		AddItem(a.status, 1, 1, false)

	// Handle keyboard input
	a.app.SetInputCapture(a.handleKeyEvent)

	a.app.SetRoot(flex, true)
}

// handleKeyEvent processes keyboard input
func (a *App) handleKeyEvent(event *tcell.EventKey) *tcell.EventKey {
	if event.Key() == tcell.KeyEscape {
		a.Stop()
		return nil
	}
	switch event.Rune() {
	case 'q', 'Q':
		a.Stop()
		return nil
	case ' ':
		a.togglePause()
		return nil
	case 'n', 'N':
		a.step(1)
		return nil
	case 'p', 'P':
		a.step(-1)
		return nil
	case 'v', 'V':
		a.mu.Lock()
		if a.mode == modeBars {
			a.mode = modeBeats
		} else {
			a.mode = modeBars
		}
		a.mu.Unlock()
		return nil
	}
	return event
}

// Run starts playback of the first file and runs the UI until quit.
func (a *App) Run(ctx context.Context) error {
	if len(a.files) == 0 {
		return fmt.Errorf("no audio files to visualize")
	}

	a.ctx, a.cancelFunc = context.WithCancel(ctx)
	ctx = a.ctx

	a.mu.Lock()
	a.play(0)
	a.mu.Unlock()

	go a.refreshLoop(ctx)

	if err := a.app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	a.mu.Lock()
	a.stopPlayback()
	a.mu.Unlock()
	return nil
}

// refreshLoop drives all redraws from a single ticker to prevent queued
// redraw buildup.
func (a *App) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(a.config.RefreshRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.app.Stop()
			return
		case <-ticker.C:
			a.refresh()
		}
	}
}

// play switches playback to the given file index and kicks off analysis
// loading in the background. Must be called with a.mu held.
func (a *App) play(index int) {
	ctx := a.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	a.stopPlayback()

	a.idx = (index + len(a.files)) % len(a.files)
	a.paused = false
	a.startT = time.Now()
	a.elapsed = 0
	a.analysis = nil
	a.loadErr = nil
	a.generation++
	gen := a.generation
	path := a.files[a.idx]

	cmd := exec.Command(a.config.PlayerBin, path)
	if err := cmd.Start(); err != nil {
		a.loadErr = fmt.Errorf("failed to start %s: %w", a.config.PlayerBin, err)
		return
	}
	a.playback = cmd

	// Auto-advance when playback finishes naturally
	go func() {
		_ = cmd.Wait()
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.generation != gen || a.paused {
			return
		}
		if ctx.Err() == nil {
			a.play(a.idx + 1)
		}
	}()

	// Load analysis off the UI thread, as it may involve running the
	// external analyzer
	go func() {
		analysis, err := a.analyze(ctx, path)
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.generation != gen {
			return
		}
		a.analysis = analysis
		a.loadErr = err
	}()
}

// stopPlayback kills the current player process. Must be called with a.mu
// held.
func (a *App) stopPlayback() {
	a.generation++
	if a.playback != nil && a.playback.Process != nil {
		_ = a.playback.Process.Kill()
	}
	a.playback = nil
}

// step moves to an adjacent file.
func (a *App) step(delta int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.play(a.idx + delta)
}

// togglePause suspends or resumes the player process. afplay has no pause
// command, so the process itself is stopped and continued.
func (a *App) togglePause() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.playback == nil || a.playback.Process == nil {
		return
	}
	if a.paused {
		_ = a.playback.Process.Signal(syscall.SIGCONT)
		a.startT = time.Now().Add(-a.elapsed)
		a.paused = false
	} else {
		a.elapsed = time.Since(a.startT)
		_ = a.playback.Process.Signal(syscall.SIGSTOP)
		a.paused = true
	}
}

// refresh updates all UI components
func (a *App) refresh() {
	a.app.QueueUpdateDraw(func() {
		a.mu.Lock()
		defer a.mu.Unlock()

		if !a.paused {
			a.elapsed = time.Since(a.startT)
		}

		a.updateHeader()
		a.updateCanvas()
	})
}

// updateHeader updates the title line
func (a *App) updateHeader() {
	name := strings.TrimSuffix(filepath.Base(a.files[a.idx]), filepath.Ext(a.files[a.idx]))

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[white::b]%s[-:-:-]  [gray][%d/%d][-]",
		tview.Escape(name), a.idx+1, len(a.files)))
	if a.analysis != nil {
		if a.analysis.Key != "" {
			sb.WriteString(fmt.Sprintf("  [yellow]%s[-]", tview.Escape(a.analysis.Key)))
		}
		if a.analysis.TempoBPM > 0 {
			sb.WriteString(fmt.Sprintf("  [aqua]%.0f BPM[-]", a.analysis.TempoBPM))
		}
	}
	if a.paused {
		sb.WriteString("  [yellow]⏸[-]")
	}

	text := sb.String()
	if text != a.lastHeader {
		a.lastHeader = text
		a.header.SetText(text)
	}
}

// updateCanvas renders the active visualization mode
func (a *App) updateCanvas() {
	_, _, width, height := a.canvas.GetInnerRect()
	if width < 10 || height < 4 {
		return
	}

	var text string
	switch {
	case a.loadErr != nil:
		text = fmt.Sprintf("\n [red]%s[-]", tview.Escape(a.loadErr.Error()))
	case a.analysis == nil:
		text = "\n [gray]Analyzing...[-]"
	case a.mode == modeBars:
		text = renderSpectrum(a.analysis, a.elapsed.Seconds(), width, height)
	default:
		text = renderBeats(a.analysis.Components, a.elapsed.Seconds(), width)
	}

	if text != a.lastCanvas {
		a.lastCanvas = text
		a.canvas.SetText(text)
	}
}

// Stop stops the TUI application
func (a *App) Stop() {
	if a.cancelFunc != nil {
		a.cancelFunc()
	}
	a.app.Stop()
}

// dB range mapped onto full-height bars in the spectrum view.
const (
	specMinDB = -60.0
	specMaxDB = 0.0
)

// renderSpectrum draws one spectrum frame as a row of vertical bars, one
// mel bin per column group.
func renderSpectrum(an *Analysis, elapsed float64, width, height int) string {
	if len(an.Spectrum) == 0 || len(an.Times) == 0 {
		return ""
	}

	frame := frameIndex(an.Times, elapsed)
	bins := len(an.Spectrum)

	// Normalize the frame's dB values to 0..1 bar heights
	vals := make([]float64, bins)
	for i, row := range an.Spectrum {
		if frame >= len(row) {
			continue
		}
		v := (row[frame] - specMinDB) / (specMaxDB - specMinDB)
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		vals[i] = v
	}

	// Resample bins onto the available columns
	cols := width
	heights := make([]int, cols)
	for c := 0; c < cols; c++ {
		bin := c * bins / cols
		heights[c] = int(vals[bin] * float64(height))
	}

	var sb strings.Builder
	for row := height - 1; row >= 0; row-- {
		line := make([]rune, cols)
		for c := 0; c < cols; c++ {
			if heights[c] > row {
				line[c] = '█'
			} else {
				line[c] = ' '
			}
		}
		color := "[blue]"
		switch {
		case row >= height*2/3:
			color = "[fuchsia]"
		case row >= height/3:
			color = "[purple]"
		}
		sb.WriteString(color)
		sb.WriteString(string(line))
		sb.WriteString("[-]\n")
	}
	return sb.String()
}

// beatMeter describes one row of the beats view.
type beatMeter struct {
	label string
	name  string
	color string
}

var beatMeters = []beatMeter{
	{"Kick", "kick", "red"},
	{"Snare", "snare", "yellow"},
	{"Hi-hat", "hihat", "aqua"},
	{"Bass", "bass", "green"},
	{"Vocals", "vocals", "pink"},
}

// renderBeats draws the five component envelopes as horizontal meters.
func renderBeats(comps *engine.Components, elapsed float64, width int) string {
	if comps == nil {
		return "\n [gray]Analyzing beat components...[-]"
	}

	labelWidth := 0
	for _, m := range beatMeters {
		if w := runewidth.StringWidth(m.label); w > labelWidth {
			labelWidth = w
		}
	}

	barWidth := width - labelWidth - 4
	if barWidth < 4 {
		barWidth = 4
	}

	var sb strings.Builder
	for _, m := range beatMeters {
		v := comps.At(m.name, elapsed)
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		filled := int(v * float64(barWidth))

		sb.WriteString("\n ")
		sb.WriteString(runewidth.FillRight(m.label, labelWidth))
		sb.WriteString("  [")
		sb.WriteString(m.color)
		sb.WriteString("]")
		sb.WriteString(strings.Repeat("█", filled))
		sb.WriteString("[gray]")
		sb.WriteString(strings.Repeat("░", barWidth-filled))
		sb.WriteString("[-]\n")
	}
	return sb.String()
}

// frameIndex is the nearest-at-or-before frame lookup used by the spectrum
// view, matching Components.FrameAt.
func frameIndex(times []float64, elapsed float64) int {
	c := engine.Components{Times: times}
	idx := c.FrameAt(elapsed)
	if idx < 0 {
		return 0
	}
	return idx
}
