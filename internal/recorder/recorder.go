// Package recorder captures system audio from a CoreAudio loopback device
// (such as BlackHole) using sox. Recording runs as a child process bounded
// by a trim duration, so a hung recorder can always be stopped from here.
package recorder

import (
	"context"
	"fmt"
	"os/exec"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

// Config holds recorder settings. Capture format is fixed at 44.1 kHz
// 16-bit stereo signed WAV, matching what the analyzer expects.
type Config struct {
	SoxBin     string // sox executable (default "sox")
	DeviceName string // CoreAudio input device to capture from
}

// DefaultDeviceName is the loopback device the recordings are routed
// through on a stock setup.
const DefaultDeviceName = "BlackHole 2ch"

// Recorder starts bounded sox captures.
type Recorder struct {
	cfg    Config
	logger zerolog.Logger
}

// New creates a Recorder, filling in defaults for unset config fields.
func New(cfg Config, logger zerolog.Logger) *Recorder {
	if cfg.SoxBin == "" {
		cfg.SoxBin = "sox"
	}
	if cfg.DeviceName == "" {
		cfg.DeviceName = DefaultDeviceName
	}
	return &Recorder{
		cfg:    cfg,
		logger: logger.With().Str("component", "recorder").Logger(),
	}
}

// Capture is a running recording process.
type Capture struct {
	cmd  *exec.Cmd
	path string
}

// Path returns the output file being written.
func (c *Capture) Path() string {
	return c.path
}

// Start begins capturing the device to outPath for at most the given
// duration. The returned Capture must be waited on or stopped.
func (r *Recorder) Start(ctx context.Context, duration time.Duration, outPath string) (*Capture, error) {
	secs := duration.Seconds()
	if secs < 1 {
		secs = 1
	}

	args := []string{
		"-V1",
		"-t", "coreaudio", r.cfg.DeviceName,
		"-r", "44100", "-b", "16", "-c", "2", "-e", "signed-integer",
		outPath,
		"trim", "0", fmt.Sprintf("%.2f", secs),
	}

	cmd := exec.CommandContext(ctx, r.cfg.SoxBin, args...)
	r.logger.Debug().
		Str("device", r.cfg.DeviceName).
		Str("out", outPath).
		Float64("seconds", secs).
		Msg("Starting capture")

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", r.cfg.SoxBin, err)
	}
	return &Capture{cmd: cmd, path: outPath}, nil
}

// Wait blocks until the recording process exits on its own (normally when
// the trim duration elapses).
func (c *Capture) Wait() error {
	if err := c.cmd.Wait(); err != nil {
		return fmt.Errorf("recorder exited: %w", err)
	}
	return nil
}

// Stop terminates a capture that did not end on its own: SIGTERM first,
// then SIGKILL if the process is still alive after the grace period.
func (c *Capture) Stop(grace time.Duration) error {
	if c.cmd.Process == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- c.cmd.Wait() }()

	if err := c.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// Process may already be gone
		select {
		case <-done:
			return nil
		default:
		}
	}

	select {
	case <-done:
		return nil
	case <-time.After(grace):
		if err := c.cmd.Process.Kill(); err != nil {
			return fmt.Errorf("failed to kill recorder: %w", err)
		}
		<-done
		return nil
	}
}
