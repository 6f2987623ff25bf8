package player

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// AppleScriptClient drives the Spotify desktop app through osascript.
type AppleScriptClient struct{}

// NewAppleScriptClient creates a new AppleScript-based Spotify controller.
func NewAppleScriptClient() *AppleScriptClient {
	return &AppleScriptClient{}
}

// IsRunning checks if the Spotify app is currently running.
func (c *AppleScriptClient) IsRunning(ctx context.Context) (bool, error) {
	script := `tell application "System Events" to (name of processes) contains "Spotify"`

	out, err := runScript(ctx, script)
	if err != nil {
		return false, fmt.Errorf("failed to check if Spotify is running: %w", err)
	}
	return out == "true", nil
}

// Open launches the Spotify app and gives it a moment to finish starting.
func (c *AppleScriptClient) Open(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "open", "-a", "Spotify")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open Spotify: %w", err)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Second):
	}
	return nil
}

// CurrentStatus returns the app's playback status. A single osascript call
// checks that Spotify is running and queries track data atomically, avoiding
// two subprocess spawns per poll. Returns nil when Spotify is not running or
// has no track loaded.
func (c *AppleScriptClient) CurrentStatus(ctx context.Context) (*Status, error) {
	script := `
tell application "System Events"
	if not ((name of processes) contains "Spotify") then
		return "not_running"
	end if
end tell
tell application "Spotify"
	if player state is stopped then
		return "stopped"
	else
		set trackId to id of current track
		set trackName to name of current track
		set trackArtist to artist of current track
		set trackDuration to duration of current track
		set playerPos to player position
		set playerState to player state as string

		return trackId & "|||" & trackName & "|||" & trackArtist & "|||" & trackDuration & "|||" & playerPos & "|||" & playerState
	end if
end tell`

	out, err := runScript(ctx, script)
	if err != nil {
		return nil, fmt.Errorf("failed to query Spotify: %w", err)
	}

	if out == "not_running" || out == "stopped" {
		return nil, nil
	}

	status, err := parseStatusOutput(out)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Spotify status: %w", err)
	}
	return status, nil
}

// parseStatusOutput parses the delimited output from the status script.
// Spotify reports track duration in milliseconds and player position in
// seconds.
func parseStatusOutput(output string) (*Status, error) {
	parts := strings.Split(output, "|||")
	if len(parts) != 6 {
		return nil, fmt.Errorf("expected 6 parts, got %d: %q", len(parts), output)
	}

	id := strings.TrimSpace(parts[0])
	name := strings.TrimSpace(parts[1])
	artist := strings.TrimSpace(parts[2])
	durationStr := strings.TrimSpace(parts[3])
	positionStr := strings.TrimSpace(parts[4])
	stateStr := strings.TrimSpace(parts[5])

	durationMS, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse duration %q: %w", durationStr, err)
	}

	positionSec, err := strconv.ParseFloat(positionStr, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse position %q: %w", positionStr, err)
	}

	var state PlayState
	switch stateStr {
	case "playing":
		state = StatePlaying
	case "paused":
		state = StatePaused
	case "stopped":
		state = StateStopped
	default:
		return nil, fmt.Errorf("unknown player state: %q", stateStr)
	}

	return &Status{
		TrackID:  id,
		Name:     name,
		Artist:   artist,
		Duration: time.Duration(durationMS * float64(time.Millisecond)),
		Position: time.Duration(positionSec * float64(time.Second)),
		State:    state,
	}, nil
}

// PlayTrack starts playback of a track URI from the beginning, with
// shuffle disabled to keep playlist order.
func (c *AppleScriptClient) PlayTrack(ctx context.Context, uri string) error {
	if err := c.SetShuffle(ctx, false); err != nil {
		return err
	}
	script := fmt.Sprintf(`tell application "Spotify" to play track %q`, uri)
	if _, err := runScript(ctx, script); err != nil {
		return fmt.Errorf("failed to play track %s: %w", uri, err)
	}
	return nil
}

// Preload loads a track, lets it buffer for the given duration, then
// pauses and rewinds to position zero so a subsequent Play starts clean.
func (c *AppleScriptClient) Preload(ctx context.Context, uri string, buffer time.Duration) error {
	if err := c.PlayTrack(ctx, uri); err != nil {
		return err
	}
	if buffer > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(buffer):
		}
	}
	if err := c.Pause(ctx); err != nil {
		return err
	}
	return c.SetPosition(ctx, 0)
}

// Play resumes playback.
func (c *AppleScriptClient) Play(ctx context.Context) error {
	if _, err := runScript(ctx, `tell application "Spotify" to play`); err != nil {
		return fmt.Errorf("failed to play: %w", err)
	}
	return nil
}

// Pause pauses playback.
func (c *AppleScriptClient) Pause(ctx context.Context) error {
	if _, err := runScript(ctx, `tell application "Spotify" to pause`); err != nil {
		return fmt.Errorf("failed to pause: %w", err)
	}
	return nil
}

// SetPosition seeks to the given position in the current track.
func (c *AppleScriptClient) SetPosition(ctx context.Context, pos time.Duration) error {
	script := fmt.Sprintf(`tell application "Spotify" to set player position to %.2f`, pos.Seconds())
	if _, err := runScript(ctx, script); err != nil {
		return fmt.Errorf("failed to set position: %w", err)
	}
	return nil
}

// SetShuffle enables or disables shuffle mode.
func (c *AppleScriptClient) SetShuffle(ctx context.Context, enabled bool) error {
	script := fmt.Sprintf(`tell application "Spotify" to set shuffling to %t`, enabled)
	if _, err := runScript(ctx, script); err != nil {
		return fmt.Errorf("failed to set shuffle: %w", err)
	}
	return nil
}

// runScript executes an AppleScript snippet, surfacing osascript's stderr
// on failure.
func runScript(ctx context.Context, script string) (string, error) {
	cmd := exec.CommandContext(ctx, "osascript", "-e", script)
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("osascript error: %s", string(exitErr.Stderr))
		}
		return "", fmt.Errorf("failed to execute osascript: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}
