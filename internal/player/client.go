package player

import (
	"context"
	"time"
)

// Status is the Spotify desktop app's playback state at one poll.
type Status struct {
	TrackID  string        // Spotify track URI of the current track
	Name     string        // Track name/title
	Artist   string        // Artist name
	Duration time.Duration // Total track duration
	Position time.Duration // Current playback position
	State    PlayState     // Current playback state
}

// PlayState represents the playback state of the Spotify app.
type PlayState int

const (
	StateStopped PlayState = iota // No track loaded
	StatePlaying                  // Track is currently playing
	StatePaused                   // Track is paused
)

// String returns a human-readable representation of the PlayState.
func (s PlayState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Client defines the interface for driving the Spotify desktop app.
type Client interface {
	// IsRunning checks if the Spotify app is running
	IsRunning(ctx context.Context) (bool, error)

	// Open launches the Spotify app and waits briefly for it to come up
	Open(ctx context.Context) error

	// CurrentStatus returns the app's playback status, or nil if stopped
	CurrentStatus(ctx context.Context) (*Status, error)

	// PlayTrack starts playback of a track URI from the beginning
	PlayTrack(ctx context.Context, uri string) error

	// Preload buffers a track and leaves it paused at position zero,
	// ready for gapless recording
	Preload(ctx context.Context, uri string, buffer time.Duration) error

	// Play resumes playback
	Play(ctx context.Context) error

	// Pause pauses playback
	Pause(ctx context.Context) error

	// SetPosition seeks to the given position in the current track
	SetPosition(ctx context.Context, pos time.Duration) error

	// SetShuffle enables or disables shuffle
	SetShuffle(ctx context.Context, enabled bool) error
}
