package spotify

import (
	"fmt"
	"net/http"
)

// Error represents a Spotify Web API error response.
//
// The Error type carries the HTTP status and the message Spotify returned.
// It implements error and provides Temporary for retry decisions.
type Error struct {
	Status  int    // HTTP status code
	Message string // Error message from Spotify
}

// Error returns the error message.
func (e *Error) Error() string {
	return fmt.Sprintf("spotify: error %d: %s", e.Status, e.Message)
}

// Is checks if the target error is a Spotify error with the same status.
//
// This allows errors.Is() to work with *Error types.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Status == t.Status
}

// Temporary returns true if the error is transient and the request should
// be retried: rate limiting (429) and server errors (5xx).
func (e *Error) Temporary() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// Predefined errors for common cases.
var (
	// ErrNoRefreshToken is returned when a user-scoped operation is
	// attempted but the client was configured without a refresh token.
	ErrNoRefreshToken = fmt.Errorf("spotify: refresh token required")

	// ErrNoDevice is returned when playback is requested but no Spotify
	// Connect device is available.
	ErrNoDevice = fmt.Errorf("spotify: no available playback device")

	// ErrPlaylistNotFound is returned when a playlist lookup by name finds
	// no match among the user's playlists.
	ErrPlaylistNotFound = fmt.Errorf("spotify: playlist not found")
)
