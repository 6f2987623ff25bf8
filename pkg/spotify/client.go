// Package spotify provides a client for the Spotify Web API.
//
// This package implements the subset of the Web API the resonate tools
// need: library reads, playlist lookup, and playback control. It is
// designed to be usable as a standalone SDK.
//
// Example usage:
//
//	import "github.com/jmtucker/resonate/pkg/spotify"
//
//	client, err := spotify.NewClient(spotify.Config{
//	    ClientID:     "your-client-id",
//	    ClientSecret: "your-client-secret",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tracks, err := client.Library().SavedTracks(ctx, 50)
package spotify

import (
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Config holds client configuration.
type Config struct {
	ClientID     string       // Required: application client ID
	ClientSecret string       // Required: application client secret
	RefreshToken string       // Optional: user refresh token for user-scoped endpoints
	HTTPClient   *http.Client // Optional: HTTP client (defaults to http.DefaultClient)
	BaseURL      string       // Optional: API base URL (defaults to the Web API, used for testing)
	TokenURL     string       // Optional: token endpoint (defaults to the accounts service, used for testing)
	Logger       Logger       // Optional: logger interface for debug logging
}

// Logger is an optional interface for logging.
type Logger interface {
	// Debugf logs a debug message with format and arguments.
	Debugf(format string, args ...interface{})
}

const (
	// DefaultBaseURL is the default Spotify Web API endpoint.
	DefaultBaseURL = "https://api.spotify.com/v1"
	// DefaultTokenURL is the default accounts-service token endpoint.
	DefaultTokenURL = "https://accounts.spotify.com/api/token"
)

// Client is the main entry point for Spotify Web API operations.
type Client struct {
	clientID     string
	clientSecret string
	refreshToken string
	httpClient   *http.Client
	baseURL      string
	tokenURL     string
	logger       Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time

	library   *LibraryService
	playlists *PlaylistService
	player    *PlayerService
}

// NewClient creates a new Spotify Web API client.
//
// Returns an error if required configuration (ClientID, ClientSecret) is
// missing.
func NewClient(cfg Config) (*Client, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("spotify: ClientID is required")
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("spotify: ClientSecret is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}

	c := &Client{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		refreshToken: cfg.RefreshToken,
		httpClient:   httpClient,
		baseURL:      baseURL,
		tokenURL:     tokenURL,
		logger:       cfg.Logger,
	}

	c.library = &LibraryService{client: c}
	c.playlists = &PlaylistService{client: c}
	c.player = &PlayerService{client: c}

	return c, nil
}

// Library returns the saved-tracks service.
func (c *Client) Library() *LibraryService {
	return c.library
}

// Playlists returns the playlist service.
func (c *Client) Playlists() *PlaylistService {
	return c.playlists
}

// Player returns the playback-control service.
func (c *Client) Player() *PlayerService {
	return c.player
}

// logDebugf logs a debug message if a logger is configured.
func (c *Client) logDebugf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debugf(format, args...)
	}
}
