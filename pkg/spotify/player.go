package spotify

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
)

// PlayerService controls playback on Spotify Connect devices. All
// operations require a refresh token with the playback scopes.
type PlayerService struct {
	client *Client
}

type devicesResponse struct {
	Devices []Device `json:"devices"`
}

// Devices lists the user's available Spotify Connect devices.
func (s *PlayerService) Devices(ctx context.Context) ([]Device, error) {
	if s.client.refreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	var resp devicesResponse
	if err := s.client.get(ctx, "/me/player/devices", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Devices, nil
}

// ActiveOrFirstDevice picks the active device, falling back to the first
// available one. Returns ErrNoDevice when none exist.
func (s *PlayerService) ActiveOrFirstDevice(ctx context.Context) (*Device, error) {
	devices, err := s.Devices(ctx)
	if err != nil {
		return nil, err
	}
	for i := range devices {
		if devices[i].IsActive {
			return &devices[i], nil
		}
	}
	if len(devices) > 0 {
		return &devices[0], nil
	}
	return nil, ErrNoDevice
}

// Play starts playback of the given track URIs on a device. An empty
// deviceID targets the user's currently active device.
func (s *PlayerService) Play(ctx context.Context, deviceID string, uris ...string) error {
	if s.client.refreshToken == "" {
		return ErrNoRefreshToken
	}

	params := url.Values{}
	if deviceID != "" {
		params.Set("device_id", deviceID)
	}

	body, err := json.Marshal(map[string][]string{"uris": uris})
	if err != nil {
		return err
	}
	return s.client.put(ctx, "/me/player/play", params, strings.NewReader(string(body)))
}

// Pause pauses playback on the user's active device.
func (s *PlayerService) Pause(ctx context.Context) error {
	if s.client.refreshToken == "" {
		return ErrNoRefreshToken
	}
	return s.client.put(ctx, "/me/player/pause", nil, nil)
}
