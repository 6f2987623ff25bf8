package spotify

import (
	"context"
	"net/url"
	"strconv"
)

// LibraryService reads the current user's saved tracks. All operations
// require a refresh token with the user-library-read scope.
type LibraryService struct {
	client *Client
}

// savedTracksPage is one page of /me/tracks.
type savedTracksPage struct {
	Items []SavedTrack `json:"items"`
	Next  string       `json:"next"`
	Total int          `json:"total"`
}

// savedTracksPageLimit is the API maximum for /me/tracks.
const savedTracksPageLimit = 50

// SavedTracks returns up to max of the user's most recently saved tracks,
// newest first, paging through the API as needed. A max of 0 or less
// fetches the whole library.
func (s *LibraryService) SavedTracks(ctx context.Context, max int) ([]SavedTrack, error) {
	if s.client.refreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	var tracks []SavedTrack
	offset := 0
	for {
		limit := savedTracksPageLimit
		if max > 0 && max-len(tracks) < limit {
			limit = max - len(tracks)
		}
		if limit <= 0 {
			break
		}

		params := url.Values{}
		params.Set("limit", strconv.Itoa(limit))
		params.Set("offset", strconv.Itoa(offset))

		var page savedTracksPage
		if err := s.client.get(ctx, "/me/tracks", params, &page); err != nil {
			return nil, err
		}

		tracks = append(tracks, page.Items...)
		if len(page.Items) < limit || page.Next == "" {
			break
		}
		offset += len(page.Items)
	}

	if max > 0 && len(tracks) > max {
		tracks = tracks[:max]
	}
	return tracks, nil
}

// MostRecentSavedTrack returns the newest library entry, or nil if the
// library is empty.
func (s *LibraryService) MostRecentSavedTrack(ctx context.Context) (*SavedTrack, error) {
	tracks, err := s.SavedTracks(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, nil
	}
	return &tracks[0], nil
}
