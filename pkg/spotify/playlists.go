package spotify

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// PlaylistService finds the current user's playlists and reads their
// contents.
type PlaylistService struct {
	client *Client
}

type playlistsPage struct {
	Items []Playlist `json:"items"`
	Next  string     `json:"next"`
}

type playlistItemsPage struct {
	Items []PlaylistItem `json:"items"`
	Next  string         `json:"next"`
}

type artistsResponse struct {
	Artists []Artist `json:"artists"`
}

const (
	playlistsPageLimit     = 50
	playlistItemsPageLimit = 100
	artistsBatchLimit      = 50
)

// FindByName locates a playlist among the current user's playlists by
// case-insensitive name match, paging as needed. Returns
// ErrPlaylistNotFound when no playlist matches.
func (s *PlaylistService) FindByName(ctx context.Context, name string) (*Playlist, error) {
	if s.client.refreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	want := strings.ToLower(strings.TrimSpace(name))
	offset := 0
	for {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(playlistsPageLimit))
		params.Set("offset", strconv.Itoa(offset))

		var page playlistsPage
		if err := s.client.get(ctx, "/me/playlists", params, &page); err != nil {
			return nil, err
		}

		for i := range page.Items {
			if strings.ToLower(strings.TrimSpace(page.Items[i].Name)) == want {
				return &page.Items[i], nil
			}
		}
		if len(page.Items) == 0 || page.Next == "" {
			break
		}
		offset += len(page.Items)
	}

	return nil, ErrPlaylistNotFound
}

// Items returns every entry of a playlist in order, paging as needed.
func (s *PlaylistService) Items(ctx context.Context, playlistID string) ([]PlaylistItem, error) {
	var items []PlaylistItem
	offset := 0
	for {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(playlistItemsPageLimit))
		params.Set("offset", strconv.Itoa(offset))

		var page playlistItemsPage
		if err := s.client.get(ctx, "/playlists/"+playlistID+"/tracks", params, &page); err != nil {
			return nil, err
		}

		items = append(items, page.Items...)
		if len(page.Items) == 0 || page.Next == "" {
			break
		}
		offset += len(page.Items)
	}
	return items, nil
}

// ArtistGenres batch-fetches genres for the given artist IDs, returning a
// map keyed by artist ID. Duplicate and empty IDs are skipped.
func (s *PlaylistService) ArtistGenres(ctx context.Context, artistIDs []string) (map[string][]string, error) {
	seen := make(map[string]bool, len(artistIDs))
	var unique []string
	for _, id := range artistIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}

	genres := make(map[string][]string, len(unique))
	for start := 0; start < len(unique); start += artistsBatchLimit {
		end := start + artistsBatchLimit
		if end > len(unique) {
			end = len(unique)
		}

		params := url.Values{}
		params.Set("ids", strings.Join(unique[start:end], ","))

		var resp artistsResponse
		if err := s.client.get(ctx, "/artists", params, &resp); err != nil {
			return nil, err
		}
		for _, a := range resp.Artists {
			if a.ID != "" {
				genres[a.ID] = a.Genres
			}
		}
	}
	return genres, nil
}
