package spotify

// Artist is a track or album artist.
type Artist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres,omitempty"`
}

// Image is album or playlist artwork at one resolution.
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Album holds the album fields the export and tagging flows use.
type Album struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	ReleaseDate string   `json:"release_date"` // YYYY, YYYY-MM, or YYYY-MM-DD
	Artists     []Artist `json:"artists"`
	Images      []Image  `json:"images"`
	TotalTracks int      `json:"total_tracks"`
}

// Track is a Spotify track.
type Track struct {
	ID          string   `json:"id"`
	URI         string   `json:"uri"`
	Name        string   `json:"name"`
	Artists     []Artist `json:"artists"`
	Album       Album    `json:"album"`
	DurationMS  int      `json:"duration_ms"`
	TrackNumber int      `json:"track_number"`
	DiscNumber  int      `json:"disc_number"`
	PreviewURL  string   `json:"preview_url"`
	ExternalIDs struct {
		ISRC string `json:"isrc"`
	} `json:"external_ids"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

// PrimaryArtist returns the first artist's name, or empty for a track with
// no artists.
func (t Track) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0].Name
}

// LargestImage returns the URL of the album's largest artwork, or empty.
func (a Album) LargestImage() string {
	best := ""
	bestArea := -1
	for _, img := range a.Images {
		if area := img.Width * img.Height; area > bestArea {
			bestArea = area
			best = img.URL
		}
	}
	return best
}

// SavedTrack is a library entry: a track plus when it was saved.
type SavedTrack struct {
	AddedAt string `json:"added_at"`
	Track   Track  `json:"track"`
}

// Playlist is a playlist summary from the current user's list.
type Playlist struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Tracks struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

// PlaylistItem is one entry of a playlist.
type PlaylistItem struct {
	AddedAt string `json:"added_at"`
	Track   Track  `json:"track"`
}

// Device is a Spotify Connect playback device.
type Device struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	IsActive bool   `json:"is_active"`
}
