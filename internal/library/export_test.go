package library

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/jmtucker/resonate/pkg/spotify"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clean name", "Midnight City", "Midnight City"},
		{"reserved characters", `AC/DC: Back?`, "AC_DC_ Back_"},
		{"all reserved", `\/:*?"<>|`, "_________"},
		{"whitespace collapse", "  too   many \t spaces  ", "too many spaces"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.in); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSuggestedFilename(t *testing.T) {
	got := SuggestedFilename("M83", "Midnight City")
	if got != "M83 - Midnight City.flac" {
		t.Errorf("SuggestedFilename() = %q", got)
	}
}

func TestReleaseYear(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2011-10-18", "2011"},
		{"2011-10", "2011"},
		{"2011", "2011"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := releaseYear(tt.in); got != tt.want {
			t.Errorf("releaseYear(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func sampleTrack() spotify.Track {
	tr := spotify.Track{
		ID:          "track1",
		URI:         "spotify:track:track1",
		Name:        "Midnight City",
		DurationMS:  243000,
		TrackNumber: 3,
		DiscNumber:  1,
		Artists: []spotify.Artist{
			{ID: "artist1", Name: "M83"},
		},
		Album: spotify.Album{
			Name:        "Hurry Up, We're Dreaming",
			ReleaseDate: "2011-10-18",
			Artists:     []spotify.Artist{{Name: "M83"}},
			Images: []spotify.Image{
				{URL: "https://img/small", Width: 64, Height: 64},
				{URL: "https://img/large", Width: 640, Height: 640},
			},
		},
	}
	tr.ExternalIDs.ISRC = "FR123"
	tr.ExternalURLs.Spotify = "https://open.spotify.com/track/track1"
	return tr
}

func TestBuildRows(t *testing.T) {
	genres := map[string][]string{"artist1": {"french electronic", "shoegaze"}}

	rows := BuildRows([]spotify.Track{sampleTrack()}, genres)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	want := Row{
		Title:             "Midnight City",
		Artist:            "M83",
		Album:             "Hurry Up, We're Dreaming",
		AlbumArtist:       "M83",
		Genre:             "french electronic, shoegaze",
		Date:              "2011",
		TrackNumber:       "3",
		DiscNumber:        "1",
		ISRC:              "FR123",
		DurationMS:        "243000",
		SpotifyID:         "track1",
		SpotifyURI:        "spotify:track:track1",
		SpotifyURL:        "https://open.spotify.com/track/track1",
		SuggestedFilename: "M83 - Midnight City.flac",
		AlbumArtURL:       "https://img/large",
	}
	if rows[0] != want {
		t.Errorf("BuildRows()[0] = %+v, want %+v", rows[0], want)
	}
}

func TestBuildRowsFallbacks(t *testing.T) {
	tr := sampleTrack()
	tr.Album.Artists = nil // album artist falls back to primary artist
	tr.TrackNumber = 0
	tr.DiscNumber = 0

	rows := BuildRows([]spotify.Track{tr}, nil)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].AlbumArtist != "M83" {
		t.Errorf("AlbumArtist = %q, want M83", rows[0].AlbumArtist)
	}
	if rows[0].Genre != "" {
		t.Errorf("Genre = %q, want empty", rows[0].Genre)
	}
	if rows[0].TrackNumber != "" || rows[0].DiscNumber != "" {
		t.Errorf("zero track/disc numbers should be empty, got %q/%q",
			rows[0].TrackNumber, rows[0].DiscNumber)
	}
}

func TestBuildRowsSkipsLocalTracks(t *testing.T) {
	tr := sampleTrack()
	tr.ID = ""

	rows := BuildRows([]spotify.Track{tr}, nil)
	if len(rows) != 0 {
		t.Errorf("expected local track to be skipped, got %d rows", len(rows))
	}
}

func TestCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "metadata.csv")

	in := BuildRows([]spotify.Track{sampleTrack()}, map[string][]string{
		"artist1": {"french electronic"},
	})
	if err := WriteCSV(path, in); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	out, err := ReadCSV(path)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip mismatch:\n in = %+v\nout = %+v", in, out)
	}
}

func TestReadCSVMissingFile(t *testing.T) {
	if _, err := ReadCSV(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Error("expected error for missing csv")
	}
}
