// Package library exports playlist metadata to CSV and applies it to FLAC
// rips as Vorbis comments and embedded cover art.
package library

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/jmtucker/resonate/pkg/spotify"
)

// Row is one track's worth of tag metadata, one CSV line.
type Row struct {
	Title             string
	Artist            string
	Album             string
	AlbumArtist       string
	Genre             string
	Date              string
	TrackNumber       string
	DiscNumber        string
	ISRC              string
	DurationMS        string
	SpotifyID         string
	SpotifyURI        string
	SpotifyURL        string
	SuggestedFilename string
	AlbumArtURL       string
}

var csvColumns = []string{
	"title",
	"artist",
	"album",
	"albumartist",
	"genre",
	"date",
	"tracknumber",
	"discnumber",
	"isrc",
	"duration_ms",
	"spotify_id",
	"spotify_uri",
	"spotify_url",
	"suggested_filename",
	"album_art_url",
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[\\/:*?"<>|]`)
	repeatedWhitespace  = regexp.MustCompile(`\s+`)
)

// SanitizeFilename makes a string safe for cross-platform filenames:
// reserved characters become underscores and runs of whitespace collapse
// to single spaces.
func SanitizeFilename(name string) string {
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = repeatedWhitespace.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// SuggestedFilename returns the "<artist> - <title>.flac" name a rip of the
// track is expected to use.
func SuggestedFilename(artist, title string) string {
	return fmt.Sprintf("%s - %s.flac", SanitizeFilename(artist), SanitizeFilename(title))
}

// releaseYear reduces a Spotify release date (YYYY, YYYY-MM, or YYYY-MM-DD)
// to its year.
func releaseYear(date string) string {
	if date == "" {
		return ""
	}
	return strings.SplitN(date, "-", 2)[0]
}

// BuildRows converts tracks into CSV rows. genres maps primary-artist ID to
// that artist's genre list, as returned by PlaylistService.ArtistGenres.
// Tracks with no ID (local files) are skipped.
func BuildRows(tracks []spotify.Track, genres map[string][]string) []Row {
	rows := make([]Row, 0, len(tracks))
	for _, t := range tracks {
		if t.ID == "" {
			continue
		}

		artist := t.PrimaryArtist()
		albumArtist := ""
		if len(t.Album.Artists) > 0 {
			albumArtist = strings.TrimSpace(t.Album.Artists[0].Name)
		}
		if albumArtist == "" {
			albumArtist = artist
		}

		var artistID string
		if len(t.Artists) > 0 {
			artistID = t.Artists[0].ID
		}

		row := Row{
			Title:             t.Name,
			Artist:            artist,
			Album:             t.Album.Name,
			AlbumArtist:       albumArtist,
			Genre:             strings.Join(genres[artistID], ", "),
			Date:              releaseYear(t.Album.ReleaseDate),
			ISRC:              t.ExternalIDs.ISRC,
			DurationMS:        strconv.Itoa(t.DurationMS),
			SpotifyID:         t.ID,
			SpotifyURI:        t.URI,
			SpotifyURL:        t.ExternalURLs.Spotify,
			SuggestedFilename: SuggestedFilename(artist, t.Name),
			AlbumArtURL:       t.Album.LargestImage(),
		}
		if t.TrackNumber > 0 {
			row.TrackNumber = strconv.Itoa(t.TrackNumber)
		}
		if t.DiscNumber > 0 {
			row.DiscNumber = strconv.Itoa(t.DiscNumber)
		}
		rows = append(rows, row)
	}
	return rows
}

func (r Row) record() []string {
	return []string{
		r.Title,
		r.Artist,
		r.Album,
		r.AlbumArtist,
		r.Genre,
		r.Date,
		r.TrackNumber,
		r.DiscNumber,
		r.ISRC,
		r.DurationMS,
		r.SpotifyID,
		r.SpotifyURI,
		r.SpotifyURL,
		r.SuggestedFilename,
		r.AlbumArtURL,
	}
}

// WriteCSV writes rows (with a header line) to path, creating parent
// directories as needed.
func WriteCSV(path string, rows []Row) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row.record()); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return f.Close()
}

// ReadCSV loads a metadata CSV previously written by WriteCSV. Columns are
// matched by header name so column order does not matter.
func ReadCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []Row
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		rows = append(rows, Row{
			Title:             field(record, "title"),
			Artist:            field(record, "artist"),
			Album:             field(record, "album"),
			AlbumArtist:       field(record, "albumartist"),
			Genre:             field(record, "genre"),
			Date:              field(record, "date"),
			TrackNumber:       field(record, "tracknumber"),
			DiscNumber:        field(record, "discnumber"),
			ISRC:              field(record, "isrc"),
			DurationMS:        field(record, "duration_ms"),
			SpotifyID:         field(record, "spotify_id"),
			SpotifyURI:        field(record, "spotify_uri"),
			SpotifyURL:        field(record, "spotify_url"),
			SuggestedFilename: field(record, "suggested_filename"),
			AlbumArtURL:       field(record, "album_art_url"),
		})
	}
	return rows, nil
}
