package library

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/rs/zerolog"
)

// TaggerConfig holds tagging settings.
type TaggerConfig struct {
	MetaflacBin string        // metaflac executable (default "metaflac")
	FLACDir     string        // directory holding the rips named per suggested_filename
	HTTPClient  *http.Client  // client for artwork downloads; defaulted if nil
	Timeout     time.Duration // artwork download timeout (default 15s)
	Force       bool          // retag files that already carry matching tags
}

// Tagger writes CSV metadata into FLAC files via metaflac.
type Tagger struct {
	cfg    TaggerConfig
	logger zerolog.Logger
}

// NewTagger creates a Tagger, filling in defaults for unset config fields.
func NewTagger(cfg TaggerConfig, logger zerolog.Logger) *Tagger {
	if cfg.MetaflacBin == "" {
		cfg.MetaflacBin = "metaflac"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Tagger{
		cfg:    cfg,
		logger: logger.With().Str("component", "tagger").Logger(),
	}
}

// TagResult summarizes one tagging run.
type TagResult struct {
	Tagged  int // files updated
	Skipped int // files already carrying matching tags
	Missing int // rows whose file was not found
	Failed  int // files that errored
}

// TagFromCSV applies every row of the metadata CSV to its FLAC file in the
// configured directory. Rows whose file is absent are counted and skipped;
// per-file failures are logged and counted rather than aborting the run.
func (t *Tagger) TagFromCSV(ctx context.Context, csvPath string) (TagResult, error) {
	var result TagResult

	rows, err := ReadCSV(csvPath)
	if err != nil {
		return result, err
	}

	for _, row := range rows {
		if row.SuggestedFilename == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		path := filepath.Join(t.cfg.FLACDir, row.SuggestedFilename)
		if _, err := os.Stat(path); err != nil {
			result.Missing++
			t.logger.Warn().Str("file", row.SuggestedFilename).Msg("File not found, skipping")
			continue
		}

		if !t.cfg.Force && alreadyTagged(path, row) {
			result.Skipped++
			t.logger.Debug().Str("file", row.SuggestedFilename).Msg("Already tagged, skipping")
			continue
		}

		if err := t.tagFile(ctx, path, row); err != nil {
			result.Failed++
			t.logger.Error().Err(err).Str("file", row.SuggestedFilename).Msg("Failed to tag file")
			continue
		}

		result.Tagged++
		t.logger.Info().Str("file", row.SuggestedFilename).Msg("Tagged")
	}

	return result, nil
}

// alreadyTagged reports whether the file's existing tags match the row's
// title and artist, which is how a previous run of this tool leaves them.
func alreadyTagged(path string, row Row) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return false
	}
	return m.Title() == row.Title && m.Artist() == row.Artist
}

// vorbisFields maps Vorbis comment names to each row's values, in write
// order.
func vorbisFields(row Row) [][2]string {
	return [][2]string{
		{"TITLE", row.Title},
		{"ARTIST", row.Artist},
		{"ALBUM", row.Album},
		{"ALBUMARTIST", row.AlbumArtist},
		{"GENRE", row.Genre},
		{"DATE", row.Date},
		{"TRACKNUMBER", row.TrackNumber},
		{"DISCNUMBER", row.DiscNumber},
		{"ISRC", row.ISRC},
	}
}

func (t *Tagger) tagFile(ctx context.Context, path string, row Row) error {
	// Remove then re-set each field so repeated runs never stack duplicates
	args := make([]string, 0, 24)
	for _, field := range vorbisFields(row) {
		args = append(args, "--remove-tag="+field[0])
		if v := strings.TrimSpace(field[1]); v != "" {
			args = append(args, fmt.Sprintf("--set-tag=%s=%s", field[0], v))
		}
	}
	args = append(args, path)

	if err := t.runMetaflac(ctx, args...); err != nil {
		return err
	}

	if row.AlbumArtURL == "" {
		return nil
	}

	cover, mime, err := t.downloadCover(ctx, row.AlbumArtURL)
	if err != nil {
		// Tags are already written; missing artwork is not fatal
		t.logger.Warn().Err(err).Str("file", filepath.Base(path)).Msg("Failed to fetch cover art")
		return nil
	}
	return t.embedCover(ctx, path, cover, mime)
}

// embedCover replaces any existing picture blocks with the given front
// cover image.
func (t *Tagger) embedCover(ctx context.Context, path string, cover []byte, mime string) error {
	tmp, err := os.CreateTemp("", "resonate-cover-*")
	if err != nil {
		return fmt.Errorf("failed to create temp cover file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(cover); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp cover file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp cover file: %w", err)
	}

	if err := t.runMetaflac(ctx, "--remove", "--block-type=PICTURE", path); err != nil {
		return err
	}

	spec := fmt.Sprintf("3|%s|Front Cover||%s", mime, tmp.Name())
	return t.runMetaflac(ctx, "--import-picture-from="+spec, path)
}

func (t *Tagger) runMetaflac(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, t.cfg.MetaflacBin, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s failed: %w: %s", t.cfg.MetaflacBin, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// downloadCover fetches the artwork and guesses its MIME type from the URL
// extension (Spotify serves JPEG unless the URL says otherwise).
func (t *Tagger) downloadCover(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build artwork request: %w", err)
	}

	resp, err := t.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch artwork: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("artwork fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read artwork: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("artwork response was empty")
	}

	return data, coverMIME(url), nil
}

func coverMIME(url string) string {
	if strings.HasSuffix(strings.ToLower(url), ".png") {
		return "image/png"
	}
	return "image/jpeg"
}
